package records

import (
	"context"
	"strconv"
	"time"

	"github.com/chris/zeroism/internal/parse"
)

// Journal writes typed entries to their tables. Dates are passed in by the
// caller so a flow started before midnight keeps writing to its own day.
type Journal struct {
	store *Store
	now   func() time.Time
}

func NewJournal(s *Store, now func() time.Time) *Journal {
	if now == nil {
		now = time.Now
	}
	return &Journal{store: s, now: now}
}

func (j *Journal) Store() *Store { return j.store }

func (j *Journal) clock() string { return j.now().Format("15:04") }

func (j *Journal) group(ctx context.Context, date string, g Group, values []string) error {
	return j.store.UpdateRange(ctx, Health.Name, date, g.Start(), g.End(), values)
}

func (j *Journal) append(ctx context.Context, t Table, values map[string]string) error {
	row, err := t.Row(values)
	if err != nil {
		return err
	}
	return j.store.AppendRow(ctx, t.Name, row)
}

// Sleep writes the whole sleep group; metrics the tracker did not show
// stay empty.
func (j *Journal) Sleep(ctx context.Context, date string, m parse.SleepMetrics) error {
	values := make([]string, len(SleepGroup.Fields))
	for i, f := range SleepGroup.Fields {
		values[i] = m[f]
	}
	return j.group(ctx, date, SleepGroup, values)
}

func (j *Journal) Subjective(ctx context.Context, date string, s parse.SubjectiveSleep) error {
	return j.group(ctx, date, SubjectiveGroup, []string{
		strconv.Itoa(s.Rested), strconv.Itoa(s.GettingUp), strconv.Itoa(s.Dreams),
		strconv.Itoa(s.Body), strconv.Itoa(s.Clarity), parse.FormatFloat(s.Average()),
		s.SleptThrough, strconv.Itoa(s.WakeCount), s.FallAsleepFor,
	})
}

func (j *Journal) Cutoffs(ctx context.Context, date string, c parse.Cutoffs) error {
	values := make([]string, 0, len(CutoffsGroup.Fields))
	for _, x := range c {
		values = append(values, x.OK, x.Time)
	}
	return j.group(ctx, date, CutoffsGroup, values)
}

func (j *Journal) Environment(ctx context.Context, date string, e parse.Environment) error {
	return j.group(ctx, date, EnvironmentGroup, []string{
		strconv.Itoa(e.Darkness), strconv.Itoa(e.Noise), e.Partner, e.DeviceInRoom, e.RoomTemp,
	})
}

// Vitals writes only the measurements given.
func (j *Journal) Vitals(ctx context.Context, date string, v parse.Vitals) error {
	return j.store.UpdateFields(ctx, Health, date, v.Fields())
}

// Activity writes the step count, and the calories when known.
func (j *Journal) Activity(ctx context.Context, date string, a parse.Activity) error {
	return j.store.UpdateFields(ctx, Health, date, a.Fields())
}

func (j *Journal) Exercise(ctx context.Context, date string, e parse.Exercise) error {
	return j.append(ctx, Exercise, map[string]string{
		"date":                 date,
		"time":                 j.clock(),
		"type":                 e.Type,
		"duration":             e.Duration,
		"workout_type":         e.WorkoutType,
		"rpe":                  e.RPE,
		"stretching":           e.Stretching,
		"sauna_temp":           e.SaunaTemp,
		"sauna_rounds":         e.SaunaRounds,
		"sauna_time_per_round": e.SaunaMinsPerRound,
		"vo2max":               e.VO2max,
	})
}

func (j *Journal) Meal(ctx context.Context, date string, num int, m parse.Meal, beforeCutoff string) error {
	return j.append(ctx, Meals, map[string]string{
		"date":          date,
		"time":          j.clock(),
		"meal_num":      strconv.Itoa(num),
		"ingredients":   m.Ingredients,
		"calories":      m.Calories,
		"protein":       m.Protein,
		"carbs":         m.Carbs,
		"fat":           m.Fat,
		"fiber":         m.Fiber,
		"category":      m.Category,
		"before_cutoff": beforeCutoff,
	})
}

func (j *Journal) Mood(ctx context.Context, date string, m parse.Mood) error {
	values := map[string]string{"date": date, "time_of_day": m.TimeOfDay}
	for _, r := range m.Ratings {
		values[r.Name] = strconv.Itoa(r.Value)
	}
	return j.append(ctx, Mood, values)
}

func (j *Journal) Supplements(ctx context.Context, date string, s parse.Supplements) error {
	return j.append(ctx, Supplements, map[string]string{
		"date":            date,
		"blueprint_stack": s.Stack,
		"omega3":          s.Omega3,
		"probutyrate":     s.ProButyrate,
		"collagen":        s.Collagen,
		"nac":             s.NAC,
	})
}

func (j *Journal) Habits(ctx context.Context, date string, h parse.Habits) error {
	return j.append(ctx, Habits, map[string]string{
		"date":               date,
		"sunlight_morning":   h.SunlightMin,
		"blue_light_glasses": h.BlueLight,
		"meditation":         h.MeditationMin,
		"breathwork":         h.BreathworkMin,
		"reading":            h.ReadingMin,
		"social_interaction": h.Social,
		"grateful_for":       h.GratefulFor,
		"hydration":          h.Hydration,
	})
}

// Reading logs the minutes read on the given evening.
func (j *Journal) Reading(ctx context.Context, date string, minutes int) error {
	return j.append(ctx, Habits, map[string]string{"date": date, "reading": strconv.Itoa(minutes)})
}

func (j *Journal) Gratitude(ctx context.Context, date, text string) error {
	return j.append(ctx, Habits, map[string]string{"date": date, "grateful_for": text})
}

func (j *Journal) Learning(ctx context.Context, date string, l parse.Learning) error {
	return j.append(ctx, Learning, map[string]string{
		"date":          date,
		"end_time":      j.clock(),
		"duration":      l.Duration,
		"task":          l.Task,
		"category":      l.Category,
		"focus_quality": l.Focus,
	})
}

func (j *Journal) Craving(ctx context.Context, date string, c parse.Craving) error {
	action := "resisted"
	if c.GaveIn == parse.Yes {
		action = "gave in"
	}
	return j.append(ctx, Cravings, map[string]string{
		"date":         date,
		"time":         j.clock(),
		"type":         c.Type,
		"intensity":    c.Intensity,
		"action_taken": action,
	})
}

func (j *Journal) Expense(ctx context.Context, date string, e parse.Expense) error {
	return j.append(ctx, Finance, map[string]string{
		"date":        date,
		"amount":      parse.FormatFloat(e.Amount),
		"category":    e.Category,
		"description": e.Description,
		"necessary":   e.Necessary,
		"impulse":     e.Impulse,
	})
}
