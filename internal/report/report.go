// Package report computes the weekly review and the status snapshot from the
// stored tables. Nothing is cached; every call re-reads the rows.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chris/zeroism/internal/parse"
	"github.com/chris/zeroism/internal/records"
)

// SaunaGoal is the weekly sauna target.
const SaunaGoal = 4

// Reader is the read side of the record store.
type Reader interface {
	ReadRange(ctx context.Context, table, span string) ([][]string, error)
}

type Reporter struct {
	store Reader
	loc   *time.Location
	now   func() time.Time
	log   *slog.Logger
}

func New(store Reader, loc *time.Location, now func() time.Time) *Reporter {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Reporter{store: store, loc: loc, now: now, log: slog.Default().With("component", "report")}
}

// WeekWindow returns Monday 00:00 of now's week and the following Monday.
func WeekWindow(now time.Time) (start, end time.Time) {
	offset := (int(now.Weekday()) + 6) % 7
	start = time.Date(now.Year(), now.Month(), now.Day()-offset, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 7)
}

// rowDate parses a row's date key; the header row and blank rows fail.
func rowDate(row []string, loc *time.Location) (time.Time, bool) {
	if len(row) == 0 {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(row[0]), loc)
	return d, err == nil
}

func inWindow(d, start, end time.Time) bool {
	return !d.Before(start) && d.Before(end)
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func num(row []string, i int) (float64, bool) {
	v := strings.ReplaceAll(cell(row, i), ",", ".")
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil
}

func isSauna(row []string) bool {
	return strings.Contains(strings.ToLower(cell(row, 2)), "sauna")
}

// CountSauna counts exercise rows (date, time, type, ...) in [start, end)
// whose type mentions sauna in any case.
func CountSauna(rows [][]string, start, end time.Time) int {
	n := 0
	for _, r := range rows {
		d, ok := rowDate(r, start.Location())
		if ok && inWindow(d, start, end) && isSauna(r) {
			n++
		}
	}
	return n
}

// SaunaCount returns this week's sauna sessions.
func (r *Reporter) SaunaCount(ctx context.Context) (int, error) {
	rows, err := r.store.ReadRange(ctx, records.Exercise.Name, "A:C")
	if err != nil {
		return 0, err
	}
	start, end := WeekWindow(r.now().In(r.loc))
	return CountSauna(rows, start, end), nil
}

// TrainingStreak counts consecutive training days ending today or
// yesterday. Sauna and VO2max entries are not training.
func TrainingStreak(rows [][]string, today time.Time) int {
	seen := map[string]bool{}
	var days []time.Time
	for _, row := range rows {
		d, ok := rowDate(row, today.Location())
		if !ok || isSauna(row) || strings.EqualFold(cell(row, 2), "vo2max") {
			continue
		}
		if key := d.Format(time.DateOnly); !seen[key] {
			seen[key] = true
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return 0
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	last := days[len(days)-1]
	if last.Before(midnight.AddDate(0, 0, -1)) {
		return 0
	}
	streak := 1
	for i := len(days) - 2; i >= 0; i-- {
		if !days[i].AddDate(0, 0, 1).Equal(days[i+1]) {
			break
		}
		streak++
	}
	return streak
}

type Status struct {
	Date       string
	SleepScore string
	Weight     string
	Sauna      int
}

// Status reads today's composite row and this week's sauna count.
func (r *Reporter) Status(ctx context.Context) (Status, error) {
	now := r.now().In(r.loc)
	st := Status{Date: now.Format(time.DateOnly)}
	rows, err := r.store.ReadRange(ctx, records.Health.Name, "A:"+records.ColumnLetter(records.Health.Index("weight")))
	if err != nil {
		return st, err
	}
	for _, row := range rows {
		if cell(row, 0) == st.Date {
			st.SleepScore = cell(row, records.Health.Index("sleep_score"))
			st.Weight = cell(row, records.Health.Index("weight"))
			break
		}
	}
	st.Sauna, err = r.SaunaCount(ctx)
	return st, err
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

func (s Status) Format() string {
	return fmt.Sprintf("Status %s\n\nSleep score: %s\nWeight: %s kg\nSauna this week: %d/%d\n\nStart /morning or /evening.",
		s.Date, orUnknown(s.SleepScore), orUnknown(s.Weight), s.Sauna, SaunaGoal)
}

type Weekly struct {
	From, To      string
	SleepAvg      float64
	HRVAvg        float64
	TrainingDays  int
	Sauna         int
	KcalAvg       float64 // per day with meals logged
	ProteinAvg    float64
	MoodAvg       float64
	Expenses      float64
	LearningHours float64
	StackDays     int
	Streak        int
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) { m.sum += v; m.n++ }

func (m mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

// Weekly aggregates the current Monday-to-Sunday window. A table that
// cannot be read leaves its figures at zero; the joined read errors are
// returned alongside the partial result.
func (r *Reporter) Weekly(ctx context.Context) (Weekly, error) {
	now := r.now().In(r.loc)
	start, end := WeekWindow(now)
	w := Weekly{From: start.Format(time.DateOnly), To: end.AddDate(0, 0, -1).Format(time.DateOnly)}

	var errs []error
	read := func(t records.Table, span string) [][]string {
		rows, err := r.store.ReadRange(ctx, t.Name, span)
		if err != nil {
			r.log.Warn("weekly read failed", "table", t.Name, "error", err)
			errs = append(errs, err)
		}
		return rows
	}
	week := func(rows [][]string, fn func(d time.Time, row []string)) {
		for _, row := range rows {
			if d, ok := rowDate(row, r.loc); ok && inWindow(d, start, end) {
				fn(d, row)
			}
		}
	}

	var sleep, hrv mean
	hrvCol := records.Health.Index("sleeping_hrv")
	week(read(records.Health, "A:"+records.ColumnLetter(hrvCol)), func(_ time.Time, row []string) {
		if v, ok := num(row, 1); ok {
			sleep.add(v)
		}
		if v, ok := num(row, hrvCol); ok {
			hrv.add(v)
		}
	})
	w.SleepAvg, w.HRVAvg = sleep.value(), hrv.value()

	exercise := read(records.Exercise, "A:D")
	trainingDays := map[string]bool{}
	week(exercise, func(d time.Time, row []string) {
		if isSauna(row) {
			w.Sauna++
			return
		}
		if !strings.EqualFold(cell(row, 2), "vo2max") {
			trainingDays[d.Format(time.DateOnly)] = true
		}
	})
	w.TrainingDays = len(trainingDays)
	w.Streak = TrainingStreak(exercise, now)

	kcal, protein := map[string]float64{}, map[string]float64{}
	week(read(records.Meals, "A:F"), func(d time.Time, row []string) {
		key := d.Format(time.DateOnly)
		v, _ := parse.LeadingNumber(cell(row, 4))
		kcal[key] += v
		p, _ := parse.LeadingNumber(cell(row, 5))
		protein[key] += p
	})
	var kcalDay, protDay mean
	for day := range kcal {
		kcalDay.add(kcal[day])
		protDay.add(protein[day])
	}
	w.KcalAvg, w.ProteinAvg = kcalDay.value(), protDay.value()

	var mood mean
	week(read(records.Mood, "A:C"), func(_ time.Time, row []string) {
		if v, ok := num(row, 2); ok {
			mood.add(v)
		}
	})
	w.MoodAvg = mood.value()

	week(read(records.Finance, "A:B"), func(_ time.Time, row []string) {
		if v, ok := num(row, 1); ok {
			w.Expenses += v
		}
	})

	week(read(records.Learning, "A:D"), func(_ time.Time, row []string) {
		if v, ok := num(row, 3); ok {
			w.LearningHours += v / 60
		}
	})

	stackDays := map[string]bool{}
	week(read(records.Supplements, "A:B"), func(d time.Time, row []string) {
		if strings.EqualFold(cell(row, 1), "YES") {
			stackDays[d.Format(time.DateOnly)] = true
		}
	})
	w.StackDays = len(stackDays)

	return w, errors.Join(errs...)
}

func (w Weekly) Format() string {
	check := "not yet"
	if w.Sauna >= SaunaGoal {
		check = "done"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "WEEKLY REVIEW %s to %s\n\n", w.From, w.To)
	fmt.Fprintf(&b, "Sleep\n- Sleep score avg: %.1f\n- HRV avg: %.0f ms\n\n", w.SleepAvg, w.HRVAvg)
	fmt.Fprintf(&b, "Training\n- Training days: %d\n- Streak: %d days\n- Sauna: %d/%d (%s)\n\n", w.TrainingDays, w.Streak, w.Sauna, SaunaGoal, check)
	fmt.Fprintf(&b, "Nutrition\n- Calories avg: %.0f kcal/day\n- Protein avg: %.0f g/day\n\n", w.KcalAvg, w.ProteinAvg)
	fmt.Fprintf(&b, "Mood avg: %.1f\nSpent: €%.2f\nLearning: %.1f h\nSupplement stack: %d/7 days", w.MoodAvg, w.Expenses, w.LearningHours, w.StackDays)
	return b.String()
}
