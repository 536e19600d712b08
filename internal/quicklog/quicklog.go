// Package quicklog handles one-line logging commands sent outside any
// check-in, such as "weight 73.5" or "gym 45 push 8". Each command maps to
// one parser and one write.
package quicklog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/chris/zeroism/internal/llm"
	"github.com/chris/zeroism/internal/parse"
	"github.com/chris/zeroism/internal/records"
)

// SaunaCounter reports this week's sauna sessions.
type SaunaCounter interface {
	SaunaCount(ctx context.Context) (int, error)
}

type Logger struct {
	journal *records.Journal
	oracle  llm.Oracle
	sauna   SaunaCounter
	loc     *time.Location
	now     func() time.Time
	log     *slog.Logger
}

func New(j *records.Journal, oracle llm.Oracle, sauna SaunaCounter, loc *time.Location, now func() time.Time) *Logger {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Logger{journal: j, oracle: oracle, sauna: sauna, loc: loc, now: now, log: slog.Default().With("component", "quicklog")}
}

type handler func(ctx context.Context, l *Logger, date, args, line string) (string, error)

var commands = map[string]handler{
	"weight":      logWeight,
	"temp":        logTemp,
	"temperature": logTemp,
	"bp":          logBP,
	"steps":       logSteps,
	"mood":        logMood,
	"gym":         logExercise,
	"cardio":      logExercise,
	"sauna":       logExercise,
	"walk":        logExercise,
	"meal":        logMeal,
	"craving":     logCraving,
	"learn":       logLearning,
	"spent":       logExpense,
	"supps":       logSupplements,
	"supplements": logSupplements,
	"gratitude":   logGratitude,
	"habits":      logHabits,
}

// Handle logs text when it is a quick-log command. It reports false for
// anything unrecognised or malformed so the caller can treat the text as
// conversation.
func (l *Logger) Handle(ctx context.Context, text string) (string, bool) {
	line := strings.TrimSpace(text)
	name, args, _ := strings.Cut(line, " ")
	h, ok := commands[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	date := l.now().In(l.loc).Format(time.DateOnly)
	reply, err := h(ctx, l, date, strings.TrimSpace(args), line)
	switch {
	case err == nil:
		l.log.Info("quick log", "command", strings.ToLower(name), "date", date)
		return reply, true
	case errors.Is(err, parse.ErrUnparsed):
		return "", false
	case errors.Is(err, records.ErrUnavailable):
		return "Store unavailable, nothing saved.", true
	default:
		l.log.Warn("quick log failed", "command", strings.ToLower(name), "error", err)
		return "Couldn't save that, please try again later.", true
	}
}

func required(args, what string) error {
	if args == "" {
		return fmt.Errorf("%w: %s needs a value", parse.ErrUnparsed, what)
	}
	return nil
}

// numeric guards the free-form commands against ordinary sentences that
// happen to start with a command word.
func numeric(tok string) bool {
	_, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", "."), 64)
	return err == nil
}

func logWeight(ctx context.Context, l *Logger, date, args, _ string) (string, error) {
	v, err := parse.SingleVital(args)
	if err != nil {
		return "", err
	}
	return "Weight: " + v + " kg", l.journal.Vitals(ctx, date, parse.Vitals{Weight: v})
}

func logTemp(ctx context.Context, l *Logger, date, args, _ string) (string, error) {
	v, err := parse.SingleVital(args)
	if err != nil {
		return "", err
	}
	return "Temperature: " + v + "°C", l.journal.Vitals(ctx, date, parse.Vitals{EarTemp: v})
}

func logBP(ctx context.Context, l *Logger, date, args, _ string) (string, error) {
	v, err := parse.BloodPressure(args)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Blood pressure: %s/%s", v.BPSys, v.BPDia), l.journal.Vitals(ctx, date, v)
}

func logSteps(ctx context.Context, l *Logger, date, args, _ string) (string, error) {
	a, err := parse.ActivityAnswer(args)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Steps: %d", a.Steps), l.journal.Activity(ctx, date, a)
}

func logMood(ctx context.Context, l *Logger, date, args, _ string) (string, error) {
	m, err := parse.StrictMoodAnswer(args, "quick", parse.MorningMoodFields)
	if err != nil {
		return "", err
	}
	return "Mood logged", l.journal.Mood(ctx, date, m)
}

func logExercise(ctx context.Context, l *Logger, date, args, line string) (string, error) {
	if first, _, _ := strings.Cut(args, " "); !numeric(first) {
		return "", fmt.Errorf("%w: %q is not a number", parse.ErrUnparsed, first)
	}
	e, err := parse.ExerciseEntry(line)
	if err != nil {
		return "", err
	}
	if err := l.journal.Exercise(ctx, date, e); err != nil {
		return "", err
	}
	reply := fmt.Sprintf("%s logged", e.Type)
	if e.IsSauna() && l.sauna != nil {
		if n, err := l.sauna.SaunaCount(ctx); err == nil {
			reply += fmt.Sprintf(". Sauna this week: %d/4", n)
		}
	}
	return reply, nil
}

// logMeal estimates macros for a described meal. The description is saved
// even when the estimate fails.
func logMeal(ctx context.Context, l *Logger, date, args, _ string) (string, error) {
	if err := required(args, "meal"); err != nil {
		return "", err
	}
	m := parse.Meal{Ingredients: args}
	if l.oracle != nil {
		answer, err := l.oracle.EstimateFromText(ctx, args, llm.MealTextInstructions)
		if err == nil {
			if est, derr := parse.DecodeMeal(answer); derr == nil {
				m = est
				if m.Ingredients == "" {
					m.Ingredients = args
				}
			}
		}
	}
	num, err := l.mealsToday(ctx, date)
	if err != nil {
		return "", err
	}
	if err := l.journal.Meal(ctx, date, num+1, m, ""); err != nil {
		return "", err
	}
	if m.Kcal() == 0 {
		return "Meal logged (no estimate)", nil
	}
	return fmt.Sprintf("Meal logged: ~%d kcal, %dg protein", m.Kcal(), m.ProteinGrams()), nil
}

func (l *Logger) mealsToday(ctx context.Context, date string) (int, error) {
	rows, err := l.journal.Store().ReadRange(ctx, records.Meals.Name, "A:A")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range rows {
		if r[0] == date {
			n++
		}
	}
	return n, nil
}

func logCraving(ctx context.Context, l *Logger, date, args, _ string) (string, error) {
	c, err := parse.CravingEntry(args)
	if err != nil {
		return "", err
	}
	if !numeric(c.Intensity) {
		return "", fmt.Errorf("%w: intensity %q", parse.ErrUnparsed, c.Intensity)
	}
	return fmt.Sprintf("Craving logged: %s %s/10", c.Type, c.Intensity), l.journal.Craving(ctx, date, c)
}

func logLearning(ctx context.Context, l *Logger, date, args, _ string) (string, error) {
	s, err := parse.QuickLearning(args)
	if err != nil {
		return "", err
	}
	if !numeric(s.Duration) {
		return "", fmt.Errorf("%w: minutes %q", parse.ErrUnparsed, s.Duration)
	}
	return fmt.Sprintf("Learning logged: %s %s min", s.Task, s.Duration), l.journal.Learning(ctx, date, s)
}

func logExpense(ctx context.Context, l *Logger, date, args, _ string) (string, error) {
	e, err := parse.ExpenseEntry(args)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Spent: €%.2f %s", e.Amount, e.Category), l.journal.Expense(ctx, date, e)
}

func logSupplements(ctx context.Context, l *Logger, date, args, _ string) (string, error) {
	if err := required(args, "supplements"); err != nil {
		return "", err
	}
	s := parse.SupplementsAnswer(args)
	reply := "Supplements logged"
	if s.Stack == parse.Yes {
		reply = "Full stack logged"
	}
	return reply, l.journal.Supplements(ctx, date, s)
}

func logGratitude(ctx context.Context, l *Logger, date, args, _ string) (string, error) {
	if err := required(args, "gratitude"); err != nil {
		return "", err
	}
	return "Gratitude logged", l.journal.Gratitude(ctx, date, args)
}

func logHabits(ctx context.Context, l *Logger, date, args, _ string) (string, error) {
	h, err := parse.HabitsAnswer(args)
	if err != nil {
		return "", err
	}
	return "Habits logged", l.journal.Habits(ctx, date, h)
}

// Help lists the quick-log commands.
const Help = "Quick log (outside a check-in):\n" +
	"`weight 73.5` · `temp 36.8` · `bp 118 75` · `steps 8500 [kcal]`\n" +
	"`mood 7 6 8` (mood energy motivation)\n" +
	"`gym 45 push 8 [stretch]` · `cardio 30 run` · `sauna 20 80 3x7` · `walk 45`\n" +
	"`meal <description>` · `craving thc 7 [ja]`\n" +
	"`learn topic 45 8 [category]` · `spent 15 food [description] [n|i]`\n" +
	"`supps ja` or `supps nein omega nac` · `gratitude <text>`\n" +
	"`habits sunlight bluelight meditation breath social hydration [gratitude]`"
