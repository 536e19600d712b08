package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/chris/zeroism/internal/llm"
	"github.com/chris/zeroism/internal/parse"
)

const (
	ActivityStep StepID = "activity"
	ExerciseStep StepID = "exercise"
	MealsStep    StepID = "meals"
	LearningStep StepID = "learning"
	HabitsStep   StepID = "habits"
	CravingsStep StepID = "cravings"
	FinanceStep  StepID = "finance"
	EveningMood  StepID = "evening_mood"
)

// SaunaGoal is the weekly sauna target shown in summaries.
const SaunaGoal = 4

func EveningFlow() *Definition {
	return &Definition{
		Kind: Evening,
		Intro: func(_ context.Context, t *Turn) string {
			return "Good evening! Evening review for " + t.Date + "."
		},
		Steps: []Step{
			{
				ID: ActivityStep, Label: "activity", Accepts: Either,
				Prompt: prompt("Activity: send a screenshot of your tracker, or type it", "steps [active_calories]", "8500 420"),
				Apply:  applyActivity,
			},
			{
				ID: ExerciseStep, Label: "exercise", Accepts: Text, Loop: true,
				More: "More training? Another entry, or `done`.",
				Prompt: prompt("Training today? Comma-separated, or `nein`",
					"gym min type rpe [stretch] | cardio min kind | sauna min temp RxM | walk min",
					"gym 45 push 8, sauna 20 80 3x7"),
				Apply: applyExercise,
			},
			{
				ID: MealsStep, Label: "meals", Accepts: Either, Loop: true,
				More: "Another meal? Photo or text, or `done`.",
				Prompt: func(*Turn) string {
					return "Meals: send a photo per meal, or describe them separated by `|`.\nExample: `oats with berries | chicken, rice and broccoli`\n`done` when finished."
				},
				Apply: applyMeals,
			},
			{
				ID: LearningStep, Label: "learning", Accepts: Text,
				Prompt: prompt("Learning sessions? Comma-separated, or `nein` (category uni/work/personal/admin, focus 1-10)",
					"task minutes category focus", "golang 90 work 8, spanish 20 personal 6"),
				Apply: applyLearning,
			},
			{
				ID: HabitsStep, Label: "habits", Accepts: Text,
				Prompt: prompt("Habits today (sunlight min, blue-light glasses ja/nein, meditation min, breathwork min, social 1-10, hydration litres, then what you're grateful for)",
					"sunlight bluelight meditation breath social hydration [gratitude]",
					"20 ja 10 5 7 2.5 sunny walk with friends"),
				Apply: func(ctx context.Context, t *Turn, in Input) error {
					h, err := parse.HabitsAnswer(in.Text)
					if err != nil {
						return err
					}
					return t.Journal.Habits(ctx, t.Date, h)
				},
			},
			{
				ID: CravingsStep, Label: "cravings", Accepts: Text,
				Prompt: prompt("Cravings? Comma-separated, or `nein` (intensity 1-10, ja if you gave in)",
					"type intensity [gave_in]", "thc 7 nein, sugar 4 ja"),
				Apply: applyCravings,
			},
			{
				ID: FinanceStep, Label: "expenses", Accepts: Text,
				Prompt: prompt("Spending today? Comma-separated, or `nein` (n = necessary, i = impulse)",
					"amount category [description] [n|i]", "12.50 food lunch n, 30 clothes shirt i"),
				Apply: applyFinance,
			},
			{
				ID: EveningMood, Label: "mood", Accepts: Text,
				Prompt: prompt("How was your day? (1-10 each)", "mood focus anxiety stress social", "7 6 3 4 6"),
				Apply:  moodStep("evening", parse.EveningMoodFields),
			},
		},
		Summary: eveningSummary,
	}
}

func applyActivity(ctx context.Context, t *Turn, in Input) error {
	var (
		a   parse.Activity
		err error
	)
	if in.kind() == Image {
		answer, oerr := t.Oracle.DescribeImages(ctx, in.Images, llm.ActivityInstructions)
		if oerr != nil {
			return oerr
		}
		if a, err = parse.DecodeActivity(answer); err != nil {
			return fmt.Errorf("%w: %w", llm.ErrInvalidOutput, err)
		}
	} else if a, err = parse.ActivityAnswer(in.Text); err != nil {
		return err
	}
	t.Scratch.Steps, t.Scratch.HasSteps = a.Steps, true
	t.Say("Activity: %s steps.", humanize.Comma(int64(a.Steps)))
	return t.Journal.Activity(ctx, t.Date, a)
}

func applyExercise(ctx context.Context, t *Turn, in Input) error {
	entries, perr := parse.ExerciseEntries(in.Text)
	errs := []error{perr}
	sauna := false
	for _, e := range entries {
		if err := t.Journal.Exercise(ctx, t.Date, e); err != nil {
			errs = append(errs, err)
			continue
		}
		t.Scratch.Exercises++
		sauna = sauna || e.IsSauna()
		t.Say("Logged %s.", describeExercise(e))
	}
	if sauna && t.Sauna != nil {
		if n, err := t.Sauna.SaunaCount(ctx); err == nil {
			t.Say("Sauna this week: %d/%d.", n, SaunaGoal)
		}
	}
	return errors.Join(errs...)
}

func describeExercise(e parse.Exercise) string {
	switch {
	case e.IsSauna():
		return fmt.Sprintf("sauna %s°C %s rounds", e.SaunaTemp, e.SaunaRounds)
	case e.WorkoutType != "":
		return fmt.Sprintf("%s %s min %s", e.Type, e.Duration, e.WorkoutType)
	}
	return fmt.Sprintf("%s %s min", e.Type, e.Duration)
}

// applyMeals logs one photographed meal, or each `|`-separated description.
// A description keeps its row when the estimate fails, just without macros.
func applyMeals(ctx context.Context, t *Turn, in Input) error {
	if in.kind() == Image {
		answer, err := t.Oracle.DescribeImages(ctx, in.Images, llm.MealPhotoInstructions)
		if err != nil {
			return err
		}
		m, err := parse.DecodeMeal(answer)
		if err != nil {
			return fmt.Errorf("%w: %w", llm.ErrInvalidOutput, err)
		}
		return logMeal(ctx, t, m)
	}

	descs := parse.MealDescriptions(in.Text)
	if len(descs) == 0 {
		return fmt.Errorf("%w: empty meal", parse.ErrUnparsed)
	}
	var errs []error
	for _, d := range descs {
		m := parse.Meal{Ingredients: d}
		answer, err := t.Oracle.EstimateFromText(ctx, d, llm.MealTextInstructions)
		if err == nil {
			est, derr := parse.DecodeMeal(answer)
			if derr == nil {
				m = est
				if m.Ingredients == "" {
					m.Ingredients = d
				}
			}
			err = derr
		}
		if err != nil {
			t.Say("No estimate for %q, saved without macros.", d)
		}
		if err := logMeal(ctx, t, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func logMeal(ctx context.Context, t *Turn, m parse.Meal) error {
	if err := t.Journal.Meal(ctx, t.Date, t.Scratch.Meals+1, m, ""); err != nil {
		return err
	}
	t.Scratch.Meals++
	t.Scratch.Kcal += m.Kcal()
	t.Scratch.Protein += m.ProteinGrams()
	t.Say("Meal %d: %s (%d kcal, %dg protein). Today so far: %d kcal, %dg protein.",
		t.Scratch.Meals, truncate(m.Ingredients, 60), m.Kcal(), m.ProteinGrams(), t.Scratch.Kcal, t.Scratch.Protein)
	return nil
}

func applyLearning(ctx context.Context, t *Turn, in Input) error {
	if parse.IsNone(in.Text) {
		return nil
	}
	sessions, perr := parse.LearningEntries(in.Text)
	errs := []error{perr}
	for _, l := range sessions {
		if err := t.Journal.Learning(ctx, t.Date, l); err != nil {
			errs = append(errs, err)
			continue
		}
		t.Say("Learning: %s, %s min.", l.Task, l.Duration)
	}
	return errors.Join(errs...)
}

func applyCravings(ctx context.Context, t *Turn, in Input) error {
	if parse.IsNone(in.Text) {
		t.Say("No cravings, nice.")
		return nil
	}
	cravings, perr := parse.CravingEntries(in.Text)
	errs := []error{perr}
	for _, c := range cravings {
		if err := t.Journal.Craving(ctx, t.Date, c); err != nil {
			errs = append(errs, err)
		}
	}
	if len(cravings) > 0 {
		t.Say("%d craving(s) logged.", len(cravings))
	}
	return errors.Join(errs...)
}

func applyFinance(ctx context.Context, t *Turn, in Input) error {
	if parse.IsNone(in.Text) {
		return nil
	}
	expenses, perr := parse.ExpenseEntries(in.Text)
	errs := []error{perr}
	var saved []parse.Expense
	for _, e := range expenses {
		if err := t.Journal.Expense(ctx, t.Date, e); err != nil {
			errs = append(errs, err)
			continue
		}
		saved = append(saved, e)
	}
	if len(saved) > 0 {
		total := parse.Total(saved)
		t.Scratch.Expenses += total
		t.Say("%d expense(s), €%.2f total.", len(saved), total)
	}
	return errors.Join(errs...)
}

func eveningSummary(ctx context.Context, t *Turn) string {
	steps := "?"
	if t.Scratch.HasSteps {
		steps = humanize.Comma(int64(t.Scratch.Steps))
	}
	sauna := "?"
	if t.Sauna != nil {
		if n, err := t.Sauna.SaunaCount(ctx); err == nil {
			sauna = fmt.Sprint(n)
		}
	}
	var b strings.Builder
	b.WriteString("EVENING REVIEW COMPLETE\n\n")
	fmt.Fprintf(&b, "Steps: %s\n", steps)
	fmt.Fprintf(&b, "Training entries: %d\n", t.Scratch.Exercises)
	fmt.Fprintf(&b, "Meals: %d (%d kcal, %dg protein)\n", t.Scratch.Meals, t.Scratch.Kcal, t.Scratch.Protein)
	if t.Scratch.Expenses > 0 {
		fmt.Fprintf(&b, "Spent: €%.2f\n", t.Scratch.Expenses)
	}
	fmt.Fprintf(&b, "Sauna this week: %s/%d\n\nSleep well!", sauna, SaunaGoal)
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
