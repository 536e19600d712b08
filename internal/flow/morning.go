package flow

import (
	"context"
	"fmt"

	"github.com/chris/zeroism/internal/llm"
	"github.com/chris/zeroism/internal/parse"
)

const (
	SleepScreenshots StepID = "sleep_screenshots"
	Subjective       StepID = "subjective"
	Environment      StepID = "environment"
	Cutoffs          StepID = "cutoffs"
	Reading          StepID = "reading"
	Supplements      StepID = "supplements"
	Vitals           StepID = "vitals"
	MorningMood      StepID = "morning_mood"
)

// MorningFlow is the morning check. The sleep intake closes after
// screenshots images.
func MorningFlow(screenshots int) *Definition {
	return &Definition{
		Kind:  Morning,
		Intro: morningIntro,
		Steps: []Step{
			{
				ID: SleepScreenshots, Label: "sleep data", Accepts: Image, Collect: screenshots,
				Prompt: func(*Turn) string {
					return fmt.Sprintf("Sleep: send your %d sleep tracker screenshots. `done` when you have fewer.", screenshots)
				},
				Apply: applySleep,
			},
			{
				ID: Subjective, Label: "how you slept", Accepts: Text,
				Prompt: prompt("How did you sleep? (1-10 each, then ja/nein, count, speed)",
					"rested getting_up dreams body clarity slept_through wake_count speed",
					"7 6 5 8 7 ja 1 schnell"),
				Apply: func(ctx context.Context, t *Turn, in Input) error {
					s, err := parse.SubjectiveSleepAnswer(in.Text)
					if err != nil {
						return err
					}
					t.Say("Subjective sleep: %s/10.", parse.FormatFloat(s.Average()))
					return t.Journal.Subjective(ctx, t.Date, s)
				},
			},
			{
				ID: Environment, Label: "sleep environment", Accepts: Text,
				Prompt: prompt("Sleep environment (darkness and noise 1-10, partner and device ja/nein)",
					"darkness noise partner device [room_temp]",
					"9 8 nein nein 19"),
				Apply: func(ctx context.Context, t *Turn, in Input) error {
					env, err := parse.EnvironmentAnswer(in.Text)
					if err != nil {
						return err
					}
					return t.Journal.Environment(ctx, t.Date, env)
				},
			},
			{
				ID: Cutoffs, Label: "cutoffs", Accepts: Text,
				Prompt: prompt("Cutoffs yesterday: ja if kept, otherwise the time you broke it",
					"thc nicotine caffeine food screens",
					"ja ja 14:30 ja 23:10"),
				Apply: func(ctx context.Context, t *Turn, in Input) error {
					c, err := parse.CutoffsAnswer(in.Text)
					if err != nil {
						return err
					}
					if n := c.Violations(); n > 0 {
						t.Say("%d of 5 cutoffs missed.", n)
					} else {
						t.Say("All cutoffs kept.")
					}
					return t.Journal.Cutoffs(ctx, t.Date, c)
				},
			},
			{
				ID: Reading, Label: "reading", Accepts: Text,
				Prompt: func(*Turn) string { return "Did you read last night? Minutes, or `nein`." },
				Apply: func(ctx context.Context, t *Turn, in Input) error {
					minutes := parse.ReadingMinutes(in.Text)
					if minutes == 0 {
						return nil
					}
					t.Say("%d min reading logged for %s.", minutes, t.Yesterday())
					return t.Journal.Reading(ctx, t.Yesterday(), minutes)
				},
			},
			{
				ID: Supplements, Label: "supplements", Accepts: Text,
				Prompt: prompt("Supplements: `ja` for the full stack, otherwise `nein` plus what you took",
					"ja | nein omega nac collagen pro",
					"nein omega nac"),
				Apply: func(ctx context.Context, t *Turn, in Input) error {
					return t.Journal.Supplements(ctx, t.Date, parse.SupplementsAnswer(in.Text))
				},
			},
			{
				ID: Vitals, Label: "vitals", Accepts: Text,
				Prompt: func(t *Turn) string {
					if t.Scratch.Sunday {
						return prompt("Morning vitals, Sunday with blood pressure", "weight ear_temp sys dia", "73.5 36.8 118 75")(t)
					}
					return prompt("Morning vitals", "weight ear_temp", "73.5 36.8")(t)
				},
				Apply: func(ctx context.Context, t *Turn, in Input) error {
					v, err := parse.VitalsAnswer(in.Text, t.Scratch.Sunday)
					if err != nil {
						return err
					}
					if v.BPSys != "" {
						t.Say("Vitals: %s kg, BP %s/%s.", v.Weight, v.BPSys, v.BPDia)
					} else {
						t.Say("Vitals: %s kg.", v.Weight)
					}
					return t.Journal.Vitals(ctx, t.Date, v)
				},
			},
			{
				ID: MorningMood, Label: "mood", Accepts: Text,
				Prompt: prompt("How do you feel? (1-10 each)", "mood energy motivation", "7 6 8"),
				Apply:  moodStep("morning", parse.MorningMoodFields),
			},
		},
		Summary: morningSummary,
	}
}

func morningIntro(ctx context.Context, t *Turn) string {
	header := "Good morning! Morning check for " + t.Date + "."
	if t.Briefing == nil {
		return header
	}
	return header + "\n\n" + t.Briefing.Morning(ctx, t.Started)
}

func applySleep(ctx context.Context, t *Turn, in Input) error {
	answer, err := t.Oracle.DescribeImages(ctx, in.Images, llm.SleepInstructions(parse.SleepFields))
	if err != nil {
		return err
	}
	m, err := parse.DecodeSleepMetrics(answer)
	if err != nil {
		return fmt.Errorf("%w: %w", llm.ErrInvalidOutput, err)
	}
	t.Scratch.SleepScore = m.Score()
	t.Say("Read %d sleep metrics from %d screenshots. Sleep score: %s.", len(m), len(in.Images), orUnknown(m.Score()))
	return t.Journal.Sleep(ctx, t.Date, m)
}

// Recommendation maps a sleep score to the day's advice.
func Recommendation(score string) string {
	n, ok := parse.LeadingNumber(score)
	switch {
	case !ok:
		return "Focus on recovery today. Sauna? Early to bed."
	case n >= 85:
		return "Great sleep! Use the energy today."
	case n >= 70:
		return "Solid sleep. Focus on hydration and movement."
	}
	return "Focus on recovery today. Sauna? Early to bed."
}

func morningSummary(_ context.Context, t *Turn) string {
	score := orUnknown(t.Scratch.SleepScore)
	return fmt.Sprintf("MORNING CHECK COMPLETE\n\nSleep score: %s\n%s\n\nReminder: take photos of your meals today!",
		score, Recommendation(t.Scratch.SleepScore))
}

func moodStep(timeOfDay string, dims []string) func(context.Context, *Turn, Input) error {
	return func(ctx context.Context, t *Turn, in Input) error {
		m, err := parse.MoodAnswer(in.Text, timeOfDay, dims)
		if err != nil {
			return err
		}
		return t.Journal.Mood(ctx, t.Date, m)
	}
}

// prompt renders a question with its answer format and an example.
func prompt(question, format, example string) func(*Turn) string {
	text := fmt.Sprintf("%s\nFormat: `%s`\nExample: `%s`", question, format, example)
	return func(*Turn) string { return text }
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
