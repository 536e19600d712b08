package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/chris/zeroism/internal/parse"
)

const (
	Measurements StepID = "measurements"
	VO2max       StepID = "vo2max"
)

func MonthlyFlow() *Definition {
	return &Definition{
		Kind: Monthly,
		Intro: func(_ context.Context, t *Turn) string {
			return "Monthly check for " + t.Started.Format("January 2006") + "."
		},
		Steps: []Step{
			{
				ID: Measurements, Label: "measurements", Accepts: Text,
				Prompt: prompt("Body measurements", "bodyfat% waist_cm", "18.5 82"),
				Apply: func(ctx context.Context, t *Turn, in Input) error {
					v, err := parse.MeasurementsAnswer(in.Text)
					if err != nil {
						return err
					}
					if err := t.Journal.Vitals(ctx, t.Date, v); err != nil {
						return err
					}
					t.Scratch.Captured = append(t.Scratch.Captured,
						fmt.Sprintf("body fat %s%%", v.BodyFat), fmt.Sprintf("waist %s cm", v.Waist))
					return nil
				},
			},
			{
				ID: VO2max, Label: "VO2max", Accepts: Text,
				Prompt: func(*Turn) string { return "VO2max reading from your tracker? Number, or `nein`." },
				Apply: func(ctx context.Context, t *Turn, in Input) error {
					if parse.IsNone(in.Text) {
						return nil
					}
					e, err := parse.VO2maxAnswer(in.Text)
					if err != nil {
						return err
					}
					if err := t.Journal.Exercise(ctx, t.Date, e); err != nil {
						return err
					}
					t.Scratch.Captured = append(t.Scratch.Captured, "VO2max "+e.VO2max)
					return nil
				},
			},
		},
		Summary: func(_ context.Context, t *Turn) string {
			if len(t.Scratch.Captured) == 0 {
				return "MONTHLY CHECK COMPLETE\n\nNothing captured this time."
			}
			return "MONTHLY CHECK COMPLETE\n\nCaptured: " + strings.Join(t.Scratch.Captured, ", ")
		},
	}
}
