// Package flow runs the scripted check-ins. A flow is a static table of
// steps; the Engine holds one cursor per conversation and moves it through
// the table one inbound event at a time.
package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chris/zeroism/internal/llm"
	"github.com/chris/zeroism/internal/records"
)

type Kind string

const (
	Morning Kind = "morning"
	Evening Kind = "evening"
	Monthly Kind = "monthly"
)

type StepID string

// InputKind is what a step accepts.
type InputKind int

const (
	Text InputKind = iota
	Image
	Either
)

// Input is one inbound event. An event carrying images is an image event
// even when it also has a caption.
type Input struct {
	Text   string
	Images []llm.Image
}

func (in Input) kind() InputKind {
	if len(in.Images) > 0 {
		return Image
	}
	return Text
}

func (in Input) token() string {
	return strings.ToLower(strings.TrimSpace(in.Text))
}

var (
	skipTokens  = map[string]bool{"skip": true, "/skip": true}
	doneTokens  = map[string]bool{"done": true, "fertig": true, "nein": true, "no": true}
	abortTokens = map[string]bool{"/reset": true, "/cancel": true, "cancel": true, "abbrechen": true}
)

// IsAbort reports whether text cancels the active flow.
func IsAbort(text string) bool { return abortTokens[Input{Text: text}.token()] }

// Step is one prompt/parse/persist unit.
//
// Collect > 0 makes the step gather that many images before Apply runs;
// a done token closes the set early. Loop steps stay in place after each
// Apply until a done token arrives.
type Step struct {
	ID      StepID
	Label   string
	Accepts InputKind
	Collect int
	Loop    bool
	More    string
	Prompt  func(*Turn) string
	Apply   func(context.Context, *Turn, Input) error
}

// Definition is a flow's static configuration.
type Definition struct {
	Kind    Kind
	Intro   func(context.Context, *Turn) string
	Steps   []Step
	Summary func(context.Context, *Turn) string
}

// Scratch accumulates values across one run; it is zeroed at every start
// and at finalization.
type Scratch struct {
	Sunday     bool
	SleepScore string
	Steps      int
	HasSteps   bool
	Exercises  int
	Meals      int
	Kcal       int
	Protein    int
	Expenses   float64
	Captured   []string
}

// Briefer renders the weather and agenda header of the morning check.
type Briefer interface {
	Morning(ctx context.Context, now time.Time) string
}

// SaunaCounter reports this week's sauna sessions.
type SaunaCounter interface {
	SaunaCount(ctx context.Context) (int, error)
}

// Deps are the collaborators the steps call.
type Deps struct {
	Journal  *records.Journal
	Oracle   llm.Oracle
	Briefing Briefer
	Sauna    SaunaCounter

	// SleepScreenshots is the image count that closes the sleep intake.
	SleepScreenshots int
}

// Turn is what a step sees while handling one event.
type Turn struct {
	*Deps
	Scratch *Scratch
	Date    string
	Started time.Time
	RunID   string

	notes []string
}

// Say queues a line for the reply to the current event.
func (t *Turn) Say(format string, args ...any) {
	t.notes = append(t.notes, fmt.Sprintf(format, args...))
}

// Yesterday is the day before the flow's date.
func (t *Turn) Yesterday() string {
	return t.Started.AddDate(0, 0, -1).Format(time.DateOnly)
}
