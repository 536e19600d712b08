package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chris/zeroism/internal/llm"
	"github.com/chris/zeroism/internal/parse"
	"github.com/chris/zeroism/internal/records"
)

// Engine drives flows for every conversation. Events for one conversation
// are serialized on that conversation's lock, so a scheduled start racing a
// user reply either lands before or after it, never in between.
type Engine struct {
	deps  Deps
	convs *Conversations
	flows map[Kind]*Definition
	loc   *time.Location
	now   func() time.Time
	log   *slog.Logger
}

func New(deps Deps, convs *Conversations, loc *time.Location, now func() time.Time) *Engine {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	if deps.SleepScreenshots <= 0 {
		deps.SleepScreenshots = 9
	}
	e := &Engine{deps: deps, convs: convs, loc: loc, now: now, log: slog.Default().With("component", "flow")}
	e.flows = map[Kind]*Definition{
		Morning: MorningFlow(deps.SleepScreenshots),
		Evening: EveningFlow(),
		Monthly: MonthlyFlow(),
	}
	return e
}

func (e *Engine) Conversations() *Conversations { return e.convs }

// Start begins a flow, replacing whatever flow was active, and returns the
// first prompt.
func (e *Engine) Start(ctx context.Context, id string, kind Kind) (string, error) {
	def, ok := e.flows[kind]
	if !ok {
		return "", fmt.Errorf("unknown flow %q", kind)
	}
	c := e.convs.Get(id)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active() {
		e.log.Info("flow replaced", "conversation", id, "flow", c.flow.Kind, "run", c.runID, "by", kind)
	}
	c.reset()
	now := e.now().In(e.loc)
	c.flow = def
	c.runID = uuid.NewString()
	c.started = now
	c.date = now.Format(time.DateOnly)
	c.scratch.Sunday = now.Weekday() == time.Sunday
	e.log.Info("flow started", "conversation", id, "flow", kind, "run", c.runID, "date", c.date)

	t := e.turn(c)
	var parts []string
	if def.Intro != nil {
		if intro := def.Intro(ctx, t); intro != "" {
			parts = append(parts, intro)
		}
	}
	parts = append(parts, def.Steps[0].Prompt(t))
	return join(parts), nil
}

// Active reports the running flow and step for a conversation.
func (e *Engine) Active(id string) (Kind, StepID, bool) {
	c := e.convs.Get(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active() {
		return "", "", false
	}
	return c.flow.Kind, c.flow.Steps[c.step].ID, true
}

// Abort drops the active flow. It reports whether one was running.
func (e *Engine) Abort(id string) bool {
	c := e.convs.Get(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active() {
		return false
	}
	e.log.Info("flow aborted", "conversation", id, "flow", c.flow.Kind, "run", c.runID, "step", c.flow.Steps[c.step].ID)
	c.reset()
	return true
}

// Handle feeds one event to the conversation's active flow. It returns
// false when no flow is active and the event belongs to someone else.
func (e *Engine) Handle(ctx context.Context, id string, in Input) (string, bool) {
	c := e.convs.Get(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active() {
		return "", false
	}
	if in.kind() == Text && abortTokens[in.token()] {
		e.log.Info("flow aborted", "conversation", id, "flow", c.flow.Kind, "run", c.runID, "step", c.flow.Steps[c.step].ID)
		c.reset()
		return "Check-in cancelled. Nothing else will be saved.", true
	}

	step := c.flow.Steps[c.step]
	t := e.turn(c)

	if in.kind() == Text && skipTokens[in.token()] {
		c.pending = nil
		t.Say("Skipped.")
		return e.advance(ctx, c, t), true
	}

	if step.Collect > 0 {
		return e.collect(ctx, c, t, step, in), true
	}

	if step.Loop && in.kind() == Text && doneTokens[in.token()] {
		return e.advance(ctx, c, t), true
	}

	if !accepts(step.Accepts, in.kind()) {
		return mismatch(step.Accepts), true
	}

	e.apply(ctx, c, t, step, in)
	if step.Loop {
		t.notes = append(t.notes, step.More)
		return join(t.notes), true
	}
	return e.advance(ctx, c, t), true
}

// collect gathers images for a Collect step until the threshold is met or
// the user closes the set.
func (e *Engine) collect(ctx context.Context, c *Conversation, t *Turn, step Step, in Input) string {
	switch {
	case in.kind() == Image:
		c.pending = append(c.pending, in.Images...)
		if len(c.pending) < step.Collect {
			return fmt.Sprintf("Got %d/%d. Send the rest or `done`.", len(c.pending), step.Collect)
		}
	case doneTokens[in.token()]:
		if len(c.pending) == 0 {
			t.Say("No screenshots, moving on.")
			return e.advance(ctx, c, t)
		}
	default:
		return fmt.Sprintf("Please send screenshots (%d/%d so far), `done` to finish early or `skip`.", len(c.pending), step.Collect)
	}
	images := c.pending
	c.pending = nil
	e.apply(ctx, c, t, step, Input{Images: images})
	return e.advance(ctx, c, t)
}

// apply runs a step's parser and persist action and turns each failure
// kind into its one user-visible outcome. No failure stops the flow.
func (e *Engine) apply(ctx context.Context, c *Conversation, t *Turn, step Step, in Input) {
	err := step.Apply(ctx, t, in)
	if err == nil {
		return
	}
	log := e.log.With("conversation", c.ID, "flow", c.flow.Kind, "run", c.runID, "step", step.ID, "error", err)

	// A joined error can carry several kinds: some entries unparsed, some
	// not saved. Each kind present gets its line.
	oracle := errors.Is(err, llm.ErrOracle) || errors.Is(err, llm.ErrInvalidOutput)
	unparsed := !oracle && errors.Is(err, parse.ErrUnparsed)
	store := errors.Is(err, records.ErrUnavailable) || errors.Is(err, records.ErrStore)
	if unparsed {
		log.Info("answer not parsed")
		t.Say("Couldn't read that for %s (%v).", step.Label, unparsedDetail(err))
	}
	if oracle {
		log.Warn("oracle gave nothing usable")
		t.Say("Couldn't extract %s from the model, continuing without it.", step.Label)
	}
	switch {
	case errors.Is(err, records.ErrUnavailable):
		log.Warn("store unavailable")
		t.Say("Store unavailable: %s not saved.", step.Label)
	case errors.Is(err, records.ErrStore):
		log.Warn("store write failed")
		t.Say("Couldn't save %s. Please log it again later.", step.Label)
	}
	if !unparsed && !oracle && !store {
		log.Error("step failed")
		t.Say("Something went wrong with %s, moving on.", step.Label)
	}
}

func unparsedDetail(err error) string {
	var be *parse.BatchError
	if errors.As(err, &be) {
		return "not recognised: " + strings.Join(be.Failed, ", ")
	}
	var msgs []string
	for _, line := range strings.Split(err.Error(), "\n") {
		msgs = append(msgs, strings.TrimPrefix(line, parse.ErrUnparsed.Error()+": "))
	}
	return strings.Join(msgs, "; ")
}

// advance moves to the next step, or finalizes after the last one.
func (e *Engine) advance(ctx context.Context, c *Conversation, t *Turn) string {
	c.step++
	if c.step < len(c.flow.Steps) {
		t.notes = append(t.notes, c.flow.Steps[c.step].Prompt(t))
		return join(t.notes)
	}
	summary := c.flow.Summary(ctx, t)
	e.log.Info("flow finished", "conversation", c.ID, "flow", c.flow.Kind, "run", c.runID)
	c.reset()
	t.notes = append(t.notes, summary)
	return join(t.notes)
}

func (e *Engine) turn(c *Conversation) *Turn {
	return &Turn{Deps: &e.deps, Scratch: &c.scratch, Date: c.date, Started: c.started, RunID: c.runID}
}

func accepts(want, got InputKind) bool {
	return want == Either || want == got
}

func mismatch(want InputKind) string {
	if want == Image {
		return "This step needs a photo. Send one, or `skip`."
	}
	return "This step needs a text answer. Type it, or `skip`."
}

func join(parts []string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
