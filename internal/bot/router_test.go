package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/zeroism/internal/flow"
	"github.com/chris/zeroism/internal/llm"
	"github.com/chris/zeroism/internal/records"
	"github.com/chris/zeroism/internal/report"
)

type fakeFlows struct {
	active  map[string]flow.Kind
	started []flow.Kind
	inputs  []flow.Input
}

func newFakeFlows() *fakeFlows { return &fakeFlows{active: map[string]flow.Kind{}} }

func (f *fakeFlows) Start(_ context.Context, id string, kind flow.Kind) (string, error) {
	if kind == "broken" {
		return "", errors.New("unknown flow")
	}
	f.active[id] = kind
	f.started = append(f.started, kind)
	return fmt.Sprintf("%s prompt", kind), nil
}

func (f *fakeFlows) Handle(_ context.Context, id string, in flow.Input) (string, bool) {
	if _, ok := f.active[id]; !ok {
		return "", false
	}
	f.inputs = append(f.inputs, in)
	return "flow reply", true
}

func (f *fakeFlows) Abort(id string) bool {
	_, ok := f.active[id]
	delete(f.active, id)
	return ok
}

type fakeQuick struct{ seen []string }

func (q *fakeQuick) Handle(_ context.Context, text string) (string, bool) {
	if text != "weight 73.5" {
		return "", false
	}
	q.seen = append(q.seen, text)
	return "Weight: 73.5 kg", true
}

type fakeReports struct {
	weeklyErr error
	statusErr error
}

func (r fakeReports) Status(context.Context) (report.Status, error) {
	return report.Status{Date: "2026-10-18", SleepScore: "84", Sauna: 2}, r.statusErr
}

func (r fakeReports) Weekly(context.Context) (report.Weekly, error) {
	return report.Weekly{From: "2026-10-12", To: "2026-10-18", Sauna: 4}, r.weeklyErr
}

type fakeCoach struct {
	err     error
	comment string
	seen    [][]llm.Message
}

func (c *fakeCoach) Run(_ context.Context, history []llm.Message, msg string) (string, []llm.Message, error) {
	c.seen = append(c.seen, history)
	if c.err != nil {
		return "", nil, c.err
	}
	out := append(append([]llm.Message{}, history...),
		llm.Message{Role: "user", Content: msg},
		llm.Message{Role: "assistant", Content: "coach says hi"})
	return "coach says hi", out, nil
}

func (c *fakeCoach) Reflect(context.Context, report.Weekly) (string, error) {
	if c.comment == "" {
		return "", llm.ErrNotConfigured
	}
	return c.comment, nil
}

type harness struct {
	*Router
	flows *fakeFlows
	quick *fakeQuick
	coach *fakeCoach
	convs *flow.Conversations
}

func newHarness(reports fakeReports) *harness {
	h := &harness{flows: newFakeFlows(), quick: &fakeQuick{}, coach: &fakeCoach{}, convs: flow.NewConversations(20, 0)}
	h.Router = New(h.flows, h.convs, h.quick, reports, h.coach)
	return h
}

func TestCommandsStartFlows(t *testing.T) {
	h := newHarness(fakeReports{})
	ctx := context.Background()
	assert.Equal(t, "morning prompt", h.Handle(ctx, "c", flow.Input{Text: "/morning"}))
	assert.Equal(t, "evening prompt", h.Handle(ctx, "c", flow.Input{Text: " /Evening "}))
	assert.Equal(t, "monthly prompt", h.Handle(ctx, "c", flow.Input{Text: "/monthly"}))
	assert.Equal(t, []flow.Kind{flow.Morning, flow.Evening, flow.Monthly}, h.flows.started)
	assert.Equal(t, "Couldn't start that check-in.", h.StartFlow(ctx, "c", "broken"))
}

func TestActiveFlowTakesPrecedence(t *testing.T) {
	h := newHarness(fakeReports{})
	ctx := context.Background()
	h.Handle(ctx, "c", flow.Input{Text: "/morning"})

	assert.Equal(t, "flow reply", h.Handle(ctx, "c", flow.Input{Text: "weight 73.5"}))
	assert.Equal(t, "flow reply", h.Handle(ctx, "c", flow.Input{Text: "/skip"}))
	assert.Equal(t, "flow reply", h.Handle(ctx, "c", flow.Input{Images: []llm.Image{{Data: []byte{1}}}}))
	assert.Len(t, h.flows.inputs, 3)
	assert.Empty(t, h.quick.seen)
	assert.Empty(t, h.coach.seen)
}

func TestResetAbortsFlow(t *testing.T) {
	h := newHarness(fakeReports{})
	ctx := context.Background()
	h.Handle(ctx, "c", flow.Input{Text: "/morning"})
	assert.Equal(t, "Check-in cancelled. Nothing else will be saved.", h.Handle(ctx, "c", flow.Input{Text: "/reset"}))
	assert.Empty(t, h.flows.active)

	h.convs.SaveHistory("c", []llm.Message{{Role: "user", Content: "hi"}})
	assert.Equal(t, "Nothing was running. Chat history cleared.", h.Handle(ctx, "c", flow.Input{Text: "/cancel"}))
	assert.Empty(t, h.convs.History("c"))
}

func TestQuickLogBeforeCoach(t *testing.T) {
	h := newHarness(fakeReports{})
	ctx := context.Background()
	assert.Equal(t, "Weight: 73.5 kg", h.Handle(ctx, "c", flow.Input{Text: "weight 73.5"}))
	assert.Empty(t, h.coach.seen)

	assert.Equal(t, "coach says hi", h.Handle(ctx, "c", flow.Input{Text: "how was my week?"}))
	assert.Len(t, h.convs.History("c"), 2)

	h.Handle(ctx, "c", flow.Input{Text: "and today?"})
	require.Len(t, h.coach.seen, 2)
	assert.Len(t, h.coach.seen[1], 2)
}

func TestCoachErrorKeepsHistory(t *testing.T) {
	h := newHarness(fakeReports{})
	ctx := context.Background()
	h.convs.SaveHistory("c", []llm.Message{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}})

	h.coach.err = fmt.Errorf("llm chat: %w", llm.ErrNotConfigured)
	assert.Contains(t, h.Handle(ctx, "c", flow.Input{Text: "hello?"}), "coach is offline")

	h.coach.err = errors.New("timeout")
	assert.Contains(t, h.Handle(ctx, "c", flow.Input{Text: "hello?"}), "can't answer right now")
	assert.Len(t, h.convs.History("c"), 2)
}

func TestImagesOutsideFlow(t *testing.T) {
	h := newHarness(fakeReports{})
	reply := h.Handle(context.Background(), "c", flow.Input{Text: "/morning", Images: []llm.Image{{Data: []byte{1}}}})
	assert.Contains(t, reply, "No check-in is running")
	assert.Empty(t, h.flows.started)
	assert.Empty(t, h.Handle(context.Background(), "c", flow.Input{Text: "   "}))
}

func TestWeeklyReview(t *testing.T) {
	ctx := context.Background()

	h := newHarness(fakeReports{})
	got := h.Handle(ctx, "c", flow.Input{Text: "/weekly"})
	assert.Contains(t, got, "WEEKLY REVIEW 2026-10-12 to 2026-10-18")
	assert.Contains(t, got, "Sauna: 4/4 (done)")
	assert.NotContains(t, got, "could not be read")

	h.coach.comment = "Strong week."
	assert.True(t, len(h.WeeklyReview(ctx)) > len(got))
	assert.Contains(t, h.WeeklyReview(ctx), "\n\nStrong week.")

	h = newHarness(fakeReports{weeklyErr: fmt.Errorf("read MEALS: %w", records.ErrStore)})
	assert.Contains(t, h.WeeklyReview(ctx), "could not be read")

	h = newHarness(fakeReports{weeklyErr: fmt.Errorf("read HEALTH: %w", records.ErrUnavailable)})
	assert.Equal(t, "Store unavailable, no weekly review this time.", h.WeeklyReview(ctx))
}

func TestStatusCommand(t *testing.T) {
	ctx := context.Background()
	h := newHarness(fakeReports{})
	got := h.Handle(ctx, "c", flow.Input{Text: "/status"})
	assert.Contains(t, got, "Sleep score: 84")
	assert.Contains(t, got, "Sauna this week: 2/4")

	h = newHarness(fakeReports{statusErr: records.ErrUnavailable})
	assert.Equal(t, "Store unavailable, no status right now.", h.Handle(ctx, "c", flow.Input{Text: "/status"}))
}

func TestHelpCommands(t *testing.T) {
	h := newHarness(fakeReports{})
	ctx := context.Background()
	assert.Contains(t, h.Handle(ctx, "c", flow.Input{Text: "/start"}), Welcome)
	assert.Equal(t, Help, h.Handle(ctx, "c", flow.Input{Text: "/help"}))
	assert.Contains(t, h.Handle(ctx, "c", flow.Input{Text: "/log"}), "Quick log")
}
