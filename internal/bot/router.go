// Package bot routes inbound chat events, independent of the transport
// they arrived on. Commands come first, then the active flow, then
// quick-log, and whatever is left goes to the coach.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/chris/zeroism/internal/flow"
	"github.com/chris/zeroism/internal/llm"
	"github.com/chris/zeroism/internal/quicklog"
	"github.com/chris/zeroism/internal/records"
	"github.com/chris/zeroism/internal/report"
)

// Flows is the part of the flow engine the router drives.
type Flows interface {
	Start(ctx context.Context, id string, kind flow.Kind) (string, error)
	Handle(ctx context.Context, id string, in flow.Input) (string, bool)
	Abort(id string) bool
}

// History keeps the free-chat messages per conversation.
type History interface {
	History(id string) []llm.Message
	SaveHistory(id string, messages []llm.Message)
	ClearHistory(id string)
}

type QuickLogger interface {
	Handle(ctx context.Context, text string) (string, bool)
}

type Reports interface {
	Status(ctx context.Context) (report.Status, error)
	Weekly(ctx context.Context) (report.Weekly, error)
}

// Coach answers free-form messages and comments on the weekly review.
type Coach interface {
	Run(ctx context.Context, history []llm.Message, msg string) (string, []llm.Message, error)
	Reflect(ctx context.Context, w report.Weekly) (string, error)
}

type Router struct {
	flows   Flows
	history History
	quick   QuickLogger
	reports Reports
	coach   Coach
	log     *slog.Logger
}

func New(flows Flows, history History, quick QuickLogger, reports Reports, coach Coach) *Router {
	return &Router{
		flows:   flows,
		history: history,
		quick:   quick,
		reports: reports,
		coach:   coach,
		log:     slog.Default().With("component", "bot"),
	}
}

// command runs a slash command. It reports false for anything else,
// including /skip, which belongs to the active flow.
func (r *Router) command(ctx context.Context, id, name string) (string, bool) {
	switch name {
	case "/start":
		return Welcome + "\n\n" + Help, true
	case "/help":
		return Help, true
	case "/log":
		return quicklog.Help, true
	case "/morning":
		return r.StartFlow(ctx, id, flow.Morning), true
	case "/evening":
		return r.StartFlow(ctx, id, flow.Evening), true
	case "/monthly":
		return r.StartFlow(ctx, id, flow.Monthly), true
	case "/weekly":
		return r.WeeklyReview(ctx), true
	case "/status":
		return r.status(ctx), true
	case "/reset", "/cancel":
		return r.reset(id), true
	}
	return "", false
}

// Handle answers one inbound event. An empty reply means nothing to send.
func (r *Router) Handle(ctx context.Context, id string, in flow.Input) string {
	text := strings.TrimSpace(in.Text)
	if len(in.Images) == 0 {
		name, _, _ := strings.Cut(text, " ")
		if reply, ok := r.command(ctx, id, strings.ToLower(name)); ok {
			r.log.Debug("command", "conversation", id, "command", strings.ToLower(name))
			return reply
		}
	}

	if reply, ok := r.flows.Handle(ctx, id, in); ok {
		return reply
	}
	if len(in.Images) > 0 {
		return "No check-in is running. Start /morning for sleep screenshots or /evening for meal photos."
	}
	if text == "" {
		return ""
	}
	if reply, ok := r.quick.Handle(ctx, text); ok {
		return reply
	}
	return r.chat(ctx, id, text)
}

// StartFlow begins a check-in for a conversation, replacing any running one.
func (r *Router) StartFlow(ctx context.Context, id string, kind flow.Kind) string {
	prompt, err := r.flows.Start(ctx, id, kind)
	if err != nil {
		r.log.Error("starting flow", "conversation", id, "flow", kind, "error", err)
		return "Couldn't start that check-in."
	}
	return prompt
}

// WeeklyReview renders this week's aggregates, followed by the coach's
// comment when the model is reachable.
func (r *Router) WeeklyReview(ctx context.Context) string {
	w, err := r.reports.Weekly(ctx)
	if errors.Is(err, records.ErrUnavailable) {
		return "Store unavailable, no weekly review this time."
	}
	text := w.Format()
	if err != nil {
		r.log.Warn("weekly review incomplete", "error", err)
		text += "\n\n(Some tables could not be read, numbers may be incomplete.)"
	}
	if r.coach != nil {
		comment, err := r.coach.Reflect(ctx, w)
		switch {
		case err != nil:
			r.log.Warn("weekly reflection", "error", err)
		case comment != "":
			text += "\n\n" + comment
		}
	}
	return text
}

func (r *Router) status(ctx context.Context) string {
	st, err := r.reports.Status(ctx)
	if err != nil {
		r.log.Warn("status", "error", err)
		if errors.Is(err, records.ErrUnavailable) {
			return "Store unavailable, no status right now."
		}
		return "Couldn't read today's status."
	}
	return st.Format()
}

func (r *Router) reset(id string) string {
	if r.flows.Abort(id) {
		return "Check-in cancelled. Nothing else will be saved."
	}
	r.history.ClearHistory(id)
	return "Nothing was running. Chat history cleared."
}

func (r *Router) chat(ctx context.Context, id, text string) string {
	reply, updated, err := r.coach.Run(ctx, r.history.History(id), text)
	if err != nil {
		r.log.Warn("coach", "conversation", id, "error", err)
		if errors.Is(err, llm.ErrNotConfigured) {
			return "The coach is offline. Check-ins and quick logs still work, see /help."
		}
		return "Sorry, I can't answer right now. Try again in a bit."
	}
	r.history.SaveHistory(id, updated)
	return reply
}

const Welcome = "Zeroism: daily check-ins, quick logs and a coach."

const Help = "Commands:\n" +
	"/morning · morning check (sleep screenshots, vitals, mood)\n" +
	"/evening · evening review (activity, training, meals, spending)\n" +
	"/monthly · monthly measurements\n" +
	"/weekly · weekly review\n" +
	"/status · today at a glance\n" +
	"/log · quick-log commands\n" +
	"/reset · cancel the running check-in\n\n" +
	"Inside a check-in: `skip` skips a step, `done` ends a list."
