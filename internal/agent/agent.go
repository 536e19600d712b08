// Package agent answers free-form messages with the coach model, letting it
// read the user's stats and log entries through tools.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/zeroism/internal/llm"
	"github.com/chris/zeroism/internal/report"
)

const maxToolRounds = 10

// Reports is the read side the stats tools use.
type Reports interface {
	Status(ctx context.Context) (report.Status, error)
	Weekly(ctx context.Context) (report.Weekly, error)
}

// QuickLogger logs one quick-log line.
type QuickLogger interface {
	Handle(ctx context.Context, text string) (string, bool)
}

type Agent struct {
	client           llm.Client
	reports          Reports
	quick            QuickLogger
	loc              *time.Location
	now              func() time.Time
	log              *slog.Logger
	MaxContextTokens int
}

func New(client llm.Client, reports Reports, quick QuickLogger, loc *time.Location, maxContextTokens int) *Agent {
	if loc == nil {
		loc = time.Local
	}
	return &Agent{
		client:           client,
		reports:          reports,
		quick:            quick,
		loc:              loc,
		now:              time.Now,
		log:              slog.Default().With("component", "agent"),
		MaxContextTokens: maxContextTokens,
	}
}

// Run takes a user message, runs the tool-calling loop, and returns the
// final text with the extended history. On error the history is not
// returned, so the caller keeps its old one.
func (a *Agent) Run(ctx context.Context, history []llm.Message, userMessage string) (string, []llm.Message, error) {
	messages := make([]llm.Message, len(history), len(history)+1)
	copy(messages, history)
	messages = append(messages, llm.Message{Role: "user", Content: userMessage})

	// Fixed costs: system prompt + tool definitions.
	fixedTokens := llm.EstimateTokens(llm.CoachPrompt) + llm.EstimateToolsTokens(llm.AgentTools)
	messageBudget := max(a.MaxContextTokens-fixedTokens, 1000)

	for range maxToolRounds {
		trimmed := llm.TrimMessages(messages, messageBudget)
		if len(trimmed) < len(messages) {
			a.log.Debug("context trimmed", "from", len(messages), "to", len(trimmed))
		}
		resp, err := a.client.Chat(ctx, llm.CoachPrompt, trimmed, llm.AgentTools)
		if err != nil {
			return "", nil, fmt.Errorf("llm chat: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			messages = append(messages, llm.Message{Role: "assistant", Content: resp.Content})
			return resp.Content, messages, nil
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, tc := range resp.ToolCalls {
			result := a.executeTool(ctx, tc.Name, tc.Params)
			a.log.Debug("tool call", "tool", tc.Name, "result", truncate(result, 200))
			messages = append(messages, llm.Message{
				Role:       "user",
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	return "I hit the maximum number of tool calls. Here's what I have so far.", messages, nil
}

func (a *Agent) executeTool(ctx context.Context, name string, params map[string]any) string {
	var (
		result any
		err    error
	)

	switch name {
	case "get_time":
		now := a.now().In(a.loc)
		result = map[string]any{
			"local": now.Format(time.RFC3339),
			"date":  now.Format(time.DateOnly),
			"day":   now.Weekday().String(),
			"zone":  a.loc.String(),
		}

	case "get_today_status":
		var st report.Status
		if st, err = a.reports.Status(ctx); err == nil {
			result = map[string]any{
				"date":        st.Date,
				"sleep_score": st.SleepScore,
				"weight":      st.Weight,
				"sauna_week":  st.Sauna,
				"sauna_goal":  report.SaunaGoal,
			}
		}

	case "get_weekly_stats":
		w, werr := a.reports.Weekly(ctx)
		result = weeklyResult(w, werr)

	case "quick_log":
		entry, _ := getString(params, "entry")
		reply, ok := a.quick.Handle(ctx, entry)
		if !ok {
			err = errors.New("not a valid quick-log entry: " + entry)
		} else {
			result = map[string]any{"status": reply}
		}

	default:
		result = map[string]any{"error": "unknown tool: " + name}
	}

	if err != nil {
		result = map[string]any{"error": err.Error()}
	}

	b, _ := json.Marshal(result) // result is always a simple map; marshal cannot fail
	return string(b)
}

func weeklyResult(w report.Weekly, err error) map[string]any {
	out := map[string]any{
		"from":            w.From,
		"to":              w.To,
		"sleep_score_avg": w.SleepAvg,
		"hrv_avg":         w.HRVAvg,
		"training_days":   w.TrainingDays,
		"training_streak": w.Streak,
		"sauna":           w.Sauna,
		"sauna_goal":      report.SaunaGoal,
		"kcal_avg":        w.KcalAvg,
		"protein_avg":     w.ProteinAvg,
		"mood_avg":        w.MoodAvg,
		"expenses":        w.Expenses,
		"learning_hours":  w.LearningHours,
		"supplement_days": w.StackDays,
	}
	if err != nil {
		out["partial"] = err.Error()
	}
	return out
}

// LLMs send parameters as loosely typed JSON.
func getString(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
