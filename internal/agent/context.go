package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chris/zeroism/internal/llm"
	"github.com/chris/zeroism/internal/report"
)

// BuildWeeklyPrompt asks for a short coaching comment on the week's numbers.
func BuildWeeklyPrompt(w report.Weekly) string {
	statsJSON, _ := json.MarshalIndent(weeklyResult(w, nil), "", "  ") // plain map; marshal cannot fail

	var b strings.Builder
	fmt.Fprintf(&b, "It's the end of the week (%s to %s).\n\n## This week\n", w.From, w.To)
	b.Write(statsJSON)
	fmt.Fprintf(&b, "\n\nThe sauna goal is %d sessions a week. ", report.SaunaGoal)
	b.WriteString("Based on the above, write a brief weekly reflection: one thing that went well, one thing to improve, and one concrete focus for next week. Three or four sentences, no headings.")
	return b.String()
}

// Reflect returns the coach's comment on a weekly review. It does not touch
// any conversation history.
func (a *Agent) Reflect(ctx context.Context, w report.Weekly) (string, error) {
	resp, err := a.client.Chat(ctx, llm.CoachPrompt, []llm.Message{{Role: "user", Content: BuildWeeklyPrompt(w)}}, nil)
	if err != nil {
		return "", fmt.Errorf("weekly reflection: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}
