package llm

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestTrimMessages_UnderBudget(t *testing.T) {
	msgs := []Message{
		{Role: "user", Content: "how did I sleep?"},
		{Role: "assistant", Content: "score 82"},
	}
	if got := TrimMessages(msgs, 100000); !reflect.DeepEqual(got, msgs) {
		t.Errorf("expected messages unchanged, got %v", got)
	}
	if got := TrimMessages(nil, 100); len(got) != 0 {
		t.Errorf("expected 0 messages, got %d", len(got))
	}
}

func TestTrimMessages_DropsOldestFirst(t *testing.T) {
	msgs := []Message{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
		{Role: "user", Content: "second question"},
		{Role: "assistant", Content: "second answer"},
	}
	got := TrimMessages(msgs, EstimateMessagesTokens(msgs[2:]))
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].Content != "second question" || got[1].Content != "second answer" {
		t.Errorf("expected the newest exchange, got %q and %q", got[0].Content, got[1].Content)
	}
}

func TestTrimMessages_KeepsToolExchangeTogether(t *testing.T) {
	msgs := []Message{
		{Role: "user", Content: "old question"},
		{Role: "assistant", Content: "old answer"},
		{Role: "user", Content: "weekly stats?"},
		{Role: "assistant", ToolCalls: []ToolCall{
			{ID: "a", Name: "get_weekly_stats", Params: map[string]any{}},
			{ID: "b", Name: "get_time", Params: map[string]any{}},
		}},
		{Role: "user", Content: `{"sauna":3}`, ToolCallID: "a"},
		{Role: "user", Content: `"Mon 09:00"`, ToolCallID: "b"},
		{Role: "assistant", Content: "Three saunas so far."},
	}
	units := exchanges(msgs)
	if len(units) != 5 {
		t.Fatalf("expected 5 exchanges, got %d", len(units))
	}
	if len(units[3].messages) != 3 {
		t.Errorf("expected tool call and both results in one exchange, got %d messages", len(units[3].messages))
	}

	got := TrimMessages(msgs, EstimateMessagesTokens(msgs[2:]))
	if len(got) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(got))
	}
	if got[0].Content != "weekly stats?" {
		t.Errorf("expected first message %q, got %q", "weekly stats?", got[0].Content)
	}
	if got[3].ToolCallID != "b" {
		t.Errorf("expected second tool result kept, got tool call id %q", got[3].ToolCallID)
	}
}

func TestTrimMessages_AlwaysKeepsNewest(t *testing.T) {
	msgs := []Message{{Role: "user", Content: strings.Repeat("x", 10000)}}
	if got := TrimMessages(msgs, 1); len(got) != 1 {
		t.Errorf("expected the newest message kept, got %d messages", len(got))
	}
}

func TestWindow_EvictsOldestBeyondLimit(t *testing.T) {
	var msgs []Message
	for i := range 30 {
		msgs = append(msgs, Message{Role: "user", Content: fmt.Sprintf("m%d", i)})
	}
	got := Window(msgs, 20, 100000)
	if len(got) != 20 {
		t.Fatalf("expected 20 messages, got %d", len(got))
	}
	if got[0].Content != "m10" || got[19].Content != "m29" {
		t.Errorf("expected m10..m29, got %s..%s", got[0].Content, got[19].Content)
	}
}

func TestWindow_DoesNotStartWithOrphanToolResult(t *testing.T) {
	msgs := []Message{
		{Role: "assistant", ToolCalls: []ToolCall{{ID: "a", Name: "get_time"}}},
		{Role: "user", Content: "now", ToolCallID: "a"},
		{Role: "assistant", Content: "It is nine."},
		{Role: "user", Content: "thanks"},
	}
	got := Window(msgs, 3, 100000)
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].Content != "It is nine." {
		t.Errorf("expected window to start at %q, got %q", "It is nine.", got[0].Content)
	}
}
