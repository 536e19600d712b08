package llm

import "testing"

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"hi", 1},
		{"test", 1},
		{"hello", 2},
		{"The quick brown fox jumps over the lazy dog.", 11},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.input); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestEstimateMessageTokens(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want int
	}{
		{"text", Message{Role: "user", Content: "hello"}, 4 + 2},
		{"empty", Message{Role: "assistant"}, 4},
		{"image", Message{Role: "user", Images: []Image{{Data: []byte{1}}, {Data: []byte{2}}}}, 4 + 2*imageTokens},
		{
			"tool call",
			Message{Role: "assistant", ToolCalls: []ToolCall{{ID: "c1", Name: "get_time", Params: map[string]any{}}}},
			// overhead + name(8 chars) + "{}" + framing
			4 + 2 + 1 + 4,
		},
		{
			"tool result",
			Message{Role: "user", Content: `{"score":82}`, ToolCallID: "c1"},
			4 + 3 + 1 + 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateMessageTokens(tt.msg); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEstimateMessagesTokens(t *testing.T) {
	got := EstimateMessagesTokens([]Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
	})
	if got != 12 {
		t.Errorf("expected 12, got %d", got)
	}
}

func TestEstimateToolsTokens_AgentTools(t *testing.T) {
	got := EstimateToolsTokens(AgentTools)
	if got <= 50 || got >= 5000 {
		t.Errorf("tool definitions estimated at %d tokens, expected between 50 and 5000", got)
	}
}
