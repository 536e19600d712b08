// Package llm talks to language models: chat with tool calls for open
// conversation, and the image/text extraction calls the flows rely on.
package llm

import "context"

type Message struct {
	Role       string     `json:"role"` // user, assistant
	Content    string     `json:"content,omitempty"`
	Images     []Image    `json:"-"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // for tool result messages
}

// Image is a photo attached to a user message.
type Image struct {
	MediaType string // image/jpeg, image/png
	Data      []byte
}

type ToolCall struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
}

type Response struct {
	Content   string
	ToolCalls []ToolCall
}

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

type Client interface {
	Chat(ctx context.Context, systemPrompt string, messages []Message, tools []Tool) (*Response, error)
}

func mediaType(img Image) string {
	if img.MediaType == "" {
		return "image/jpeg"
	}
	return img.MediaType
}
