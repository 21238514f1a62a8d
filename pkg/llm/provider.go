package llm

import (
	"context"
)

// Chat roles shared across providers and the persisted history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a chat message in a provider-agnostic format.
// ToolCalls is only set on assistant messages that request tool execution;
// ToolCallId is only set on tool result messages.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCallId string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a single capability invocation requested by the model.
// Arguments is the raw JSON object produced by the model.
type ToolCall struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolSchema is the declared contract offered to the model for one tool:
// name, description and a JSON-schema parameter object.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Provider defines the contract for any chat model backend. The returned
// assistant message carries the tool calls the model requested, if any; an
// empty ToolCalls slice means the model produced a final answer.
type Provider interface {
	Chat(ctx context.Context, history []Message, tools []ToolSchema, options ...Option) (*Message, error)
}
