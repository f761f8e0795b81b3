package contract

import (
	"github.com/cloudwego/eino/schema"
)

type AgentRequest struct {
	SessionID   string            `json:"session_id"`
	UserMessage string            `json:"user_message"`
	History     []*schema.Message `json:"history,omitempty"`
	Context     SessionContext    `json:"context"`
}

// SessionContext is the slice of session state the agent sees on every turn.
type SessionContext struct {
	CartID        string            `json:"cart_id,omitempty"`
	Preferences   map[string]string `json:"preferences,omitempty"`
	ActiveFilters map[string]string `json:"active_filters,omitempty"`
}

type AgentResponse struct {
	// Messages holds everything the runtime produced this turn, in order:
	// assistant tool-call messages, tool results and the final answer.
	Messages    []*schema.Message `json:"messages"`
	ToolResults []ToolResult      `json:"tool_results,omitempty"`
}

type ToolRequest struct {
	ID   string         `json:"id,omitempty"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	ID      string       `json:"id,omitempty"`
	Tool    string       `json:"tool"`
	Result  string       `json:"result,omitempty"`
	Error   string       `json:"error,omitempty"`
	Effects *ToolEffects `json:"effects,omitempty"`
}

// ToolEffects carries structured side information of a successful tool call.
type ToolEffects struct {
	CartID  string            `json:"cart_id,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
}

// Content is what the model sees for this result.
func (r ToolResult) Content() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Result
}
