package contract

import "context"

// Agent is the language-model runtime that decides which tools to call for a turn.
type Agent interface {
	Run(ctx context.Context, req AgentRequest) (AgentResponse, error)
}

type ToolGateway interface {
	Execute(ctx context.Context, reqs []ToolRequest) ([]ToolResult, error)
}
