package shopper

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Chative-Shopping-Assistant/agent/contract"
)

const historyKey = "history"

// compileModelGraph renders the system prompt in front of the running
// conversation and asks the tool-bound model for its next message.
func compileModelGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.MessagesPlaceholder(historyKey, false),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add shopper prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add shopper model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add shopper edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add shopper edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add shopper edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("shopper.model_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile shopper model graph: %w", err)
	}
	return runner, nil
}

// compileRuntimeGraph validates the request and hands it to the reasoning loop.
func compileRuntimeGraph(
	ctx context.Context,
	loop func(context.Context, contractx.AgentRequest) (contractx.AgentResponse, error),
) (compose.Runnable[contractx.AgentRequest, contractx.AgentResponse], error) {
	graph := compose.NewGraph[contractx.AgentRequest, contractx.AgentResponse]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, req contractx.AgentRequest) (contractx.AgentRequest, error) {
			if strings.TrimSpace(req.UserMessage) == "" {
				return contractx.AgentRequest{}, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
			}
			for _, m := range req.History {
				if m == nil {
					return contractx.AgentRequest{}, fmt.Errorf("%w: history contains a nil message", contractx.ErrValidation)
				}
			}
			return req, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add shopper runtime validate node: %w", err)
	}

	if err := graph.AddLambdaNode("react_loop", compose.InvokableLambda(loop)); err != nil {
		return nil, fmt.Errorf("add shopper runtime loop node: %w", err)
	}

	if err := graph.AddEdge(compose.START, "validate_request"); err != nil {
		return nil, fmt.Errorf("add shopper runtime edge start->validate: %w", err)
	}
	if err := graph.AddEdge("validate_request", "react_loop"); err != nil {
		return nil, fmt.Errorf("add shopper runtime edge validate->loop: %w", err)
	}
	if err := graph.AddEdge("react_loop", compose.END); err != nil {
		return nil, fmt.Errorf("add shopper runtime edge loop->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("shopper.runtime_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile shopper runtime graph: %w", err)
	}
	return runner, nil
}
