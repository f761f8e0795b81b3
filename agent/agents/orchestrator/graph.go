package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/tanpawarit/Chative-Shopping-Assistant/agent/nodes/orchestrator"
)

type turnStep struct {
	name   string
	lambda *compose.Lambda
}

// turnSteps lists the turn pipeline in execution order.
func (o *Orchestrator) turnSteps() []turnStep {
	return []turnStep{
		{"validate_request", compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		})},
		{"load_or_create_state", compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadOrCreateState(ctx, in, o.store)
		})},
		{"record_turn", compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecordTurn(in)
		})},
		{"run_agent", compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RunAgent(ctx, in, o.agent, o.historyLimit)
		})},
		{"apply_tool_effects", compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ApplyToolEffects(in)
		})},
		{"save_state", compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SaveState(ctx, in, o.store)
		})},
		{"finalize_reply", compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		})},
	}
}

func (o *Orchestrator) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	prev := compose.START
	for _, step := range o.turnSteps() {
		if err := graph.AddLambdaNode(step.name, step.lambda); err != nil {
			return nil, fmt.Errorf("add node %s: %w", step.name, err)
		}
		if err := graph.AddEdge(prev, step.name); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", prev, step.name, err)
		}
		prev = step.name
	}
	if err := graph.AddEdge(prev, compose.END); err != nil {
		return nil, fmt.Errorf("add edge %s->%s: %w", prev, compose.END, err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.handle_message"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
