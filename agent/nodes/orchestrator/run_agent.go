package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Shopping-Assistant/agent/contract"
)

func RunAgent(
	ctx context.Context,
	in *GraphState,
	agent contractx.Agent,
	historyLimit int,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	resp, err := agent.Run(ctx, contractx.AgentRequest{
		SessionID:   in.SessionID,
		UserMessage: in.Text,
		History:     in.Session.HistoryWindow(historyLimit),
		Context:     in.Session.Snapshot(),
	})
	if err != nil {
		in.AgentErr = err
		return in, nil
	}

	in.Response = resp
	return in, nil
}
