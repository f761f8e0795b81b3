package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Shopping-Assistant/agent/contract"
)

// FinalizeReply returns the text of the last message the agent produced.
func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.AgentErr != nil {
		return GraphOutput{}, in.AgentErr
	}

	msgs := in.Response.Messages
	if len(msgs) == 0 || msgs[len(msgs)-1] == nil {
		return GraphOutput{}, ErrEmptyReply
	}
	reply := strings.TrimSpace(msgs[len(msgs)-1].Content)
	if reply == "" {
		return GraphOutput{}, ErrEmptyReply
	}
	return GraphOutput{Reply: reply}, nil
}
