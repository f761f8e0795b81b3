package orchestratornode

import (
	"fmt"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Chative-Shopping-Assistant/agent/contract"
)

// ApplyToolEffects folds tool side effects into the session and appends the
// turn to the conversation history. A failed agent run leaves the
// conversation untouched.
func ApplyToolEffects(in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	if in.AgentErr != nil {
		return in, nil
	}

	in.Session.ApplyEffects(in.Response.ToolResults, in.Now)
	in.Session.AppendMessages(schema.UserMessage(in.Text))
	in.Session.AppendMessages(in.Response.Messages...)
	return in, nil
}
