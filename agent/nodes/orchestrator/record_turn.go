package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/Chative-Shopping-Assistant/agent/contract"
)

// RecordTurn adds the utterance to the search history and merges the
// preferences it mentions, before the agent sees the session context.
func RecordTurn(in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	in.Session.RecordTurn(in.Text, in.Now)
	return in, nil
}
