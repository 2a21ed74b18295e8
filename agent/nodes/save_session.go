package nodes

import (
	"context"
	"fmt"

	statex "github.com/planvoy/retreat-planner/agent/state"
)

// SaveSession validates and persists the session after the flow ran.
func SaveSession(ctx context.Context, state *FlowState, store statex.Store) (*FlowState, error) {
	if err := state.Session.Validate(); err != nil {
		return nil, fmt.Errorf("session invalid after flow: %w", err)
	}
	if err := store.Save(ctx, state.Session); err != nil {
		return nil, fmt.Errorf("save session %s: %w", state.SessionID, err)
	}
	return state, nil
}

// FinalizeFlow produces the graph output.
func FinalizeFlow(state *FlowState) (FlowOutput, error) {
	return FlowOutput{Session: state.Session}, nil
}
