package nodes

import (
	"context"
	"errors"
	"fmt"

	statex "github.com/planvoy/retreat-planner/agent/state"
)

// LoadOrCreateSession resumes an existing session or starts a fresh one
// under the requested id.
func LoadOrCreateSession(ctx context.Context, state *FlowState, store statex.Store) (*FlowState, error) {
	session, err := store.Load(ctx, state.SessionID)
	switch {
	case err == nil:
		session.UserInput = state.Text
		session.Touch(state.Now)
	case errors.Is(err, statex.ErrStateNotFound):
		session = statex.NewSessionState(state.SessionID, state.Text, state.Now)
	default:
		return nil, fmt.Errorf("load session %s: %w", state.SessionID, err)
	}

	state.Session = session
	return state, nil
}
