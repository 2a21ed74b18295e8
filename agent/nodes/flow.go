// Package nodes holds the lambda nodes of the planner's full-flow graph:
// validate -> session -> requirements -> discovery -> ranking -> save.
package nodes

import (
	"errors"
	"strings"
	"time"

	statex "github.com/planvoy/retreat-planner/agent/state"
)

var (
	ErrInvalidRequest = errors.New("planning request is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

type FlowInput struct {
	SessionID string
	Text      string
}

type FlowOutput struct {
	Session *statex.SessionState
}

// FlowState is the value threaded through the graph nodes.
type FlowState struct {
	SessionID string
	Text      string
	Now       time.Time

	Session *statex.SessionState
}

func ValidateFlowRequest(in FlowInput, nowFn func() time.Time) (*FlowState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidRequest
	}
	return &FlowState{
		SessionID: sessionID,
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}
