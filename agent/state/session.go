package state

import (
	"fmt"
	"time"

	contractx "github.com/planvoy/retreat-planner/agent/contract"
)

// Stage names the furthest pipeline step a session has completed.
type Stage string

const (
	StageCreated      Stage = "created"
	StageRequirements Stage = "requirements"
	StageDiscovery    Stage = "discovery"
	StageRanking      Stage = "ranking"
	StageCart         Stage = "cart"
	StageBooked       Stage = "booked"
)

// SessionState is the persistent source of truth for one planning session.
// Each stage writes its output here and the next stage reads it; stage
// ordering is enforced by the planner, not by this struct.
type SessionState struct {
	SessionID string `json:"session_id"`
	UserInput string `json:"user_input,omitempty"`
	Stage     Stage  `json:"stage"`

	Requirements    *contractx.Requirements    `json:"requirements,omitempty"`
	DiscoveredItems []contractx.DiscoveredItem `json:"discovered_items,omitempty"`
	RankedPackages  []contractx.ScoredPackage  `json:"ranked_packages,omitempty"`
	WeightsUsed     *contractx.WeightOverrides `json:"weights_used,omitempty"`
	Cart            *contractx.Cart            `json:"cart,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSessionState(sessionID, userInput string, now time.Time) *SessionState {
	return &SessionState{
		SessionID: sessionID,
		UserInput: userInput,
		Stage:     StageCreated,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Advance moves the session to a later stage. Moving backwards is a no-op;
// re-running an earlier stage never regresses the recorded progress.
func (s *SessionState) Advance(stage Stage, now time.Time) {
	if stageOrder(stage) > stageOrder(s.Stage) {
		s.Stage = stage
	}
	s.Touch(now)
}

// Reached reports whether the session has completed the given stage.
func (s *SessionState) Reached(stage Stage) bool {
	return s != nil && stageOrder(s.Stage) >= stageOrder(stage)
}

func stageOrder(stage Stage) int {
	switch stage {
	case StageCreated:
		return 0
	case StageRequirements:
		return 1
	case StageDiscovery:
		return 2
	case StageRanking:
		return 3
	case StageCart:
		return 4
	case StageBooked:
		return 5
	}
	return -1
}

// FindPackage looks up a ranked package by id.
func (s *SessionState) FindPackage(packageID string) (contractx.ScoredPackage, bool) {
	if s == nil {
		return contractx.ScoredPackage{}, false
	}
	for _, pkg := range s.RankedPackages {
		if pkg.PackageID == packageID {
			return pkg, true
		}
	}
	return contractx.ScoredPackage{}, false
}

// TopPackage returns the rank-1 package.
func (s *SessionState) TopPackage() (contractx.ScoredPackage, bool) {
	if s == nil || len(s.RankedPackages) == 0 {
		return contractx.ScoredPackage{}, false
	}
	return s.RankedPackages[0], true
}

// Validate checks cross-field coherence before the state is persisted or
// acted on.
func (s *SessionState) Validate() error {
	if s.SessionID == "" {
		return ErrInvalidSession
	}
	if stageOrder(s.Stage) < 0 {
		return fmt.Errorf("unknown stage %q", s.Stage)
	}
	if s.Reached(StageRequirements) && s.Requirements == nil {
		return fmt.Errorf("stage %s requires requirements to be set", s.Stage)
	}
	if s.Reached(StageRanking) && len(s.RankedPackages) == 0 {
		return fmt.Errorf("stage %s requires ranked packages", s.Stage)
	}
	if s.Reached(StageCart) && s.Cart == nil {
		return fmt.Errorf("stage %s requires a cart", s.Stage)
	}
	return nil
}
