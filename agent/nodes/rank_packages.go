package nodes

import (
	"context"
	"fmt"

	"github.com/planvoy/retreat-planner/agent/ranking"
	statex "github.com/planvoy/retreat-planner/agent/state"
)

// RankPackages scores and ranks packages from the discovered items using
// default weights. Re-ranking with overrides goes through the planner's
// AdjustWeights path, not this node.
func RankPackages(_ context.Context, state *FlowState) (*FlowState, error) {
	ranked, err := ranking.Rank(state.Session.DiscoveredItems, *state.Session.Requirements, nil)
	if err != nil {
		return nil, fmt.Errorf("ranking stage: %w", err)
	}

	state.Session.RankedPackages = ranked
	state.Session.WeightsUsed = nil
	state.Session.Advance(statex.StageRanking, state.Now)
	return state, nil
}
