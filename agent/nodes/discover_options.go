package nodes

import (
	"context"
	"fmt"

	contractx "github.com/planvoy/retreat-planner/agent/contract"
	statex "github.com/planvoy/retreat-planner/agent/state"
)

// DiscoverOptions runs the discovery stage against the session's
// requirements.
func DiscoverOptions(ctx context.Context, state *FlowState, discoverer contractx.Discoverer) (*FlowState, error) {
	items, err := discoverer.Discover(ctx, *state.Session.Requirements)
	if err != nil {
		return nil, fmt.Errorf("discovery stage: %w", err)
	}

	state.Session.DiscoveredItems = items
	state.Session.Advance(statex.StageDiscovery, state.Now)
	return state, nil
}
