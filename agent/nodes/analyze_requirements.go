package nodes

import (
	"context"
	"fmt"

	contractx "github.com/planvoy/retreat-planner/agent/contract"
	statex "github.com/planvoy/retreat-planner/agent/state"
)

// AnalyzeRequirements runs the requirements stage and records the result on
// the session.
func AnalyzeRequirements(ctx context.Context, state *FlowState, analyst contractx.RequirementsAnalyst) (*FlowState, error) {
	req, err := analyst.Analyze(ctx, state.Text)
	if err != nil {
		return nil, fmt.Errorf("requirements stage: %w", err)
	}

	state.Session.Requirements = &req
	state.Session.Advance(statex.StageRequirements, state.Now)
	return state, nil
}
