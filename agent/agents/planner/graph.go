package planner

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/planvoy/retreat-planner/agent/nodes"
)

func (p *Planner) compilePlanFlowGraph(
	ctx context.Context,
) (compose.Runnable[nodex.FlowInput, nodex.FlowOutput], error) {
	graph := compose.NewGraph[nodex.FlowInput, nodex.FlowOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.FlowInput) (*nodex.FlowState, error) {
			return nodex.ValidateFlowRequest(in, p.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_or_create_session",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.FlowState) (*nodex.FlowState, error) {
			return nodex.LoadOrCreateSession(ctx, in, p.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_or_create_session: %w", err)
	}

	if err := graph.AddLambdaNode("analyze_requirements",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.FlowState) (*nodex.FlowState, error) {
			return nodex.AnalyzeRequirements(ctx, in, p.analyst)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node analyze_requirements: %w", err)
	}

	if err := graph.AddLambdaNode("discover_options",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.FlowState) (*nodex.FlowState, error) {
			return nodex.DiscoverOptions(ctx, in, p.discoverer)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node discover_options: %w", err)
	}

	if err := graph.AddLambdaNode("rank_packages",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.FlowState) (*nodex.FlowState, error) {
			return nodex.RankPackages(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node rank_packages: %w", err)
	}

	if err := graph.AddLambdaNode("save_session",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.FlowState) (*nodex.FlowState, error) {
			return nodex.SaveSession(ctx, in, p.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_session: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_flow",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.FlowState) (nodex.FlowOutput, error) {
			return nodex.FinalizeFlow(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_flow: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_or_create_session"},
		{"load_or_create_session", "analyze_requirements"},
		{"analyze_requirements", "discover_options"},
		{"discover_options", "rank_packages"},
		{"rank_packages", "save_session"},
		{"save_session", "finalize_flow"},
		{"finalize_flow", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("planner.plan_retreat"))
	if err != nil {
		return nil, fmt.Errorf("compile planner graph: %w", err)
	}
	return runner, nil
}
