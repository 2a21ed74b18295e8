// Package planner orchestrates the retreat pipeline: requirements ->
// discovery -> ranking -> cart -> checkout, with per-session state.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/planvoy/retreat-planner/agent/cart"
	contractx "github.com/planvoy/retreat-planner/agent/contract"
	nodex "github.com/planvoy/retreat-planner/agent/nodes"
	"github.com/planvoy/retreat-planner/agent/ranking"
	statex "github.com/planvoy/retreat-planner/agent/state"
)

// Planner drives the pipeline. Stage outputs live on the session; stage
// ordering is enforced here with ErrStageNotReady.
type Planner struct {
	store      statex.Store
	analyst    contractx.RequirementsAnalyst
	discoverer contractx.Discoverer
	gateway    contractx.CheckoutGateway
	builder    *cart.Builder

	flowRunner compose.Runnable[nodex.FlowInput, nodex.FlowOutput]

	now func() time.Time
}

// Option customizes a Planner.
type Option func(*Planner)

// WithCartBuilder overrides the default cart builder.
func WithCartBuilder(b *cart.Builder) Option {
	return func(p *Planner) {
		if b != nil {
			p.builder = b
		}
	}
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		p.now = now
	}
}

func New(
	store statex.Store,
	analyst contractx.RequirementsAnalyst,
	discoverer contractx.Discoverer,
	gateway contractx.CheckoutGateway,
	opts ...Option,
) (*Planner, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if analyst == nil {
		return nil, errors.New("requirements analyst is required")
	}
	if discoverer == nil {
		return nil, errors.New("discoverer is required")
	}
	if gateway == nil {
		return nil, errors.New("checkout gateway is required")
	}

	p := &Planner{
		store:      store,
		analyst:    analyst,
		discoverer: discoverer,
		gateway:    gateway,
		builder:    cart.New(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	flowRunner, err := p.compilePlanFlowGraph(context.Background())
	if err != nil {
		return nil, err
	}
	p.flowRunner = flowRunner

	return p, nil
}

// NewSessionID mints a session identifier.
func NewSessionID() string {
	return "sess_" + uuid.NewString()
}

/* ------------------------------- full flow -------------------------------- */

// PlanRetreat runs requirements, discovery, and ranking in one pass and
// leaves the session ready for cart building.
func (p *Planner) PlanRetreat(ctx context.Context, sessionID, text string) (*statex.SessionState, error) {
	out, err := p.flowRunner.Invoke(ctx, nodex.FlowInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		return nil, err
	}
	return out.Session, nil
}

/* ---------------------------- stage operations ---------------------------- */

// AnalyzeRequirements starts a session from a natural-language request and
// runs only the requirements stage.
func (p *Planner) AnalyzeRequirements(ctx context.Context, sessionID, text string) (*statex.SessionState, error) {
	session, err := p.loadOrCreate(ctx, sessionID, text)
	if err != nil {
		return nil, err
	}

	req, err := p.analyst.Analyze(ctx, text)
	if err != nil {
		return nil, err
	}
	session.Requirements = &req
	session.Advance(statex.StageRequirements, p.now())

	if err := p.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// DiscoverOptions runs discovery for a session that has requirements.
func (p *Planner) DiscoverOptions(ctx context.Context, sessionID string) (*statex.SessionState, error) {
	session, err := p.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Reached(statex.StageRequirements) {
		return nil, fmt.Errorf("%w: requirements have not been analyzed", contractx.ErrStageNotReady)
	}

	items, err := p.discoverer.Discover(ctx, *session.Requirements)
	if err != nil {
		return nil, err
	}
	session.DiscoveredItems = items
	session.Advance(statex.StageDiscovery, p.now())

	if err := p.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// RankPackages ranks the discovered items, optionally under caller weight
// overrides. Re-running with different weights re-ranks the same items.
func (p *Planner) RankPackages(ctx context.Context, sessionID string, overrides *contractx.WeightOverrides) (*statex.SessionState, error) {
	session, err := p.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Reached(statex.StageDiscovery) {
		return nil, fmt.Errorf("%w: discovery has not run", contractx.ErrStageNotReady)
	}

	ranked, err := ranking.Rank(session.DiscoveredItems, *session.Requirements, overrides)
	if err != nil {
		return nil, err
	}
	session.RankedPackages = ranked
	session.WeightsUsed = overrides
	session.Advance(statex.StageRanking, p.now())

	if err := p.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// BuildCart materializes one ranked package into the session cart.
func (p *Planner) BuildCart(ctx context.Context, sessionID, packageID string) (*statex.SessionState, error) {
	session, err := p.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Reached(statex.StageRanking) {
		return nil, fmt.Errorf("%w: packages have not been ranked", contractx.ErrStageNotReady)
	}

	pkg, ok := session.FindPackage(packageID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", contractx.ErrPackageNotFound, packageID)
	}

	built, err := p.builder.Build(pkg, *session.Requirements)
	if err != nil {
		return nil, err
	}
	session.Cart = &built
	session.Advance(statex.StageCart, p.now())

	if err := p.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// ModifyCart applies one cart mutation. Swap and remove work in place;
// adjust_weights and optimize re-rank the original discovered items and
// rebuild the cart from the new top package.
func (p *Planner) ModifyCart(ctx context.Context, sessionID string, mod contractx.Modification) (*statex.SessionState, error) {
	session, err := p.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Reached(statex.StageCart) || session.Cart == nil {
		return nil, fmt.Errorf("%w: cart has not been built", contractx.ErrStageNotReady)
	}

	switch mod.Action {
	case contractx.ActionSwap:
		if mod.NewItem == nil {
			return nil, fmt.Errorf("%w: new_item is required for swap", contractx.ErrValidation)
		}
		if err := p.builder.Swap(session.Cart, mod.ItemID, *mod.NewItem); err != nil {
			return nil, err
		}
	case contractx.ActionRemove:
		if err := p.builder.Remove(session.Cart, mod.ItemID); err != nil {
			return nil, err
		}
	case contractx.ActionAdjustWeights:
		if mod.Weights == nil {
			return nil, fmt.Errorf("%w: weights are required for adjust_weights", contractx.ErrValidation)
		}
		if err := p.rerankAndRebuild(session, mod.Weights); err != nil {
			return nil, err
		}
	case contractx.ActionOptimize:
		preset, err := optimizePreset(mod.Optimize)
		if err != nil {
			return nil, err
		}
		if err := p.rerankAndRebuild(session, preset); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown cart action %q", contractx.ErrValidation, mod.Action)
	}

	session.Touch(p.now())
	if err := p.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Checkout settles the cart and closes the session on success.
func (p *Planner) Checkout(ctx context.Context, sessionID string, req contractx.CheckoutRequest) (contractx.BookingConfirmation, error) {
	session, err := p.load(ctx, sessionID)
	if err != nil {
		return contractx.BookingConfirmation{}, err
	}
	if !session.Reached(statex.StageCart) || session.Cart == nil {
		return contractx.BookingConfirmation{}, fmt.Errorf("%w: cart has not been built", contractx.ErrStageNotReady)
	}

	confirmation, err := p.gateway.Checkout(ctx, *session.Cart, req)
	if err != nil {
		return contractx.BookingConfirmation{}, err
	}

	if err := p.store.Delete(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to delete session after checkout")
	}
	return confirmation, nil
}

/* -------------------------------- helpers --------------------------------- */

func (p *Planner) load(ctx context.Context, sessionID string) (*statex.SessionState, error) {
	session, err := p.store.Load(ctx, sessionID)
	if errors.Is(err, statex.ErrStateNotFound) {
		return nil, fmt.Errorf("%w: %s", contractx.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return session, nil
}

func (p *Planner) loadOrCreate(ctx context.Context, sessionID, text string) (*statex.SessionState, error) {
	session, err := p.store.Load(ctx, sessionID)
	switch {
	case err == nil:
		session.UserInput = text
		session.Touch(p.now())
		return session, nil
	case errors.Is(err, statex.ErrStateNotFound):
		return statex.NewSessionState(sessionID, text, p.now()), nil
	default:
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
}

// rerankAndRebuild re-ranks the session's discovered items under the given
// overrides and rebuilds the cart from the new top package.
func (p *Planner) rerankAndRebuild(session *statex.SessionState, overrides *contractx.WeightOverrides) error {
	ranked, err := ranking.Rank(session.DiscoveredItems, *session.Requirements, overrides)
	if err != nil {
		return err
	}
	session.RankedPackages = ranked
	session.WeightsUsed = overrides

	top, ok := session.TopPackage()
	if !ok {
		return fmt.Errorf("%w: re-ranking produced no packages", contractx.ErrPackageNotFound)
	}
	rebuilt, err := p.builder.Build(top, *session.Requirements)
	if err != nil {
		return err
	}
	session.Cart = &rebuilt
	return nil
}

// optimizePreset maps an optimization goal onto weight overrides. Cost
// boosts price components, quality boosts trust; balanced restores the
// defaults. Anything else is rejected.
func optimizePreset(goal contractx.OptimizeGoal) (*contractx.WeightOverrides, error) {
	switch goal {
	case contractx.GoalCost:
		return &contractx.WeightOverrides{
			Components: map[contractx.Category]map[string]int{
				contractx.CategoryFlights:      {"price": 70, "timing": 10, "trust": 10, "comfort": 10},
				contractx.CategoryHotels:       {"price": 60, "trust": 20, "location": 10, "amenities": 10},
				contractx.CategoryMeetingRooms: {"price": 60, "capacity": 20, "equipment": 10, "trust": 10},
				contractx.CategoryCatering:     {"price": 60, "trust": 20, "dietary": 10, "service": 10},
			},
		}, nil
	case contractx.GoalQuality:
		return &contractx.WeightOverrides{
			Components: map[contractx.Category]map[string]int{
				contractx.CategoryFlights:      {"price": 10, "timing": 20, "trust": 50, "comfort": 20},
				contractx.CategoryHotels:       {"price": 10, "trust": 60, "location": 20, "amenities": 10},
				contractx.CategoryMeetingRooms: {"price": 10, "capacity": 30, "equipment": 20, "trust": 40},
				contractx.CategoryCatering:     {"price": 10, "trust": 50, "dietary": 25, "service": 15},
			},
		}, nil
	case contractx.GoalBalanced:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: unknown optimization goal %q", contractx.ErrValidation, goal)
}
