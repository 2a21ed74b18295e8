package planner

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	contractx "github.com/planvoy/retreat-planner/agent/contract"
	nodex "github.com/planvoy/retreat-planner/agent/nodes"
	statex "github.com/planvoy/retreat-planner/agent/state"
)

type fakeStore struct {
	states  map[string]*statex.SessionState
	saveErr error
	saves   int
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: map[string]*statex.SessionState{}}
}

func (f *fakeStore) Load(ctx context.Context, sessionID string) (*statex.SessionState, error) {
	st, ok := f.states[sessionID]
	if !ok {
		return nil, statex.ErrStateNotFound
	}
	return cloneSessionState(st), nil
}

func (f *fakeStore) Save(ctx context.Context, st *statex.SessionState) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.states[st.SessionID] = cloneSessionState(st)
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, sessionID string) error {
	delete(f.states, sessionID)
	f.deleted = append(f.deleted, sessionID)
	return nil
}

type fakeAnalyst struct {
	req   contractx.Requirements
	err   error
	calls int
}

func (f *fakeAnalyst) Analyze(ctx context.Context, input string) (contractx.Requirements, error) {
	f.calls++
	if f.err != nil {
		return contractx.Requirements{}, f.err
	}
	return f.req, nil
}

type fakeDiscoverer struct {
	items []contractx.DiscoveredItem
	err   error
	calls int
}

func (f *fakeDiscoverer) Discover(ctx context.Context, req contractx.Requirements) ([]contractx.DiscoveredItem, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]contractx.DiscoveredItem(nil), f.items...), nil
}

type fakeGateway struct {
	confirmation contractx.BookingConfirmation
	err          error
	calls        int
	lastCart     contractx.Cart
}

func (f *fakeGateway) Checkout(ctx context.Context, c contractx.Cart, req contractx.CheckoutRequest) (contractx.BookingConfirmation, error) {
	f.calls++
	f.lastCart = c
	if f.err != nil {
		return contractx.BookingConfirmation{}, f.err
	}
	return f.confirmation, nil
}

func testRequirements() contractx.Requirements {
	return contractx.Requirements{
		Attendees: 20,
		Budget:    100000,
		Duration:  "3 days",
		Location:  "Austin",
	}
}

// Two hotels with opposite price/trust profiles so weight presets flip the
// top package; the other categories have one candidate each.
func testCatalog() []contractx.DiscoveredItem {
	return []contractx.DiscoveredItem{
		{
			ItemID:       "f1",
			Category:     contractx.CategoryFlights,
			Vendor:       "United",
			Title:        "SFO to AUS group fare",
			Price:        450,
			Availability: true,
			TrustScore:   contractx.TrustScore{Rating: 4.5},
		},
		{
			ItemID:       "h1",
			Category:     contractx.CategoryHotels,
			Vendor:       "Budget Inn",
			Title:        "Budget Inn downtown block",
			Price:        3000,
			Availability: true,
			TrustScore:   contractx.TrustScore{Rating: 3.0},
		},
		{
			ItemID:       "h2",
			Category:     contractx.CategoryHotels,
			Vendor:       "Fairmont",
			Title:        "Fairmont executive block",
			Price:        30000,
			Availability: true,
			TrustScore:   contractx.TrustScore{Rating: 5.0},
		},
		{
			ItemID:       "m1",
			Category:     contractx.CategoryMeetingRooms,
			Vendor:       "Convene",
			Title:        "Convene boardroom",
			Price:        800,
			Availability: true,
			TrustScore:   contractx.TrustScore{Rating: 4.0},
			Metadata: contractx.Metadata{
				MeetingRoom: &contractx.MeetingRoomMetadata{Capacity: 30},
			},
		},
		{
			ItemID:       "c1",
			Category:     contractx.CategoryCatering,
			Vendor:       "ezCater",
			Title:        "Full-day catering per person",
			Price:        45,
			Availability: true,
			TrustScore:   contractx.TrustScore{Rating: 4.2},
			Metadata: contractx.Metadata{
				Catering: &contractx.CateringMetadata{DietaryOptions: []string{"vegetarian"}},
			},
		},
	}
}

func newTestPlanner(t *testing.T, store statex.Store, analyst *fakeAnalyst, discoverer *fakeDiscoverer, gateway *fakeGateway) *Planner {
	t.Helper()
	p, err := New(store, analyst, discoverer, gateway,
		WithClock(func() time.Time {
			return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestPlanRetreatFullFlow(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	analyst := &fakeAnalyst{req: testRequirements()}
	discoverer := &fakeDiscoverer{items: testCatalog()}
	p := newTestPlanner(t, store, analyst, discoverer, &fakeGateway{})

	session, err := p.PlanRetreat(context.Background(), "session-1", "20 people, 3 days in Austin, $100k")
	if err != nil {
		t.Fatalf("PlanRetreat() error = %v", err)
	}
	if session.Stage != statex.StageRanking {
		t.Fatalf("expected stage %s, got %s", statex.StageRanking, session.Stage)
	}
	if analyst.calls != 1 || discoverer.calls != 1 {
		t.Fatalf("expected one analyst and one discoverer call, got %d and %d", analyst.calls, discoverer.calls)
	}
	if len(session.RankedPackages) != 2 {
		t.Fatalf("expected 2 packages (1x2x1x1), got %d", len(session.RankedPackages))
	}
	for i, pkg := range session.RankedPackages {
		if pkg.Rank != i+1 {
			t.Fatalf("package %d has rank %d", i, pkg.Rank)
		}
	}
	if store.saves != 1 {
		t.Fatalf("expected one save, got %d", store.saves)
	}
	if _, err := store.Load(context.Background(), "session-1"); err != nil {
		t.Fatalf("session not persisted: %v", err)
	}

	// Default weights favor the trusted hotel over the cheap one.
	top, _ := session.TopPackage()
	if got := top.Items[contractx.CategoryHotels].ItemID; got != "h2" {
		t.Fatalf("expected h2 in top package under default weights, got %s", got)
	}
}

func TestPlanRetreatInvalidInput(t *testing.T) {
	t.Parallel()

	p := newTestPlanner(t, newFakeStore(), &fakeAnalyst{req: testRequirements()}, &fakeDiscoverer{}, &fakeGateway{})

	if _, err := p.PlanRetreat(context.Background(), "   ", "plan a retreat"); !errors.Is(err, nodex.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if _, err := p.PlanRetreat(context.Background(), "session-2", "   "); !errors.Is(err, nodex.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestStageOrderEnforced(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	req := testRequirements()

	created := statex.NewSessionState("s-created", "hi", now)
	store.states["s-created"] = created

	withReq := statex.NewSessionState("s-req", "hi", now)
	withReq.Requirements = &req
	withReq.Advance(statex.StageRequirements, now)
	store.states["s-req"] = withReq

	withItems := statex.NewSessionState("s-disc", "hi", now)
	withItems.Requirements = &req
	withItems.DiscoveredItems = testCatalog()
	withItems.Advance(statex.StageDiscovery, now)
	store.states["s-disc"] = withItems

	p := newTestPlanner(t, store, &fakeAnalyst{req: req}, &fakeDiscoverer{items: testCatalog()}, &fakeGateway{})
	ctx := context.Background()

	if _, err := p.DiscoverOptions(ctx, "s-created"); !errors.Is(err, contractx.ErrStageNotReady) {
		t.Fatalf("DiscoverOptions before requirements: expected ErrStageNotReady, got %v", err)
	}
	if _, err := p.RankPackages(ctx, "s-req", nil); !errors.Is(err, contractx.ErrStageNotReady) {
		t.Fatalf("RankPackages before discovery: expected ErrStageNotReady, got %v", err)
	}
	if _, err := p.BuildCart(ctx, "s-disc", "pkg_x"); !errors.Is(err, contractx.ErrStageNotReady) {
		t.Fatalf("BuildCart before ranking: expected ErrStageNotReady, got %v", err)
	}
	if _, err := p.ModifyCart(ctx, "s-disc", contractx.Modification{Action: contractx.ActionRemove, ItemID: "c1"}); !errors.Is(err, contractx.ErrStageNotReady) {
		t.Fatalf("ModifyCart before cart: expected ErrStageNotReady, got %v", err)
	}
	if _, err := p.Checkout(ctx, "s-disc", contractx.CheckoutRequest{}); !errors.Is(err, contractx.ErrStageNotReady) {
		t.Fatalf("Checkout before cart: expected ErrStageNotReady, got %v", err)
	}
	if _, err := p.DiscoverOptions(ctx, "no-such-session"); !errors.Is(err, contractx.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

// rankedSession drives a session through requirements, discovery and ranking
// using the planner's own stage operations.
func rankedSession(t *testing.T, p *Planner, sessionID string) *statex.SessionState {
	t.Helper()
	ctx := context.Background()
	if _, err := p.AnalyzeRequirements(ctx, sessionID, "20 people, 3 days in Austin"); err != nil {
		t.Fatalf("AnalyzeRequirements() error = %v", err)
	}
	if _, err := p.DiscoverOptions(ctx, sessionID); err != nil {
		t.Fatalf("DiscoverOptions() error = %v", err)
	}
	session, err := p.RankPackages(ctx, sessionID, nil)
	if err != nil {
		t.Fatalf("RankPackages() error = %v", err)
	}
	return session
}

func packageWithHotel(t *testing.T, session *statex.SessionState, hotelID string) contractx.ScoredPackage {
	t.Helper()
	for _, pkg := range session.RankedPackages {
		if pkg.Items[contractx.CategoryHotels].ItemID == hotelID {
			return pkg
		}
	}
	t.Fatalf("no package with hotel %s", hotelID)
	return contractx.ScoredPackage{}
}

func TestBuildCartTotals(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	p := newTestPlanner(t, store, &fakeAnalyst{req: testRequirements()}, &fakeDiscoverer{items: testCatalog()}, &fakeGateway{})
	session := rankedSession(t, p, "session-cart")

	pkg := packageWithHotel(t, session, "h1")
	session, err := p.BuildCart(context.Background(), "session-cart", pkg.PackageID)
	if err != nil {
		t.Fatalf("BuildCart() error = %v", err)
	}
	if session.Stage != statex.StageCart {
		t.Fatalf("expected stage %s, got %s", statex.StageCart, session.Stage)
	}

	c := session.Cart
	if c == nil {
		t.Fatal("cart not set on session")
	}
	// 450*20 + 3000*30 + 800*3 + 45*60
	if c.Subtotal != 104100 {
		t.Fatalf("subtotal = %v, want 104100", c.Subtotal)
	}
	if c.Taxes != 9108.75 {
		t.Fatalf("taxes = %v, want 9108.75", c.Taxes)
	}
	if c.Fees != 2602.5 {
		t.Fatalf("fees = %v, want 2602.5", c.Fees)
	}
	if c.Total != 115811.25 {
		t.Fatalf("total = %v, want 115811.25", c.Total)
	}
	if qty := c.Items[contractx.CategoryHotels].Quantity; qty != 30 {
		t.Fatalf("hotel quantity = %d, want 30 (10 rooms x 3 nights)", qty)
	}
}

func TestBuildCartUnknownPackage(t *testing.T) {
	t.Parallel()

	p := newTestPlanner(t, newFakeStore(), &fakeAnalyst{req: testRequirements()}, &fakeDiscoverer{items: testCatalog()}, &fakeGateway{})
	rankedSession(t, p, "session-missing-pkg")

	_, err := p.BuildCart(context.Background(), "session-missing-pkg", "pkg_nope")
	if !errors.Is(err, contractx.ErrPackageNotFound) {
		t.Fatalf("expected ErrPackageNotFound, got %v", err)
	}
}

func TestModifyCartSwapAndRemove(t *testing.T) {
	t.Parallel()

	p := newTestPlanner(t, newFakeStore(), &fakeAnalyst{req: testRequirements()}, &fakeDiscoverer{items: testCatalog()}, &fakeGateway{})
	session := rankedSession(t, p, "session-mod")
	pkg := packageWithHotel(t, session, "h1")
	if _, err := p.BuildCart(context.Background(), "session-mod", pkg.PackageID); err != nil {
		t.Fatalf("BuildCart() error = %v", err)
	}
	ctx := context.Background()

	replacement := contractx.DiscoveredItem{
		ItemID:       "f2",
		Category:     contractx.CategoryFlights,
		Vendor:       "Delta",
		Title:        "SFO to AUS nonstop",
		Price:        500,
		Availability: true,
		TrustScore:   contractx.TrustScore{Rating: 4.8},
	}

	// Swapping an id that is not in the cart must fail strictly and leave
	// the totals untouched.
	_, err := p.ModifyCart(ctx, "session-mod", contractx.Modification{
		Action:  contractx.ActionSwap,
		ItemID:  "ghost",
		NewItem: &replacement,
	})
	if !errors.Is(err, contractx.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}

	session, err = p.ModifyCart(ctx, "session-mod", contractx.Modification{
		Action:  contractx.ActionSwap,
		ItemID:  "f1",
		NewItem: &replacement,
	})
	if err != nil {
		t.Fatalf("swap error = %v", err)
	}
	line := session.Cart.Items[contractx.CategoryFlights]
	if line.Item.ItemID != "f2" {
		t.Fatalf("flight line = %s, want f2", line.Item.ItemID)
	}
	if line.Quantity != 20 {
		t.Fatalf("swap changed quantity: %d", line.Quantity)
	}
	// 104100 - 9000 + 10000
	if session.Cart.Subtotal != 105100 {
		t.Fatalf("subtotal after swap = %v, want 105100", session.Cart.Subtotal)
	}

	session, err = p.ModifyCart(ctx, "session-mod", contractx.Modification{
		Action: contractx.ActionRemove,
		ItemID: "c1",
	})
	if err != nil {
		t.Fatalf("remove error = %v", err)
	}
	if _, ok := session.Cart.Items[contractx.CategoryCatering]; ok {
		t.Fatal("catering line still present after remove")
	}
	if session.Cart.Subtotal != 102400 {
		t.Fatalf("subtotal after remove = %v, want 102400", session.Cart.Subtotal)
	}

	_, err = p.ModifyCart(ctx, "session-mod", contractx.Modification{
		Action: contractx.ActionRemove,
		ItemID: "c1",
	})
	if !errors.Is(err, contractx.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound on double remove, got %v", err)
	}
}

func TestModifyCartAdjustWeights(t *testing.T) {
	t.Parallel()

	p := newTestPlanner(t, newFakeStore(), &fakeAnalyst{req: testRequirements()}, &fakeDiscoverer{items: testCatalog()}, &fakeGateway{})
	session := rankedSession(t, p, "session-weights")
	top, _ := session.TopPackage()
	if _, err := p.BuildCart(context.Background(), "session-weights", top.PackageID); err != nil {
		t.Fatalf("BuildCart() error = %v", err)
	}
	ctx := context.Background()

	_, err := p.ModifyCart(ctx, "session-weights", contractx.Modification{Action: contractx.ActionAdjustWeights})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation without weights, got %v", err)
	}

	priceOnly := &contractx.WeightOverrides{
		Components: map[contractx.Category]map[string]int{
			contractx.CategoryHotels: {"price": 100, "trust": 0, "location": 0, "amenities": 0},
		},
	}
	session, err = p.ModifyCart(ctx, "session-weights", contractx.Modification{
		Action:  contractx.ActionAdjustWeights,
		Weights: priceOnly,
	})
	if err != nil {
		t.Fatalf("adjust_weights error = %v", err)
	}
	if got := session.Cart.Items[contractx.CategoryHotels].Item.ItemID; got != "h1" {
		t.Fatalf("price-only hotel weights should pick h1, got %s", got)
	}
	if session.WeightsUsed == nil {
		t.Fatal("weights used not recorded on session")
	}
	top, _ = session.TopPackage()
	if top.Items[contractx.CategoryHotels].ItemID != "h1" {
		t.Fatalf("re-ranked top package should hold h1, got %s", top.Items[contractx.CategoryHotels].ItemID)
	}
}

func TestModifyCartOptimizePresets(t *testing.T) {
	t.Parallel()

	p := newTestPlanner(t, newFakeStore(), &fakeAnalyst{req: testRequirements()}, &fakeDiscoverer{items: testCatalog()}, &fakeGateway{})
	session := rankedSession(t, p, "session-opt")
	top, _ := session.TopPackage()
	if _, err := p.BuildCart(context.Background(), "session-opt", top.PackageID); err != nil {
		t.Fatalf("BuildCart() error = %v", err)
	}
	ctx := context.Background()

	session, err := p.ModifyCart(ctx, "session-opt", contractx.Modification{
		Action:   contractx.ActionOptimize,
		Optimize: contractx.GoalCost,
	})
	if err != nil {
		t.Fatalf("optimize cost error = %v", err)
	}
	if got := session.Cart.Items[contractx.CategoryHotels].Item.ItemID; got != "h1" {
		t.Fatalf("cost optimization should pick the cheap hotel, got %s", got)
	}

	session, err = p.ModifyCart(ctx, "session-opt", contractx.Modification{
		Action:   contractx.ActionOptimize,
		Optimize: contractx.GoalQuality,
	})
	if err != nil {
		t.Fatalf("optimize quality error = %v", err)
	}
	if got := session.Cart.Items[contractx.CategoryHotels].Item.ItemID; got != "h2" {
		t.Fatalf("quality optimization should pick the trusted hotel, got %s", got)
	}

	session, err = p.ModifyCart(ctx, "session-opt", contractx.Modification{
		Action:   contractx.ActionOptimize,
		Optimize: contractx.GoalBalanced,
	})
	if err != nil {
		t.Fatalf("optimize balanced error = %v", err)
	}
	if session.WeightsUsed != nil {
		t.Fatal("balanced optimization should restore default weights")
	}
	if got := session.Cart.Items[contractx.CategoryHotels].Item.ItemID; got != "h2" {
		t.Fatalf("balanced optimization should match default ranking, got %s", got)
	}

	_, err = p.ModifyCart(ctx, "session-opt", contractx.Modification{
		Action:   contractx.ActionOptimize,
		Optimize: "speed",
	})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown goal, got %v", err)
	}
}

func TestCheckoutDeletesSession(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	gateway := &fakeGateway{
		confirmation: contractx.BookingConfirmation{
			MasterBookingID: "RTR-AB12CD34",
			Status:          "confirmed",
		},
	}
	p := newTestPlanner(t, store, &fakeAnalyst{req: testRequirements()}, &fakeDiscoverer{items: testCatalog()}, gateway)
	session := rankedSession(t, p, "session-checkout")
	top, _ := session.TopPackage()
	if _, err := p.BuildCart(context.Background(), "session-checkout", top.PackageID); err != nil {
		t.Fatalf("BuildCart() error = %v", err)
	}

	confirmation, err := p.Checkout(context.Background(), "session-checkout", contractx.CheckoutRequest{
		Contact:       contractx.Contact{Name: "Dana Lee", Email: "dana@example.com"},
		Payment:       contractx.Payment{Method: contractx.PaymentStripe},
		TermsAccepted: true,
	})
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	if confirmation.MasterBookingID != "RTR-AB12CD34" {
		t.Fatalf("unexpected booking id %s", confirmation.MasterBookingID)
	}
	if gateway.calls != 1 {
		t.Fatalf("expected one gateway call, got %d", gateway.calls)
	}
	if gateway.lastCart.Total <= 0 {
		t.Fatalf("gateway received empty cart: total=%v", gateway.lastCart.Total)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "session-checkout" {
		t.Fatalf("session not deleted after checkout: %v", store.deleted)
	}
	if _, err := p.DiscoverOptions(context.Background(), "session-checkout"); !errors.Is(err, contractx.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after checkout, got %v", err)
	}
}

func TestCheckoutFailureKeepsSession(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	gateway := &fakeGateway{err: contractx.ErrCheckout}
	p := newTestPlanner(t, store, &fakeAnalyst{req: testRequirements()}, &fakeDiscoverer{items: testCatalog()}, gateway)
	session := rankedSession(t, p, "session-fail")
	top, _ := session.TopPackage()
	if _, err := p.BuildCart(context.Background(), "session-fail", top.PackageID); err != nil {
		t.Fatalf("BuildCart() error = %v", err)
	}

	_, err := p.Checkout(context.Background(), "session-fail", contractx.CheckoutRequest{})
	if !errors.Is(err, contractx.ErrCheckout) {
		t.Fatalf("expected ErrCheckout, got %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("session must survive a failed checkout, deleted: %v", store.deleted)
	}
	if _, err := store.Load(context.Background(), "session-fail"); err != nil {
		t.Fatalf("session lost after failed checkout: %v", err)
	}
}

func cloneSessionState(in *statex.SessionState) *statex.SessionState {
	if in == nil {
		return nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		panic(err)
	}
	var out statex.SessionState
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}
