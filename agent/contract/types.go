package contract

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Category is the unit of package composition. Every retreat bundle carries
// exactly one item per category.
type Category string

const (
	CategoryFlights      Category = "flights"
	CategoryHotels       Category = "hotels"
	CategoryMeetingRooms Category = "meeting_rooms"
	CategoryCatering     Category = "catering"
)

// Categories returns the canonical category order used for package
// generation and display.
func Categories() []Category {
	return []Category{CategoryFlights, CategoryHotels, CategoryMeetingRooms, CategoryCatering}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFlights, CategoryHotels, CategoryMeetingRooms, CategoryCatering:
		return true
	}
	return false
}

/* ----------------------------- requirements ------------------------------ */

const (
	maxAttendees = 10000
	maxBudgetUSD = 10_000_000
)

// Requirements is the structured output of the requirements stage. It is
// produced once per session and consumed read-only by every downstream stage.
type Requirements struct {
	Attendees   int      `json:"attendees"`
	Budget      float64  `json:"budget"`
	Duration    string   `json:"duration"`
	Location    string   `json:"location"`
	Origin      string   `json:"origin,omitempty"`
	Deadline    string   `json:"deadline,omitempty"`
	MustHaves   []string `json:"must_haves,omitempty"`
	NiceToHaves []string `json:"nice_to_haves,omitempty"`
}

var durationPattern = regexp.MustCompile(`(?i)^\d+\s*(day|days|night|nights|week|weeks)$`)

// Validate rejects requirements before any downstream stage runs.
func (r Requirements) Validate() error {
	if r.Attendees <= 0 {
		return fmt.Errorf("%w: attendees must be positive", ErrValidation)
	}
	if r.Attendees > maxAttendees {
		return fmt.Errorf("%w: attendees cannot exceed %d", ErrValidation, maxAttendees)
	}
	if r.Budget <= 0 {
		return fmt.Errorf("%w: budget must be positive", ErrValidation)
	}
	if r.Budget > maxBudgetUSD {
		return fmt.Errorf("%w: budget cannot exceed $%d", ErrValidation, maxBudgetUSD)
	}
	if len(strings.TrimSpace(r.Location)) < 2 {
		return fmt.Errorf("%w: location must be at least 2 characters", ErrValidation)
	}
	if d := strings.TrimSpace(r.Duration); d != "" && !durationPattern.MatchString(d) {
		return fmt.Errorf("%w: duration must look like '2 days' or '3 nights'", ErrValidation)
	}
	return nil
}

/* ---------------------------- discovered items --------------------------- */

// TrustScore carries the vendor reputation signal reported by discovery.
// Rating is on a 0..5 scale; zero means unknown.
type TrustScore struct {
	Rating      float64 `json:"rating"`
	Source      string  `json:"source,omitempty"`
	ReviewCount int     `json:"review_count,omitempty"`
}

type FlightMetadata struct {
	Departure string `json:"departure,omitempty"`
	Arrival   string `json:"arrival,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Stops     int    `json:"stops"`
	Airline   string `json:"airline,omitempty"`
}

type HotelMetadata struct {
	StarRating int      `json:"star_rating,omitempty"`
	Amenities  []string `json:"amenities,omitempty"`
	Capacity   int      `json:"capacity,omitempty"`
}

type MeetingRoomMetadata struct {
	Capacity    int      `json:"capacity,omitempty"`
	Equipment   []string `json:"equipment,omitempty"`
	SetupStyles []string `json:"setup_styles,omitempty"`
}

type CateringMetadata struct {
	Cuisine        string   `json:"cuisine,omitempty"`
	DietaryOptions []string `json:"dietary_options,omitempty"`
	MealTypes      []string `json:"meal_types,omitempty"`
	ServiceStyle   string   `json:"service_style,omitempty"`
}

// Metadata holds at most one category-specific variant. The populated field
// must match the owning item's Category; scorers check the typed field
// instead of digging through untyped maps.
type Metadata struct {
	Flight      *FlightMetadata      `json:"flight,omitempty"`
	Hotel       *HotelMetadata       `json:"hotel,omitempty"`
	MeetingRoom *MeetingRoomMetadata `json:"meeting_room,omitempty"`
	Catering    *CateringMetadata    `json:"catering,omitempty"`
}

// DiscoveredItem is one vendor offering produced by the discovery stage.
// Scoring and ranking treat it as immutable input.
type DiscoveredItem struct {
	ItemID       string     `json:"item_id"`
	Category     Category   `json:"category"`
	Vendor       string     `json:"vendor"`
	Source       string     `json:"source,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Price        float64    `json:"price"`
	Currency     string     `json:"currency,omitempty"`
	Availability bool       `json:"availability"`
	Metadata     Metadata   `json:"metadata"`
	TrustScore   TrustScore `json:"trust_score"`
}

/* ------------------------------- packages -------------------------------- */

// Package maps each canonical category to exactly one candidate item,
// possibly a placeholder. Packages are ephemeral: generated fresh per
// ranking call and discarded, except the one promoted to a Cart.
type Package map[Category]DiscoveredItem

// ComponentScore is one weighted sub-criterion inside a category score.
type ComponentScore struct {
	Score  float64 `json:"score"`
	Weight int     `json:"weight"`
}

// Breakdown maps a component name (price, trust, ...) to its score and the
// weight that was applied.
type Breakdown map[string]ComponentScore

// BudgetAnalysis summarizes how a package's cost relates to the budget.
type BudgetAnalysis struct {
	TotalCost   float64 `json:"total_cost"`
	Budget      float64 `json:"budget"`
	PercentUsed float64 `json:"percentage_used"`
}

// Explanation is a derived view over category scores: it can always be
// rebuilt from CategoryScores and TotalCost and is never a source of truth.
type Explanation struct {
	WhyRanked          string                 `json:"why_ranked"`
	Strengths          []string               `json:"strengths,omitempty"`
	CategoryBreakdowns map[Category]Breakdown `json:"category_breakdowns,omitempty"`
	BudgetAnalysis     BudgetAnalysis         `json:"budget_analysis"`
	WeightsApplied     map[Category]int       `json:"weights_applied,omitempty"`
}

// ScoredPackage is one ranked retreat bundle. Rank is 1-based and assigned
// only after the full candidate list is sorted by FinalScore descending.
type ScoredPackage struct {
	PackageID      string               `json:"package_id"`
	Rank           int                  `json:"rank"`
	FinalScore     float64              `json:"final_score"`
	CategoryScores map[Category]float64 `json:"category_scores"`
	Items          Package              `json:"items"`
	TotalCost      float64              `json:"total_cost"`
	Explanation    Explanation          `json:"explanation"`
}

/* ----------------------------- weight overrides -------------------------- */

// WeightOverrides carries partial weight maps supplied by the caller. Any
// absent key keeps its built-in default.
type WeightOverrides struct {
	CategoryImportance map[Category]int            `json:"category_importance,omitempty"`
	Components         map[Category]map[string]int `json:"components,omitempty"`
}

// ComponentsFor returns the component overrides for one category, nil when
// none were supplied.
func (w *WeightOverrides) ComponentsFor(cat Category) map[string]int {
	if w == nil || w.Components == nil {
		return nil
	}
	return w.Components[cat]
}

/* --------------------------------- cart ---------------------------------- */

// CartItem is one priced line in a cart. Subtotal is always
// UnitPrice*Quantity rounded to cents.
type CartItem struct {
	Item      DiscoveredItem `json:"item"`
	Quantity  int            `json:"quantity"`
	UnitPrice float64        `json:"unit_price"`
	Subtotal  float64        `json:"subtotal"`
}

// Cart is the mutable, session-scoped materialization of a selected package.
// Subtotal, Taxes, Fees and Total are derived fields: recomputed from Items
// after every mutation, never hand-patched.
type Cart struct {
	CartID     string                `json:"cart_id"`
	Items      map[Category]CartItem `json:"items"`
	Subtotal   float64               `json:"subtotal"`
	Taxes      float64               `json:"taxes"`
	Fees       float64               `json:"fees"`
	Total      float64               `json:"total"`
	Savings    float64               `json:"savings,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	ModifiedAt time.Time             `json:"modified_at,omitempty"`
}

/* ----------------------------- modifications ----------------------------- */

type ModificationAction string

const (
	ActionSwap          ModificationAction = "swap"
	ActionRemove        ModificationAction = "remove"
	ActionAdjustWeights ModificationAction = "adjust_weights"
	ActionOptimize      ModificationAction = "optimize"
)

// OptimizeGoal selects the weight bias applied by the optimize action.
type OptimizeGoal string

const (
	GoalCost     OptimizeGoal = "cost"
	GoalQuality  OptimizeGoal = "quality"
	GoalBalanced OptimizeGoal = "balanced"
)

// Modification is one cart mutation request.
type Modification struct {
	Action   ModificationAction `json:"action"`
	ItemID   string             `json:"item_id,omitempty"`
	NewItem  *DiscoveredItem    `json:"new_item,omitempty"`
	Weights  *WeightOverrides   `json:"weights,omitempty"`
	Optimize OptimizeGoal       `json:"optimization_goal,omitempty"`
}

/* -------------------------------- checkout ------------------------------- */

type PaymentMethod string

const (
	PaymentStripe        PaymentMethod = "stripe"
	PaymentInvoice       PaymentMethod = "invoice"
	PaymentPurchaseOrder PaymentMethod = "po"
)

// Contact identifies the person booking the retreat.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Payment carries settlement details for checkout.
type Payment struct {
	Method   PaymentMethod `json:"method"`
	PONumber string        `json:"po_number,omitempty"`
}

// CheckoutRequest is what the checkout stage consumes alongside the cart.
type CheckoutRequest struct {
	Contact       Contact `json:"contact"`
	Payment       Payment `json:"payment"`
	TermsAccepted bool    `json:"terms_accepted"`
}

// PaymentResult reports a settled or scheduled payment.
type PaymentResult struct {
	TransactionID string        `json:"transaction_id"`
	Method        PaymentMethod `json:"method"`
	Amount        float64       `json:"amount"`
	DueTerms      string        `json:"due_terms,omitempty"`
}

// RetailerConfirmation is one vendor's booking acknowledgement.
type RetailerConfirmation struct {
	Vendor             string            `json:"vendor"`
	Category           Category          `json:"category"`
	ConfirmationNumber string            `json:"confirmation_number"`
	Status             string            `json:"status"`
	ItemTitle          string            `json:"item_title,omitempty"`
	Quantity           int               `json:"quantity"`
	ItemTotal          float64           `json:"item_total"`
	BookingDetails     map[string]string `json:"booking_details,omitempty"`
	CancellationPolicy string            `json:"cancellation_policy,omitempty"`
}

// BookingConfirmation is the master record returned by checkout.
type BookingConfirmation struct {
	MasterBookingID string                 `json:"master_booking_id"`
	Confirmations   []RetailerConfirmation `json:"retailer_confirmations"`
	TotalCost       float64                `json:"total_cost"`
	Payment         PaymentResult          `json:"payment"`
	BookedAt        time.Time              `json:"booking_date"`
	Contact         Contact                `json:"contact"`
	Status          string                 `json:"status"`
}
