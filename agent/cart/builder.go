// Package cart materializes a selected package into a priced, mutable cart
// and applies cart mutations.
package cart

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	contractx "github.com/planvoy/retreat-planner/agent/contract"
	"github.com/planvoy/retreat-planner/agent/scoring"
)

// Default pricing rates. Savings is a deterministic bundle-discount
// estimate against booking each vendor separately.
const (
	DefaultTaxRate        = 0.0875
	DefaultServiceFeeRate = 0.025
	DefaultSavingsRate    = 0.125
)

var (
	firstNumber = regexp.MustCompile(`\d+`)
	weekUnit    = regexp.MustCompile(`(?i)week`)
)

// StayDays extracts the stay length in days from a duration string like
// "3 days", "2 nights" or "1 week"; week durations convert to 7 days each.
// Unparseable durations default to a 2-day stay.
func StayDays(duration string) int {
	if m := firstNumber.FindString(duration); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n > 0 {
			if weekUnit.MatchString(duration) {
				return n * 7
			}
			return n
		}
	}
	return 2
}

// Builder turns ranked packages into carts and keeps their derived totals
// consistent. The zero value is not usable; construct with New.
type Builder struct {
	taxRate     float64
	feeRate     float64
	savingsRate float64
	now         func() time.Time
}

// Option customizes a Builder.
type Option func(*Builder)

// WithRates overrides the default tax and service-fee rates.
func WithRates(tax, fee float64) Option {
	return func(b *Builder) {
		b.taxRate = tax
		b.feeRate = fee
	}
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

func New(opts ...Option) *Builder {
	b := &Builder{
		taxRate:     DefaultTaxRate,
		feeRate:     DefaultServiceFeeRate,
		savingsRate: DefaultSavingsRate,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Quantity derives how many units of an item the retreat needs. Flights are
// per attendee, hotels are room-nights at double occupancy, meeting rooms
// are per day, catering is per attendee per day.
func Quantity(cat contractx.Category, req contractx.Requirements) int {
	days := StayDays(req.Duration)
	switch cat {
	case contractx.CategoryFlights:
		return req.Attendees
	case contractx.CategoryHotels:
		rooms := req.Attendees/2 + req.Attendees%2
		return rooms * days
	case contractx.CategoryMeetingRooms:
		return days
	case contractx.CategoryCatering:
		return req.Attendees * days
	}
	return 1
}

// Build materializes the selected package into a cart. Every line's
// subtotal and all cart totals are computed here; nothing is carried over
// from the package except the items themselves.
func (b *Builder) Build(pkg contractx.ScoredPackage, req contractx.Requirements) (contractx.Cart, error) {
	if err := req.Validate(); err != nil {
		return contractx.Cart{}, fmt.Errorf("build cart: %w", err)
	}
	if len(pkg.Items) == 0 {
		return contractx.Cart{}, fmt.Errorf("%w: package has no items", contractx.ErrValidation)
	}

	items := make(map[contractx.Category]contractx.CartItem, len(pkg.Items))
	for cat, item := range pkg.Items {
		qty := Quantity(cat, req)
		items[cat] = contractx.CartItem{
			Item:      item,
			Quantity:  qty,
			UnitPrice: item.Price,
			Subtotal:  scoring.Round2(item.Price * float64(qty)),
		}
	}

	cart := contractx.Cart{
		CartID:    "cart_" + uuid.NewString()[:8],
		Items:     items,
		CreatedAt: b.now(),
	}
	b.recalculate(&cart)
	if pkg.TotalCost > 0 {
		cart.Savings = scoring.Round2(pkg.TotalCost * b.savingsRate)
	}
	return cart, nil
}

// Recalculate rebuilds every derived total from the cart's line items and
// stamps the modification time. Call after any mutation.
func (b *Builder) Recalculate(cart *contractx.Cart) {
	b.recalculate(cart)
	cart.ModifiedAt = b.now()
}

func (b *Builder) recalculate(cart *contractx.Cart) {
	subtotal := 0.0
	for _, line := range cart.Items {
		subtotal += line.Subtotal
	}
	cart.Subtotal = scoring.Round2(subtotal)
	cart.Taxes = scoring.Round2(cart.Subtotal * b.taxRate)
	cart.Fees = scoring.Round2(cart.Subtotal * b.feeRate)
	cart.Total = scoring.Round2(cart.Subtotal + cart.Taxes + cart.Fees)
}
