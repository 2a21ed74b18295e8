// Package checkout settles a cart into a master booking with per-retailer
// confirmations. Payment settlement is simulated per method; no external
// gateway is contacted. Confirmation events are published best-effort to an
// injected publisher.
package checkout

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/planvoy/retreat-planner/agent/contract"
)

// ConfirmationPublisher delivers the booking confirmation to downstream
// consumers. *qstash.Client satisfies it.
type ConfirmationPublisher interface {
	PublishJSON(ctx context.Context, destination string, body any) error
}

// Gateway implements contract.CheckoutGateway.
type Gateway struct {
	publisher   ConfirmationPublisher
	destination string
	now         func() time.Time
}

// GatewayOption customizes a Gateway.
type GatewayOption func(*Gateway)

// WithPublisher wires the confirmation publisher and its destination URL.
func WithPublisher(p ConfirmationPublisher, destination string) GatewayOption {
	return func(g *Gateway) {
		g.publisher = p
		g.destination = strings.TrimSpace(destination)
	}
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) {
		g.now = now
	}
}

func NewGateway(opts ...GatewayOption) *Gateway {
	g := &Gateway{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var _ contractx.CheckoutGateway = (*Gateway)(nil)

// Checkout validates the request, settles payment, and books every cart
// line with its vendor. Publish failures are logged, never surfaced: the
// booking is already confirmed by then.
func (g *Gateway) Checkout(ctx context.Context, cart contractx.Cart, req contractx.CheckoutRequest) (contractx.BookingConfirmation, error) {
	if err := validateRequest(cart, req); err != nil {
		return contractx.BookingConfirmation{}, err
	}

	payment, err := g.settlePayment(cart.Total, req.Payment)
	if err != nil {
		return contractx.BookingConfirmation{}, err
	}

	confirmations := make([]contractx.RetailerConfirmation, 0, len(cart.Items))
	for _, cat := range sortedCategories(cart) {
		confirmations = append(confirmations, bookWithRetailer(cat, cart.Items[cat]))
	}

	confirmation := contractx.BookingConfirmation{
		MasterBookingID: "RTR-" + strings.ToUpper(uuid.NewString()[:8]),
		Confirmations:   confirmations,
		TotalCost:       cart.Total,
		Payment:         payment,
		BookedAt:        g.now(),
		Contact:         req.Contact,
		Status:          "confirmed",
	}

	if g.publisher != nil && g.destination != "" {
		if err := g.publisher.PublishJSON(ctx, g.destination, confirmation); err != nil {
			log.Warn().Err(err).
				Str("master_booking_id", confirmation.MasterBookingID).
				Msg("failed to publish booking confirmation")
		}
	}
	return confirmation, nil
}

func validateRequest(cart contractx.Cart, req contractx.CheckoutRequest) error {
	if len(cart.Items) == 0 {
		return fmt.Errorf("%w: cart is empty", contractx.ErrValidation)
	}
	if strings.TrimSpace(req.Contact.Name) == "" {
		return fmt.Errorf("%w: contact name is required", contractx.ErrValidation)
	}
	email := strings.TrimSpace(req.Contact.Email)
	if email == "" {
		return fmt.Errorf("%w: contact email is required", contractx.ErrValidation)
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return fmt.Errorf("%w: invalid email format", contractx.ErrValidation)
	}
	if !req.TermsAccepted {
		return fmt.Errorf("%w: terms and conditions must be accepted", contractx.ErrValidation)
	}
	return nil
}

// settlePayment simulates settlement per method. Card payments settle
// immediately, invoices run Net 30, purchase orders reference the PO.
func (g *Gateway) settlePayment(amount float64, payment contractx.Payment) (contractx.PaymentResult, error) {
	method := payment.Method
	if method == "" {
		method = contractx.PaymentStripe
	}

	switch method {
	case contractx.PaymentStripe:
		return contractx.PaymentResult{
			TransactionID: "ch_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
			Method:        contractx.PaymentStripe,
			Amount:        amount,
		}, nil
	case contractx.PaymentInvoice:
		return contractx.PaymentResult{
			TransactionID: "inv_" + strings.ToUpper(uuid.NewString()[:8]),
			Method:        contractx.PaymentInvoice,
			Amount:        amount,
			DueTerms:      "Net 30",
		}, nil
	case contractx.PaymentPurchaseOrder:
		po := strings.TrimSpace(payment.PONumber)
		if po == "" {
			return contractx.PaymentResult{}, fmt.Errorf("%w: po number required for purchase order payment", contractx.ErrCheckout)
		}
		return contractx.PaymentResult{
			TransactionID: "po_" + po,
			Method:        contractx.PaymentPurchaseOrder,
			Amount:        amount,
		}, nil
	}
	return contractx.PaymentResult{}, fmt.Errorf("%w: unsupported payment method %q", contractx.ErrCheckout, method)
}

var confirmationPrefixes = map[contractx.Category]string{
	contractx.CategoryFlights:      "FLT",
	contractx.CategoryHotels:       "HTL",
	contractx.CategoryMeetingRooms: "MTG",
	contractx.CategoryCatering:     "CTR",
}

var cancellationPolicies = map[contractx.Category]string{
	contractx.CategoryFlights:      "Free cancellation up to 24 hours before departure",
	contractx.CategoryHotels:       "Free cancellation up to 48 hours before check-in",
	contractx.CategoryMeetingRooms: "Full refund up to 7 days before event",
	contractx.CategoryCatering:     "Full refund up to 5 days before event, 50% up to 48 hours",
}

func bookWithRetailer(cat contractx.Category, line contractx.CartItem) contractx.RetailerConfirmation {
	prefix := confirmationPrefixes[cat]
	if prefix == "" {
		prefix = "GEN"
	}
	policy := cancellationPolicies[cat]
	if policy == "" {
		policy = "Contact vendor for cancellation policy"
	}

	return contractx.RetailerConfirmation{
		Vendor:             line.Item.Vendor,
		Category:           cat,
		ConfirmationNumber: prefix + "-" + strings.ToUpper(uuid.NewString()[:6]),
		Status:             "confirmed",
		ItemTitle:          line.Item.Title,
		Quantity:           line.Quantity,
		ItemTotal:          line.Subtotal,
		BookingDetails:     bookingDetails(cat, line),
		CancellationPolicy: policy,
	}
}

func bookingDetails(cat contractx.Category, line contractx.CartItem) map[string]string {
	qty := strconv.Itoa(line.Quantity)
	switch cat {
	case contractx.CategoryFlights:
		details := map[string]string{
			"passengers": qty,
			"class":      "Economy/Business Mix",
			"baggage":    "1 checked bag included",
		}
		if m := line.Item.Metadata.Flight; m != nil {
			details["departure"] = m.Departure
			details["arrival"] = m.Arrival
		}
		return details
	case contractx.CategoryHotels:
		details := map[string]string{
			"room_nights": qty,
			"room_type":   "Standard Double",
		}
		if m := line.Item.Metadata.Hotel; m != nil {
			details["amenities"] = strings.Join(m.Amenities, ", ")
		}
		return details
	case contractx.CategoryMeetingRooms:
		details := map[string]string{
			"setup_style": "Theater/Classroom",
			"duration":    qty + " day(s)",
		}
		if m := line.Item.Metadata.MeetingRoom; m != nil {
			details["capacity"] = strconv.Itoa(m.Capacity)
			details["equipment"] = strings.Join(m.Equipment, ", ")
		}
		return details
	case contractx.CategoryCatering:
		details := map[string]string{
			"meals": qty,
		}
		if m := line.Item.Metadata.Catering; m != nil {
			details["cuisine"] = m.Cuisine
			details["dietary_options"] = strings.Join(m.DietaryOptions, ", ")
			details["service_style"] = m.ServiceStyle
		}
		return details
	}
	return map[string]string{"quantity": qty}
}

func sortedCategories(cart contractx.Cart) []contractx.Category {
	cats := make([]contractx.Category, 0, len(cart.Items))
	for cat := range cart.Items {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		return categoryOrder(cats[i]) < categoryOrder(cats[j])
	})
	return cats
}

func categoryOrder(cat contractx.Category) int {
	for i, c := range contractx.Categories() {
		if c == cat {
			return i
		}
	}
	return len(contractx.Categories())
}
