package contract

import "context"

// RequirementsAnalyst turns a natural-language request into structured,
// validated requirements.
type RequirementsAnalyst interface {
	Analyze(ctx context.Context, userInput string) (Requirements, error)
}

// Discoverer finds candidate items for every category given the structured
// requirements.
type Discoverer interface {
	Discover(ctx context.Context, req Requirements) ([]DiscoveredItem, error)
}

// CheckoutGateway settles a cart and returns the master booking record.
type CheckoutGateway interface {
	Checkout(ctx context.Context, cart Cart, req CheckoutRequest) (BookingConfirmation, error)
}
