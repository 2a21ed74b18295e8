package cart

import (
	"fmt"

	contractx "github.com/planvoy/retreat-planner/agent/contract"
	"github.com/planvoy/retreat-planner/agent/scoring"
)

// Swap replaces the cart line holding itemID with the replacement item.
// The line's quantity is preserved; unit price and subtotal come from the
// replacement. Referencing an id not in the cart is an error, never a
// silent no-op.
func (b *Builder) Swap(cart *contractx.Cart, itemID string, replacement contractx.DiscoveredItem) error {
	if itemID == "" {
		return fmt.Errorf("%w: item_id is required for swap", contractx.ErrValidation)
	}
	for cat, line := range cart.Items {
		if line.Item.ItemID != itemID {
			continue
		}
		if replacement.Category != "" && replacement.Category != cat {
			return fmt.Errorf("%w: replacement category %s does not match cart line %s",
				contractx.ErrValidation, replacement.Category, cat)
		}
		line.Item = replacement
		line.UnitPrice = replacement.Price
		line.Subtotal = scoring.Round2(replacement.Price * float64(line.Quantity))
		cart.Items[cat] = line
		b.Recalculate(cart)
		return nil
	}
	return fmt.Errorf("%w: %s is not in the cart", contractx.ErrItemNotFound, itemID)
}

// Remove deletes the cart line holding itemID and recomputes totals.
// Referencing an id not in the cart is an error, never a silent no-op.
func (b *Builder) Remove(cart *contractx.Cart, itemID string) error {
	if itemID == "" {
		return fmt.Errorf("%w: item_id is required for remove", contractx.ErrValidation)
	}
	for cat, line := range cart.Items {
		if line.Item.ItemID != itemID {
			continue
		}
		delete(cart.Items, cat)
		b.Recalculate(cart)
		return nil
	}
	return fmt.Errorf("%w: %s is not in the cart", contractx.ErrItemNotFound, itemID)
}
