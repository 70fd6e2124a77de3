// Package cart implements the per-user cart aggregate: quantity mutation,
// listing against live catalog prices, and decimal totals.
package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dshills/storebot/internal/storage"
	"github.com/dshills/storebot/pkg/types"
)

// Service mutates and reads a user's cart. Entries never exist at
// quantity <= 0; decrease on a quantity-1 entry removes it.
type Service struct {
	store storage.Store
}

// New creates a cart service backed by the given store.
func New(store storage.Store) *Service {
	return &Service{store: store}
}

// Add increments the quantity for (user, product), creating the entry at
// quantity 1 if absent.
func (s *Service) Add(ctx context.Context, userID, productID int64) error {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	return s.store.AddToCart(ctx, userID, productID)
}

// Increase is semantically identical to Add.
func (s *Service) Increase(ctx context.Context, userID, productID int64) error {
	return s.Add(ctx, userID, productID)
}

// Decrease decrements the entry's quantity, removing it entirely at
// quantity 1. Decreasing an absent entry is a no-op.
func (s *Service) Decrease(ctx context.Context, userID, productID int64) error {
	qty, err := s.store.CartQuantity(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("decrease cart item: %w", err)
	}
	if qty == 0 {
		return nil
	}
	return s.store.SetCartQuantity(ctx, userID, productID, qty-1)
}

// Remove deletes the entry unconditionally.
func (s *Service) Remove(ctx context.Context, userID, productID int64) error {
	return s.store.RemoveFromCart(ctx, userID, productID)
}

// List returns the cart joined with current product name and price. Prices
// are live catalog values; they are only frozen at checkout.
func (s *Service) List(ctx context.Context, userID int64) ([]types.CartLine, error) {
	return s.store.GetCart(ctx, userID)
}

// Clear removes all entries for the user. Called once, immediately after
// order creation succeeds.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	return s.store.ClearCart(ctx, userID)
}

// Total sums price x quantity over the lines at full precision. Callers
// round to 2 decimal places for display only.
func Total(lines []types.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}
