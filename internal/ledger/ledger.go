// Package ledger mirrors orders into a secondary spreadsheet-like store.
// The mirror is best-effort: callers log failures and carry on; the primary
// store is never rolled back on mirror errors.
package ledger

import (
	"context"

	"github.com/dshills/storebot/pkg/types"
)

// Ledger is the external order mirror.
type Ledger interface {
	// AppendOrder records a newly created order.
	AppendOrder(ctx context.Context, order *types.Order) error
	// SetOrderStatus updates the mirrored status for an order.
	SetOrderStatus(ctx context.Context, orderID string, status types.OrderStatus) error
}

// Noop is a Ledger that records nothing. Used when no spreadsheet is
// configured.
type Noop struct{}

func (Noop) AppendOrder(ctx context.Context, order *types.Order) error { return nil }

func (Noop) SetOrderStatus(ctx context.Context, orderID string, status types.OrderStatus) error {
	return nil
}
