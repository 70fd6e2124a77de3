// Package order implements the order lifecycle: creating immutable order
// snapshots from a cart and advancing order status through a fixed
// transition graph with its side effects.
package order

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/dshills/storebot/internal/cart"
	"github.com/dshills/storebot/internal/ledger"
	"github.com/dshills/storebot/internal/notify"
	"github.com/dshills/storebot/internal/storage"
	"github.com/dshills/storebot/pkg/types"
)

var (
	// ErrEmptyCart is returned when checkout runs against an empty cart
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidTransition is returned for a status change not in the graph
	ErrInvalidTransition = errors.New("invalid status transition")
)

// transitions is the directed status graph. Completed and cancelled are
// terminal.
var transitions = map[types.OrderStatus][]types.OrderStatus{
	types.StatusPending: {types.StatusPaid, types.StatusCancelled},
	types.StatusPaid:    {types.StatusShipped, types.StatusCancelled},
	types.StatusShipped: {types.StatusCompleted, types.StatusCancelled},
}

// CanTransition reports whether from -> to is an edge of the graph.
func CanTransition(from, to types.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckoutDetails carries the customer data collected by the checkout
// flow. Captured values are frozen onto the order and decoupled from any
// later profile change.
type CheckoutDetails struct {
	Name    string
	Phone   string
	Address string
	Payment types.PaymentMethod
}

// Manager creates orders and drives status transitions.
type Manager struct {
	store     storage.Store
	mirror    ledger.Ledger
	notifier  *notify.Notifier
	carts     *cart.Service
	admins    []int64
	btcWallet string
	logger    *log.Logger
}

// NewManager wires the order lifecycle to its collaborators.
func NewManager(store storage.Store, mirror ledger.Ledger, notifier *notify.Notifier, carts *cart.Service, admins []int64, btcWallet string, logger *log.Logger) *Manager {
	return &Manager{
		store:     store,
		mirror:    mirror,
		notifier:  notifier,
		carts:     carts,
		admins:    admins,
		btcWallet: btcWallet,
		logger:    logger,
	}
}

// CreateResult reports a created order plus the ledger-mirror outcome.
type CreateResult struct {
	Order    *types.Order
	LedgerOK bool
}

// Create freezes the user's cart into a new pending order and runs the
// post-persistence side effects: ledger append, cart clear, purchaser
// confirmation, admin fan-out. Each side effect is independently
// failure-tolerant; only order persistence itself can fail the call.
// An empty cart is rejected before anything is written.
func (m *Manager) Create(ctx context.Context, userID int64, username string, details CheckoutDetails) (*CreateResult, error) {
	lines, err := m.carts.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]types.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, types.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.Price,
			Quantity:  line.Quantity,
		})
	}

	order := &types.Order{
		UserID:        userID,
		CustomerName:  details.Name,
		CustomerPhone: details.Phone,
		CustomerAddr:  details.Address,
		Items:         items,
		Total:         cart.Total(lines),
		Payment:       details.Payment,
		Status:        types.StatusPending,
	}
	if err := m.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	ledgerOK := true
	if err := m.mirror.AppendOrder(ctx, order); err != nil {
		m.logger.Printf("ledger append failed for %s: %v", order.ID, err)
		ledgerOK = false
	}

	if err := m.carts.Clear(ctx, userID); err != nil {
		m.logger.Printf("cart clear failed for user %d: %v", userID, err)
	}

	m.notifier.Notify(ctx, []int64{userID}, notify.OrderConfirmation(order, m.btcWallet, ledgerOK))
	m.notifier.Notify(ctx, m.admins, notify.AdminNewOrder(order, username))

	return &CreateResult{Order: order, LedgerOK: ledgerOK}, nil
}

// TransitionResult reports a completed status change plus the
// ledger-mirror outcome, for the triggering administrator's report.
type TransitionResult struct {
	Order    *types.Order
	LedgerOK bool
}

// Transition advances an order to a new status. The transition graph is
// enforced before any write: an edge not in the graph is rejected without
// mutating state. On success the new status is persisted, mirrored
// best-effort, and the owning user is notified once.
func (m *Manager) Transition(ctx context.Context, orderID string, to types.OrderStatus) (*TransitionResult, error) {
	order, err := m.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !to.Valid() || !CanTransition(order.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, to)
	}

	if err := m.store.UpdateOrderStatus(ctx, orderID, to); err != nil {
		return nil, fmt.Errorf("persist status: %w", err)
	}
	order.Status = to

	ledgerOK := true
	if err := m.mirror.SetOrderStatus(ctx, orderID, to); err != nil {
		m.logger.Printf("ledger status update failed for %s: %v", orderID, err)
		ledgerOK = false
	}

	m.notifier.Notify(ctx, []int64{order.UserID}, notify.StatusUpdate(orderID, to))

	return &TransitionResult{Order: order, LedgerOK: ledgerOK}, nil
}

// Get returns an order by id.
func (m *Manager) Get(ctx context.Context, orderID string) (*types.Order, error) {
	return m.store.GetOrder(ctx, orderID)
}

// ListForUser returns a user's orders, newest first.
func (m *Manager) ListForUser(ctx context.Context, userID int64) ([]*types.Order, error) {
	return m.store.ListOrdersForUser(ctx, userID)
}

// ListAll returns every order, newest first.
func (m *Manager) ListAll(ctx context.Context) ([]*types.Order, error) {
	return m.store.ListAllOrders(ctx)
}
