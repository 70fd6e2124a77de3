package session

import (
	"context"
	"log"
	"sync"

	"github.com/dshills/storebot/internal/cart"
	"github.com/dshills/storebot/internal/catalog"
	"github.com/dshills/storebot/internal/notify"
	"github.com/dshills/storebot/internal/order"
	"github.com/dshills/storebot/internal/storage"
	"github.com/dshills/storebot/pkg/types"
)

// Engine drives flow transitions. It owns the session store and applies
// every input under the acting user's session lock.
type Engine struct {
	sessions *Manager
	store    storage.Store
	carts    *cart.Service
	catalog  *catalog.Service
	orders   *order.Manager
	caster   *notify.Dispatcher
	admins   map[int64]bool
	logger   *log.Logger

	// Composed broadcasts awaiting confirm/cancel, keyed by admin id.
	// Deliberately outside session flow state: confirm and cancel are
	// stateless actions gated only by the admin check.
	pendingMu sync.Mutex
	pending   map[int64]types.Content
}

// NewEngine wires the state machine to its collaborators. adminIDs is
// the fixed administrator set.
func NewEngine(sessions *Manager, store storage.Store, carts *cart.Service, cat *catalog.Service, orders *order.Manager, caster *notify.Dispatcher, adminIDs []int64, logger *log.Logger) *Engine {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Engine{
		sessions: sessions,
		store:    store,
		carts:    carts,
		catalog:  cat,
		orders:   orders,
		caster:   caster,
		admins:   admins,
		logger:   logger,
		pending:  make(map[int64]types.Content),
	}
}

// Sessions exposes the session store so the transport can serialize
// non-flow actions (cart mutations) on the same per-user lock.
func (e *Engine) Sessions() *Manager { return e.sessions }

// IsAdmin reports whether the identity is in the administrator set.
func (e *Engine) IsAdmin(userID int64) bool { return e.admins[userID] }

// Handle routes one input into the user's active flow. Cancel discards
// the flow at any step with no side effect. Input with no active flow
// returns ErrNoActiveFlow.
func (e *Engine) Handle(ctx context.Context, userID int64, username string, in Input) (Outcome, error) {
	var out Outcome
	err := e.sessions.Do(userID, func(s *Session) error {
		if s.Flow == FlowNone {
			return ErrNoActiveFlow
		}
		if in.Kind == InputCancel {
			s.reset()
			out = done("❌ Cancelled.")
			return nil
		}

		var err error
		switch s.Flow {
		case FlowCheckout:
			out, err = e.stepCheckout(ctx, s, userID, username, in)
		case FlowAddProduct:
			out, err = e.stepAddProduct(ctx, s, userID, in)
		case FlowEditProduct:
			out, err = e.stepEditProduct(ctx, s, userID, in)
		case FlowBroadcast:
			out, err = e.stepBroadcast(ctx, s, userID, in)
		default:
			s.reset()
			err = ErrNoActiveFlow
		}
		if err != nil {
			// A failed flow never lingers half-applied
			s.reset()
		}
		return err
	})
	return out, err
}
