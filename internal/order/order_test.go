package order

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/storebot/internal/cart"
	"github.com/dshills/storebot/internal/ledger"
	"github.com/dshills/storebot/internal/notify"
	"github.com/dshills/storebot/internal/storage"
	"github.com/dshills/storebot/pkg/types"
)

// recordingLedger counts mirror calls and can be made to fail.
type recordingLedger struct {
	mu         sync.Mutex
	appends    []string
	statusSets []string
	fail       bool
}

func (r *recordingLedger) AppendOrder(ctx context.Context, order *types.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appends = append(r.appends, order.ID)
	if r.fail {
		return errors.New("sheet unavailable")
	}
	return nil
}

func (r *recordingLedger) SetOrderStatus(ctx context.Context, orderID string, status types.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusSets = append(r.statusSets, orderID)
	if r.fail {
		return errors.New("sheet unavailable")
	}
	return nil
}

// recordingSender captures every delivery.
type recordingSender struct {
	mu   sync.Mutex
	sent map[int64][]types.Content
}

func (s *recordingSender) Send(ctx context.Context, recipient int64, content types.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent == nil {
		s.sent = make(map[int64][]types.Content)
	}
	s.sent[recipient] = append(s.sent[recipient], content)
	return nil
}

func (s *recordingSender) countFor(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent[id])
}

type fixture struct {
	store  *storage.SQLiteStore
	carts  *cart.Service
	ledger *recordingLedger
	sender *recordingSender
	mgr    *Manager
}

func setup(t *testing.T) *fixture {
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{
		store:  store,
		carts:  cart.New(store),
		ledger: &recordingLedger{},
		sender: &recordingSender{},
	}
	logger := log.New(io.Discard, "", 0)
	notifier := notify.NewNotifier(f.sender, logger)
	f.mgr = NewManager(store, f.ledger, notifier, f.carts, []int64{100, 101}, "bc1qwallet", logger)
	return f
}

func stockProduct(t *testing.T, store storage.Store, name, price string) int64 {
	t.Helper()
	p := &types.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: "Electronics",
		Brand:    "Brand A",
		Active:   true,
	}
	require.NoError(t, store.CreateProduct(context.Background(), p))
	return p.ID
}

func fillCart(t *testing.T, f *fixture, userID int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.UpsertUser(ctx, &types.User{ID: userID, Username: "alice"}))
	pidA := stockProduct(t, f.store, "Widget", "10.00")
	pidB := stockProduct(t, f.store, "Gadget", "5.00")
	require.NoError(t, f.carts.Add(ctx, userID, pidA))
	require.NoError(t, f.carts.Add(ctx, userID, pidA))
	require.NoError(t, f.carts.Add(ctx, userID, pidB))
}

var details = CheckoutDetails{
	Name:    "Alice",
	Phone:   "+15550100",
	Address: "1 Main St",
	Payment: types.PaymentBTC,
}

func TestCreate_EmptyCartRejected(t *testing.T) {
	f := setup(t)
	_, err := f.mgr.Create(context.Background(), 1, "alice", details)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, f.ledger.appends)
}

func TestCreate_FreezesCartAndClearsIt(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	fillCart(t, f, 1)

	res, err := f.mgr.Create(ctx, 1, "alice", details)
	require.NoError(t, err)
	assert.Equal(t, "ORD-001", res.Order.ID)
	assert.Equal(t, types.StatusPending, res.Order.Status)
	assert.True(t, res.Order.Total.Equal(decimal.RequireFromString("25.00")))
	assert.Len(t, res.Order.Items, 2)
	assert.True(t, res.LedgerOK)

	lines, err := f.carts.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCreate_NotifiesBuyerOnceAndAllAdmins(t *testing.T) {
	f := setup(t)
	fillCart(t, f, 1)

	_, err := f.mgr.Create(context.Background(), 1, "alice", details)
	require.NoError(t, err)

	assert.Equal(t, 1, f.sender.countFor(1))
	assert.Equal(t, 1, f.sender.countFor(100))
	assert.Equal(t, 1, f.sender.countFor(101))
}

func TestCreate_LedgerFailureIsNonFatal(t *testing.T) {
	f := setup(t)
	f.ledger.fail = true
	fillCart(t, f, 1)

	res, err := f.mgr.Create(context.Background(), 1, "alice", details)
	require.NoError(t, err)
	assert.False(t, res.LedgerOK)
	// Exactly one append attempt, no retry
	assert.Equal(t, []string{res.Order.ID}, f.ledger.appends)
	// Buyer confirmation still goes out
	assert.Equal(t, 1, f.sender.countFor(1))
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to types.OrderStatus
		ok       bool
	}{
		{types.StatusPending, types.StatusPaid, true},
		{types.StatusPending, types.StatusCancelled, true},
		{types.StatusPending, types.StatusShipped, false},
		{types.StatusPending, types.StatusCompleted, false},
		{types.StatusPaid, types.StatusShipped, true},
		{types.StatusPaid, types.StatusCancelled, true},
		{types.StatusPaid, types.StatusPending, false},
		{types.StatusShipped, types.StatusCompleted, true},
		{types.StatusShipped, types.StatusCancelled, true},
		{types.StatusShipped, types.StatusPaid, false},
		{types.StatusCompleted, types.StatusCancelled, false},
		{types.StatusCancelled, types.StatusPending, false},
		{types.StatusCancelled, types.StatusPaid, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s to %s", tc.from, tc.to)
	}
}

func createOrder(t *testing.T, f *fixture, userID int64) *types.Order {
	t.Helper()
	fillCart(t, f, userID)
	res, err := f.mgr.Create(context.Background(), userID, "alice", details)
	require.NoError(t, err)
	return res.Order
}

func TestTransition_HappyPath(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ord := createOrder(t, f, 1)

	res, err := f.mgr.Transition(ctx, ord.ID, types.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPaid, res.Order.Status)
	assert.True(t, res.LedgerOK)

	got, err := f.store.GetOrder(ctx, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPaid, got.Status)
}

func TestTransition_InvalidEdgeLeavesStateUntouched(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ord := createOrder(t, f, 1)

	_, err := f.mgr.Transition(ctx, ord.ID, types.StatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := f.store.GetOrder(ctx, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, got.Status)
	assert.Empty(t, f.ledger.statusSets)
}

func TestTransition_TerminalStatesRejectEverything(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ord := createOrder(t, f, 1)

	_, err := f.mgr.Transition(ctx, ord.ID, types.StatusCancelled)
	require.NoError(t, err)

	for _, to := range []types.OrderStatus{types.StatusPending, types.StatusPaid, types.StatusShipped, types.StatusCompleted} {
		_, err := f.mgr.Transition(ctx, ord.ID, to)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
}

func TestTransition_UnknownStatus(t *testing.T) {
	f := setup(t)
	ord := createOrder(t, f, 1)

	_, err := f.mgr.Transition(context.Background(), ord.ID, types.OrderStatus("mailed"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransition_UnknownOrder(t *testing.T) {
	f := setup(t)
	_, err := f.mgr.Transition(context.Background(), "ORD-999", types.StatusPaid)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTransition_NotifiesOwnerOnce(t *testing.T) {
	f := setup(t)
	ord := createOrder(t, f, 1)
	before := f.sender.countFor(1)

	_, err := f.mgr.Transition(context.Background(), ord.ID, types.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, before+1, f.sender.countFor(1))
}

func TestTransition_LedgerFailureStillNotifiesOwner(t *testing.T) {
	f := setup(t)
	ord := createOrder(t, f, 1)
	f.ledger.fail = true
	before := f.sender.countFor(1)

	res, err := f.mgr.Transition(context.Background(), ord.ID, types.StatusPaid)
	require.NoError(t, err)
	assert.False(t, res.LedgerOK)
	assert.Equal(t, before+1, f.sender.countFor(1))
}

var _ ledger.Ledger = (*recordingLedger)(nil)
