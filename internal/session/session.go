// Package session implements the per-user conversation state machine:
// multi-step flows (checkout, product creation, product edit, broadcast
// compose) with scratch data, a keyed session store, and per-user action
// serialization.
package session

import (
	"errors"
	"sync"
)

var (
	// ErrAccessDenied is returned when a non-administrator invokes an
	// admin-only flow or action.
	ErrAccessDenied = errors.New("access denied")
	// ErrNoActiveFlow is returned when input arrives with no flow in
	// progress for the user.
	ErrNoActiveFlow = errors.New("no active flow")
	// ErrSessionExpired is returned when a flow reaches a terminal step
	// with required scratch data missing. The flow is discarded.
	ErrSessionExpired = errors.New("session expired, start over")
	// ErrNoPendingBroadcast is returned on confirm/cancel with nothing
	// composed.
	ErrNoPendingBroadcast = errors.New("no pending broadcast")
)

// FlowKind identifies one multi-step conversational task.
type FlowKind string

const (
	FlowNone        FlowKind = ""
	FlowCheckout    FlowKind = "checkout"
	FlowAddProduct  FlowKind = "add_product"
	FlowEditProduct FlowKind = "edit_product"
	FlowBroadcast   FlowKind = "broadcast"
)

// Step identifies the input a flow is waiting for.
type Step string

const (
	StepAwaitName    Step = "await_name"
	StepAwaitPhone   Step = "await_phone"
	StepAwaitAddress Step = "await_address"
	StepAwaitPayment Step = "await_payment"

	StepAwaitProductName     Step = "await_product_name"
	StepAwaitProductDesc     Step = "await_product_desc"
	StepAwaitProductPrice    Step = "await_product_price"
	StepAwaitProductCategory Step = "await_product_category"
	StepAwaitProductBrand    Step = "await_product_brand"
	StepAwaitProductImage    Step = "await_product_image"

	StepAwaitEditField Step = "await_edit_field"
	StepAwaitEditValue Step = "await_edit_value"

	StepAwaitBroadcastContent Step = "await_broadcast_content"
)

// Session is one user's in-flight flow. Scratch holds the fields
// collected so far, keyed by field name.
type Session struct {
	Flow    FlowKind
	Step    Step
	Scratch map[string]string
}

// begin replaces any in-flight flow. Prior scratch data is discarded
// silently.
func (s *Session) begin(flow FlowKind, step Step) {
	s.Flow = flow
	s.Step = step
	s.Scratch = make(map[string]string)
}

// reset discards the flow and its scratch data.
func (s *Session) reset() {
	s.Flow = FlowNone
	s.Step = ""
	s.Scratch = nil
}

type entry struct {
	mu      sync.Mutex
	session Session
}

// Manager is the keyed session store: user id to session record, with a
// per-user mutex so one user's actions are applied one at a time.
// Different users proceed concurrently.
type Manager struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

// NewManager creates an empty session store.
func NewManager() *Manager {
	return &Manager{entries: make(map[int64]*entry)}
}

func (m *Manager) entryFor(userID int64) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[userID]
	if !ok {
		e = &entry{}
		m.entries[userID] = e
	}
	return e
}

// Do runs fn with exclusive access to the user's session. It is the
// serialization boundary for everything a user does, including actions
// that never touch flow state (cart mutations share the same lock so a
// read-then-write increment cannot race itself).
func (m *Manager) Do(userID int64, fn func(s *Session) error) error {
	e := m.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.session)
}

// ActiveFlow reports which flow, if any, the user has in progress.
func (m *Manager) ActiveFlow(userID int64) FlowKind {
	var flow FlowKind
	_ = m.Do(userID, func(s *Session) error {
		flow = s.Flow
		return nil
	})
	return flow
}
