package session

import (
	"context"
	"fmt"

	"github.com/dshills/storebot/internal/notify"
	"github.com/dshills/storebot/pkg/types"
)

// StartBroadcast begins the broadcast-compose flow. Admin only.
func (e *Engine) StartBroadcast(ctx context.Context, adminID int64) (Outcome, error) {
	if !e.IsAdmin(adminID) {
		return Outcome{}, ErrAccessDenied
	}
	var out Outcome
	err := e.sessions.Do(adminID, func(s *Session) error {
		s.begin(FlowBroadcast, StepAwaitBroadcastContent)
		out = prompt("📢 *Broadcast Message*\n\nSend the *text* or *photo with caption* to broadcast to all users:")
		return nil
	})
	return out, err
}

func (e *Engine) stepBroadcast(ctx context.Context, s *Session, adminID int64, in Input) (Outcome, error) {
	if !e.IsAdmin(adminID) {
		return Outcome{}, ErrAccessDenied
	}
	if s.Step != StepAwaitBroadcastContent {
		return Outcome{}, ErrSessionExpired
	}

	var content types.Content
	switch in.Kind {
	case InputText:
		if in.Text == "" {
			return prompt("Send the *text* or *photo with caption* to broadcast:"), nil
		}
		content = types.TextContent(in.Text)
	case InputImage:
		content = types.ImageContent(in.ImageRef, in.Caption)
	default:
		return prompt("Send the *text* or *photo with caption* to broadcast:"), nil
	}

	s.reset()
	e.pendingMu.Lock()
	e.pending[adminID] = content
	e.pendingMu.Unlock()

	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("list users: %w", err)
	}
	out := done(fmt.Sprintf("👀 *Preview above.*\n\nSend this broadcast to *%d users*?", len(users)))
	out.Options = []Option{
		{Label: "✅ Send", Value: "broadcast_confirm"},
		{Label: "❌ Cancel", Value: "broadcast_cancel"},
	}
	return out, nil
}

// PendingBroadcast returns the composed content awaiting confirmation,
// if any. Used by the transport to render the preview.
func (e *Engine) PendingBroadcast(adminID int64) (types.Content, bool) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	c, ok := e.pending[adminID]
	return c, ok
}

// ConfirmBroadcast sends the composed content to the full user roster
// and returns the final report. The roster is snapshotted here; no
// session lock is held during the run.
func (e *Engine) ConfirmBroadcast(ctx context.Context, adminID int64, onProgress func(notify.Progress)) (notify.Report, error) {
	if !e.IsAdmin(adminID) {
		return notify.Report{}, ErrAccessDenied
	}
	e.pendingMu.Lock()
	content, ok := e.pending[adminID]
	delete(e.pending, adminID)
	e.pendingMu.Unlock()
	if !ok {
		return notify.Report{}, ErrNoPendingBroadcast
	}

	roster, err := e.store.ListUsers(ctx)
	if err != nil {
		return notify.Report{}, fmt.Errorf("list users: %w", err)
	}
	return e.caster.Run(ctx, roster, content, onProgress), nil
}

// CancelBroadcast drops a composed broadcast without sending it.
func (e *Engine) CancelBroadcast(adminID int64) error {
	if !e.IsAdmin(adminID) {
		return ErrAccessDenied
	}
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	if _, ok := e.pending[adminID]; !ok {
		return ErrNoPendingBroadcast
	}
	delete(e.pending, adminID)
	return nil
}
