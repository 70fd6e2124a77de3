// Package notify delivers messages to users and administrators: single
// fan-outs for order events and full-roster broadcasts with progress
// accounting.
package notify

import (
	"context"
	"log"

	"github.com/dshills/storebot/pkg/types"
)

// Sender delivers one message to one recipient. Implemented by the chat
// transport.
type Sender interface {
	Send(ctx context.Context, recipient int64, content types.Content) error
}

// Notifier fans a message out to a recipient set. Each delivery is
// independent: a failure is logged and does not abort the rest. No retry.
type Notifier struct {
	sender Sender
	logger *log.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(sender Sender, logger *log.Logger) *Notifier {
	return &Notifier{sender: sender, logger: logger}
}

// Notify delivers content to every recipient, returning the number of
// failed deliveries.
func (n *Notifier) Notify(ctx context.Context, recipients []int64, content types.Content) int {
	failed := 0
	for _, recipient := range recipients {
		if err := n.sender.Send(ctx, recipient, content); err != nil {
			n.logger.Printf("failed to notify %d: %v", recipient, err)
			failed++
		}
	}
	return failed
}
