package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/storebot/internal/order"
	"github.com/dshills/storebot/pkg/types"
)

// Scratch keys for the checkout flow.
const (
	keyName    = "name"
	keyPhone   = "phone"
	keyAddress = "address"
)

func paymentOptions() []Option {
	return []Option{
		{Label: "₿ Bitcoin", Value: string(types.PaymentBTC)},
		{Label: "💳 Custom Payment", Value: string(types.PaymentCustom)},
	}
}

// StartCheckout begins the checkout flow. An empty cart is rejected
// before any session state is touched.
func (e *Engine) StartCheckout(ctx context.Context, userID int64) (Outcome, error) {
	var out Outcome
	err := e.sessions.Do(userID, func(s *Session) error {
		lines, err := e.carts.List(ctx, userID)
		if err != nil {
			return fmt.Errorf("read cart: %w", err)
		}
		if len(lines) == 0 {
			return order.ErrEmptyCart
		}
		s.begin(FlowCheckout, StepAwaitName)
		out = prompt("🛒 *Checkout*\n\nPlease enter your *full name*:")
		return nil
	})
	return out, err
}

func (e *Engine) stepCheckout(ctx context.Context, s *Session, userID int64, username string, in Input) (Outcome, error) {
	switch s.Step {
	case StepAwaitName:
		if in.Kind != InputText || strings.TrimSpace(in.Text) == "" {
			return prompt("Please enter your *full name*:"), nil
		}
		s.Scratch[keyName] = strings.TrimSpace(in.Text)
		s.Step = StepAwaitPhone
		return prompt("📞 Please enter your *phone number*:"), nil

	case StepAwaitPhone:
		if in.Kind != InputText || strings.TrimSpace(in.Text) == "" {
			return prompt("📞 Please enter your *phone number*:"), nil
		}
		s.Scratch[keyPhone] = strings.TrimSpace(in.Text)
		s.Step = StepAwaitAddress
		return prompt("📍 Please enter your *delivery address*:"), nil

	case StepAwaitAddress:
		if in.Kind != InputText || strings.TrimSpace(in.Text) == "" {
			return prompt("📍 Please enter your *delivery address*:"), nil
		}
		s.Scratch[keyAddress] = strings.TrimSpace(in.Text)
		s.Step = StepAwaitPayment
		return prompt("💰 *Choose your payment method:*", paymentOptions()...), nil

	case StepAwaitPayment:
		// Answered by selection from the fixed enum, never free text
		if in.Kind != InputSelect {
			return prompt("💰 *Choose your payment method:*", paymentOptions()...), nil
		}
		method := types.PaymentMethod(in.Choice)
		if !method.Valid() {
			return prompt("💰 *Choose your payment method:*", paymentOptions()...), nil
		}
		details := order.CheckoutDetails{
			Name:    s.Scratch[keyName],
			Phone:   s.Scratch[keyPhone],
			Address: s.Scratch[keyAddress],
			Payment: method,
		}
		if details.Name == "" || details.Phone == "" || details.Address == "" {
			return Outcome{}, ErrSessionExpired
		}
		s.reset()
		if _, err := e.orders.Create(ctx, userID, username, details); err != nil {
			return Outcome{}, err
		}
		// Confirmation and admin alerts are delivered by the lifecycle
		// manager; nothing further to render here.
		return done(""), nil
	}
	return Outcome{}, ErrSessionExpired
}
