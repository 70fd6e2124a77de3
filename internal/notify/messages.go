package notify

import (
	"fmt"
	"strings"

	"github.com/dshills/storebot/pkg/types"
)

// Message templates for order events. All output is chat Markdown.

var statusMessages = map[types.OrderStatus]string{
	types.StatusPaid:      "✅ *Payment Confirmed!*\n\nYour order is now being processed and prepared for shipping.",
	types.StatusShipped:   "🚚 *Order Shipped!*\n\nYour order is on the way! You'll receive it soon.",
	types.StatusCompleted: "🎉 *Order Delivered!*\n\nThank you for your purchase! We hope you enjoy your products.",
	types.StatusCancelled: "❌ *Order Cancelled*\n\nPlease contact support if you have any questions.",
}

// StatusUpdate builds the message sent to the order's owner on a status
// transition.
func StatusUpdate(orderID string, status types.OrderStatus) types.Content {
	msg, ok := statusMessages[status]
	if !ok {
		msg = fmt.Sprintf("Order status updated to: %s", strings.ToUpper(string(status)))
	}
	var b strings.Builder
	b.WriteString("📦 *Order Update*\n\n")
	fmt.Fprintf(&b, "🆔 *Order ID:* %s\n", orderID)
	fmt.Fprintf(&b, "📊 *New Status:* %s\n\n", strings.ToUpper(string(status)))
	b.WriteString(msg)
	return types.TextContent(b.String())
}

// OrderConfirmation builds the purchaser's confirmation, with payment
// instructions specific to the chosen method. When the ledger mirror
// failed, a non-fatal tracking note is appended.
func OrderConfirmation(order *types.Order, btcWallet string, ledgerOK bool) types.Content {
	var b strings.Builder
	b.WriteString("✅ *Order Confirmed!*\n\n")
	fmt.Fprintf(&b, "📦 *Order ID:* `%s`\n", order.ID)
	fmt.Fprintf(&b, "💰 *Total Amount:* `$%s`\n", order.Total.StringFixed(2))

	switch order.Payment {
	case types.PaymentBTC:
		b.WriteString("₿ *Payment Method:* Bitcoin\n\n")
		fmt.Fprintf(&b, "*Please send exactly `$%s` worth of BTC to:*\n`%s`\n\n", order.Total.StringFixed(2), btcWallet)
		b.WriteString("📍 *After Payment:*\n")
		b.WriteString("• Your order status will update to 'PAID'\n")
		b.WriteString("• We'll process and ship your order\n")
		b.WriteString("• You'll receive notifications at each stage")
	default:
		b.WriteString("💳 *Payment Method:* Custom Payment\n\n")
		b.WriteString("📍 *Next Steps:*\n")
		b.WriteString("• We will contact you shortly for payment details\n")
		b.WriteString("• Your order status is currently 'PENDING'\n")
		b.WriteString("• You'll receive updates as we process your order")
	}

	if !ledgerOK {
		b.WriteString("\n\n⚠️ *Note:* Order tracking is temporarily delayed. Admin has been notified.")
	}
	return types.TextContent(b.String())
}

// AdminNewOrder builds the alert fanned out to administrators on order
// creation.
func AdminNewOrder(order *types.Order, username string) types.Content {
	var b strings.Builder
	b.WriteString("🆕 *NEW ORDER RECEIVED!*\n\n")
	fmt.Fprintf(&b, "📦 *Order ID:* %s\n", order.ID)
	fmt.Fprintf(&b, "👤 *Customer:* %s\n", order.CustomerName)
	fmt.Fprintf(&b, "📞 *Phone:* %s\n", order.CustomerPhone)
	if username != "" {
		fmt.Fprintf(&b, "👥 *Contact:* @%s\n", username)
	}
	fmt.Fprintf(&b, "💰 *Total:* $%s\n", order.Total.StringFixed(2))
	fmt.Fprintf(&b, "💳 *Payment Method:* %s\n", order.Payment)
	fmt.Fprintf(&b, "📊 *Status:* %s\n\n", strings.ToUpper(string(order.Status)))
	fmt.Fprintf(&b, "📍 *Address:* %s\n\n", order.CustomerAddr)

	b.WriteString("🛍️ *ORDER ITEMS:*\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "• %s x%d - $%s\n", item.Name, item.Quantity, item.LineTotal().StringFixed(2))
	}

	if order.Payment == types.PaymentCustom {
		b.WriteString("\n⚠️ *CUSTOM PAYMENT REQUIRES MANUAL FOLLOW-UP*\n")
		if username != "" {
			fmt.Fprintf(&b, "💬 Contact customer directly: @%s\n", username)
		} else {
			fmt.Fprintf(&b, "💬 Contact customer via phone: %s\n", order.CustomerPhone)
		}
		b.WriteString("📞 Reach out to arrange payment details")
	}
	return types.TextContent(b.String())
}

// TransitionReport builds the outcome message for the administrator who
// triggered a status change, including the ledger-sync result.
func TransitionReport(orderID string, status types.OrderStatus, ledgerOK bool) types.Content {
	emoji := map[types.OrderStatus]string{
		types.StatusPaid:      "✅",
		types.StatusShipped:   "🚚",
		types.StatusCompleted: "🎉",
		types.StatusCancelled: "❌",
	}[status]
	if emoji == "" {
		emoji = "📦"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *Order %s updated to %s*\n", emoji, orderID, strings.ToUpper(string(status)))
	if ledgerOK {
		b.WriteString("✅ Ledger updated successfully")
	} else {
		b.WriteString("⚠️ Ledger update failed - check manually")
	}
	b.WriteString("\n\nThe customer has been notified about this status change.")
	return types.TextContent(b.String())
}
