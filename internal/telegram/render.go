package telegram

import (
	"fmt"
	"strings"

	"github.com/dshills/storebot/internal/cart"
	"github.com/dshills/storebot/pkg/types"
)

func renderWelcome(firstName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👋 Welcome, %s!\n\n", firstName)
	b.WriteString("🏪 *Our Store*\n\n")
	b.WriteString("Browse products, manage your cart, and track your orders right here.")
	return b.String()
}

func renderProductDetail(p *types.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 *%s*\n\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", p.Description)
	}
	fmt.Fprintf(&b, "💰 *Price:* $%s\n", p.Price.StringFixed(2))
	fmt.Fprintf(&b, "📁 *Category:* %s\n", p.Category)
	fmt.Fprintf(&b, "🏷 *Brand:* %s", p.Brand)
	return b.String()
}

func renderCart(lines []types.CartLine) string {
	if len(lines) == 0 {
		return "🛒 *Your cart is empty.*\n\nBrowse the catalog to add something!"
	}
	var b strings.Builder
	b.WriteString("🛒 *Your Cart*\n\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "• %s x%d — $%s\n", l.Name, l.Quantity, l.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\n💰 *Total:* $%s", cart.Total(lines).StringFixed(2))
	return b.String()
}

func renderOrderList(title string, orders []*types.Order) string {
	if len(orders) == 0 {
		return title + "\n\nNo orders here yet."
	}
	var b strings.Builder
	b.WriteString(title + "\n\n")
	for _, o := range orders {
		fmt.Fprintf(&b, "📦 *%s* — $%s\n", o.ID, o.Total.StringFixed(2))
		fmt.Fprintf(&b, "   📊 %s | 🗓 %s\n", strings.ToUpper(string(o.Status)), o.CreatedAt.Format("2006-01-02"))
	}
	return b.String()
}

func renderOrderDetail(o *types.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 *Order %s*\n\n", o.ID)
	fmt.Fprintf(&b, "👤 *Customer:* %s\n", o.CustomerName)
	fmt.Fprintf(&b, "📞 *Phone:* %s\n", o.CustomerPhone)
	fmt.Fprintf(&b, "📍 *Address:* %s\n", o.CustomerAddr)
	fmt.Fprintf(&b, "💳 *Payment:* %s\n", o.Payment)
	fmt.Fprintf(&b, "📊 *Status:* %s\n", strings.ToUpper(string(o.Status)))
	fmt.Fprintf(&b, "🗓 *Placed:* %s\n\n", o.CreatedAt.Format("2006-01-02 15:04"))
	b.WriteString("🛍 *Items:*\n")
	for _, item := range o.Items {
		fmt.Fprintf(&b, "• %s x%d — $%s\n", item.Name, item.Quantity, item.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\n💰 *Total:* $%s", o.Total.StringFixed(2))
	return b.String()
}
