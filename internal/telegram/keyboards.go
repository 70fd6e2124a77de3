package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dshills/storebot/internal/order"
	"github.com/dshills/storebot/internal/session"
	"github.com/dshills/storebot/pkg/types"
)

// Callback data prefixes. Everything routed through handleCallback is
// one of these plus a payload.
const (
	cbCategory      = "category_"
	cbProduct       = "product_"
	cbAddToCart     = "add_to_cart_"
	cbIncrease      = "increase_"
	cbDecrease      = "decrease_"
	cbRemove        = "remove_"
	cbViewCart      = "view_cart"
	cbCheckout      = "checkout"
	cbMyOrders      = "my_orders"
	cbBrowse        = "browse"
	cbMainMenu      = "main_menu"
	cbCancelFlow    = "cancel_flow"
	cbOption        = "opt_" // session.Option payload
	cbAdminPanel    = "admin_panel"
	cbAdminAdd      = "admin_add_product"
	cbAdminManage   = "admin_manage"
	cbAdminProduct  = "admin_product_"
	cbAdminEdit     = "admin_edit_"
	cbAdminDelete   = "admin_delete_"
	cbAdminConfirm  = "admin_confirm_delete_"
	cbAdminToggle   = "admin_toggle_"
	cbAdminOrders   = "admin_orders_"
	cbAdminOrder    = "admin_order_"
	cbStatus        = "status_" // status_<orderID>_<newStatus>
	cbBroadcast     = "broadcast_start"
	cbBroadcastYes  = "broadcast_confirm"
	cbBroadcastNo   = "broadcast_cancel"
)

func row(buttons ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

func btn(label, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(label, data)
}

func mainMenuKeyboard(isAdmin bool) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		row(btn("🛍 Products", cbBrowse)),
		row(btn("🛒 My Cart", cbViewCart), btn("📦 My Orders", cbMyOrders)),
	}
	if isAdmin {
		rows = append(rows, row(btn("⚙️ Admin Panel", cbAdminPanel)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func categoriesKeyboard(categories []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(categories)+1)
	for _, c := range categories {
		rows = append(rows, row(btn("📁 "+c, cbCategory+c)))
	}
	rows = append(rows, row(btn("⬅️ Back", cbMainMenu)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func productsKeyboard(products []*types.Product) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(products)+1)
	for _, p := range products {
		label := fmt.Sprintf("%s — $%s", p.Name, p.Price.StringFixed(2))
		rows = append(rows, row(btn(label, fmt.Sprintf("%s%d", cbProduct, p.ID))))
	}
	rows = append(rows, row(btn("⬅️ Back", cbBrowse)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func productDetailKeyboard(p *types.Product) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("🛒 Add to Cart", fmt.Sprintf("%s%d", cbAddToCart, p.ID))),
		row(btn("⬅️ Back", cbCategory+p.Category), btn("🏠 Menu", cbMainMenu)),
	)
}

func cartKeyboard(lines []types.CartLine) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(lines)+2)
	for _, l := range lines {
		rows = append(rows, row(
			btn("➖", fmt.Sprintf("%s%d", cbDecrease, l.ProductID)),
			btn(fmt.Sprintf("%s x%d", l.Name, l.Quantity), cbViewCart),
			btn("➕", fmt.Sprintf("%s%d", cbIncrease, l.ProductID)),
			btn("🗑", fmt.Sprintf("%s%d", cbRemove, l.ProductID)),
		))
	}
	if len(lines) > 0 {
		rows = append(rows, row(btn("✅ Checkout", cbCheckout)))
	}
	rows = append(rows, row(btn("🏠 Menu", cbMainMenu)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func adminPanelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("➕ Add Product", cbAdminAdd), btn("📦 Manage Products", cbAdminManage)),
		row(btn("📋 Orders", cbAdminOrders+"all"), btn("📢 Broadcast", cbBroadcast)),
		row(btn("🏠 Menu", cbMainMenu)),
	)
}

func adminProductsKeyboard(products []*types.Product) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(products)+1)
	for _, p := range products {
		state := "🟢"
		if !p.Active {
			state = "🔴"
		}
		label := fmt.Sprintf("%s %s — $%s", state, p.Name, p.Price.StringFixed(2))
		rows = append(rows, row(btn(label, fmt.Sprintf("%s%d", cbAdminProduct, p.ID))))
	}
	rows = append(rows, row(btn("⬅️ Back", cbAdminPanel)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func adminProductKeyboard(p *types.Product) tgbotapi.InlineKeyboardMarkup {
	toggle := "🔴 Deactivate"
	if !p.Active {
		toggle = "🟢 Activate"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("✏️ Edit", fmt.Sprintf("%s%d", cbAdminEdit, p.ID)), btn(toggle, fmt.Sprintf("%s%d", cbAdminToggle, p.ID))),
		row(btn("🗑 Delete", fmt.Sprintf("%s%d", cbAdminDelete, p.ID))),
		row(btn("⬅️ Back", cbAdminManage)),
	)
}

func deleteConfirmKeyboard(productID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("✅ Yes, delete", fmt.Sprintf("%s%d", cbAdminConfirm, productID))),
		row(btn("❌ No, keep it", fmt.Sprintf("%s%d", cbAdminProduct, productID))),
	)
}

func adminOrderFiltersKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("⏳ Pending", cbAdminOrders+string(types.StatusPending)), btn("✅ Paid", cbAdminOrders+string(types.StatusPaid))),
		row(btn("🚚 Shipped", cbAdminOrders+string(types.StatusShipped)), btn("🎉 Completed", cbAdminOrders+string(types.StatusCompleted))),
		row(btn("❌ Cancelled", cbAdminOrders+string(types.StatusCancelled)), btn("📋 All", cbAdminOrders+"all")),
		row(btn("⬅️ Back", cbAdminPanel)),
	)
}

func adminOrderListKeyboard(orders []*types.Order) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(orders)+1)
	for _, o := range orders {
		label := fmt.Sprintf("%s — $%s (%s)", o.ID, o.Total.StringFixed(2), o.Status)
		rows = append(rows, row(btn(label, cbAdminOrder+o.ID)))
	}
	rows = append(rows, row(btn("⬅️ Back", cbAdminOrders+"filters")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

var statusLabels = map[types.OrderStatus]string{
	types.StatusPaid:      "✅ Mark Paid",
	types.StatusShipped:   "🚚 Mark Shipped",
	types.StatusCompleted: "🎉 Mark Completed",
	types.StatusCancelled: "❌ Cancel Order",
}

// adminOrderKeyboard offers only the transitions legal from the order's
// current status.
func adminOrderKeyboard(o *types.Order) tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, to := range []types.OrderStatus{types.StatusPaid, types.StatusShipped, types.StatusCompleted, types.StatusCancelled} {
		if order.CanTransition(o.Status, to) {
			buttons = append(buttons, btn(statusLabels[to], fmt.Sprintf("%s%s_%s", cbStatus, o.ID, to)))
		}
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 3)
	for i := 0; i < len(buttons); i += 2 {
		end := i + 2
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, row(buttons[i:end]...))
	}
	rows = append(rows, row(btn("⬅️ Back", cbAdminOrders+"all")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// optionsKeyboard renders a flow prompt's choices, with a cancel row so
// a flow can always be abandoned mid-step.
func optionsKeyboard(options []session.Option) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options)+1)
	for _, o := range options {
		data := cbOption + o.Value
		if o.Value == cbBroadcastYes || o.Value == cbBroadcastNo {
			data = o.Value
		}
		rows = append(rows, row(btn(o.Label, data)))
	}
	rows = append(rows, row(btn("❌ Cancel", cbCancelFlow)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(row(btn("❌ Cancel", cbCancelFlow)))
}
