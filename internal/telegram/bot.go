package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dshills/storebot/internal/cart"
	"github.com/dshills/storebot/internal/catalog"
	"github.com/dshills/storebot/internal/notify"
	"github.com/dshills/storebot/internal/order"
	"github.com/dshills/storebot/internal/session"
	"github.com/dshills/storebot/internal/storage"
	"github.com/dshills/storebot/pkg/types"
)

// Bot polls for updates and routes them to the storefront services.
type Bot struct {
	api     *tgbotapi.BotAPI
	channel *Channel
	eng     *session.Engine
	carts   *cart.Service
	catalog *catalog.Service
	orders  *order.Manager
	store   storage.Store
	logger  *log.Logger
}

// NewBot assembles the transport around an authorized API client.
func NewBot(api *tgbotapi.BotAPI, eng *session.Engine, carts *cart.Service, cat *catalog.Service, orders *order.Manager, store storage.Store, logger *log.Logger) *Bot {
	return &Bot{
		api:     api,
		channel: NewChannel(api),
		eng:     eng,
		carts:   carts,
		catalog: cat,
		orders:  orders,
		store:   store,
		logger:  logger,
	}
}

// Run polls until ctx is cancelled. Each update is handled on its own
// goroutine; per-user ordering comes from the session store's locks, so
// two updates from one user never interleave mid-transition.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)
	b.logger.Printf("bot started as @%s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Printf("panic in update handler: %v", r)
		}
	}()

	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) rememberUser(ctx context.Context, from *tgbotapi.User) {
	if from == nil {
		return
	}
	u := &types.User{
		ID:        from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	}
	if err := b.store.UpsertUser(ctx, u); err != nil {
		b.logger.Printf("upsert user %d: %v", from.ID, err)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	b.rememberUser(ctx, msg.From)
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.sendText(chatID, renderWelcome(msg.From.FirstName), mainMenuKeyboard(b.eng.IsAdmin(userID)))
		case "admin":
			if b.eng.IsAdmin(userID) {
				b.sendText(chatID, "⚙️ *Admin Panel*", adminPanelKeyboard())
			} else {
				b.sendText(chatID, "⛔ Access denied.", nil)
			}
		case "cancel":
			out, err := b.eng.Handle(ctx, userID, msg.From.UserName, session.CancelInput())
			if errors.Is(err, session.ErrNoActiveFlow) {
				b.sendText(chatID, "Nothing to cancel.", nil)
				return
			}
			b.renderOutcome(ctx, chatID, userID, session.FlowNone, out, err)
		default:
			b.sendText(chatID, "Unknown command. Try /start.", nil)
		}
		return
	}

	flow := b.eng.Sessions().ActiveFlow(userID)
	if flow == session.FlowNone {
		b.sendText(chatID, "Use the menu below 👇", mainMenuKeyboard(b.eng.IsAdmin(userID)))
		return
	}

	in := session.TextInput(msg.Text)
	if len(msg.Photo) > 0 {
		// Largest size is last
		in = session.ImageInput(msg.Photo[len(msg.Photo)-1].FileID, msg.Caption)
	}
	out, err := b.eng.Handle(ctx, userID, msg.From.UserName, in)
	b.renderOutcome(ctx, chatID, userID, flow, out, err)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Printf("callback ack: %v", err)
	}
	b.rememberUser(ctx, cq.From)
	if cq.Message == nil {
		return
	}
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID
	data := cq.Data

	switch {
	case data == cbMainMenu:
		b.sendText(chatID, renderWelcome(cq.From.FirstName), mainMenuKeyboard(b.eng.IsAdmin(userID)))
	case data == cbBrowse:
		b.showCategories(ctx, chatID)
	case strings.HasPrefix(data, cbCategory):
		b.showCategory(ctx, chatID, strings.TrimPrefix(data, cbCategory))
	case strings.HasPrefix(data, cbProduct):
		b.showProduct(ctx, chatID, trimID(data, cbProduct))
	case strings.HasPrefix(data, cbAddToCart):
		b.cartMutation(ctx, chatID, userID, trimID(data, cbAddToCart), b.carts.Add, "✅ Added to cart!")
	case data == cbViewCart:
		b.showCart(ctx, chatID, userID)
	case strings.HasPrefix(data, cbIncrease):
		b.cartMutation(ctx, chatID, userID, trimID(data, cbIncrease), b.carts.Increase, "")
		b.showCart(ctx, chatID, userID)
	case strings.HasPrefix(data, cbDecrease):
		b.cartMutation(ctx, chatID, userID, trimID(data, cbDecrease), b.carts.Decrease, "")
		b.showCart(ctx, chatID, userID)
	case strings.HasPrefix(data, cbRemove):
		b.cartMutation(ctx, chatID, userID, trimID(data, cbRemove), b.carts.Remove, "")
		b.showCart(ctx, chatID, userID)
	case data == cbCheckout:
		out, err := b.eng.StartCheckout(ctx, userID)
		b.renderOutcome(ctx, chatID, userID, session.FlowNone, out, err)
	case data == cbMyOrders:
		b.showMyOrders(ctx, chatID, userID)
	case data == cbCancelFlow:
		out, err := b.eng.Handle(ctx, userID, cq.From.UserName, session.CancelInput())
		if errors.Is(err, session.ErrNoActiveFlow) {
			return
		}
		b.renderOutcome(ctx, chatID, userID, session.FlowNone, out, err)
	case strings.HasPrefix(data, cbOption):
		value := strings.TrimPrefix(data, cbOption)
		in := session.SelectInput(value)
		if value == "skip" {
			in = session.SkipInput()
		}
		flow := b.eng.Sessions().ActiveFlow(userID)
		out, err := b.eng.Handle(ctx, userID, cq.From.UserName, in)
		b.renderOutcome(ctx, chatID, userID, flow, out, err)
	default:
		b.handleAdminCallback(ctx, cq, chatID, userID, data)
	}
}

func (b *Bot) handleAdminCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, chatID, userID int64, data string) {
	if !b.eng.IsAdmin(userID) {
		b.sendText(chatID, "⛔ Access denied.", nil)
		return
	}

	switch {
	case data == cbAdminPanel:
		b.sendText(chatID, "⚙️ *Admin Panel*", adminPanelKeyboard())
	case data == cbAdminAdd:
		out, err := b.eng.StartAddProduct(ctx, userID)
		b.renderOutcome(ctx, chatID, userID, session.FlowNone, out, err)
	case data == cbAdminManage:
		b.showAdminProducts(ctx, chatID)
	case strings.HasPrefix(data, cbAdminProduct):
		b.showAdminProduct(ctx, chatID, trimID(data, cbAdminProduct))
	case strings.HasPrefix(data, cbAdminEdit):
		out, err := b.eng.StartEditProduct(ctx, userID, trimID(data, cbAdminEdit))
		b.renderOutcome(ctx, chatID, userID, session.FlowNone, out, err)
	case strings.HasPrefix(data, cbAdminDelete):
		id := trimID(data, cbAdminDelete)
		kb := deleteConfirmKeyboard(id)
		b.sendText(chatID, "⚠️ *Delete this product?*\n\nThis cannot be undone.", kb)
	case strings.HasPrefix(data, cbAdminConfirm):
		b.deleteProduct(ctx, chatID, trimID(data, cbAdminConfirm))
	case strings.HasPrefix(data, cbAdminToggle):
		b.toggleProduct(ctx, chatID, trimID(data, cbAdminToggle))
	case data == cbAdminOrders+"filters":
		b.sendText(chatID, "📋 *Orders*\n\nFilter by status:", adminOrderFiltersKeyboard())
	case strings.HasPrefix(data, cbAdminOrders):
		b.showAdminOrders(ctx, chatID, strings.TrimPrefix(data, cbAdminOrders))
	case strings.HasPrefix(data, cbAdminOrder):
		b.showAdminOrder(ctx, chatID, strings.TrimPrefix(data, cbAdminOrder))
	case strings.HasPrefix(data, cbStatus):
		b.transitionOrder(ctx, chatID, strings.TrimPrefix(data, cbStatus))
	case data == cbBroadcast:
		out, err := b.eng.StartBroadcast(ctx, userID)
		b.renderOutcome(ctx, chatID, userID, session.FlowNone, out, err)
	case data == cbBroadcastYes:
		b.runBroadcast(ctx, chatID, userID)
	case data == cbBroadcastNo:
		if err := b.eng.CancelBroadcast(userID); err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendText(chatID, "❌ Broadcast cancelled.", nil)
	default:
		b.logger.Printf("unhandled callback %q from %d", data, userID)
	}
}

// renderOutcome turns a flow outcome (or its error) into chat output.
// priorFlow lets the broadcast preview be shown when the compose flow
// just finished.
func (b *Bot) renderOutcome(ctx context.Context, chatID, userID int64, priorFlow session.FlowKind, out session.Outcome, err error) {
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if priorFlow == session.FlowBroadcast && out.Done {
		if preview, ok := b.eng.PendingBroadcast(userID); ok {
			if err := b.channel.Send(ctx, chatID, preview); err != nil {
				b.logger.Printf("send preview: %v", err)
			}
		}
	}
	if out.Prompt.Kind == "" {
		return
	}
	var kb *tgbotapi.InlineKeyboardMarkup
	if len(out.Options) > 0 {
		markup := optionsKeyboard(out.Options)
		kb = &markup
	} else if !out.Done {
		markup := cancelKeyboard()
		kb = &markup
	}
	b.sendContent(ctx, chatID, out.Prompt, kb)
}

func (b *Bot) sendError(chatID int64, err error) {
	switch {
	case errors.Is(err, session.ErrAccessDenied):
		b.sendText(chatID, "⛔ Access denied.", nil)
	case errors.Is(err, session.ErrSessionExpired):
		b.sendText(chatID, "⌛ Session expired. Please start over.", nil)
	case errors.Is(err, session.ErrNoPendingBroadcast):
		b.sendText(chatID, "Nothing is waiting to be sent.", nil)
	case errors.Is(err, order.ErrEmptyCart):
		b.sendText(chatID, "🛒 Your cart is empty. Add something first!", nil)
	case errors.Is(err, order.ErrInvalidTransition):
		b.sendText(chatID, "❌ That status change is not allowed.", nil)
	case errors.Is(err, storage.ErrNotFound):
		b.sendText(chatID, "🔍 Not found. It may have been removed.", nil)
	default:
		b.logger.Printf("handler error: %v", err)
		b.sendText(chatID, "⚠️ Something went wrong. Please try again.", nil)
	}
}

func (b *Bot) showCategories(ctx context.Context, chatID int64) {
	categories, err := b.catalog.Categories(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.sendText(chatID, "🛍 *Products*\n\nPick a category:", categoriesKeyboard(categories))
}

func (b *Bot) showCategory(ctx context.Context, chatID int64, category string) {
	products, err := b.catalog.ListByCategory(ctx, category)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if len(products) == 0 {
		b.sendText(chatID, fmt.Sprintf("📁 *%s*\n\nNothing here yet.", category), categoriesKeyboard(nil))
		return
	}
	b.sendText(chatID, fmt.Sprintf("📁 *%s*", category), productsKeyboard(products))
}

func (b *Bot) showProduct(ctx context.Context, chatID, productID int64) {
	p, err := b.catalog.Get(ctx, productID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	kb := productDetailKeyboard(p)
	if p.ImageRef != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(p.ImageRef))
		photo.Caption = renderProductDetail(p)
		photo.ParseMode = tgbotapi.ModeMarkdown
		photo.ReplyMarkup = kb
		if _, err := b.api.Send(photo); err != nil {
			b.logger.Printf("send photo: %v", err)
		}
		return
	}
	b.sendText(chatID, renderProductDetail(p), kb)
}

type cartOp func(ctx context.Context, userID, productID int64) error

// cartMutation applies a cart change under the user's session lock so
// the read-then-write increment cannot race a concurrent tap.
func (b *Bot) cartMutation(ctx context.Context, chatID, userID, productID int64, op cartOp, confirmation string) {
	err := b.eng.Sessions().Do(userID, func(*session.Session) error {
		return op(ctx, userID, productID)
	})
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if confirmation != "" {
		b.sendText(chatID, confirmation, nil)
	}
}

func (b *Bot) showCart(ctx context.Context, chatID, userID int64) {
	lines, err := b.carts.List(ctx, userID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.sendText(chatID, renderCart(lines), cartKeyboard(lines))
}

func (b *Bot) showMyOrders(ctx context.Context, chatID, userID int64) {
	orders, err := b.orders.ListForUser(ctx, userID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.sendText(chatID, renderOrderList("📦 *Your Orders*", orders), mainMenuKeyboard(b.eng.IsAdmin(userID)))
}

func (b *Bot) showAdminProducts(ctx context.Context, chatID int64) {
	products, err := b.catalog.ListAll(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if len(products) == 0 {
		b.sendText(chatID, "📦 *Products*\n\nThe catalog is empty.", adminPanelKeyboard())
		return
	}
	b.sendText(chatID, "📦 *Products*", adminProductsKeyboard(products))
}

func (b *Bot) showAdminProduct(ctx context.Context, chatID, productID int64) {
	p, err := b.catalog.Get(ctx, productID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	state := "🟢 active"
	if !p.Active {
		state = "🔴 inactive"
	}
	text := renderProductDetail(p) + "\n📊 *State:* " + state
	b.sendText(chatID, text, adminProductKeyboard(p))
}

func (b *Bot) deleteProduct(ctx context.Context, chatID, productID int64) {
	if err := b.catalog.Delete(ctx, productID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			b.sendError(chatID, err)
			return
		}
		// Most likely referenced by existing orders
		b.sendText(chatID, "❌ *Cannot delete this product.*\n\nIt belongs to existing orders. Deactivate it instead to hide it from the catalog.", nil)
		return
	}
	b.sendText(chatID, "🗑 Product deleted.", adminPanelKeyboard())
}

func (b *Bot) toggleProduct(ctx context.Context, chatID, productID int64) {
	active, err := b.catalog.ToggleActive(ctx, productID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if active {
		b.sendText(chatID, "🟢 Product is now *active*.", nil)
	} else {
		b.sendText(chatID, "🔴 Product is now *hidden* from the catalog.", nil)
	}
	b.showAdminProduct(ctx, chatID, productID)
}

func (b *Bot) showAdminOrders(ctx context.Context, chatID int64, filter string) {
	orders, err := b.orders.ListAll(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	title := "📋 *All Orders*"
	if filter != "all" {
		status := types.OrderStatus(filter)
		title = fmt.Sprintf("📋 *%s Orders*", strings.ToUpper(filter))
		filtered := orders[:0]
		for _, o := range orders {
			if o.Status == status {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	if len(orders) == 0 {
		b.sendText(chatID, title+"\n\nNo orders here.", adminOrderFiltersKeyboard())
		return
	}
	b.sendText(chatID, title, adminOrderListKeyboard(orders))
}

func (b *Bot) showAdminOrder(ctx context.Context, chatID int64, orderID string) {
	o, err := b.orders.Get(ctx, orderID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.sendText(chatID, renderOrderDetail(o), adminOrderKeyboard(o))
}

// transitionOrder parses "ORD-NNN_<status>" and applies the change.
func (b *Bot) transitionOrder(ctx context.Context, chatID int64, payload string) {
	parts := strings.SplitN(payload, "_", 2)
	if len(parts) != 2 {
		return
	}
	orderID, status := parts[0], types.OrderStatus(parts[1])

	res, err := b.orders.Transition(ctx, orderID, status)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	report := notify.TransitionReport(orderID, status, res.LedgerOK)
	b.sendContent(ctx, chatID, report, nil)
	b.showAdminOrder(ctx, chatID, orderID)
}

func (b *Bot) runBroadcast(ctx context.Context, chatID, userID int64) {
	b.sendText(chatID, "📤 *Broadcast started...*", nil)
	report, err := b.eng.ConfirmBroadcast(ctx, userID, func(p notify.Progress) {
		if p.Done < p.Total {
			b.sendText(chatID, fmt.Sprintf("📤 Sending... %d/%d (✅ %d / ❌ %d)", p.Done, p.Total, p.Succeeded, p.Failed), nil)
		}
	})
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.sendText(chatID, fmt.Sprintf(
		"✅ *Broadcast Complete!*\n\n👥 Attempted: %d\n✅ Delivered: %d\n❌ Failed: %d\n⏱ Took: %s",
		report.Attempted, report.Succeeded, report.Failed, report.Duration.Round(10*time.Millisecond)), nil)
}

// sendText delivers a Markdown message, optionally with an inline
// keyboard. kb is any of the keyboard markup values or nil.
func (b *Bot) sendText(chatID int64, text string, kb interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if kb != nil {
		msg.ReplyMarkup = kb
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Printf("send message: %v", err)
	}
}

// sendContent delivers flow content, which may be text or an image.
func (b *Bot) sendContent(ctx context.Context, chatID int64, content types.Content, kb *tgbotapi.InlineKeyboardMarkup) {
	switch content.Kind {
	case types.ContentImage:
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(content.ImageRef))
		photo.Caption = content.Caption
		photo.ParseMode = tgbotapi.ModeMarkdown
		if kb != nil {
			photo.ReplyMarkup = *kb
		}
		if _, err := b.api.Send(photo); err != nil {
			b.logger.Printf("send photo: %v", err)
		}
	case types.ContentText:
		if kb != nil {
			b.sendText(chatID, content.Text, *kb)
			return
		}
		b.sendText(chatID, content.Text, nil)
	}
}

func trimID(data, prefix string) int64 {
	id, _ := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	return id
}
