// Package telegram is the delivery transport: it maps bot updates onto
// the session engine, cart, catalog, and order operations, and renders
// their results back as chat messages and inline keyboards.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dshills/storebot/pkg/types"
)

// Channel sends content to a chat. It is the notify.Sender used by the
// notifier and the broadcast dispatcher.
type Channel struct {
	api *tgbotapi.BotAPI
}

// NewChannel wraps a bot API client as a delivery channel.
func NewChannel(api *tgbotapi.BotAPI) *Channel {
	return &Channel{api: api}
}

// Send delivers one piece of content to a recipient chat. Text renders
// as Markdown; images are sent by file id with an optional caption.
func (c *Channel) Send(ctx context.Context, recipient int64, content types.Content) error {
	switch content.Kind {
	case types.ContentImage:
		photo := tgbotapi.NewPhoto(recipient, tgbotapi.FileID(content.ImageRef))
		photo.Caption = content.Caption
		photo.ParseMode = tgbotapi.ModeMarkdown
		_, err := c.api.Send(photo)
		return err
	case types.ContentText:
		msg := tgbotapi.NewMessage(recipient, content.Text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		_, err := c.api.Send(msg)
		return err
	default:
		return fmt.Errorf("unsupported content kind %q", content.Kind)
	}
}
