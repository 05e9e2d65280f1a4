package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"aquatallyon/internal/adapters/chat"
	"aquatallyon/internal/application/projections"
)

// api is the slice of *tgbotapi.BotAPI the messenger needs.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Messenger implements chat.Messenger over the Bot API. Replies use HTML parse mode.
type Messenger struct {
	api api
}

var _ chat.Messenger = (*Messenger)(nil)

// NewMessenger wraps a connected bot.
func NewMessenger(bot *tgbotapi.BotAPI) *Messenger {
	return &Messenger{api: bot}
}

// Send posts a new HTML message.
// PRE: text is valid Telegram HTML
// POST: message sent or error returned
func (m *Messenger) Send(ctx context.Context, chatID int64, text string, controls *projections.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if controls != nil && len(controls.Rows) > 0 {
		msg.ReplyMarkup = toMarkup(*controls)
	}
	if _, err := m.api.Send(msg); err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}

// Edit replaces an earlier message. Re-sending identical content is not an error.
// PRE: messageID belongs to chatID
// POST: message updated, unchanged, or error returned
func (m *Messenger) Edit(ctx context.Context, chatID int64, messageID int, text string, controls *projections.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if controls != nil {
		markup := toMarkup(*controls)
		edit.ReplyMarkup = &markup
	}
	if _, err := m.api.Send(edit); err != nil {
		if isNotModified(err) {
			return nil
		}
		return fmt.Errorf("edit message %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

// Ack answers a callback query so the client stops its spinner.
func (m *Messenger) Ack(_ context.Context, pressID string, text string) error {
	if _, err := m.api.Request(tgbotapi.NewCallback(pressID, text)); err != nil {
		return fmt.Errorf("answer callback %s: %w", pressID, err)
	}
	return nil
}

func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}
