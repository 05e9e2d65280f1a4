// Package telegram connects the chat router to the Telegram Bot API.
package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"aquatallyon/internal/adapters/chat"
	"aquatallyon/internal/application/projections"
	"aquatallyon/internal/domain/week"
)

// DisplayName is the user's full name, falling back to the username.
func DisplayName(u *tgbotapi.User) string {
	if u == nil {
		return week.UnknownAlias
	}
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return week.UnknownAlias
}

func userFrom(u *tgbotapi.User) chat.User {
	return chat.User{ID: uint64(u.ID), Alias: DisplayName(u)}
}

// commandFromMessage extracts a slash command. It reports false for plain
// text and for messages without a sender (channel posts).
func commandFromMessage(m *tgbotapi.Message) (chat.Command, bool) {
	if m == nil || m.From == nil || m.Chat == nil || !m.IsCommand() {
		return chat.Command{}, false
	}
	return chat.Command{
		ChatID: m.Chat.ID,
		From:   userFrom(m.From),
		Name:   strings.ToLower(m.Command()),
		Args:   strings.TrimSpace(m.CommandArguments()),
	}, true
}

// pressFromCallback converts a button press. Presses on inline-mode messages
// carry no message, so MessageID stays 0.
func pressFromCallback(q *tgbotapi.CallbackQuery) (chat.ButtonPress, bool) {
	if q == nil || q.From == nil {
		return chat.ButtonPress{}, false
	}
	press := chat.ButtonPress{
		ID:     q.ID,
		From:   userFrom(q.From),
		Action: q.Data,
	}
	if q.Message != nil && q.Message.Chat != nil {
		press.ChatID = q.Message.Chat.ID
		press.MessageID = q.Message.MessageID
	}
	return press, true
}

// toMarkup converts a keyboard to Telegram inline buttons.
func toMarkup(k projections.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(k.Rows))
	for _, r := range k.Rows {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Action))
		}
		rows = append(rows, row)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}
