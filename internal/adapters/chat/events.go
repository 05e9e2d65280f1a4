// Package chat turns transport-neutral chat events into orchestrator calls
// and their replies. The concrete chat platform lives in adapters/telegram.
package chat

import (
	"context"

	"aquatallyon/internal/application/projections"
)

// User is the sender of an event.
type User struct {
	ID    uint64
	Alias string // display name at the time of the event
}

// Command is a slash command such as "/add 2, Sunday, Ride, ECP, 06:00".
type Command struct {
	ChatID int64
	From   User
	Name   string // lower case, without the slash or bot suffix
	Args   string // raw text after the command
}

// ButtonPress is a tap on an inline control.
type ButtonPress struct {
	ID        string // acknowledgement handle
	ChatID    int64
	MessageID int // message carrying the control; 0 when unavailable
	From      User
	Action    string
}

// Messenger sends replies back to the chat platform.
type Messenger interface {
	// Send posts a new message. controls may be nil.
	Send(ctx context.Context, chatID int64, text string, controls *projections.Keyboard) error
	// Edit replaces the text and controls of an earlier message.
	Edit(ctx context.Context, chatID int64, messageID int, text string, controls *projections.Keyboard) error
	// Ack answers a button press. text may be empty.
	Ack(ctx context.Context, pressID string, text string) error
}
