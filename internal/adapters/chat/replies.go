package chat

import (
	"errors"
	"fmt"

	"aquatallyon/internal/application/orchestrators"
	"aquatallyon/internal/domain/week"
)

const (
	replySaved        = "✅ Attendance successfully synced!"
	replySaveFailed   = "❌ Could not save attendance. Please try again later."
	replyUnexpected   = "❌ Something went wrong. Please try again."
	replySessionLimit = "⚠️ No more sessions can be added this week."
	replyFormatDelete = "❌ Format: /delete order"

	ackSlowDown = "⏳ Slow down a little."
	ackFailed   = "Something went wrong."
)

func formatReply(command string) string {
	return fmt.Sprintf("❌ Format: /%s order, day, activity, location, time", command)
}

func forbiddenReply(command string) string {
	return fmt.Sprintf("⛔ Only organizers can use /%s.", command)
}

// errorReply maps an orchestrator error to the text shown in chat.
func errorReply(cmd Command, order int, err error) string {
	switch {
	case errors.Is(err, orchestrators.ErrForbidden):
		return forbiddenReply(cmd.Name)
	case errors.Is(err, week.ErrSessionLimit):
		return replySessionLimit
	case errors.Is(err, week.ErrNotFound):
		if cmd.Name == cmdDelete {
			return fmt.Sprintf("⚠️ Order #%d not found. Check the list and try again.", order)
		}
		return fmt.Sprintf("⚠️ Session #%d not found.", order)
	}

	var vErr *week.ValidationError
	if errors.As(err, &vErr) {
		if cmd.Name == cmdDelete {
			return replyFormatDelete
		}
		return formatReply(cmd.Name)
	}
	var pErr *orchestrators.PersistenceError
	if errors.As(err, &pErr) {
		return replySaveFailed
	}
	return replyUnexpected
}
