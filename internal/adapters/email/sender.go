// Package email mails the closing week's training log to organizers.
package email

import "context"

// Report is one rendered training log ready for delivery.
type Report struct {
	Subject string
	HTML    string
	Text    string // plain-text alternative for clients that refuse HTML
}

// Transport hands a report to a mail provider and returns the provider's message id.
type Transport interface {
	Deliver(ctx context.Context, to []string, r Report) (string, error)
}
