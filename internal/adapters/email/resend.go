package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
)

// digestTag marks digest mails in the Resend dashboard.
var digestTag = resend.Tag{Name: "category", Value: "weekly_digest"}

// ResendTransport delivers reports through the Resend API.
type ResendTransport struct {
	emails resend.EmailsSvc
	from   string
}

// NewResendTransport creates a transport sending from the given address.
// PRE: apiKey is a valid Resend API key; from is a valid sender address
// POST: Returns a ready-to-use transport
func NewResendTransport(apiKey, from string) *ResendTransport {
	return &ResendTransport{emails: resend.NewClient(apiKey).Emails, from: from}
}

// Deliver sends r as a single email to every recipient.
// Resend drops a repeat of the same subject within its idempotency window.
// PRE: to is non-empty; r.Subject is non-empty
// POST: Returns the Resend message id
func (t *ResendTransport) Deliver(ctx context.Context, to []string, r Report) (string, error) {
	sent, err := t.emails.SendWithOptions(ctx, &resend.SendEmailRequest{
		From:    t.from,
		To:      to,
		Subject: r.Subject,
		Html:    r.HTML,
		Text:    r.Text,
		Tags:    []resend.Tag{digestTag},
	}, &resend.SendEmailOptions{IdempotencyKey: idempotencyKey(r.Subject)})
	if err != nil {
		return "", fmt.Errorf("resend deliver %q: %w", r.Subject, err)
	}
	return sent.Id, nil
}

// idempotencyKey derives a stable key from the subject, which names the week's date range.
func idempotencyKey(subject string) string {
	return "digest/" + strings.ReplaceAll(strings.ToLower(subject), " ", "-")
}
