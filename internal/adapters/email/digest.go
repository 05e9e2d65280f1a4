package email

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"strings"
)

// ErrNoRecipients is returned when a digest has nowhere to go.
var ErrNoRecipients = errors.New("digest has no recipients")

// Digest mails a chat-formatted report to a fixed recipient list.
type Digest struct {
	transport Transport
	to        []string
}

// NewDigest creates a digest mailer.
// PRE: transport is non-nil
func NewDigest(transport Transport, to []string) *Digest {
	return &Digest{transport: transport, to: to}
}

// SendDigest mails body, which uses the chat HTML subset, with an HTML and a plain-text part.
// PRE: subject is non-empty
// POST: one email to every configured recipient, or ErrNoRecipients
func (d *Digest) SendDigest(ctx context.Context, subject, body string) error {
	if len(d.to) == 0 {
		return ErrNoRecipients
	}
	id, err := d.transport.Deliver(ctx, d.to, Report{
		Subject: subject,
		HTML:    digestHTML(body),
		Text:    digestText(body),
	})
	if err != nil {
		return err
	}
	slog.Info("digest_sent", "message_id", id, "recipients", len(d.to), "subject", subject)
	return nil
}

// digestHTML turns chat line breaks into HTML ones. The chat subset tags are valid HTML already.
func digestHTML(body string) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: sans-serif; line-height: 1.4">`)
	b.WriteString(strings.ReplaceAll(body, "\n", "<br>\n"))
	b.WriteString(`</div>`)
	return b.String()
}

// digestText drops markup, keeps cancellations visible as ~name~ and unescapes entities.
func digestText(body string) string {
	body = strings.NewReplacer("<s>", "~", "</s>", "~").Replace(body)
	var b strings.Builder
	inTag := false
	for _, r := range body {
		switch {
		case r == '<':
			inTag = true
		case r == '>' && inTag:
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return html.UnescapeString(b.String())
}
