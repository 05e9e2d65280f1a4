package email

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"
)

// NoopTransport logs reports instead of delivering them. Used when no Resend key is configured.
type NoopTransport struct {
	seq atomic.Uint64
}

// Deliver logs the report and returns a local message id.
func (n *NoopTransport) Deliver(_ context.Context, to []string, r Report) (string, error) {
	id := "noop-" + strconv.FormatUint(n.seq.Add(1), 10)
	slog.Info("digest_not_delivered", "message_id", id, "recipients", len(to), "subject", r.Subject, "bytes", len(r.HTML))
	return id, nil
}
