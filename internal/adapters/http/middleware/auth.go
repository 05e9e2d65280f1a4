package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const operatorContextKey contextKey = "operator"

const adminRealm = `Basic realm="aquatallyon admin", charset="UTF-8"`

// RequireAdmin returns middleware that checks HTTP basic auth against a bcrypt hash.
// Any username is accepted and recorded as the operator name; only the password is checked.
// PRE: hash is a bcrypt hash
// POST: Requests without a matching password get 401 and never reach next
func RequireAdmin(hash []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || bcrypt.CompareHashAndPassword(hash, []byte(pass)) != nil {
				if ok {
					slog.Warn("admin_auth_failed", "ip", clientIP(r), "user", user)
				}
				w.Header().Set("WWW-Authenticate", adminRealm)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if user == "" {
				user = "admin"
			}
			next.ServeHTTP(w, r.WithContext(ContextWithOperator(r.Context(), user)))
		})
	}
}

// OperatorFromContext returns the authenticated operator name.
func OperatorFromContext(ctx context.Context) (string, bool) {
	op, ok := ctx.Value(operatorContextKey).(string)
	return op, ok
}

// ContextWithOperator returns a context carrying the operator name.
// Intended for use in tests.
func ContextWithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorContextKey, operator)
}
