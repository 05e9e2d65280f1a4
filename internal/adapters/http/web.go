// Package web serves the status and operator surface next to the chat bot.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"aquatallyon/internal/adapters/http/middleware"
	"aquatallyon/internal/adapters/perf"
	"aquatallyon/internal/adapters/ratelimit"
	attendanceStore "aquatallyon/internal/adapters/storage/attendance"
	auditStore "aquatallyon/internal/adapters/storage/audit"
	"aquatallyon/internal/application/orchestrators"
	"aquatallyon/internal/application/weekstate"
)

// Deps holds the HTTP surface's collaborators. Optional fields may be left nil.
type Deps struct {
	Guard      *weekstate.Guard
	Attendance attendanceStore.Store      // optional: nil disables save and archives
	Audit      auditStore.Store           // optional: nil disables the audit view
	Digest     orchestrators.DigestMailer // optional
	Collector  *perf.Collector            // optional
	Limiter    *ratelimit.Limiter         // optional: per-IP request limit

	AdminHash      []byte // bcrypt hash; empty disables /admin
	CSRFKey        []byte // 32 bytes
	TrustedOrigins []string
	SlowRequestMs  int
	Now            func() time.Time // injectable for testing
}

// server carries the dependencies every handler reads.
type server struct {
	deps Deps
}

// NewMux wires HTTP handlers for the status server.
// PRE: deps.Guard is non-nil; deps.CSRFKey is 32 bytes
// POST: Returns a handler with the full middleware chain applied
func NewMux(deps Deps) http.Handler {
	s := &server{deps: deps}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	if len(deps.AdminHash) > 0 {
		admin := middleware.RequireAdmin(deps.AdminHash)
		mux.Handle("GET /admin", admin(http.HandlerFunc(s.handleAdmin)))
		mux.Handle("GET /admin/report", admin(http.HandlerFunc(s.handleAdminReport)))
		mux.Handle("POST /admin/save", admin(http.HandlerFunc(s.handleAdminSave)))
		mux.Handle("POST /admin/new-week", admin(http.HandlerFunc(s.handleAdminNewWeek)))
		mux.Handle("GET /admin/archives/{id}", admin(http.HandlerFunc(s.handleAdminArchive)))
		mux.Handle("GET /admin/audit", admin(http.HandlerFunc(s.handleAdminAuditTrail)))
		mux.Handle("GET /admin/perf", admin(http.HandlerFunc(s.handleAdminPerf)))
	} else {
		slog.Warn("admin_disabled", "reason", "no admin password hash configured")
	}

	// Timing -> RateLimit -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(deps.CSRFKey, deps.TrustedOrigins),
		middleware.RateLimit(deps.Limiter),
		middleware.Timing(deps.Collector, deps.SlowRequestMs),
	)
}
