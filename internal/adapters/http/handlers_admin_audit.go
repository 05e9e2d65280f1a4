package web

import (
	"html/template"
	"net/http"
	"strconv"
	"time"

	auditStore "aquatallyon/internal/adapters/storage/audit"
	auditDomain "aquatallyon/internal/domain/audit"
)

var auditTmpl = template.Must(template.New("audit").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Audit trail</title></head>
<body><p><a href="/admin">Back</a></p>
<table><tr><th>When</th><th>Category</th><th>Action</th><th>Who</th><th>Session</th><th>Week</th><th>What</th></tr>
{{range .Events}}<tr><td>{{.Timestamp.Format "2006-01-02 15:04"}}</td><td>{{.Category}}</td><td>{{.Action}}</td><td>{{.ActorAlias}}</td><td>{{if .SessionID}}{{.SessionID}}{{end}}</td><td>{{.WeekStart}}</td><td>{{.Description}}</td></tr>
{{end}}</table></body></html>`))

// handleAdminAuditTrail lists audit events (GET /admin/audit).
// PRE: request passed RequireAdmin
// POST: Renders or returns JSON for events matching the optional filters
func (s *server) handleAdminAuditTrail(w http.ResponseWriter, r *http.Request) {
	if s.deps.Audit == nil {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	q := r.URL.Query()

	// Parse query parameters for filtering
	filter := auditStore.Filter{}

	if category := q.Get("category"); category != "" {
		cat := auditDomain.Category(category)
		filter.Category = &cat
	}
	if action := q.Get("action"); action != "" {
		act := auditDomain.Action(action)
		filter.Action = &act
	}
	if actorID := q.Get("actor_id"); actorID != "" {
		id, err := strconv.ParseUint(actorID, 10, 64)
		if err != nil {
			http.Error(w, "actor_id must be a number", http.StatusBadRequest)
			return
		}
		filter.ActorID = &id
	}
	if weekStart := q.Get("week"); weekStart != "" {
		filter.WeekStart = &weekStart
	}

	// Parse limit, default to 100
	limit := 100
	if limitStr := q.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	events, err := s.deps.Audit.List(ctx, filter, limit)
	if err != nil {
		internalError(w, err)
		return
	}

	if isHTMLRequest(r) {
		renderTemplate(w, auditTmpl, map[string]any{"Events": events})
		return
	}
	if events == nil {
		events = []auditDomain.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// handleAdminPerf returns the timing snapshot as JSON (GET /admin/perf).
// ?since=30m narrows the window; the default is the last hour.
func (s *server) handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if s.deps.Collector == nil {
		http.NotFound(w, r)
		return
	}
	window := time.Hour
	if v := r.URL.Query().Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			http.Error(w, "since must be a positive duration", http.StatusBadRequest)
			return
		}
		window = d
	}
	writeJSON(w, http.StatusOK, s.deps.Collector.Snapshot(time.Now().Add(-window), 10))
}
