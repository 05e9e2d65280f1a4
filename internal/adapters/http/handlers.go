package web

import (
	"bytes"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"aquatallyon/internal/domain/week"
)

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown converts markdown to HTML, falling back to escaped text.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// chatHTML turns a rendered chat report into page markup.
// Report text is already escaped by the projections and only uses b, i and s tags.
func chatHTML(report string) template.HTML {
	return template.HTML(strings.ReplaceAll(report, "\n", "<br>\n"))
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json_encode_failed", "error", err)
	}
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func renderTemplate(w http.ResponseWriter, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

type healthResponse struct {
	Status    string `json:"status"`
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`
	Sessions  int    `json:"sessions"`
}

// handleHealthz reports liveness and the week being tracked (GET /healthz).
// PRE: none
// POST: 200 with a short JSON status; takes only a read lock
func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	var resp healthResponse
	s.deps.Guard.Read(func(wk *week.WeeklyAttendance) {
		resp = healthResponse{
			Status:    "ok",
			WeekStart: wk.StartDate,
			WeekEnd:   wk.EndDate,
			Sessions:  len(wk.Sessions),
		}
	})
	writeJSON(w, http.StatusOK, resp)
}
