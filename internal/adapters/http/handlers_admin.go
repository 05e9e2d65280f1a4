package web

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"

	"aquatallyon/internal/adapters/http/middleware"
	attendanceStore "aquatallyon/internal/adapters/storage/attendance"
	"aquatallyon/internal/application/orchestrators"
	"aquatallyon/internal/application/projections"
)

// archiveListLimit caps the archives shown on the admin page.
const archiveListLimit = 12

const operatorGuide = `### Operator guide

Members mark attendance with the buttons under the report in the chat.
Organizers manage the week with chat commands:

- ` + "`/add order, day, activity, location, time`" + ` inserts a session
- ` + "`/edit order, day, activity, location, time`" + ` rewrites one
- ` + "`/delete order`" + ` removes one
- ` + "`/new_week`" + ` archives this week and starts the next
- ` + "`/save`" + ` writes attendance to the database

**Save now** does the same as ` + "`/save`" + `. **Start next week** does the same as ` + "`/new_week`" + `;
chat messages already posted keep their old text until someone presses a button.`

var guideHTML = renderMarkdown(operatorGuide)

var adminTmpl = template.Must(template.New("admin").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>aquatallyon admin</title>
<style>body{font-family:sans-serif;max-width:48rem;margin:2rem auto}form{display:inline}</style></head>
<body>
<p>Signed in as {{.Operator}}{{if .Flash}} &middot; <strong>{{.Flash}}</strong>{{end}}</p>
<section>{{.Report}}</section>
<p>
{{if .CanSave}}<form method="post" action="/admin/save"><input type="hidden" name="gorilla.csrf.Token" value="{{.CSRFToken}}"><button>Save now</button></form>{{end}}
<form method="post" action="/admin/new-week"><input type="hidden" name="gorilla.csrf.Token" value="{{.CSRFToken}}"><button>Start next week</button></form>
</p>
{{if .Archives}}<h3>Archived weeks</h3><ul>
{{range .Archives}}<li><a href="/admin/archives/{{.ID}}">{{.StartDate}} to {{.EndDate}}</a></li>
{{end}}</ul>{{end}}
<p><a href="/admin/audit">Audit trail</a> &middot; <a href="/admin/perf">Performance</a> &middot; <a href="/admin/report">Plain report</a></p>
<section>{{.Guide}}</section>
</body></html>`))

var archiveTmpl = template.Must(template.New("archive").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Archive {{.StartDate}}</title></head>
<body><p><a href="/admin">Back</a></p><section>{{.Report}}</section></body></html>`))

type adminPage struct {
	Operator  string
	Flash     string
	Report    template.HTML
	CSRFToken string
	CanSave   bool
	Archives  []attendanceStore.ArchiveSummary
	Guide     template.HTML
}

var flashMessages = map[string]string{
	"saved":  "Attendance saved.",
	"rolled": "Next week started.",
}

// operatorActor names the web operator in the audit log.
func operatorActor(r *http.Request) orchestrators.Actor {
	op, ok := middleware.OperatorFromContext(r.Context())
	if !ok {
		op = "admin"
	}
	return orchestrators.Actor{Alias: "web:" + op}
}

// handleAdmin renders the operator page (GET /admin).
// PRE: request passed RequireAdmin
// POST: Renders the live report, action forms and recent archives
func (s *server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	view := orchestrators.ExecuteShowAttendance(s.deps.Guard)
	page := adminPage{
		Operator:  operatorActor(r).Alias,
		Flash:     flashMessages[r.URL.Query().Get("done")],
		Report:    chatHTML(view.Text),
		CSRFToken: csrf.Token(r),
		CanSave:   s.deps.Attendance != nil,
		Guide:     guideHTML,
	}
	if s.deps.Attendance != nil {
		archives, err := s.deps.Attendance.ListArchives(r.Context(), archiveListLimit)
		if err != nil {
			internalError(w, err)
			return
		}
		page.Archives = archives
	}
	renderTemplate(w, adminTmpl, page)
}

// handleAdminReport returns the live report as chat markup (GET /admin/report).
// ?view=log returns the per-session summary instead.
func (s *server) handleAdminReport(w http.ResponseWriter, r *http.Request) {
	var text string
	if r.URL.Query().Get("view") == "log" {
		text = orchestrators.ExecuteShowLog(s.deps.Guard).Text
	} else {
		text = orchestrators.ExecuteShowAttendance(s.deps.Guard).Text
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

// handleAdminSave flushes attendance to storage (POST /admin/save).
// PRE: request passed RequireAdmin and CSRF checks
// POST: Same effect as the chat save command; redirects or returns JSON
func (s *server) handleAdminSave(w http.ResponseWriter, r *http.Request) {
	if s.deps.Attendance == nil {
		http.Error(w, "storage not configured", http.StatusServiceUnavailable)
		return
	}
	result, err := orchestrators.ExecuteSaveAttendance(r.Context(), orchestrators.SaveAttendanceInput{
		Actor: operatorActor(r),
	}, orchestrators.SaveAttendanceDeps{
		Guard:      s.deps.Guard,
		Sink:       s.deps.Attendance,
		StateStore: s.deps.Attendance,
		Audit:      s.auditLog(),
		Now:        s.deps.Now,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	slog.Info("admin_action", "action", "save", "rows", result.Rows)
	if isJSONRequest(r) {
		writeJSON(w, http.StatusOK, map[string]int{"rows": result.Rows})
		return
	}
	http.Redirect(w, r, "/admin?done=saved", http.StatusSeeOther)
}

// handleAdminNewWeek rolls the week forward (POST /admin/new-week).
// PRE: request passed RequireAdmin and CSRF checks
// POST: Same effect as the chat new_week command; redirects or returns JSON
func (s *server) handleAdminNewWeek(w http.ResponseWriter, r *http.Request) {
	deps := orchestrators.NewWeekDeps{
		Guard:  s.deps.Guard,
		Digest: s.deps.Digest,
		Audit:  s.auditLog(),
		Now:    s.deps.Now,
	}
	if s.deps.Attendance != nil {
		deps.Archive = s.deps.Attendance
	}
	if _, err := orchestrators.ExecuteNewWeek(r.Context(), orchestrators.NewWeekInput{Actor: operatorActor(r)}, deps); err != nil {
		internalError(w, err)
		return
	}
	slog.Info("admin_action", "action", "new_week")
	if isJSONRequest(r) {
		snap := s.deps.Guard.Snapshot()
		writeJSON(w, http.StatusOK, map[string]string{"start_date": snap.StartDate, "end_date": snap.EndDate})
		return
	}
	http.Redirect(w, r, "/admin?done=rolled", http.StatusSeeOther)
}

// handleAdminArchive renders one archived week (GET /admin/archives/{id}).
func (s *server) handleAdminArchive(w http.ResponseWriter, r *http.Request) {
	if s.deps.Attendance == nil {
		http.NotFound(w, r)
		return
	}
	archived, err := s.deps.Attendance.GetArchive(r.Context(), r.PathValue("id"))
	if errors.Is(err, attendanceStore.ErrArchiveNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, archiveTmpl, map[string]any{
		"StartDate": archived.StartDate,
		"Report":    chatHTML(projections.RenderAttendance(&archived)),
	})
}

// auditLog returns the audit store as an orchestrator collaborator, or a true nil.
func (s *server) auditLog() orchestrators.AuditLog {
	if s.deps.Audit == nil {
		return nil
	}
	return s.deps.Audit
}
