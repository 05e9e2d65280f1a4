package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"aquatallyon/internal/application/projections"
	"aquatallyon/internal/application/weekstate"
	"aquatallyon/internal/domain/audit"
	"aquatallyon/internal/domain/week"
)

// AttendanceSink receives the flat per-attendee export on save.
type AttendanceSink interface {
	ClearAttendance(ctx context.Context) error
	InsertAttendance(ctx context.Context, sessionID uint16, userID uint64, alias string) error
}

// WeekStateStore persists the whole aggregate so a restart can restore it.
type WeekStateStore interface {
	SaveWeekState(ctx context.Context, w week.WeeklyAttendance, savedAt time.Time) error
	LoadWeekState(ctx context.Context) (week.WeeklyAttendance, bool, error)
}

// WeekArchive keeps closing weeks before they are wiped.
type WeekArchive interface {
	ArchiveWeek(ctx context.Context, id string, w week.WeeklyAttendance, archivedAt time.Time) error
}

// AuditLog appends to the flat activity log.
type AuditLog interface {
	Save(ctx context.Context, event audit.Event) error
}

// DigestMailer delivers the closing week's summary to organizers.
type DigestMailer interface {
	SendDigest(ctx context.Context, subject, body string) error
}

// Actor identifies the chat user behind a mutation.
type Actor struct {
	UserID uint64
	Alias  string
}

// View is what a handler hands to the messaging layer: report text plus controls.
type View struct {
	Text     string
	Controls projections.Keyboard
}

// attendanceView renders the full report and controls.
// PRE: caller holds the guard
func attendanceView(w *week.WeeklyAttendance) View {
	return View{Text: projections.RenderAttendance(w), Controls: projections.RenderControls(w.Sessions)}
}

// ExecuteShowAttendance renders the current report under a read lock.
// PRE: guard is non-nil
// POST: Returns owned text and controls; no lock is held on return
func ExecuteShowAttendance(guard *weekstate.Guard) View {
	var v View
	guard.Read(func(w *week.WeeklyAttendance) {
		v = attendanceView(w)
	})
	return v
}

// ExecuteShowLog renders the summary view under a read lock.
// PRE: guard is non-nil
// POST: Returns owned text and controls; no lock is held on return
func ExecuteShowLog(guard *weekstate.Guard) View {
	var v View
	guard.Read(func(w *week.WeeklyAttendance) {
		v = View{Text: projections.RenderLog(w), Controls: projections.RenderControls(w.Sessions)}
	})
	return v
}

// recordAudit appends an event, logging rather than returning failures.
func recordAudit(ctx context.Context, log AuditLog, event audit.Event) {
	if log == nil {
		return
	}
	if err := log.Save(ctx, event); err != nil {
		slog.Warn("audit_save_failed", "category", event.Category, "action", event.Action, "error", err)
	}
}

func nowFunc(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}

// PersistenceError wraps a storage failure. The in-memory week is never rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return "persistence: " + e.Op + ": " + e.Err.Error()
}

// Unwrap exposes the storage error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ErrForbidden is returned when the actor may not run an organizer command.
var ErrForbidden = errors.New("organizer permission required")

// ErrorKind maps errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, week.ErrNotFound):
		return "not_found"
	case errors.Is(err, week.ErrSessionLimit):
		return "session_limit"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	}

	var vErr *week.ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	var pErr *PersistenceError
	if errors.As(err, &pErr) {
		return "persistence"
	}
	return "unexpected"
}
