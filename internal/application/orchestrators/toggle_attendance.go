package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"aquatallyon/internal/application/weekstate"
	"aquatallyon/internal/domain/audit"
	"aquatallyon/internal/domain/week"
)

// ToggleAttendanceInput carries a member's button press.
type ToggleAttendanceInput struct {
	SessionID uint16
	Actor     Actor
}

// ToggleAttendanceResult carries the refreshed view and what happened.
type ToggleAttendanceResult struct {
	View  View
	Found bool // false when the session no longer exists
	Going bool // attendee state after the toggle
}

// ToggleAttendanceDeps holds dependencies for ToggleAttendance.
type ToggleAttendanceDeps struct {
	Guard *weekstate.Guard
	Audit AuditLog         // optional
	Now   func() time.Time // injectable for testing
}

// ExecuteToggleAttendance flips the actor's attendance for one session.
// A session that no longer exists is not an error: the registry is still
// refreshed and the current view is returned so stale controls get replaced.
// PRE: Actor.UserID is set
// POST: Actor appears at most once in the session; alias registry updated; lock released before audit I/O
func ExecuteToggleAttendance(ctx context.Context, input ToggleAttendanceInput, deps ToggleAttendanceDeps) (ToggleAttendanceResult, error) {
	var res ToggleAttendanceResult
	var weekStart string
	deps.Guard.Update(func(w *week.WeeklyAttendance) {
		res.Found = w.ToggleAttendance(input.SessionID, input.Actor.UserID, input.Actor.Alias)
		if res.Found {
			for _, a := range w.SessionByID(input.SessionID).Attendees {
				if a.UserID == input.Actor.UserID {
					res.Going = !a.Cancelled
				}
			}
		}
		weekStart = w.StartDate
		res.View = attendanceView(w)
	})

	if !res.Found {
		slog.Info("checkin_event", "event", "stale_session", "session_id", input.SessionID, "user_id", input.Actor.UserID)
		return res, nil
	}

	desc := "cancelled"
	if res.Going {
		desc = "going"
	}
	slog.Info("checkin_event", "event", "attendance_toggled", "session_id", input.SessionID, "user_id", input.Actor.UserID, "going", res.Going)
	recordAudit(ctx, deps.Audit, audit.NewEvent(nowFunc(deps.Now), audit.CategoryAttendance, audit.ActionToggle).
		WithActor(input.Actor.UserID, input.Actor.Alias).
		WithSession(input.SessionID).
		WithWeek(weekStart).
		WithDescription(desc))
	return res, nil
}
