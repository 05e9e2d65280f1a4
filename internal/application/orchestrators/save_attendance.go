package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"aquatallyon/internal/application/weekstate"
	"aquatallyon/internal/domain/audit"
)

// SaveAttendanceInput carries input for SaveAttendance.
type SaveAttendanceInput struct {
	Actor Actor
}

// SaveAttendanceResult reports what was written.
type SaveAttendanceResult struct {
	Rows int // non-cancelled attendee rows inserted
}

// SaveAttendanceDeps holds dependencies for SaveAttendance.
type SaveAttendanceDeps struct {
	Guard      *weekstate.Guard
	Sink       AttendanceSink
	StateStore WeekStateStore   // optional: nil skips the full-state save
	Audit      AuditLog         // optional
	Now        func() time.Time // injectable for testing
}

// ExecuteSaveAttendance flushes a point-in-time snapshot to storage.
// The snapshot is taken under a brief read lock; storage I/O runs unlocked.
// PRE: Sink is non-nil
// POST: Sink holds one row per non-cancelled attendee, in session order;
// storage failures return *PersistenceError and leave memory untouched
func ExecuteSaveAttendance(ctx context.Context, input SaveAttendanceInput, deps SaveAttendanceDeps) (SaveAttendanceResult, error) {
	snap := deps.Guard.Snapshot()
	now := nowFunc(deps.Now)

	if err := deps.Sink.ClearAttendance(ctx); err != nil {
		slog.Error("attendance_save_failed", "op", "clear", "error", err)
		return SaveAttendanceResult{}, &PersistenceError{Op: "clear attendance", Err: err}
	}

	var res SaveAttendanceResult
	for _, s := range snap.Sessions {
		for _, a := range s.Attendees {
			if a.Cancelled {
				continue
			}
			if err := deps.Sink.InsertAttendance(ctx, s.ID, a.UserID, snap.Alias(a.UserID)); err != nil {
				slog.Error("attendance_save_failed", "op", "insert", "session_id", s.ID, "user_id", a.UserID, "error", err)
				return res, &PersistenceError{Op: "insert attendance", Err: err}
			}
			res.Rows++
		}
	}

	if deps.StateStore != nil {
		if err := deps.StateStore.SaveWeekState(ctx, snap, now); err != nil {
			slog.Error("attendance_save_failed", "op", "week_state", "error", err)
			return res, &PersistenceError{Op: "save week state", Err: err}
		}
	}

	slog.Info("attendance_saved", "rows", res.Rows, "sessions", len(snap.Sessions), "start", snap.StartDate)
	recordAudit(ctx, deps.Audit, audit.NewEvent(now, audit.CategoryStorage, audit.ActionSave).
		WithActor(input.Actor.UserID, input.Actor.Alias).
		WithWeek(snap.StartDate))
	return res, nil
}
