package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"aquatallyon/internal/application/projections"
	"aquatallyon/internal/application/weekstate"
	"aquatallyon/internal/domain/audit"
	"aquatallyon/internal/domain/week"
)

// NewWeekInput carries input for NewWeek.
type NewWeekInput struct {
	Actor Actor // zero for scheduled roll-overs
}

// NewWeekDeps holds dependencies for NewWeek.
type NewWeekDeps struct {
	Guard      *weekstate.Guard
	Archive    WeekArchive      // optional: nil skips archiving the closing week
	Digest     DigestMailer     // optional: nil skips the summary email
	Audit      AuditLog         // optional
	Now        func() time.Time // injectable for testing
	GenerateID func() string    // injectable for testing
}

// ExecuteNewWeek rolls the schedule to next week and clears every attendee list.
// The closing week is snapshotted in the same write acquisition as the reset,
// then archived and mailed after the lock is released.
// PRE: none
// POST: Dates and cleared lists change together; archive/digest failures are logged, never returned
func ExecuteNewWeek(ctx context.Context, input NewWeekInput, deps NewWeekDeps) (View, error) {
	now := nowFunc(deps.Now)

	var v View
	var closing week.WeeklyAttendance
	deps.Guard.Update(func(w *week.WeeklyAttendance) {
		closing = w.Snapshot()
		w.ResetWeek(now)
		v = attendanceView(w)
	})

	slog.Info("week_event", "event", "week_reset", "closed_start", closing.StartDate, "closed_end", closing.EndDate, "user_id", input.Actor.UserID)

	if deps.Archive != nil {
		id := uuid.New().String()
		if deps.GenerateID != nil {
			id = deps.GenerateID()
		}
		if err := deps.Archive.ArchiveWeek(ctx, id, closing, now); err != nil {
			slog.Error("week_archive_failed", "archive_id", id, "start", closing.StartDate, "error", err)
		} else {
			recordAudit(ctx, deps.Audit, audit.NewEvent(now, audit.CategoryStorage, audit.ActionArchive).
				WithActor(input.Actor.UserID, input.Actor.Alias).
				WithWeek(closing.StartDate).
				WithDescription(id))
		}
	}

	if deps.Digest != nil {
		subject := fmt.Sprintf("Training log %s to %s", closing.StartDate, closing.EndDate)
		if err := deps.Digest.SendDigest(ctx, subject, projections.RenderAttendance(&closing)); err != nil {
			slog.Error("week_digest_failed", "start", closing.StartDate, "error", err)
		}
	}

	recordAudit(ctx, deps.Audit, audit.NewEvent(now, audit.CategoryWeek, audit.ActionReset).
		WithActor(input.Actor.UserID, input.Actor.Alias).
		WithWeek(closing.StartDate))
	return v, nil
}
