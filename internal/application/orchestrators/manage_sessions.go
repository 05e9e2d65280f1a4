package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aquatallyon/internal/application/weekstate"
	"aquatallyon/internal/domain/audit"
	"aquatallyon/internal/domain/week"
)

// SessionDeps holds dependencies shared by the session management orchestrators.
type SessionDeps struct {
	Guard *weekstate.Guard
	Audit AuditLog         // optional
	Now   func() time.Time // injectable for testing
}

// AddSessionInput carries input for AddSession.
type AddSessionInput struct {
	Order  int // 1-indexed; out of range appends
	Fields week.SessionFields
	Actor  Actor
}

// AddSessionResult carries the new session's ID and the refreshed view.
type AddSessionResult struct {
	ID   uint16
	View View
}

// ExecuteAddSession creates a session at the requested position.
// PRE: Fields validated by the command parser
// POST: New session has a fresh unique ID; on error the week is unchanged
func ExecuteAddSession(ctx context.Context, input AddSessionInput, deps SessionDeps) (AddSessionResult, error) {
	var res AddSessionResult
	err := deps.Guard.Write(func(w *week.WeeklyAttendance) error {
		id, err := w.AddSession(input.Order, input.Fields)
		if err != nil {
			return err
		}
		res.ID = id
		res.View = attendanceView(w)
		return nil
	})
	if err != nil {
		return AddSessionResult{}, err
	}

	slog.Info("schedule_event", "event", "session_added", "session_id", res.ID, "order", input.Order, "user_id", input.Actor.UserID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(nowFunc(deps.Now), audit.CategorySchedule, audit.ActionCreate).
		WithActor(input.Actor.UserID, input.Actor.Alias).
		WithSession(res.ID).
		WithDescription(describeFields(input.Fields)))
	return res, nil
}

// EditSessionInput carries input for EditSession.
type EditSessionInput struct {
	Order  int // 1-indexed
	Fields week.SessionFields
	Actor  Actor
}

// ExecuteEditSession overwrites the session at a position.
// PRE: Fields validated by the command parser
// POST: Session ID and attendees unchanged; week.ErrNotFound when Order is out of range
func ExecuteEditSession(ctx context.Context, input EditSessionInput, deps SessionDeps) (View, error) {
	var v View
	var id uint16
	err := deps.Guard.Write(func(w *week.WeeklyAttendance) error {
		if err := w.EditSession(input.Order, input.Fields); err != nil {
			return err
		}
		id = w.Sessions[input.Order-1].ID
		v = attendanceView(w)
		return nil
	})
	if err != nil {
		return View{}, err
	}

	slog.Info("schedule_event", "event", "session_edited", "session_id", id, "order", input.Order, "user_id", input.Actor.UserID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(nowFunc(deps.Now), audit.CategorySchedule, audit.ActionUpdate).
		WithActor(input.Actor.UserID, input.Actor.Alias).
		WithSession(id).
		WithDescription(describeFields(input.Fields)))
	return v, nil
}

// DeleteSessionInput carries input for DeleteSession.
type DeleteSessionInput struct {
	Order int // 1-indexed
	Actor Actor
}

// ExecuteDeleteSession removes the session at a position and its attendees.
// PRE: none
// POST: Later sessions shift down; week.ErrNotFound when Order is out of range
func ExecuteDeleteSession(ctx context.Context, input DeleteSessionInput, deps SessionDeps) (View, error) {
	var v View
	var removed week.Session
	err := deps.Guard.Write(func(w *week.WeeklyAttendance) error {
		s, err := w.DeleteSession(input.Order)
		if err != nil {
			return err
		}
		removed = s
		v = attendanceView(w)
		return nil
	})
	if err != nil {
		return View{}, err
	}

	slog.Info("schedule_event", "event", "session_deleted", "session_id", removed.ID, "order", input.Order, "attendees_dropped", len(removed.Attendees))
	recordAudit(ctx, deps.Audit, audit.NewEvent(nowFunc(deps.Now), audit.CategorySchedule, audit.ActionDelete).
		WithActor(input.Actor.UserID, input.Actor.Alias).
		WithSession(removed.ID).
		WithDescription(describeFields(week.SessionFields{Day: removed.Day, Activity: removed.Activity, Location: removed.Location, Time: removed.Time})))
	return v, nil
}

func describeFields(f week.SessionFields) string {
	return fmt.Sprintf("%s %s @ %s %s", f.Day, f.Activity, f.Location, f.Time)
}
