package chat

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"aquatallyon/internal/adapters/perf"
	"aquatallyon/internal/adapters/ratelimit"
	"aquatallyon/internal/application/orchestrators"
	"aquatallyon/internal/application/projections"
	"aquatallyon/internal/application/weekstate"
)

// Command names.
const (
	cmdHelp     = "help"
	cmdStart    = "start"
	cmdHistory  = "history"
	cmdLog      = "log"
	cmdNewWeek  = "new_week"
	cmdAdd      = "add"
	cmdEdit     = "edit"
	cmdDelete   = "delete"
	cmdSave     = "save"
	buttonLabel = "checkin"
)

// organizerCommands change the schedule or touch storage.
var organizerCommands = map[string]bool{
	cmdNewWeek: true,
	cmdAdd:     true,
	cmdEdit:    true,
	cmdDelete:  true,
	cmdSave:    true,
}

// DefaultUpdateTimeout bounds one update's orchestrator and storage work.
const DefaultUpdateTimeout = 15 * time.Second

// DefaultSlowUpdateMs is the default threshold for slow update warnings.
const DefaultSlowUpdateMs = 200

// Deps holds the router's collaborators. Optional fields may be left nil.
type Deps struct {
	Guard     *weekstate.Guard
	Messenger Messenger
	Sink      orchestrators.AttendanceSink

	StateStore orchestrators.WeekStateStore // optional
	Archive    orchestrators.WeekArchive    // optional
	Digest     orchestrators.DigestMailer   // optional
	Audit      orchestrators.AuditLog       // optional
	Policy     Policy                       // nil allows everyone
	Limiter    *ratelimit.Limiter           // optional: per-user button limit
	Collector  *perf.Collector              // optional

	UpdateTimeout time.Duration
	SlowUpdateMs  int
	Now           func() time.Time // injectable for testing
}

// Router dispatches chat events. It is safe for concurrent use; every handler
// call is independent and shares only the guarded week.
type Router struct {
	deps      Deps
	timeout   time.Duration
	threshold float64
}

// NewRouter creates a router.
// PRE: deps.Guard, deps.Messenger and deps.Sink are non-nil
// POST: Returns a router ready for concurrent HandleCommand/HandleButton calls
func NewRouter(deps Deps) *Router {
	if deps.Policy == nil {
		deps.Policy = AllowAll{}
	}
	timeout := deps.UpdateTimeout
	if timeout <= 0 {
		timeout = DefaultUpdateTimeout
	}
	slowMs := deps.SlowUpdateMs
	if slowMs <= 0 {
		slowMs = DefaultSlowUpdateMs
	}
	return &Router{deps: deps, timeout: timeout, threshold: float64(slowMs)}
}

// reply is a handler's outbound message. Empty Text sends nothing.
type reply struct {
	Text     string
	Controls *projections.Keyboard
}

func viewReply(prefix string, v orchestrators.View) reply {
	controls := v.Controls
	return reply{Text: prefix + v.Text, Controls: &controls}
}

// HandleCommand runs one command and sends its reply.
// Errors and panics become chat replies; nothing propagates to the caller.
// PRE: cmd.Name is lower case
// POST: at most one message is sent to cmd.ChatID
func (r *Router) HandleCommand(ctx context.Context, cmd Command) {
	start := time.Now()
	failed := false
	defer func() {
		if p := recover(); p != nil {
			failed = true
			slog.Error("update_panic", "command", cmd.Name, "user_id", cmd.From.ID, "panic", fmt.Sprint(p), "stack", string(debug.Stack()))
			r.send(ctx, cmd.ChatID, reply{Text: replyUnexpected})
		}
		r.observe(perf.KindCommand, cmd.Name, start, failed)
	}()

	uctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, order, err := r.dispatch(uctx, cmd)
	if err != nil {
		kind := orchestrators.ErrorKind(err)
		failed = kind == "persistence" || kind == "unexpected"
		slog.Warn("command_failed", "command", cmd.Name, "user_id", cmd.From.ID, "kind", kind, "error", err)
		out = reply{Text: errorReply(cmd, order, err)}
	}
	r.send(ctx, cmd.ChatID, out)
}

// dispatch routes a command to its orchestrator. order is reported for error replies.
func (r *Router) dispatch(ctx context.Context, cmd Command) (reply, int, error) {
	if organizerCommands[cmd.Name] && !r.deps.Policy.CanManage(cmd.From.ID) {
		return reply{}, 0, orchestrators.ErrForbidden
	}
	actor := orchestrators.Actor{UserID: cmd.From.ID, Alias: cmd.From.Alias}

	switch cmd.Name {
	case cmdHelp:
		return reply{Text: projections.RenderHelp()}, 0, nil

	case cmdHistory, cmdStart:
		return viewReply("", orchestrators.ExecuteShowAttendance(r.deps.Guard)), 0, nil

	case cmdLog:
		return viewReply("", orchestrators.ExecuteShowLog(r.deps.Guard)), 0, nil

	case cmdNewWeek:
		v, err := orchestrators.ExecuteNewWeek(ctx, orchestrators.NewWeekInput{Actor: actor}, orchestrators.NewWeekDeps{
			Guard:   r.deps.Guard,
			Archive: r.deps.Archive,
			Digest:  r.deps.Digest,
			Audit:   r.deps.Audit,
			Now:     r.deps.Now,
		})
		return viewReply("", v), 0, err

	case cmdAdd:
		order, fields, err := ParseSessionArgs(cmd.Args)
		if err != nil {
			return reply{}, 0, err
		}
		res, err := orchestrators.ExecuteAddSession(ctx, orchestrators.AddSessionInput{Order: order, Fields: fields, Actor: actor}, r.sessionDeps())
		return viewReply("", res.View), order, err

	case cmdEdit:
		order, fields, err := ParseSessionArgs(cmd.Args)
		if err != nil {
			return reply{}, 0, err
		}
		v, err := orchestrators.ExecuteEditSession(ctx, orchestrators.EditSessionInput{Order: order, Fields: fields, Actor: actor}, r.sessionDeps())
		return viewReply(fmt.Sprintf("📝 <b>Session #%d updated.</b>\n\n", order), v), order, err

	case cmdDelete:
		order, err := ParseOrder(cmd.Args)
		if err != nil {
			return reply{}, 0, err
		}
		v, err := orchestrators.ExecuteDeleteSession(ctx, orchestrators.DeleteSessionInput{Order: order, Actor: actor}, r.sessionDeps())
		return viewReply(fmt.Sprintf("🗑️ <b>Session at order #%d deleted.</b>\n\n", order), v), order, err

	case cmdSave:
		_, err := orchestrators.ExecuteSaveAttendance(ctx, orchestrators.SaveAttendanceInput{Actor: actor}, orchestrators.SaveAttendanceDeps{
			Guard:      r.deps.Guard,
			Sink:       r.deps.Sink,
			StateStore: r.deps.StateStore,
			Audit:      r.deps.Audit,
			Now:        r.deps.Now,
		})
		return reply{Text: replySaved}, 0, err
	}

	slog.Debug("command_ignored", "command", cmd.Name, "user_id", cmd.From.ID)
	return reply{}, 0, nil
}

func (r *Router) sessionDeps() orchestrators.SessionDeps {
	return orchestrators.SessionDeps{Guard: r.deps.Guard, Audit: r.deps.Audit, Now: r.deps.Now}
}

// HandleButton toggles attendance for a check-in press and refreshes the message.
// PRE: none
// POST: the press is acknowledged exactly once, whatever the outcome
func (r *Router) HandleButton(ctx context.Context, press ButtonPress) {
	start := time.Now()
	failed := false
	ackText := ""
	defer func() {
		if p := recover(); p != nil {
			failed = true
			ackText = ackFailed
			slog.Error("update_panic", "action", press.Action, "user_id", press.From.ID, "panic", fmt.Sprint(p), "stack", string(debug.Stack()))
		}
		if err := r.deps.Messenger.Ack(ctx, press.ID, ackText); err != nil {
			slog.Warn("ack_failed", "press_id", press.ID, "error", err)
		}
		r.observe(perf.KindButton, buttonLabel, start, failed)
	}()

	sessionID, ok := projections.ParseCheckinAction(press.Action)
	if !ok {
		slog.Debug("button_ignored", "action", press.Action, "user_id", press.From.ID)
		return
	}
	if r.deps.Limiter != nil && !r.deps.Limiter.Allow(strconv.FormatUint(press.From.ID, 10)) {
		ackText = ackSlowDown
		return
	}

	uctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := orchestrators.ExecuteToggleAttendance(uctx, orchestrators.ToggleAttendanceInput{
		SessionID: sessionID,
		Actor:     orchestrators.Actor{UserID: press.From.ID, Alias: press.From.Alias},
	}, orchestrators.ToggleAttendanceDeps{Guard: r.deps.Guard, Audit: r.deps.Audit, Now: r.deps.Now})
	if err != nil {
		failed = true
		ackText = ackFailed
		slog.Warn("button_failed", "action", press.Action, "kind", orchestrators.ErrorKind(err), "error", err)
		return
	}
	if press.MessageID == 0 {
		return
	}
	controls := res.View.Controls
	if err := r.deps.Messenger.Edit(uctx, press.ChatID, press.MessageID, res.View.Text, &controls); err != nil {
		slog.Warn("edit_failed", "chat_id", press.ChatID, "message_id", press.MessageID, "error", err)
	}
}

// send delivers a reply, logging transport failures.
func (r *Router) send(ctx context.Context, chatID int64, out reply) {
	if strings.TrimSpace(out.Text) == "" {
		return
	}
	if err := r.deps.Messenger.Send(ctx, chatID, out.Text, out.Controls); err != nil {
		slog.Warn("send_failed", "chat_id", chatID, "error", err)
	}
}

// observe logs the update duration and records it for the perf dashboard.
func (r *Router) observe(kind perf.EntryKind, name string, start time.Time, failed bool) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	if durationMs >= r.threshold {
		slog.Warn("slow_update", "kind", kind.String(), "name", name, "duration_ms", durationMs, "failed", failed)
	} else {
		slog.Debug("update", "kind", kind.String(), "name", name, "duration_ms", durationMs, "failed", failed)
	}
	if r.deps.Collector != nil {
		r.deps.Collector.Record(perf.Entry{
			Kind:       kind,
			Path:       name,
			Failed:     failed,
			DurationMs: durationMs,
			Timestamp:  start,
		})
	}
}
