package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"aquatallyon/internal/adapters/perf"
	"aquatallyon/internal/adapters/ratelimit"
	"aquatallyon/internal/application/projections"
	"aquatallyon/internal/application/weekstate"
	"aquatallyon/internal/domain/week"
)

type sentMessage struct {
	ChatID    int64
	MessageID int
	Text      string
	Controls  *projections.Keyboard
}

// fakeMessenger records outbound traffic.
type fakeMessenger struct {
	mu        sync.Mutex
	sent      []sentMessage
	edits     []sentMessage
	acks      map[string][]string
	editPanic bool
	sendErr   error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{acks: make(map[string][]string)}
}

func (f *fakeMessenger) Send(_ context.Context, chatID int64, text string, controls *projections.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, Controls: controls})
	return f.sendErr
}

func (f *fakeMessenger) Edit(_ context.Context, chatID int64, messageID int, text string, controls *projections.Keyboard) error {
	if f.editPanic {
		panic("edit exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, sentMessage{ChatID: chatID, MessageID: messageID, Text: text, Controls: controls})
	return nil
}

func (f *fakeMessenger) Ack(_ context.Context, pressID string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks[pressID] = append(f.acks[pressID], text)
	return nil
}

func (f *fakeMessenger) lastSent(t *testing.T) sentMessage {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("nothing sent")
	}
	return f.sent[len(f.sent)-1]
}

// fakeSink records exported rows.
type fakeSink struct {
	mu    sync.Mutex
	rows  []string
	err   error
	panic bool
}

func (f *fakeSink) ClearAttendance(context.Context) error {
	if f.panic {
		panic("sink exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = nil
	return f.err
}

func (f *fakeSink) InsertAttendance(_ context.Context, sessionID uint16, userID uint64, alias string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, fmt.Sprintf("%d:%d:%s", sessionID, userID, alias))
	return nil
}

type routerFixture struct {
	router    *Router
	guard     *weekstate.Guard
	messenger *fakeMessenger
	sink      *fakeSink
	collector *perf.Collector
}

func newFixture(t *testing.T, mutate func(*Deps)) routerFixture {
	t.Helper()
	f := routerFixture{
		guard:     weekstate.New(week.New(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), week.DefaultSchedule())),
		messenger: newFakeMessenger(),
		sink:      &fakeSink{},
		collector: perf.NewCollector(100),
	}
	deps := Deps{
		Guard:     f.guard,
		Messenger: f.messenger,
		Sink:      f.sink,
		Collector: f.collector,
		Now:       func() time.Time { return time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC) },
	}
	if mutate != nil {
		mutate(&deps)
	}
	f.router = NewRouter(deps)
	return f
}

// activeCount reports the active attendees of a session in a fresh snapshot.
func (f routerFixture) activeCount(id uint16) int {
	snap := f.guard.Snapshot()
	s := snap.SessionByID(id)
	if s == nil {
		return -1
	}
	return s.ActiveCount()
}

func (f routerFixture) sessionCount() int {
	return f.sessionCount()
}

var (
	alice = User{ID: 42, Alias: "alice"}
	bob   = User{ID: 7, Alias: "bob"}
)

func command(name, args string) Command {
	return Command{ChatID: 100, From: alice, Name: name, Args: args}
}

// TestHandleCommand_Views tests the read-only commands.
func TestHandleCommand_Views(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.router.HandleCommand(ctx, command("help", ""))
	if msg := f.messenger.lastSent(t); !strings.HasPrefix(msg.Text, "<b>🔱 Aquathallyon Bot Help</b>") || msg.Controls != nil {
		t.Errorf("unexpected help reply: %+v", msg)
	}

	for _, name := range []string{"history", "start"} {
		f.router.HandleCommand(ctx, command(name, ""))
		msg := f.messenger.lastSent(t)
		if !strings.HasPrefix(msg.Text, "📅 <b>Training Attendance 02/02 to 08/02</b>") {
			t.Errorf("%s: unexpected text %q", name, msg.Text)
		}
		if msg.Controls == nil || len(msg.Controls.Rows) != 6 {
			t.Errorf("%s: expected 6 control rows", name)
		}
	}

	f.router.HandleCommand(ctx, command("log", ""))
	if msg := f.messenger.lastSent(t); !strings.HasPrefix(msg.Text, "📅 <b>Training Log") {
		t.Errorf("unexpected log reply: %q", msg.Text)
	}
	if msg := f.messenger.lastSent(t); msg.ChatID != 100 {
		t.Errorf("ChatID = %d, want 100", msg.ChatID)
	}
}

// TestHandleCommand_Unknown tests that unknown commands are ignored.
func TestHandleCommand_Unknown(t *testing.T) {
	f := newFixture(t, nil)
	f.router.HandleCommand(context.Background(), command("dance", ""))
	if len(f.messenger.sent) != 0 {
		t.Errorf("expected no reply, got %+v", f.messenger.sent)
	}
}

// TestHandleCommand_Schedule tests add, edit and delete replies.
func TestHandleCommand_Schedule(t *testing.T) {
	tests := []struct {
		name       string
		cmd        Command
		wantPrefix string
		wantRows   int
	}{
		{"add", command("add", "2, Sunday, Ride, ECP, 06:00"), "📅 <b>Training Attendance", 7},
		{"add short", command("add", "2, Sunday, Ride"), "❌ Format: /add order, day, activity, location, time", 6},
		{"add non numeric", command("add", "x, Sunday, Ride, ECP, 06:00"), "❌ Format: /add", 6},
		{"edit", command("edit", "1, Monday, Intervals, USC Pool, 07:00"), "📝 <b>Session #1 updated.</b>\n\n📅", 6},
		{"edit missing", command("edit", "9, Monday, Swim, Pool, 07:00"), "⚠️ Session #9 not found.", 6},
		{"edit short", command("edit", "1, Monday"), "❌ Format: /edit order, day, activity, location, time", 6},
		{"delete", command("delete", "6"), "🗑️ <b>Session at order #6 deleted.</b>\n\n📅", 5},
		{"delete missing", command("delete", "9"), "⚠️ Order #9 not found. Check the list and try again.", 6},
		{"delete bad", command("delete", "last"), "❌ Format: /delete order", 6},
		{"delete zero", command("delete", "0"), "⚠️ Order #0 not found. Check the list and try again.", 6},
		{"edit zero", command("edit", "0, Monday, Swim, USC Pool, 07:00"), "⚠️ Session #0 not found.", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.router.HandleCommand(context.Background(), tt.cmd)
			msg := f.messenger.lastSent(t)
			if !strings.HasPrefix(msg.Text, tt.wantPrefix) {
				t.Errorf("text = %q, want prefix %q", msg.Text, tt.wantPrefix)
			}
			if n := f.sessionCount(); n != tt.wantRows {
				t.Errorf("sessions = %d, want %d", n, tt.wantRows)
			}
		})
	}
}

// TestHandleCommand_LenientSessionArgs tests inputs the comma format accepts beyond the minimum.
func TestHandleCommand_LenientSessionArgs(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.router.HandleCommand(ctx, command("add", "0, Sunday, Ride, ECP, 06:00"))
	f.router.HandleCommand(ctx, command("add", "7, Sunday, Ride, ECP, Gate 2, 06:00"))
	f.router.HandleCommand(ctx, command("edit", "1, Monday, Swim, USC Pool,"))
	for _, msg := range f.messenger.sent {
		if strings.HasPrefix(msg.Text, "❌") {
			t.Errorf("unexpected rejection: %q", msg.Text)
		}
	}
	if n := f.sessionCount(); n != 8 {
		t.Fatalf("sessions = %d, want 8", n)
	}

	snap := f.guard.Snapshot()
	// Order 0 appended as id 7; order 7 then took position 7 ahead of it.
	if got := snap.Sessions[6]; got.ID != 8 || got.Location != "ECP, Gate 2" {
		t.Errorf("position 7 = %+v, want id 8 at ECP, Gate 2", got)
	}
	if got := snap.Sessions[7]; got.ID != 7 || got.Location != "ECP" || got.Time != "06:00" {
		t.Errorf("position 8 = %+v, want id 7 at ECP", got)
	}
	if got := snap.Sessions[0]; got.ID != 1 || got.Location != "USC Pool" || got.Time != "" {
		t.Errorf("edit did not restate session 1: %+v", got)
	}
}

// TestHandleCommand_Forbidden tests the organizer policy.
func TestHandleCommand_Forbidden(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.Policy = NewAllowlist(bob.ID) })
	ctx := context.Background()

	for _, name := range []string{"new_week", "add", "edit", "delete", "save"} {
		f.router.HandleCommand(ctx, command(name, "1, a, b, c, d"))
		if msg := f.messenger.lastSent(t); msg.Text != "⛔ Only organizers can use /"+name+"." {
			t.Errorf("%s: got %q", name, msg.Text)
		}
	}
	if n := f.sessionCount(); n != 6 {
		t.Errorf("forbidden commands mutated the week: %d sessions", n)
	}

	f.router.HandleCommand(ctx, command("history", ""))
	if msg := f.messenger.lastSent(t); !strings.HasPrefix(msg.Text, "📅") {
		t.Error("member commands should stay open")
	}

	bobCmd := Command{ChatID: 100, From: bob, Name: "delete", Args: "1"}
	f.router.HandleCommand(ctx, bobCmd)
	if n := f.sessionCount(); n != 5 {
		t.Errorf("organizer delete failed: %d sessions", n)
	}
}

// TestHandleCommand_NewWeek tests the roll-over reply.
func TestHandleCommand_NewWeek(t *testing.T) {
	f := newFixture(t, nil)
	f.router.HandleButton(context.Background(), ButtonPress{ID: "p1", From: alice, Action: "checkin_1"})
	f.router.HandleCommand(context.Background(), command("new_week", ""))

	msg := f.messenger.lastSent(t)
	if !strings.HasPrefix(msg.Text, "📅 <b>Training Attendance 09/02 to 15/02</b>") {
		t.Errorf("unexpected text: %q", msg.Text)
	}
	if strings.Contains(msg.Text, "alice") {
		t.Error("attendees should be cleared")
	}
}

// TestHandleCommand_Save tests success and persistence failure replies.
func TestHandleCommand_Save(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.router.HandleButton(ctx, ButtonPress{ID: "p1", From: alice, Action: "checkin_2"})

	f.router.HandleCommand(ctx, command("save", ""))
	if msg := f.messenger.lastSent(t); msg.Text != replySaved {
		t.Errorf("got %q, want %q", msg.Text, replySaved)
	}
	if len(f.sink.rows) != 1 || f.sink.rows[0] != "2:42:alice" {
		t.Errorf("rows = %v", f.sink.rows)
	}

	f.sink.err = errors.New("network down")
	f.router.HandleCommand(ctx, command("save", ""))
	if msg := f.messenger.lastSent(t); msg.Text != replySaveFailed {
		t.Errorf("got %q, want %q", msg.Text, replySaveFailed)
	}
	if f.activeCount(2) != 1 {
		t.Error("failed save must not touch memory")
	}

	snap := f.collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if snap.FailedUpdates != 1 {
		t.Errorf("FailedUpdates = %d, want 1", snap.FailedUpdates)
	}
}

// TestHandleCommand_Panic tests that a panicking collaborator becomes a reply.
func TestHandleCommand_Panic(t *testing.T) {
	f := newFixture(t, nil)
	f.sink.panic = true

	f.router.HandleCommand(context.Background(), command("save", ""))
	if msg := f.messenger.lastSent(t); msg.Text != replyUnexpected {
		t.Errorf("got %q, want %q", msg.Text, replyUnexpected)
	}

	f.router.HandleCommand(context.Background(), command("history", ""))
	if len(f.messenger.sent) != 2 {
		t.Error("router should keep working after a panic")
	}
}

// TestHandleButton_Toggle tests the check-in flow.
func TestHandleButton_Toggle(t *testing.T) {
	f := newFixture(t, nil)
	press := ButtonPress{ID: "p1", ChatID: 100, MessageID: 55, From: alice, Action: "checkin_3"}

	f.router.HandleButton(context.Background(), press)

	if got := f.messenger.acks["p1"]; len(got) != 1 || got[0] != "" {
		t.Errorf("acks = %v, want one empty ack", got)
	}
	if len(f.messenger.edits) != 1 {
		t.Fatalf("edits = %d, want 1", len(f.messenger.edits))
	}
	edit := f.messenger.edits[0]
	if edit.MessageID != 55 || !strings.Contains(edit.Text, "<b>Wednesday Swim</b> @ USC Pool (1 👥)\nalice") {
		t.Errorf("unexpected edit: %+v", edit)
	}
	if edit.Controls == nil || len(edit.Controls.Rows) != 6 {
		t.Error("edit should carry controls")
	}
}

// TestHandleButton_Edges tests ignored, stale, rate limited and panicking presses.
func TestHandleButton_Edges(t *testing.T) {
	t.Run("unrecognized action", func(t *testing.T) {
		f := newFixture(t, nil)
		f.router.HandleButton(context.Background(), ButtonPress{ID: "p", MessageID: 1, From: alice, Action: "vote_1"})
		if len(f.messenger.acks["p"]) != 1 || len(f.messenger.edits) != 0 {
			t.Errorf("acks=%v edits=%d", f.messenger.acks["p"], len(f.messenger.edits))
		}
		if _, ok := f.guard.Snapshot().Users[alice.ID]; ok {
			t.Error("ignored press should not touch the registry")
		}
	})

	t.Run("stale session", func(t *testing.T) {
		f := newFixture(t, nil)
		f.router.HandleButton(context.Background(), ButtonPress{ID: "p", MessageID: 1, From: alice, Action: "checkin_99"})
		if got := f.messenger.acks["p"]; len(got) != 1 || got[0] != "" {
			t.Errorf("acks = %v, want one silent ack", got)
		}
		if f.activeCount(1) != 0 {
			t.Error("stale press should not touch other sessions")
		}
		if len(f.messenger.edits) != 1 {
			t.Error("stale press should refresh the controls")
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		f := newFixture(t, func(d *Deps) { d.Limiter = ratelimit.New(1, time.Hour) })
		ctx := context.Background()
		f.router.HandleButton(ctx, ButtonPress{ID: "a", MessageID: 1, From: alice, Action: "checkin_1"})
		f.router.HandleButton(ctx, ButtonPress{ID: "b", MessageID: 1, From: alice, Action: "checkin_1"})
		if got := f.messenger.acks["b"]; len(got) != 1 || got[0] != ackSlowDown {
			t.Errorf("acks = %v", got)
		}
		if f.activeCount(1) != 1 {
			t.Error("limited press should not toggle")
		}
	})

	t.Run("panic", func(t *testing.T) {
		f := newFixture(t, nil)
		f.messenger.editPanic = true
		f.router.HandleButton(context.Background(), ButtonPress{ID: "p", MessageID: 1, From: alice, Action: "checkin_1"})
		if got := f.messenger.acks["p"]; len(got) != 1 || got[0] != ackFailed {
			t.Errorf("acks = %v", got)
		}
		if f.activeCount(1) != 1 {
			t.Error("toggle committed before the panic should stand")
		}
	})
}

// TestHandleButton_Concurrent tests many members pressing at once.
func TestHandleButton_Concurrent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			u := User{ID: uint64(1000 + n), Alias: fmt.Sprintf("member%d", n)}
			f.router.HandleButton(ctx, ButtonPress{ID: fmt.Sprint(n), MessageID: 1, From: u, Action: "checkin_4"})
		}(i)
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.router.HandleCommand(ctx, command("history", ""))
		}()
	}
	wg.Wait()

	if n := f.activeCount(4); n != 50 {
		t.Errorf("ActiveCount = %d, want 50", n)
	}
	if len(f.messenger.acks) != 50 {
		t.Errorf("acks = %d, want 50", len(f.messenger.acks))
	}
}
