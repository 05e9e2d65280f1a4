// Package weekstate owns the single shared WeeklyAttendance and the
// reader/writer discipline around it.
package weekstate

import (
	"sync"

	"aquatallyon/internal/domain/week"
)

// Guard serializes access to one WeeklyAttendance.
//
// Writers get exclusive access, readers share it. Callbacks must be pure
// in-memory work: return owned data (rendered text, snapshots) and do any
// network or disk I/O after Read/Write returns.
type Guard struct {
	mu   sync.RWMutex
	week *week.WeeklyAttendance
}

// New wraps w. The guard takes ownership; callers must not keep w.
func New(w *week.WeeklyAttendance) *Guard {
	return &Guard{week: w}
}

// Read runs fn under the shared lock.
// PRE: fn does not retain w and does not mutate it
// POST: lock released even if fn panics
func (g *Guard) Read(fn func(w *week.WeeklyAttendance)) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	fn(g.week)
}

// Write runs fn under the exclusive lock and returns its error.
// PRE: fn does not retain w
// POST: lock released even if fn panics; the week is left as fn left it
func (g *Guard) Write(fn func(w *week.WeeklyAttendance) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.week)
}

// Update runs fn under the exclusive lock for mutations that cannot fail.
// PRE: fn does not retain w
// POST: lock released even if fn panics
func (g *Guard) Update(fn func(w *week.WeeklyAttendance)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.week)
}

// Snapshot returns a deep copy taken under a brief read acquisition.
func (g *Guard) Snapshot() week.WeeklyAttendance {
	var snap week.WeeklyAttendance
	g.Read(func(w *week.WeeklyAttendance) {
		snap = w.Snapshot()
	})
	return snap
}

// Replace swaps in a restored week under the write lock.
// PRE: w has unique session IDs
// POST: later readers observe w in full
func (g *Guard) Replace(w week.WeeklyAttendance) {
	g.mu.Lock()
	defer g.mu.Unlock()
	restored := w.Snapshot()
	g.week = &restored
}
