package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"aquatallyon/internal/application/weekstate"
)

// RestoreWeekDeps holds dependencies for RestoreWeek.
type RestoreWeekDeps struct {
	Guard      *weekstate.Guard
	StateStore WeekStateStore
}

// ExecuteRestoreWeek replaces the seeded week with the last saved state, if any.
// PRE: called at start-up before handlers run
// POST: Returns true when a saved state was loaded into the guard
func ExecuteRestoreWeek(ctx context.Context, deps RestoreWeekDeps) (bool, error) {
	saved, ok, err := deps.StateStore.LoadWeekState(ctx)
	if err != nil {
		return false, &PersistenceError{Op: "load week state", Err: err}
	}
	if !ok {
		return false, nil
	}
	seen := make(map[uint16]bool, len(saved.Sessions))
	for _, s := range saved.Sessions {
		if seen[s.ID] {
			return false, fmt.Errorf("saved week has duplicate session id %d", s.ID)
		}
		seen[s.ID] = true
	}
	deps.Guard.Replace(saved)
	slog.Info("week_restored", "start", saved.StartDate, "end", saved.EndDate, "sessions", len(saved.Sessions), "users", len(saved.Users))
	return true, nil
}
