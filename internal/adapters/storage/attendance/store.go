package attendance

import (
	"context"
	"time"

	"aquatallyon/internal/domain/week"
)

// Row is one exported attendee: the flat shape downstream reports read.
type Row struct {
	SessionID uint16
	UserID    uint64
	Alias     string
}

// ArchiveSummary describes one archived week without its payload.
type ArchiveSummary struct {
	ID         string
	StartDate  string
	EndDate    string
	ArchivedAt time.Time
}

// Store persists the attendance export, the live week snapshot and the archive.
type Store interface {
	// ClearAttendance removes every exported row.
	ClearAttendance(ctx context.Context) error
	// InsertAttendance appends one exported row.
	InsertAttendance(ctx context.Context, sessionID uint16, userID uint64, alias string) error
	// ListAttendance returns exported rows in insertion order.
	ListAttendance(ctx context.Context) ([]Row, error)

	// SaveWeekState overwrites the single saved copy of the live week.
	SaveWeekState(ctx context.Context, w week.WeeklyAttendance, savedAt time.Time) error
	// LoadWeekState returns the saved week and whether one exists.
	LoadWeekState(ctx context.Context) (week.WeeklyAttendance, bool, error)

	// ArchiveWeek stores a closing week under id.
	ArchiveWeek(ctx context.Context, id string, w week.WeeklyAttendance, archivedAt time.Time) error
	// ListArchives returns the newest archived weeks first.
	ListArchives(ctx context.Context, limit int) ([]ArchiveSummary, error)
	// GetArchive loads one archived week.
	GetArchive(ctx context.Context, id string) (week.WeeklyAttendance, error)
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
