package attendance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aquatallyon/internal/adapters/storage"
	"aquatallyon/internal/domain/week"
)

const timeLayout = time.RFC3339Nano

// ErrArchiveNotFound is returned by GetArchive for an unknown id.
var ErrArchiveNotFound = errors.New("archived week not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new attendance store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// ClearAttendance removes every exported row.
// PRE: none
// POST: attendance table is empty
func (s *SQLiteStore) ClearAttendance(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM attendance`); err != nil {
		return fmt.Errorf("clear attendance: %w", err)
	}
	return nil
}

// InsertAttendance appends one exported row.
// PRE: userID fits in int64 (chat platform user ids do)
// POST: one row added
func (s *SQLiteStore) InsertAttendance(ctx context.Context, sessionID uint16, userID uint64, alias string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attendance (session_id, user_id, user_alias) VALUES (?, ?, ?)`,
		int64(sessionID), int64(userID), alias)
	if err != nil {
		return fmt.Errorf("insert attendance for session %d: %w", sessionID, err)
	}
	return nil
}

// ListAttendance returns exported rows in insertion order.
// PRE: none
// POST: Returns every row, possibly empty
func (s *SQLiteStore) ListAttendance(ctx context.Context) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id, user_id, user_alias FROM attendance ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var sessionID, userID int64
		var r Row
		if err := rows.Scan(&sessionID, &userID, &r.Alias); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		r.SessionID = uint16(sessionID)
		r.UserID = uint64(userID)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveWeekState overwrites the single saved copy of the live week.
// PRE: w is a snapshot, not the guarded live value
// POST: LoadWeekState returns w until the next save
func (s *SQLiteStore) SaveWeekState(ctx context.Context, w week.WeeklyAttendance, savedAt time.Time) error {
	payload, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode week state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO week_state (id, payload, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		string(payload), savedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save week state: %w", err)
	}
	return nil
}

// LoadWeekState returns the saved week and whether one exists.
// PRE: none
// POST: ok is false with a nil error when nothing was ever saved
func (s *SQLiteStore) LoadWeekState(ctx context.Context) (week.WeeklyAttendance, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM week_state WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return week.WeeklyAttendance{}, false, nil
	}
	if err != nil {
		return week.WeeklyAttendance{}, false, fmt.Errorf("load week state: %w", err)
	}
	w, err := decodeWeek(payload)
	if err != nil {
		return week.WeeklyAttendance{}, false, err
	}
	return w, true, nil
}

// ArchiveWeek stores a closing week under id.
// PRE: id is unique
// POST: week is retrievable via GetArchive(id)
func (s *SQLiteStore) ArchiveWeek(ctx context.Context, id string, w week.WeeklyAttendance, archivedAt time.Time) error {
	payload, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode archived week: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO week_archive (id, start_date, end_date, payload, archived_at) VALUES (?, ?, ?, ?, ?)`,
		id, w.StartDate, w.EndDate, string(payload), archivedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("archive week %s: %w", w.StartDate, err)
	}
	return nil
}

// ListArchives returns the newest archived weeks first.
// PRE: limit > 0
// POST: At most limit summaries, ordered by archived_at desc
func (s *SQLiteStore) ListArchives(ctx context.Context, limit int) ([]ArchiveSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start_date, end_date, archived_at FROM week_archive ORDER BY archived_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	defer rows.Close()

	var out []ArchiveSummary
	for rows.Next() {
		var a ArchiveSummary
		var archivedAt string
		if err := rows.Scan(&a.ID, &a.StartDate, &a.EndDate, &archivedAt); err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		a.ArchivedAt, _ = time.Parse(timeLayout, archivedAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetArchive loads one archived week.
// PRE: id is non-empty
// POST: Returns ErrArchiveNotFound for an unknown id
func (s *SQLiteStore) GetArchive(ctx context.Context, id string) (week.WeeklyAttendance, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM week_archive WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return week.WeeklyAttendance{}, ErrArchiveNotFound
	}
	if err != nil {
		return week.WeeklyAttendance{}, fmt.Errorf("get archive %s: %w", id, err)
	}
	return decodeWeek(payload)
}

func decodeWeek(payload string) (week.WeeklyAttendance, error) {
	var w week.WeeklyAttendance
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		return week.WeeklyAttendance{}, fmt.Errorf("decode week: %w", err)
	}
	if w.Users == nil {
		w.Users = make(map[uint64]week.UserProfile)
	}
	return w, nil
}
