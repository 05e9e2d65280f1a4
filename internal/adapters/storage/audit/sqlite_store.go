package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"aquatallyon/internal/adapters/storage"
	domain "aquatallyon/internal/domain/audit"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const selectColumns = `SELECT id, timestamp, category, action, actor_id, actor_alias, session_id, week_start, description FROM audit_event`

// SQLiteStore implements the audit Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new audit event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an audit event.
// PRE: event has an ID
// POST: Event is persisted
func (s *SQLiteStore) Save(ctx context.Context, event domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_event (id, timestamp, category, action, actor_id, actor_alias, session_id, week_start, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp.UTC().Format(dateLayout), string(event.Category), string(event.Action),
		int64(event.ActorID), event.ActorAlias, int64(event.SessionID), event.WeekStart, event.Description)
	if err != nil {
		return fmt.Errorf("save audit event: %w", err)
	}
	return nil
}

// List returns audit events with optional filtering.
// PRE: limit > 0
// POST: Returns events ordered by timestamp desc
func (s *SQLiteStore) List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error) {
	query := selectColumns + ` WHERE 1=1`
	args := []any{}

	if filter.Category != nil {
		query += " AND category = ?"
		args = append(args, string(*filter.Category))
	}
	if filter.Action != nil {
		query += " AND action = ?"
		args = append(args, string(*filter.Action))
	}
	if filter.ActorID != nil {
		query += " AND actor_id = ?"
		args = append(args, int64(*filter.ActorID))
	}
	if filter.WeekStart != nil {
		query += " AND week_start = ?"
		args = append(args, *filter.WeekStart)
	}

	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// scanEvents scans multiple rows into a slice of Events.
func scanEvents(rows *sql.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var timestamp string
		var actorID, sessionID int64
		if err := rows.Scan(&e.ID, &timestamp, &e.Category, &e.Action, &actorID, &e.ActorAlias, &sessionID, &e.WeekStart, &e.Description); err != nil {
			return nil, err
		}
		e.ActorID = uint64(actorID)
		e.SessionID = uint16(sessionID)
		e.Timestamp, _ = time.Parse(dateLayout, timestamp)
		events = append(events, e)
	}
	return events, rows.Err()
}
