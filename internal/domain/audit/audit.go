package audit

import (
	"time"

	"github.com/google/uuid"
)

// Category groups audit events by what they touched.
type Category string

const (
	CategoryAttendance Category = "attendance"
	CategorySchedule   Category = "schedule"
	CategoryWeek       Category = "week"
	CategoryStorage    Category = "storage"
)

// Action represents the action that occurred.
type Action string

const (
	ActionToggle  Action = "toggle"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionReset   Action = "reset"
	ActionSave    Action = "save"
	ActionArchive Action = "archive"
)

// Event is one line of the flat activity log echoed to storage.
type Event struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Category    Category  `json:"category"`
	Action      Action    `json:"action"`
	ActorID     uint64    `json:"actor_id"`
	ActorAlias  string    `json:"actor_alias"`
	SessionID   uint16    `json:"session_id"`
	WeekStart   string    `json:"week_start"`
	Description string    `json:"description"`
}

// NewEvent creates an event stamped with now and a fresh ID.
// PRE: category and action are non-empty
// POST: Returns an Event with ID, Timestamp, Category and Action set
func NewEvent(now time.Time, category Category, action Action) Event {
	return Event{
		ID:        uuid.New().String(),
		Timestamp: now,
		Category:  category,
		Action:    action,
	}
}

// WithActor sets who caused the event.
func (e Event) WithActor(userID uint64, alias string) Event {
	e.ActorID = userID
	e.ActorAlias = alias
	return e
}

// WithSession sets the affected session.
func (e Event) WithSession(id uint16) Event {
	e.SessionID = id
	return e
}

// WithWeek sets the reporting week the event belongs to.
func (e Event) WithWeek(start string) Event {
	e.WeekStart = start
	return e
}

// WithDescription sets the human readable description.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}
