package week

import (
	"math"
	"strings"
	"time"
)

// UnknownAlias is shown for attendees missing from the user registry.
const UnknownAlias = "Unknown"

// Attendee is one user's relationship to one session.
type Attendee struct {
	UserID    uint64 `json:"user_id"`
	Cancelled bool   `json:"cancelled"`
}

// UserProfile is the display information for a user, shared by every session in a week.
type UserProfile struct {
	Alias string `json:"alias"`
}

// SessionFields carries the editable fields of a session.
type SessionFields struct {
	Day      string
	Activity string
	Location string
	Time     string
}

// Validate checks that day, activity and location are present. Time may be
// blank; the seeded sessions have none.
// PRE: none
// POST: Returns a *ValidationError naming each blank required field, nil otherwise
func (f SessionFields) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(f.Day) == "" {
		v.Add("day", "day is required")
	}
	if strings.TrimSpace(f.Activity) == "" {
		v.Add("activity", "activity is required")
	}
	if strings.TrimSpace(f.Location) == "" {
		v.Add("location", "location is required")
	}
	if v.HasErrors() {
		return v
	}
	return nil
}

// Session is a single recurring training slot and its attendees.
// ID is the session's identity; its position in WeeklyAttendance.Sessions is display order only.
type Session struct {
	ID        uint16     `json:"id"`
	Activity  string     `json:"activity"`
	Location  string     `json:"location"`
	Day       string     `json:"day"`
	Time      string     `json:"time"`
	Attendees []Attendee `json:"attendees"`
}

// ActiveCount returns the number of attendees who have not cancelled.
func (s *Session) ActiveCount() int {
	n := 0
	for _, a := range s.Attendees {
		if !a.Cancelled {
			n++
		}
	}
	return n
}

// toggle flips the user's attendance or appends them as active.
// INVARIANT: a user appears at most once in Attendees
func (s *Session) toggle(userID uint64) {
	for i := range s.Attendees {
		if s.Attendees[i].UserID == userID {
			s.Attendees[i].Cancelled = !s.Attendees[i].Cancelled
			return
		}
	}
	s.Attendees = append(s.Attendees, Attendee{UserID: userID})
}

func (s *Session) apply(f SessionFields) {
	s.Day = f.Day
	s.Activity = f.Activity
	s.Location = f.Location
	s.Time = f.Time
}

// WeeklyAttendance is the aggregate root: one reporting week, its sessions and the user registry.
//
// Methods mutate in place and are not synchronized; callers hold the guard
// from the weekstate package.
type WeeklyAttendance struct {
	StartDate string                 `json:"start_date"`
	EndDate   string                 `json:"end_date"`
	Sessions  []Session              `json:"sessions"`
	Users     map[uint64]UserProfile `json:"user_registry"`
}

// New creates a week for the given sessions with dates computed from today.
// PRE: sessions have unique IDs
// POST: Returns a week starting on the Monday after today with empty attendee lists
func New(today time.Time, sessions []Session) *WeeklyAttendance {
	w := &WeeklyAttendance{
		Sessions: make([]Session, 0, len(sessions)),
		Users:    make(map[uint64]UserProfile),
	}
	for _, s := range sessions {
		s.Attendees = nil
		w.Sessions = append(w.Sessions, s)
	}
	w.StartDate, w.EndDate = FormatRange(NextWeek(today))
	return w
}

// ResetWeek rolls the week forward from today and clears every attendee list.
// PRE: caller holds the write lock
// POST: StartDate/EndDate are the next Monday..Sunday; all sessions have no attendees;
// session identities and fields are unchanged
func (w *WeeklyAttendance) ResetWeek(today time.Time) {
	w.StartDate, w.EndDate = FormatRange(NextWeek(today))
	for i := range w.Sessions {
		w.Sessions[i].Attendees = w.Sessions[i].Attendees[:0]
	}
}

// AddSession inserts a new session at the 1-indexed position order, or appends
// when order is out of range, and returns its assigned ID.
// PRE: caller holds the write lock
// POST: New session has ID = max(existing IDs)+1 (1 when empty) and no attendees
func (w *WeeklyAttendance) AddSession(order int, fields SessionFields) (uint16, error) {
	if err := fields.Validate(); err != nil {
		return 0, err
	}
	var maxID uint16
	for _, s := range w.Sessions {
		if s.ID > maxID {
			maxID = s.ID
		}
	}
	if maxID == math.MaxUint16 {
		return 0, ErrSessionLimit
	}

	s := Session{ID: maxID + 1}
	s.apply(fields)

	if order >= 1 && order <= len(w.Sessions) {
		w.Sessions = append(w.Sessions, Session{})
		copy(w.Sessions[order:], w.Sessions[order-1:])
		w.Sessions[order-1] = s
	} else {
		w.Sessions = append(w.Sessions, s)
	}
	return s.ID, nil
}

// EditSession overwrites the fields of the session at the 1-indexed position order.
// PRE: caller holds the write lock
// POST: ID and attendees are unchanged; returns ErrNotFound when order is out of range
func (w *WeeklyAttendance) EditSession(order int, fields SessionFields) error {
	if order < 1 || order > len(w.Sessions) {
		return ErrNotFound
	}
	if err := fields.Validate(); err != nil {
		return err
	}
	w.Sessions[order-1].apply(fields)
	return nil
}

// DeleteSession removes the session at the 1-indexed position order, discarding its attendees.
// PRE: caller holds the write lock
// POST: Later sessions shift down one position; returns ErrNotFound when order is out of range
func (w *WeeklyAttendance) DeleteSession(order int) (Session, error) {
	if order < 1 || order > len(w.Sessions) {
		return Session{}, ErrNotFound
	}
	removed := w.Sessions[order-1]
	w.Sessions = append(w.Sessions[:order-1], w.Sessions[order:]...)
	return removed, nil
}

// ToggleAttendance records the user's latest alias and flips their attendance
// in the session with the given ID. It reports whether the session exists;
// an unknown session ID is a no-op so stale buttons stay harmless.
// PRE: caller holds the write lock
// POST: Users[userID].Alias == alias; the user appears at most once in the session
func (w *WeeklyAttendance) ToggleAttendance(sessionID uint16, userID uint64, alias string) bool {
	if w.Users == nil {
		w.Users = make(map[uint64]UserProfile)
	}
	w.Users[userID] = UserProfile{Alias: alias}

	s := w.SessionByID(sessionID)
	if s == nil {
		return false
	}
	s.toggle(userID)
	return true
}

// SessionByID returns the session with the given ID, or nil.
func (w *WeeklyAttendance) SessionByID(id uint16) *Session {
	for i := range w.Sessions {
		if w.Sessions[i].ID == id {
			return &w.Sessions[i]
		}
	}
	return nil
}

// Alias resolves a user's display name through the registry.
func (w *WeeklyAttendance) Alias(userID uint64) string {
	if p, ok := w.Users[userID]; ok {
		return p.Alias
	}
	return UnknownAlias
}

// Snapshot returns a deep copy that shares no memory with w.
// PRE: caller holds at least the read lock
// POST: Mutating the copy never affects w and vice versa
func (w *WeeklyAttendance) Snapshot() WeeklyAttendance {
	c := WeeklyAttendance{
		StartDate: w.StartDate,
		EndDate:   w.EndDate,
		Sessions:  make([]Session, len(w.Sessions)),
		Users:     make(map[uint64]UserProfile, len(w.Users)),
	}
	for i, s := range w.Sessions {
		s.Attendees = append([]Attendee(nil), s.Attendees...)
		c.Sessions[i] = s
	}
	for id, p := range w.Users {
		c.Users[id] = p
	}
	return c
}
