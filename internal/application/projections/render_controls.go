package projections

import (
	"fmt"
	"strconv"
	"strings"

	"aquatallyon/internal/domain/week"
)

// checkinPrefix is the only action token format buttons carry.
const checkinPrefix = "checkin_"

// Button is one actionable control. Action is echoed back verbatim on press.
type Button struct {
	Label  string
	Action string
}

// Keyboard is a transport-neutral control layout, one slice per row.
type Keyboard struct {
	Rows [][]Button
}

// RenderControls renders one check-in button per session, in list order.
// PRE: none
// POST: len(Rows) == len(sessions); each row holds a single button
func RenderControls(sessions []week.Session) Keyboard {
	rows := make([][]Button, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []Button{{
			Label:  fmt.Sprintf("%s: %s @ %s", s.Day, s.Activity, s.Location),
			Action: CheckinAction(s.ID),
		}})
	}
	return Keyboard{Rows: rows}
}

// CheckinAction encodes the action token for a session's button.
func CheckinAction(sessionID uint16) string {
	return checkinPrefix + strconv.FormatUint(uint64(sessionID), 10)
}

// ParseCheckinAction decodes a button action token.
// It reports false for anything that is not checkin_{id}.
func ParseCheckinAction(action string) (uint16, bool) {
	raw, ok := strings.CutPrefix(action, checkinPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, false
	}
	return uint16(id), true
}
