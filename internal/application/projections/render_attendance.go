package projections

import (
	"fmt"
	"html"
	"strings"

	"aquatallyon/internal/domain/week"
)

// RenderAttendance renders the full weekly report: every session with its
// active count and attendee aliases. Cancelled attendees are struck through.
// Output uses Telegram's HTML subset; user supplied text is escaped.
// PRE: caller holds at least the read lock, or w is a snapshot
// POST: identical input always yields identical output
func RenderAttendance(w *week.WeeklyAttendance) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 <b>Training Attendance %s to %s</b>\n\n", esc(w.StartDate), esc(w.EndDate))

	blocks := make([]string, 0, len(w.Sessions))
	for i := range w.Sessions {
		s := &w.Sessions[i]
		var names string
		if len(s.Attendees) == 0 {
			names = "<i>No one yet</i>"
		} else {
			lines := make([]string, 0, len(s.Attendees))
			for _, a := range s.Attendees {
				name := esc(w.Alias(a.UserID))
				if a.Cancelled {
					name = "<s>" + name + "</s>"
				}
				lines = append(lines, name)
			}
			names = strings.Join(lines, "\n")
		}
		blocks = append(blocks, summaryLine(s)+names+"\n")
	}
	b.WriteString(strings.Join(blocks, "\n"))
	return b.String()
}

// RenderLog renders the summary view: one line per session, no names.
// PRE: caller holds at least the read lock, or w is a snapshot
// POST: identical input always yields identical output
func RenderLog(w *week.WeeklyAttendance) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 <b>Training Log %s to %s</b>\n\n", esc(w.StartDate), esc(w.EndDate))

	lines := make([]string, 0, len(w.Sessions))
	for i := range w.Sessions {
		lines = append(lines, summaryLine(&w.Sessions[i]))
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

func summaryLine(s *week.Session) string {
	return fmt.Sprintf("<b>%s %s</b> @ %s (%d 👥)\n", esc(s.Day), esc(s.Activity), esc(s.Location), s.ActiveCount())
}

func esc(s string) string {
	return html.EscapeString(s)
}
