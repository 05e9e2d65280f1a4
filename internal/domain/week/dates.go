package week

import "time"

// DateLayout renders week boundaries as day/month.
const DateLayout = "02/01"

// NextWeek returns the Monday..Sunday pair of the week after today.
// A Monday rolls to the following Monday, never to itself.
// PRE: none
// POST: start.Weekday() == Monday, end == start+6 days, start is after today's date
func NextWeek(today time.Time) (start, end time.Time) {
	y, m, d := today.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	fromMonday := (int(day.Weekday()) + 6) % 7
	start = day.AddDate(0, 0, 7-fromMonday)
	end = start.AddDate(0, 0, 6)
	return start, end
}

// FormatRange formats a week boundary pair with DateLayout.
func FormatRange(start, end time.Time) (string, string) {
	return start.Format(DateLayout), end.Format(DateLayout)
}
