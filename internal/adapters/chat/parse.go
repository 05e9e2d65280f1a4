package chat

import (
	"strconv"
	"strings"

	"aquatallyon/internal/domain/week"
)

// sessionArgCount is order, day, activity, location, time.
const sessionArgCount = 5

// ParseSessionArgs splits "order, day, activity, location, time" on commas.
// Fields are trimmed. Extra fields belong to the location, so "ECP, Gate 2"
// survives; the last field is always the time, which may be blank.
// PRE: none
// POST: Returns a *week.ValidationError when fields are missing, the order is
// not an integer, or day, activity or location is blank
func ParseSessionArgs(raw string) (int, week.SessionFields, error) {
	parts := strings.Split(raw, ",")
	if len(parts) < sessionArgCount {
		v := &week.ValidationError{}
		v.Add("args", "want order, day, activity, location, time")
		return 0, week.SessionFields{}, v
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	last := len(parts) - 1
	fields := week.SessionFields{
		Day:      parts[1],
		Activity: parts[2],
		Location: strings.Join(parts[3:last], ", "),
		Time:     parts[last],
	}
	order, err := ParseOrder(parts[0])
	if ferr := fields.Validate(); ferr != nil {
		v := ferr.(*week.ValidationError)
		if err != nil {
			v.Add("order", "order must be a number")
		}
		return 0, week.SessionFields{}, v
	}
	if err != nil {
		return 0, week.SessionFields{}, err
	}
	return order, fields, nil
}

// ParseOrder parses a 1-indexed session position. Range is not checked here:
// add appends out-of-range orders, edit and delete report them as not found.
// PRE: none
// POST: Returns a *week.ValidationError unless raw is an integer
func ParseOrder(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		v := &week.ValidationError{}
		v.Add("order", "order must be a number")
		return 0, v
	}
	return n, nil
}
