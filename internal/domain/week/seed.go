package week

// DefaultSchedule is the club's standing weekly timetable.
func DefaultSchedule() []Session {
	return []Session{
		{ID: 1, Day: "Monday", Activity: "Swim", Location: "USC Pool"},
		{ID: 2, Day: "Tuesday", Activity: "Run", Location: "NUS Track"},
		{ID: 3, Day: "Wednesday", Activity: "Swim", Location: "USC Pool"},
		{ID: 4, Day: "Thursday", Activity: "Run", Location: "NUS Track"},
		{ID: 5, Day: "Friday", Activity: "Swim", Location: "USC Pool"},
		{ID: 6, Day: "Saturday", Activity: "Bricks", Location: "Palawan Beach"},
	}
}
