package projections

// helpText lists the chat commands. Organizer commands may be restricted by policy.
const helpText = "<b>🔱 Aquathallyon Bot Help</b>\n\n" +
	"<b>👥 Member Commands</b>\n" +
	"/history - Show this week's attendance with check-in buttons\n" +
	"/log - Show session totals for this week\n\n" +
	"<b>🛠️ Management (EXCO)</b>\n" +
	"/new_week - Reset all lists for next week\n" +
	"/add - Create a new training session\n" +
	"/edit - Modify an existing session\n" +
	"/delete - Remove a session: /delete (order)\n" +
	"/save - Sync current data to storage\n\n" +
	"<i>Tip: Use commas to separate arguments for /add and /edit.\n" +
	"The format is /(command) (order), (day), (activity), (location), (time)</i>"

// RenderHelp returns the static help message.
func RenderHelp() string {
	return helpText
}
