/*
Package notify delivers the side effects of leave decisions: email to the
admin and the employee, an iCalendar invite on approval, and per-recipient
delivery results for the API response. Everything here is best-effort and
runs after the owning transaction has committed; a failed email never rolls
back a status change.
*/
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qtask/leave-engine/leave"
)

const icsDateLayout = "20060102"

// Invite is a generated iCalendar attachment.
type Invite struct {
	Filename string
	Content  []byte
}

// BuildInvite renders an all-day VEVENT for an approved application.
// DTEND is exclusive per RFC 5545, so it is the day after the last day of
// leave. Lines end with CRLF as the format requires.
func BuildInvite(app *leave.Application, employeeName string) Invite {
	start := app.StartDate.Format(icsDateLayout)
	end := app.EndDate.AddDate(0, 0, 1).Format(icsDateLayout)
	stamp := time.Now().UTC().Format("20060102T150405Z")

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//leave-engine//EN",
		"METHOD:REQUEST",
		"BEGIN:VEVENT",
		"UID:" + uuid.NewString() + "@leave-engine",
		"DTSTAMP:" + stamp,
		"DTSTART;VALUE=DATE:" + start,
		"DTEND;VALUE=DATE:" + end,
		"SUMMARY:" + escapeText(employeeName+" - Leave ("+app.Code+")"),
		"DESCRIPTION:" + escapeText(fmt.Sprintf("%s leave, %s days", app.LeaveType, app.TotalDays.String())),
		"STATUS:CONFIRMED",
		"TRANSP:OPAQUE",
		"END:VEVENT",
		"END:VCALENDAR",
	}

	return Invite{
		Filename: "leave-" + app.Code + ".ics",
		Content:  []byte(strings.Join(lines, "\r\n") + "\r\n"),
	}
}

// escapeText applies RFC 5545 TEXT escaping.
func escapeText(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
	)
	return r.Replace(s)
}
