package notify_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtask/leave-engine/leave"
	"github.com/qtask/leave-engine/notify"
)

func testApplication() *leave.Application {
	return &leave.Application{
		Code:      "APP-20250310-ABCDEF01",
		StartDate: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC),
		LeaveType: "personal",
		TotalDays: decimal.NewFromInt(5),
	}
}

func TestBuildInvite_EndDateExclusive(t *testing.T) {
	// GIVEN: leave ending Friday March 14
	// THEN: DTEND is Saturday March 15, exclusive per RFC 5545

	invite := notify.BuildInvite(testApplication(), "Grace Hopper")
	content := string(invite.Content)

	assert.Contains(t, content, "DTSTART;VALUE=DATE:20250310")
	assert.Contains(t, content, "DTEND;VALUE=DATE:20250315")
}

func TestBuildInvite_Structure(t *testing.T) {
	invite := notify.BuildInvite(testApplication(), "Grace Hopper")
	content := string(invite.Content)

	assert.Equal(t, "leave-APP-20250310-ABCDEF01.ics", invite.Filename)
	assert.True(t, strings.HasPrefix(content, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(content, "END:VCALENDAR\r\n"))
	assert.Contains(t, content, "SUMMARY:Grace Hopper - Leave (APP-20250310-ABCDEF01)")
	assert.Contains(t, content, "UID:")

	// Every line must end with CRLF, never a bare LF.
	for _, line := range strings.Split(strings.TrimSuffix(content, "\r\n"), "\r\n") {
		require.NotContains(t, line, "\n", "bare LF in %q", line)
	}
}

func TestBuildInvite_EscapesText(t *testing.T) {
	app := testApplication()
	invite := notify.BuildInvite(app, "Hopper, Grace; Admiral")

	assert.Contains(t, string(invite.Content), "SUMMARY:Hopper\\, Grace\\; Admiral - Leave")
}
