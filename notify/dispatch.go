package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/qtask/leave-engine/leave"
)

// Delivery is the per-recipient outcome of one dispatch. The transition
// endpoint returns these so the UI can show which mails went out without
// tying the status change to mail server health.
type Delivery struct {
	Recipient string `json:"recipient"`
	Sent      bool   `json:"sent"`
	Error     string `json:"error,omitempty"`
}

// Dispatcher fans out leave events to email. All sends are best-effort:
// failures are logged and reported per recipient, never returned as errors.
type Dispatcher struct {
	mailer     Mailer
	adminEmail string
	log        *zap.Logger
}

// NewDispatcher returns a dispatcher. A nil mailer disables email entirely;
// dispatch methods then return empty results.
func NewDispatcher(mailer Mailer, adminEmail string, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{mailer: mailer, adminEmail: adminEmail, log: log}
}

// SubmissionNotice tells the admin a new application is waiting.
func (d *Dispatcher) SubmissionNotice(ctx context.Context, app *leave.Application, emp *leave.Employee) []Delivery {
	if d.mailer == nil || d.adminEmail == "" {
		return nil
	}
	msg := Message{
		To:      d.adminEmail,
		Subject: fmt.Sprintf("New leave application %s from %s", app.Code, emp.Name()),
		Body: fmt.Sprintf("%s requested %s days of %s leave (%s to %s).\n\nApplication: %s\n",
			emp.Name(), app.TotalDays.String(), app.LeaveType,
			leave.FormatDate(app.StartDate), leave.FormatDate(app.EndDate), app.Code),
	}
	return []Delivery{d.send(ctx, msg)}
}

// TransitionNotices tells the employee and the admin about a status change.
// Approvals attach a calendar invite and quote the return-to-work date.
func (d *Dispatcher) TransitionNotices(ctx context.Context, res *leave.TransitionResult) []Delivery {
	if d.mailer == nil {
		return nil
	}
	app := res.Application
	emp := res.Employee

	var body string
	var invite *Invite
	switch app.Status {
	case leave.StatusApproved:
		body = fmt.Sprintf("Your leave application %s has been approved.\n"+
			"Dates: %s to %s (%s days)\nExpected back at work: %s\n",
			app.Code, leave.FormatDate(app.StartDate), leave.FormatDate(app.EndDate),
			app.TotalDays.String(), leave.FormatDate(res.ReturnDate))
		inv := BuildInvite(app, emp.Name())
		invite = &inv
	case leave.StatusRejected:
		body = fmt.Sprintf("Your leave application %s has been rejected.\n", app.Code)
	default:
		body = fmt.Sprintf("Your leave application %s is back in review.\n", app.Code)
	}

	var results []Delivery
	if emp != nil && emp.Email != "" {
		results = append(results, d.send(ctx, Message{
			To:         emp.Email,
			Subject:    fmt.Sprintf("Leave application %s: %s", app.Code, app.Status),
			Body:       body,
			Attachment: invite,
		}))
	}
	if d.adminEmail != "" {
		results = append(results, d.send(ctx, Message{
			To:      d.adminEmail,
			Subject: fmt.Sprintf("Leave application %s moved to %s", app.Code, app.Status),
			Body: fmt.Sprintf("%s's application %s is now %s.\n",
				app.EmployeeName, app.Code, app.Status),
		}))
	}
	return results
}

func (d *Dispatcher) send(ctx context.Context, msg Message) Delivery {
	if err := d.mailer.Send(ctx, msg); err != nil {
		d.log.Warn("mail delivery failed",
			zap.String("recipient", msg.To),
			zap.Error(err))
		return Delivery{Recipient: msg.To, Sent: false, Error: err.Error()}
	}
	return Delivery{Recipient: msg.To, Sent: true}
}
