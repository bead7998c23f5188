/*
application.go - Leave application lifecycle

PURPOSE:
  Creates applications and drives the status state machine. The status write
  and its ledger effect share one transaction: if the ledger rejects the
  transition (insufficient balance, cash-out cap), the status change rolls
  back with it and the application keeps its previous state.

STATE MACHINE:
  Pending -> Approved | Rejected, and Approved <-> Rejected. Every target
  status is reachable from every other; the ledger's idempotence makes
  repeated identical transitions harmless.

TOTALS:
  Hours and days are always computed here from the submitted range. Totals
  a client sends are ignored.
*/
package leave

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Applications is the lifecycle controller.
type Applications struct {
	store  Store
	ledger *Ledger
	calc   *Calculator
	cfg    LedgerConfig
	log    *zap.Logger
}

// NewApplications returns a controller wired to the given store and ledger.
func NewApplications(store Store, ledger *Ledger, cfg LedgerConfig, log *zap.Logger) *Applications {
	if log == nil {
		log = zap.NewNop()
	}
	return &Applications{
		store:  store,
		ledger: ledger,
		calc:   NewCalculator(cfg),
		cfg:    cfg,
		log:    log,
	}
}

// CreateInput is a submitted leave request. Dates are already parsed; clock
// times stay as "HH:MM" strings and may be empty when day types apply.
type CreateInput struct {
	EmployeeID   string
	StartDate    time.Time
	EndDate      time.Time
	StartTime    string
	EndTime      string
	StartDayType DayType
	EndDayType   DayType
	LeaveType    string
	Reasons      []string
	Reason       string
}

// Create validates a request, computes its working-time totals, runs the
// pre-submission policy checks and persists it as Pending.
func (a *Applications) Create(ctx context.Context, in CreateInput) (*Application, error) {
	emp, err := a.store.Employee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil || !emp.Active {
		return nil, ErrEmployeeNotFound
	}

	token := NormalizeLeaveType(in.LeaveType)
	if token == "" {
		return nil, &ValidationError{Field: "leave_type", Message: "leave type is required"}
	}

	holidays, err := a.store.Holidays(ctx)
	if err != nil {
		return nil, err
	}
	dur, err := a.calc.ComputeDuration(DurationInput{
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		StartDayType: in.StartDayType,
		EndDayType:   in.EndDayType,
		Holidays:     NewHolidaySet(holidays),
	})
	if err != nil {
		return nil, err
	}
	if !dur.Hours.IsPositive() {
		return nil, &ValidationError{Field: "dates", Message: "the requested range covers no working time"}
	}

	year := in.StartDate.Year()
	switch token {
	case LeaveWithoutPay:
		if err := a.ledger.EnsureLeaveWithoutPayAllowed(ctx, emp.ID, dur.Days, year); err != nil {
			return nil, err
		}
	case CashOut:
		if err := a.ledger.EnsureCashOutWithinBalance(ctx, emp.ID, dur.Days, year); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	app := &Application{
		ID:           uuid.NewString(),
		Code:         a.NextCode(),
		EmployeeID:   emp.ID,
		EmployeeName: emp.Name(),
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		StartDayType: in.StartDayType,
		EndDayType:   in.EndDayType,
		LeaveType:    token,
		Reasons:      in.Reasons,
		Reason:       in.Reason,
		TotalHours:   dur.Hours,
		TotalDays:    dur.Days,
		Status:       StatusPending,
		DateApplied:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = a.store.WithTx(ctx, func(tx Tx) error {
		return tx.InsertApplication(app)
	})
	if err != nil {
		return nil, err
	}

	a.log.Info("application created",
		zap.String("code", app.Code),
		zap.String("employee_id", emp.ID),
		zap.String("leave_type", token),
		zap.String("days", dur.Days.String()))
	return app, nil
}

// NextCode generates a human-readable application code, e.g.
// APP-20250812-3F9A01BC. Codes are display identifiers, not keys.
func (a *Applications) NextCode() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("APP-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}

// TransitionResult reports a completed status change. The API layer uses it
// to dispatch notifications after the transaction commits.
type TransitionResult struct {
	Application *Application
	Employee    *Employee
	Previous    Status
	ReturnDate  time.Time
}

// UpdateStatus moves an application to next and applies the ledger effect in
// the same transaction. Re-submitting the current status is a harmless no-op
// thanks to ledger idempotence.
func (a *Applications) UpdateStatus(ctx context.Context, id string, next Status, actor string) (*TransitionResult, error) {
	if !next.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", next)}
	}

	holidays, err := a.store.Holidays(ctx)
	if err != nil {
		return nil, err
	}

	var result TransitionResult
	err = a.store.WithTx(ctx, func(tx Tx) error {
		app, err := tx.Application(id)
		if err != nil {
			return err
		}
		if app == nil {
			return ErrApplicationNotFound
		}
		previous := app.Status

		now := time.Now().UTC()
		if _, err := tx.UpdateApplicationStatus(id, next, now); err != nil {
			return err
		}
		app.Status = next
		app.UpdatedAt = now

		if err := a.ledger.ApplyTransition(tx, app, next, actor); err != nil {
			return err
		}

		if next == StatusApproved && previous != StatusApproved {
			if err := tx.InsertApprovedLeave(&ApprovedLeave{
				ID:         uuid.NewString(),
				EmployeeID: app.EmployeeID,
				StartDate:  app.StartDate,
				EndDate:    app.EndDate,
				CreatedAt:  now,
				UpdatedAt:  now,
			}); err != nil {
				return err
			}
		}

		emp, err := tx.Employee(app.EmployeeID)
		if err != nil {
			return err
		}

		// Single-day requests carry their half-day marker on the start
		// boundary, same as the duration calculation.
		endDay := app.EndDayType
		if sameDay(app.StartDate, app.EndDate) {
			endDay = app.StartDayType
		}
		result = TransitionResult{
			Application: app,
			Employee:    emp,
			Previous:    previous,
			ReturnDate:  a.calc.ReturnDate(app.EndDate, app.TotalHours, app.EndTime, endDay, NewHolidaySet(holidays)),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.log.Info("application transitioned",
		zap.String("code", result.Application.Code),
		zap.String("from", string(result.Previous)),
		zap.String("to", string(next)),
		zap.String("actor", actor))
	return &result, nil
}

// Delete hard-removes an application. The ledger is deliberately not
// consulted: deleting an approved application does not restore its balance.
func (a *Applications) Delete(ctx context.Context, id string) error {
	return a.store.WithTx(ctx, func(tx Tx) error {
		deleted, err := tx.DeleteApplication(id)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrApplicationNotFound
		}
		return nil
	})
}
