/*
duration.go - Working-time duration math

PURPOSE:
  Converts a leave request's date/time range into total hours and equivalent
  working days, and computes the return-to-work date. All totals are computed
  here, server-side; client-supplied totals are never trusted.

RULES:
  Same calendar day, explicit times:
    Both times must fall inside the allowed window
    (EarliestLeaveTime..LatestLeaveTime) and end must follow start. The
    duration is the wall-clock delta, capped at WorkHoursPerDay.

  Same calendar day, no times:
    The start day type decides: full day or half day (am/pm).

  Multiple calendar days:
    Every weekday that is not a holiday contributes WorkHoursPerDay,
    regardless of clock times. Partial first/last days are NOT prorated.
    This is a deliberate carry-over of the established behavior, not a bug;
    whether multi-day spans should prorate boundary days is an open product
    question (the history shows both behaviors shipped and reverted).

  TotalDays = TotalHours / WorkHoursPerDay rounded to a fixed precision so
  repeated balance arithmetic stays drift-free.
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// Calculator computes request durations and return dates from a LedgerConfig.
type Calculator struct {
	cfg LedgerConfig
}

// NewCalculator returns a Calculator for the given configuration.
func NewCalculator(cfg LedgerConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// DurationInput is one request's date/time range.
type DurationInput struct {
	StartDate    time.Time
	EndDate      time.Time
	StartTime    string // "HH:MM", empty when absent
	EndTime      string
	StartDayType DayType // used only when explicit times are absent
	EndDayType   DayType
	Holidays     HolidaySet
}

// Duration is the computed total for a request.
type Duration struct {
	Hours decimal.Decimal
	Days  decimal.Decimal
}

// ComputeDuration validates the range and returns its working-time total.
// It fails with a ValidationError on end-before-start, out-of-window times,
// or unparsable times; it never silently clamps an impossible request.
func (c *Calculator) ComputeDuration(in DurationInput) (Duration, error) {
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return Duration{}, &ValidationError{Field: "dates", Message: "start and end dates are required"}
	}
	if in.EndDate.Before(in.StartDate) {
		return Duration{}, &ValidationError{Field: "end_date", Message: "end date precedes start date"}
	}

	var hours decimal.Decimal
	if sameDay(in.StartDate, in.EndDate) {
		h, err := c.singleDayHours(in)
		if err != nil {
			return Duration{}, err
		}
		hours = h
	} else {
		hours = c.multiDayHours(in)
	}

	days := decimal.Zero
	if c.cfg.WorkHoursPerDay.IsPositive() {
		days = hours.Div(c.cfg.WorkHoursPerDay).Round(c.cfg.DaysPrecision)
	}
	return Duration{Hours: hours, Days: days}, nil
}

func (c *Calculator) singleDayHours(in DurationInput) (decimal.Decimal, error) {
	if in.StartTime == "" || in.EndTime == "" {
		switch in.StartDayType {
		case DayMorning, DayAfternoon:
			return c.cfg.halfDayHours(), nil
		default:
			return c.cfg.WorkHoursPerDay, nil
		}
	}

	start, err := ParseClock(in.StartTime)
	if err != nil {
		return decimal.Zero, err
	}
	end, err := ParseClock(in.EndTime)
	if err != nil {
		return decimal.Zero, err
	}
	if start.Before(c.cfg.EarliestLeaveTime) || start.After(c.cfg.LatestLeaveTime) {
		return decimal.Zero, &ValidationError{
			Field:   "start_time",
			Message: "start time " + start.String() + " outside allowed window " + c.window(),
		}
	}
	if end.Before(c.cfg.EarliestLeaveTime) || end.After(c.cfg.LatestLeaveTime) {
		return decimal.Zero, &ValidationError{
			Field:   "end_time",
			Message: "end time " + end.String() + " outside allowed window " + c.window(),
		}
	}
	minutes := start.MinutesUntil(end)
	if minutes <= 0 {
		return decimal.Zero, &ValidationError{Field: "end_time", Message: "end time must be after start time"}
	}

	hours := decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)).Round(c.cfg.DaysPrecision)
	if hours.GreaterThan(c.cfg.WorkHoursPerDay) {
		hours = c.cfg.WorkHoursPerDay
	}
	return hours, nil
}

// multiDayHours counts whole working days; clock times are ignored by design
// (see the file header).
func (c *Calculator) multiDayHours(in DurationInput) decimal.Decimal {
	total := decimal.Zero
	for d := in.StartDate; !d.After(in.EndDate); d = d.AddDate(0, 0, 1) {
		if IsWorkday(d, in.Holidays) {
			total = total.Add(c.cfg.WorkHoursPerDay)
		}
	}
	return total
}

func (c *Calculator) window() string {
	return c.cfg.EarliestLeaveTime.String() + "-" + c.cfg.LatestLeaveTime.String()
}

// ReturnDate computes the first day the employee is expected back at work.
// A partial final day that ends before business close keeps the same return
// date; a morning half day counts as ending before close. Anything else
// returns the next weekday that is not a holiday.
func (c *Calculator) ReturnDate(endDate time.Time, totalHours decimal.Decimal, endTime string, endDayType DayType, holidays HolidaySet) time.Time {
	if totalHours.LessThan(c.cfg.WorkHoursPerDay) {
		if endTime != "" {
			if end, err := ParseClock(endTime); err == nil && end.Before(c.cfg.LatestLeaveTime) {
				return endDate
			}
		} else if endDayType == DayMorning {
			return endDate
		}
	}
	return NextWorkday(endDate, holidays)
}
