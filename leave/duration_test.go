package leave_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtask/leave-engine/leave"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func days(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newCalculator() *leave.Calculator {
	return leave.NewCalculator(leave.DefaultConfig())
}

// =============================================================================
// SAME-DAY REQUESTS
// =============================================================================

func TestComputeDuration_SameDay_ExplicitTimes(t *testing.T) {
	// GIVEN: a single-day request from 09:00 to 12:00
	// WHEN: computing its duration
	// THEN: 3 hours, 0.375 days

	calc := newCalculator()
	dur, err := calc.ComputeDuration(leave.DurationInput{
		StartDate: date(2025, time.March, 10),
		EndDate:   date(2025, time.March, 10),
		StartTime: "09:00",
		EndTime:   "12:00",
	})
	require.NoError(t, err)
	assert.True(t, dur.Hours.Equal(days("3")), "hours: %s", dur.Hours)
	assert.True(t, dur.Days.Equal(days("0.375")), "days: %s", dur.Days)
}

func TestComputeDuration_SameDay_CappedAtWorkday(t *testing.T) {
	// GIVEN: the full allowed window 06:30 to 15:00 (8.5 wall-clock hours)
	// WHEN: computing its duration
	// THEN: capped at one working day of 8 hours

	calc := newCalculator()
	dur, err := calc.ComputeDuration(leave.DurationInput{
		StartDate: date(2025, time.March, 10),
		EndDate:   date(2025, time.March, 10),
		StartTime: "06:30",
		EndTime:   "15:00",
	})
	require.NoError(t, err)
	assert.True(t, dur.Hours.Equal(days("8")), "hours: %s", dur.Hours)
	assert.True(t, dur.Days.Equal(days("1")), "days: %s", dur.Days)
}

func TestComputeDuration_SameDay_DayTypes(t *testing.T) {
	calc := newCalculator()

	full, err := calc.ComputeDuration(leave.DurationInput{
		StartDate:    date(2025, time.March, 10),
		EndDate:      date(2025, time.March, 10),
		StartDayType: leave.DayFull,
	})
	require.NoError(t, err)
	assert.True(t, full.Days.Equal(days("1")))

	half, err := calc.ComputeDuration(leave.DurationInput{
		StartDate:    date(2025, time.March, 10),
		EndDate:      date(2025, time.March, 10),
		StartDayType: leave.DayMorning,
	})
	require.NoError(t, err)
	assert.True(t, half.Hours.Equal(days("4")))
	assert.True(t, half.Days.Equal(days("0.5")))
}

func TestComputeDuration_SameDay_OutsideWindow(t *testing.T) {
	// GIVEN: a start time before the 06:30 window opens
	// THEN: a validation error, no silent clamping

	calc := newCalculator()
	_, err := calc.ComputeDuration(leave.DurationInput{
		StartDate: date(2025, time.March, 10),
		EndDate:   date(2025, time.March, 10),
		StartTime: "05:00",
		EndTime:   "12:00",
	})
	require.Error(t, err)
	assert.True(t, leave.IsValidation(err))
}

func TestComputeDuration_SameDay_EndBeforeStart(t *testing.T) {
	calc := newCalculator()
	_, err := calc.ComputeDuration(leave.DurationInput{
		StartDate: date(2025, time.March, 10),
		EndDate:   date(2025, time.March, 10),
		StartTime: "12:00",
		EndTime:   "09:00",
	})
	require.Error(t, err)
	assert.True(t, leave.IsValidation(err))
}

func TestComputeDuration_EndDateBeforeStartDate(t *testing.T) {
	calc := newCalculator()
	_, err := calc.ComputeDuration(leave.DurationInput{
		StartDate: date(2025, time.March, 14),
		EndDate:   date(2025, time.March, 10),
	})
	require.Error(t, err)
	assert.True(t, leave.IsValidation(err))
}

// =============================================================================
// MULTI-DAY REQUESTS
// =============================================================================

func TestComputeDuration_MultiDay_SkipsWeekendsAndHolidays(t *testing.T) {
	// GIVEN: Monday through next Monday with Wednesday a holiday
	// WHEN: computing the duration
	// THEN: 5 working days count (Mon Tue Thu Fri Mon), weekend and the
	//       holiday contribute nothing

	calc := newCalculator()
	holidays := leave.NewHolidaySet([]leave.Holiday{
		{Date: date(2025, time.March, 12)},
	})

	dur, err := calc.ComputeDuration(leave.DurationInput{
		StartDate: date(2025, time.March, 10), // Monday
		EndDate:   date(2025, time.March, 17), // next Monday
		Holidays:  holidays,
	})
	require.NoError(t, err)
	assert.True(t, dur.Hours.Equal(days("40")), "hours: %s", dur.Hours)
	assert.True(t, dur.Days.Equal(days("5")), "days: %s", dur.Days)
}

func TestComputeDuration_MultiDay_TimesIgnored(t *testing.T) {
	// Partial boundary days are not prorated on multi-day spans.

	calc := newCalculator()
	dur, err := calc.ComputeDuration(leave.DurationInput{
		StartDate: date(2025, time.March, 10),
		EndDate:   date(2025, time.March, 11),
		StartTime: "13:00",
		EndTime:   "10:00",
	})
	require.NoError(t, err)
	assert.True(t, dur.Days.Equal(days("2")), "days: %s", dur.Days)
}

func TestComputeDuration_WeekendOnly_IsZero(t *testing.T) {
	calc := newCalculator()
	dur, err := calc.ComputeDuration(leave.DurationInput{
		StartDate: date(2025, time.March, 15), // Saturday
		EndDate:   date(2025, time.March, 16), // Sunday
	})
	require.NoError(t, err)
	assert.True(t, dur.Hours.IsZero())
}

// =============================================================================
// RETURN DATE
// =============================================================================

func TestReturnDate_PartialDayBeforeClose_SameDay(t *testing.T) {
	// A half day ending at 12:00 puts the employee back at work the same day.

	calc := newCalculator()
	end := date(2025, time.March, 14) // Friday
	got := calc.ReturnDate(end, days("4"), "12:00", "", nil)
	assert.Equal(t, end, got)
}

func TestReturnDate_MorningHalfDay_SameDay(t *testing.T) {
	// An am half day has no clock times but still ends before business close.

	calc := newCalculator()
	end := date(2025, time.March, 14)
	got := calc.ReturnDate(end, days("4"), "", leave.DayMorning, nil)
	assert.Equal(t, end, got)
}

func TestReturnDate_AfternoonHalfDay_NextWorkday(t *testing.T) {
	// A pm half day runs until close; back the next working day.

	calc := newCalculator()
	got := calc.ReturnDate(date(2025, time.March, 14), days("4"), "", leave.DayAfternoon, nil)
	assert.Equal(t, date(2025, time.March, 17), got)
}

func TestReturnDate_FullDay_NextWorkday(t *testing.T) {
	// A full Friday off means returning Monday.

	calc := newCalculator()
	got := calc.ReturnDate(date(2025, time.March, 14), days("8"), "", leave.DayFull, nil)
	assert.Equal(t, date(2025, time.March, 17), got)
}

func TestReturnDate_SkipsHoliday(t *testing.T) {
	calc := newCalculator()
	holidays := leave.NewHolidaySet([]leave.Holiday{
		{Date: date(2025, time.March, 17)}, // Monday holiday
	})
	got := calc.ReturnDate(date(2025, time.March, 14), days("8"), "", leave.DayFull, holidays)
	assert.Equal(t, date(2025, time.March, 18), got)
}

// =============================================================================
// CLOCK PARSING
// =============================================================================

func TestParseClock(t *testing.T) {
	c, err := leave.ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, "09:30", c.String())

	_, err = leave.ParseClock("25:00")
	assert.Error(t, err)
	_, err = leave.ParseClock("bogus")
	assert.Error(t, err)
}
