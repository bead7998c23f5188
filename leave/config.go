package leave

import "github.com/shopspring/decimal"

// LedgerConfig carries the thresholds and policy switches for the duration
// calculator and the balance ledger. It replaces the pile of module-level
// constants the behavior was originally tuned with: construct one, adjust
// fields, and pass it into NewLedger/NewCalculator. Engines never reach for
// globals.
type LedgerConfig struct {
	// WorkHoursPerDay is the per-day working-hours constant. Multi-day
	// requests contribute this many hours per working day, and
	// TotalDays = TotalHours / WorkHoursPerDay.
	WorkHoursPerDay decimal.Decimal

	// EarliestLeaveTime/LatestLeaveTime bound the allowed clock-in/out
	// window for same-day requests with explicit times. LatestLeaveTime is
	// also the business-close threshold for return-date computation.
	EarliestLeaveTime Clock
	LatestLeaveTime   Clock

	// Default allocations used when an employee record carries none.
	DefaultPrivilegeDays decimal.Decimal
	DefaultSickDays      decimal.Decimal

	// PreventNegativeBalances rejects deductions that would drive a bucket
	// below zero. Cash-out deductions enforce this regardless of the flag.
	PreventNegativeBalances bool

	// Epsilon absorbs rounding from the duration calculator in balance
	// comparisons.
	Epsilon decimal.Decimal

	// DaysPrecision is the fixed rounding applied to computed day totals so
	// repeated balance math stays stable.
	DaysPrecision int32

	// LeaveTypes maps every accepted leave-type token to its category.
	// Tokens absent from the table classify as Sick (legacy fallback);
	// ValidateTokens rejects unknown tokens at startup instead.
	LeaveTypes map[string]LeaveCategory
}

// DefaultConfig returns the production configuration.
func DefaultConfig() LedgerConfig {
	return LedgerConfig{
		WorkHoursPerDay:         decimal.NewFromInt(8),
		EarliestLeaveTime:       MustClock("06:30"),
		LatestLeaveTime:         MustClock("15:00"),
		DefaultPrivilegeDays:    decimal.NewFromInt(15),
		DefaultSickDays:         decimal.NewFromInt(7),
		PreventNegativeBalances: true,
		Epsilon:                 decimal.New(1, -6), // 1e-6
		DaysPrecision:           4,
		LeaveTypes:              DefaultLeaveTypes(),
	}
}

func (c LedgerConfig) halfDayHours() decimal.Decimal {
	return c.WorkHoursPerDay.Div(decimal.NewFromInt(2))
}
