/*
Package leave implements the leave-management core: entities, leave-type
classification, working-time duration math, the balance ledger engine, and
the application lifecycle state machine.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee, Application, Balance, HistoryEntry: the persisted entities
  - BalanceType: which ledger bucket a leave type debits (PRIVILEGE or SICK)
  - LeaveCategory: closed classification of leave-type tokens
  - Status: the application state machine values

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all hours/days math, never raw floats
  2. Auditability: every balance mutation appends one immutable HistoryEntry
  3. Closed classification: one authoritative token table, validated at
     startup, instead of ad hoc string-set membership scattered per call site

SEE ALSO:
  - classify.go: the token table and classification rules
  - ledger.go:   balance mutations and status-transition side effects
  - duration.go: hours/days computation from date/time ranges
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BALANCE BUCKETS
// =============================================================================

// BalanceType identifies a ledger bucket. Each employee has one row per
// (type, year).
type BalanceType string

const (
	BalancePrivilege BalanceType = "PRIVILEGE"
	BalanceSick      BalanceType = "SICK"
)

// Label returns the human-facing name used in policy error messages.
func (b BalanceType) Label() string {
	switch b {
	case BalancePrivilege:
		return "Vacation Leave (VL)"
	case BalanceSick:
		return "Sick Leave (SL)"
	default:
		return string(b)
	}
}

// ChangeType tags a balance history entry.
//
// DEDUCTION and ADDITION move used/remaining days and participate in the
// idempotence check. UNPAID records the uncovered remainder of a
// leave-without-pay approval without touching the balance. RESET marks an
// administrative year reset.
type ChangeType string

const (
	ChangeDeduction ChangeType = "DEDUCTION"
	ChangeAddition  ChangeType = "ADDITION"
	ChangeUnpaid    ChangeType = "UNPAID"
	ChangeReset     ChangeType = "RESET"
)

// =============================================================================
// APPLICATION STATE MACHINE
// =============================================================================

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// DayType qualifies a request boundary day when no explicit clock times are
// given: a full day, or a morning/afternoon half day.
type DayType string

const (
	DayFull      DayType = "full"
	DayMorning   DayType = "am"
	DayAfternoon DayType = "pm"
)

// =============================================================================
// ENTITIES
// =============================================================================

// Employee is an active or soft-deleted staff record. Employees are never
// hard-removed; Active flips to false on termination and the row is
// reactivated (same id) if the same email is hired again.
type Employee struct {
	ID          string
	FirstName   string
	Surname     string
	Email       string
	AnnualLeave decimal.Decimal // yearly privilege allocation, days
	SickLeave   decimal.Decimal // yearly sick allocation, days
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Name returns the display name used in notifications.
func (e *Employee) Name() string {
	return e.FirstName + " " + e.Surname
}

// Application is a leave request. TotalHours/TotalDays are always computed
// server-side; client-supplied totals are ignored.
type Application struct {
	ID           string
	Code         string // human-readable, e.g. APP-20250812-3F9A01BC
	EmployeeID   string
	EmployeeName string
	StartDate    time.Time
	EndDate      time.Time
	StartTime    string // "HH:MM", empty when the day type applies
	EndTime      string
	StartDayType DayType
	EndDayType   DayType
	LeaveType    string // classification token, lower-cased on input
	Reasons      []string
	Reason       string
	TotalHours   decimal.Decimal
	TotalDays    decimal.Decimal
	Status       Status
	DateApplied  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Balance is one ledger bucket: (employee, type, year).
//
// INVARIANT: Remaining = Allocated + Carryforward - Used. Remaining is always
// recomputed from the other fields before persisting, never trusted from a
// caller.
type Balance struct {
	ID           string
	EmployeeID   string
	Type         BalanceType
	Year         int
	Allocated    decimal.Decimal
	Used         decimal.Decimal
	Remaining    decimal.Decimal
	Carryforward decimal.Decimal
	LastUpdated  time.Time
	CreatedAt    time.Time
}

// HistoryEntry is one append-only audit row. Entries are never mutated after
// insert; the most recent DEDUCTION/ADDITION entry per application is the
// source of truth for "has this application already been applied".
type HistoryEntry struct {
	ID            string
	EmployeeID    string
	Type          BalanceType
	Change        ChangeType
	Amount        decimal.Decimal // absolute value of the change, days
	Previous      decimal.Decimal // remaining before
	New           decimal.Decimal // remaining after
	Reason        string
	ApplicationID string // empty when not application-driven
	ChangedBy     string
	CreatedAt     time.Time
}

// Holiday is a company non-working date.
type Holiday struct {
	ID        string
	Date      time.Time
	Name      string
	CreatedAt time.Time
}

// ApprovedLeave is a team-calendar row recorded when an application first
// transitions into Approved.
type ApprovedLeave struct {
	ID         string
	EmployeeID string
	StartDate  time.Time
	EndDate    time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Notification is an in-app message row.
type Notification struct {
	ID         string
	EmployeeID string
	Message    string
	Read       bool
	CreatedAt  time.Time
}
