/*
store.go - Storage interfaces the core depends on

The ledger engine and lifecycle controller are written against these
interfaces; store/sqlite provides the production implementation. WithTx is
the single transaction boundary: it serializes callers behind the store's
mutex and passes a Tx whose reads and writes all share one database
transaction, so a status update, its balance mutation, and the audit row
commit or roll back together.

OWNERSHIP:
  The ledger exclusively owns leave_balances/leave_balance_history. The
  lifecycle controller exclusively owns the application status field. Nothing
  else writes those tables.
*/
package leave

import (
	"context"
	"time"
)

// Store is the persistence surface the core requires.
type Store interface {
	// WithTx runs fn inside one database transaction while holding the
	// store's write lock. Any error from fn rolls the transaction back.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Employee returns an employee by id, or nil when absent.
	Employee(ctx context.Context, id string) (*Employee, error)

	// Balances returns balance rows, all employees when employeeID is
	// empty, ordered by type then year.
	Balances(ctx context.Context, employeeID string) ([]Balance, error)

	// Holidays returns all configured holidays.
	Holidays(ctx context.Context) ([]Holiday, error)
}

// Tx is the transactional view handed to WithTx callbacks.
type Tx interface {
	Employee(id string) (*Employee, error)
	ActiveEmployees() ([]Employee, error)

	Application(id string) (*Application, error)
	InsertApplication(app *Application) error
	UpdateApplicationStatus(id string, status Status, at time.Time) (bool, error)
	DeleteApplication(id string) (bool, error)

	Balance(employeeID string, bt BalanceType, year int) (*Balance, error)
	InsertBalance(b *Balance) error
	UpdateBalance(b *Balance) error
	UpsertBalance(b *Balance) error

	AppendHistory(h *HistoryEntry) error
	// LastLedgerAction returns the most recent DEDUCTION/ADDITION entry for
	// an application, or nil. UNPAID and RESET rows never participate.
	LastLedgerAction(applicationID string) (*HistoryEntry, error)
	// HasUnpaidEntry reports whether an UNPAID row exists for the
	// application. A fully-uncovered leave-without-pay approval writes no
	// DEDUCTION, so this is its idempotence marker.
	HasUnpaidEntry(applicationID string) (bool, error)
	DeleteUnpaidEntries(applicationID string) error

	InsertApprovedLeave(al *ApprovedLeave) error
}
