/*
ledger.go - Balance ledger engine

PURPOSE:
  Owns every mutation of leave_balances and leave_balance_history. Status
  transitions, administrative overrides, and the annual reset all route
  through here; nothing else writes those tables.

INVARIANTS:
  I1. Remaining = Allocated + Carryforward - Used, recomputed before every
      persist. Remaining is never written from caller input directly.
  I2. Every balance mutation appends exactly one history row. Amounts are
      stored as absolute values; the ChangeType carries the sign.
  I3. Transitions are idempotent. The most recent DEDUCTION/ADDITION row per
      application tells the engine whether the application is currently
      applied; re-running the same transition is a no-op.
  I4. A failed policy check inside a transition leaves no partial state:
      the caller's transaction rolls back the status update too.

LEAVE-WITHOUT-PAY:
  Approval deducts min(totalDays, remaining privilege) and records the
  uncovered remainder as an UNPAID history row (previous == new, balance
  untouched). A fully-uncovered approval writes no DEDUCTION at all, so the
  UNPAID row alone marks the application as applied. Reversal restores
  exactly the recorded deduction (when one exists) and deletes the UNPAID
  rows, so approve/reject/approve cycles round-trip.
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/qtask/leave-engine/retry"
)

// initRetry bounds the InitializeBalances retry loop. The store is a local
// sqlite file, so a short fixed delay covers transient lock contention.
var initRetry = retry.Config{Attempts: 3, Delay: 500 * time.Millisecond}

// Ledger applies balance effects for the leave core.
type Ledger struct {
	store Store
	cfg   LedgerConfig
	log   *zap.Logger
}

// NewLedger returns a Ledger over the given store.
func NewLedger(store Store, cfg LedgerConfig, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: store, cfg: cfg, log: log}
}

// buckets is the fixed iteration order for per-employee operations.
var buckets = []BalanceType{BalancePrivilege, BalanceSick}

// =============================================================================
// INITIALIZATION
// =============================================================================

// InitializeBalances ensures both buckets exist for (employee, year) and
// returns the employee's balance rows. Existing rows are left untouched, so
// the call is idempotent and safe to repeat on every login. Transient store
// errors are retried; a missing or inactive employee fails immediately.
func (l *Ledger) InitializeBalances(ctx context.Context, employeeID string, year int) ([]Balance, error) {
	err := retry.Do(ctx, initRetry, func() error {
		return l.store.WithTx(ctx, func(tx Tx) error {
			emp, err := tx.Employee(employeeID)
			if err != nil {
				return err
			}
			if emp == nil || !emp.Active {
				return retry.Permanent(ErrEmployeeNotFound)
			}
			for _, bt := range buckets {
				existing, err := tx.Balance(employeeID, bt, year)
				if err != nil {
					return err
				}
				if existing != nil {
					continue
				}
				if err := tx.InsertBalance(l.freshBalance(emp, bt, year)); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return l.store.Balances(ctx, employeeID)
}

// Balances returns the stored balance rows for one employee, or for all
// employees when employeeID is empty.
func (l *Ledger) Balances(ctx context.Context, employeeID string) ([]Balance, error) {
	return l.store.Balances(ctx, employeeID)
}

// allocationFor resolves the yearly allocation for a bucket, falling back to
// the configured defaults when the employee record carries none.
func (l *Ledger) allocationFor(emp *Employee, bt BalanceType) decimal.Decimal {
	switch bt {
	case BalanceSick:
		if emp.SickLeave.IsPositive() {
			return emp.SickLeave
		}
		return l.cfg.DefaultSickDays
	default:
		if emp.AnnualLeave.IsPositive() {
			return emp.AnnualLeave
		}
		return l.cfg.DefaultPrivilegeDays
	}
}

func (l *Ledger) freshBalance(emp *Employee, bt BalanceType, year int) *Balance {
	alloc := l.allocationFor(emp, bt)
	now := time.Now().UTC()
	return &Balance{
		ID:           uuid.NewString(),
		EmployeeID:   emp.ID,
		Type:         bt,
		Year:         year,
		Allocated:    alloc,
		Used:         decimal.Zero,
		Remaining:    alloc,
		Carryforward: decimal.Zero,
		LastUpdated:  now,
		CreatedAt:    now,
	}
}

// =============================================================================
// STATUS TRANSITION EFFECTS
// =============================================================================

// ApplyTransition applies the balance effect of moving app into next, inside
// the caller's transaction. Non-deductible leave types return immediately.
// The effect is idempotent per I3.
func (l *Ledger) ApplyTransition(tx Tx, app *Application, next Status, actor string) error {
	cat := l.cfg.Classify(app.LeaveType)
	if cat == CategoryNonDeductible {
		return nil
	}

	last, err := tx.LastLedgerAction(app.ID)
	if err != nil {
		return err
	}
	applied := last != nil && last.Change == ChangeDeduction

	if next == StatusApproved {
		if cat == CategoryUnpaid && !applied {
			// A fully-uncovered leave-without-pay approval deducts nothing;
			// its UNPAID row alone marks the application as applied.
			hasUnpaid, err := tx.HasUnpaidEntry(app.ID)
			if err != nil {
				return err
			}
			applied = hasUnpaid
		}
		if applied {
			return nil
		}
		return l.deductForApproval(tx, app, cat, actor)
	}

	// Pending or Rejected: clear UNPAID rows unconditionally, then reverse a
	// prior deduction, if any.
	if cat == CategoryUnpaid {
		if err := tx.DeleteUnpaidEntries(app.ID); err != nil {
			return err
		}
	}
	if !applied {
		return nil
	}
	reason := fmt.Sprintf("reversal of %s for %s", last.Change, app.Code)
	return l.updateBalance(tx, app.EmployeeID, last.Type, app.StartDate.Year(), mutation{
		change:        ChangeAddition,
		amount:        last.Amount,
		reason:        reason,
		applicationID: app.ID,
		actor:         actor,
	})
}

func (l *Ledger) deductForApproval(tx Tx, app *Application, cat LeaveCategory, actor string) error {
	bucket := cat.Bucket()
	year := app.StartDate.Year()
	reason := fmt.Sprintf("%s approval for %s", app.LeaveType, app.Code)

	if cat == CategoryUnpaid {
		return l.deductUnpaid(tx, app, year, actor)
	}

	return l.updateBalance(tx, app.EmployeeID, bucket, year, mutation{
		change:        ChangeDeduction,
		amount:        app.TotalDays,
		reason:        reason,
		applicationID: app.ID,
		actor:         actor,
		// Cash-out may never overdraw, whatever the global flag says.
		preventNegative: l.cfg.PreventNegativeBalances || NormalizeLeaveType(app.LeaveType) == CashOut,
	})
}

// deductUnpaid covers as much of a leave-without-pay request as the privilege
// bucket allows and records the remainder as an UNPAID audit row.
func (l *Ledger) deductUnpaid(tx Tx, app *Application, year int, actor string) error {
	b, err := l.bucketFor(tx, app.EmployeeID, BalancePrivilege, year)
	if err != nil {
		return err
	}

	available := b.Remaining
	if available.IsNegative() {
		available = decimal.Zero
	}
	covered := decimal.Min(app.TotalDays, available)
	uncovered := app.TotalDays.Sub(covered)

	if covered.IsPositive() {
		err := l.updateBalance(tx, app.EmployeeID, BalancePrivilege, year, mutation{
			change:        ChangeDeduction,
			amount:        covered,
			reason:        fmt.Sprintf("leave-without-pay approval for %s", app.Code),
			applicationID: app.ID,
			actor:         actor,
		})
		if err != nil {
			return err
		}
	}

	if uncovered.GreaterThan(l.cfg.Epsilon) {
		// Balance untouched: previous == new. The row exists so the unpaid
		// portion is visible in the audit trail and reversible on rejection.
		remaining := b.Remaining.Sub(covered)
		return tx.AppendHistory(&HistoryEntry{
			ID:            uuid.NewString(),
			EmployeeID:    app.EmployeeID,
			Type:          BalancePrivilege,
			Change:        ChangeUnpaid,
			Amount:        uncovered,
			Previous:      remaining,
			New:           remaining,
			Reason:        fmt.Sprintf("unpaid remainder for %s", app.Code),
			ApplicationID: app.ID,
			ChangedBy:     actor,
			CreatedAt:     time.Now().UTC(),
		})
	}
	return nil
}

// =============================================================================
// BALANCE MUTATION - the single write path (I1, I2)
// =============================================================================

type mutation struct {
	change          ChangeType
	amount          decimal.Decimal
	reason          string
	applicationID   string
	actor           string
	preventNegative bool
}

func (l *Ledger) updateBalance(tx Tx, employeeID string, bt BalanceType, year int, m mutation) error {
	b, err := l.bucketFor(tx, employeeID, bt, year)
	if err != nil {
		return err
	}

	amount := m.amount.Abs()
	newUsed := b.Used
	switch m.change {
	case ChangeDeduction:
		newUsed = newUsed.Add(amount)
	case ChangeAddition:
		newUsed = newUsed.Sub(amount)
	default:
		return fmt.Errorf("unsupported balance change %q", m.change)
	}

	previous := b.Remaining
	newRemaining := b.Allocated.Add(b.Carryforward).Sub(newUsed)

	preventNegative := m.preventNegative || (m.change == ChangeDeduction && l.cfg.PreventNegativeBalances)
	if preventNegative && newRemaining.LessThan(l.cfg.Epsilon.Neg()) {
		return &InsufficientBalanceError{Type: bt, Requested: amount, Available: previous}
	}

	b.Used = newUsed
	b.Remaining = newRemaining
	b.LastUpdated = time.Now().UTC()
	if err := tx.UpdateBalance(b); err != nil {
		return err
	}

	l.log.Debug("balance updated",
		zap.String("employee_id", employeeID),
		zap.String("type", string(bt)),
		zap.String("change", string(m.change)),
		zap.String("amount", amount.String()),
		zap.String("remaining", newRemaining.String()))

	return tx.AppendHistory(&HistoryEntry{
		ID:            uuid.NewString(),
		EmployeeID:    employeeID,
		Type:          bt,
		Change:        m.change,
		Amount:        amount,
		Previous:      previous,
		New:           newRemaining,
		Reason:        m.reason,
		ApplicationID: m.applicationID,
		ChangedBy:     m.actor,
		CreatedAt:     time.Now().UTC(),
	})
}

// bucketFor loads a balance row, lazily creating it from the employee's
// allocation when approval arrives before any explicit initialization.
func (l *Ledger) bucketFor(tx Tx, employeeID string, bt BalanceType, year int) (*Balance, error) {
	b, err := tx.Balance(employeeID, bt, year)
	if err != nil {
		return nil, err
	}
	if b != nil {
		return b, nil
	}
	emp, err := tx.Employee(employeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, ErrEmployeeNotFound
	}
	fresh := l.freshBalance(emp, bt, year)
	if err := tx.InsertBalance(fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// =============================================================================
// PRE-SUBMISSION POLICY CHECKS
// =============================================================================

// EnsureLeaveWithoutPayAllowed rejects a leave-without-pay request while the
// privilege bucket still covers the requested days. Unpaid leave is a last
// resort, not an alternative to vacation leave.
func (l *Ledger) EnsureLeaveWithoutPayAllowed(ctx context.Context, employeeID string, days decimal.Decimal, year int) error {
	remaining, err := l.remainingPrivilege(ctx, employeeID, year)
	if err != nil {
		return err
	}
	if days.LessThanOrEqual(remaining.Add(l.cfg.Epsilon)) {
		return &PolicyError{Message: LeaveWithoutPayMessage}
	}
	return nil
}

// EnsureCashOutWithinBalance rejects a cash-out request for more days than
// the privilege bucket holds.
func (l *Ledger) EnsureCashOutWithinBalance(ctx context.Context, employeeID string, days decimal.Decimal, year int) error {
	remaining, err := l.remainingPrivilege(ctx, employeeID, year)
	if err != nil {
		return err
	}
	if days.GreaterThan(remaining.Add(l.cfg.Epsilon)) {
		return &PolicyError{Message: fmt.Sprintf(
			"Cash-out of %s days exceeds remaining Vacation Leave (VL) of %s days",
			days.String(), remaining.String())}
	}
	return nil
}

// remainingPrivilege reads the current privilege remaining, falling back to
// the employee's allocation when no bucket row exists yet.
func (l *Ledger) remainingPrivilege(ctx context.Context, employeeID string, year int) (decimal.Decimal, error) {
	rows, err := l.store.Balances(ctx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	for _, b := range rows {
		if b.Type == BalancePrivilege && b.Year == year {
			return b.Remaining, nil
		}
	}
	emp, err := l.store.Employee(ctx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	if emp == nil {
		return decimal.Zero, ErrEmployeeNotFound
	}
	return l.allocationFor(emp, BalancePrivilege), nil
}

// =============================================================================
// ADMINISTRATIVE OPERATIONS
// =============================================================================

// AdminOverrideRemaining sets the remaining days of the given buckets
// directly. Used is recomputed so I1 keeps holding; buckets whose remaining
// already equals the target are skipped. Overrides write no history rows.
func (l *Ledger) AdminOverrideRemaining(ctx context.Context, employeeID string, year int, targets map[BalanceType]decimal.Decimal) error {
	return l.store.WithTx(ctx, func(tx Tx) error {
		for _, bt := range buckets {
			target, ok := targets[bt]
			if !ok {
				continue
			}
			b, err := l.bucketFor(tx, employeeID, bt, year)
			if err != nil {
				return err
			}
			if b.Remaining.Equal(target) {
				continue
			}
			b.Remaining = target
			b.Used = b.Allocated.Add(b.Carryforward).Sub(target)
			b.LastUpdated = time.Now().UTC()
			if err := tx.UpdateBalance(b); err != nil {
				return err
			}
			l.log.Info("balance override",
				zap.String("employee_id", employeeID),
				zap.String("type", string(bt)),
				zap.String("remaining", target.String()))
		}
		return nil
	})
}

// ResetAllBalances restores every active employee's buckets to their yearly
// allocation, zeroing used days and carryforward, and appends one RESET
// history row per bucket. Returns the number of employees touched.
func (l *Ledger) ResetAllBalances(ctx context.Context, year int, actor string) (int, error) {
	var count int
	err := l.store.WithTx(ctx, func(tx Tx) error {
		employees, err := tx.ActiveEmployees()
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		for i := range employees {
			emp := &employees[i]
			for _, bt := range buckets {
				existing, err := tx.Balance(emp.ID, bt, year)
				if err != nil {
					return err
				}
				previous := decimal.Zero
				if existing != nil {
					previous = existing.Remaining
				}
				alloc := l.allocationFor(emp, bt)
				if err := tx.UpsertBalance(&Balance{
					ID:           uuid.NewString(),
					EmployeeID:   emp.ID,
					Type:         bt,
					Year:         year,
					Allocated:    alloc,
					Used:         decimal.Zero,
					Remaining:    alloc,
					Carryforward: decimal.Zero,
					LastUpdated:  now,
					CreatedAt:    now,
				}); err != nil {
					return err
				}
				if err := tx.AppendHistory(&HistoryEntry{
					ID:         uuid.NewString(),
					EmployeeID: emp.ID,
					Type:       bt,
					Change:     ChangeReset,
					Amount:     alloc,
					Previous:   previous,
					New:        alloc,
					Reason:     fmt.Sprintf("annual reset for %d", year),
					ChangedBy:  actor,
					CreatedAt:  now,
				}); err != nil {
					return err
				}
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	l.log.Info("balances reset", zap.Int("employees", count), zap.Int("year", year))
	return count, nil
}
