/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces in package leave.

PURPOSE:
  Implements leave.Store and leave.Tx plus the API-facing queries (employee
  directory, application listings, balance history, holidays, approved
  leaves, notifications). In production the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  employees:             staff records, soft-deleted via the active flag
  leave_applications:    requests with server-computed totals and status
  leave_balances:        one row per (employee, type, year)
  leave_balance_history: append-only audit of every balance change
  holidays:              company non-working dates
  approved_leaves:       team-calendar rows for approved requests
  notifications:         in-app messages

APPEND-ONLY ENFORCEMENT:
  leave_balance_history has no UPDATE path. The single DELETE is the
  removal of UNPAID rows when a leave-without-pay approval is reversed;
  DEDUCTION/ADDITION/RESET rows are never touched after insert.

CONCURRENCY:
  A sync.RWMutex serializes writers. WithTx holds the write lock for the
  whole callback so a status change and its ledger effect commit together.
  SQLite is opened with WAL for read concurrency and crash recovery.

NUMERIC STORAGE:
  All day/hour amounts are decimal.Decimal serialized as TEXT. Never REAL:
  repeated half-day arithmetic must round-trip exactly.

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := leave.NewLedger(store, leave.DefaultConfig(), logger)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - leave/store.go:  interface definitions
  - leave/ledger.go: the balance engine driving the write paths
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/qtask/leave-engine/leave"
)

// Store implements leave.Store plus the API-facing queries.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employees (soft-deleted, never hard-removed)
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		surname TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		annual_leave TEXT NOT NULL,
		sick_leave TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_active
		ON employees(active);

	-- Leave applications
	CREATE TABLE IF NOT EXISTS leave_applications (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		employee_name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		start_day_type TEXT,
		end_day_type TEXT,
		leave_type TEXT NOT NULL,
		reasons_json TEXT,
		reason TEXT,
		total_hours TEXT NOT NULL,
		total_days TEXT NOT NULL,
		status TEXT NOT NULL,
		date_applied TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_applications_employee
		ON leave_applications(employee_id);
	CREATE INDEX IF NOT EXISTS idx_applications_status
		ON leave_applications(status);

	-- Balances: one bucket per (employee, type, year)
	CREATE TABLE IF NOT EXISTS leave_balances (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		type TEXT NOT NULL,
		year INTEGER NOT NULL,
		allocated TEXT NOT NULL,
		used TEXT NOT NULL,
		remaining TEXT NOT NULL,
		carryforward TEXT NOT NULL,
		last_updated TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(employee_id, type, year)
	);

	-- Balance history (append-only audit)
	CREATE TABLE IF NOT EXISTS leave_balance_history (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		type TEXT NOT NULL,
		change TEXT NOT NULL,
		amount TEXT NOT NULL,
		previous TEXT NOT NULL,
		new TEXT NOT NULL,
		reason TEXT,
		application_id TEXT,
		changed_by TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot path: the idempotence scan per application
	CREATE INDEX IF NOT EXISTS idx_history_application
		ON leave_balance_history(application_id, created_at DESC)
		WHERE application_id IS NOT NULL AND application_id != '';
	CREATE INDEX IF NOT EXISTS idx_history_employee
		ON leave_balance_history(employee_id, created_at DESC);

	-- Holidays
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Approved leaves (team calendar). The unique index makes recording
	-- idempotent across approve/reject/approve cycles.
	CREATE TABLE IF NOT EXISTS approved_leaves (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(employee_id, start_date, end_date)
	);

	-- In-app notifications
	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		message TEXT NOT NULL,
		is_read INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_employee
		ON notifications(employee_id, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx so row helpers are shared
// between direct reads and transactional reads.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// TRANSACTIONS (leave.Store interface)
// =============================================================================

// WithTx executes fn within one database transaction while holding the write
// lock. Any error rolls back everything fn did.
func (s *Store) WithTx(ctx context.Context, fn func(tx leave.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txView{ctx: ctx, q: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txView implements leave.Tx over an open *sql.Tx. The parent's write lock
// is already held, so no locking happens here.
type txView struct {
	ctx context.Context
	q   querier
}

func (t *txView) Employee(id string) (*leave.Employee, error) {
	return getEmployee(t.ctx, t.q, "id = ?", id)
}

func (t *txView) ActiveEmployees() ([]leave.Employee, error) {
	return queryEmployees(t.ctx, t.q, selectEmployee+" WHERE active = 1 ORDER BY surname, first_name")
}

func (t *txView) Application(id string) (*leave.Application, error) {
	return getApplication(t.ctx, t.q, id)
}

func (t *txView) InsertApplication(app *leave.Application) error {
	return insertApplication(t.ctx, t.q, app)
}

func (t *txView) UpdateApplicationStatus(id string, status leave.Status, at time.Time) (bool, error) {
	res, err := t.q.ExecContext(t.ctx,
		"UPDATE leave_applications SET status = ?, updated_at = ? WHERE id = ?",
		string(status), at.Format(time.RFC3339), id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update application status: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (t *txView) DeleteApplication(id string) (bool, error) {
	res, err := t.q.ExecContext(t.ctx, "DELETE FROM leave_applications WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete application: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (t *txView) Balance(employeeID string, bt leave.BalanceType, year int) (*leave.Balance, error) {
	return getBalance(t.ctx, t.q, employeeID, bt, year)
}

func (t *txView) InsertBalance(b *leave.Balance) error {
	_, err := t.q.ExecContext(t.ctx, `
		INSERT INTO leave_balances
		(id, employee_id, type, year, allocated, used, remaining, carryforward, last_updated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.EmployeeID, string(b.Type), b.Year,
		b.Allocated.String(), b.Used.String(), b.Remaining.String(), b.Carryforward.String(),
		b.LastUpdated.Format(time.RFC3339), b.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert balance: %w", err)
	}
	return nil
}

func (t *txView) UpdateBalance(b *leave.Balance) error {
	_, err := t.q.ExecContext(t.ctx, `
		UPDATE leave_balances
		SET allocated = ?, used = ?, remaining = ?, carryforward = ?, last_updated = ?
		WHERE employee_id = ? AND type = ? AND year = ?`,
		b.Allocated.String(), b.Used.String(), b.Remaining.String(), b.Carryforward.String(),
		b.LastUpdated.Format(time.RFC3339),
		b.EmployeeID, string(b.Type), b.Year,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

func (t *txView) UpsertBalance(b *leave.Balance) error {
	_, err := t.q.ExecContext(t.ctx, `
		INSERT INTO leave_balances
		(id, employee_id, type, year, allocated, used, remaining, carryforward, last_updated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, type, year) DO UPDATE SET
			allocated = excluded.allocated,
			used = excluded.used,
			remaining = excluded.remaining,
			carryforward = excluded.carryforward,
			last_updated = excluded.last_updated`,
		b.ID, b.EmployeeID, string(b.Type), b.Year,
		b.Allocated.String(), b.Used.String(), b.Remaining.String(), b.Carryforward.String(),
		b.LastUpdated.Format(time.RFC3339), b.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert balance: %w", err)
	}
	return nil
}

func (t *txView) AppendHistory(h *leave.HistoryEntry) error {
	_, err := t.q.ExecContext(t.ctx, `
		INSERT INTO leave_balance_history
		(id, employee_id, type, change, amount, previous, new, reason, application_id, changed_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.EmployeeID, string(h.Type), string(h.Change),
		h.Amount.String(), h.Previous.String(), h.New.String(),
		h.Reason, h.ApplicationID, h.ChangedBy,
		h.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (t *txView) LastLedgerAction(applicationID string) (*leave.HistoryEntry, error) {
	row := t.q.QueryRowContext(t.ctx, selectHistory+`
		WHERE application_id = ? AND change IN ('DEDUCTION', 'ADDITION')
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, applicationID)

	h, err := scanHistoryRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (t *txView) HasUnpaidEntry(applicationID string) (bool, error) {
	var n int
	err := t.q.QueryRowContext(t.ctx,
		"SELECT COUNT(*) FROM leave_balance_history WHERE application_id = ? AND change = 'UNPAID'",
		applicationID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query unpaid entries: %w", err)
	}
	return n > 0, nil
}

func (t *txView) DeleteUnpaidEntries(applicationID string) error {
	_, err := t.q.ExecContext(t.ctx,
		"DELETE FROM leave_balance_history WHERE application_id = ? AND change = 'UNPAID'",
		applicationID,
	)
	return err
}

func (t *txView) InsertApprovedLeave(al *leave.ApprovedLeave) error {
	_, err := t.q.ExecContext(t.ctx, `
		INSERT INTO approved_leaves (id, employee_id, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, start_date, end_date) DO UPDATE SET
			updated_at = excluded.updated_at`,
		al.ID, al.EmployeeID,
		leave.FormatDate(al.StartDate), leave.FormatDate(al.EndDate),
		al.CreatedAt.Format(time.RFC3339), al.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert approved leave: %w", err)
	}
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const selectEmployee = `
	SELECT id, first_name, surname, email, annual_leave, sick_leave, active, created_at, updated_at
	FROM employees`

// Employee returns an employee by id, or nil when absent (leave.Store).
func (s *Store) Employee(ctx context.Context, id string) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getEmployee(ctx, s.db, "id = ?", id)
}

// EmployeeByEmail returns an employee by email regardless of active state,
// so callers can distinguish "never existed" from "deactivated".
func (s *Store) EmployeeByEmail(ctx context.Context, email string) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getEmployee(ctx, s.db, "email = ?", normalizeEmail(email))
}

// ListEmployees returns employees ordered by name. Inactive records are
// included only when includeInactive is set.
func (s *Store) ListEmployees(ctx context.Context, includeInactive bool) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectEmployee
	if !includeInactive {
		query += " WHERE active = 1"
	}
	query += " ORDER BY surname, first_name"
	return queryEmployees(ctx, s.db, query)
}

// CreateEmployee inserts a new employee, or reactivates the soft-deleted
// record carrying the same email. On reactivation the existing id is kept
// and written back into emp, so prior applications and history stay linked.
func (s *Store) CreateEmployee(ctx context.Context, emp *leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	emp.Email = normalizeEmail(emp.Email)

	existing, err := getEmployee(ctx, s.db, "email = ?", emp.Email)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	if existing != nil {
		if existing.Active {
			return &leave.ValidationError{Field: "email", Message: "email already in use"}
		}
		emp.ID = existing.ID
		emp.CreatedAt = existing.CreatedAt
		emp.UpdatedAt = now
		emp.Active = true
		_, err = s.db.ExecContext(ctx, `
			UPDATE employees
			SET first_name = ?, surname = ?, annual_leave = ?, sick_leave = ?, active = 1, updated_at = ?
			WHERE id = ?`,
			emp.FirstName, emp.Surname,
			emp.AnnualLeave.String(), emp.SickLeave.String(),
			now.Format(time.RFC3339), emp.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to reactivate employee: %w", err)
		}
		return nil
	}

	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	emp.Active = true
	emp.CreatedAt = now
	emp.UpdatedAt = now
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO employees (id, first_name, surname, email, annual_leave, sick_leave, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		emp.ID, emp.FirstName, emp.Surname, emp.Email,
		emp.AnnualLeave.String(), emp.SickLeave.String(),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert employee: %w", err)
	}
	return nil
}

// UpdateEmployee updates names, email and allocations of an active record.
func (s *Store) UpdateEmployee(ctx context.Context, emp *leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	emp.Email = normalizeEmail(emp.Email)
	res, err := s.db.ExecContext(ctx, `
		UPDATE employees
		SET first_name = ?, surname = ?, email = ?, annual_leave = ?, sick_leave = ?, updated_at = ?
		WHERE id = ? AND active = 1`,
		emp.FirstName, emp.Surname, emp.Email,
		emp.AnnualLeave.String(), emp.SickLeave.String(),
		time.Now().UTC().Format(time.RFC3339), emp.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return leave.ErrEmployeeNotFound
	}
	return nil
}

// DeactivateEmployee soft-deletes an employee. The row stays for history and
// a later hire with the same email reactivates it.
func (s *Store) DeactivateEmployee(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE employees SET active = 0, updated_at = ? WHERE id = ? AND active = 1",
		time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate employee: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return leave.ErrEmployeeNotFound
	}
	return nil
}

func getEmployee(ctx context.Context, q querier, where string, arg any) (*leave.Employee, error) {
	row := q.QueryRowContext(ctx, selectEmployee+" WHERE "+where, arg)
	emp, err := scanEmployeeRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return emp, nil
}

func queryEmployees(ctx context.Context, q querier, query string, args ...any) ([]leave.Employee, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []leave.Employee
	for rows.Next() {
		emp, err := scanEmployeeRow(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *emp)
	}
	return employees, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployeeRow(r rowScanner) (*leave.Employee, error) {
	var (
		emp                  leave.Employee
		annual, sick         string
		active               int
		createdAt, updatedAt string
	)
	err := r.Scan(&emp.ID, &emp.FirstName, &emp.Surname, &emp.Email,
		&annual, &sick, &active, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	emp.AnnualLeave = dec(annual)
	emp.SickLeave = dec(sick)
	emp.Active = active != 0
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	emp.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &emp, nil
}

// =============================================================================
// APPLICATIONS
// =============================================================================

const selectApplication = `
	SELECT id, code, employee_id, employee_name, start_date, end_date,
	       start_time, end_time, start_day_type, end_day_type, leave_type,
	       reasons_json, reason, total_hours, total_days, status,
	       date_applied, created_at, updated_at
	FROM leave_applications`

// Application returns one application by id, or nil.
func (s *Store) Application(ctx context.Context, id string) (*leave.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getApplication(ctx, s.db, id)
}

// ListApplications returns applications newest-first, optionally filtered to
// one employee.
func (s *Store) ListApplications(ctx context.Context, employeeID string) ([]leave.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectApplication
	var args []any
	if employeeID != "" {
		query += " WHERE employee_id = ?"
		args = append(args, employeeID)
	}
	query += " ORDER BY date_applied DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var apps []leave.Application
	for rows.Next() {
		app, err := scanApplicationRow(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

func getApplication(ctx context.Context, q querier, id string) (*leave.Application, error) {
	row := q.QueryRowContext(ctx, selectApplication+" WHERE id = ?", id)
	app, err := scanApplicationRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}

func insertApplication(ctx context.Context, q querier, app *leave.Application) error {
	reasonsJSON, _ := json.Marshal(app.Reasons)

	_, err := q.ExecContext(ctx, `
		INSERT INTO leave_applications
		(id, code, employee_id, employee_name, start_date, end_date,
		 start_time, end_time, start_day_type, end_day_type, leave_type,
		 reasons_json, reason, total_hours, total_days, status,
		 date_applied, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ID, app.Code, app.EmployeeID, app.EmployeeName,
		leave.FormatDate(app.StartDate), leave.FormatDate(app.EndDate),
		app.StartTime, app.EndTime,
		string(app.StartDayType), string(app.EndDayType),
		app.LeaveType, string(reasonsJSON), app.Reason,
		app.TotalHours.String(), app.TotalDays.String(),
		string(app.Status),
		app.DateApplied.Format(time.RFC3339),
		app.CreatedAt.Format(time.RFC3339),
		app.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}
	return nil
}

func scanApplicationRow(r rowScanner) (*leave.Application, error) {
	var (
		app                               leave.Application
		startDate, endDate                string
		startTime, endTime                sql.NullString
		startDayType, endDayType          sql.NullString
		reasonsJSON, reason               sql.NullString
		totalHours, totalDays             string
		status                            string
		dateApplied, createdAt, updatedAt string
	)
	err := r.Scan(&app.ID, &app.Code, &app.EmployeeID, &app.EmployeeName,
		&startDate, &endDate, &startTime, &endTime,
		&startDayType, &endDayType, &app.LeaveType,
		&reasonsJSON, &reason, &totalHours, &totalDays, &status,
		&dateApplied, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	app.StartDate, _ = leave.ParseDate(startDate)
	app.EndDate, _ = leave.ParseDate(endDate)
	app.StartTime = startTime.String
	app.EndTime = endTime.String
	app.StartDayType = leave.DayType(startDayType.String)
	app.EndDayType = leave.DayType(endDayType.String)
	app.Reason = reason.String
	app.TotalHours = dec(totalHours)
	app.TotalDays = dec(totalDays)
	app.Status = leave.Status(status)
	app.DateApplied, _ = time.Parse(time.RFC3339, dateApplied)
	app.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	app.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	if reasonsJSON.Valid && reasonsJSON.String != "" {
		json.Unmarshal([]byte(reasonsJSON.String), &app.Reasons)
	}
	return &app, nil
}

// =============================================================================
// BALANCES AND HISTORY
// =============================================================================

const selectBalance = `
	SELECT id, employee_id, type, year, allocated, used, remaining, carryforward, last_updated, created_at
	FROM leave_balances`

// Balances returns balance rows (leave.Store). All employees when employeeID
// is empty, ordered by type then year.
func (s *Store) Balances(ctx context.Context, employeeID string) ([]leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectBalance
	var args []any
	if employeeID != "" {
		query += " WHERE employee_id = ?"
		args = append(args, employeeID)
	}
	query += " ORDER BY employee_id, type, year"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	var balances []leave.Balance
	for rows.Next() {
		b, err := scanBalanceRow(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, *b)
	}
	return balances, rows.Err()
}

func getBalance(ctx context.Context, q querier, employeeID string, bt leave.BalanceType, year int) (*leave.Balance, error) {
	row := q.QueryRowContext(ctx,
		selectBalance+" WHERE employee_id = ? AND type = ? AND year = ?",
		employeeID, string(bt), year)
	b, err := scanBalanceRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func scanBalanceRow(r rowScanner) (*leave.Balance, error) {
	var (
		b                                 leave.Balance
		bt                                string
		allocated, used, remaining, carry string
		lastUpdated, createdAt            string
	)
	err := r.Scan(&b.ID, &b.EmployeeID, &bt, &b.Year,
		&allocated, &used, &remaining, &carry, &lastUpdated, &createdAt)
	if err != nil {
		return nil, err
	}
	b.Type = leave.BalanceType(bt)
	b.Allocated = dec(allocated)
	b.Used = dec(used)
	b.Remaining = dec(remaining)
	b.Carryforward = dec(carry)
	b.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &b, nil
}

const selectHistory = `
	SELECT id, employee_id, type, change, amount, previous, new, reason, application_id, changed_by, created_at
	FROM leave_balance_history`

// BalanceHistory returns audit rows newest-first, filtered by employee
// and/or application when the arguments are non-empty.
func (s *Store) BalanceHistory(ctx context.Context, employeeID, applicationID string) ([]leave.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectHistory
	var conds []string
	var args []any
	if employeeID != "" {
		conds = append(conds, "employee_id = ?")
		args = append(args, employeeID)
	}
	if applicationID != "" {
		conds = append(conds, "application_id = ?")
		args = append(args, applicationID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []leave.HistoryEntry
	for rows.Next() {
		h, err := scanHistoryRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *h)
	}
	return entries, rows.Err()
}

func scanHistoryRow(r rowScanner) (*leave.HistoryEntry, error) {
	var (
		h                        leave.HistoryEntry
		bt, change               string
		amount, previous, newRem string
		reason, appID, changedBy sql.NullString
		createdAt                string
	)
	err := r.Scan(&h.ID, &h.EmployeeID, &bt, &change,
		&amount, &previous, &newRem, &reason, &appID, &changedBy, &createdAt)
	if err != nil {
		return nil, err
	}
	h.Type = leave.BalanceType(bt)
	h.Change = leave.ChangeType(change)
	h.Amount = dec(amount)
	h.Previous = dec(previous)
	h.New = dec(newRem)
	h.Reason = reason.String
	h.ApplicationID = appID.String
	h.ChangedBy = changedBy.String
	h.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &h, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// Holidays returns all holidays ordered by date (leave.Store).
func (s *Store) Holidays(ctx context.Context) ([]leave.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, date, name, created_at FROM holidays ORDER BY date ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []leave.Holiday
	for rows.Next() {
		var h leave.Holiday
		var date, createdAt string
		if err := rows.Scan(&h.ID, &date, &h.Name, &createdAt); err != nil {
			return nil, err
		}
		h.Date, _ = leave.ParseDate(date)
		h.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// SaveHoliday inserts a holiday; the same date replaces its name.
func (s *Store) SaveHoliday(ctx context.Context, h *leave.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET name = excluded.name`,
		h.ID, leave.FormatDate(h.Date), h.Name, h.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

// DeleteHoliday removes a holiday by id.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	return err
}

// =============================================================================
// APPROVED LEAVES
// =============================================================================

// ApprovedLeaves returns team-calendar rows ordered by start date.
func (s *Store) ApprovedLeaves(ctx context.Context) ([]leave.ApprovedLeave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, start_date, end_date, created_at, updated_at
		FROM approved_leaves ORDER BY start_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query approved leaves: %w", err)
	}
	defer rows.Close()

	var leaves []leave.ApprovedLeave
	for rows.Next() {
		var al leave.ApprovedLeave
		var start, end, createdAt, updatedAt string
		if err := rows.Scan(&al.ID, &al.EmployeeID, &start, &end, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		al.StartDate, _ = leave.ParseDate(start)
		al.EndDate, _ = leave.ParseDate(end)
		al.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		al.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		leaves = append(leaves, al)
	}
	return leaves, rows.Err()
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// Notifications returns in-app messages newest-first, optionally filtered to
// one employee.
func (s *Store) Notifications(ctx context.Context, employeeID string) ([]leave.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, employee_id, message, is_read, created_at FROM notifications"
	var args []any
	if employeeID != "" {
		query += " WHERE employee_id = ?"
		args = append(args, employeeID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []leave.Notification
	for rows.Next() {
		var n leave.Notification
		var read int
		var createdAt string
		if err := rows.Scan(&n.ID, &n.EmployeeID, &n.Message, &read, &createdAt); err != nil {
			return nil, err
		}
		n.Read = read != 0
		n.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// InsertNotification stores an in-app message.
func (s *Store) InsertNotification(ctx context.Context, n *leave.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, employee_id, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.EmployeeID, n.Message, boolToInt(n.Read),
		n.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// DeleteNotification removes a message by id.
func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = ?", id)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

// dec parses a stored decimal. Values reach the database through
// decimal.String() only, so a parse failure means row corruption; zero keeps
// the read path total like the timestamp parses above.
func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
