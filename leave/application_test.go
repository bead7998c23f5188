package leave_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtask/leave-engine/leave"
	"github.com/qtask/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestApps(t *testing.T) (*leave.Applications, *leave.Ledger, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := leave.DefaultConfig()
	ledger := leave.NewLedger(store, cfg, nil)
	return leave.NewApplications(store, ledger, cfg, nil), ledger, store
}

func weekInput(employeeID, token string) leave.CreateInput {
	return leave.CreateInput{
		EmployeeID: employeeID,
		StartDate:  date(2025, time.March, 10), // Monday
		EndDate:    date(2025, time.March, 14), // Friday
		LeaveType:  token,
	}
}

// =============================================================================
// CREATION
// =============================================================================

func TestCreate_ComputesTotalsServerSide(t *testing.T) {
	apps, _, store := newTestApps(t)
	emp := seedEmployee(t, store, "ada@example.com", "15", "7")

	app, err := apps.Create(context.Background(), weekInput(emp.ID, "  Vacation-Annual "))
	require.NoError(t, err)

	assert.Equal(t, "vacation-annual", app.LeaveType, "token normalized")
	assert.True(t, app.TotalHours.Equal(days("40")))
	assert.True(t, app.TotalDays.Equal(days("5")))
	assert.Equal(t, leave.StatusPending, app.Status)
	assert.Regexp(t, regexp.MustCompile(`^APP-\d{8}-[0-9A-F]{8}$`), app.Code)

	// Persisted and listable.
	stored, err := store.Application(context.Background(), app.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.TotalDays.Equal(days("5")))
}

func TestCreate_UnknownEmployee(t *testing.T) {
	apps, _, _ := newTestApps(t)

	_, err := apps.Create(context.Background(), weekInput("nobody", "personal"))
	assert.ErrorIs(t, err, leave.ErrEmployeeNotFound)
}

func TestCreate_WeekendOnly_Rejected(t *testing.T) {
	apps, _, store := newTestApps(t)
	emp := seedEmployee(t, store, "ada@example.com", "15", "7")

	in := weekInput(emp.ID, "personal")
	in.StartDate = date(2025, time.March, 15) // Saturday
	in.EndDate = date(2025, time.March, 16)   // Sunday

	_, err := apps.Create(context.Background(), in)
	require.Error(t, err)
	assert.True(t, leave.IsValidation(err))
}

func TestCreate_LeaveWithoutPay_GatedOnRemaining(t *testing.T) {
	// GIVEN: 15 privilege days remaining
	// WHEN: requesting 5 days of leave-without-pay
	// THEN: rejected; vacation leave must be exhausted first

	apps, _, store := newTestApps(t)
	emp := seedEmployee(t, store, "ada@example.com", "15", "7")

	_, err := apps.Create(context.Background(), weekInput(emp.ID, "leave-without-pay"))
	require.Error(t, err)
	assert.True(t, leave.IsPolicyViolation(err))
	assert.Equal(t, leave.LeaveWithoutPayMessage, err.Error())
}

func TestCreate_LeaveWithoutPay_AllowedWhenExceeding(t *testing.T) {
	apps, _, store := newTestApps(t)
	emp := seedEmployee(t, store, "ada@example.com", "3", "7")

	app, err := apps.Create(context.Background(), weekInput(emp.ID, "leave-without-pay"))
	require.NoError(t, err)
	assert.True(t, app.TotalDays.Equal(days("5")))
}

func TestCreate_CashOut_CappedAtRemaining(t *testing.T) {
	apps, _, store := newTestApps(t)
	emp := seedEmployee(t, store, "ada@example.com", "3", "7")

	_, err := apps.Create(context.Background(), weekInput(emp.ID, "cash-out"))
	require.Error(t, err)
	assert.True(t, leave.IsPolicyViolation(err))
	assert.Contains(t, err.Error(), "exceeds remaining Vacation Leave (VL)")
}

// =============================================================================
// STATUS TRANSITIONS
// =============================================================================

func TestUpdateStatus_ApproveDeductsAndRecordsCalendar(t *testing.T) {
	apps, _, store := newTestApps(t)
	emp := seedEmployee(t, store, "ada@example.com", "15", "7")
	ctx := context.Background()

	app, err := apps.Create(ctx, weekInput(emp.ID, "personal"))
	require.NoError(t, err)

	result, err := apps.UpdateStatus(ctx, app.ID, leave.StatusApproved, "admin")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, result.Application.Status)
	assert.Equal(t, leave.StatusPending, result.Previous)
	// Friday full week off: back Monday.
	assert.Equal(t, date(2025, time.March, 17), result.ReturnDate)

	pl := bucket(t, store, emp.ID, leave.BalancePrivilege)
	assert.True(t, pl.Remaining.Equal(days("10")))

	calendar, err := store.ApprovedLeaves(ctx)
	require.NoError(t, err)
	require.Len(t, calendar, 1)
	assert.Equal(t, emp.ID, calendar[0].EmployeeID)
}

func TestUpdateStatus_FailureRollsBackStatus(t *testing.T) {
	// GIVEN: a request larger than the remaining balance
	// WHEN: approving
	// THEN: the ledger error also rolls back the status update

	apps, _, store := newTestApps(t)
	emp := seedEmployee(t, store, "ada@example.com", "3", "7")
	ctx := context.Background()

	app, err := apps.Create(ctx, weekInput(emp.ID, "personal"))
	require.NoError(t, err)

	_, err = apps.UpdateStatus(ctx, app.ID, leave.StatusApproved, "admin")
	require.Error(t, err)
	assert.True(t, leave.IsPolicyViolation(err))

	stored, err := store.Application(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, stored.Status, "status must roll back with the ledger")
}

func TestUpdateStatus_ApprovedToRejected_Reverses(t *testing.T) {
	apps, _, store := newTestApps(t)
	emp := seedEmployee(t, store, "ada@example.com", "15", "7")
	ctx := context.Background()

	app, err := apps.Create(ctx, weekInput(emp.ID, "personal"))
	require.NoError(t, err)

	_, err = apps.UpdateStatus(ctx, app.ID, leave.StatusApproved, "admin")
	require.NoError(t, err)
	_, err = apps.UpdateStatus(ctx, app.ID, leave.StatusRejected, "admin")
	require.NoError(t, err)

	pl := bucket(t, store, emp.ID, leave.BalancePrivilege)
	assert.True(t, pl.Remaining.Equal(days("15")))
}

func TestUpdateStatus_UnknownApplication(t *testing.T) {
	apps, _, _ := newTestApps(t)

	_, err := apps.UpdateStatus(context.Background(), "missing", leave.StatusApproved, "admin")
	assert.ErrorIs(t, err, leave.ErrApplicationNotFound)
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	apps, _, _ := newTestApps(t)

	_, err := apps.UpdateStatus(context.Background(), "any", leave.Status("Cancelled"), "admin")
	require.Error(t, err)
	assert.True(t, leave.IsValidation(err))
}

// =============================================================================
// DELETION
// =============================================================================

func TestDelete_DoesNotTouchLedger(t *testing.T) {
	// Hard deletion bypasses the ledger: an approved application's deduction
	// stays on the books.

	apps, _, store := newTestApps(t)
	emp := seedEmployee(t, store, "ada@example.com", "15", "7")
	ctx := context.Background()

	app, err := apps.Create(ctx, weekInput(emp.ID, "personal"))
	require.NoError(t, err)
	_, err = apps.UpdateStatus(ctx, app.ID, leave.StatusApproved, "admin")
	require.NoError(t, err)

	require.NoError(t, apps.Delete(ctx, app.ID))

	stored, err := store.Application(ctx, app.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	pl := bucket(t, store, emp.ID, leave.BalancePrivilege)
	assert.True(t, pl.Remaining.Equal(days("10")), "deduction survives deletion")
}

func TestDelete_UnknownApplication(t *testing.T) {
	apps, _, _ := newTestApps(t)
	assert.ErrorIs(t, apps.Delete(context.Background(), "missing"), leave.ErrApplicationNotFound)
}
