package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qtask/leave-engine/api"
	"github.com/qtask/leave-engine/leave"
	"github.com/qtask/leave-engine/notify"
	"github.com/qtask/leave-engine/store/sqlite"
)

const testAdminPassword = "hunter2"

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	router http.Handler
	store  *sqlite.Store
	admin  *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := leave.DefaultConfig()
	logger := zap.NewNop()
	ledger := leave.NewLedger(store, cfg, logger)
	apps := leave.NewApplications(store, ledger, cfg, logger)
	dispatcher := notify.NewDispatcher(nil, "admin@example.com", logger)

	h := api.NewHandler(store, ledger, apps, dispatcher, testAdminPassword, logger)
	ts := &testServer{router: api.NewRouter(h, 0), store: store}

	// Open an admin session for the admin-only routes.
	rec := ts.do(t, http.MethodPost, "/api/session", map[string]string{"password": testAdminPassword}, false)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "leave_session" {
			ts.admin = c
		}
	}
	require.NotNil(t, ts.admin)

	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, asAdmin bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if asAdmin {
		req.AddCookie(ts.admin)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func (ts *testServer) createEmployee(t *testing.T, email, annual string) api.EmployeeDTO {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/employees", map[string]any{
		"first_name":   "Grace",
		"surname":      "Hopper",
		"email":        email,
		"annual_leave": annual,
		"sick_leave":   "7",
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[api.EmployeeDTO](t, rec)
}

func (ts *testServer) createApplication(t *testing.T, employeeID, leaveType string) api.ApplicationDTO {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/applications", map[string]any{
		"employee_id": employeeID,
		"start_date":  "2025-03-10",
		"end_date":    "2025-03-14",
		"leave_type":  leaveType,
	}, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[api.ApplicationDTO](t, rec)
}

// =============================================================================
// SESSIONS AND AUTHORIZATION
// =============================================================================

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/session", map[string]string{"password": "wrong"}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutes_RequireSession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/employees", map[string]any{
		"first_name": "Grace", "surname": "Hopper", "email": "g@example.com",
	}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/balances/reset", map[string]any{"year": 2025}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/holidays", map[string]any{"date": "2025-12-25", "name": "Christmas"}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// EMPLOYEES AND BOOTSTRAP
// =============================================================================

func TestCreateEmployee_Validation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/employees", map[string]any{
		"first_name": "Grace", "surname": "Hopper", "email": "not-an-email",
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/employees", map[string]any{
		"first_name": "", "surname": "Hopper", "email": "g@example.com",
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBootstrap_InitializesBalances(t *testing.T) {
	ts := newTestServer(t)
	ts.createEmployee(t, "grace@example.com", "15")

	rec := ts.do(t, http.MethodPost, "/api/employees/bootstrap",
		map[string]string{"email": "Grace@Example.com"}, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[api.BootstrapResponse](t, rec)
	assert.Equal(t, "grace@example.com", resp.Employee.Email)
	require.Len(t, resp.Balances, 2)

	// Bootstrap is idempotent.
	rec = ts.do(t, http.MethodPost, "/api/employees/bootstrap",
		map[string]string{"email": "grace@example.com"}, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBootstrap_DistinguishesDeactivated(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.createEmployee(t, "grace@example.com", "15")

	rec := ts.do(t, http.MethodPost, "/api/employees/bootstrap",
		map[string]string{"email": "nobody@example.com"}, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")

	rec = ts.do(t, http.MethodDelete, "/api/employees/"+emp.ID, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/employees/bootstrap",
		map[string]string{"email": "grace@example.com"}, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "deactivated")
}

// =============================================================================
// APPLICATION LIFECYCLE OVER HTTP
// =============================================================================

func TestApplicationLifecycle(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.createEmployee(t, "grace@example.com", "15")
	app := ts.createApplication(t, emp.ID, "personal")

	assert.Equal(t, "Pending", app.Status)
	assert.Equal(t, "5", app.TotalDays)

	rec := ts.do(t, http.MethodPut, "/api/applications/"+app.ID,
		map[string]string{"status": "Approved"}, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[api.TransitionResponse](t, rec)
	assert.Equal(t, "Approved", resp.Application.Status)
	assert.Equal(t, "2025-03-17", resp.ReturnDate)

	rec = ts.do(t, http.MethodGet, "/api/balances?employee_id="+emp.ID, nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	balances := decodeBody[[]api.BalanceDTO](t, rec)
	for _, b := range balances {
		if b.Type == "PRIVILEGE" && b.Year == 2025 {
			assert.Equal(t, "10", b.Remaining)
		}
	}

	rec = ts.do(t, http.MethodGet, "/api/approved-leaves", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	calendar := decodeBody[[]api.ApprovedLeaveDTO](t, rec)
	assert.Len(t, calendar, 1)
}

func TestApplicationApproval_PolicyConflict(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.createEmployee(t, "grace@example.com", "3")
	app := ts.createApplication(t, emp.ID, "personal")

	rec := ts.do(t, http.MethodPut, "/api/applications/"+app.ID,
		map[string]string{"status": "Approved"}, false)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Insufficient Vacation Leave (VL) balance")

	// The status rolled back with the ledger.
	rec = ts.do(t, http.MethodGet, "/api/applications?employee_id="+emp.ID, nil, false)
	apps := decodeBody[[]api.ApplicationDTO](t, rec)
	require.Len(t, apps, 1)
	assert.Equal(t, "Pending", apps[0].Status)
}

func TestCreateApplication_LeaveWithoutPayGate(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.createEmployee(t, "grace@example.com", "15")

	rec := ts.do(t, http.MethodPost, "/api/applications", map[string]any{
		"employee_id": emp.ID,
		"start_date":  "2025-03-10",
		"end_date":    "2025-03-14",
		"leave_type":  "leave-without-pay",
	}, false)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Vacation leave must be exhausted")
}

func TestNextApplicationCode(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/applications/next-code", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[api.NextCodeResponse](t, rec)
	assert.Regexp(t, `^APP-\d{8}-[0-9A-F]{8}$`, resp.Code)
}

// =============================================================================
// BALANCES, HOLIDAYS, NOTIFICATIONS
// =============================================================================

func TestOverrideAndResetBalances(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.createEmployee(t, "grace@example.com", "15")

	rec := ts.do(t, http.MethodPut, "/api/balances/"+emp.ID, map[string]any{
		"year":      2025,
		"privilege": "8",
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	balances := decodeBody[[]api.BalanceDTO](t, rec)
	for _, b := range balances {
		if b.Type == "PRIVILEGE" && b.Year == 2025 {
			assert.Equal(t, "8", b.Remaining)
			assert.Equal(t, "7", b.Used)
		}
	}

	rec = ts.do(t, http.MethodPost, "/api/balances/reset", map[string]any{"year": 2025}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeBody[map[string]int](t, rec)
	assert.Equal(t, 1, result["employees"])
}

func TestResetBalances_DefaultsToCurrentYear(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.createEmployee(t, "grace@example.com", "15")

	rec := ts.do(t, http.MethodPost, "/api/balances/reset", map[string]any{}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeBody[map[string]int](t, rec)
	assert.Equal(t, 1, result["employees"])

	rec = ts.do(t, http.MethodGet, "/api/balances?employee_id="+emp.ID, nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	balances := decodeBody[[]api.BalanceDTO](t, rec)
	found := false
	for _, b := range balances {
		if b.Type == "PRIVILEGE" && b.Year == time.Now().Year() {
			found = true
			assert.Equal(t, "15", b.Remaining)
		}
	}
	assert.True(t, found, "reset must target the current year when omitted")
}

func TestHolidays_AdminCRUD(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/holidays",
		map[string]string{"date": "2025-12-25", "name": "Christmas"}, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[api.HolidayDTO](t, rec)

	rec = ts.do(t, http.MethodGet, "/api/holidays", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	holidays := decodeBody[[]api.HolidayDTO](t, rec)
	require.Len(t, holidays, 1)

	rec = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/holidays/%s", created.ID), nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNotifications_HTTP(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/notifications", map[string]string{
		"employee_id": "emp-1",
		"message":     "your leave was approved",
	}, false)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[api.NotificationDTO](t, rec)

	rec = ts.do(t, http.MethodGet, "/api/notifications?employee_id=emp-1", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]api.NotificationDTO](t, rec)
	require.Len(t, list, 1)

	rec = ts.do(t, http.MethodDelete, "/api/notifications/"+created.ID, nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}
