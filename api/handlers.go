/*
handlers.go - HTTP API handlers for the leave management system

PURPOSE:
  Exposes the leave core via REST API. Handles HTTP request/response, JSON
  serialization and validation, and delegates to domain logic.

ENDPOINTS:
  Session:
    POST   /api/session                 Admin login
    DELETE /api/session                 Admin logout

  Employees:
    GET    /api/employees               List employees
    POST   /api/employees               Create (or reactivate) employee  [admin]
    GET    /api/employees/{id}          Get employee
    PUT    /api/employees/{id}          Update employee                  [admin]
    DELETE /api/employees/{id}          Deactivate employee              [admin]
    POST   /api/employees/bootstrap     Resolve by email + init balances

  Applications:
    GET    /api/applications            List (optionally ?employee_id=)
    POST   /api/applications            Submit request
    PUT    /api/applications/{id}       Change status (ledger effect)
    DELETE /api/applications/{id}       Hard delete (no ledger effect)
    GET    /api/applications/next-code  Preview next code

  Balances:
    GET    /api/balances                List (optionally ?employee_id=)
    PUT    /api/balances/{employee_id}  Override remaining               [admin]
    POST   /api/balances/reset          Annual reset                     [admin]
    GET    /api/balances/history        Audit rows

  Holidays / calendar / notifications:
    GET    /api/holidays                POST [admin]   DELETE /{id} [admin]
    GET    /api/approved-leaves
    GET    /api/notifications           POST           DELETE /{id}

ERROR HANDLING:
  Domain errors map to HTTP statuses via the leave.Is* helpers:
  - 400: validation errors, malformed input
  - 404: unknown employee/application
  - 409: policy violations (insufficient balance, cash-out cap, unpaid gate)
  - 500: everything else

SEE ALSO:
  - dto.go: request/response data structures
  - session.go: admin session middleware
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/qtask/leave-engine/leave"
	"github.com/qtask/leave-engine/notify"
	"github.com/qtask/leave-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Ledger     *leave.Ledger
	Apps       *leave.Applications
	Dispatcher *notify.Dispatcher
	Sessions   *Sessions

	AdminPassword string

	log      *zap.Logger
	validate *validator.Validate
}

// NewHandler creates a handler with the given dependencies.
func NewHandler(store *sqlite.Store, ledger *leave.Ledger, apps *leave.Applications, dispatcher *notify.Dispatcher, adminPassword string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:         store,
		Ledger:        ledger,
		Apps:          apps,
		Dispatcher:    dispatcher,
		Sessions:      NewSessions(),
		AdminPassword: adminPassword,
		log:           log,
		validate:      validator.New(),
	}
}

// decode parses and validates a JSON body, writing the error response itself
// when anything is wrong.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := errorResponse{Error: msg}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps typed domain errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, msg string, err error) {
	switch {
	case leave.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case leave.IsPolicyViolation(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	default:
		h.log.Error(msg, zap.Error(err))
		writeError(w, http.StatusInternalServerError, msg, err)
	}
}

// parseAllocation reads an optional decimal field, zero when absent.
func parseAllocation(w http.ResponseWriter, field string, value *string) (decimal.Decimal, bool) {
	if value == nil || *value == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(*value)
	if err != nil || d.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid "+field, err)
		return decimal.Zero, false
	}
	return d, true
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns active employees; ?include_inactive=true adds the
// soft-deleted ones.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	employees, err := h.Store.ListEmployees(r.Context(), includeInactive)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i := range employees {
		dtos[i] = toEmployeeDTO(&employees[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.Employee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateEmployee creates a new employee, or reactivates a soft-deleted one
// carrying the same email. Balances for the current year are initialized.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	annual, ok := parseAllocation(w, "annual_leave", req.AnnualLeave)
	if !ok {
		return
	}
	sick, ok := parseAllocation(w, "sick_leave", req.SickLeave)
	if !ok {
		return
	}

	emp := &leave.Employee{
		FirstName:   req.FirstName,
		Surname:     req.Surname,
		Email:       req.Email,
		AnnualLeave: annual,
		SickLeave:   sick,
	}
	if err := h.Store.CreateEmployee(r.Context(), emp); err != nil {
		h.writeDomainError(w, "Failed to create employee", err)
		return
	}
	if _, err := h.Ledger.InitializeBalances(r.Context(), emp.ID, time.Now().Year()); err != nil {
		h.log.Warn("balance initialization failed", zap.String("employee_id", emp.ID), zap.Error(err))
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// UpdateEmployee updates names, email and allocations.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req UpdateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	annual, ok := parseAllocation(w, "annual_leave", req.AnnualLeave)
	if !ok {
		return
	}
	sick, ok := parseAllocation(w, "sick_leave", req.SickLeave)
	if !ok {
		return
	}

	emp := &leave.Employee{
		ID:          chi.URLParam(r, "id"),
		FirstName:   req.FirstName,
		Surname:     req.Surname,
		Email:       req.Email,
		AnnualLeave: annual,
		SickLeave:   sick,
	}
	if err := h.Store.UpdateEmployee(r.Context(), emp); err != nil {
		h.writeDomainError(w, "Failed to update employee", err)
		return
	}
	updated, err := h.Store.Employee(r.Context(), emp.ID)
	if err != nil || updated == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(updated))
}

// DeleteEmployee soft-deletes an employee.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeactivateEmployee(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, "Failed to deactivate employee", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Bootstrap resolves an employee by email and initializes this year's
// balances. The UI calls it at login. A deactivated record is reported
// distinctly from an unknown one.
func (h *Handler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	var req BootstrapRequest
	if !h.decode(w, r, &req) {
		return
	}

	emp, err := h.Store.EmployeeByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	if !emp.Active {
		writeError(w, http.StatusNotFound, "Employee is deactivated", nil)
		return
	}

	balances, err := h.Ledger.InitializeBalances(r.Context(), emp.ID, time.Now().Year())
	if err != nil {
		h.writeDomainError(w, "Failed to initialize balances", err)
		return
	}

	dtos := make([]BalanceDTO, len(balances))
	for i := range balances {
		dtos[i] = toBalanceDTO(&balances[i])
	}
	writeJSON(w, http.StatusOK, BootstrapResponse{
		Employee: toEmployeeDTO(emp),
		Balances: dtos,
	})
}

// =============================================================================
// APPLICATION HANDLERS
// =============================================================================

// ListApplications returns applications, optionally filtered by employee.
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Store.ListApplications(r.Context(), r.URL.Query().Get("employee_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list applications", err)
		return
	}

	dtos := make([]ApplicationDTO, len(apps))
	for i := range apps {
		dtos[i] = toApplicationDTO(&apps[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateApplication submits a leave request and notifies the admin.
func (h *Handler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var req CreateApplicationRequest
	if !h.decode(w, r, &req) {
		return
	}
	startDate, err := leave.ParseDate(req.StartDate)
	if err != nil {
		h.writeDomainError(w, "Invalid start date", err)
		return
	}
	endDate, err := leave.ParseDate(req.EndDate)
	if err != nil {
		h.writeDomainError(w, "Invalid end date", err)
		return
	}

	app, err := h.Apps.Create(r.Context(), leave.CreateInput{
		EmployeeID:   req.EmployeeID,
		StartDate:    startDate,
		EndDate:      endDate,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		StartDayType: leave.DayType(req.StartDayType),
		EndDayType:   leave.DayType(req.EndDayType),
		LeaveType:    req.LeaveType,
		Reasons:      req.Reasons,
		Reason:       req.Reason,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to create application", err)
		return
	}

	if emp, err := h.Store.Employee(r.Context(), app.EmployeeID); err == nil && emp != nil {
		h.Dispatcher.SubmissionNotice(r.Context(), app, emp)
	}
	writeJSON(w, http.StatusCreated, toApplicationDTO(app))
}

// UpdateApplicationStatus moves an application through the state machine and
// reports per-recipient notification outcomes. Notification failures never
// fail the transition; it has already committed.
func (h *Handler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.Apps.UpdateStatus(r.Context(), chi.URLParam(r, "id"), leave.Status(req.Status), "admin")
	if err != nil {
		h.writeDomainError(w, "Failed to update application", err)
		return
	}

	deliveries := h.Dispatcher.TransitionNotices(r.Context(), result)
	writeJSON(w, http.StatusOK, TransitionResponse{
		Application:   toApplicationDTO(result.Application),
		ReturnDate:    leave.FormatDate(result.ReturnDate),
		Notifications: deliveries,
	})
}

// DeleteApplication hard-removes an application without any ledger effect.
func (h *Handler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	if err := h.Apps.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, "Failed to delete application", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// NextApplicationCode previews the next application code for the UI form.
func (h *Handler) NextApplicationCode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NextCodeResponse{Code: h.Apps.NextCode()})
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// ListBalances returns balance rows, optionally for one employee.
func (h *Handler) ListBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.Ledger.Balances(r.Context(), r.URL.Query().Get("employee_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list balances", err)
		return
	}

	dtos := make([]BalanceDTO, len(balances))
	for i := range balances {
		dtos[i] = toBalanceDTO(&balances[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// OverrideBalances sets remaining days directly for one employee (admin).
func (h *Handler) OverrideBalances(w http.ResponseWriter, r *http.Request) {
	var req OverrideBalancesRequest
	if !h.decode(w, r, &req) {
		return
	}

	targets := make(map[leave.BalanceType]decimal.Decimal)
	if req.Privilege != nil {
		d, ok := parseAllocation(w, "privilege", req.Privilege)
		if !ok {
			return
		}
		targets[leave.BalancePrivilege] = d
	}
	if req.Sick != nil {
		d, ok := parseAllocation(w, "sick", req.Sick)
		if !ok {
			return
		}
		targets[leave.BalanceSick] = d
	}
	if len(targets) == 0 {
		writeError(w, http.StatusBadRequest, "Nothing to override", nil)
		return
	}

	employeeID := chi.URLParam(r, "employee_id")
	if err := h.Ledger.AdminOverrideRemaining(r.Context(), employeeID, req.Year, targets); err != nil {
		h.writeDomainError(w, "Failed to override balances", err)
		return
	}

	balances, err := h.Ledger.Balances(r.Context(), employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload balances", err)
		return
	}
	dtos := make([]BalanceDTO, len(balances))
	for i := range balances {
		dtos[i] = toBalanceDTO(&balances[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ResetBalances restores every active employee to their yearly allocation.
// An omitted year means the current year.
func (h *Handler) ResetBalances(w http.ResponseWriter, r *http.Request) {
	var req ResetBalancesRequest
	if !h.decode(w, r, &req) {
		return
	}
	year := req.Year
	if year == 0 {
		year = time.Now().Year()
	}

	count, err := h.Ledger.ResetAllBalances(r.Context(), year, "admin")
	if err != nil {
		h.writeDomainError(w, "Failed to reset balances", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"employees": count})
}

// BalanceHistory returns audit rows filtered by employee and/or application.
func (h *Handler) BalanceHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.BalanceHistory(r.Context(),
		r.URL.Query().Get("employee_id"),
		r.URL.Query().Get("application_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list history", err)
		return
	}

	dtos := make([]HistoryDTO, len(entries))
	for i := range entries {
		dtos[i] = toHistoryDTO(&entries[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns all company holidays.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.Holidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = HolidayDTO{ID: hol.ID, Date: leave.FormatDate(hol.Date), Name: hol.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a holiday (admin).
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := leave.ParseDate(req.Date)
	if err != nil {
		h.writeDomainError(w, "Invalid date", err)
		return
	}

	hol := &leave.Holiday{Date: date, Name: req.Name}
	if err := h.Store.SaveHoliday(r.Context(), hol); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, HolidayDTO{ID: hol.ID, Date: req.Date, Name: hol.Name})
}

// DeleteHoliday removes a holiday (admin).
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// =============================================================================
// CALENDAR AND NOTIFICATION HANDLERS
// =============================================================================

// ListApprovedLeaves returns the team calendar.
func (h *Handler) ListApprovedLeaves(w http.ResponseWriter, r *http.Request) {
	leaves, err := h.Store.ApprovedLeaves(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list approved leaves", err)
		return
	}

	dtos := make([]ApprovedLeaveDTO, len(leaves))
	for i, al := range leaves {
		dtos[i] = ApprovedLeaveDTO{
			ID:         al.ID,
			EmployeeID: al.EmployeeID,
			StartDate:  leave.FormatDate(al.StartDate),
			EndDate:    leave.FormatDate(al.EndDate),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListNotifications returns in-app messages, optionally for one employee.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.Store.Notifications(r.Context(), r.URL.Query().Get("employee_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list notifications", err)
		return
	}

	dtos := make([]NotificationDTO, len(notifications))
	for i, n := range notifications {
		dtos[i] = NotificationDTO{
			ID:         n.ID,
			EmployeeID: n.EmployeeID,
			Message:    n.Message,
			Read:       n.Read,
			CreatedAt:  n.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateNotification stores an in-app message.
func (h *Handler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req CreateNotificationRequest
	if !h.decode(w, r, &req) {
		return
	}

	n := &leave.Notification{EmployeeID: req.EmployeeID, Message: req.Message}
	if err := h.Store.InsertNotification(r.Context(), n); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create notification", err)
		return
	}
	writeJSON(w, http.StatusCreated, NotificationDTO{
		ID:         n.ID,
		EmployeeID: n.EmployeeID,
		Message:    n.Message,
		CreatedAt:  n.CreatedAt.Format(time.RFC3339),
	})
}

// DeleteNotification removes an in-app message.
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteNotification(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete notification", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
