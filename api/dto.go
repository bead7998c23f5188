/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator struct tags; handlers run the
  shared validator before touching domain logic. Domain rules (balance
  checks, time windows) stay in package leave.
*/
package api

import (
	"time"

	"github.com/qtask/leave-engine/leave"
	"github.com/qtask/leave-engine/notify"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	Surname     string `json:"surname"`
	Email       string `json:"email"`
	AnnualLeave string `json:"annual_leave"`
	SickLeave   string `json:"sick_leave"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func toEmployeeDTO(e *leave.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:          e.ID,
		FirstName:   e.FirstName,
		Surname:     e.Surname,
		Email:       e.Email,
		AnnualLeave: e.AnnualLeave.String(),
		SickLeave:   e.SickLeave.String(),
		Active:      e.Active,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}

// CreateEmployeeRequest creates or reactivates an employee.
type CreateEmployeeRequest struct {
	FirstName   string  `json:"first_name" validate:"required,max=50"`
	Surname     string  `json:"surname" validate:"required,max=50"`
	Email       string  `json:"email" validate:"required,contains=@"`
	AnnualLeave *string `json:"annual_leave,omitempty"`
	SickLeave   *string `json:"sick_leave,omitempty"`
}

// UpdateEmployeeRequest updates an active employee.
type UpdateEmployeeRequest struct {
	FirstName   string  `json:"first_name" validate:"required,max=50"`
	Surname     string  `json:"surname" validate:"required,max=50"`
	Email       string  `json:"email" validate:"required,contains=@"`
	AnnualLeave *string `json:"annual_leave,omitempty"`
	SickLeave   *string `json:"sick_leave,omitempty"`
}

// BootstrapRequest resolves an employee by email at login.
type BootstrapRequest struct {
	Email string `json:"email" validate:"required,contains=@"`
}

// BootstrapResponse returns the employee and their initialized balances.
type BootstrapResponse struct {
	Employee EmployeeDTO  `json:"employee"`
	Balances []BalanceDTO `json:"balances"`
}

// =============================================================================
// APPLICATIONS
// =============================================================================

// ApplicationDTO represents a leave application in API responses.
type ApplicationDTO struct {
	ID           string   `json:"id"`
	Code         string   `json:"code"`
	EmployeeID   string   `json:"employee_id"`
	EmployeeName string   `json:"employee_name"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	StartTime    string   `json:"start_time,omitempty"`
	EndTime      string   `json:"end_time,omitempty"`
	StartDayType string   `json:"start_day_type,omitempty"`
	EndDayType   string   `json:"end_day_type,omitempty"`
	LeaveType    string   `json:"leave_type"`
	Reasons      []string `json:"reasons,omitempty"`
	Reason       string   `json:"reason,omitempty"`
	TotalHours   string   `json:"total_hours"`
	TotalDays    string   `json:"total_days"`
	Status       string   `json:"status"`
	DateApplied  string   `json:"date_applied"`
}

func toApplicationDTO(a *leave.Application) ApplicationDTO {
	return ApplicationDTO{
		ID:           a.ID,
		Code:         a.Code,
		EmployeeID:   a.EmployeeID,
		EmployeeName: a.EmployeeName,
		StartDate:    leave.FormatDate(a.StartDate),
		EndDate:      leave.FormatDate(a.EndDate),
		StartTime:    a.StartTime,
		EndTime:      a.EndTime,
		StartDayType: string(a.StartDayType),
		EndDayType:   string(a.EndDayType),
		LeaveType:    a.LeaveType,
		Reasons:      a.Reasons,
		Reason:       a.Reason,
		TotalHours:   a.TotalHours.String(),
		TotalDays:    a.TotalDays.String(),
		Status:       string(a.Status),
		DateApplied:  a.DateApplied.Format(time.RFC3339),
	}
}

// CreateApplicationRequest submits a leave request. Totals are computed
// server-side; any totals the client sends are ignored.
type CreateApplicationRequest struct {
	EmployeeID   string   `json:"employee_id" validate:"required"`
	StartDate    string   `json:"start_date" validate:"required"`
	EndDate      string   `json:"end_date" validate:"required"`
	StartTime    string   `json:"start_time,omitempty"`
	EndTime      string   `json:"end_time,omitempty"`
	StartDayType string   `json:"start_day_type,omitempty" validate:"omitempty,oneof=full am pm"`
	EndDayType   string   `json:"end_day_type,omitempty" validate:"omitempty,oneof=full am pm"`
	LeaveType    string   `json:"leave_type" validate:"required"`
	Reasons      []string `json:"reasons,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// UpdateStatusRequest moves an application through the state machine.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Approved Rejected"`
}

// TransitionResponse is the result of a status change, including
// per-recipient notification outcomes.
type TransitionResponse struct {
	Application   ApplicationDTO    `json:"application"`
	ReturnDate    string            `json:"return_date,omitempty"`
	Notifications []notify.Delivery `json:"notifications,omitempty"`
}

// =============================================================================
// BALANCES
// =============================================================================

// BalanceDTO represents one ledger bucket.
type BalanceDTO struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	Type         string `json:"type"`
	Year         int    `json:"year"`
	Allocated    string `json:"allocated"`
	Used         string `json:"used"`
	Remaining    string `json:"remaining"`
	Carryforward string `json:"carryforward"`
	LastUpdated  string `json:"last_updated"`
}

func toBalanceDTO(b *leave.Balance) BalanceDTO {
	return BalanceDTO{
		ID:           b.ID,
		EmployeeID:   b.EmployeeID,
		Type:         string(b.Type),
		Year:         b.Year,
		Allocated:    b.Allocated.String(),
		Used:         b.Used.String(),
		Remaining:    b.Remaining.String(),
		Carryforward: b.Carryforward.String(),
		LastUpdated:  b.LastUpdated.Format(time.RFC3339),
	}
}

// OverrideBalancesRequest sets remaining days directly (admin).
type OverrideBalancesRequest struct {
	Year      int     `json:"year" validate:"required,min=2000,max=2200"`
	Privilege *string `json:"privilege,omitempty"`
	Sick      *string `json:"sick,omitempty"`
}

// ResetBalancesRequest resets every active employee for a year (admin).
// Year is optional and defaults to the current year.
type ResetBalancesRequest struct {
	Year int `json:"year,omitempty" validate:"omitempty,min=2000,max=2200"`
}

// HistoryDTO is one audit row.
type HistoryDTO struct {
	ID            string `json:"id"`
	EmployeeID    string `json:"employee_id"`
	Type          string `json:"type"`
	Change        string `json:"change"`
	Amount        string `json:"amount"`
	Previous      string `json:"previous"`
	New           string `json:"new"`
	Reason        string `json:"reason,omitempty"`
	ApplicationID string `json:"application_id,omitempty"`
	ChangedBy     string `json:"changed_by,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toHistoryDTO(h *leave.HistoryEntry) HistoryDTO {
	return HistoryDTO{
		ID:            h.ID,
		EmployeeID:    h.EmployeeID,
		Type:          string(h.Type),
		Change:        string(h.Change),
		Amount:        h.Amount.String(),
		Previous:      h.Previous.String(),
		New:           h.New.String(),
		Reason:        h.Reason,
		ApplicationID: h.ApplicationID,
		ChangedBy:     h.ChangedBy,
		CreatedAt:     h.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// HOLIDAYS, CALENDAR, NOTIFICATIONS, SESSION
// =============================================================================

// HolidayDTO represents a company holiday.
type HolidayDTO struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}

// CreateHolidayRequest adds a holiday (admin).
type CreateHolidayRequest struct {
	Date string `json:"date" validate:"required"`
	Name string `json:"name" validate:"required,max=100"`
}

// ApprovedLeaveDTO is one team-calendar row.
type ApprovedLeaveDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// NotificationDTO is one in-app message.
type NotificationDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Message    string `json:"message"`
	Read       bool   `json:"read"`
	CreatedAt  string `json:"created_at"`
}

// CreateNotificationRequest stores an in-app message.
type CreateNotificationRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Message    string `json:"message" validate:"required,max=500"`
}

// LoginRequest opens an admin session.
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// NextCodeResponse previews the next application code.
type NextCodeResponse struct {
	Code string `json:"code"`
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
