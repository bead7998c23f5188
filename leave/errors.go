/*
errors.go - Typed errors for the leave core

ERROR CATEGORIES:
  1. Validation errors - malformed input (bad dates, out-of-window times)
  2. Policy violations - business rules (insufficient balance, cash-out cap)
  3. Not-found errors  - unknown employee/application ids
  4. Transient errors  - storage hiccups worth retrying

The API layer maps these to HTTP statuses with the Is* helpers; the ledger
and controller only ever raise typed errors and never touch HTTP concerns.
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation marks malformed caller input. No mutation happened.
	ErrValidation = errors.New("validation error")

	// ErrPolicyViolation marks a business-rule rejection. The enclosing
	// transaction must roll back entirely.
	ErrPolicyViolation = errors.New("policy violation")

	// ErrEmployeeNotFound is returned for unknown or inactive employees.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrApplicationNotFound is returned for unknown application ids.
	ErrApplicationNotFound = errors.New("leave application not found")

	// ErrInsufficientBalance is wrapped by InsufficientBalanceError.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// LeaveWithoutPayMessage is the policy message shown while privilege leave
// still covers the requested days.
const LeaveWithoutPayMessage = "Vacation leave must be exhausted before requesting Leave Without Pay"

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError reports a specific bad input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PolicyError reports a business-rule rejection with a caller-facing message.
type PolicyError struct {
	Message string
}

func (e *PolicyError) Error() string { return e.Message }

func (e *PolicyError) Unwrap() error { return ErrPolicyViolation }

// InsufficientBalanceError quotes the requested and available amounts.
type InsufficientBalanceError struct {
	Type      BalanceType
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("Insufficient %s balance. Required: %s, Available: %s",
		e.Type.Label(), e.Requested.String(), e.Available.String())
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrPolicyViolation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether err is caller-input shaped.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsPolicyViolation reports whether err is a business-rule rejection.
func IsPolicyViolation(err error) bool { return errors.Is(err, ErrPolicyViolation) }

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) || errors.Is(err, ErrApplicationNotFound)
}
