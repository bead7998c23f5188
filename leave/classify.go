/*
classify.go - Leave-type token classification

PURPOSE:
  Maps the free-form (but policy-significant) leave-type token on an
  application to a closed LeaveCategory. The category decides which balance
  bucket a transition debits, and whether special semantics apply.

WHY A SINGLE TABLE?
  The classification used to live in ad hoc string sets that drifted apart
  between call sites. One authoritative table, checked once at startup
  against every token the UI can submit, removes the silent-reclassification
  failure mode.

CATEGORIES:
  Privilege      debits the PRIVILEGE bucket for the full amount
  Sick           debits the SICK bucket for the full amount
  Unpaid         leave-without-pay: debits PRIVILEGE up to what remains,
                 records the rest as an UNPAID audit entry
  NonDeductible  informational types with no balance effect at all
*/
package leave

import (
	"fmt"
	"sort"
	"strings"
)

// LeaveCategory is the closed classification of leave-type tokens.
type LeaveCategory int

const (
	CategoryPrivilege LeaveCategory = iota
	CategorySick
	CategoryNonDeductible
	CategoryUnpaid
)

func (c LeaveCategory) String() string {
	switch c {
	case CategoryPrivilege:
		return "privilege"
	case CategorySick:
		return "sick"
	case CategoryNonDeductible:
		return "non-deductible"
	case CategoryUnpaid:
		return "unpaid"
	default:
		return fmt.Sprintf("LeaveCategory(%d)", int(c))
	}
}

// Bucket returns the balance bucket the category debits. NonDeductible has
// no bucket and returns "".
func (c LeaveCategory) Bucket() BalanceType {
	switch c {
	case CategoryPrivilege, CategoryUnpaid:
		return BalancePrivilege
	case CategorySick:
		return BalanceSick
	default:
		return ""
	}
}

// LeaveWithoutPay is the token carrying partial-deduction semantics.
const LeaveWithoutPay = "leave-without-pay"

// CashOut converts unused privilege leave into a payable claim. It debits
// PRIVILEGE like any vacation type but must never drive the bucket negative.
const CashOut = "cash-out"

// DefaultLeaveTypes is the authoritative token table accepted by the UI.
func DefaultLeaveTypes() map[string]LeaveCategory {
	return map[string]LeaveCategory{
		"personal":            CategoryPrivilege,
		"vacation-annual":     CategoryPrivilege,
		CashOut:               CategoryPrivilege,
		"family-emergency":    CategoryPrivilege,
		"bereavement":         CategoryPrivilege,
		"maternity-paternity": CategoryPrivilege,
		"study-exam":          CategoryPrivilege,
		"childcare":           CategoryPrivilege,
		"jury-duty":           CategoryPrivilege,
		"other":               CategoryPrivilege,
		"sick":                CategorySick,
		"medical-appointment": CategorySick,
		LeaveWithoutPay:       CategoryUnpaid,
		"work-from-home":      CategoryNonDeductible,
	}
}

// Classify maps a leave-type token to its category. Tokens are lower-cased
// and trimmed first. Unknown tokens fall back to Sick, preserving the legacy
// everything-else-is-sick rule for records predating the closed table.
func (c LedgerConfig) Classify(token string) LeaveCategory {
	normalized := NormalizeLeaveType(token)
	if cat, ok := c.LeaveTypes[normalized]; ok {
		return cat
	}
	return CategorySick
}

// NormalizeLeaveType canonicalizes a token for table lookup and storage.
func NormalizeLeaveType(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}

// ValidateTokens checks at startup that every token the UI accepts is
// present in the table, so a new UI option cannot silently reclassify.
func (c LedgerConfig) ValidateTokens(accepted []string) error {
	var missing []string
	for _, token := range accepted {
		if _, ok := c.LeaveTypes[NormalizeLeaveType(token)]; !ok {
			missing = append(missing, token)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("leave types missing from classification table: %s", strings.Join(missing, ", "))
	}
	return nil
}
