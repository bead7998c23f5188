package leave_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qtask/leave-engine/leave"
)

func TestClassify_Table(t *testing.T) {
	cfg := leave.DefaultConfig()

	cases := []struct {
		token string
		want  leave.LeaveCategory
	}{
		{"personal", leave.CategoryPrivilege},
		{"vacation-annual", leave.CategoryPrivilege},
		{"cash-out", leave.CategoryPrivilege},
		{"jury-duty", leave.CategoryPrivilege},
		{"sick", leave.CategorySick},
		{"medical-appointment", leave.CategorySick},
		{"leave-without-pay", leave.CategoryUnpaid},
		{"work-from-home", leave.CategoryNonDeductible},
		// normalization
		{"  Vacation-Annual  ", leave.CategoryPrivilege},
		{"SICK", leave.CategorySick},
		// legacy fallback for tokens predating the closed table
		{"something-old", leave.CategorySick},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cfg.Classify(tc.token), "token %q", tc.token)
	}
}

func TestCategoryBucket(t *testing.T) {
	assert.Equal(t, leave.BalancePrivilege, leave.CategoryPrivilege.Bucket())
	assert.Equal(t, leave.BalancePrivilege, leave.CategoryUnpaid.Bucket())
	assert.Equal(t, leave.BalanceSick, leave.CategorySick.Bucket())
	assert.Equal(t, leave.BalanceType(""), leave.CategoryNonDeductible.Bucket())
}

func TestValidateTokens(t *testing.T) {
	cfg := leave.DefaultConfig()

	assert.NoError(t, cfg.ValidateTokens([]string{"personal", "sick", "Leave-Without-Pay"}))

	err := cfg.ValidateTokens([]string{"personal", "sabbatical", "gardening"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "gardening, sabbatical")
}
