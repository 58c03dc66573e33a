package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLoanType(t *testing.T) {
	tests := []struct {
		raw      string
		expected LoanType
		ok       bool
	}{
		{"Personal", LoanTypePersonal, true},
		{"Home", LoanTypeHome, true},
		{"Education", LoanTypeEducation, true},
		{"Vehicle", LoanTypeVehicle, true},
		{"Business", LoanTypeBusiness, true},
		{"personal", "", false}, // case sensitive
		{"Payday", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		loanType, ok := ParseLoanType(tt.raw)
		assert.Equal(t, tt.ok, ok, "ParseLoanType(%q)", tt.raw)
		assert.Equal(t, tt.expected, loanType)
	}
}

func TestLoanStatus_IsTerminal(t *testing.T) {
	assert.True(t, LoanStatusClosed.IsTerminal())
	assert.True(t, LoanStatusRejected.IsTerminal())
	assert.False(t, LoanStatusPending.IsTerminal())
	assert.False(t, LoanStatusActive.IsTerminal())
	// Defaulted loans still accept payments toward closure.
	assert.False(t, LoanStatusDefaulted.IsTerminal())
}

func TestLoan_NextDueDate(t *testing.T) {
	t.Run("No start date means no bill", func(t *testing.T) {
		loan := &Loan{}
		_, ok := loan.NextDueDate()
		assert.False(t, ok)
	})

	t.Run("Advances one month per paid installment", func(t *testing.T) {
		start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
		loan := &Loan{StartDate: &start}

		due, ok := loan.NextDueDate()
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC), due)

		loan.PaidEMICount = 3
		due, ok = loan.NextDueDate()
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC), due)
	})
}
