// Package emi computes equated monthly installment schedules on a
// reducing-balance basis. All arithmetic stays in decimal; callers round at
// persistence boundaries.
package emi

import (
	"github.com/shopspring/decimal"

	apperr "github.com/corebank/lending-engine/pkg/errors"
)

var (
	hundred      = decimal.NewFromInt(100)
	twelve       = decimal.NewFromInt(12)
	one          = decimal.NewFromInt(1)
	monthDivisor = twelve.Mul(hundred) // annual percent -> monthly rate
)

// Schedule holds the committed repayment figures for a loan. Values are
// unrounded.
type Schedule struct {
	EMI           decimal.Decimal
	TotalPayable  decimal.Decimal
	TotalInterest decimal.Decimal
}

// Calculate derives the fixed monthly installment for a loan of the given
// principal, annual interest rate (percent) and tenure (months).
//
// With monthly rate r = rate / (12 * 100):
//
//	r == 0: emi = principal / tenure
//	r > 0:  emi = principal * r * (1+r)^n / ((1+r)^n - 1)
func Calculate(principal, annualRatePercent decimal.Decimal, tenureMonths int) (Schedule, error) {
	if principal.LessThanOrEqual(decimal.Zero) {
		return Schedule{}, apperr.WrapInvalidLoanParameters("principal must be positive")
	}
	if tenureMonths <= 0 {
		return Schedule{}, apperr.WrapInvalidLoanParameters("tenure must be a positive number of months")
	}
	if annualRatePercent.IsNegative() {
		return Schedule{}, apperr.WrapInvalidLoanParameters("interest rate must not be negative")
	}

	n := decimal.NewFromInt(int64(tenureMonths))
	monthlyRate := annualRatePercent.Div(monthDivisor)

	var installment decimal.Decimal
	if monthlyRate.IsZero() {
		// Zero-interest: even split, no compounding.
		installment = principal.Div(n)
	} else {
		factor := one.Add(monthlyRate).Pow(n)
		installment = principal.Mul(monthlyRate).Mul(factor).Div(factor.Sub(one))
	}

	totalPayable := installment.Mul(n)

	return Schedule{
		EMI:           installment,
		TotalPayable:  totalPayable,
		TotalInterest: totalPayable.Sub(principal),
	}, nil
}

// MonthlyRate returns the monthly decimal rate for an annual percentage rate.
func MonthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.Div(monthDivisor)
}

// SplitInstallment breaks one installment into its interest and principal
// components against the remaining principal before this payment. The
// interest component must be computed from the pre-payment balance; callers
// reduce the balance afterwards.
func SplitInstallment(installment, remainingPrincipal, annualRatePercent decimal.Decimal) (interest, principalPart decimal.Decimal) {
	interest = remainingPrincipal.Mul(MonthlyRate(annualRatePercent))
	principalPart = installment.Sub(interest)
	return interest, principalPart
}
