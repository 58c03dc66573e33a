package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "PENDING"
	LoanStatusActive    LoanStatus = "ACTIVE"
	LoanStatusClosed    LoanStatus = "CLOSED"
	LoanStatusDefaulted LoanStatus = "DEFAULTED"
	LoanStatusRejected  LoanStatus = "REJECTED"
)

// IsTerminal reports whether no further transition can leave this status.
func (s LoanStatus) IsTerminal() bool {
	return s == LoanStatusClosed || s == LoanStatusRejected
}

type LoanType string

const (
	LoanTypePersonal  LoanType = "Personal"
	LoanTypeHome      LoanType = "Home"
	LoanTypeEducation LoanType = "Education"
	LoanTypeVehicle   LoanType = "Vehicle"
	LoanTypeBusiness  LoanType = "Business"
)

// ParseLoanType validates a raw loan type string against the known set.
func ParseLoanType(raw string) (LoanType, bool) {
	switch LoanType(raw) {
	case LoanTypePersonal, LoanTypeHome, LoanTypeEducation, LoanTypeVehicle, LoanTypeBusiness:
		return LoanType(raw), true
	}
	return "", false
}

// Loan is the loan record. The schedule figures (EMIAmount,
// TotalInterestPayable, TotalPayableAmount) are committed once at creation
// and never recomputed; RemainingPrincipal, PaidEMICount and Status are the
// only fields the lifecycle engine mutates afterwards.
type Loan struct {
	ID                       uuid.UUID       `json:"id" db:"id"`
	BorrowerID               string          `json:"borrower_id" db:"borrower_id"`
	LoanType                 LoanType        `json:"loan_type" db:"loan_type"`
	PrincipalAmount          decimal.Decimal `json:"principal_amount" db:"principal_amount"`
	InterestRate             decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	TenureMonths             int             `json:"tenure_months" db:"tenure_months"`
	EMIAmount                decimal.Decimal `json:"emi_amount" db:"emi_amount"`
	TotalInterestPayable     decimal.Decimal `json:"total_interest_payable" db:"total_interest_payable"`
	TotalPayableAmount       decimal.Decimal `json:"total_payable_amount" db:"total_payable_amount"`
	RemainingPrincipal       decimal.Decimal `json:"remaining_principal" db:"remaining_principal"`
	PaidEMICount             int             `json:"paid_emi_count" db:"paid_emi_count"`
	Status                   LoanStatus      `json:"status" db:"status"`
	PreclosurePenaltyPercent decimal.Decimal `json:"preclosure_penalty_percent" db:"preclosure_penalty_percent"`
	CollateralDetails        string          `json:"collateral_details,omitempty" db:"collateral_details"`
	StartDate                *time.Time      `json:"start_date,omitempty" db:"start_date"`
	CreatedAt                time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at" db:"updated_at"`

	// Repayments is loaded from its own table, ordered by payment time.
	Repayments []*Repayment `json:"repayments,omitempty" db:"-"`
}

// NextDueDate derives the due date of the next unpaid installment from the
// disbursement date. Informational only: payments are never gated on it.
func (l *Loan) NextDueDate() (time.Time, bool) {
	if l.StartDate == nil {
		return time.Time{}, false
	}
	return l.StartDate.AddDate(0, l.PaidEMICount+1, 0), true
}

// Repayment is one entry in a loan's append-only repayment history.
type Repayment struct {
	ID                      uuid.UUID       `json:"id" db:"id"`
	LoanID                  uuid.UUID       `json:"loan_id" db:"loan_id"`
	Amount                  decimal.Decimal `json:"amount" db:"amount"`
	InterestComponent       decimal.Decimal `json:"interest_component" db:"interest_component"`
	PrincipalComponent      decimal.Decimal `json:"principal_component" db:"principal_component"`
	RemainingPrincipalAfter decimal.Decimal `json:"remaining_principal_after_payment" db:"remaining_principal_after"`
	PaidAt                  time.Time       `json:"paid_at" db:"paid_at"`
}

// DTOs for requests and responses

type ApplyLoanRequest struct {
	BorrowerID        string          `json:"borrower_id" validate:"required"`
	LoanType          string          `json:"loan_type" validate:"required"`
	PrincipalAmount   decimal.Decimal `json:"principal_amount" validate:"required"`
	TenureMonths      int             `json:"tenure_months" validate:"required,gt=0"`
	InterestRate      decimal.Decimal `json:"interest_rate"`
	CollateralDetails string          `json:"collateral_details"`
}

type PayEMIRequest struct {
	BorrowerID string `json:"borrower_id" validate:"required"`
}

type PreCloseRequest struct {
	BorrowerID string `json:"borrower_id" validate:"required"`
}

type PreCloseResponse struct {
	Loan         *Loan           `json:"loan"`
	TotalPayable decimal.Decimal `json:"total_payable"`
	Penalty      decimal.Decimal `json:"penalty"`
}

// DueBill is one line of the informational bill listing.
type DueBill struct {
	LoanID      uuid.UUID       `json:"loan_id"`
	LoanType    LoanType        `json:"loan_type"`
	EMIAmount   decimal.Decimal `json:"emi_amount"`
	NextDueDate time.Time       `json:"next_due_date"`
	Status      string          `json:"status"` // "Pending" or "Overdue"
}

const (
	DueBillPending = "Pending"
	DueBillOverdue = "Overdue"
)
