package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionDirection string

const (
	TransactionCredit TransactionDirection = "CREDIT"
	TransactionDebit  TransactionDirection = "DEBIT"
)

type TransactionCategory string

const (
	CategoryLoanDisbursement TransactionCategory = "loan_disbursement"
	CategoryEMIPayment       TransactionCategory = "emi_payment"
	CategoryLoanPreclosure   TransactionCategory = "loan_preclosure"
)

// Transaction is one append-only record of money movement against a ledger
// account. Records are never updated or deleted.
type Transaction struct {
	ID          uuid.UUID            `json:"id" db:"id"`
	OwnerID     string               `json:"owner_id" db:"owner_id"`
	AccountID   uuid.UUID            `json:"account_id" db:"account_id"`
	Amount      decimal.Decimal      `json:"amount" db:"amount"`
	Direction   TransactionDirection `json:"direction" db:"direction"`
	Category    TransactionCategory  `json:"category" db:"category"`
	Description string               `json:"description" db:"description"`
	CreatedAt   time.Time            `json:"created_at" db:"created_at"`
}
