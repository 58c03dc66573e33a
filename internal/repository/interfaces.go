package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corebank/lending-engine/internal/domain"
)

// LoanRepository defines the interface for loan record operations
type LoanRepository interface {
	// Create persists a new loan record
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan with its repayment history
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// GetByBorrower retrieves all loans for a borrower, newest first
	GetByBorrower(ctx context.Context, borrowerID string) ([]*domain.Loan, error)

	// Save writes back the mutable fields of a loan (full-record update)
	Save(ctx context.Context, loan *domain.Loan) error

	// AppendRepayment appends one entry to a loan's repayment history
	AppendRepayment(ctx context.Context, repayment *domain.Repayment) error

	// ListActive retrieves every loan in ACTIVE status
	ListActive(ctx context.Context) ([]*domain.Loan, error)
}

// AccountRepository defines the interface for ledger account operations
type AccountRepository interface {
	// Create persists a new ledger account
	Create(ctx context.Context, account *domain.Account) error

	// GetByOwnerAndType retrieves an owner's account of the given type
	GetByOwnerAndType(ctx context.Context, ownerID string, accountType domain.AccountType) (*domain.Account, error)

	// AdjustBalance applies a signed delta to an account balance in a single
	// atomic statement and returns the updated account. The store refuses to
	// drive a balance negative.
	AdjustBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (*domain.Account, error)
}

// TransactionRepository is the append-only record of money movement
type TransactionRepository interface {
	// Record appends a transaction and returns its ID
	Record(ctx context.Context, transaction *domain.Transaction) (uuid.UUID, error)
}

// Transactor runs a function inside a single database transaction.
// Repositories called within fn join the ambient transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
