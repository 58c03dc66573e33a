// Package mocks holds testify doubles for the lending engine's collaborator
// interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/corebank/lending-engine/internal/domain"
)

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) GetByBorrower(ctx context.Context, borrowerID string) ([]*domain.Loan, error) {
	args := m.Called(ctx, borrowerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) Save(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) AppendRepayment(ctx context.Context, repayment *domain.Repayment) error {
	args := m.Called(ctx, repayment)
	return args.Error(0)
}

func (m *MockLoanRepository) ListActive(ctx context.Context) ([]*domain.Loan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByOwnerAndType(ctx context.Context, ownerID string, accountType domain.AccountType) (*domain.Account, error) {
	args := m.Called(ctx, ownerID, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) AdjustBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (*domain.Account, error) {
	args := m.Called(ctx, accountID, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Record(ctx context.Context, transaction *domain.Transaction) (uuid.UUID, error) {
	args := m.Called(ctx, transaction)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// MockTransactor runs the callback inline so service logic under test
// executes exactly as it would inside a real transaction.
type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Called(ctx)
	return fn(ctx)
}

type MockLoanCache struct {
	mock.Mock
}

func (m *MockLoanCache) Get(ctx context.Context, borrowerID string) ([]*domain.Loan, bool) {
	args := m.Called(ctx, borrowerID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]*domain.Loan), args.Bool(1)
}

func (m *MockLoanCache) Set(ctx context.Context, borrowerID string, loans []*domain.Loan) {
	m.Called(ctx, borrowerID, loans)
}

func (m *MockLoanCache) Invalidate(ctx context.Context, borrowerID string) {
	m.Called(ctx, borrowerID)
}

type MockEventSink struct {
	mock.Mock
}

func (m *MockEventSink) Publish(ctx context.Context, eventType string, payload interface{}) {
	m.Called(ctx, eventType, payload)
}
