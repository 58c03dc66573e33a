package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/corebank/lending-engine/internal/cache"
	"github.com/corebank/lending-engine/internal/config"
	"github.com/corebank/lending-engine/internal/domain"
	"github.com/corebank/lending-engine/internal/events"
	"github.com/corebank/lending-engine/internal/repository"
	"github.com/corebank/lending-engine/pkg/emi"
	apperr "github.com/corebank/lending-engine/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Funding-account preference orders. EMI payments draw from the wallet first;
// pre-closure draws from savings first. The asymmetry is deliberate and
// pending product confirmation; do not "fix" one to match the other.
var (
	emiFundingOrder      = []domain.AccountType{domain.AccountTypeWallet, domain.AccountTypeSavings}
	precloseFundingOrder = []domain.AccountType{domain.AccountTypeSavings, domain.AccountTypeWallet}
)

// LendingService is the loan lifecycle engine. It owns every mutation of a
// loan record and coordinates the ledger, transaction log, cache and event
// sink. All multi-write sequences run inside a single database transaction.
type LendingService struct {
	loanRepo    repository.LoanRepository
	accountRepo repository.AccountRepository
	txnRepo     repository.TransactionRepository
	transactor  repository.Transactor
	cache       cache.LoanCache
	events      events.Sink
	config      *config.Config
	logger      *zap.Logger

	now func() time.Time
}

func NewLendingService(
	loanRepo repository.LoanRepository,
	accountRepo repository.AccountRepository,
	txnRepo repository.TransactionRepository,
	transactor repository.Transactor,
	loanCache cache.LoanCache,
	sink events.Sink,
	cfg *config.Config,
	logger *zap.Logger,
) *LendingService {
	return &LendingService{
		loanRepo:    loanRepo,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		transactor:  transactor,
		cache:       loanCache,
		events:      sink,
		config:      cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// ApplyLoan validates a loan application, computes the committed repayment
// schedule and creates the record in PENDING. No ledger account is touched:
// a pending loan carries no financial effect.
func (s *LendingService) ApplyLoan(ctx context.Context, request *domain.ApplyLoanRequest) (*domain.Loan, error) {
	loanType, ok := domain.ParseLoanType(request.LoanType)
	if !ok {
		return nil, apperr.WrapInvalidLoanRequest(fmt.Sprintf("unknown loan type %q", request.LoanType))
	}
	if request.BorrowerID == "" {
		return nil, apperr.WrapInvalidLoanRequest("borrower ID is required")
	}
	if request.PrincipalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.WrapInvalidLoanRequest("principal amount must be positive")
	}
	if request.TenureMonths <= 0 {
		return nil, apperr.WrapInvalidLoanRequest("tenure must be a positive number of months")
	}

	rate := request.InterestRate
	if rate.IsZero() {
		rate = s.config.GetDefaultInterestRate()
	}
	if rate.IsNegative() {
		return nil, apperr.WrapInvalidLoanRequest("interest rate must not be negative")
	}

	schedule, err := emi.Calculate(request.PrincipalAmount, rate, request.TenureMonths)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	loan := &domain.Loan{
		ID:                       uuid.New(),
		BorrowerID:               request.BorrowerID,
		LoanType:                 loanType,
		PrincipalAmount:          request.PrincipalAmount,
		InterestRate:             rate,
		TenureMonths:             request.TenureMonths,
		EMIAmount:                schedule.EMI.Round(2),
		TotalInterestPayable:     schedule.TotalInterest.Round(2),
		TotalPayableAmount:       schedule.TotalPayable.Round(2),
		RemainingPrincipal:       request.PrincipalAmount,
		PaidEMICount:             0,
		Status:                   domain.LoanStatusPending,
		PreclosurePenaltyPercent: s.config.GetPreclosurePenaltyPercent(),
		CollateralDetails:        request.CollateralDetails,
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, apperr.WrapDatabaseError(err)
	}

	s.cache.Invalidate(ctx, loan.BorrowerID)
	s.events.Publish(ctx, events.LoanRequested, map[string]interface{}{
		"loan_id":     loan.ID,
		"borrower_id": loan.BorrowerID,
		"loan_type":   loan.LoanType,
		"principal":   loan.PrincipalAmount,
		"emi_amount":  loan.EMIAmount,
	})

	return loan, nil
}

// ApproveLoan disburses a pending loan: the principal is credited to the
// borrower's wallet account and the loan becomes ACTIVE. This is the single
// point where a loan becomes financially real.
func (s *LendingService) ApproveLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanStatusPending {
		return nil, apperr.WrapInvalidLoanState("only pending loans can be approved")
	}

	now := s.now().UTC()

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		wallet, err := s.accountRepo.GetByOwnerAndType(ctx, loan.BorrowerID, domain.AccountTypeWallet)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.WrapAccountNotFound(loan.BorrowerID)
			}
			return apperr.WrapDatabaseError(err)
		}

		if _, err := s.accountRepo.AdjustBalance(ctx, wallet.ID, loan.PrincipalAmount); err != nil {
			return apperr.WrapDatabaseError(err)
		}

		if _, err := s.txnRepo.Record(ctx, &domain.Transaction{
			ID:          uuid.New(),
			OwnerID:     loan.BorrowerID,
			AccountID:   wallet.ID,
			Amount:      loan.PrincipalAmount,
			Direction:   domain.TransactionCredit,
			Category:    domain.CategoryLoanDisbursement,
			Description: fmt.Sprintf("Disbursement of %s loan %s", loan.LoanType, loan.ID),
			CreatedAt:   now,
		}); err != nil {
			return apperr.WrapDatabaseError(err)
		}

		loan.Status = domain.LoanStatusActive
		loan.StartDate = &now

		if err := s.loanRepo.Save(ctx, loan); err != nil {
			return apperr.WrapDatabaseError(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, loan.BorrowerID)
	s.events.Publish(ctx, events.LoanApproved, map[string]interface{}{
		"loan_id":     loan.ID,
		"borrower_id": loan.BorrowerID,
		"principal":   loan.PrincipalAmount,
	})

	return loan, nil
}

// RejectLoan rejects a pending loan. REJECTED is terminal; the record is kept
// for audit.
func (s *LendingService) RejectLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanStatusPending {
		return nil, apperr.WrapInvalidLoanState("only pending loans can be rejected")
	}

	loan.Status = domain.LoanStatusRejected
	if err := s.loanRepo.Save(ctx, loan); err != nil {
		return nil, apperr.WrapDatabaseError(err)
	}

	s.cache.Invalidate(ctx, loan.BorrowerID)
	s.events.Publish(ctx, events.LoanRejected, map[string]interface{}{
		"loan_id":     loan.ID,
		"borrower_id": loan.BorrowerID,
	})

	return loan, nil
}

// GetLoanDetails returns a borrower's loan with its repayment history.
// Ownership mismatches surface as not-found so loan IDs cannot be probed.
func (s *LendingService) GetLoanDetails(ctx context.Context, loanID uuid.UUID, borrowerID string) (*domain.Loan, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.BorrowerID != borrowerID {
		return nil, apperr.WrapLoanNotFound(loanID.String())
	}
	return loan, nil
}

// GetLoansForBorrower lists a borrower's loans, reading through the cache.
func (s *LendingService) GetLoansForBorrower(ctx context.Context, borrowerID string) ([]*domain.Loan, error) {
	if loans, ok := s.cache.Get(ctx, borrowerID); ok {
		return loans, nil
	}

	loans, err := s.loanRepo.GetByBorrower(ctx, borrowerID)
	if err != nil {
		return nil, apperr.WrapDatabaseError(err)
	}

	s.cache.Set(ctx, borrowerID, loans)
	return loans, nil
}

// GetDueBills lists the next installment for each disbursed, unsettled loan.
// Informational only: due dates never gate payments.
func (s *LendingService) GetDueBills(ctx context.Context, borrowerID string) ([]*domain.DueBill, error) {
	loans, err := s.loanRepo.GetByBorrower(ctx, borrowerID)
	if err != nil {
		return nil, apperr.WrapDatabaseError(err)
	}

	now := s.now()
	bills := make([]*domain.DueBill, 0, len(loans))
	for _, loan := range loans {
		if loan.Status != domain.LoanStatusActive && loan.Status != domain.LoanStatusDefaulted {
			continue
		}
		dueDate, ok := loan.NextDueDate()
		if !ok {
			continue
		}

		status := domain.DueBillPending
		if dueDate.Before(now) {
			status = domain.DueBillOverdue
		}

		bills = append(bills, &domain.DueBill{
			LoanID:      loan.ID,
			LoanType:    loan.LoanType,
			EMIAmount:   loan.EMIAmount,
			NextDueDate: dueDate,
			Status:      status,
		})
	}

	return bills, nil
}

// PayEMI applies one installment to a loan. The interest component is
// computed from the remaining principal before this payment's reduction;
// that ordering is load-bearing for amortization correctness.
func (s *LendingService) PayEMI(ctx context.Context, loanID uuid.UUID, borrowerID string) (*domain.Loan, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.BorrowerID != borrowerID {
		return nil, apperr.WrapLoanNotFound(loanID.String())
	}
	switch loan.Status {
	case domain.LoanStatusClosed:
		return nil, apperr.WrapInvalidLoanState("loan already closed")
	case domain.LoanStatusRejected:
		return nil, apperr.WrapInvalidLoanState("loan was rejected and never disbursed")
	case domain.LoanStatusPending:
		return nil, apperr.WrapInvalidLoanState("loan has not been disbursed yet")
	}

	now := s.now().UTC()
	var repayment *domain.Repayment

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		account, err := s.selectFundingAccount(ctx, borrowerID, loan.EMIAmount, emiFundingOrder)
		if err != nil {
			return err
		}

		interest, principalPart := emi.SplitInstallment(loan.EMIAmount, loan.RemainingPrincipal, loan.InterestRate)

		remaining := loan.RemainingPrincipal.Sub(principalPart)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		remaining = remaining.Round(2)

		loan.RemainingPrincipal = remaining
		loan.PaidEMICount++
		if remaining.LessThanOrEqual(s.config.GetClosureTolerance()) {
			loan.Status = domain.LoanStatusClosed
			loan.RemainingPrincipal = decimal.Zero
		}

		repayment = &domain.Repayment{
			ID:                      uuid.New(),
			LoanID:                  loan.ID,
			Amount:                  loan.EMIAmount,
			InterestComponent:       interest.Round(2),
			PrincipalComponent:      principalPart.Round(2),
			RemainingPrincipalAfter: loan.RemainingPrincipal,
			PaidAt:                  now,
		}

		if err := s.loanRepo.Save(ctx, loan); err != nil {
			return apperr.WrapDatabaseError(err)
		}
		if err := s.loanRepo.AppendRepayment(ctx, repayment); err != nil {
			return apperr.WrapDatabaseError(err)
		}

		if _, err := s.accountRepo.AdjustBalance(ctx, account.ID, loan.EMIAmount.Neg()); err != nil {
			if errors.Is(err, apperr.ErrInsufficientBalance) {
				return apperr.WrapInsufficientBalance(loan.EMIAmount.String(), account.Balance.String())
			}
			return apperr.WrapDatabaseError(err)
		}

		if _, err := s.txnRepo.Record(ctx, &domain.Transaction{
			ID:          uuid.New(),
			OwnerID:     borrowerID,
			AccountID:   account.ID,
			Amount:      loan.EMIAmount,
			Direction:   domain.TransactionDebit,
			Category:    domain.CategoryEMIPayment,
			Description: fmt.Sprintf("EMI %d for loan %s", loan.PaidEMICount, loan.ID),
			CreatedAt:   now,
		}); err != nil {
			return apperr.WrapDatabaseError(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	loan.Repayments = append(loan.Repayments, repayment)

	s.cache.Invalidate(ctx, borrowerID)
	s.events.Publish(ctx, events.EMIPaid, map[string]interface{}{
		"loan_id":             loan.ID,
		"borrower_id":         borrowerID,
		"status":              loan.Status,
		"remaining_principal": loan.RemainingPrincipal,
	})

	return loan, nil
}

// PreCloseLoan settles a loan early: remaining principal plus the pre-closure
// penalty is debited in one shot and the loan closes.
func (s *LendingService) PreCloseLoan(ctx context.Context, loanID uuid.UUID, borrowerID string) (*domain.PreCloseResponse, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.BorrowerID != borrowerID {
		return nil, apperr.WrapLoanNotFound(loanID.String())
	}
	switch loan.Status {
	case domain.LoanStatusClosed:
		return nil, apperr.WrapInvalidLoanState("loan already closed")
	case domain.LoanStatusRejected:
		return nil, apperr.WrapInvalidLoanState("loan was rejected and never disbursed")
	case domain.LoanStatusPending:
		return nil, apperr.WrapInvalidLoanState("loan has not been disbursed yet")
	}

	penalty := loan.PreclosurePenaltyPercent.Div(hundred).Mul(loan.RemainingPrincipal).Round(2)
	totalPayable := loan.RemainingPrincipal.Add(penalty).Round(2)
	now := s.now().UTC()

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		account, err := s.selectFundingAccount(ctx, borrowerID, totalPayable, precloseFundingOrder)
		if err != nil {
			return err
		}

		loan.Status = domain.LoanStatusClosed
		loan.RemainingPrincipal = decimal.Zero

		if err := s.loanRepo.Save(ctx, loan); err != nil {
			return apperr.WrapDatabaseError(err)
		}

		if _, err := s.accountRepo.AdjustBalance(ctx, account.ID, totalPayable.Neg()); err != nil {
			if errors.Is(err, apperr.ErrInsufficientBalance) {
				return apperr.WrapInsufficientBalance(totalPayable.String(), account.Balance.String())
			}
			return apperr.WrapDatabaseError(err)
		}

		if _, err := s.txnRepo.Record(ctx, &domain.Transaction{
			ID:          uuid.New(),
			OwnerID:     borrowerID,
			AccountID:   account.ID,
			Amount:      totalPayable,
			Direction:   domain.TransactionDebit,
			Category:    domain.CategoryLoanPreclosure,
			Description: fmt.Sprintf("Pre-closure of loan %s (penalty %s)", loan.ID, penalty),
			CreatedAt:   now,
		}); err != nil {
			return apperr.WrapDatabaseError(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, borrowerID)
	s.events.Publish(ctx, events.LoanPreclosed, map[string]interface{}{
		"loan_id":       loan.ID,
		"borrower_id":   borrowerID,
		"total_payable": totalPayable,
		"penalty":       penalty,
	})

	return &domain.PreCloseResponse{Loan: loan, TotalPayable: totalPayable, Penalty: penalty}, nil
}

// MarkOverdueLoansDefaulted flags ACTIVE loans whose count of elapsed but
// unpaid installments has reached the configured threshold. Returns the
// number of loans defaulted. DEFAULTED loans still accept payments.
func (s *LendingService) MarkOverdueLoansDefaulted(ctx context.Context) (int, error) {
	loans, err := s.loanRepo.ListActive(ctx)
	if err != nil {
		return 0, apperr.WrapDatabaseError(err)
	}

	now := s.now()
	defaulted := 0
	for _, loan := range loans {
		if loan.StartDate == nil {
			continue
		}

		missed := monthsBetween(*loan.StartDate, now) - loan.PaidEMICount
		if missed < s.config.Business.DefaultThresholdMonths {
			continue
		}

		loan.Status = domain.LoanStatusDefaulted
		if err := s.loanRepo.Save(ctx, loan); err != nil {
			s.logger.Error("failed to mark loan defaulted", zap.String("loan_id", loan.ID.String()), zap.Error(err))
			continue
		}

		s.cache.Invalidate(ctx, loan.BorrowerID)
		s.events.Publish(ctx, events.LoanDefaulted, map[string]interface{}{
			"loan_id":             loan.ID,
			"borrower_id":         loan.BorrowerID,
			"missed_installments": missed,
		})
		defaulted++
	}

	return defaulted, nil
}

func (s *LendingService) getLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.WrapLoanNotFound(loanID.String())
		}
		return nil, apperr.WrapDatabaseError(err)
	}
	return loan, nil
}

// selectFundingAccount walks the preference order and returns the first
// account whose balance covers the required amount. If no account of any
// preferred type exists the failure is AccountNotFound; if accounts exist but
// none can cover the amount it is InsufficientBalance.
func (s *LendingService) selectFundingAccount(
	ctx context.Context,
	borrowerID string,
	required decimal.Decimal,
	order []domain.AccountType,
) (*domain.Account, error) {
	var firstExisting *domain.Account

	for _, accountType := range order {
		account, err := s.accountRepo.GetByOwnerAndType(ctx, borrowerID, accountType)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, apperr.WrapDatabaseError(err)
		}

		if account.Balance.GreaterThanOrEqual(required) {
			return account, nil
		}
		if firstExisting == nil {
			firstExisting = account
		}
	}

	if firstExisting == nil {
		return nil, apperr.WrapAccountNotFound(borrowerID)
	}
	return nil, apperr.WrapInsufficientBalance(required.String(), firstExisting.Balance.String())
}

// monthsBetween counts whole months elapsed from start to now.
func monthsBetween(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	months := (now.Year()-start.Year())*12 + int(now.Month()) - int(start.Month())
	if now.Day() < start.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
