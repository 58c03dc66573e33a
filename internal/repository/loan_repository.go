package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/corebank/lending-engine/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (id, borrower_id, loan_type, principal_amount, interest_rate, tenure_months,
			emi_amount, total_interest_payable, total_payable_amount, remaining_principal,
			paid_emi_count, status, preclosure_penalty_percent, collateral_details, start_date,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := queryer(ctx, r.db).ExecContext(ctx, query,
		loan.ID,
		loan.BorrowerID,
		loan.LoanType,
		loan.PrincipalAmount,
		loan.InterestRate,
		loan.TenureMonths,
		loan.EMIAmount,
		loan.TotalInterestPayable,
		loan.TotalPayableAmount,
		loan.RemainingPrincipal,
		loan.PaidEMICount,
		loan.Status,
		loan.PreclosurePenaltyPercent,
		loan.CollateralDetails,
		loan.StartDate,
		loan.CreatedAt,
		loan.UpdatedAt,
	)

	return err
}

const loanColumns = `
	id, borrower_id, loan_type, principal_amount, interest_rate, tenure_months,
	emi_amount, total_interest_payable, total_payable_amount, remaining_principal,
	paid_emi_count, status, preclosure_penalty_percent, collateral_details, start_date,
	created_at, updated_at
`

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var loan domain.Loan
	if err := sqlx.GetContext(ctx, queryer(ctx, r.db), &loan, query, id); err != nil {
		return nil, err
	}

	repayments, err := r.getRepayments(ctx, id)
	if err != nil {
		return nil, err
	}
	loan.Repayments = repayments

	return &loan, nil
}

func (r *loanRepository) GetByBorrower(ctx context.Context, borrowerID string) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE borrower_id = $1 ORDER BY created_at DESC`

	var loans []*domain.Loan
	if err := sqlx.SelectContext(ctx, queryer(ctx, r.db), &loans, query, borrowerID); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) Save(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET remaining_principal = $2, paid_emi_count = $3, status = $4, start_date = $5, updated_at = $6
		WHERE id = $1
	`

	loan.UpdatedAt = time.Now().UTC()

	_, err := queryer(ctx, r.db).ExecContext(ctx, query,
		loan.ID,
		loan.RemainingPrincipal,
		loan.PaidEMICount,
		loan.Status,
		loan.StartDate,
		loan.UpdatedAt,
	)

	return err
}

func (r *loanRepository) AppendRepayment(ctx context.Context, repayment *domain.Repayment) error {
	query := `
		INSERT INTO loan_repayments (id, loan_id, amount, interest_component, principal_component,
			remaining_principal_after, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := queryer(ctx, r.db).ExecContext(ctx, query,
		repayment.ID,
		repayment.LoanID,
		repayment.Amount,
		repayment.InterestComponent,
		repayment.PrincipalComponent,
		repayment.RemainingPrincipalAfter,
		repayment.PaidAt,
	)

	return err
}

func (r *loanRepository) ListActive(ctx context.Context) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE status = $1 ORDER BY created_at`

	var loans []*domain.Loan
	if err := sqlx.SelectContext(ctx, queryer(ctx, r.db), &loans, query, domain.LoanStatusActive); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) getRepayments(ctx context.Context, loanID uuid.UUID) ([]*domain.Repayment, error) {
	query := `
		SELECT id, loan_id, amount, interest_component, principal_component, remaining_principal_after, paid_at
		FROM loan_repayments
		WHERE loan_id = $1
		ORDER BY paid_at
	`

	var repayments []*domain.Repayment
	if err := sqlx.SelectContext(ctx, queryer(ctx, r.db), &repayments, query, loanID); err != nil {
		return nil, err
	}

	return repayments, nil
}
