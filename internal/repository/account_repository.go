package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/corebank/lending-engine/internal/domain"
	apperr "github.com/corebank/lending-engine/pkg/errors"
)

type accountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, owner_id, type, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := queryer(ctx, r.db).ExecContext(ctx, query,
		account.ID,
		account.OwnerID,
		account.Type,
		account.Balance,
		account.CreatedAt,
		account.UpdatedAt,
	)

	return err
}

func (r *accountRepository) GetByOwnerAndType(ctx context.Context, ownerID string, accountType domain.AccountType) (*domain.Account, error) {
	query := `
		SELECT id, owner_id, type, balance, created_at, updated_at
		FROM accounts
		WHERE owner_id = $1 AND type = $2
	`

	var account domain.Account
	if err := sqlx.GetContext(ctx, queryer(ctx, r.db), &account, query, ownerID, accountType); err != nil {
		return nil, err
	}

	return &account, nil
}

// AdjustBalance applies the delta in one guarded UPDATE so concurrent
// adjustments on the same account serialize at the row and a debit can never
// overdraw.
func (r *accountRepository) AdjustBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (*domain.Account, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $2, updated_at = $3
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING id, owner_id, type, balance, created_at, updated_at
	`

	var account domain.Account
	err := sqlx.GetContext(ctx, queryer(ctx, r.db), &account, query, accountID, delta, time.Now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		// Either the account vanished or the debit would overdraw; callers
		// have already resolved the account, so report the balance.
		return nil, apperr.ErrInsufficientBalance
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}
