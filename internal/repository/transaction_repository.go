package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/corebank/lending-engine/internal/domain"
)

type transactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Record(ctx context.Context, transaction *domain.Transaction) (uuid.UUID, error) {
	query := `
		INSERT INTO transactions (id, owner_id, account_id, amount, direction, category, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := queryer(ctx, r.db).ExecContext(ctx, query,
		transaction.ID,
		transaction.OwnerID,
		transaction.AccountID,
		transaction.Amount,
		transaction.Direction,
		transaction.Category,
		transaction.Description,
		transaction.CreatedAt,
	)
	if err != nil {
		return uuid.Nil, err
	}

	return transaction.ID, nil
}
