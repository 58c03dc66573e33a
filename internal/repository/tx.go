package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

type sqlxTransactor struct {
	db *sqlx.DB
}

// NewTransactor creates a Transactor backed by sqlx transactions.
func NewTransactor(db *sqlx.DB) Transactor {
	return &sqlxTransactor{db: db}
}

// WithinTransaction begins a transaction, stashes it in the context and
// commits if fn returns nil. Nested calls join the existing transaction.
func (t *sqlxTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	return tx.Commit()
}

// queryer resolves the ambient transaction if one is in flight, otherwise the
// plain connection pool.
func queryer(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}
