// Package cache holds the borrower loan-list cache. The cache is a
// read-through accelerant only: every failure here is logged and swallowed,
// the primary store stays the source of truth.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/corebank/lending-engine/internal/domain"
)

// LoanCache caches a borrower's loan list.
type LoanCache interface {
	Get(ctx context.Context, borrowerID string) ([]*domain.Loan, bool)
	Set(ctx context.Context, borrowerID string, loans []*domain.Loan)
	Invalidate(ctx context.Context, borrowerID string)
}

type redisLoanCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewLoanCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) LoanCache {
	return &redisLoanCache{client: client, ttl: ttl, logger: logger}
}

func loanListKey(borrowerID string) string {
	return fmt.Sprintf("loans:borrower:%s", borrowerID)
}

func (c *redisLoanCache) Get(ctx context.Context, borrowerID string) ([]*domain.Loan, bool) {
	raw, err := c.client.Get(ctx, loanListKey(borrowerID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("loan cache read failed", zap.String("borrower_id", borrowerID), zap.Error(err))
		}
		return nil, false
	}

	var loans []*domain.Loan
	if err := json.Unmarshal(raw, &loans); err != nil {
		c.logger.Warn("loan cache entry corrupt", zap.String("borrower_id", borrowerID), zap.Error(err))
		return nil, false
	}

	return loans, true
}

func (c *redisLoanCache) Set(ctx context.Context, borrowerID string, loans []*domain.Loan) {
	raw, err := json.Marshal(loans)
	if err != nil {
		c.logger.Warn("loan cache encode failed", zap.String("borrower_id", borrowerID), zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, loanListKey(borrowerID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("loan cache write failed", zap.String("borrower_id", borrowerID), zap.Error(err))
	}
}

func (c *redisLoanCache) Invalidate(ctx context.Context, borrowerID string) {
	if err := c.client.Del(ctx, loanListKey(borrowerID)).Err(); err != nil {
		c.logger.Warn("loan cache invalidation failed", zap.String("borrower_id", borrowerID), zap.Error(err))
	}
}
