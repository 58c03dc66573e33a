// Package scheduler holds the periodic jobs run by the scheduler binary.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Defaulter is the slice of the lending service the watcher needs.
type Defaulter interface {
	MarkOverdueLoansDefaulted(ctx context.Context) (int, error)
}

// DefaultWatcher sweeps active loans and flags the ones whose missed
// installment count crossed the default threshold.
type DefaultWatcher struct {
	service Defaulter
	logger  *zap.Logger
	timeout time.Duration
}

func NewDefaultWatcher(service Defaulter, logger *zap.Logger) *DefaultWatcher {
	return &DefaultWatcher{
		service: service,
		logger:  logger,
		timeout: 5 * time.Minute,
	}
}

// Run executes one sweep. Errors are logged, not returned: the next cron
// tick retries from scratch.
func (w *DefaultWatcher) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	defaulted, err := w.service.MarkOverdueLoansDefaulted(ctx)
	if err != nil {
		w.logger.Error("default sweep failed", zap.Error(err))
		return
	}

	w.logger.Info("default sweep finished", zap.Int("loans_defaulted", defaulted))
}
