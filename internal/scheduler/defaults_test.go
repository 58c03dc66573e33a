package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockDefaulter struct {
	mock.Mock
}

func (m *mockDefaulter) MarkOverdueLoansDefaulted(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestDefaultWatcher_Run(t *testing.T) {
	defaulter := &mockDefaulter{}
	defaulter.On("MarkOverdueLoansDefaulted", mock.Anything).Return(2, nil)

	watcher := NewDefaultWatcher(defaulter, zap.NewNop())
	watcher.Run()

	defaulter.AssertExpectations(t)
}

func TestDefaultWatcher_Run_SwallowsErrors(t *testing.T) {
	defaulter := &mockDefaulter{}
	defaulter.On("MarkOverdueLoansDefaulted", mock.Anything).Return(0, errors.New("database down"))

	watcher := NewDefaultWatcher(defaulter, zap.NewNop())
	watcher.Run() // must not panic; the next tick retries

	defaulter.AssertExpectations(t)
}
