package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/digital-bank-backend/internal/service/interest"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) Run(context.Context) (interest.RunResult, error) {
	r.calls.Add(1)
	return interest.RunResult{}, r.err
}

func TestScheduler_RejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&countingRunner{}, "every now and then", slog.Default())
	err := s.Start(context.Background())
	require.Error(t, err)
}

func TestScheduler_StartStop(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, "*/10 * * * *", slog.Default())
	require.NoError(t, s.Start(context.Background()))

	<-s.Stop().Done()
}

func TestScheduler_RunFailureIsLoggedNotFatal(t *testing.T) {
	runner := &countingRunner{err: errors.New("list failed")}
	s := NewScheduler(runner, "*/10 * * * *", slog.Default())

	s.runAccrual()
	s.runAccrual()

	assert.Equal(t, int32(2), runner.calls.Load())
}
