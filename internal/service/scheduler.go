package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/josh-kwaku/digital-bank-backend/internal/logging"
	"github.com/josh-kwaku/digital-bank-backend/internal/service/interest"
)

type accrualRunner interface {
	Run(ctx context.Context) (interest.RunResult, error)
}

// Scheduler triggers the interest accrual run on a cron schedule. A tick
// that is still running when the next one fires causes that tick to be
// skipped.
type Scheduler struct {
	cron     *cron.Cron
	accrual  accrualRunner
	schedule string
	logger   *slog.Logger
	ctx      context.Context
}

func NewScheduler(accrual accrualRunner, schedule string, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(logging.StdLogger(logger, slog.LevelInfo))
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))

	return &Scheduler{
		cron:     c,
		accrual:  accrual,
		schedule: schedule,
		logger:   logger,
		ctx:      context.Background(),
	}
}

// Start registers the accrual job and starts the cron loop. ctx is the
// parent of every run's context.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx
	if _, err := s.cron.AddFunc(s.schedule, s.runAccrual); err != nil {
		return fmt.Errorf("Scheduler.Start: schedule %q: %w", s.schedule, err)
	}
	s.logger.Info("scheduled interest accrual job", "schedule", s.schedule)
	s.cron.Start()
	return nil
}

// Stop halts new ticks. The returned context is done once a tick that was
// already running has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runAccrual() {
	if _, err := s.accrual.Run(s.ctx); err != nil {
		s.logger.Error("interest accrual run failed", "error", err)
	}
}
