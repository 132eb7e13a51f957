package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler triggers one sync pass per interval and owns the contain-and-log
// boundary around it: a failed or panicking pass is reported and the next tick
// still fires. Passes run synchronously, so triggers never overlap; ticks that
// land while a pass is still running are dropped by the ticker.
type Scheduler struct {
	svc      *Service
	interval time.Duration
	logger   *zap.Logger
}

func NewScheduler(svc *Service, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{svc: svc, interval: interval, logger: logger}
}

// Run executes a first pass immediately, then one per interval until the
// context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped", zap.Error(ctx.Err()))
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sync pass panicked", zap.Any("panic", r))
		}
	}()

	started := time.Now()
	sum := s.svc.Sync(ctx)
	if sum.Failed() {
		s.logger.Warn("sync pass failed",
			zap.Strings("failedCategories", sum.FailedCategories),
			zap.Duration("took", time.Since(started)))
		return
	}
	s.logger.Info("sync pass succeeded", zap.Duration("took", time.Since(started)))
}
