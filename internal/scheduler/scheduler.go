// Package scheduler triggers batch runs on a fixed interval, standing in
// for the platform cron that drives the production deployment.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/models"
)

// Runner is the batch entry point the scheduler drives. Scheduled runs use
// the configured defaults, never overrides.
type Runner interface {
	Run(ctx context.Context, overrides *models.ProcessOverrides) (*models.RunReport, error)
}

type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func New(runner Runner, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the tick loop. The first run happens after one full
// interval, not at startup, so a restart loop cannot hammer the upstream
// APIs.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			report, err := s.runner.Run(ctx, nil)
			if err != nil {
				s.logger.Error("scheduled run failed", zap.Error(err))
				continue
			}
			s.logger.Info("scheduled run finished",
				zap.String("runId", report.RunID),
				zap.Int("recordsFound", report.RecordsFound),
				zap.Int("success", report.SuccessCount),
				zap.Int("errors", report.ErrorCount))
		}
	}
}

// Stop halts the tick loop and waits for it to exit. A run already in
// flight finishes on its own.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
	s.logger.Info("scheduler stopped")
}
