package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/models"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/scheduler"
)

type countingRunner struct {
	ran chan struct{}
}

func (c *countingRunner) Run(ctx context.Context, overrides *models.ProcessOverrides) (*models.RunReport, error) {
	select {
	case c.ran <- struct{}{}:
	default:
	}
	return &models.RunReport{RunID: "run"}, nil
}

func TestScheduler_RunsOnInterval(t *testing.T) {
	runner := &countingRunner{ran: make(chan struct{}, 1)}
	sched := scheduler.New(runner, 10*time.Millisecond, zap.NewNop())

	sched.Start(context.Background())
	defer sched.Stop()

	select {
	case <-runner.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not trigger a run")
	}
}

func TestScheduler_StopPreventsFurtherRuns(t *testing.T) {
	runner := &countingRunner{ran: make(chan struct{}, 1)}
	sched := scheduler.New(runner, time.Hour, zap.NewNop())

	sched.Start(context.Background())
	sched.Stop()

	select {
	case <-runner.ran:
		t.Fatal("run fired after stop with an hour-long interval")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	sched := scheduler.New(&countingRunner{ran: make(chan struct{}, 1)}, time.Hour, zap.NewNop())
	sched.Start(context.Background())

	sched.Stop()
	assert.NotPanics(t, func() { sched.Stop() })
}
