package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Job is a periodic maintenance task, currently event retention. Run must
// respect ctx: jobs execute under a per-job deadline so a stuck DELETE on
// a large events table cannot occupy the scheduler slot forever.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs maintenance jobs on standard 5-field cron specs. A tick
// that fires while the previous run of the same job is still going is
// dropped, not queued.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func NewScheduler() *Scheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &Scheduler{cron: cron.New(cron.WithParser(parser))}
}

func (s *Scheduler) AddJob(job Job, spec string, timeout time.Duration) error {
	logger := logutil.GetLogger(context.Background()).With(
		zap.String("job", job.Name()),
		zap.String("spec", spec),
		zap.Duration("timeout", timeout),
	)
	if _, err := s.cron.AddFunc(spec, s.run(job, timeout)); err != nil {
		logger.Error("bad cron spec", zap.Error(err))
		return fmt.Errorf("schedule %s: %w", job.Name(), err)
	}
	logger.Info("maintenance job scheduled")
	return nil
}

// Start begins firing ticks. ctx is the server lifetime; job runs derive
// their deadlines from it, so server shutdown also cancels a running job.
func (s *Scheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx = ctx
	s.cron.Start()
}

// Stop halts ticking and waits for an in-flight job to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run(job Job, timeout time.Duration) func() {
	var busy atomic.Bool
	return func() {
		if !busy.CompareAndSwap(false, true) {
			logutil.GetLogger(context.Background()).Warn("maintenance job still running, tick dropped",
				zap.String("job", job.Name()))
			return
		}
		defer busy.Store(false)

		base := s.ctx
		if base == nil {
			base = context.Background()
		}
		ctx := base
		cancel := func() {}
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(base, timeout)
		}
		defer cancel()

		logger := logutil.GetLogger(ctx).With(zap.String("job", job.Name()))
		start := time.Now()
		err := job.Run(ctx)
		if err != nil {
			logger.Error("maintenance job failed", zap.Error(err), zap.Duration("took", time.Since(start)))
			return
		}
		logger.Info("maintenance job done", zap.Duration("took", time.Since(start)))
	}
}
