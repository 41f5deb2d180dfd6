package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is the unit of scheduled work; the monitor service satisfies it.
type Job interface {
	Run(ctx context.Context)
}

// Scheduler fires the poll cycle on a cron spec. Each tick launches the job
// in its own goroutine; the job's own overlap guard decides whether a tick
// that lands mid-cycle does anything.
type Scheduler struct {
	cron   *cron.Cron
	job    Job
	spec   string
	logger *slog.Logger
}

func New(spec string, job Job, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		job:    job,
		spec:   spec,
		logger: logger,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.logger.Info("scheduled check triggered")
		go s.job.Run(context.Background())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
