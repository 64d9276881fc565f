package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/username/compartmentdesk/backend/src/logger"
)

// Scheduler triggers the jobs of a Schedule through cron.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
	ctx    context.Context
	now    func() time.Time
}

func NewScheduler(ctx context.Context, runner *Runner) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		runner: runner,
		ctx:    ctx,
		now:    time.Now,
	}
}

// Register adds every enabled entry of s. Unknown job names and bad cron specs
// are errors.
func (s *Scheduler) Register(schedule *Schedule) error {
	for _, j := range schedule.Jobs {
		if j.Disabled {
			logger.L.Info("Job disabled in schedule", "job", j.Name)
			continue
		}
		if !s.runner.Has(j.Name) {
			return fmt.Errorf("register job: %w: %s", ErrUnknownJob, j.Name)
		}
		name := j.Name
		if _, err := s.cron.AddFunc(j.Cron, func() { s.trigger(name) }); err != nil {
			return fmt.Errorf("register job %s: %w", name, err)
		}
		logger.L.Info("Job scheduled", "job", name, "cron", j.Cron)
	}
	return nil
}

func (s *Scheduler) trigger(name string) {
	// Errors are logged and recorded by the runner.
	_, _ = s.runner.Run(s.ctx, name, s.now().UTC())
}

// Entries reports how many jobs are scheduled.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.L.Info("Job scheduler started", "jobs", s.Entries())
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.L.Info("Job scheduler stopped")
}
