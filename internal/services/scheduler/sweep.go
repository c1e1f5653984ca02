package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/interfaces"
)

// Sweeper periodically walks active jobs and alerts on qualified users
// that were never notified. It is a watchdog only: it never sends
// notifications itself.
type Sweeper struct {
	config  *common.SweepConfig
	jobs    interfaces.JobStorage
	quals   interfaces.QualificationStorage
	alerter interfaces.Alerter
	cron    *cron.Cron
	logger  arbor.ILogger
	mu      sync.Mutex
	running bool
}

// NewSweeper creates the backlog sweeper.
func NewSweeper(cfg *common.SweepConfig, jobs interfaces.JobStorage, quals interfaces.QualificationStorage, alerter interfaces.Alerter, logger arbor.ILogger) *Sweeper {
	return &Sweeper{
		config:  cfg,
		jobs:    jobs,
		quals:   quals,
		alerter: alerter,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start registers the cron entry and begins sweeping. Disabled config is
// a silent no-op so callers can wire the sweeper unconditionally.
func (s *Sweeper) Start() error {
	if !s.config.Enabled {
		s.logger.Debug().Msg("Backlog sweeper disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("sweeper already running")
	}

	schedule := s.config.Schedule
	if schedule == "" {
		schedule = "*/15 * * * *"
	}

	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return fmt.Errorf("failed to register sweep schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info().Str("schedule", schedule).Msg("Backlog sweeper started")
	return nil
}

// Stop halts the cron scheduler and waits for an in-flight sweep.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Debug().Msg("Backlog sweeper stopped")
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	jobs, err := s.jobs.ListActiveJobs(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Backlog sweep failed to list active jobs")
		return
	}

	flagged := 0
	for _, job := range jobs {
		pending, err := s.quals.GetPending(ctx, job.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Backlog sweep failed to read pending rows")
			continue
		}
		if len(pending) > 0 {
			s.alerter.PendingBacklog(job.ID, len(pending))
			flagged++
		}
	}

	s.logger.Debug().
		Int("active_jobs", len(jobs)).
		Int("flagged", flagged).
		Dur("duration", time.Since(start)).
		Msg("Backlog sweep completed")
}
