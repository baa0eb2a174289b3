package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/pricecheck/internal/config"
)

// Sweeper drops sessions that have been idle for longer than ttl.
type Sweeper interface {
	SweepIdle(ttl time.Duration) int
}

// Scheduler runs periodic housekeeping.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	cfg     config.SessionConfig
	logger  *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.SessionConfig, sweeper Sweeper, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Standard 5-field parser; descriptors such as "@every 5m" are accepted too.
	c := cron.New()

	return &Scheduler{
		cron:    c,
		sweeper: sweeper,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("sweep_schedule", s.cfg.SweepSchedule))

	if _, err := s.cron.AddFunc(s.cfg.SweepSchedule, s.sweepIdleSessions); err != nil {
		return fmt.Errorf("schedule session sweep %q: %w", s.cfg.SweepSchedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweepIdleSessions() {
	removed := s.sweeper.SweepIdle(s.cfg.IdleTTL)
	if removed > 0 {
		s.logger.Info("idle sessions swept", zap.Int("removed", removed), zap.Duration("idle_ttl", s.cfg.IdleTTL))
	}
}
