package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Refresher is implemented by dashboard.Controller.
type Refresher interface {
	Refresh() bool
}

// Scheduler periodically refreshes the dashboard's held bundle.
type Scheduler struct {
	scheduler *gocron.Scheduler
	target    Refresher
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler. An interval of zero or less disables it.
func New(target Refresher, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		target:    target,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("scheduler: auto refresh disabled")
		return nil
	}

	// the first tick waits a full interval; startup has nothing to refresh yet
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.tick)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler: auto refresh enabled", "interval", s.interval)
	return nil
}

func (s *Scheduler) tick() {
	if !s.target.Refresh() {
		s.logger.Debug("scheduler: nothing to refresh")
		return
	}
	s.logger.Debug("scheduler: refresh started")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
