// Package jobs runs periodic background maintenance.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/metrics"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/service"
)

type OverviewSource interface {
	ComputeOverview(ctx context.Context) (*service.Overview, error)
}

// Cleaner drops idle per-caller state, returning how many items were removed.
type Cleaner interface {
	Cleanup() int
}

type Scheduler struct {
	cron     *cron.Cron
	overview OverviewSource
	cleaner  Cleaner
	logger   internal.Logger
	spec     string
	timeout  time.Duration
}

// NewScheduler builds a scheduler; cleaner may be nil.
func NewScheduler(spec string, overview OverviewSource, cleaner Cleaner, logger internal.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		overview: overview,
		cleaner:  cleaner,
		logger:   logger,
		spec:     spec,
		timeout:  time.Minute,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RefreshOverview); err != nil {
		return fmt.Errorf("failed to add overview job: %w", err)
	}
	if s.cleaner != nil {
		if _, err := s.cron.AddFunc(s.spec, s.CleanupLimiters); err != nil {
			return fmt.Errorf("failed to add cleanup job: %w", err)
		}
	}
	s.cron.Start()
	s.logger.Infof("background jobs started (%s)", s.spec)
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("background jobs stopped")
}

// RefreshOverview recomputes the admin overview and publishes it as gauges.
func (s *Scheduler) RefreshOverview() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	ov, err := s.overview.ComputeOverview(ctx)
	if err != nil {
		s.logger.Errorf("overview refresh failed: %v", err)
		return
	}
	metrics.SetOverview(ov.ActiveUsers, ov.Mood.TotalEntries, ov.Sleep.TotalEntries)
	s.logger.Debugf("overview refreshed: %d active users", ov.ActiveUsers)
}

func (s *Scheduler) CleanupLimiters() {
	if n := s.cleaner.Cleanup(); n > 0 {
		s.logger.Debugf("dropped %d idle rate limiters", n)
	}
}
