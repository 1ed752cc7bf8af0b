// Package scheduler runs periodic housekeeping for the in-memory caches.
package scheduler

import (
	"fmt"

	"finance-dashboard/observability"

	"github.com/robfig/cron/v3"
)

// Sweeper drops expired entries and reports how many went
type Sweeper interface {
	Sweep() int
}

// Reloader drops cached files so the next read goes to disk
type Reloader interface {
	Reload() int
}

// Specs are six-field cron expressions (with seconds). Empty specs skip the job.
type Specs struct {
	CacheSweep   string
	SessionSweep string
	NewsReload   string
}

// Scheduler manages all cron tasks
type Scheduler struct {
	Cron     *cron.Cron
	Cache    Sweeper
	Sessions Sweeper
	News     Reloader
}

// NewScheduler creates a new Scheduler. Nil collaborators are skipped at registration.
func NewScheduler(cache, sessions Sweeper, news Reloader) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Cache:    cache,
		Sessions: sessions,
		News:     news,
	}
}

// RegisterAll registers the sweep and reload jobs
func (s *Scheduler) RegisterAll(specs Specs) error {
	if s.Cache != nil && specs.CacheSweep != "" {
		if _, err := s.Cron.AddFunc(specs.CacheSweep, s.SweepCache); err != nil {
			return fmt.Errorf("register cache sweep: %w", err)
		}
	}
	if s.Sessions != nil && specs.SessionSweep != "" {
		if _, err := s.Cron.AddFunc(specs.SessionSweep, s.SweepSessions); err != nil {
			return fmt.Errorf("register session sweep: %w", err)
		}
	}
	if s.News != nil && specs.NewsReload != "" {
		if _, err := s.Cron.AddFunc(specs.NewsReload, s.ReloadNews); err != nil {
			return fmt.Errorf("register news reload: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.Cron.Start()
	observability.Info("scheduler started", "jobs", len(s.Cron.Entries()))
}

// Stop stops the cron scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	observability.Info("scheduler stopped")
}

// SweepCache drops expired market data
func (s *Scheduler) SweepCache() {
	if n := s.Cache.Sweep(); n > 0 {
		observability.Debug("market cache swept", "removed", n)
	}
}

// SweepSessions drops idle chart sessions
func (s *Scheduler) SweepSessions() {
	n := s.Sessions.Sweep()
	if counter, ok := s.Sessions.(interface{ Len() int }); ok {
		observability.GetMetrics().SetChartSessions(counter.Len())
	}
	if n > 0 {
		observability.Debug("chart sessions expired", "removed", n)
	}
}

// ReloadNews clears the parsed news cache
func (s *Scheduler) ReloadNews() {
	n := s.News.Reload()
	observability.Debug("news cache cleared", "files", n)
}
