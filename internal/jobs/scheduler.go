package job

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron"

	config "github.com/postpilothq/postpilot/configs"
)

// Scheduler owns the recurring background duties: the publish sweep, the
// token refresh scan and the analytics snapshot. Start and Stop are safe to
// call from any goroutine; registered jobs keep running between them.
type Scheduler struct {
	cfg       config.Scheduler
	sweep     *PublishSweepJob
	refresh   *TokenRefreshJob
	analytics *AnalyticsSnapshotJob

	mu      sync.Mutex
	c       *cron.Cron
	started bool
}

func NewScheduler(
	cfg config.Scheduler,
	sweep *PublishSweepJob,
	refresh *TokenRefreshJob,
	analytics *AnalyticsSnapshotJob) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		sweep:     sweep,
		refresh:   refresh,
		analytics: analytics,
	}
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("scheduler is already running")
	}

	c := cron.New()

	if err := c.AddFunc(every(s.cfg.SweepInterval), s.sweep.Run); err != nil {
		return fmt.Errorf("error scheduling publish sweep: %w", err)
	}
	if err := c.AddFunc(every(s.cfg.RefreshInterval), s.refresh.Run); err != nil {
		return fmt.Errorf("error scheduling token refresh: %w", err)
	}
	if s.analytics != nil {
		if err := c.AddFunc(every(s.cfg.AnalyticsInterval), s.analytics.Run); err != nil {
			return fmt.Errorf("error scheduling analytics snapshot: %w", err)
		}
	}

	c.Start()
	s.c = c
	s.started = true

	slog.Info("scheduler started",
		"sweep_interval", s.cfg.SweepInterval.String(),
		"refresh_interval", s.cfg.RefreshInterval.String())
	return nil
}

// Stop halts scheduling of new runs. Runs already in flight finish on their
// own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.c.Stop()
	s.c = nil
	s.started = false
	slog.Info("scheduler stopped")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func every(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}
