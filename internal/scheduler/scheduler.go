// Package scheduler enqueues the periodic alert cycle and the daily balance
// snapshot onto the job queue.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/trogers1052/portfolio-valuation/internal/market"
)

// AlertEnqueuer starts one alert evaluation cycle
type AlertEnqueuer interface {
	EnqueuePending(ctx context.Context, now time.Time) (int, error)
}

// SnapshotPublisher requests a daily balance snapshot
type SnapshotPublisher interface {
	PublishSnapshotDailyBalances(ctx context.Context, portfolioIDs []string) (string, error)
}

// Config configures a Scheduler
type Config struct {
	AlertInterval  time.Duration
	SnapshotHour   int // New York time
	SnapshotMinute int
}

// Scheduler runs the cron-style triggers. It is not safe for concurrent
// Tick calls; Run owns it.
type Scheduler struct {
	alerts    AlertEnqueuer
	snapshots SnapshotPublisher
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time

	lastAlertCycle   time.Time
	lastSnapshotDate time.Time
}

// New creates a new Scheduler
func New(alerts AlertEnqueuer, snapshots SnapshotPublisher, cfg Config, logger *zap.Logger) *Scheduler {
	if cfg.AlertInterval <= 0 {
		cfg.AlertInterval = 5 * time.Minute
	}
	return &Scheduler{
		alerts:    alerts,
		snapshots: snapshots,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Run ticks once immediately, then every resolution until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	resolution := min(s.cfg.AlertInterval, time.Minute)
	ticker := time.NewTicker(resolution)
	defer ticker.Stop()

	s.logger.Info("Scheduler started",
		zap.Duration("alert_interval", s.cfg.AlertInterval),
		zap.Int("snapshot_hour", s.cfg.SnapshotHour),
		zap.Int("snapshot_minute", s.cfg.SnapshotMinute),
	)

	s.Tick(ctx, s.now())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx, s.now())
		}
	}
}

// Tick fires whatever is due at now
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	if s.lastAlertCycle.IsZero() || now.Sub(s.lastAlertCycle) >= s.cfg.AlertInterval {
		if _, err := s.alerts.EnqueuePending(ctx, now); err != nil {
			s.logger.Error("Failed to enqueue alert cycle", zap.Error(err))
		} else {
			s.lastAlertCycle = now
		}
	}

	if s.snapshotDue(now) {
		jobID, err := s.snapshots.PublishSnapshotDailyBalances(ctx, nil)
		if err != nil {
			s.logger.Error("Failed to enqueue daily snapshot", zap.Error(err))
			return
		}
		s.lastSnapshotDate = market.TradingDate(now)
		s.logger.Info("Daily snapshot enqueued",
			zap.String("job_id", jobID),
			zap.Time("trading_date", s.lastSnapshotDate),
		)
	}
}

// snapshotDue reports whether now is past the snapshot time on a weekday
// that has not been snapshotted yet
func (s *Scheduler) snapshotDue(now time.Time) bool {
	ny := now.In(market.Location())
	switch ny.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	hour, minute, _ := ny.Clock()
	if hour*60+minute < s.cfg.SnapshotHour*60+s.cfg.SnapshotMinute {
		return false
	}
	return !s.lastSnapshotDate.Equal(market.TradingDate(now))
}
