// Package snapshot records one immutable daily balance per portfolio.
package snapshot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/trogers1052/portfolio-valuation/internal/market"
	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// DefaultConcurrency bounds how many portfolios are valued at once
const DefaultConcurrency = 4

// Summarizer values one portfolio
type Summarizer interface {
	Summarize(ctx context.Context, portfolioID string) (*models.PortfolioSummary, error)
}

// Store persists daily balances
type Store interface {
	ListPortfolioIDs(ctx context.Context) ([]string, error)
	AppendDailyBalance(ctx context.Context, b *models.DailyBalance) (bool, error)
}

// Report summarizes one snapshot run. Duplicates are portfolios that
// already had a balance for the trading date.
type Report struct {
	Total      int `json:"total"`
	Succeeded  int `json:"succeeded"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// Snapshotter writes daily balances
type Snapshotter struct {
	valuer      Summarizer
	store       Store
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

// New creates a new Snapshotter
func New(valuer Summarizer, store Store, concurrency int, logger *zap.Logger) *Snapshotter {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Snapshotter{
		valuer:      valuer,
		store:       store,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// HandleJob adapts Run to the job queue. Only a failure to list portfolios
// is returned, so the consumer retries that alone.
func (s *Snapshotter) HandleJob(ctx context.Context, job *models.Job) error {
	var ids []string
	if job.SnapshotDailyBalances != nil {
		ids = job.SnapshotDailyBalances.PortfolioIDs
	}
	report, err := s.Run(ctx, ids)
	if err != nil {
		return err
	}
	s.logger.Info("Daily balance snapshot finished",
		zap.String("job_id", job.ID),
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("failed", report.Failed),
	)
	return nil
}

// Run snapshots the given portfolios, or every portfolio when ids is empty.
// One portfolio failing never stops the others.
func (s *Snapshotter) Run(ctx context.Context, ids []string) (Report, error) {
	if len(ids) == 0 {
		all, err := s.store.ListPortfolioIDs(ctx)
		if err != nil {
			return Report{}, fmt.Errorf("failed to list portfolios: %w", err)
		}
		ids = all
	}

	date := market.TradingDate(s.now())
	var succeeded, duplicates, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			inserted, err := s.snapshot(ctx, id, date)
			switch {
			case err != nil:
				failed.Add(1)
				s.logger.Error("Failed to snapshot portfolio",
					zap.String("portfolio_id", id),
					zap.Error(err),
				)
			case !inserted:
				duplicates.Add(1)
			default:
				succeeded.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return Report{
		Total:      len(ids),
		Succeeded:  int(succeeded.Load()),
		Duplicates: int(duplicates.Load()),
		Failed:     int(failed.Load()),
	}, nil
}

func (s *Snapshotter) snapshot(ctx context.Context, portfolioID string, date time.Time) (bool, error) {
	summary, err := s.valuer.Summarize(ctx, portfolioID)
	if err != nil {
		return false, err
	}

	return s.store.AppendDailyBalance(ctx, &models.DailyBalance{
		PortfolioID: portfolioID,
		Date:        date,
		Totals:      summary.Totals,
		Total:       summary.Total,
	})
}
