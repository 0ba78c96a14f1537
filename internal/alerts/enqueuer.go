package alerts

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/trogers1052/portfolio-valuation/internal/market"
	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// DefaultBatchSize is the number of alerts per evaluation job
const DefaultBatchSize = 5

// AlertLister lists pending alerts
type AlertLister interface {
	ListAlerts(ctx context.Context) ([]models.Alert, error)
}

// Publisher puts evaluation jobs on the queue
type Publisher interface {
	PublishEvaluateAlerts(ctx context.Context, class models.AssetClass, alerts []models.Alert) (string, error)
}

// Enqueuer turns pending alerts into evaluation jobs
type Enqueuer struct {
	store     AlertLister
	publisher Publisher
	batchSize int
	isOpen    func(class models.AssetClass, t time.Time) bool
	logger    *zap.Logger
}

// NewEnqueuer creates a new Enqueuer
func NewEnqueuer(store AlertLister, publisher Publisher, batchSize int, logger *zap.Logger) *Enqueuer {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Enqueuer{
		store:     store,
		publisher: publisher,
		batchSize: batchSize,
		isOpen:    market.IsOpen,
		logger:    logger,
	}
}

// EnqueuePending publishes one job per batch of pending alerts whose market
// is open at now, and returns how many jobs were published. A failed publish
// is logged; the remaining batches are still attempted.
func (e *Enqueuer) EnqueuePending(ctx context.Context, now time.Time) (int, error) {
	pending, err := e.store.ListAlerts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list alerts: %w", err)
	}

	byClass := make(map[models.AssetClass][]models.Alert)
	for _, a := range pending {
		byClass[a.AssetClass] = append(byClass[a.AssetClass], a)
	}

	published := 0
	for _, class := range models.AssetClasses {
		alerts := byClass[class]
		if len(alerts) == 0 {
			continue
		}
		if !class.Priced() {
			e.logger.Warn("Skipping alerts on an unpriced class", zap.String("class", string(class)), zap.Int("count", len(alerts)))
			continue
		}
		if !e.isOpen(class, now) {
			e.logger.Debug("Market closed, skipping alerts", zap.String("class", string(class)))
			continue
		}

		for _, batch := range Chunk(alerts, e.batchSize) {
			jobID, err := e.publisher.PublishEvaluateAlerts(ctx, class, batch)
			if err != nil {
				e.logger.Error("Failed to publish alert batch",
					zap.String("class", string(class)),
					zap.Int("size", len(batch)),
					zap.Error(err),
				)
				continue
			}
			published++
			e.logger.Debug("Published alert batch", zap.String("job_id", jobID), zap.Int("size", len(batch)))
		}
	}

	e.logger.Info("Alert cycle enqueued", zap.Int("alerts", len(pending)), zap.Int("jobs", published))
	return published, nil
}

// Chunk splits alerts into consecutive batches of at most size
func Chunk(alerts []models.Alert, size int) [][]models.Alert {
	if size < 1 {
		size = DefaultBatchSize
	}
	var out [][]models.Alert
	for start := 0; start < len(alerts); start += size {
		end := min(start+size, len(alerts))
		out = append(out, alerts[start:end])
	}
	return out
}
