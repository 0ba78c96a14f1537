package alerts

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/trogers1052/portfolio-valuation/internal/apperrors"
	"github.com/trogers1052/portfolio-valuation/internal/models"
	"github.com/trogers1052/portfolio-valuation/internal/notify"
	"github.com/trogers1052/portfolio-valuation/internal/quotes"
)

// Store is the alert store used by the worker side
type Store interface {
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	DeleteAlert(ctx context.Context, id string) error
}

// Dispatcher delivers a fired alert
type Dispatcher interface {
	Dispatch(ctx context.Context, alert models.Alert, price decimal.Decimal) notify.Result
}

// BatchResult counts what happened to each alert in a batch
type BatchResult struct {
	Evaluated    int `json:"evaluated"`
	Gone         int `json:"gone"`
	Unpriced     int `json:"unpriced"`
	Triggered    int `json:"triggered"`
	Sent         int `json:"sent"`
	Failed       int `json:"failed"`
	DeleteFailed int `json:"delete_failed"`
	LookupFailed int `json:"lookup_failed"`
}

// Evaluator processes alert evaluation jobs
type Evaluator struct {
	store      Store
	quotes     quotes.Source
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewEvaluator creates a new Evaluator
func NewEvaluator(store Store, src quotes.Source, dispatcher Dispatcher, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		store:      store,
		quotes:     src,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// HandleJob adapts ProcessBatch to the job queue. Alert and delivery
// failures are never job errors.
func (e *Evaluator) HandleJob(ctx context.Context, job *models.Job) error {
	if job.EvaluateAlerts == nil {
		return fmt.Errorf("job %s has no alert batch", job.ID)
	}
	res := e.ProcessBatch(ctx, job.EvaluateAlerts)
	e.logger.Info("Alert batch processed",
		zap.String("job_id", job.ID),
		zap.String("class", string(job.EvaluateAlerts.Class)),
		zap.Any("result", res),
	)
	return nil
}

// ProcessBatch re-reads each alert, prices the batch with one quote call and
// fires the alerts whose condition holds. An alert already deleted, by a
// previous delivery of the same job for instance, is skipped without a
// notification.
func (e *Evaluator) ProcessBatch(ctx context.Context, batch *models.EvaluateAlertsJob) BatchResult {
	var res BatchResult

	live := make([]models.Alert, 0, len(batch.Alerts))
	for _, a := range batch.Alerts {
		current, err := e.store.GetAlert(ctx, a.ID)
		if apperrors.IsNotFound(err) {
			res.Gone++
			continue
		}
		if err != nil {
			res.LookupFailed++
			e.logger.Warn("Failed to load alert", zap.String("alert_id", a.ID), zap.Error(err))
			continue
		}
		live = append(live, *current)
	}
	if len(live) == 0 {
		return res
	}

	symbols := make([]string, 0, len(live))
	for _, a := range live {
		symbols = append(symbols, a.Symbol)
	}
	prices := quotes.Lookup(ctx, e.quotes, symbols, batch.Class, e.logger)

	for _, a := range live {
		res.Evaluated++

		q, ok := prices.Get(a.Symbol)
		if !ok {
			res.Unpriced++
			continue
		}
		if !ShouldTrigger(a.Condition, q.Last, a.TargetPrice) {
			continue
		}
		res.Triggered++

		if e.dispatcher.Dispatch(ctx, a, q.Last) != notify.ResultSent {
			res.Failed++
			continue
		}
		res.Sent++

		if err := e.store.DeleteAlert(ctx, a.ID); err != nil && !apperrors.IsNotFound(err) {
			// the alert stays pending and fires again next cycle
			res.DeleteFailed++
			e.logger.Error("Failed to delete fired alert", zap.String("alert_id", a.ID), zap.Error(err))
		}
	}
	return res
}
