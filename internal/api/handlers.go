package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/trogers1052/portfolio-valuation/internal/apperrors"
	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// Reader is the cached read and invalidation surface of the service layer
type Reader interface {
	GetCachedOrComputeSummary(ctx context.Context, portfolioID string) ([]byte, error)
	GetCachedOrComputeListSummaries(ctx context.Context, userID string) ([]byte, error)
	GetQuotesView(ctx context.Context, portfolioID string) (*models.PricedPortfolioView, error)
	InvalidatePortfolio(ctx context.Context, portfolioID, ownerUserID string) error
	InvalidateUser(ctx context.Context, userID string) error
	DeletePortfolioPositions(ctx context.Context, portfolioID string) (models.DeleteReport, error)
}

// AlertTrigger enqueues one alert evaluation cycle
type AlertTrigger interface {
	EnqueuePending(ctx context.Context, now time.Time) (int, error)
}

// SnapshotTrigger enqueues a daily balance snapshot
type SnapshotTrigger interface {
	PublishSnapshotDailyBalances(ctx context.Context, portfolioIDs []string) (string, error)
}

// Pinger reports store liveness
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	reader    Reader
	alerts    AlertTrigger
	snapshots SnapshotTrigger
	db        Pinger
	logger    *zap.Logger
}

// NewHandler creates a new Handler. The triggers and pinger may be nil; the
// matching endpoints then report 503.
func NewHandler(reader Reader, alerts AlertTrigger, snapshots SnapshotTrigger, db Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		reader:    reader,
		alerts:    alerts,
		snapshots: snapshots,
		db:        db,
		logger:    logger,
	}
}

// GetPortfolioSummary handles GET /portfolios/{id}/summary
func (h *Handler) GetPortfolioSummary(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	data, err := h.reader.GetCachedOrComputeSummary(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondRaw(w, http.StatusOK, data)
}

// GetPortfolioQuotes handles GET /portfolios/{id}/quotes
func (h *Handler) GetPortfolioQuotes(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	view, err := h.reader.GetQuotesView(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetUserSummaries handles GET /users/{userId}/portfolios/summary
func (h *Handler) GetUserSummaries(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	data, err := h.reader.GetCachedOrComputeListSummaries(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondRaw(w, http.StatusOK, data)
}

// InvalidatePortfolio handles POST /portfolios/{id}/invalidate. Callers that
// know the owner pass ?user_id= so the list entry is dropped even after the
// portfolio row is gone.
func (h *Handler) InvalidatePortfolio(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	owner := r.URL.Query().Get("user_id")

	if err := h.reader.InvalidatePortfolio(r.Context(), id, owner); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InvalidateUser handles POST /users/{userId}/invalidate
func (h *Handler) InvalidateUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	if err := h.reader.InvalidateUser(r.Context(), userID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeletePositions handles DELETE /portfolios/{id}/positions. Partial failures
// are reported with 207 and the ids that could not be removed.
func (h *Handler) DeletePositions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	report, err := h.reader.DeletePortfolioPositions(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	status := http.StatusOK
	if report.Failed > 0 {
		status = http.StatusMultiStatus
	}
	respondJSON(w, status, report)
}

// TriggerAlerts handles POST /jobs/alerts
func (h *Handler) TriggerAlerts(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil {
		http.Error(w, "alert pipeline not configured", http.StatusServiceUnavailable)
		return
	}

	jobs, err := h.alerts.EnqueuePending(r.Context(), time.Now())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]int{"jobs_enqueued": jobs})
}

// TriggerSnapshots handles POST /jobs/snapshots. An optional JSON body
// {"portfolio_ids": [...]} limits the run; an empty body snapshots all.
func (h *Handler) TriggerSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		http.Error(w, "snapshot pipeline not configured", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		PortfolioIDs []string `json:"portfolio_ids"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	jobID, err := h.snapshots.PublishSnapshotDailyBalances(r.Context(), req.PortfolioIDs)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.Error(err))
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// respondError writes an AppError as its code and message. Anything else is
// logged and reported as a generic internal error.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.StatusCode >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.Error(err))
	}
	if appErr == nil {
		appErr = apperrors.ErrInternal
	}

	respondJSON(w, apperrors.StatusCode(err), map[string]string{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
