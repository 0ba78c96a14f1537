// Package service is the cache-first read path for portfolio valuations
// plus the invalidation hooks mutation endpoints call before responding.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/trogers1052/portfolio-valuation/internal/cache"
	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// listConcurrency bounds how many portfolios of one user are valued at once
const listConcurrency = 4

// Valuer computes portfolio valuations
type Valuer interface {
	Summarize(ctx context.Context, portfolioID string) (*models.PortfolioSummary, error)
	Quotes(ctx context.Context, portfolioID string) (*models.PricedPortfolioView, error)
}

// Store is the subset of the position store the service needs
type Store interface {
	GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error)
	ListPortfolios(ctx context.Context, userID string) ([]models.Portfolio, error)
	DeletePositions(ctx context.Context, portfolioID string) (models.DeleteReport, error)
}

// Service serves valuations through the result cache
type Service struct {
	valuer Valuer
	store  Store
	cache  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a new Service
func New(valuer Valuer, store Store, c cache.Store, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{
		valuer: valuer,
		store:  store,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// GetCachedOrComputeSummary returns the JSON summary of a portfolio. A cache
// hit returns the stored bytes unchanged.
func (s *Service) GetCachedOrComputeSummary(ctx context.Context, portfolioID string) ([]byte, error) {
	key := cache.PortfolioKey(portfolioID)
	if data, ok := s.cached(ctx, key); ok {
		return data, nil
	}

	summary, err := s.valuer.Summarize(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary for %s: %w", portfolioID, err)
	}

	s.remember(ctx, key, data)
	return data, nil
}

// GetCachedOrComputeListSummaries returns a JSON array with the summary of
// every portfolio owned by userID, in store order. A portfolio that fails to
// value is logged and left out, and the incomplete list is not cached.
func (s *Service) GetCachedOrComputeListSummaries(ctx context.Context, userID string) ([]byte, error) {
	key := cache.PortfolioListKey(userID)
	if data, ok := s.cached(ctx, key); ok {
		return data, nil
	}

	portfolios, err := s.store.ListPortfolios(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios for user %s: %w", userID, err)
	}

	results := make([]*models.PortfolioSummary, len(portfolios))
	var g errgroup.Group
	g.SetLimit(listConcurrency)
	for i, p := range portfolios {
		i, p := i, p
		g.Go(func() error {
			summary, err := s.valuer.Summarize(ctx, p.ID)
			if err != nil {
				s.logger.Warn("Skipping portfolio in list summary",
					zap.String("user_id", userID),
					zap.String("portfolio_id", p.ID),
					zap.Error(err),
				)
				return nil
			}
			results[i] = summary
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summaries := make([]*models.PortfolioSummary, 0, len(results))
	for _, summary := range results {
		if summary != nil {
			summaries = append(summaries, summary)
		}
	}

	data, err := json.Marshal(summaries)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summaries for user %s: %w", userID, err)
	}

	if len(summaries) == len(portfolios) {
		s.remember(ctx, key, data)
	}
	return data, nil
}

// GetQuotesView returns per-position pricing. It is never cached.
func (s *Service) GetQuotesView(ctx context.Context, portfolioID string) (*models.PricedPortfolioView, error) {
	return s.valuer.Quotes(ctx, portfolioID)
}

// InvalidatePortfolio drops the portfolio's entry and its owner's list
// entry. When ownerUserID is empty the owner is looked up; if that lookup
// fails only the portfolio entry is dropped and the error is returned.
func (s *Service) InvalidatePortfolio(ctx context.Context, portfolioID, ownerUserID string) error {
	keys := []string{cache.PortfolioKey(portfolioID)}

	if ownerUserID == "" {
		portfolio, err := s.store.GetPortfolio(ctx, portfolioID)
		if err != nil {
			if invErr := s.cache.Invalidate(ctx, keys...); invErr != nil {
				s.logger.Error("Failed to invalidate cache", zap.Strings("keys", keys), zap.Error(invErr))
			}
			return err
		}
		ownerUserID = portfolio.UserID
	}
	keys = append(keys, cache.PortfolioListKey(ownerUserID))

	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		return fmt.Errorf("failed to invalidate portfolio %s: %w", portfolioID, err)
	}
	s.logger.Debug("Invalidated portfolio cache", zap.String("portfolio_id", portfolioID), zap.Strings("keys", keys))
	return nil
}

// InvalidateUser drops the user's list entry and every one of their
// portfolio entries, for changes to user-level settings.
func (s *Service) InvalidateUser(ctx context.Context, userID string) error {
	portfolios, err := s.store.ListPortfolios(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list portfolios for user %s: %w", userID, err)
	}

	keys := make([]string, 0, len(portfolios)+1)
	keys = append(keys, cache.PortfolioListKey(userID))
	for _, p := range portfolios {
		keys = append(keys, cache.PortfolioKey(p.ID))
	}

	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		return fmt.Errorf("failed to invalidate user %s: %w", userID, err)
	}
	return nil
}

// DeletePortfolioPositions deletes every position of a portfolio and
// reports partial failures. The owner is resolved first so the cache is
// invalidated even when the store fails partway through.
func (s *Service) DeletePortfolioPositions(ctx context.Context, portfolioID string) (models.DeleteReport, error) {
	portfolio, err := s.store.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return models.DeleteReport{}, err
	}

	report, err := s.store.DeletePositions(ctx, portfolioID)
	if invErr := s.InvalidatePortfolio(ctx, portfolioID, portfolio.UserID); invErr != nil {
		s.logger.Error("Failed to invalidate after position delete",
			zap.String("portfolio_id", portfolioID),
			zap.Error(invErr),
		)
		if err == nil {
			err = invErr
		}
	}
	if err != nil {
		return report, fmt.Errorf("failed to delete positions of %s: %w", portfolioID, err)
	}

	if report.Failed > 0 {
		s.logger.Warn("Some positions were not deleted",
			zap.String("portfolio_id", portfolioID),
			zap.Int("deleted", report.Deleted),
			zap.Strings("failed_ids", report.FailedIDs),
		)
	}
	return report, nil
}

// cached reads key, treating backend errors as a miss
func (s *Service) cached(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Cache read failed, computing directly", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return data, ok
}

// remember writes data under key; failures are logged only
func (s *Service) remember(ctx context.Context, key string, data []byte) {
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}
