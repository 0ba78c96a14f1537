// Package cache stores serialized valuation payloads for a short TTL.
//
// Only two key families exist: one per portfolio and one per user's
// portfolio list. Writers that change positions or user settings invalidate
// the affected keys before they respond.
package cache

import (
	"context"
	"time"
)

const (
	portfolioPrefix     = "portfolio:"
	portfolioListPrefix = "portfolio-list:"
)

// Store is a TTL key-value cache. Get reports a miss with ok == false and a
// nil error; an error means the backend itself failed.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// PortfolioKey is the cache key for one portfolio's summary
func PortfolioKey(portfolioID string) string {
	return portfolioPrefix + portfolioID
}

// PortfolioListKey is the cache key for all portfolio summaries of a user
func PortfolioListKey(userID string) string {
	return portfolioListPrefix + userID
}
