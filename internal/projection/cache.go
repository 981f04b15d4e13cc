// Package projection fans committed ledger state out to the cache and the
// search index. Every operation here is best-effort: failures are logged and
// counted, never returned, because the authoritative transaction has already
// committed by the time a projector runs.
package projection

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pennywise-app/pennywise/internal/cache"
	"github.com/pennywise-app/pennywise/internal/metrics"
	"github.com/pennywise-app/pennywise/internal/models"
)

// projectionTimeout bounds each projection call so a hung cache or index
// cannot stall the request that triggered it.
const projectionTimeout = 2 * time.Second

// CacheProjector writes denormalized account summaries into the cache.
type CacheProjector struct {
	cache cache.Cache
}

// NewCacheProjector creates a projector over the given cache.
func NewCacheProjector(c cache.Cache) *CacheProjector {
	return &CacheProjector{cache: c}
}

// Upsert recomputes the account's summary from the just-committed state and
// overwrites the cached value wholesale. It never reads the previous cached
// value, so a failed earlier write cannot leave a merged half-stale summary.
func (p *CacheProjector) Upsert(ctx context.Context, acct *models.Account) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), projectionTimeout)
	defer cancel()

	summary := acct.Summary()
	value, err := json.Marshal(summary)
	if err != nil {
		p.fail(acct, err)
		return
	}
	if err := p.cache.Set(ctx, cache.AccountKey(acct.UserID, acct.ID), value); err != nil {
		p.fail(acct, err)
		return
	}
}

func (p *CacheProjector) fail(acct *models.Account, err error) {
	metrics.ProjectionFailures.WithLabelValues("cache").Inc()
	slog.Error("cache projection failed",
		"user_id", acct.UserID,
		"account_id", acct.ID,
		"error", err,
	)
}

// Summary reads a cached account summary back. Returns cache.ErrCacheMiss
// when no projection has landed yet.
func (p *CacheProjector) Summary(ctx context.Context, userID, accountID string) (*models.AccountSummary, error) {
	value, err := p.cache.Get(ctx, cache.AccountKey(userID, accountID))
	if err != nil {
		return nil, err
	}
	var summary models.AccountSummary
	if err := json.Unmarshal(value, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
