// Package session resolves per-login state kept in the cache, most
// importantly which account the user currently has selected.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/pennywise-app/pennywise/internal/cache"
)

// ErrNoActiveAccount reports that the user has no account selected in the
// current session.
var ErrNoActiveAccount = errors.New("no active account for user")

// Resolver looks up session state in the cache.
type Resolver struct {
	cache cache.Cache
}

// NewResolver creates a resolver over the given cache.
func NewResolver(c cache.Cache) *Resolver {
	return &Resolver{cache: c}
}

// CurrentAccountID returns the account the user currently has selected.
func (r *Resolver) CurrentAccountID(ctx context.Context, userID string) (string, error) {
	v, err := r.cache.Get(ctx, cache.CurrentAccountKey(userID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return "", ErrNoActiveAccount
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve current account: %w", err)
	}
	if len(v) == 0 {
		return "", ErrNoActiveAccount
	}
	return string(v), nil
}

// SetCurrentAccount records the user's selected account for this session.
func (r *Resolver) SetCurrentAccount(ctx context.Context, userID, accountID string) error {
	if err := r.cache.Set(ctx, cache.CurrentAccountKey(userID), []byte(accountID)); err != nil {
		return fmt.Errorf("failed to set current account: %w", err)
	}
	return nil
}
