// Package cache provides the key/value cache abstraction used for account
// summaries and session state.
package cache

import (
	"context"
	"errors"
	"fmt"
)

// ErrCacheMiss reports that a key is not present in the cache. A miss is an
// expected condition, not a failure of the cache itself.
var ErrCacheMiss = errors.New("cache miss")

// Cache defines the interface for the fast-lookup store. Values are opaque
// byte slices; callers handle serialization.
type Cache interface {
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)

	// ScanKeys returns all keys starting with prefix. Used by summary-listing
	// collaborators; mutation paths never scan.
	ScanKeys(ctx context.Context, prefix string) ([]string, error)

	Close() error
}

// AccountKey is the cache key of an account's summary, scoped to its owner.
func AccountKey(userID, accountID string) string {
	return fmt.Sprintf("user:%s:account:%s", userID, accountID)
}

// AccountKeyPrefix matches every account summary of a user.
func AccountKeyPrefix(userID string) string {
	return fmt.Sprintf("user:%s:account:", userID)
}

// CurrentAccountKey holds the account id the user currently has selected.
func CurrentAccountKey(userID string) string {
	return fmt.Sprintf("user:%s:current_account", userID)
}

// UserInfoKey holds the cached session copy of the user's profile.
func UserInfoKey(userID string) string {
	return fmt.Sprintf("user:%s:info", userID)
}
