// Package profile implements user profile operations: contact details,
// password changes, avatars, and the session view of a user with the names
// of their cached account summaries.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pennywise-app/pennywise/internal/auth"
	"github.com/pennywise-app/pennywise/internal/cache"
	"github.com/pennywise-app/pennywise/internal/models"
	"github.com/pennywise-app/pennywise/internal/storage"
)

// Service handles user profile reads and writes.
type Service struct {
	store storage.Store
	cache cache.Cache
}

// NewService creates a profile service over the given store and cache.
func NewService(store storage.Store, c cache.Cache) *Service {
	return &Service{store: store, cache: c}
}

// UpdateInput carries profile fields to change. An empty Password leaves the
// current password in place.
type UpdateInput struct {
	Email    string
	Phone    string
	Password string
}

// Update replaces the user's contact fields and, when a password is supplied,
// re-hashes and replaces it.
func (s *Service) Update(ctx context.Context, userID string, input UpdateInput) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	user.Email = input.Email
	user.Phone = input.Phone
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
	}

	return s.store.SaveUser(ctx, user)
}

// UpdateAvatar sets the user's avatar URL.
func (s *Service) UpdateAvatar(ctx context.Context, userID, avatar string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	user.Avatar = avatar
	return s.store.SaveUser(ctx, user)
}

// Delete removes the user and, through the store's cascade, their accounts
// and records. Cached session entries simply expire with the session.
func (s *Service) Delete(ctx context.Context, userID string) error {
	return s.store.DeleteUser(ctx, userID)
}

// Info is the session view of a user.
type Info struct {
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Avatar       string   `json:"avatar"`
	AccountNames []string `json:"account_names"`
}

// UserInfo returns the user's profile, preferring the cached session copy and
// falling back to the store. Account names come from the cached summaries of
// the user, collected by prefix scan.
func (s *Service) UserInfo(ctx context.Context, userID string) (*Info, error) {
	info, err := s.cachedInfo(ctx, userID)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.Warn("cached user info unavailable", "user_id", userID, "error", err)
		}
		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		info = &Info{Username: user.Username, Email: user.Email, Phone: user.Phone, Avatar: user.Avatar}
	}

	names, err := s.accountNames(ctx, userID)
	if err != nil {
		// Names are a convenience; the profile itself is still good.
		slog.Warn("failed to collect account names", "user_id", userID, "error", err)
	}
	info.AccountNames = names
	return info, nil
}

// CacheInfo writes the session copy of the user's profile, typically at login.
func (s *Service) CacheInfo(ctx context.Context, user *models.User) error {
	value, err := json.Marshal(Info{
		Username: user.Username,
		Email:    user.Email,
		Phone:    user.Phone,
		Avatar:   user.Avatar,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal user info: %w", err)
	}
	return s.cache.Set(ctx, cache.UserInfoKey(user.ID), value)
}

func (s *Service) cachedInfo(ctx context.Context, userID string) (*Info, error) {
	value, err := s.cache.Get(ctx, cache.UserInfoKey(userID))
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(value, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user info: %w", err)
	}
	return &info, nil
}

func (s *Service) accountNames(ctx context.Context, userID string) ([]string, error) {
	keys, err := s.cache.ScanKeys(ctx, cache.AccountKeyPrefix(userID))
	if err != nil {
		return nil, err
	}

	var names []string
	for _, key := range keys {
		value, err := s.cache.Get(ctx, key)
		if err != nil {
			continue
		}
		var summary models.AccountSummary
		if err := json.Unmarshal(value, &summary); err != nil {
			continue
		}
		names = append(names, summary.Name)
	}
	return names, nil
}
