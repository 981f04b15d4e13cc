// Package ledger orchestrates record mutations against the authoritative
// store and fans the results out to the cache and search projections.
//
// The ordering contract: the store transaction commits first; projections run
// strictly after, and their failures never surface to the caller. The derived
// totals are therefore always correct in the store, while cache and index are
// allowed to lag.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pennywise-app/pennywise/internal/metrics"
	"github.com/pennywise-app/pennywise/internal/models"
	"github.com/pennywise-app/pennywise/internal/projection"
	"github.com/pennywise-app/pennywise/internal/storage"
)

// maxConflictRetries bounds how many times a mutation is retried after losing
// an optimistic-concurrency race before the conflict surfaces to the caller.
const maxConflictRetries = 3

// AccountResolver resolves the account a user currently has selected.
// Implemented by session.Resolver; external to this core's responsibility.
type AccountResolver interface {
	CurrentAccountID(ctx context.Context, userID string) (string, error)
}

// RecordInput carries the caller-supplied fields of a record mutation.
// Type is raw text, normalized here; everything downstream sees the enum.
type RecordInput struct {
	Amount          float64
	Type            string
	Category        string
	Description     string
	Method          string
	TransactionTime int64
}

// Service is the ledger mutation service.
type Service struct {
	store    storage.Store
	cache    *projection.CacheProjector
	search   *projection.SearchProjector
	resolver AccountResolver
}

// NewService creates a ledger service over the given collaborators.
func NewService(store storage.Store, cp *projection.CacheProjector, sp *projection.SearchProjector, resolver AccountResolver) *Service {
	return &Service{store: store, cache: cp, search: sp, resolver: resolver}
}

func (in *RecordInput) validate() (models.RecordType, error) {
	typ, err := models.ParseRecordType(in.Type)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRecordType, err)
	}
	if in.Amount < 0 {
		return "", ErrInvalidAmount
	}
	return typ, nil
}

func observe(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.MutationsTotal.WithLabelValues(op, status).Inc()
}

// AddRecord creates a record on the user's active account and applies its
// amount to the matching account total.
func (s *Service) AddRecord(ctx context.Context, userID string, input RecordInput) (rec *models.TransactionRecord, err error) {
	defer func() { observe("add", err) }()

	typ, err := input.validate()
	if err != nil {
		return nil, err
	}

	accountID, err := s.resolver.CurrentAccountID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrAccountNotFound, err)
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	var acct *models.Account
	for attempt := 0; ; attempt++ {
		acct, err = s.store.GetAccount(ctx, accountID)
		if err != nil {
			return nil, err
		}

		rec = &models.TransactionRecord{
			AccountID:       accountID,
			UserID:          userID,
			Amount:          input.Amount,
			Type:            typ,
			Category:        input.Category,
			Description:     input.Description,
			Method:          input.Method,
			TransactionTime: input.TransactionTime,
		}
		acct.ApplyDelta(typ, input.Amount)

		err = s.store.CreateRecord(ctx, rec, acct)
		if errors.Is(err, storage.ErrConflict) && attempt < maxConflictRetries {
			metrics.ConflictRetries.Inc()
			continue
		}
		if err != nil {
			slog.Error("AddRecord failed", "user_id", userID, "account_id", accountID, "error", err)
			return nil, err
		}
		break
	}

	s.cache.Upsert(ctx, acct)
	s.search.Index(ctx, rec)
	return rec, nil
}

// UpdateRecord replaces a record's mutable fields, reversing the old delta on
// the account totals before applying the new one. The type may flip between
// income and expense, moving the contribution from one total to the other.
func (s *Service) UpdateRecord(ctx context.Context, recordID string, input RecordInput) (err error) {
	defer func() { observe("update", err) }()

	typ, err := input.validate()
	if err != nil {
		return err
	}

	var (
		acct *models.Account
		rec  *models.TransactionRecord
	)
	for attempt := 0; ; attempt++ {
		existing, err := s.store.GetRecord(ctx, recordID)
		if err != nil {
			return err
		}
		acct, err = s.store.GetAccount(ctx, existing.AccountID)
		if err != nil {
			return err
		}

		// Reverse the old contribution first, then apply the new one.
		acct.ApplyDelta(existing.Type, -existing.Amount)
		acct.ApplyDelta(typ, input.Amount)

		rec = existing
		rec.Amount = input.Amount
		rec.Type = typ
		rec.Category = input.Category
		rec.Description = input.Description
		rec.Method = input.Method
		if input.TransactionTime != 0 {
			rec.TransactionTime = input.TransactionTime
		}

		err = s.store.UpdateRecord(ctx, rec, acct)
		if errors.Is(err, storage.ErrConflict) && attempt < maxConflictRetries {
			metrics.ConflictRetries.Inc()
			continue
		}
		if err != nil {
			slog.Error("UpdateRecord failed", "record_id", recordID, "error", err)
			return err
		}
		break
	}

	s.cache.Upsert(ctx, acct)
	s.search.Update(ctx, rec)
	return nil
}

// DeleteRecord removes a record, reversing its delta on the account totals.
func (s *Service) DeleteRecord(ctx context.Context, recordID string) (err error) {
	defer func() { observe("delete", err) }()

	var acct *models.Account
	for attempt := 0; ; attempt++ {
		rec, err := s.store.GetRecord(ctx, recordID)
		if err != nil {
			return err
		}
		acct, err = s.store.GetAccount(ctx, rec.AccountID)
		if err != nil {
			return err
		}
		acct.ApplyDelta(rec.Type, -rec.Amount)

		err = s.store.DeleteRecord(ctx, recordID, acct)
		if errors.Is(err, storage.ErrConflict) && attempt < maxConflictRetries {
			metrics.ConflictRetries.Inc()
			continue
		}
		if err != nil {
			slog.Error("DeleteRecord failed", "record_id", recordID, "error", err)
			return err
		}
		break
	}

	s.search.Delete(ctx, recordID)
	// The summary still needs refreshing even though no record remains.
	s.cache.Upsert(ctx, acct)
	return nil
}

// DeleteRecordsBatch removes a set of records from one account. The contract
// is all-or-nothing: if any requested ID does not resolve to a record on this
// account, the whole batch fails and nothing is deleted.
func (s *Service) DeleteRecordsBatch(ctx context.Context, accountID string, recordIDs []string) (err error) {
	defer func() { observe("delete_batch", err) }()

	ids := dedupe(recordIDs)
	if len(ids) == 0 {
		return nil
	}

	var acct *models.Account
	for attempt := 0; ; attempt++ {
		acct, err = s.store.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		records, err := s.store.ListRecordsByIDs(ctx, accountID, ids)
		if err != nil {
			return err
		}
		if len(records) != len(ids) {
			return fmt.Errorf("%w: resolved %d of %d", ErrBatchMismatch, len(records), len(ids))
		}

		for _, rec := range records {
			acct.ApplyDelta(rec.Type, -rec.Amount)
		}

		err = s.store.DeleteRecords(ctx, ids, acct)
		if errors.Is(err, storage.ErrConflict) && attempt < maxConflictRetries {
			metrics.ConflictRetries.Inc()
			continue
		}
		if err != nil {
			slog.Error("DeleteRecordsBatch failed", "account_id", accountID, "count", len(ids), "error", err)
			return err
		}
		break
	}

	s.search.DeleteBatch(ctx, ids)
	s.cache.Upsert(ctx, acct)
	return nil
}

// ListByAccount returns all records of an account, newest first.
func (s *Service) ListByAccount(ctx context.Context, accountID string) ([]models.TransactionRecord, error) {
	return s.store.ListRecordsByAccount(ctx, accountID)
}

// ListByAccountAndType returns the account's records of one type, newest first.
func (s *Service) ListByAccountAndType(ctx context.Context, accountID string, t models.RecordType) ([]models.TransactionRecord, error) {
	return s.store.ListRecordsByAccountAndType(ctx, accountID, t)
}

// ListRecent returns records whose transaction time falls inside the last
// `days` days. The window boundary is inclusive.
func (s *Service) ListRecent(ctx context.Context, accountID string, days int) ([]models.TransactionRecord, error) {
	since := time.Now().AddDate(0, 0, -days).Unix()
	return s.store.ListRecordsSince(ctx, accountID, since)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
