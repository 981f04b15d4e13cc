// Package storage provides abstractions for the authoritative ledger store.
package storage

import (
	"context"
	"errors"

	"github.com/pennywise-app/pennywise/internal/models"
)

// Sentinel errors returned by Store implementations. Callers match them with
// errors.Is rather than inspecting messages.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrRecordNotFound  = errors.New("record not found")

	// ErrConflict reports that an account totals update lost a race: the
	// account's version changed between the caller's read and its write.
	// The caller should reload and retry.
	ErrConflict = errors.New("account aggregate update conflict")
)

// Store defines the interface for the authoritative ledger storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Each mutation method is a single atomic unit: the record change and the
// account totals update either both commit or neither does. The account
// argument carries the totals the caller computed and the Version it observed
// when it read the account; a stale version fails the whole unit with
// ErrConflict and leaves no partial state behind.
type Store interface {
	// GetUser retrieves a user by ID. Returns ErrUserNotFound if absent.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// GetAccount retrieves an account by ID, including its current totals
	// and version. Returns ErrAccountNotFound if absent.
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)

	// GetRecord retrieves a record by ID. Returns ErrRecordNotFound if absent.
	GetRecord(ctx context.Context, recordID string) (*models.TransactionRecord, error)

	// ListRecordsByAccount returns all records of an account, newest first.
	ListRecordsByAccount(ctx context.Context, accountID string) ([]models.TransactionRecord, error)

	// ListRecordsByAccountAndType returns the account's records of one type,
	// newest first.
	ListRecordsByAccountAndType(ctx context.Context, accountID string, t models.RecordType) ([]models.TransactionRecord, error)

	// ListRecordsSince returns the account's records with transaction time
	// at or after since (inclusive), newest first.
	ListRecordsSince(ctx context.Context, accountID string, since int64) ([]models.TransactionRecord, error)

	// ListRecordsByIDs returns the subset of the given record IDs that exist
	// and belong to accountID. Missing or foreign IDs are silently absent
	// from the result; the caller decides whether a shortfall is an error.
	ListRecordsByIDs(ctx context.Context, accountID string, recordIDs []string) ([]models.TransactionRecord, error)

	// CreateRecord persists a new record and the updated account totals in
	// one transaction. The record's ID is populated if empty.
	CreateRecord(ctx context.Context, rec *models.TransactionRecord, acct *models.Account) error

	// UpdateRecord replaces a record's mutable fields and persists the
	// updated account totals in one transaction.
	// Returns ErrRecordNotFound if the record row is gone.
	UpdateRecord(ctx context.Context, rec *models.TransactionRecord, acct *models.Account) error

	// DeleteRecord removes a record and persists the updated account totals
	// in one transaction. Returns ErrRecordNotFound if the row is gone.
	DeleteRecord(ctx context.Context, recordID string, acct *models.Account) error

	// DeleteRecords removes all given records and persists the updated
	// account totals in one transaction. Every ID must still exist;
	// otherwise the unit fails with ErrRecordNotFound and nothing is
	// deleted.
	DeleteRecords(ctx context.Context, recordIDs []string, acct *models.Account) error

	// CreateUser and CreateAccount exist for bootstrap and tests; neither
	// participates in aggregate maintenance.
	CreateUser(ctx context.Context, user *models.User) error
	CreateAccount(ctx context.Context, acct *models.Account) error

	// SaveUser persists profile field changes to an existing user.
	SaveUser(ctx context.Context, user *models.User) error

	// DeleteUser removes a user. Returns ErrUserNotFound if absent.
	DeleteUser(ctx context.Context, userID string) error

	// Close releases any resources held by the store.
	Close() error
}
