// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/pennywise-app/pennywise/internal/models"
	"github.com/pennywise-app/pennywise/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time; funneling the pool through a
	// single connection serializes our transactions instead of surfacing
	// SQLITE_BUSY to callers.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetAccount retrieves an account with its current totals and version.
func (s *SQLiteStore) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	acct := &models.Account{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, total_income, total_expense, version FROM accounts WHERE id = ?",
		accountID,
	).Scan(&acct.ID, &acct.UserID, &acct.Name, &acct.TotalIncome, &acct.TotalExpense, &acct.Version)
	if err == sql.ErrNoRows {
		return nil, storage.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acct, nil
}

// CreateAccount persists a new account. A missing ID is generated.
func (s *SQLiteStore) CreateAccount(ctx context.Context, acct *models.Account) error {
	if acct.ID == "" {
		acct.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO accounts (id, user_id, name, total_income, total_expense, version) VALUES (?, ?, ?, ?, ?, ?)",
		acct.ID, acct.UserID, acct.Name, acct.TotalIncome, acct.TotalExpense, acct.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// updateAccountTotalsTx writes the caller-computed totals guarded by the
// version the caller observed. Zero rows affected means either the account
// row is gone or another writer got there first.
func updateAccountTotalsTx(ctx context.Context, tx *sql.Tx, acct *models.Account) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE accounts SET total_income = ?, total_expense = ?, version = version + 1 WHERE id = ? AND version = ?",
		acct.TotalIncome, acct.TotalExpense, acct.ID, acct.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update account totals: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM accounts WHERE id = ?", acct.ID).Scan(&one)
		if err == sql.ErrNoRows {
			return storage.ErrAccountNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check account existence: %w", err)
		}
		return storage.ErrConflict
	}
	acct.Version++
	return nil
}
