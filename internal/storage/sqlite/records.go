package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pennywise-app/pennywise/internal/models"
	"github.com/pennywise-app/pennywise/internal/storage"
)

const recordColumns = "id, account_id, user_id, amount, type, category, description, method, transaction_time"

func scanRecord(row interface{ Scan(...any) error }) (models.TransactionRecord, error) {
	var rec models.TransactionRecord
	err := row.Scan(&rec.ID, &rec.AccountID, &rec.UserID, &rec.Amount, &rec.Type,
		&rec.Category, &rec.Description, &rec.Method, &rec.TransactionTime)
	return rec, err
}

// GetRecord retrieves a record by ID.
func (s *SQLiteStore) GetRecord(ctx context.Context, recordID string) (*models.TransactionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM records WHERE id = ?", recordID)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &rec, nil
}

func (s *SQLiteStore) listRecords(ctx context.Context, query string, args ...any) ([]models.TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.TransactionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// ListRecordsByAccount returns all records of an account, newest first.
func (s *SQLiteStore) ListRecordsByAccount(ctx context.Context, accountID string) ([]models.TransactionRecord, error) {
	return s.listRecords(ctx,
		"SELECT "+recordColumns+" FROM records WHERE account_id = ? ORDER BY transaction_time DESC",
		accountID)
}

// ListRecordsByAccountAndType returns the account's records of one type, newest first.
func (s *SQLiteStore) ListRecordsByAccountAndType(ctx context.Context, accountID string, t models.RecordType) ([]models.TransactionRecord, error) {
	return s.listRecords(ctx,
		"SELECT "+recordColumns+" FROM records WHERE account_id = ? AND type = ? ORDER BY transaction_time DESC",
		accountID, string(t))
}

// ListRecordsSince returns the account's records with transaction time at or
// after since, newest first. The boundary is inclusive.
func (s *SQLiteStore) ListRecordsSince(ctx context.Context, accountID string, since int64) ([]models.TransactionRecord, error) {
	return s.listRecords(ctx,
		"SELECT "+recordColumns+" FROM records WHERE account_id = ? AND transaction_time >= ? ORDER BY transaction_time DESC",
		accountID, since)
}

// ListRecordsByIDs returns the records that both exist and belong to accountID.
func (s *SQLiteStore) ListRecordsByIDs(ctx context.Context, accountID string, recordIDs []string) ([]models.TransactionRecord, error) {
	if len(recordIDs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(recordIDs)+1)
	args = append(args, accountID)
	for _, id := range recordIDs {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(recordIDs)), ",")
	return s.listRecords(ctx,
		"SELECT "+recordColumns+" FROM records WHERE account_id = ? AND id IN ("+placeholders+")",
		args...)
}

// CreateRecord persists a new record together with the updated account totals.
func (s *SQLiteStore) CreateRecord(ctx context.Context, rec *models.TransactionRecord, acct *models.Account) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.TransactionTime == 0 {
		rec.TransactionTime = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Totals first: a missing account or stale version short-circuits the
	// unit before the insert can trip the foreign key instead.
	if err := updateAccountTotalsTx(ctx, tx, acct); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO records ("+recordColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.AccountID, rec.UserID, rec.Amount, string(rec.Type),
		rec.Category, rec.Description, rec.Method, rec.TransactionTime,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateRecord replaces a record's mutable fields together with the updated
// account totals.
func (s *SQLiteStore) UpdateRecord(ctx context.Context, rec *models.TransactionRecord, acct *models.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE records SET amount = ?, type = ?, category = ?, description = ?, method = ?, transaction_time = ? WHERE id = ?",
		rec.Amount, string(rec.Type), rec.Category, rec.Description, rec.Method, rec.TransactionTime, rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	} else if n == 0 {
		return storage.ErrRecordNotFound
	}

	if err := updateAccountTotalsTx(ctx, tx, acct); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteRecord removes a record together with the updated account totals.
func (s *SQLiteStore) DeleteRecord(ctx context.Context, recordID string, acct *models.Account) error {
	return s.DeleteRecords(ctx, []string{recordID}, acct)
}

// DeleteRecords removes all given records together with the updated account
// totals. If any ID no longer has a row, nothing is deleted.
func (s *SQLiteStore) DeleteRecords(ctx context.Context, recordIDs []string, acct *models.Account) error {
	if len(recordIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	args := make([]any, len(recordIDs))
	for i, id := range recordIDs {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(recordIDs)), ",")
	res, err := tx.ExecContext(ctx,
		"DELETE FROM records WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	} else if n != int64(len(recordIDs)) {
		return storage.ErrRecordNotFound
	}

	if err := updateAccountTotalsTx(ctx, tx, acct); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
