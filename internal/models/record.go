package models

import (
	"fmt"
	"strings"
)

// RecordType is the canonical classification of a transaction record.
// Inputs are normalized once at the boundary via ParseRecordType; everything
// downstream compares enum values, never raw strings.
type RecordType string

const (
	Income  RecordType = "income"
	Expense RecordType = "expense"
)

// ParseRecordType normalizes a user-supplied type string case-insensitively.
func ParseRecordType(s string) (RecordType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Income):
		return Income, nil
	case string(Expense):
		return Expense, nil
	default:
		return "", fmt.Errorf("unrecognized record type %q", s)
	}
}

// TransactionRecord is a single income or expense entry on an account.
type TransactionRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string

	// AccountID is the owning account.
	AccountID string

	// UserID is denormalized from the account's owner for fast filtering.
	UserID string

	// Amount is the non-negative amount of the transaction.
	Amount float64

	// Type is Income or Expense.
	Type RecordType

	Category    string
	Description string
	Method      string

	// TransactionTime is the Unix timestamp of the transaction itself,
	// not of the row's creation.
	TransactionTime int64
}

// RecordDocument is the searchable mirror of a TransactionRecord kept in the
// search index. It is written best-effort after the authoritative commit and
// carries no consistency guarantee relative to the ledger.
type RecordDocument struct {
	ID              string  `json:"id"`
	AccountID       string  `json:"account_id"`
	UserID          string  `json:"user_id"`
	Amount          float64 `json:"amount"`
	Type            string  `json:"type"`
	Category        string  `json:"category"`
	Description     string  `json:"description"`
	Method          string  `json:"method"`
	TransactionTime int64   `json:"transaction_time"`
}

// Document builds the index representation of the record.
func (r *TransactionRecord) Document() RecordDocument {
	return RecordDocument{
		ID:              r.ID,
		AccountID:       r.AccountID,
		UserID:          r.UserID,
		Amount:          r.Amount,
		Type:            string(r.Type),
		Category:        r.Category,
		Description:     r.Description,
		Method:          r.Method,
		TransactionTime: r.TransactionTime,
	}
}
