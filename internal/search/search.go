// Package search provides the record search-index abstraction.
package search

import (
	"context"

	"github.com/pennywise-app/pennywise/internal/models"
)

// Index defines the interface for the record search store. It mirrors the
// document operations the projection layer needs; query mechanics beyond a
// basic text search are out of this core's hands.
//
// Documents in the index are a best-effort mirror of the ledger: a document's
// presence means the record existed at some point, not that it still does.
type Index interface {
	// IndexRecord adds a document for a newly created record.
	IndexRecord(ctx context.Context, doc models.RecordDocument) error

	// UpdateRecord replaces the document for an existing record.
	UpdateRecord(ctx context.Context, doc models.RecordDocument) error

	// DeleteRecord removes a record's document. Deleting an absent document
	// is not an error.
	DeleteRecord(ctx context.Context, recordID string) error

	// DeleteRecords removes many documents in one operation.
	DeleteRecords(ctx context.Context, recordIDs []string) error

	// Search returns the IDs of records matching the query text, scoped to
	// one user, best matches first.
	Search(ctx context.Context, userID, query string) ([]string, error)

	Close() error
}
