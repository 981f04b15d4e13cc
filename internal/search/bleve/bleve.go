// Package bleve provides a Bleve-backed implementation of the search.Index
// interface. The index is embedded, so "external search store" here means a
// separate on-disk structure that fails independently of the ledger.
package bleve

import (
	"context"
	"errors"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/pennywise-app/pennywise/internal/models"
	"github.com/pennywise-app/pennywise/internal/search"
)

// Ensure Index implements search.Index
var _ search.Index = (*Index)(nil)

// Index implements search.Index using a Bleve index on disk.
type Index struct {
	idx bleve.Index
}

func indexMapping() mapping.IndexMapping {
	m := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()
	// IDs and the type enum are matched exactly, never analyzed.
	for _, field := range []string{"id", "account_id", "user_id", "type"} {
		doc.AddFieldMappingsAt(field, bleve.NewKeywordFieldMapping())
	}
	m.DefaultMapping = doc
	return m
}

// Open opens the index at path, creating it on first use.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, indexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}
	return &Index{idx: idx}, nil
}

// NewMemOnly creates a throwaway in-memory index for tests and dev mode.
func NewMemOnly() (*Index, error) {
	idx, err := bleve.NewMemOnly(indexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory search index: %w", err)
	}
	return &Index{idx: idx}, nil
}

// IndexRecord adds a document for a newly created record.
func (i *Index) IndexRecord(_ context.Context, doc models.RecordDocument) error {
	if err := i.idx.Index(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to index record %s: %w", doc.ID, err)
	}
	return nil
}

// UpdateRecord replaces the document for an existing record. Bleve upserts on
// ID, so this is the same operation as indexing.
func (i *Index) UpdateRecord(ctx context.Context, doc models.RecordDocument) error {
	return i.IndexRecord(ctx, doc)
}

// DeleteRecord removes a record's document.
func (i *Index) DeleteRecord(_ context.Context, recordID string) error {
	if err := i.idx.Delete(recordID); err != nil {
		return fmt.Errorf("failed to delete record %s from index: %w", recordID, err)
	}
	return nil
}

// DeleteRecords removes many documents in one batch.
func (i *Index) DeleteRecords(_ context.Context, recordIDs []string) error {
	batch := i.idx.NewBatch()
	for _, id := range recordIDs {
		batch.Delete(id)
	}
	if err := i.idx.Batch(batch); err != nil {
		return fmt.Errorf("failed to delete record batch from index: %w", err)
	}
	return nil
}

// Search returns the IDs of the user's records matching the query text.
func (i *Index) Search(ctx context.Context, userID, query string) ([]string, error) {
	match := bleve.NewMatchQuery(query)
	owner := bleve.NewTermQuery(userID)
	owner.SetField("user_id")

	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(owner, match))
	res, err := i.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func (i *Index) Close() error {
	return i.idx.Close()
}
