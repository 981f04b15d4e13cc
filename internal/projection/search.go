package projection

import (
	"context"
	"log/slog"

	"github.com/pennywise-app/pennywise/internal/metrics"
	"github.com/pennywise-app/pennywise/internal/models"
	"github.com/pennywise-app/pennywise/internal/search"
)

// SearchProjector mirrors record mutations into the search index.
type SearchProjector struct {
	index search.Index
}

// NewSearchProjector creates a projector over the given index.
func NewSearchProjector(idx search.Index) *SearchProjector {
	return &SearchProjector{index: idx}
}

func (p *SearchProjector) run(ctx context.Context, op string, recordID string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), projectionTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		metrics.ProjectionFailures.WithLabelValues("search").Inc()
		slog.Error("search projection failed",
			"op", op,
			"record_id", recordID,
			"error", err,
		)
	}
}

// Index adds the document for a newly created record.
func (p *SearchProjector) Index(ctx context.Context, rec *models.TransactionRecord) {
	p.run(ctx, "index", rec.ID, func(ctx context.Context) error {
		return p.index.IndexRecord(ctx, rec.Document())
	})
}

// Update replaces the document for an updated record.
func (p *SearchProjector) Update(ctx context.Context, rec *models.TransactionRecord) {
	p.run(ctx, "update", rec.ID, func(ctx context.Context) error {
		return p.index.UpdateRecord(ctx, rec.Document())
	})
}

// Delete removes a deleted record's document. If this fails the index keeps a
// document for a record the ledger no longer has; that staleness is accepted
// and not repaired.
func (p *SearchProjector) Delete(ctx context.Context, recordID string) {
	p.run(ctx, "delete", recordID, func(ctx context.Context) error {
		return p.index.DeleteRecord(ctx, recordID)
	})
}

// DeleteBatch removes the documents of a batch-deleted record set.
func (p *SearchProjector) DeleteBatch(ctx context.Context, recordIDs []string) {
	p.run(ctx, "delete_batch", "", func(ctx context.Context) error {
		return p.index.DeleteRecords(ctx, recordIDs)
	})
}
