package driving

import (
	"context"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// CRUDService creates, reads, updates and deletes documents of any kind.
type CRUDService interface {
	// Create validates doc, assigns an ID when missing, stamps timestamps
	// and stores it.
	Create(ctx context.Context, doc domain.Document) domain.Result[domain.WriteResult]

	// Get retrieves a typed document by ID.
	Get(ctx context.Context, id string) domain.Result[domain.Document]

	// GetRaw retrieves a document by ID without decoding it.
	GetRaw(ctx context.Context, id string) domain.Result[domain.RawDoc]

	// Update merges patch into the stored document. rev is the caller's
	// last-known revision; a stale rev yields a conflict envelope.
	Update(ctx context.Context, id, rev string, patch map[string]any) domain.Result[domain.WriteResult]

	// Replace overwrites a document with doc, keeping created_at.
	// doc.Base().Rev must be the current revision.
	Replace(ctx context.Context, doc domain.Document) domain.Result[domain.WriteResult]

	// Delete removes a document at rev. A soft delete marks it deleted instead.
	Delete(ctx context.Context, id, rev string, soft bool) domain.Result[domain.WriteResult]

	// Find runs one page of a query.
	Find(ctx context.Context, q domain.Query) domain.Result[domain.FindResult]

	// FindAll pages through every match of a query.
	FindAll(ctx context.Context, q domain.Query) domain.Result[[]domain.RawDoc]

	// BulkCreate stores many documents and reports per-document outcomes.
	BulkCreate(ctx context.Context, docs []domain.Document) domain.Result[domain.BulkResult]

	// Info returns database statistics.
	Info(ctx context.Context) domain.Result[domain.DatabaseInfo]
}
