package driven

import (
	"context"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// DocumentStore persists schemaless documents in one database.
// Backed by CouchDB; the memory adapter is a behavioural double.
type DocumentStore interface {
	// Get retrieves a document by ID. Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, id string) (domain.RawDoc, error)

	// Put writes a document. A non-empty "_rev" must match the current
	// revision or domain.ErrConflict is returned.
	Put(ctx context.Context, doc domain.RawDoc) (domain.WriteResult, error)

	// Delete removes a document at revision rev.
	Delete(ctx context.Context, id, rev string) (domain.WriteResult, error)

	// Find runs a Mango query and returns one page.
	Find(ctx context.Context, q domain.Query) (*domain.FindResult, error)

	// BulkDocs writes many documents and reports per-document outcomes.
	BulkDocs(ctx context.Context, docs []domain.RawDoc) ([]domain.BulkItemResult, error)

	// Info returns database statistics.
	Info(ctx context.Context) (*domain.DatabaseInfo, error)
}

// ViewStore manages design documents and queries MapReduce views.
type ViewStore interface {
	// GetDesign returns a design document. Returns domain.ErrNotFound when absent.
	GetDesign(ctx context.Context, id string) (*domain.DesignDoc, error)

	// PutDesign writes a design document using its Rev for concurrency control.
	PutDesign(ctx context.Context, ddoc *domain.DesignDoc) (domain.WriteResult, error)

	// IndexState triggers a build of design/view without waiting for it and
	// reports how far the index lags the database.
	IndexState(ctx context.Context, design, view string) (*domain.IndexState, error)

	// QueryView queries view of design with the given parameters.
	QueryView(ctx context.Context, design, view string, q domain.ViewQuery) (*domain.ViewResult, error)
}

// AdminStore covers server-level administration.
type AdminStore interface {
	// Ping checks the server is reachable and returns its version.
	Ping(ctx context.Context) (string, error)

	// CreateDatabase creates the target database.
	// Returns false without error when it already exists.
	CreateDatabase(ctx context.Context) (bool, error)

	// CreateIndex creates a Mango index. Returns false when it already existed.
	CreateIndex(ctx context.Context, idx domain.IndexDefinition) (bool, error)

	// PutUser creates a user. Returns domain.ErrAlreadyExists when taken.
	PutUser(ctx context.Context, user domain.User) error

	// GetSecurity returns the database security object.
	GetSecurity(ctx context.Context) (*domain.SecurityDoc, error)

	// PutSecurity replaces the database security object.
	PutSecurity(ctx context.Context, sec domain.SecurityDoc) error
}
