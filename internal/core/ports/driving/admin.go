package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// ImportOptions controls an import.
type ImportOptions struct {
	// Format of the input.
	Format domain.ExportFormat

	// UpdateExisting keeps "_rev" so existing documents are overwritten.
	UpdateExisting bool

	// Source names the input in the report.
	Source string
}

// AdminService covers setup and administration tasks.
type AdminService interface {
	// Setup creates the database, indexes and analytics views.
	Setup(ctx context.Context) domain.Result[domain.SetupReport]

	// CreateUser creates a user. An existing user is reported as success.
	CreateUser(ctx context.Context, user domain.User) domain.Result[domain.User]

	// ApplySecurity grants the admin and analyst users access to the database.
	ApplySecurity(ctx context.Context, adminUser, analystUser string) domain.Result[domain.SecurityDoc]

	// Export writes documents of kind (all kinds when empty) to w.
	Export(ctx context.Context, w io.Writer, format domain.ExportFormat, kind domain.Kind) domain.Result[domain.ExportReport]

	// Import reads documents from r and bulk-loads them.
	Import(ctx context.Context, r io.Reader, opts ImportOptions) domain.Result[domain.ImportReport]

	// WatchImports imports every new file of format dropped in dir until
	// ctx is cancelled, reporting each import through onImport.
	WatchImports(ctx context.Context, dir string, format domain.ExportFormat, onImport func(domain.Result[domain.ImportReport])) error

	// Backup stores a snapshot of every document.
	Backup(ctx context.Context) domain.Result[domain.Snapshot]

	// Snapshots lists stored snapshots.
	Snapshots(ctx context.Context) domain.Result[[]domain.Snapshot]

	// Restore bulk-loads a snapshot's documents with revisions stripped.
	Restore(ctx context.Context, id string) domain.Result[domain.ImportReport]
}
