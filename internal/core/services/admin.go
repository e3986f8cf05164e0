package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/mango"
	"github.com/custodia-labs/couchlab/internal/core/ports/driven"
	"github.com/custodia-labs/couchlab/internal/core/ports/driving"
	"github.com/custodia-labs/couchlab/internal/logger"
)

// Ensure AdminService implements the interface.
var _ driving.AdminService = (*AdminService)(nil)

// setupIndexes are the Mango indexes created by Setup.
var setupIndexes = []domain.IndexDefinition{
	{Name: "type-index", Fields: []string{"type"}},
	{Name: "type-category-index", Fields: []string{"type", "category"}},
	{Name: "type-status-index", Fields: []string{"type", "status"}},
	{Name: "type-created-index", Fields: []string{"type", "created_at"}},
}

// AdminService runs setup and maintenance tasks against one database.
type AdminService struct {
	admin     driven.AdminStore
	docs      driven.DocumentStore
	analytics driving.AnalyticsService
	codecs    driven.CodecRegistry

	snapshots driven.SnapshotStore
	watcher   driven.DirWatcher

	conn      domain.ConnectionSettings
	batchSize int

	now   func() time.Time
	newID func() string
}

// NewAdminService creates an admin service. Snapshot and watch support are
// attached with SetSnapshotStore and SetDirWatcher.
func NewAdminService(
	admin driven.AdminStore,
	docs driven.DocumentStore,
	analytics driving.AnalyticsService,
	codecs driven.CodecRegistry,
	settings domain.AppSettings,
) *AdminService {
	batch := settings.Admin.BatchSize
	if batch <= 0 {
		batch = domain.DefaultAppSettings().Admin.BatchSize
	}
	return &AdminService{
		admin:     admin,
		docs:      docs,
		analytics: analytics,
		codecs:    codecs,
		conn:      settings.Connection,
		batchSize: batch,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// SetSnapshotStore enables Backup, Snapshots and Restore.
func (s *AdminService) SetSnapshotStore(store driven.SnapshotStore) {
	s.snapshots = store
}

// SetDirWatcher enables WatchImports.
func (s *AdminService) SetDirWatcher(w driven.DirWatcher) {
	s.watcher = w
}

// Setup checks the connection, creates the database and its indexes, and
// registers the analytics views. Every step is idempotent.
func (s *AdminService) Setup(ctx context.Context) domain.Result[domain.SetupReport] {
	if s.admin == nil {
		return notConfigured[domain.SetupReport]()
	}

	version, err := s.admin.Ping(ctx)
	if err != nil {
		return domain.Fail[domain.SetupReport](err, "cannot reach %s", s.conn.URL)
	}
	logger.Debug("connected to server version %s", version)

	var report domain.SetupReport
	report.DatabaseCreated, err = s.admin.CreateDatabase(ctx)
	if err != nil {
		return domain.Fail[domain.SetupReport](err, "create database %s failed", s.conn.Database)
	}

	for _, idx := range setupIndexes {
		created, err := s.admin.CreateIndex(ctx, idx)
		if err != nil {
			return domain.Fail[domain.SetupReport](err, "create index %s failed", idx.Name)
		}
		if created {
			logger.Debug("created index %s on %v", idx.Name, idx.Fields)
		}
		report.Indexes = append(report.Indexes, idx.Name)
	}

	if s.analytics != nil {
		views := s.analytics.EnsureViews(ctx)
		if !views.Success {
			return domain.Forward[domain.SetupReport](views)
		}
		report.Views = views.Data
	}

	state := "existing"
	if report.DatabaseCreated {
		state = "new"
	}
	return domain.Ok(report, "%s database %s ready with %d indexes", state, s.conn.Database, len(report.Indexes))
}

// CreateUser creates a server user. A user that already exists counts as success.
func (s *AdminService) CreateUser(ctx context.Context, user domain.User) domain.Result[domain.User] {
	if s.admin == nil {
		return notConfigured[domain.User]()
	}
	if err := user.Validate(); err != nil {
		return domain.Fail[domain.User](err, "invalid user")
	}

	err := s.admin.PutUser(ctx, user)
	user.Password = ""
	switch {
	case err == nil:
		return domain.Ok(user, "user %s created", user.Name)
	case domain.ClassifyError(err) == domain.ErrorKindConflict:
		return domain.Ok(user, "user %s already exists", user.Name)
	default:
		return domain.Fail[domain.User](err, "create user %s failed", user.Name)
	}
}

// ApplySecurity adds adminUser to the database admins and analystUser to
// its members, keeping any names and roles already granted.
func (s *AdminService) ApplySecurity(ctx context.Context, adminUser, analystUser string) domain.Result[domain.SecurityDoc] {
	if s.admin == nil {
		return notConfigured[domain.SecurityDoc]()
	}
	if adminUser == "" || analystUser == "" {
		return domain.Fail[domain.SecurityDoc](
			fmt.Errorf("%w: admin and analyst user names are required", domain.ErrInvalidInput), "invalid security update")
	}

	current, err := s.admin.GetSecurity(ctx)
	if err != nil {
		return domain.Fail[domain.SecurityDoc](err, "read security failed")
	}

	sec := *current
	sec.Admins.Names = union(sec.Admins.Names, adminUser)
	sec.Admins.Roles = union(sec.Admins.Roles, domain.RoleAdmin)
	sec.Members.Names = union(sec.Members.Names, analystUser)
	sec.Members.Roles = union(sec.Members.Roles, domain.RoleAnalyst, domain.RoleReader)

	if err := s.admin.PutSecurity(ctx, sec); err != nil {
		return domain.Fail[domain.SecurityDoc](err, "update security failed")
	}
	return domain.Ok(sec, "security updated for %s", s.conn.Database)
}

// Export writes every document of kind, or all documents when kind is
// empty, to w in format.
func (s *AdminService) Export(ctx context.Context, w io.Writer, format domain.ExportFormat, kind domain.Kind) domain.Result[domain.ExportReport] {
	if s.docs == nil || s.codecs == nil {
		return notConfigured[domain.ExportReport]()
	}
	codec, err := s.codecs.Codec(format)
	if err != nil {
		return domain.Fail[domain.ExportReport](err, "export failed")
	}

	q, err := mango.NewBuilder(kind).Limit(s.batchSize).Build()
	if err != nil {
		return domain.Fail[domain.ExportReport](err, "export failed")
	}
	docs, err := findAll(ctx, s.docs, q)
	if err != nil {
		return domain.Fail[domain.ExportReport](err, "export failed")
	}

	if err := codec.Encode(w, docs); err != nil {
		return domain.Fail[domain.ExportReport](err, "write %s export failed", format)
	}

	report := domain.ExportReport{Path: nameOf(w), Format: format, DocumentCount: len(docs)}
	return domain.Ok(report, "exported %d documents", len(docs))
}

// Import decodes documents from r and stores them in batches. Revisions
// are dropped unless opts.UpdateExisting is set.
func (s *AdminService) Import(ctx context.Context, r io.Reader, opts driving.ImportOptions) domain.Result[domain.ImportReport] {
	if s.docs == nil || s.codecs == nil {
		return notConfigured[domain.ImportReport]()
	}
	codec, err := s.codecs.Codec(opts.Format)
	if err != nil {
		return domain.Fail[domain.ImportReport](err, "import failed")
	}

	docs, err := codec.Decode(r)
	if err != nil {
		return domain.Fail[domain.ImportReport](fmt.Errorf("%w: %v", domain.ErrInvalidInput, err), "read %s input failed", opts.Format)
	}

	source := opts.Source
	if source == "" {
		source = nameOf(r)
	}

	now := domain.FormatTime(s.now())
	for _, doc := range docs {
		if !opts.UpdateExisting {
			delete(doc, "_rev")
		}
		if _, ok := doc["created_at"]; !ok {
			doc["created_at"] = now
		}
		doc["updated_at"] = now
	}

	report, err := s.load(ctx, docs)
	report.Path = source
	if err != nil {
		return domain.Fail[domain.ImportReport](err, "import from %s failed after %d documents", source, report.SuccessCount)
	}
	return domain.Ok(report, "imported %d of %d documents", report.SuccessCount, report.TotalDocuments)
}

// load bulk-writes docs in batches.
func (s *AdminService) load(ctx context.Context, docs []domain.RawDoc) (domain.ImportReport, error) {
	report := domain.ImportReport{TotalDocuments: len(docs)}
	for start := 0; start < len(docs); start += s.batchSize {
		end := min(start+s.batchSize, len(docs))
		results, err := s.docs.BulkDocs(ctx, docs[start:end])
		if err != nil {
			return report, err
		}
		for _, r := range results {
			if r.OK {
				report.SuccessCount++
			} else {
				report.ErrorCount++
				logger.Debug("document %s not imported: %s %s", r.ID, r.Error, r.Reason)
			}
		}
		logger.Debug("imported batch %d-%d", start, end)
	}
	return report, nil
}

// WatchImports imports every file of format written into dir until ctx is
// cancelled.
func (s *AdminService) WatchImports(
	ctx context.Context,
	dir string,
	format domain.ExportFormat,
	onImport func(domain.Result[domain.ImportReport]),
) error {
	if s.watcher == nil {
		return fmt.Errorf("directory watcher: %w", domain.ErrNotImplemented)
	}
	if _, err := s.codecs.Codec(format); err != nil {
		return err
	}

	files, errs, err := s.watcher.Watch(ctx, dir, "."+string(format))
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("watching %s for %s files", dir, format)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch %s: %v", dir, err)
		case path, ok := <-files:
			if !ok {
				return nil
			}
			onImport(s.importFile(ctx, path, format))
		}
	}
}

func (s *AdminService) importFile(ctx context.Context, path string, format domain.ExportFormat) domain.Result[domain.ImportReport] {
	f, err := os.Open(path) //nolint:gosec // path comes from the watched directory
	if err != nil {
		return domain.Fail[domain.ImportReport](err, "open %s failed", path)
	}
	defer f.Close()
	return s.Import(ctx, f, driving.ImportOptions{Format: format, Source: path})
}

// Backup stores a snapshot of every document in the database.
func (s *AdminService) Backup(ctx context.Context) domain.Result[domain.Snapshot] {
	if s.docs == nil || s.snapshots == nil {
		return notConfigured[domain.Snapshot]()
	}

	q, err := mango.NewBuilder("").Limit(s.batchSize).Build()
	if err != nil {
		return domain.Fail[domain.Snapshot](err, "backup failed")
	}
	docs, err := findAll(ctx, s.docs, q)
	if err != nil {
		return domain.Fail[domain.Snapshot](err, "backup failed")
	}

	snap := domain.Snapshot{
		ID:            s.newID(),
		Database:      s.conn.Database,
		ServerURL:     s.conn.URL,
		DocumentCount: len(docs),
		CreatedAt:     s.now().UTC(),
	}
	if err := s.snapshots.SaveSnapshot(ctx, &snap, docs); err != nil {
		return domain.Fail[domain.Snapshot](err, "save snapshot failed")
	}
	return domain.Ok(snap, "backed up %d documents to snapshot %s", snap.DocumentCount, snap.ID)
}

// Snapshots lists stored snapshots, newest first.
func (s *AdminService) Snapshots(ctx context.Context) domain.Result[[]domain.Snapshot] {
	if s.snapshots == nil {
		return notConfigured[[]domain.Snapshot]()
	}
	snaps, err := s.snapshots.ListSnapshots(ctx)
	if err != nil {
		return domain.Fail[[]domain.Snapshot](err, "list snapshots failed")
	}
	if snaps == nil {
		snaps = []domain.Snapshot{}
	}
	return domain.Ok(snaps, "%d snapshots", len(snaps))
}

// Restore writes a snapshot's documents back with their revisions removed.
// Documents that still exist in the database are reported as failures.
func (s *AdminService) Restore(ctx context.Context, id string) domain.Result[domain.ImportReport] {
	if s.docs == nil || s.snapshots == nil {
		return notConfigured[domain.ImportReport]()
	}
	snap, docs, err := s.snapshots.LoadSnapshot(ctx, id)
	if err != nil {
		return domain.Fail[domain.ImportReport](err, "load snapshot %s failed", id)
	}
	for _, doc := range docs {
		delete(doc, "_rev")
	}

	report, err := s.load(ctx, docs)
	report.Path = snap.ID
	if err != nil {
		return domain.Fail[domain.ImportReport](err, "restore of %s failed after %d documents", id, report.SuccessCount)
	}
	return domain.Ok(report, "restored %d of %d documents from %s",
		report.SuccessCount, report.TotalDocuments, snap.CreatedAt.Format(time.RFC3339))
}

// union appends the missing values to list and sorts the result.
func union(list []string, values ...string) []string {
	seen := make(map[string]bool, len(list)+len(values))
	out := make([]string, 0, len(list)+len(values))
	for _, v := range append(append([]string{}, list...), values...) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// nameOf returns the file name behind a reader or writer when there is one.
func nameOf(v any) string {
	if named, ok := v.(interface{ Name() string }); ok {
		return named.Name()
	}
	return ""
}
