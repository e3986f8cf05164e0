package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/ports/driven"
	"github.com/custodia-labs/couchlab/internal/core/ports/driving"
	"github.com/custodia-labs/couchlab/internal/logger"
)

// Ensure CRUDService implements the interface.
var _ driving.CRUDService = (*CRUDService)(nil)

// Fields a patch may not change.
var immutableFields = []string{"_id", "_rev", "type", "created_at"}

// CRUDService stores and retrieves documents of every kind.
type CRUDService struct {
	store driven.DocumentStore
	now   func() time.Time
	newID func(kind domain.Kind) string
}

// NewCRUDService creates a new CRUD service.
func NewCRUDService(store driven.DocumentStore) *CRUDService {
	return &CRUDService{
		store: store,
		now:   time.Now,
		newID: func(kind domain.Kind) string {
			return kind.IDPrefix() + uuid.NewString()
		},
	}
}

func notConfigured[T any]() domain.Result[T] {
	return domain.Fail[T](domain.ErrNotImplemented, "document store not configured")
}

// Create validates doc, assigns an ID when missing, stamps timestamps
// and stores it.
func (s *CRUDService) Create(ctx context.Context, doc domain.Document) domain.Result[domain.WriteResult] {
	if s.store == nil {
		return notConfigured[domain.WriteResult]()
	}
	if doc == nil {
		return domain.Fail[domain.WriteResult](fmt.Errorf("%w: document is nil", domain.ErrInvalidInput), "create failed")
	}

	meta := doc.Base()
	if err := doc.Validate(); err != nil {
		return domain.Fail[domain.WriteResult](err, "invalid %s", meta.Type)
	}
	if meta.ID == "" {
		meta.ID = s.newID(meta.Type)
	}
	meta.Rev = ""
	doc.Touch(s.now())

	raw, err := domain.ToRaw(doc)
	if err != nil {
		return domain.Fail[domain.WriteResult](err, "create %s failed", meta.ID)
	}

	res, err := s.store.Put(ctx, raw)
	if err != nil {
		if domain.ClassifyError(err) == domain.ErrorKindConflict {
			err = fmt.Errorf("%w: document %s: %w", domain.ErrAlreadyExists, meta.ID, err)
		}
		return domain.Fail[domain.WriteResult](err, "create %s failed", meta.ID)
	}
	meta.Rev = res.Rev

	logger.Debug("created %s rev %s", res.ID, res.Rev)
	return domain.Ok(res, "%s created", res.ID)
}

// Get retrieves a typed document by ID.
func (s *CRUDService) Get(ctx context.Context, id string) domain.Result[domain.Document] {
	raw := s.GetRaw(ctx, id)
	if !raw.Success {
		return domain.Forward[domain.Document](raw)
	}
	doc, err := raw.Data.Decode()
	if err != nil {
		return domain.Fail[domain.Document](err, "decode %s failed", id)
	}
	return domain.Ok(doc, "%s found", id)
}

// GetRaw retrieves a document by ID without decoding it.
func (s *CRUDService) GetRaw(ctx context.Context, id string) domain.Result[domain.RawDoc] {
	if s.store == nil {
		return notConfigured[domain.RawDoc]()
	}
	if id == "" {
		return domain.Fail[domain.RawDoc](fmt.Errorf("%w: document id is required", domain.ErrInvalidInput), "get failed")
	}
	raw, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Fail[domain.RawDoc](err, "get %s failed", id)
	}
	return domain.Ok(raw, "%s found", id)
}

// Update merges patch into the stored document. A rev that no longer
// matches the stored revision yields a conflict envelope and no write.
func (s *CRUDService) Update(ctx context.Context, id, rev string, patch map[string]any) domain.Result[domain.WriteResult] {
	if s.store == nil {
		return notConfigured[domain.WriteResult]()
	}
	if err := checkTarget(id, rev); err != nil {
		return domain.Fail[domain.WriteResult](err, "update failed")
	}
	for _, field := range immutableFields {
		if _, ok := patch[field]; ok {
			err := fmt.Errorf("%w: field %q cannot be changed by an update", domain.ErrInvalidInput, field)
			return domain.Fail[domain.WriteResult](err, "update %s failed", id)
		}
	}

	current, err := s.current(ctx, id, rev)
	if err != nil {
		return domain.Fail[domain.WriteResult](err, "update %s failed", id)
	}

	merged := current.Clone()
	for k, v := range patch {
		merged[k] = v
	}

	merged, err = s.normalise(merged)
	if err != nil {
		return domain.Fail[domain.WriteResult](err, "update %s failed", id)
	}
	return s.put(ctx, merged, "updated")
}

// Replace overwrites a document, keeping its created_at.
func (s *CRUDService) Replace(ctx context.Context, doc domain.Document) domain.Result[domain.WriteResult] {
	if s.store == nil {
		return notConfigured[domain.WriteResult]()
	}
	if doc == nil {
		return domain.Fail[domain.WriteResult](fmt.Errorf("%w: document is nil", domain.ErrInvalidInput), "replace failed")
	}
	meta := doc.Base()
	if err := checkTarget(meta.ID, meta.Rev); err != nil {
		return domain.Fail[domain.WriteResult](err, "replace failed")
	}
	if err := doc.Validate(); err != nil {
		return domain.Fail[domain.WriteResult](err, "replace %s failed", meta.ID)
	}

	current, err := s.current(ctx, meta.ID, meta.Rev)
	if err != nil {
		return domain.Fail[domain.WriteResult](err, "replace %s failed", meta.ID)
	}
	if current.Kind() != meta.Type {
		err := fmt.Errorf("%w: cannot replace %s with %s", domain.ErrInvalidInput, current.Kind(), meta.Type)
		return domain.Fail[domain.WriteResult](err, "replace %s failed", meta.ID)
	}
	if stored, err := current.Decode(); err == nil {
		meta.CreatedAt = stored.Base().CreatedAt
	}
	doc.Touch(s.now())

	raw, err := domain.ToRaw(doc)
	if err != nil {
		return domain.Fail[domain.WriteResult](err, "replace %s failed", meta.ID)
	}
	res := s.put(ctx, raw, "replaced")
	if res.Success {
		meta.Rev = res.Data.Rev
	}
	return res
}

// Delete removes a document at rev. A soft delete keeps the document and
// marks it deleted.
func (s *CRUDService) Delete(ctx context.Context, id, rev string, soft bool) domain.Result[domain.WriteResult] {
	if s.store == nil {
		return notConfigured[domain.WriteResult]()
	}
	if err := checkTarget(id, rev); err != nil {
		return domain.Fail[domain.WriteResult](err, "delete failed")
	}

	if soft {
		res := s.Update(ctx, id, rev, map[string]any{
			"deleted":    true,
			"deleted_at": domain.FormatTime(s.now()),
		})
		if res.Success {
			res.Message = fmt.Sprintf("%s marked deleted", id)
		}
		return res
	}

	res, err := s.store.Delete(ctx, id, rev)
	if err != nil {
		return domain.Fail[domain.WriteResult](err, "delete %s failed", id)
	}
	return domain.Ok(res, "%s deleted", id)
}

// Find runs one page of a query. A zero limit uses domain.DefaultFindLimit.
func (s *CRUDService) Find(ctx context.Context, q domain.Query) domain.Result[domain.FindResult] {
	if s.store == nil {
		return notConfigured[domain.FindResult]()
	}
	if err := checkPaging(q); err != nil {
		return domain.Fail[domain.FindResult](err, "find failed")
	}
	if q.Limit == 0 {
		q.Limit = domain.DefaultFindLimit
	}
	res, err := s.store.Find(ctx, q)
	if err != nil {
		return domain.Fail[domain.FindResult](err, "find failed")
	}
	if res.Warning != "" {
		logger.Debug("find warning: %s", res.Warning)
	}
	return domain.Ok(*res, "%d documents found", len(res.Docs))
}

// FindAll pages through every match of q using bookmarks. q.Limit is the
// page size.
func (s *CRUDService) FindAll(ctx context.Context, q domain.Query) domain.Result[[]domain.RawDoc] {
	if s.store == nil {
		return notConfigured[[]domain.RawDoc]()
	}
	docs, err := findAll(ctx, s.store, q)
	if err != nil {
		return domain.Fail[[]domain.RawDoc](err, "find failed")
	}
	return domain.Ok(docs, "%d documents found", len(docs))
}

// findAll is shared by the services that aggregate whole collections.
// Any failed page fails the whole call.
func findAll(ctx context.Context, store driven.DocumentStore, q domain.Query) ([]domain.RawDoc, error) {
	if err := checkPaging(q); err != nil {
		return nil, err
	}
	if q.Limit == 0 {
		q.Limit = domain.DefaultFindLimit
	}

	var all []domain.RawDoc
	for {
		page, err := store.Find(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Docs...)

		if len(page.Docs) < q.Limit || page.Bookmark == "" || page.Bookmark == q.Bookmark {
			break
		}
		q.Bookmark = page.Bookmark
		q.Skip = 0
	}
	return all, nil
}

// BulkCreate validates and stores many documents. Invalid documents are
// reported as failed items without being sent.
func (s *CRUDService) BulkCreate(ctx context.Context, docs []domain.Document) domain.Result[domain.BulkResult] {
	if s.store == nil {
		return notConfigured[domain.BulkResult]()
	}

	results := make([]domain.BulkItemResult, len(docs))
	var (
		batch     []domain.RawDoc
		positions []int
	)
	now := s.now()

	for i, doc := range docs {
		if doc == nil {
			results[i] = domain.BulkItemResult{Error: "invalid", Reason: "document is nil"}
			continue
		}
		meta := doc.Base()
		if meta.ID == "" {
			meta.ID = s.newID(meta.Type)
		}
		results[i].ID = meta.ID

		if err := doc.Validate(); err != nil {
			results[i].Error, results[i].Reason = "invalid", err.Error()
			continue
		}
		doc.Touch(now)
		raw, err := domain.ToRaw(doc)
		if err != nil {
			results[i].Error, results[i].Reason = "invalid", err.Error()
			continue
		}
		batch = append(batch, raw)
		positions = append(positions, i)
	}

	if len(batch) > 0 {
		stored, err := s.store.BulkDocs(ctx, batch)
		if err != nil {
			return domain.Fail[domain.BulkResult](err, "bulk create failed")
		}
		for j, item := range stored {
			if j >= len(positions) {
				break
			}
			i := positions[j]
			results[i] = item
			if item.OK && docs[i] != nil {
				docs[i].Base().Rev = item.Rev
			}
		}
	}

	return bulkOk(results)
}

// bulkOk summarises per-item outcomes.
func bulkOk(results []domain.BulkItemResult) domain.Result[domain.BulkResult] {
	summary := domain.BulkResult{Results: results, Total: len(results)}
	for _, r := range results {
		if r.OK {
			summary.SuccessCount++
		} else {
			summary.ErrorCount++
		}
	}
	return domain.Ok(summary, "%d of %d documents stored", summary.SuccessCount, summary.Total)
}

// Info returns database statistics.
func (s *CRUDService) Info(ctx context.Context) domain.Result[domain.DatabaseInfo] {
	if s.store == nil {
		return notConfigured[domain.DatabaseInfo]()
	}
	info, err := s.store.Info(ctx)
	if err != nil {
		return domain.Fail[domain.DatabaseInfo](err, "database info failed")
	}
	return domain.Ok(*info, "database %s holds %d documents", info.Name, info.DocCount)
}

// current fetches id and checks its revision matches rev.
func (s *CRUDService) current(ctx context.Context, id, rev string) (domain.RawDoc, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Rev() != rev {
		return nil, fmt.Errorf("%w: %s is at %s, caller had %s", domain.ErrConflict, id, current.Rev(), rev)
	}
	return current, nil
}

// normalise validates a merged document of a known kind and refreshes its
// derived fields and timestamps. Unknown fields are kept.
func (s *CRUDService) normalise(merged domain.RawDoc) (domain.RawDoc, error) {
	if !merged.Kind().IsValid() {
		merged["updated_at"] = domain.FormatTime(s.now())
		return merged, nil
	}
	doc, err := merged.Decode()
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	doc.Touch(s.now())
	typed, err := domain.ToRaw(doc)
	if err != nil {
		return nil, err
	}
	for k, v := range typed {
		merged[k] = v
	}
	return merged, nil
}

func (s *CRUDService) put(ctx context.Context, raw domain.RawDoc, verb string) domain.Result[domain.WriteResult] {
	res, err := s.store.Put(ctx, raw)
	if err != nil {
		return domain.Fail[domain.WriteResult](err, "%s failed", raw.ID())
	}
	logger.Debug("%s %s rev %s", verb, res.ID, res.Rev)
	return domain.Ok(res, "%s %s", res.ID, verb)
}

func checkTarget(id, rev string) error {
	if id == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if rev == "" {
		return fmt.Errorf("%w: revision token is required for %s", domain.ErrInvalidInput, id)
	}
	return nil
}

func checkPaging(q domain.Query) error {
	if q.Limit < 0 || q.Skip < 0 {
		return fmt.Errorf("%w: limit and skip must not be negative", domain.ErrInvalidInput)
	}
	return nil
}
