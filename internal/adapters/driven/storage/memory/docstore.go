package memory

import (
	"context"
	"crypto/md5" //nolint:gosec // revision digests, not security
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/mango"
	"github.com/custodia-labs/couchlab/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interfaces.
var (
	_ driven.DocumentStore = (*DocumentStore)(nil)
	_ driven.ViewStore     = (*DocumentStore)(nil)
	_ driven.AdminStore    = (*DocumentStore)(nil)
)

// defaultLimit matches the server's _find default.
const defaultLimit = 25

// DocumentStore is an in-memory stand-in for a CouchDB database.
// It keeps revision semantics (stale revisions conflict), evaluates Mango
// selectors with mango.Match and runs views through registered Go
// map/reduce functions. Documents are stored as JSON round-trips so callers
// see the same value types a real server returns.
type DocumentStore struct {
	mu sync.RWMutex

	name string
	docs map[string]domain.RawDoc

	designs      map[string]*domain.DesignDoc
	views        map[string]View
	indexing     map[string]bool
	designWrites int
	writes       int

	created  bool
	indexes  map[string]domain.IndexDefinition
	users    map[string]domain.User
	security *domain.SecurityDoc

	failure error
}

// NewDocumentStore creates an empty store with the analytics views installed.
func NewDocumentStore() *DocumentStore {
	s := &DocumentStore{
		name:     "memory",
		docs:     make(map[string]domain.RawDoc),
		designs:  make(map[string]*domain.DesignDoc),
		views:    make(map[string]View),
		indexing: make(map[string]bool),
		indexes:  make(map[string]domain.IndexDefinition),
		users:    make(map[string]domain.User),
	}
	for name, v := range AnalyticsViews() {
		s.RegisterView(domain.AnalyticsDesign, name, v)
	}
	return s
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (s *DocumentStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

// Len returns the number of stored documents.
func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(_ context.Context, id string) (domain.RawDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return clone(doc)
}

// Put writes a document with revision checking.
func (s *DocumentStore) Put(_ context.Context, doc domain.RawDoc) (domain.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return domain.WriteResult{}, s.failure
	}
	return s.write(doc)
}

// write stores doc; the caller holds the lock.
func (s *DocumentStore) write(doc domain.RawDoc) (domain.WriteResult, error) {
	stored, err := clone(doc)
	if err != nil {
		return domain.WriteResult{}, err
	}
	id := stored.ID()
	if id == "" {
		id = uuid.NewString()
		stored["_id"] = id
	}

	existing, exists := s.docs[id]
	switch {
	case exists && existing.Rev() != stored.Rev():
		return domain.WriteResult{}, fmt.Errorf("document %s: %w", id, domain.ErrConflict)
	case !exists && stored.Rev() != "":
		return domain.WriteResult{}, fmt.Errorf("document %s: %w", id, domain.ErrConflict)
	}

	rev, err := nextRev(stored.Rev(), stored)
	if err != nil {
		return domain.WriteResult{}, err
	}
	stored["_rev"] = rev
	s.docs[id] = stored
	s.writes++
	return domain.WriteResult{ID: id, Rev: rev}, nil
}

// Delete removes a document at revision rev.
func (s *DocumentStore) Delete(_ context.Context, id, rev string) (domain.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return domain.WriteResult{}, s.failure
	}
	existing, ok := s.docs[id]
	if !ok {
		return domain.WriteResult{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	if existing.Rev() != rev {
		return domain.WriteResult{}, fmt.Errorf("document %s: %w", id, domain.ErrConflict)
	}
	delete(s.docs, id)
	s.writes++
	next, err := nextRev(rev, domain.RawDoc{"_id": id, "_deleted": true})
	if err != nil {
		return domain.WriteResult{}, err
	}
	return domain.WriteResult{ID: id, Rev: next}, nil
}

// Find evaluates a Mango query. Bookmarks are opaque offsets.
func (s *DocumentStore) Find(_ context.Context, q domain.Query) (*domain.FindResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}

	var matched []domain.RawDoc
	for _, id := range s.sortedIDs() {
		doc := s.docs[id]
		ok, err := mango.Match(q.Selector, doc)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, doc)
		}
	}

	if len(q.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, sf := range q.Sort {
				c := mango.Compare(fieldValue(matched[i], sf.Field), fieldValue(matched[j], sf.Field))
				if c == 0 {
					continue
				}
				if sf.Direction == domain.SortDesc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	offset := q.Skip
	if q.Bookmark != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(q.Bookmark, "mem:"))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: invalid bookmark %q", domain.ErrInvalidInput, q.Bookmark)
		}
		offset = n
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultLimit
	}

	res := &domain.FindResult{Docs: []domain.RawDoc{}}
	for i := offset; i < len(matched) && len(res.Docs) < limit; i++ {
		doc, err := clone(matched[i])
		if err != nil {
			return nil, err
		}
		res.Docs = append(res.Docs, project(doc, q.Fields))
	}
	res.Bookmark = "mem:" + strconv.Itoa(offset+len(res.Docs))
	return res, nil
}

// BulkDocs writes documents one by one, reporting each outcome.
func (s *DocumentStore) BulkDocs(_ context.Context, docs []domain.RawDoc) ([]domain.BulkItemResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return nil, s.failure
	}
	results := make([]domain.BulkItemResult, len(docs))
	for i, doc := range docs {
		res, err := s.write(doc)
		if err != nil {
			results[i] = domain.BulkItemResult{ID: doc.ID(), Error: "conflict", Reason: "Document update conflict."}
			continue
		}
		results[i] = domain.BulkItemResult{ID: res.ID, Rev: res.Rev, OK: true}
	}
	return results, nil
}

// Info returns database statistics.
func (s *DocumentStore) Info(_ context.Context) (*domain.DatabaseInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	return &domain.DatabaseInfo{Name: s.name, DocCount: len(s.docs) + len(s.designs), UpdateSeq: s.writes}, nil
}

func (s *DocumentStore) sortedIDs() []string {
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// clone deep-copies doc through JSON.
func clone(doc domain.RawDoc) (domain.RawDoc, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding document: %v", domain.ErrInvalidInput, err)
	}
	var out domain.RawDoc
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// nextRev returns the revision following prev for body.
func nextRev(prev string, body domain.RawDoc) (string, error) {
	gen := 0
	if prev != "" {
		n, _, _ := strings.Cut(prev, "-")
		gen, _ = strconv.Atoi(n)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(append(data, prev...)) //nolint:gosec // not used for security
	return fmt.Sprintf("%d-%s", gen+1, hex.EncodeToString(sum[:])), nil
}

func fieldValue(doc domain.RawDoc, path string) any {
	var cur any = map[string]any(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

func project(doc domain.RawDoc, fields []string) domain.RawDoc {
	if len(fields) == 0 {
		return doc
	}
	out := make(domain.RawDoc, len(fields))
	for _, f := range fields {
		if v, ok := doc[f]; ok {
			out[f] = v
		}
	}
	return out
}
