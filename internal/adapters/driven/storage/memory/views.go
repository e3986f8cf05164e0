package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/mango"
)

// MapFunc emits zero or more key/value rows for a document.
type MapFunc func(doc domain.RawDoc, emit func(key, value any))

// ReduceFunc folds the values of one group into a single value.
type ReduceFunc func(values []any) any

// View is the Go counterpart of a JavaScript view definition.
type View struct {
	Map    MapFunc
	Reduce ReduceFunc
}

// RegisterView installs the Go implementation of design/view. The view is
// only queryable once a design document declaring it has been written.
func (s *DocumentStore) RegisterView(design, view string, v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[design+"/"+view] = v
}

// SetIndexing marks a design's index as rebuilding.
func (s *DocumentStore) SetIndexing(design string, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexing[design] = running
}

// DesignWrites returns the number of successful design document writes.
func (s *DocumentStore) DesignWrites() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.designWrites
}

// GetDesign returns a copy of a design document.
func (s *DocumentStore) GetDesign(_ context.Context, id string) (*domain.DesignDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	ddoc, ok := s.designs[id]
	if !ok {
		return nil, fmt.Errorf("design %s: %w", id, domain.ErrNotFound)
	}
	return copyDesign(ddoc), nil
}

// PutDesign writes a design document with revision checking.
func (s *DocumentStore) PutDesign(_ context.Context, ddoc *domain.DesignDoc) (domain.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return domain.WriteResult{}, s.failure
	}

	existing, exists := s.designs[ddoc.ID]
	switch {
	case exists && existing.Rev != ddoc.Rev:
		return domain.WriteResult{}, fmt.Errorf("design %s: %w", ddoc.ID, domain.ErrConflict)
	case !exists && ddoc.Rev != "":
		return domain.WriteResult{}, fmt.Errorf("design %s: %w", ddoc.ID, domain.ErrConflict)
	}

	stored := copyDesign(ddoc)
	gen := 0
	if exists {
		gen = revGeneration(existing.Rev)
	}
	stored.Rev = strconv.Itoa(gen+1) + "-design"
	s.designs[ddoc.ID] = stored
	s.designWrites++
	s.writes++
	return domain.WriteResult{ID: ddoc.ID, Rev: stored.Rev}, nil
}

// IndexState reports the index one sequence behind the database while
// SetIndexing marks the design as rebuilding.
func (s *DocumentStore) IndexState(_ context.Context, design, view string) (*domain.IndexState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	ddoc, ok := s.designs[domain.DesignID(design)]
	if !ok {
		return nil, fmt.Errorf("design %s: %w", design, domain.ErrNotFound)
	}
	if _, ok := ddoc.Views[view]; !ok {
		return nil, fmt.Errorf("view %s/%s: %w", design, view, domain.ErrNotFound)
	}
	dbSeq := int64(s.writes)
	state := &domain.IndexState{Design: design, View: view, IndexSeq: dbSeq, DBSeq: dbSeq}
	if s.indexing[design] {
		state.IndexSeq = dbSeq - 1
	}
	return state, nil
}

// QueryView runs a registered view over the stored documents.
func (s *DocumentStore) QueryView(_ context.Context, design, view string, q domain.ViewQuery) (*domain.ViewResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}

	ddoc, ok := s.designs[domain.DesignID(design)]
	if !ok {
		return nil, fmt.Errorf("design %s: %w", design, domain.ErrNotFound)
	}
	source, ok := ddoc.Views[view]
	if !ok {
		return nil, fmt.Errorf("view %s/%s: %w", design, view, domain.ErrNotFound)
	}
	impl, ok := s.views[design+"/"+view]
	if !ok {
		return nil, fmt.Errorf("view %s/%s has no in-memory implementation: %w", design, view, domain.ErrNotImplemented)
	}

	var rows []domain.ViewRow
	for _, id := range s.sortedIDs() {
		doc := s.docs[id]
		impl.Map(doc, func(key, value any) {
			rows = append(rows, domain.ViewRow{ID: id, Key: mango.Normalize(key), Value: value})
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if c := mango.Compare(rows[i].Key, rows[j].Key); c != 0 {
			return c < 0
		}
		return rows[i].ID < rows[j].ID
	})

	rows = keyRange(rows, q)
	if q.Descending {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	reduce := source.Reduce != "" && impl.Reduce != nil && (q.Reduce == nil || *q.Reduce)
	if reduce {
		rows = reduceRows(rows, impl.Reduce, q)
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	if rows == nil {
		rows = []domain.ViewRow{}
	}
	return &domain.ViewResult{TotalRows: len(rows), Rows: rows}, nil
}

func keyRange(rows []domain.ViewRow, q domain.ViewQuery) []domain.ViewRow {
	if q.StartKey == nil && q.EndKey == nil {
		return rows
	}
	start, end := mango.Normalize(q.StartKey), mango.Normalize(q.EndKey)
	if q.Descending {
		start, end = end, start
	}
	var out []domain.ViewRow
	for _, r := range rows {
		if start != nil && mango.Compare(r.Key, start) < 0 {
			continue
		}
		if end != nil && mango.Compare(r.Key, end) > 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// reduceRows groups consecutive rows by key (or key prefix) and reduces each group.
func reduceRows(rows []domain.ViewRow, reduce ReduceFunc, q domain.ViewQuery) []domain.ViewRow {
	groupKey := func(key any) any {
		switch {
		case q.Group:
			return key
		case q.GroupLevel > 0:
			if arr, ok := key.([]any); ok && len(arr) > q.GroupLevel {
				return arr[:q.GroupLevel]
			}
			return key
		default:
			return nil
		}
	}

	var out []domain.ViewRow
	var values []any
	var current any
	for i, r := range rows {
		k := groupKey(r.Key)
		if i > 0 && mango.Compare(k, current) != 0 {
			out = append(out, domain.ViewRow{Key: current, Value: reduce(values)})
			values = nil
		}
		current = k
		values = append(values, r.Value)
	}
	if len(values) > 0 {
		out = append(out, domain.ViewRow{Key: current, Value: reduce(values)})
	}
	return out
}

func copyDesign(ddoc *domain.DesignDoc) *domain.DesignDoc {
	out := *ddoc
	out.Views = make(map[string]domain.ViewSource, len(ddoc.Views))
	for k, v := range ddoc.Views {
		out.Views[k] = v
	}
	return &out
}

func revGeneration(rev string) int {
	for i := 0; i < len(rev); i++ {
		if rev[i] == '-' {
			n, _ := strconv.Atoi(rev[:i])
			return n
		}
	}
	return 0
}
