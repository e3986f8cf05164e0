package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

type snapshotEntry struct {
	snap domain.Snapshot
	docs []domain.RawDoc
}

// SnapshotStore is an in-memory implementation of driven.SnapshotStore.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]snapshotEntry
}

// NewSnapshotStore creates an empty snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshots: make(map[string]snapshotEntry)}
}

// SaveSnapshot stores a copy of the snapshot and its documents.
func (s *SnapshotStore) SaveSnapshot(_ context.Context, snap *domain.Snapshot, docs []domain.RawDoc) error {
	if snap == nil || snap.ID == "" {
		return fmt.Errorf("%w: snapshot id is required", domain.ErrInvalidInput)
	}
	copies := make([]domain.RawDoc, 0, len(docs))
	for _, d := range docs {
		c, err := clone(d)
		if err != nil {
			return err
		}
		copies = append(copies, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.snapshots[snap.ID]; exists {
		return fmt.Errorf("snapshot %s: %w", snap.ID, domain.ErrAlreadyExists)
	}
	s.snapshots[snap.ID] = snapshotEntry{snap: *snap, docs: copies}
	return nil
}

// ListSnapshots returns snapshots, newest first.
func (s *SnapshotStore) ListSnapshots(_ context.Context) ([]domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Snapshot, 0, len(s.snapshots))
	for _, e := range s.snapshots {
		out = append(out, e.snap)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// LoadSnapshot returns a copy of a snapshot and its documents.
func (s *SnapshotStore) LoadSnapshot(_ context.Context, id string) (*domain.Snapshot, []domain.RawDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.snapshots[id]
	if !ok {
		return nil, nil, fmt.Errorf("snapshot %s: %w", id, domain.ErrNotFound)
	}
	docs := make([]domain.RawDoc, 0, len(e.docs))
	for _, d := range e.docs {
		c, err := clone(d)
		if err != nil {
			return nil, nil, err
		}
		docs = append(docs, c)
	}
	snap := e.snap
	return &snap, docs, nil
}

// DeleteSnapshot removes a snapshot.
func (s *SnapshotStore) DeleteSnapshot(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[id]; !ok {
		return fmt.Errorf("snapshot %s: %w", id, domain.ErrNotFound)
	}
	delete(s.snapshots, id)
	return nil
}
