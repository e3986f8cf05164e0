package driven

import (
	"context"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// SnapshotStore keeps local backup snapshots of a database.
type SnapshotStore interface {
	// SaveSnapshot stores the snapshot metadata and its documents.
	SaveSnapshot(ctx context.Context, snap *domain.Snapshot, docs []domain.RawDoc) error

	// ListSnapshots returns snapshots, newest first.
	ListSnapshots(ctx context.Context) ([]domain.Snapshot, error)

	// LoadSnapshot returns a snapshot and its documents.
	LoadSnapshot(ctx context.Context, id string) (*domain.Snapshot, []domain.RawDoc, error)

	// DeleteSnapshot removes a snapshot.
	DeleteSnapshot(ctx context.Context, id string) error
}
