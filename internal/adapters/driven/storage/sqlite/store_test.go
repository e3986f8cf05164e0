package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleDocs() []domain.RawDoc {
	return []domain.RawDoc{
		{"_id": "product_1", "_rev": "1-a", "type": "product", "name": "Laptop", "price": 999.99},
		{"_id": "customer_1", "_rev": "2-b", "type": "customer", "name": "Ada"},
		{"_id": "untyped"},
	}
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "snapshots.db"), store.Path())
	assert.FileExists(t, store.Path())
}

func TestNewStore_MigrationsRecorded(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestStore_SaveAndLoadSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	snap := &domain.Snapshot{ID: "snap-1", Database: "shop", ServerURL: "http://localhost:5984", CreatedAt: created}
	require.NoError(t, store.SaveSnapshot(ctx, snap, sampleDocs()))
	assert.Equal(t, 3, snap.DocumentCount)

	got, docs, err := store.LoadSnapshot(ctx, "snap-1")
	require.NoError(t, err)
	assert.Equal(t, "shop", got.Database)
	assert.Equal(t, "http://localhost:5984", got.ServerURL)
	assert.Equal(t, 3, got.DocumentCount)
	assert.True(t, created.Equal(got.CreatedAt))

	require.Len(t, docs, 3)
	assert.Equal(t, "product_1", docs[0].ID())
	assert.Equal(t, "1-a", docs[0].Rev())
	assert.Equal(t, 999.99, docs[0]["price"])
	assert.Equal(t, "customer_1", docs[1].ID())
	assert.Equal(t, "untyped", docs[2].ID())
}

func TestStore_SaveSnapshot_Duplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snap := &domain.Snapshot{ID: "snap-1", Database: "shop", CreatedAt: time.Now()}
	require.NoError(t, store.SaveSnapshot(ctx, snap, nil))

	err := store.SaveSnapshot(ctx, &domain.Snapshot{ID: "snap-1", CreatedAt: time.Now()}, sampleDocs())
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, docs, err := store.LoadSnapshot(ctx, "snap-1")
	require.NoError(t, err)
	assert.Empty(t, docs, "failed save must roll back")
}

func TestStore_SaveSnapshot_RequiresID(t *testing.T) {
	store := newTestStore(t)
	err := store.SaveSnapshot(context.Background(), &domain.Snapshot{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_ListSnapshots_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveSnapshot(ctx, &domain.Snapshot{ID: "old", CreatedAt: base}, nil))
	require.NoError(t, store.SaveSnapshot(ctx, &domain.Snapshot{ID: "new", CreatedAt: base.Add(time.Hour)}, sampleDocs()))

	snaps, err := store.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "new", snaps[0].ID)
	assert.Equal(t, 3, snaps[0].DocumentCount)
	assert.Equal(t, "old", snaps[1].ID)
}

func TestStore_LoadSnapshot_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, _, err := store.LoadSnapshot(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeleteSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveSnapshot(ctx, &domain.Snapshot{ID: "snap-1", CreatedAt: time.Now()}, sampleDocs()))

	require.NoError(t, store.DeleteSnapshot(ctx, "snap-1"))

	var remaining int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM snapshot_documents").Scan(&remaining))
	assert.Zero(t, remaining)

	assert.ErrorIs(t, store.DeleteSnapshot(ctx, "snap-1"), domain.ErrNotFound)
}
