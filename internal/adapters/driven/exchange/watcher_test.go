package exchange

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsNewFilesOnce(t *testing.T) {
	dir := t.TempDir()
	w := &Watcher{settle: 50 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	files, _, err := w.Watch(ctx, dir, ".json")
	require.NoError(t, err)

	target := filepath.Join(dir, "batch.json")
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o600)
		_ = os.WriteFile(target, []byte("[]"), 0o600)
		_ = os.WriteFile(target, []byte(`[{"_id":"a"}]`), 0o600)
	}()

	select {
	case path := <-files:
		assert.Equal(t, target, path)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for file")
	}

	select {
	case path := <-files:
		t.Fatalf("unexpected second report for %s", path)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	files, errs, err := NewWatcher().Watch(ctx, t.TempDir(), ".json")
	require.NoError(t, err)

	cancel()
	select {
	case _, open := <-files:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("files channel not closed")
	}
	_, open := <-errs
	assert.False(t, open)
}

func TestWatcher_MissingDir(t *testing.T) {
	_, _, err := NewWatcher().Watch(context.Background(), filepath.Join(t.TempDir(), "nope"), ".json")
	assert.Error(t, err)
}

func TestHandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(file, []byte("[]"), 0o600))
	hidden := filepath.Join(dir, ".data.json")
	require.NoError(t, os.WriteFile(hidden, []byte("[]"), 0o600))
	sub := filepath.Join(dir, "sub.json")
	require.NoError(t, os.Mkdir(sub, 0o700))

	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		ext  string
		want bool
	}{
		{"create", file, fsnotify.Create, ".json", true},
		{"write", file, fsnotify.Write, ".json", true},
		{"write and chmod", file, fsnotify.Write | fsnotify.Chmod, ".json", true},
		{"extension case", file, fsnotify.Create, ".JSON", true},
		{"any extension", file, fsnotify.Create, "", true},
		{"other extension", file, fsnotify.Create, ".csv", false},
		{"remove", file, fsnotify.Remove, ".json", false},
		{"rename", file, fsnotify.Rename, ".json", false},
		{"chmod", file, fsnotify.Chmod, ".json", false},
		{"hidden", hidden, fsnotify.Create, ".json", false},
		{"directory", sub, fsnotify.Create, ".json", false},
		{"vanished", filepath.Join(dir, "gone.json"), fsnotify.Create, ".json", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := handleFsEvent(fsnotify.Event{Name: tt.path, Op: tt.op}, tt.ext)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, tt.path, path)
			}
		})
	}
}
