package exchange

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/couchlab/internal/core/ports/driven"
	"github.com/custodia-labs/couchlab/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.DirWatcher = (*Watcher)(nil)

// DefaultSettle is how long a file must stay quiet before it is reported.
const DefaultSettle = 250 * time.Millisecond

// Watcher reports files created or rewritten in a directory. Bursts of
// events for one path are coalesced into a single report.
type Watcher struct {
	settle time.Duration
}

// NewWatcher creates a directory watcher.
func NewWatcher() *Watcher {
	return &Watcher{settle: DefaultSettle}
}

// Watch starts watching dir. Paths of matching files are sent on the first
// channel and watcher errors on the second until ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context, dir, ext string) (<-chan string, <-chan error, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s is not a directory", dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	files := make(chan string)
	errs := make(chan error)
	ready := make(chan string)
	go func() {
		defer close(files)
		defer close(errs)
		defer fw.Close()

		pending := make(map[string]*time.Timer)
		defer func() {
			for _, t := range pending {
				t.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				path, ok := handleFsEvent(event, ext)
				if !ok {
					continue
				}
				logger.Debug("watch: %s %s", event.Op, path)
				if t, seen := pending[path]; seen {
					t.Reset(w.settle)
					continue
				}
				pending[path] = time.AfterFunc(w.settle, func() {
					select {
					case ready <- path:
					case <-ctx.Done():
					}
				})
			case path := <-ready:
				delete(pending, path)
				select {
				case files <- path:
				case <-ctx.Done():
					return
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				select {
				case errs <- err:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return files, errs, nil
}

// handleFsEvent returns the path of a created or written file with
// extension ext. Hidden files, directories and removals are ignored.
func handleFsEvent(event fsnotify.Event, ext string) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return "", false
	}
	if ext != "" && !strings.EqualFold(filepath.Ext(name), ext) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return event.Name, true
}
