// Package watch keeps the index in step with the library tree by rescanning
// project folders that change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"dcpm/internal/contextutil"
	"dcpm/internal/library"
	"dcpm/internal/metadata"
)

// DefaultDelay is the quiet period before queued changes are rescanned.
const DefaultDelay = 500 * time.Millisecond

// Scanner refreshes the index from the library tree.
type Scanner interface {
	Scan(ctx context.Context, progress library.ProgressFunc) (library.Result, error)
	ScanProject(ctx context.Context, projectDir string) (library.Result, error)
}

// Watcher watches the library root, its containers and the top level of
// every project folder. Deeper changes are picked up by the next full scan.
type Watcher struct {
	layout    library.Layout
	scanner   Scanner
	fs        *fsnotify.Watcher
	debouncer *Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	scanMu sync.Mutex // held by a running rescan
	once   sync.Once
}

// New creates a watcher. delay <= 0 uses DefaultDelay.
func New(layout library.Layout, scanner Scanner, delay time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	w := &Watcher{layout: layout, scanner: scanner, fs: fsw}
	w.debouncer = NewDebouncer(delay, w.rescan)
	return w, nil
}

// Start adds the watches and begins handling events. ctx supplies the logger
// and bounds the rescans; Stop ends the watcher.
func (w *Watcher) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	if err := w.fs.Add(w.layout.Root); err != nil {
		return fmt.Errorf("failed to watch library root %s: %w", w.layout.Root, err)
	}
	containers, err := w.layout.Containers()
	if err != nil {
		return err
	}
	for _, c := range containers {
		w.addContainer(c, false)
	}

	w.wg.Add(1)
	go w.loop()
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "library watcher started",
		"root", w.layout.Root, "watches", len(w.fs.WatchList()))
	return nil
}

// Stop ends the watcher and waits for a running rescan to return.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		w.debouncer.Stop()
		if w.cancel != nil {
			w.cancel()
		}
		err = w.fs.Close()
		w.wg.Wait()
		w.scanMu.Lock()
		w.scanMu.Unlock()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	logger := contextutil.LoggerFromContext(w.ctx)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logger.WarnContext(w.ctx, "watch queue overflowed, scheduling full scan")
				w.debouncer.AddFull()
				continue
			}
			logger.WarnContext(w.ctx, "watch error", "error", err)
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	path := filepath.Clean(ev.Name)
	if base := filepath.Base(path); strings.HasPrefix(base, ".") && base != metadata.FileName {
		return
	}

	switch {
	case w.layout.IsContainer(path):
		if ev.Has(fsnotify.Create) {
			w.addContainer(path, true)
			return
		}
		if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
			w.debouncer.AddFull()
		}
	default:
		dir, ok := w.layout.ProjectFolderOf(path)
		if !ok {
			return
		}
		if dir == path && ev.Has(fsnotify.Create) {
			w.addWatch(dir)
		}
		w.debouncer.AddProject(dir)
	}
}

// addContainer watches a container and its project folders. queue also
// schedules the folders for a rescan, for containers that appeared after
// Start.
func (w *Watcher) addContainer(dir string, queue bool) {
	if !w.addWatch(dir) {
		return
	}
	folders, err := w.layout.ProjectFolders(dir)
	if err != nil {
		contextutil.LoggerFromContext(w.ctx).WarnContext(w.ctx, "failed to list project folders", "dir", dir, "error", err)
		return
	}
	for _, f := range folders {
		w.addWatch(f.Dir)
		if queue {
			w.debouncer.AddProject(f.Dir)
		}
	}
}

func (w *Watcher) addWatch(dir string) bool {
	if err := w.fs.Add(dir); err != nil {
		contextutil.LoggerFromContext(w.ctx).WarnContext(w.ctx, "failed to watch directory", "dir", dir, "error", err)
		return false
	}
	contextutil.LoggerFromContext(w.ctx).DebugContext(w.ctx, "watching directory", "dir", dir)
	return true
}

func (w *Watcher) rescan(b Batch) {
	w.scanMu.Lock()
	defer w.scanMu.Unlock()
	ctx := w.ctx
	if ctx.Err() != nil {
		return
	}
	logger := contextutil.LoggerFromContext(ctx)

	if b.Full {
		res, err := w.scanner.Scan(ctx, nil)
		if err != nil {
			logger.WarnContext(ctx, "watch scan failed", "error", err)
			return
		}
		logger.InfoContext(ctx, "watch scan finished", "upserted", res.Upserted, "removed", res.Removed)
		return
	}
	for _, dir := range b.Projects {
		if ctx.Err() != nil {
			return
		}
		res, err := w.scanner.ScanProject(ctx, dir)
		if err != nil {
			logger.WarnContext(ctx, "project rescan failed", "dir", dir, "error", err)
			continue
		}
		logger.DebugContext(ctx, "project rescanned", "dir", dir,
			"upserted", res.Upserted, "removed", res.Removed, "warnings", len(res.Warnings))
	}
}
