package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"dcpm/internal/library"
)

type recordingScanner struct {
	mu       sync.Mutex
	projects []string
	full     int
	calls    chan struct{}
}

func newRecordingScanner() *recordingScanner {
	return &recordingScanner{calls: make(chan struct{}, 64)}
}

func (r *recordingScanner) Scan(ctx context.Context, progress library.ProgressFunc) (library.Result, error) {
	r.mu.Lock()
	r.full++
	r.mu.Unlock()
	r.calls <- struct{}{}
	return library.Result{}, nil
}

func (r *recordingScanner) ScanProject(ctx context.Context, dir string) (library.Result, error) {
	r.mu.Lock()
	r.projects = append(r.projects, dir)
	r.mu.Unlock()
	r.calls <- struct{}{}
	return library.Result{}, nil
}

func (r *recordingScanner) scanned(dir string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.projects {
		if p == dir {
			return true
		}
	}
	return false
}

func (r *recordingScanner) fullScans() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.full
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startWatcher(t *testing.T, root string) *recordingScanner {
	t.Helper()
	scanner := newRecordingScanner()
	w, err := New(library.NewLayout(root, "", ""), scanner, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	})
	return scanner
}

func mkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
}

func TestWatcher_FileChangeRescansProject(t *testing.T) {
	root := t.TempDir()
	project := filepath.Join(root, "2024-03", "PRJ-202403-001_比亚迪_前梁")
	mkdir(t, project)
	scanner := startWatcher(t, root)

	if err := os.WriteFile(filepath.Join(project, "报价单.xlsx"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	waitFor(t, "project rescan", func() bool { return scanner.scanned(project) })
	if scanner.fullScans() != 0 {
		t.Errorf("full scans = %d, want 0", scanner.fullScans())
	}
}

func TestWatcher_NewContainerAndProject(t *testing.T) {
	root := t.TempDir()
	scanner := startWatcher(t, root)

	month := filepath.Join(root, "2024-05")
	mkdir(t, month)
	// give the watcher a moment to add the new container
	time.Sleep(50 * time.Millisecond)
	project := filepath.Join(month, "PRJ-202405-001_长安_支架")
	mkdir(t, project)

	waitFor(t, "new project rescan", func() bool { return scanner.scanned(project) })
}

func TestWatcher_RemovedProject(t *testing.T) {
	root := t.TempDir()
	project := filepath.Join(root, "归档项目", "PRJ-202301-004_a_b")
	mkdir(t, project)
	scanner := startWatcher(t, root)

	if err := os.RemoveAll(project); err != nil {
		t.Fatalf("RemoveAll() error = %v", err)
	}
	waitFor(t, "removed project rescan", func() bool { return scanner.scanned(project) })
}

func TestWatcher_IgnoresUnrelatedEntries(t *testing.T) {
	root := t.TempDir()
	scanner := startWatcher(t, root)

	mkdir(t, filepath.Join(root, "杂项"))
	mkdir(t, filepath.Join(root, ".pm_system"))
	if err := os.WriteFile(filepath.Join(root, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case <-scanner.calls:
		t.Error("unrelated change triggered a scan")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_StartMissingRoot(t *testing.T) {
	w, err := New(library.NewLayout(filepath.Join(t.TempDir(), "missing"), "", ""), newRecordingScanner(), 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Stop()
	if err := w.Start(context.Background()); err == nil {
		t.Error("Start() error = nil, want error for missing root")
	}
}
