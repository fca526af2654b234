package schedule

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"dcpm/internal/library"
	"dcpm/internal/matcher"
	"dcpm/internal/service"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type countingMatcher struct {
	runs atomic.Int32
	root atomic.Value
}

func (c *countingMatcher) Run(ctx context.Context, root string, progress library.ProgressFunc) (matcher.Result, error) {
	c.root.Store(root)
	c.runs.Add(1)
	return matcher.Result{Scanned: 1}, nil
}

func (c *countingMatcher) RunForProject(ctx context.Context, root, projectID string) (matcher.Result, error) {
	return matcher.Result{}, nil
}

func TestNew_RejectsInterval(t *testing.T) {
	if _, err := New(nil, 0); err == nil {
		t.Error("New(0) error = nil, want error")
	}
}

func TestScheduler_RunsMatcher(t *testing.T) {
	m := &countingMatcher{}
	svc := service.New(service.Config{Matcher: m, ExternalRoot: "/mnt/inspection"})
	defer svc.Close()

	s, err := New(svc, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for m.runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := m.runs.Load(); got < 2 {
		t.Fatalf("matcher runs = %d, want at least 2", got)
	}
	if root, _ := m.root.Load().(string); root != "/mnt/inspection" {
		t.Errorf("matcher root = %q", root)
	}
	if next, err := s.NextRun(); err != nil || next.IsZero() {
		t.Errorf("NextRun() = %v, %v", next, err)
	}
}

func TestScheduler_NextRunBeforeStart(t *testing.T) {
	s, err := New(nil, time.Minute)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Stop()
	if _, err := s.NextRun(); err == nil {
		t.Error("NextRun() error = nil before Start")
	}
}
