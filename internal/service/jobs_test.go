package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dcpm/internal/library"
	"dcpm/internal/matcher"
	"dcpm/internal/service"
)

// blockingScanner holds every pass until release is closed or ctx ends.
type blockingScanner struct {
	started chan struct{}
	release chan struct{}
	err     error
}

func newBlockingScanner() *blockingScanner {
	return &blockingScanner{started: make(chan struct{}, 4), release: make(chan struct{})}
}

func (b *blockingScanner) run(ctx context.Context, progress library.ProgressFunc) (library.Result, error) {
	b.started <- struct{}{}
	progress.Report(library.Progress{Done: 1, Total: 2, Current: "walk"})
	select {
	case <-b.release:
	case <-ctx.Done():
		return library.Result{}, ctx.Err()
	}
	if b.err != nil {
		return library.Result{}, b.err
	}
	return library.Result{Projects: 2, Upserted: 2}, nil
}

func (b *blockingScanner) Rebuild(ctx context.Context, progress library.ProgressFunc) (library.Result, error) {
	return b.run(ctx, progress)
}

func (b *blockingScanner) Scan(ctx context.Context, progress library.ProgressFunc) (library.Result, error) {
	return b.run(ctx, progress)
}

func (b *blockingScanner) ScanProject(ctx context.Context, _ string) (library.Result, error) {
	return library.Result{Projects: 1}, nil
}

func waitStarted(t *testing.T, b *blockingScanner) {
	t.Helper()
	select {
	case <-b.started:
	case <-time.After(5 * time.Second):
		t.Fatal("scanner was not started")
	}
}

func TestJobs_OnePerKind(t *testing.T) {
	scanner := newBlockingScanner()
	svc := service.New(service.Config{Scanner: scanner})
	defer svc.Close()
	ctx := context.Background()

	first, err := svc.TriggerScan(ctx)
	if err != nil {
		t.Fatalf("TriggerScan() error = %v", err)
	}
	waitStarted(t, scanner)

	second, err := svc.TriggerScan(ctx)
	if err != nil {
		t.Fatalf("TriggerScan() error = %v", err)
	}
	if second.ID() != first.ID() {
		t.Errorf("second TriggerScan() started job %s, want running job %s", second.ID(), first.ID())
	}

	st := first.Status()
	if st.State != service.JobRunning || st.Progress.Done != 1 || st.FinishedAt != nil {
		t.Errorf("Status() while running = %+v", st)
	}

	close(scanner.release)
	st, err = first.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if st.State != service.JobSucceeded || st.FinishedAt == nil {
		t.Errorf("Status() after finish = %+v", st)
	}
	if res, ok := st.Result.(library.Result); !ok || res.Upserted != 2 {
		t.Errorf("Result = %#v", st.Result)
	}

	got, err := svc.Job(ctx, first.ID())
	if err != nil || got != first {
		t.Errorf("Job() = %v, %v", got, err)
	}

	third, err := svc.TriggerScan(ctx)
	if err != nil {
		t.Fatalf("TriggerScan() error = %v", err)
	}
	if third.ID() == first.ID() {
		t.Error("TriggerScan() after finish reused the finished job")
	}
	if _, err := third.Wait(ctx); err != nil {
		t.Errorf("third Wait() error = %v", err)
	}
}

func TestJobs_OutliveRequestContext(t *testing.T) {
	scanner := newBlockingScanner()
	svc := service.New(service.Config{Scanner: scanner})
	defer svc.Close()

	reqCtx, cancel := context.WithCancel(context.Background())
	j, err := svc.TriggerRebuild(reqCtx)
	if err != nil {
		t.Fatalf("TriggerRebuild() error = %v", err)
	}
	waitStarted(t, scanner)
	cancel()
	close(scanner.release)

	st, err := j.Wait(context.Background())
	if err != nil || st.State != service.JobSucceeded {
		t.Errorf("Wait() = %v, %v, want succeeded", st.State, err)
	}
}

func TestJobs_Cancel(t *testing.T) {
	scanner := newBlockingScanner()
	svc := service.New(service.Config{Scanner: scanner})
	defer svc.Close()
	ctx := context.Background()

	j, err := svc.TriggerRebuild(ctx)
	if err != nil {
		t.Fatalf("TriggerRebuild() error = %v", err)
	}
	waitStarted(t, scanner)
	j.Cancel()

	st, err := j.Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
	if st.State != service.JobCancelled {
		t.Errorf("State = %s, want %s", st.State, service.JobCancelled)
	}
}

func TestJobs_Failure(t *testing.T) {
	scanner := newBlockingScanner()
	scanner.err = errors.New("disk gone")
	close(scanner.release)
	svc := service.New(service.Config{Scanner: scanner})
	defer svc.Close()
	ctx := context.Background()

	j, err := svc.TriggerScan(ctx)
	if err != nil {
		t.Fatalf("TriggerScan() error = %v", err)
	}
	st, err := j.Wait(ctx)
	if !errors.Is(err, service.ErrInternal) {
		t.Errorf("Wait() error = %v, want ErrInternal", err)
	}
	if st.State != service.JobFailed || st.Error == "" {
		t.Errorf("Status() = %+v", st)
	}
}

func TestJobs_WaitContext(t *testing.T) {
	scanner := newBlockingScanner()
	svc := service.New(service.Config{Scanner: scanner})
	defer svc.Close()

	j, err := svc.TriggerScan(context.Background())
	if err != nil {
		t.Fatalf("TriggerScan() error = %v", err)
	}
	waitStarted(t, scanner)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	st, err := j.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) || st.State != service.JobRunning {
		t.Errorf("Wait() = %v, %v, want running and deadline exceeded", st.State, err)
	}
}

// blockingMatcher holds every run until release is closed or ctx ends.
type blockingMatcher struct {
	started chan string
	release chan struct{}
}

func (b *blockingMatcher) wait(ctx context.Context, scope string) (matcher.Result, error) {
	b.started <- scope
	select {
	case <-b.release:
		return matcher.Result{}, nil
	case <-ctx.Done():
		return matcher.Result{}, ctx.Err()
	}
}

func (b *blockingMatcher) Run(ctx context.Context, root string, progress library.ProgressFunc) (matcher.Result, error) {
	return b.wait(ctx, "")
}

func (b *blockingMatcher) RunForProject(ctx context.Context, root, projectID string) (matcher.Result, error) {
	return b.wait(ctx, projectID)
}

func TestJobs_MatchScope(t *testing.T) {
	m := &blockingMatcher{started: make(chan string, 4), release: make(chan struct{})}
	svc := service.New(service.Config{Matcher: m, ExternalRoot: t.TempDir()})
	defer svc.Close()
	ctx := context.Background()

	first, err := svc.TriggerMatch(ctx, "PRJ-202403-001")
	if err != nil {
		t.Fatalf("TriggerMatch() error = %v", err)
	}
	select {
	case <-m.started:
	case <-time.After(5 * time.Second):
		t.Fatal("matcher was not started")
	}

	tests := []struct {
		name      string
		projectID string
		wantSame  bool
		wantErr   error
	}{
		{name: "same project joins the run", projectID: "PRJ-202403-001", wantSame: true},
		{name: "other project conflicts", projectID: "PRJ-202403-002", wantErr: service.ErrConflict},
		{name: "full run conflicts", projectID: "", wantErr: service.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.TriggerMatch(ctx, tt.projectID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("TriggerMatch(%q) error = %v, want %v", tt.projectID, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("TriggerMatch(%q) error = %v", tt.projectID, err)
			}
			if (got.ID() == first.ID()) != tt.wantSame {
				t.Errorf("TriggerMatch(%q) job = %s, first = %s", tt.projectID, got.ID(), first.ID())
			}
		})
	}

	if st := first.Status(); st.Scope != "PRJ-202403-001" {
		t.Errorf("Status().Scope = %q", st.Scope)
	}
	close(m.release)
	if _, err := first.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	// once the scoped run is over a full run may start
	next, err := svc.TriggerMatch(ctx, "")
	if err != nil {
		t.Fatalf("TriggerMatch() after finish error = %v", err)
	}
	if _, err := next.Wait(ctx); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}
