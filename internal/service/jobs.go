package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"dcpm/internal/contextutil"
	"dcpm/internal/library"
	"dcpm/internal/metrics"
)

// JobKind names a kind of background job.
type JobKind string

// Job kinds.
const (
	JobRebuild JobKind = "rebuild"
	JobScan    JobKind = "scan"
	JobMatch   JobKind = "match"
)

// JobState is the lifecycle state of a job.
type JobState string

// Job states.
const (
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

// maxFinishedJobs bounds how many finished jobs stay queryable.
const maxFinishedJobs = 32

// JobStatus is a point-in-time view of a job.
type JobStatus struct {
	ID         string               `json:"id"`
	Kind       JobKind              `json:"kind"`
	Scope      string               `json:"scope,omitempty"`
	State      JobState             `json:"state"`
	Progress   library.Progress     `json:"progress"`
	Warnings   []PartialScanWarning `json:"warnings"`
	Result     any                  `json:"result,omitempty"`
	Error      string               `json:"error,omitempty"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt *time.Time           `json:"finished_at,omitempty"`
}

// Job is a handle on a background rebuild, scan or match.
type Job struct {
	id      string
	kind    JobKind
	scope   string
	started time.Time
	cancel  context.CancelFunc
	done    chan struct{}

	mu       sync.Mutex
	state    JobState
	progress library.Progress
	warnings []PartialScanWarning
	result   any
	err      error
	finished time.Time
}

// ID returns the job identifier.
func (j *Job) ID() string { return j.id }

// Kind returns the job kind.
func (j *Job) Kind() JobKind { return j.kind }

// Cancel requests cooperative cancellation. Work already committed stays.
func (j *Job) Cancel() { j.cancel() }

// Done is closed when the job finishes.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job finishes or ctx ends. The returned error is the
// job's own failure, if any.
func (j *Job) Wait(ctx context.Context) (JobStatus, error) {
	select {
	case <-j.done:
	case <-ctx.Done():
		return j.Status(), ctx.Err()
	}
	j.mu.Lock()
	err := j.err
	j.mu.Unlock()
	return j.Status(), err
}

// Status returns a snapshot of the job.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	st := JobStatus{
		ID:        j.id,
		Kind:      j.kind,
		Scope:     j.scope,
		State:     j.state,
		Progress:  j.progress,
		Warnings:  append([]PartialScanWarning{}, j.warnings...),
		Result:    j.result,
		StartedAt: j.started,
	}
	if j.err != nil {
		st.Error = j.err.Error()
	}
	if !j.finished.IsZero() {
		f := j.finished
		st.FinishedAt = &f
	}
	return st
}

func (j *Job) report(p library.Progress) {
	j.mu.Lock()
	j.progress = p
	j.mu.Unlock()
}

// jobFunc does the work of a job and returns its result and warnings.
type jobFunc func(ctx context.Context, progress library.ProgressFunc) (any, []PartialScanWarning, error)

// jobRunner starts jobs, allowing one running job per kind.
type jobRunner struct {
	metrics *metrics.Metrics

	mu       sync.Mutex
	running  map[JobKind]*Job
	jobs     map[string]*Job
	finished []string
	wg       sync.WaitGroup
}

func newJobRunner(m *metrics.Metrics) *jobRunner {
	return &jobRunner{
		metrics: m,
		running: make(map[JobKind]*Job),
		jobs:    make(map[string]*Job),
	}
}

// start runs fn in the background unless a job of the same kind is running.
// A running job with the same scope is returned as is; one with another scope
// makes start fail with ErrConflict. The job outlives ctx but keeps its
// values, such as the logger.
func (r *jobRunner) start(ctx context.Context, kind JobKind, scope string, fn jobFunc) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.running[kind]; ok {
		if j.scope != scope {
			return nil, fmt.Errorf("%s job %s is running for %q: %w", kind, j.id, j.scope, ErrConflict)
		}
		return j, nil
	}

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	j := &Job{
		id:      uuid.NewString(),
		kind:    kind,
		scope:   scope,
		started: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
		state:   JobRunning,
	}
	r.running[kind] = j
	r.jobs[j.id] = j

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		logger := contextutil.LoggerFromContext(jobCtx).With("job_id", j.id, "job_kind", string(kind), "job_scope", scope)
		runCtx := contextutil.WithLogger(jobCtx, logger)
		logger.InfoContext(runCtx, "job started")

		result, warnings, err := fn(runCtx, j.report)
		r.finish(j, result, warnings, err)

		st := j.Status()
		r.metrics.JobFinished(string(kind), string(st.State), time.Since(j.started))
		for _, w := range warnings {
			r.metrics.Warning(w.Kind)
		}
		if err != nil {
			logger.WarnContext(runCtx, "job ended with error", "state", st.State, "error", err)
			return
		}
		logger.InfoContext(runCtx, "job finished", "warnings", len(warnings))
	}()
	return j, nil
}

func (r *jobRunner) finish(j *Job, result any, warnings []PartialScanWarning, err error) {
	j.mu.Lock()
	j.result = result
	j.warnings = warnings
	j.err = err
	j.finished = time.Now()
	switch {
	case err == nil:
		j.state = JobSucceeded
	case errors.Is(err, context.Canceled):
		j.state = JobCancelled
	default:
		j.state = JobFailed
	}
	j.mu.Unlock()

	r.mu.Lock()
	delete(r.running, j.kind)
	r.finished = append(r.finished, j.id)
	for len(r.finished) > maxFinishedJobs {
		delete(r.jobs, r.finished[0])
		r.finished = r.finished[1:]
	}
	r.mu.Unlock()

	close(j.done)
}

func (r *jobRunner) get(id string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	return j, ok
}

// shutdown cancels running jobs and waits for them.
func (r *jobRunner) shutdown() {
	r.mu.Lock()
	for _, j := range r.running {
		j.cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}
