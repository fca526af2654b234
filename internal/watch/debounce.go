package watch

import (
	"sort"
	"sync"
	"time"
)

// Batch is the set of changes collected during one quiet period.
type Batch struct {
	Projects []string // project folders to rescan, sorted
	Full     bool     // a container changed; rescan everything
}

// Debouncer collects project changes and hands them to a callback once no
// new change arrived for the configured duration.
type Debouncer struct {
	duration time.Duration
	callback func(Batch)

	mu       sync.Mutex
	timer    *time.Timer
	projects map[string]struct{}
	full     bool
	stopped  bool
}

// NewDebouncer creates a debouncer calling fn after each quiet period.
func NewDebouncer(duration time.Duration, fn func(Batch)) *Debouncer {
	return &Debouncer{
		duration: duration,
		callback: fn,
		projects: make(map[string]struct{}),
	}
}

// AddProject queues a project folder.
func (d *Debouncer) AddProject(dir string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.projects[dir] = struct{}{}
	d.resetLocked()
}

// AddFull queues a full scan.
func (d *Debouncer) AddFull() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.full = true
	d.resetLocked()
}

func (d *Debouncer) resetLocked() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	if d.stopped || (len(d.projects) == 0 && !d.full) {
		d.mu.Unlock()
		return
	}
	b := Batch{Full: d.full}
	for dir := range d.projects {
		b.Projects = append(b.Projects, dir)
	}
	sort.Strings(b.Projects)
	d.projects = make(map[string]struct{})
	d.full = false
	d.mu.Unlock()

	d.callback(b)
}

// Stop drops pending changes. Later additions are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.stopped = true
	d.projects = make(map[string]struct{})
	d.full = false
}
