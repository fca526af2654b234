// Package matcher associates folders under an external resource root with
// the projects of the library.
package matcher

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_resource_writer.go -package=mocks dcpm/internal/matcher ResourceWriter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"dcpm/internal/contextutil"
	"dcpm/internal/library"
	"dcpm/internal/storage"
)

const batchSize = 200

// ResourceWriter is the store the matcher reads projects from and records
// resources into.
type ResourceWriter interface {
	ListProjects(ctx context.Context, f storage.Filter) ([]storage.ProjectSummary, error)
	RecordExternalResources(ctx context.Context, resources []storage.ExternalResource) (storage.RecordResult, error)
	ExternalResources(ctx context.Context, f storage.ResourceFilter) ([]storage.ExternalResource, error)
	IgnoreExternalResources(ctx context.Context, ids []int64) (int, error)
}

// Result summarizes a matcher run.
type Result struct {
	Scanned    int               `json:"scanned"`
	Matched    int               `json:"matched"`
	Unassigned int               `json:"unassigned"`
	Inserted   int               `json:"inserted"`
	Pruned     int               `json:"pruned"`
	Warnings   []library.Warning `json:"warnings"`
}

// Matcher walks an external root and records scored resource folders.
type Matcher struct {
	store   ResourceWriter
	scorer  *Scorer
	workers int

	mu sync.Mutex
}

// New creates a matcher.
func New(store ResourceWriter, w Weights) *Matcher {
	return &Matcher{
		store:   store,
		scorer:  NewScorer(w),
		workers: min(runtime.GOMAXPROCS(0), 8),
	}
}

// Run scores every folder under root against all projects. Folders below
// the threshold are recorded unassigned. Writes happen in batches; batches
// committed before a cancellation stay. Pending resources of root whose
// folder no longer exists are marked ignored at the end.
func (m *Matcher) Run(ctx context.Context, root string, progress library.ProgressFunc) (Result, error) {
	return m.run(ctx, root, "", progress)
}

// RunForProject records only the folders whose best match is projectID.
func (m *Matcher) RunForProject(ctx context.Context, root, projectID string) (Result, error) {
	return m.run(ctx, root, projectID, nil)
}

type scored struct {
	projectID string
	score     int
	ok        bool
}

func (m *Matcher) run(ctx context.Context, root, only string, progress library.ProgressFunc) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	logger := contextutil.LoggerFromContext(ctx)

	projects, err := m.store.ListProjects(ctx, storage.Filter{})
	if err != nil {
		return Result{}, fmt.Errorf("failed to list projects: %w", err)
	}
	candidates := make([]Candidate, 0, len(projects))
	for _, p := range projects {
		candidates = append(candidates, NewCandidate(p.ID, p.Name, p.Customer, p.CustomerCode, p.PartNumber))
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	folders, warnings, err := walk(ctx, root)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read resource root %s: %w", root, err)
	}
	logger.InfoContext(ctx, "matching resources", "root", root, "folders", len(folders), "projects", len(candidates))

	scores, err := m.scoreAll(ctx, folders, candidates)
	if err != nil {
		return Result{}, err
	}

	result := Result{Scanned: len(folders)}
	var batch []storage.ExternalResource
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		res, err := m.store.RecordExternalResources(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to record resources: %w", err)
		}
		result.Inserted += res.Inserted
		batch = batch[:0]
		return nil
	}

	for i, f := range folders {
		sc := scores[i]
		if only != "" && (!sc.ok || sc.projectID != only) {
			continue
		}
		if sc.ok {
			result.Matched++
		} else {
			result.Unassigned++
			logger.DebugContext(ctx, "folder below threshold", "path", f.FullPath, "score", sc.score)
		}
		batch = append(batch, storage.ExternalResource{
			ProjectID:    sc.projectID,
			ResourceType: ResourceType,
			RootPath:     root,
			FolderYear:   f.Year,
			FolderDate:   f.Date,
			FolderName:   f.Name,
			FullPath:     f.FullPath,
			MatchScore:   sc.score,
			Status:       storage.ResourcePending,
		})
		if len(batch) == batchSize {
			if err := ctx.Err(); err != nil {
				result.Warnings = warningsOrEmpty(warnings)
				return result, err
			}
			if err := flush(); err != nil {
				result.Warnings = warningsOrEmpty(warnings)
				return result, err
			}
		}
		progress.Report(library.Progress{Done: i + 1, Total: len(folders), Current: f.FullPath})
	}
	if err := ctx.Err(); err != nil {
		result.Warnings = warningsOrEmpty(warnings)
		return result, err
	}
	if err := flush(); err != nil {
		result.Warnings = warningsOrEmpty(warnings)
		return result, err
	}
	if only == "" {
		if result.Pruned, err = m.prune(ctx, root); err != nil {
			result.Warnings = warningsOrEmpty(warnings)
			return result, err
		}
	}

	result.Warnings = warningsOrEmpty(warnings)
	for _, w := range result.Warnings {
		logger.WarnContext(ctx, "resource walk warning", "kind", w.Kind, "path", w.Path, "message", w.Message)
	}
	logger.InfoContext(ctx, "resource matching completed", "scanned", result.Scanned, "matched", result.Matched,
		"unassigned", result.Unassigned, "inserted", result.Inserted, "pruned", result.Pruned)
	return result, nil
}

// prune ignores pending resources recorded under root whose folder is gone.
// Folders that cannot be checked for another reason stay pending.
func (m *Matcher) prune(ctx context.Context, root string) (int, error) {
	pending, err := m.store.ExternalResources(ctx, storage.ResourceFilter{Status: storage.ResourcePending})
	if err != nil {
		return 0, fmt.Errorf("failed to list pending resources: %w", err)
	}
	var gone []int64
	for _, r := range pending {
		if r.RootPath != root {
			continue
		}
		if _, err := os.Stat(r.FullPath); errors.Is(err, fs.ErrNotExist) {
			gone = append(gone, r.ID)
		}
	}
	if len(gone) == 0 {
		return 0, nil
	}
	n, err := m.store.IgnoreExternalResources(ctx, gone)
	if err != nil {
		return 0, fmt.Errorf("failed to ignore vanished resources: %w", err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "vanished resources ignored", "root", root, "count", n)
	return n, nil
}

// scoreAll scores folders in parallel, keeping their order.
func (m *Matcher) scoreAll(ctx context.Context, folders []folder, candidates []Candidate) ([]scored, error) {
	out := make([]scored, len(folders))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, f := range folders {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			id, score, ok := m.scorer.Best(f.Name, candidates)
			out[i] = scored{projectID: id, score: score, ok: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func warningsOrEmpty(w []library.Warning) []library.Warning {
	if w == nil {
		return []library.Warning{}
	}
	return w
}
