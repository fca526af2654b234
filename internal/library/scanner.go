package library

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_index.go -package=mocks dcpm/internal/library Index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"dcpm/internal/contextutil"
	"dcpm/internal/metadata"
	"dcpm/internal/storage"
	"dcpm/internal/tagrules"
)

// Index is the part of the index store the scanner writes to.
type Index interface {
	Rebuild(ctx context.Context, projections []storage.Projection) (storage.RebuildResult, error)
	UpsertProject(ctx context.Context, p storage.Projection) (bool, error)
	DeleteProject(ctx context.Context, id string) error
	ProjectDirs(ctx context.Context) (map[string]string, error)
}

// Progress reports how far a pass has come.
type Progress struct {
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Current string `json:"current,omitempty"`
}

// ProgressFunc receives progress updates. It may be nil.
type ProgressFunc func(Progress)

// Report calls f when it is set.
func (f ProgressFunc) Report(p Progress) {
	if f != nil {
		f(p)
	}
}

// Result summarizes a scan or rebuild.
type Result struct {
	Projects  int       `json:"projects"`
	Upserted  int       `json:"upserted"`
	Unchanged int       `json:"unchanged"`
	Removed   int       `json:"removed"`
	Warnings  []Warning `json:"warnings"`
}

// Scanner reconciles the library tree with the index.
type Scanner struct {
	layout  Layout
	index   Index
	rules   *tagrules.Engine
	workers int

	// one pass at a time; the watcher and manual scans share the scanner
	mu sync.Mutex
}

// NewScanner creates a scanner for layout writing to index.
func NewScanner(layout Layout, index Index, rules *tagrules.Engine) *Scanner {
	workers := runtime.GOMAXPROCS(0)
	if workers > 8 {
		workers = 8
	}
	return &Scanner{
		layout:  layout,
		index:   index,
		rules:   rules,
		workers: workers,
	}
}

// Layout returns the scanned layout.
func (s *Scanner) Layout() Layout {
	return s.layout
}

// Rebuild reads every project and replaces the index contents in one store
// transaction. Nothing is written when ctx is cancelled first.
func (s *Scanner) Rebuild(ctx context.Context, progress ProgressFunc) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger := contextutil.LoggerFromContext(ctx)

	folders, warnings, err := s.discover(ctx)
	if err != nil {
		return Result{}, err
	}
	logger.InfoContext(ctx, "starting rebuild", "folders", len(folders))

	loaded, err := s.load(ctx, folders, progress)
	if err != nil {
		return Result{}, err
	}
	projections, w := collect(loaded)
	warnings = append(warnings, w...)

	before, err := s.index.ProjectDirs(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read indexed projects: %w", err)
	}
	warnings = append(warnings, missingFolders(before, projections)...)

	res, err := s.index.Rebuild(ctx, projections)
	if err != nil {
		return Result{}, fmt.Errorf("failed to write index: %w", err)
	}

	result := Result{
		Projects: res.Projects,
		Upserted: res.Projects,
		Removed:  res.Removed,
		Warnings: nonNil(warnings),
	}
	logWarnings(ctx, result.Warnings)
	logger.InfoContext(ctx, "rebuild completed", "projects", result.Projects, "removed", result.Removed, "warnings", len(result.Warnings))
	return result, nil
}

// Scan refreshes the index project by project. Each project is its own
// committed unit; on cancellation the units already written stay. Index rows
// whose folder disappeared are removed afterwards.
func (s *Scanner) Scan(ctx context.Context, progress ProgressFunc) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger := contextutil.LoggerFromContext(ctx)

	folders, warnings, err := s.discover(ctx)
	if err != nil {
		return Result{}, err
	}
	loaded, err := s.load(ctx, folders, nil)
	if err != nil {
		return Result{}, err
	}
	projections, w := collect(loaded)
	warnings = append(warnings, w...)

	result := Result{Projects: len(projections)}
	seen := make(map[string]bool, len(projections))
	for i, p := range projections {
		if err := ctx.Err(); err != nil {
			result.Warnings = nonNil(warnings)
			return result, err
		}
		seen[p.ID] = true
		changed, err := s.index.UpsertProject(ctx, p)
		if err != nil {
			result.Warnings = nonNil(warnings)
			return result, fmt.Errorf("failed to index project %s: %w", p.ID, err)
		}
		if changed {
			result.Upserted++
		} else {
			result.Unchanged++
			logger.DebugContext(ctx, "project unchanged", "project_id", p.ID)
		}
		progress.Report(Progress{Done: i + 1, Total: len(projections), Current: p.ID})
	}

	indexed, err := s.index.ProjectDirs(ctx)
	if err != nil {
		result.Warnings = nonNil(warnings)
		return result, fmt.Errorf("failed to read indexed projects: %w", err)
	}
	for _, id := range sortedKeys(indexed) {
		if seen[id] || dirExists(indexed[id]) {
			continue
		}
		if err := ctx.Err(); err != nil {
			result.Warnings = nonNil(warnings)
			return result, err
		}
		warnings = append(warnings, Warning{Kind: WarnMissingFolder, Path: indexed[id], ProjectID: id,
			Message: "indexed project folder no longer exists"})
		if err := s.index.DeleteProject(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			result.Warnings = nonNil(warnings)
			return result, fmt.Errorf("failed to remove project %s: %w", id, err)
		}
		result.Removed++
	}

	result.Warnings = nonNil(warnings)
	logWarnings(ctx, result.Warnings)
	logger.InfoContext(ctx, "scan completed", "projects", result.Projects, "upserted", result.Upserted,
		"unchanged", result.Unchanged, "removed", result.Removed, "warnings", len(result.Warnings))
	return result, nil
}

// ScanProject refreshes one project folder. A folder that no longer exists
// removes the projects indexed at that location.
func (s *Scanner) ScanProject(ctx context.Context, projectDir string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectDir = filepath.Clean(projectDir)
	if !dirExists(projectDir) {
		indexed, err := s.index.ProjectDirs(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("failed to read indexed projects: %w", err)
		}
		var result Result
		for _, id := range sortedKeys(indexed) {
			if filepath.Clean(indexed[id]) != projectDir {
				continue
			}
			if err := s.index.DeleteProject(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
				return result, fmt.Errorf("failed to remove project %s: %w", id, err)
			}
			result.Removed++
			result.Warnings = append(result.Warnings, Warning{Kind: WarnMissingFolder, Path: projectDir, ProjectID: id,
				Message: "indexed project folder no longer exists"})
		}
		result.Warnings = nonNil(result.Warnings)
		return result, nil
	}

	folderID, _ := metadata.IDPrefix(filepath.Base(projectDir))
	p, warnings, ok := s.loadProject(ProjectFolder{Dir: projectDir, FolderID: folderID})
	result := Result{Warnings: nonNil(warnings)}
	if !ok {
		logWarnings(ctx, result.Warnings)
		return result, nil
	}
	result.Projects = 1
	changed, err := s.index.UpsertProject(ctx, p)
	if err != nil {
		return result, fmt.Errorf("failed to index project %s: %w", p.ID, err)
	}
	if changed {
		result.Upserted = 1
	} else {
		result.Unchanged = 1
	}
	logWarnings(ctx, result.Warnings)
	return result, nil
}

// discover lists project folders in a stable order. Only an unreadable root
// is an error.
func (s *Scanner) discover(ctx context.Context) ([]ProjectFolder, []Warning, error) {
	containers, err := s.layout.Containers()
	if err != nil {
		return nil, nil, err
	}
	var (
		folders  []ProjectFolder
		warnings []Warning
	)
	for _, c := range containers {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		found, err := s.layout.ProjectFolders(c)
		if err != nil {
			warnings = append(warnings, Warning{Kind: WarnUnreadable, Path: c, Message: err.Error()})
			continue
		}
		folders = append(folders, found...)
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Dir < folders[j].Dir })
	return folders, warnings, nil
}

type loadedProject struct {
	folder     ProjectFolder
	projection storage.Projection
	ok         bool
	warnings   []Warning
}

// load reads project folders in parallel, preserving their order.
func (s *Scanner) load(ctx context.Context, folders []ProjectFolder, progress ProgressFunc) ([]loadedProject, error) {
	out := make([]loadedProject, len(folders))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	var (
		mu   sync.Mutex
		done int
	)
	for i, f := range folders {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, w, ok := s.loadProject(f)
			out[i] = loadedProject{folder: f, projection: p, ok: ok, warnings: w}

			mu.Lock()
			done++
			progress.Report(Progress{Done: done, Total: len(folders), Current: f.Dir})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// loadProject builds the projection of one folder. ok is false when the
// folder has to be skipped for this pass.
func (s *Scanner) loadProject(f ProjectFolder) (storage.Projection, []Warning, bool) {
	var warnings []Warning

	p, err := metadata.ReadDir(f.Dir)
	if err != nil {
		var malformed *metadata.MalformedError
		switch {
		case errors.Is(err, metadata.ErrNoMetadata):
			warnings = append(warnings, Warning{Kind: WarnMissingMetadata, Path: f.Dir, ProjectID: f.FolderID,
				Message: "project folder has no " + metadata.FileName})
		case errors.As(err, &malformed):
			warnings = append(warnings, Warning{Kind: WarnMalformedMetadata, Path: malformed.Path, ProjectID: f.FolderID,
				Message: malformed.Err.Error()})
		default:
			warnings = append(warnings, Warning{Kind: WarnUnreadable, Path: f.Dir, ProjectID: f.FolderID, Message: err.Error()})
		}
		return storage.Projection{}, warnings, false
	}

	if f.FolderID != "" && f.FolderID != p.ID {
		warnings = append(warnings, Warning{Kind: WarnIDMismatch, Path: f.Dir, ProjectID: p.ID,
			Message: fmt.Sprintf("folder is named %s but metadata id is %s", f.FolderID, p.ID)})
	}

	items, w := contentTree(f.Dir, p.ID)
	warnings = append(warnings, w...)

	present := make(map[string]bool, len(items))
	for _, it := range items {
		present[it.RelPath] = true
	}

	var manual []storage.ItemTag
	for _, rel := range sortedKeys(p.ItemTags) {
		if !present[rel] {
			warnings = append(warnings, Warning{Kind: WarnStaleItemTag, Path: filepath.Join(f.Dir, filepath.FromSlash(rel)),
				ProjectID: p.ID, Message: "item_tags entry has no matching file"})
		}
		for _, tag := range p.ItemTags[rel] {
			cat := s.rules.CategoryOf(tag)
			manual = append(manual, storage.ItemTag{RelPath: rel, Name: tag, Category: cat, Color: s.rules.ColorFor(cat)})
		}
	}

	var auto []storage.ItemTag
	for _, it := range items {
		for _, c := range s.rules.Derive(it.Name, itemExt(it)) {
			auto = append(auto, storage.ItemTag{RelPath: it.RelPath, Name: c.Name, Category: c.Category, Color: s.rules.ColorFor(c.Category)})
		}
	}

	return storage.Projection{
		ID:           p.ID,
		Name:         p.Name,
		Customer:     p.Customer,
		CustomerCode: p.CustomerCode,
		PartNumber:   p.PartNumber,
		Description:  p.Description,
		CoverImage:   p.CoverImage,
		Status:       p.Status,
		Tags:         p.Tags,
		CreateTime:   p.CreateTime,
		ProjectDir:   f.Dir,
		Items:        items,
		ManualTags:   manual,
		AutoTags:     auto,
	}, warnings, true
}

// collect keeps the loaded projections, dropping later folders that reuse an
// identifier.
func collect(loaded []loadedProject) ([]storage.Projection, []Warning) {
	var (
		out      []storage.Projection
		warnings []Warning
	)
	owner := make(map[string]string)
	for _, l := range loaded {
		warnings = append(warnings, l.warnings...)
		if !l.ok {
			continue
		}
		id := l.projection.ID
		if first, dup := owner[id]; dup {
			warnings = append(warnings, Warning{Kind: WarnDuplicateID, Path: l.folder.Dir, ProjectID: id,
				Message: "identifier already used by " + first})
			continue
		}
		owner[id] = l.folder.Dir
		out = append(out, l.projection)
	}
	return out, warnings
}

func missingFolders(indexed map[string]string, projections []storage.Projection) []Warning {
	present := make(map[string]bool, len(projections))
	for _, p := range projections {
		present[p.ID] = true
	}
	var out []Warning
	for _, id := range sortedKeys(indexed) {
		if present[id] || dirExists(indexed[id]) {
			continue
		}
		out = append(out, Warning{Kind: WarnMissingFolder, Path: indexed[id], ProjectID: id,
			Message: "indexed project folder no longer exists"})
	}
	return out
}

func logWarnings(ctx context.Context, warnings []Warning) {
	logger := contextutil.LoggerFromContext(ctx)
	for _, w := range warnings {
		logger.WarnContext(ctx, "reconciliation warning", "kind", w.Kind, "path", w.Path, "project_id", w.ProjectID, "message", w.Message)
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func nonNil(w []Warning) []Warning {
	if w == nil {
		return []Warning{}
	}
	return w
}
