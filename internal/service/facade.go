// Package service is the single API surface over the index: validation,
// composition of the store, scanner and matcher, and background jobs.
package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_facade.go -package=mocks dcpm/internal/service Facade

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"dcpm/internal/contextutil"
	"dcpm/internal/library"
	"dcpm/internal/matcher"
	"dcpm/internal/metadata"
	"dcpm/internal/metrics"
	"dcpm/internal/notes"
	"dcpm/internal/storage"
	"dcpm/internal/tagrules"
)

// Index is the part of the index store the facade uses.
type Index interface {
	Search(ctx context.Context, query string, limit int, opts storage.SearchOptions) ([]string, error)
	GetProject(ctx context.Context, id string) (storage.ProjectSummary, error)
	GetProjects(ctx context.Context, ids []string) ([]storage.ProjectSummary, error)
	ListProjects(ctx context.Context, f storage.Filter) ([]storage.ProjectSummary, error)
	GetStats(ctx context.Context, topN, recentN int) (storage.Stats, error)
	TagsFor(ctx context.Context, path string) ([]storage.FileTag, error)
	AddFileTag(ctx context.Context, t storage.FileTag) (storage.FileTag, bool, error)
	RemoveFileTag(ctx context.Context, path, name string, derived bool) (storage.FileTag, error)
	DisableAutoTag(ctx context.Context, path, name string) error
	EnableAutoTag(ctx context.Context, path, name string) error
	ExternalResources(ctx context.Context, f storage.ResourceFilter) ([]storage.ExternalResource, error)
	SetExternalResourceStatus(ctx context.Context, id int64, status string) error
	SetPinned(ctx context.Context, id string, pinned bool) error
	MarkOpened(ctx context.Context, id string) error
	GetNote(ctx context.Context, path string) (storage.Note, error)
	SaveNote(ctx context.Context, path, content, plainText string) (storage.Note, error)
	PartNumberInUse(ctx context.Context, partNumber, excludeID string) (bool, error)
}

// LibraryScanner rebuilds and refreshes the index from the library tree.
type LibraryScanner interface {
	Rebuild(ctx context.Context, progress library.ProgressFunc) (library.Result, error)
	Scan(ctx context.Context, progress library.ProgressFunc) (library.Result, error)
	ScanProject(ctx context.Context, projectDir string) (library.Result, error)
}

// ResourceMatcher records external resource folders.
type ResourceMatcher interface {
	Run(ctx context.Context, root string, progress library.ProgressFunc) (matcher.Result, error)
	RunForProject(ctx context.Context, root, projectID string) (matcher.Result, error)
}

// ListRequest filters ListProjects.
type ListRequest struct {
	Status string
	Tag    string
	Pinned *bool
}

// SearchRequest is a full-text search.
type SearchRequest struct {
	Query           string
	Limit           int
	IncludeArchived bool
}

// TagRequest adds a manual tag to an item. Category is optional.
type TagRequest struct {
	Path     string
	Name     string
	Category string
}

// ResourceQuery filters ExternalResources.
type ResourceQuery struct {
	ProjectID  string
	Status     string
	Unassigned bool
}

// Facade is the API the HTTP layer and other consumers call.
type Facade interface {
	Search(ctx context.Context, req SearchRequest) ([]storage.ProjectSummary, error)
	ListProjects(ctx context.Context, req ListRequest) ([]storage.ProjectSummary, error)
	ListByStatus(ctx context.Context, status string) ([]storage.ProjectSummary, error)
	ListByTag(ctx context.Context, tag string) ([]storage.ProjectSummary, error)
	GetStats(ctx context.Context) (storage.Stats, error)

	CreateProject(ctx context.Context, req CreateProjectRequest) (storage.ProjectSummary, error)
	UpdateProject(ctx context.Context, projectID string, upd ProjectUpdate) (storage.ProjectSummary, error)
	ArchiveProject(ctx context.Context, projectID string) (storage.ProjectSummary, error)
	UnarchiveProject(ctx context.Context, projectID, status string) (storage.ProjectSummary, error)

	TagsFor(ctx context.Context, path string) ([]storage.FileTag, error)
	SuggestTags(ctx context.Context, name string) ([]tagrules.Candidate, error)
	QuickTags(ctx context.Context) []tagrules.QuickTag
	AddTag(ctx context.Context, req TagRequest) (storage.FileTag, error)
	RemoveTag(ctx context.Context, path, name string) error
	DisableAutoTag(ctx context.Context, path, name string) error
	EnableAutoTag(ctx context.Context, path, name string) error

	PendingExternalResources(ctx context.Context, projectID string) ([]storage.ExternalResource, error)
	ExternalResources(ctx context.Context, q ResourceQuery) ([]storage.ExternalResource, error)
	ReviewExternalResource(ctx context.Context, id int64, status string) error

	SetPinned(ctx context.Context, projectID string, pinned bool) error
	MarkOpened(ctx context.Context, projectID string) error
	GetNote(ctx context.Context, path string) (storage.Note, error)
	SaveNote(ctx context.Context, path, content string) (storage.Note, error)

	TriggerRebuild(ctx context.Context) (*Job, error)
	TriggerScan(ctx context.Context) (*Job, error)
	TriggerMatch(ctx context.Context, projectID string) (*Job, error)
	Job(ctx context.Context, id string) (*Job, error)
}

// Config wires a facade. Layout is where created projects go and archived
// ones move to; Clock defaults to time.Now.
type Config struct {
	Index        Index
	Scanner      LibraryScanner
	Layout       library.Layout
	Clock        func() time.Time
	Matcher      ResourceMatcher
	Rules        *tagrules.Engine
	Notes        *notes.Renderer
	Metrics      *metrics.Metrics
	ExternalRoot string
	TopTags      int
	RecentItems  int
}

// Service implements Facade.
type Service struct {
	index        Index
	scanner      LibraryScanner
	layout       library.Layout
	clock        func() time.Time
	matcher      ResourceMatcher
	rules        *tagrules.Engine
	notes        *notes.Renderer
	metrics      *metrics.Metrics
	externalRoot string
	topTags      int
	recent       int
	jobs         *jobRunner
}

// New creates the facade. Close cancels its running jobs.
func New(cfg Config) *Service {
	rules := cfg.Rules
	if rules == nil {
		rules = tagrules.Default()
	}
	renderer := cfg.Notes
	if renderer == nil {
		renderer = notes.NewRenderer()
	}
	top, recent := cfg.TopTags, cfg.RecentItems
	if top <= 0 {
		top = 10
	}
	if recent <= 0 {
		recent = 10
	}
	return &Service{
		index:        cfg.Index,
		scanner:      cfg.Scanner,
		layout:       cfg.Layout,
		clock:        cfg.Clock,
		matcher:      cfg.Matcher,
		rules:        rules,
		notes:        renderer,
		metrics:      cfg.Metrics,
		externalRoot: cfg.ExternalRoot,
		topTags:      top,
		recent:       recent,
		jobs:         newJobRunner(cfg.Metrics),
	}
}

// Close cancels running jobs and waits for them to stop.
func (f *Service) Close() {
	f.jobs.shutdown()
}

var _ Facade = (*Service)(nil)

func (f *Service) fail(ctx context.Context, err error, msg string) error {
	out := translate(err, msg)
	var unavail *StoreUnavailableError
	switch {
	case errors.As(out, &unavail):
		class := "corrupt"
		if unavail.Busy {
			class = "busy"
		}
		f.metrics.StoreError(class)
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, msg, "error", err)
	case errors.Is(out, ErrInternal):
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, msg, "error", err)
	}
	return out
}

func (f *Service) Search(ctx context.Context, req SearchRequest) ([]storage.ProjectSummary, error) {
	start := time.Now()
	q, err := validateQuery(req.Query)
	if err != nil {
		return nil, err
	}
	limit, err := validateLimit(req.Limit)
	if err != nil {
		return nil, err
	}

	ids, err := f.index.Search(ctx, q, limit, storage.SearchOptions{IncludeArchived: req.IncludeArchived})
	if err != nil {
		f.metrics.Search("error", time.Since(start))
		return nil, f.fail(ctx, err, "failed to search")
	}
	out, err := f.index.GetProjects(ctx, ids)
	if err != nil {
		f.metrics.Search("error", time.Since(start))
		return nil, f.fail(ctx, err, "failed to load search results")
	}
	f.metrics.Search("ok", time.Since(start))
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "search served", "query", q, "results", len(out))
	return out, nil
}

func (f *Service) ListProjects(ctx context.Context, req ListRequest) ([]storage.ProjectSummary, error) {
	if req.Status != "" {
		if err := validateProjectStatus(req.Status); err != nil {
			return nil, err
		}
	}
	out, err := f.index.ListProjects(ctx, storage.Filter{Status: req.Status, Tag: req.Tag, Pinned: req.Pinned})
	if err != nil {
		return nil, f.fail(ctx, err, "failed to list projects")
	}
	return out, nil
}

func (f *Service) ListByStatus(ctx context.Context, status string) ([]storage.ProjectSummary, error) {
	if err := validateProjectStatus(status); err != nil {
		return nil, err
	}
	return f.ListProjects(ctx, ListRequest{Status: status})
}

func (f *Service) ListByTag(ctx context.Context, tag string) ([]storage.ProjectSummary, error) {
	tag, err := validateTagName(tag)
	if err != nil {
		return nil, err
	}
	return f.ListProjects(ctx, ListRequest{Tag: tag})
}

func (f *Service) GetStats(ctx context.Context) (storage.Stats, error) {
	st, err := f.index.GetStats(ctx, f.topTags, f.recent)
	if err != nil {
		return storage.Stats{}, f.fail(ctx, err, "failed to compute stats")
	}
	return st, nil
}

func (f *Service) TagsFor(ctx context.Context, path string) ([]storage.FileTag, error) {
	path, _, _, err := validateItemPath(path)
	if err != nil {
		return nil, err
	}
	tags, err := f.index.TagsFor(ctx, path)
	if err != nil {
		return nil, f.fail(ctx, err, "failed to list tags")
	}
	return tags, nil
}

// SuggestTags runs the tag rules over an item name.
func (f *Service) SuggestTags(ctx context.Context, name string) ([]tagrules.Candidate, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	out := f.rules.Derive(name, "")
	if out == nil {
		out = []tagrules.Candidate{}
	}
	return out, nil
}

func (f *Service) QuickTags(ctx context.Context) []tagrules.QuickTag {
	return f.rules.Quick()
}

// AddTag writes the tag into the project's sidecar first, then into the
// index, so a rescan reproduces it.
func (f *Service) AddTag(ctx context.Context, req TagRequest) (storage.FileTag, error) {
	path, projectID, rel, err := validateItemPath(req.Path)
	if err != nil {
		return storage.FileTag{}, err
	}
	name, err := validateTagName(req.Name)
	if err != nil {
		return storage.FileTag{}, err
	}
	if err := validateCategory(req.Category); err != nil {
		return storage.FileTag{}, err
	}

	project, err := f.index.GetProject(ctx, projectID)
	if err != nil {
		return storage.FileTag{}, f.fail(ctx, err, "failed to find project "+projectID)
	}
	_, err = metadata.Update(metadata.PathFor(project.ProjectDir), func(p *metadata.Project) error {
		metadata.AddItemTag(p, rel, name)
		return nil
	})
	if err != nil {
		return storage.FileTag{}, f.fail(ctx, err, "failed to update project metadata")
	}

	category := req.Category
	if category == "" {
		category = f.rules.CategoryOf(name)
	}
	tag, changed, err := f.index.AddFileTag(ctx, storage.FileTag{
		Path:     path,
		Name:     name,
		Category: category,
		Color:    f.tagColor(name, category),
		Source:   storage.SourceManual,
	})
	if err != nil {
		return storage.FileTag{}, f.fail(ctx, err, "failed to add tag")
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "tag added", "path", path, "tag", name, "changed", changed)
	return tag, nil
}

// tagColor prefers the color of a matching quick preset.
func (f *Service) tagColor(name, category string) string {
	for _, q := range f.rules.Quick() {
		if q.Name == name && q.Category == category {
			return q.Color
		}
	}
	return f.rules.ColorFor(category)
}

// RemoveTag removes a tag from an item. Manual tags leave the sidecar too.
// Auto tags, and manual tags the rules would derive again, are disabled so
// rescans do not restore them.
func (f *Service) RemoveTag(ctx context.Context, path, name string) error {
	path, projectID, rel, err := validateItemPath(path)
	if err != nil {
		return err
	}
	name, err = validateTagName(name)
	if err != nil {
		return err
	}

	tags, err := f.index.TagsFor(ctx, path)
	if err != nil {
		return f.fail(ctx, err, "failed to list tags")
	}
	i := slices.IndexFunc(tags, func(t storage.FileTag) bool { return t.Name == name })
	if i < 0 {
		return fmt.Errorf("tag %q on %s: %w", name, path, ErrNotFound)
	}

	var derived bool
	if tags[i].Source == storage.SourceManual {
		project, err := f.index.GetProject(ctx, projectID)
		if err != nil {
			return f.fail(ctx, err, "failed to find project "+projectID)
		}
		_, err = metadata.Update(metadata.PathFor(project.ProjectDir), func(p *metadata.Project) error {
			metadata.RemoveItemTag(p, rel, name)
			return nil
		})
		if err != nil {
			return f.fail(ctx, err, "failed to update project metadata")
		}
		derived = f.derives(project.ProjectDir, rel, name)
	}

	removed, err := f.index.RemoveFileTag(ctx, path, name, derived)
	if err != nil {
		return f.fail(ctx, err, "failed to remove tag")
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "tag removed", "path", path, "tag", name, "source", removed.Source)
	return nil
}

// derives reports whether the tag rules produce name for the item, in which
// case a rescan would add it back as an auto tag.
func (f *Service) derives(projectDir, rel, name string) bool {
	ext := strings.ToLower(filepath.Ext(rel))
	if info, err := os.Stat(filepath.Join(projectDir, filepath.FromSlash(rel))); err == nil && info.IsDir() {
		ext = "-"
	}
	return slices.ContainsFunc(f.rules.Derive(path.Base(rel), ext), func(c tagrules.Candidate) bool {
		return c.Name == name
	})
}

func (f *Service) DisableAutoTag(ctx context.Context, path, name string) error {
	path, _, _, err := validateItemPath(path)
	if err != nil {
		return err
	}
	if name, err = validateTagName(name); err != nil {
		return err
	}
	if err := f.index.DisableAutoTag(ctx, path, name); err != nil {
		return f.fail(ctx, err, "failed to disable auto tag")
	}
	return nil
}

func (f *Service) EnableAutoTag(ctx context.Context, path, name string) error {
	path, _, _, err := validateItemPath(path)
	if err != nil {
		return err
	}
	if name, err = validateTagName(name); err != nil {
		return err
	}
	if err := f.index.EnableAutoTag(ctx, path, name); err != nil {
		return f.fail(ctx, err, "failed to enable auto tag")
	}
	return nil
}

func (f *Service) PendingExternalResources(ctx context.Context, projectID string) ([]storage.ExternalResource, error) {
	if err := validateProjectID(projectID); err != nil {
		return nil, err
	}
	return f.ExternalResources(ctx, ResourceQuery{ProjectID: projectID, Status: storage.ResourcePending})
}

func (f *Service) ExternalResources(ctx context.Context, q ResourceQuery) ([]storage.ExternalResource, error) {
	if q.ProjectID != "" {
		if err := validateProjectID(q.ProjectID); err != nil {
			return nil, err
		}
	}
	if q.Status != "" {
		if err := validateResourceStatus(q.Status); err != nil {
			return nil, err
		}
	}
	out, err := f.index.ExternalResources(ctx, storage.ResourceFilter{
		ProjectID:  q.ProjectID,
		Status:     q.Status,
		Unassigned: q.Unassigned,
	})
	if err != nil {
		return nil, f.fail(ctx, err, "failed to list external resources")
	}
	return out, nil
}

func (f *Service) ReviewExternalResource(ctx context.Context, id int64, status string) error {
	if id <= 0 {
		return &ValidationError{Field: "id", Message: "must be positive"}
	}
	if err := validateResourceStatus(status); err != nil {
		return err
	}
	if err := f.index.SetExternalResourceStatus(ctx, id, status); err != nil {
		return f.fail(ctx, err, fmt.Sprintf("failed to review resource %d", id))
	}
	return nil
}

func (f *Service) SetPinned(ctx context.Context, projectID string, pinned bool) error {
	if err := validateProjectID(projectID); err != nil {
		return err
	}
	if err := f.index.SetPinned(ctx, projectID, pinned); err != nil {
		return f.fail(ctx, err, "failed to pin project "+projectID)
	}
	return nil
}

func (f *Service) MarkOpened(ctx context.Context, projectID string) error {
	if err := validateProjectID(projectID); err != nil {
		return err
	}
	if err := f.index.MarkOpened(ctx, projectID); err != nil {
		return f.fail(ctx, err, "failed to mark project "+projectID+" opened")
	}
	return nil
}

func (f *Service) GetNote(ctx context.Context, path string) (storage.Note, error) {
	path, _, _, err := validateItemPath(path)
	if err != nil {
		return storage.Note{}, err
	}
	n, err := f.index.GetNote(ctx, path)
	if err != nil {
		return storage.Note{}, f.fail(ctx, err, "failed to get note")
	}
	return n, nil
}

// SaveNote stores a markdown note; empty content deletes it.
func (f *Service) SaveNote(ctx context.Context, path, content string) (storage.Note, error) {
	path, _, _, err := validateItemPath(path)
	if err != nil {
		return storage.Note{}, err
	}
	if err := validateNote(content); err != nil {
		return storage.Note{}, err
	}
	n, err := f.index.SaveNote(ctx, path, content, f.notes.PlainText(content))
	if err != nil {
		return storage.Note{}, f.fail(ctx, err, "failed to save note")
	}
	return n, nil
}

// TriggerRebuild starts a full rebuild, or returns the one already running.
func (f *Service) TriggerRebuild(ctx context.Context) (*Job, error) {
	return f.jobs.start(ctx, JobRebuild, "", func(ctx context.Context, progress library.ProgressFunc) (any, []PartialScanWarning, error) {
		res, err := f.scanner.Rebuild(ctx, progress)
		if err != nil {
			return nil, nil, f.fail(ctx, err, "rebuild failed")
		}
		f.metrics.Projects(res.Projects)
		return res, toWarnings(res.Warnings), nil
	})
}

// TriggerScan starts an incremental scan, or returns the one already running.
func (f *Service) TriggerScan(ctx context.Context) (*Job, error) {
	return f.jobs.start(ctx, JobScan, "", func(ctx context.Context, progress library.ProgressFunc) (any, []PartialScanWarning, error) {
		res, err := f.scanner.Scan(ctx, progress)
		if err != nil {
			// units committed before the failure stay; report what was seen
			return res, toWarnings(res.Warnings), f.fail(ctx, err, "scan failed")
		}
		f.metrics.Projects(res.Projects)
		return res, toWarnings(res.Warnings), nil
	})
}

// TriggerMatch starts a matcher run over the external root. A project id
// limits the run to folders matching that project. While a run is going, a
// request with the same project id gets that run back and any other request
// fails with ErrConflict.
func (f *Service) TriggerMatch(ctx context.Context, projectID string) (*Job, error) {
	if f.externalRoot == "" || f.matcher == nil {
		return nil, &ValidationError{Field: "external_root", Message: "no external resource root is configured"}
	}
	if projectID != "" {
		if err := validateProjectID(projectID); err != nil {
			return nil, err
		}
	}
	return f.jobs.start(ctx, JobMatch, projectID, func(ctx context.Context, progress library.ProgressFunc) (any, []PartialScanWarning, error) {
		var (
			res matcher.Result
			err error
		)
		if projectID == "" {
			res, err = f.matcher.Run(ctx, f.externalRoot, progress)
		} else {
			res, err = f.matcher.RunForProject(ctx, f.externalRoot, projectID)
		}
		f.metrics.Matched(res.Matched, res.Unassigned)
		if err != nil {
			return res, toWarnings(res.Warnings), f.fail(ctx, err, "resource matching failed")
		}
		return res, toWarnings(res.Warnings), nil
	})
}

func (f *Service) Job(ctx context.Context, id string) (*Job, error) {
	j, ok := f.jobs.get(id)
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return j, nil
}
