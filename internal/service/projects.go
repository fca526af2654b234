package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"dcpm/internal/contextutil"
	"dcpm/internal/library"
	"dcpm/internal/metadata"
	"dcpm/internal/storage"
)

const maxFieldRunes = 200

// CreateProjectRequest describes a new project folder. Month defaults to the
// current month.
type CreateProjectRequest struct {
	Month        string
	Name         string
	Customer     string
	CustomerCode string
	PartNumber   string
	Description  string
	Tags         []string
}

// ProjectUpdate changes sidecar fields. Nil fields are left alone.
type ProjectUpdate struct {
	Status      *string
	Description *string
	Tags        *[]string
}

// CreateProject creates the project folder and its sidecar, then indexes
// it. A part number already used by another project is a conflict.
func (f *Service) CreateProject(ctx context.Context, req CreateProjectRequest) (storage.ProjectSummary, error) {
	if err := f.requireLayout(); err != nil {
		return storage.ProjectSummary{}, err
	}
	np, err := f.validateNewProject(req)
	if err != nil {
		return storage.ProjectSummary{}, err
	}
	if np.PartNumber != "" {
		used, err := f.index.PartNumberInUse(ctx, np.PartNumber, "")
		if err != nil {
			return storage.ProjectSummary{}, f.fail(ctx, err, "failed to check part number")
		}
		if used {
			return storage.ProjectSummary{}, fmt.Errorf("part number %q is already used: %w", np.PartNumber, ErrConflict)
		}
	}

	dir, p, err := f.layout.CreateProject(np, f.now())
	if err != nil {
		return storage.ProjectSummary{}, f.fail(ctx, err, "failed to create project folder")
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "project created", "project_id", p.ID, "dir", dir)
	return f.reindex(ctx, p.ID, dir)
}

func (f *Service) validateNewProject(req CreateProjectRequest) (library.NewProject, error) {
	month := strings.TrimSpace(req.Month)
	if month == "" {
		month = f.now().Format("2006-01")
	}
	if _, _, err := metadata.ParseMonth(month); err != nil {
		return library.NewProject{}, &ValidationError{Field: "month", Message: "must look like YYYY-MM"}
	}
	fields := []struct {
		name     string
		value    string
		required bool
	}{
		{"name", req.Name, true},
		{"customer", req.Customer, true},
		{"customer_code", req.CustomerCode, false},
		{"part_number", req.PartNumber, false},
	}
	for _, fl := range fields {
		v := strings.TrimSpace(fl.value)
		if fl.required && v == "" {
			return library.NewProject{}, &ValidationError{Field: fl.name, Message: "cannot be empty"}
		}
		if utf8.RuneCountInString(v) > maxFieldRunes {
			return library.NewProject{}, &ValidationError{Field: fl.name, Message: "must be at most 200 characters"}
		}
	}
	tags, err := validateProjectTags(req.Tags)
	if err != nil {
		return library.NewProject{}, err
	}
	return library.NewProject{
		Month:        month,
		Name:         req.Name,
		Customer:     req.Customer,
		CustomerCode: req.CustomerCode,
		PartNumber:   req.PartNumber,
		Description:  req.Description,
		Tags:         tags,
	}, nil
}

func validateProjectTags(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, t := range in {
		name, err := validateTagName(t)
		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, &ValidationError{Field: "tags", Message: verr.Message}
		}
		out = append(out, name)
	}
	return out, nil
}

// ArchiveProject moves the project folder under the archive directory and
// marks it archived.
func (f *Service) ArchiveProject(ctx context.Context, projectID string) (storage.ProjectSummary, error) {
	if err := f.requireLayout(); err != nil {
		return storage.ProjectSummary{}, err
	}
	if err := validateProjectID(projectID); err != nil {
		return storage.ProjectSummary{}, err
	}
	project, err := f.index.GetProject(ctx, projectID)
	if err != nil {
		return storage.ProjectSummary{}, f.fail(ctx, err, "failed to find project "+projectID)
	}

	dir, err := f.layout.MoveToArchive(project.ProjectDir)
	if err != nil {
		return storage.ProjectSummary{}, f.fail(ctx, err, "failed to move project "+projectID+" to the archive")
	}
	if err := f.setStatus(dir, metadata.StatusArchived); err != nil {
		return storage.ProjectSummary{}, f.fail(ctx, err, "failed to update project metadata")
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "project archived", "project_id", projectID, "dir", dir)
	return f.reindex(ctx, projectID, dir)
}

// UnarchiveProject moves an archived project back into its month directory
// with the given status, ongoing when empty.
func (f *Service) UnarchiveProject(ctx context.Context, projectID, status string) (storage.ProjectSummary, error) {
	if err := f.requireLayout(); err != nil {
		return storage.ProjectSummary{}, err
	}
	if err := validateProjectID(projectID); err != nil {
		return storage.ProjectSummary{}, err
	}
	if status == "" {
		status = metadata.StatusOngoing
	}
	if err := validateProjectStatus(status); err != nil {
		return storage.ProjectSummary{}, err
	}
	if status == metadata.StatusArchived {
		return storage.ProjectSummary{}, &ValidationError{Field: "status", Message: "must be ongoing or delivered"}
	}
	project, err := f.index.GetProject(ctx, projectID)
	if err != nil {
		return storage.ProjectSummary{}, f.fail(ctx, err, "failed to find project "+projectID)
	}

	dir, err := f.layout.MoveToMonth(project.ProjectDir, projectID)
	if err != nil {
		return storage.ProjectSummary{}, f.fail(ctx, err, "failed to move project "+projectID+" out of the archive")
	}
	if err := f.setStatus(dir, status); err != nil {
		return storage.ProjectSummary{}, f.fail(ctx, err, "failed to update project metadata")
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "project unarchived", "project_id", projectID, "dir", dir, "status", status)
	return f.reindex(ctx, projectID, dir)
}

// UpdateProject edits the project's sidecar and re-indexes it. Archiving
// goes through ArchiveProject since it moves the folder.
func (f *Service) UpdateProject(ctx context.Context, projectID string, upd ProjectUpdate) (storage.ProjectSummary, error) {
	if err := validateProjectID(projectID); err != nil {
		return storage.ProjectSummary{}, err
	}
	if upd.Status != nil {
		if err := validateProjectStatus(*upd.Status); err != nil {
			return storage.ProjectSummary{}, err
		}
		if *upd.Status == metadata.StatusArchived {
			return storage.ProjectSummary{}, &ValidationError{Field: "status", Message: "use the archive operation to archive a project"}
		}
	}
	var tags []string
	if upd.Tags != nil {
		var err error
		if tags, err = validateProjectTags(*upd.Tags); err != nil {
			return storage.ProjectSummary{}, err
		}
	}
	project, err := f.index.GetProject(ctx, projectID)
	if err != nil {
		return storage.ProjectSummary{}, f.fail(ctx, err, "failed to find project "+projectID)
	}
	if upd.Status != nil && project.Status == metadata.StatusArchived {
		return storage.ProjectSummary{}, fmt.Errorf("project %s is archived, unarchive it first: %w", projectID, ErrConflict)
	}

	_, err = metadata.Update(metadata.PathFor(project.ProjectDir), func(p *metadata.Project) error {
		if upd.Status != nil {
			p.Status = *upd.Status
		}
		if upd.Description != nil {
			p.Description = strings.TrimSpace(*upd.Description)
		}
		if upd.Tags != nil {
			p.Tags = tags
		}
		return nil
	})
	if err != nil {
		return storage.ProjectSummary{}, f.fail(ctx, err, "failed to update project metadata")
	}
	return f.reindex(ctx, projectID, project.ProjectDir)
}

func (f *Service) requireLayout() error {
	if f.layout.Root == "" {
		return &ValidationError{Field: "library_root", Message: "no library root is configured"}
	}
	return nil
}

func (f *Service) setStatus(dir, status string) error {
	_, err := metadata.Update(metadata.PathFor(dir), func(p *metadata.Project) error {
		p.Status = status
		return nil
	})
	return err
}

// reindex refreshes one project folder and returns its fresh summary.
func (f *Service) reindex(ctx context.Context, projectID, dir string) (storage.ProjectSummary, error) {
	res, err := f.scanner.ScanProject(ctx, dir)
	if err != nil {
		return storage.ProjectSummary{}, f.fail(ctx, err, "failed to index project "+projectID)
	}
	if res.Projects == 0 {
		msg := "project folder could not be indexed"
		if len(res.Warnings) > 0 {
			msg = res.Warnings[0].Message
		}
		return storage.ProjectSummary{}, f.fail(ctx, errors.New(msg), "failed to index project "+projectID)
	}
	out, err := f.index.GetProject(ctx, projectID)
	if err != nil {
		return storage.ProjectSummary{}, f.fail(ctx, err, "failed to load project "+projectID)
	}
	return out, nil
}

func (f *Service) now() time.Time {
	if f.clock != nil {
		return f.clock()
	}
	return time.Now()
}
