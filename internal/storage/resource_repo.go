package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// RecordResult counts the outcome of RecordExternalResources.
type RecordResult struct {
	Inserted int
	Updated  int
}

// ResourceFilter selects external resources. Zero values match everything.
type ResourceFilter struct {
	ProjectID  string
	Status     string
	Unassigned bool
}

// RecordExternalResources upserts scanned resources by full path in one
// transaction. Existing rows keep their status and created_at; the project
// assignment only moves while the row is still pending.
func (s *Store) RecordExternalResources(ctx context.Context, resources []ExternalResource) (RecordResult, error) {
	var result RecordResult
	if len(resources) == 0 {
		return result, nil
	}

	err := s.write(ctx, func(tx *sql.Tx) error {
		now := s.nowString()
		for _, r := range resources {
			if err := ctx.Err(); err != nil {
				return err
			}
			var id int64
			err := tx.QueryRowContext(ctx, "SELECT id FROM external_resources WHERE full_path = ?", r.FullPath).Scan(&id)
			exists := err == nil
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return err
			}

			_, err = tx.ExecContext(ctx, `INSERT INTO external_resources (project_id, resource_type, root_path,
					folder_year, folder_date, folder_name, full_path, match_score, status, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?, ?)
				ON CONFLICT(full_path) DO UPDATE SET
					resource_type = excluded.resource_type,
					root_path = excluded.root_path,
					folder_year = excluded.folder_year,
					folder_date = excluded.folder_date,
					folder_name = excluded.folder_name,
					match_score = excluded.match_score,
					project_id = CASE WHEN external_resources.status = 'pending'
						THEN excluded.project_id ELSE external_resources.project_id END,
					updated_at = excluded.updated_at`,
				nullString(r.ProjectID), r.ResourceType, r.RootPath, r.FolderYear, r.FolderDate,
				r.FolderName, r.FullPath, r.MatchScore, now, now)
			if err != nil {
				return err
			}
			if exists {
				result.Updated++
			} else {
				result.Inserted++
			}
		}
		return nil
	})
	if err != nil {
		return RecordResult{}, fmt.Errorf("failed to record external resources: %w", err)
	}
	s.events.publish(Event{Kind: EventResourceRecorded, Count: len(resources)})
	return result, nil
}

// ExternalResources lists resources matching f, best score first.
func (s *Store) ExternalResources(ctx context.Context, f ResourceFilter) ([]ExternalResource, error) {
	var (
		where []string
		args  []any
	)
	switch {
	case f.Unassigned:
		where = append(where, "project_id IS NULL")
	case f.ProjectID != "":
		where = append(where, "project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	query := "SELECT " + resourceColumns + " FROM external_resources"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY match_score DESC, folder_date DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list external resources: %w", classify(err))
	}
	defer rows.Close()

	out := []ExternalResource{}
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, r)
	}
	return out, classify(rows.Err())
}

// GetExternalResource returns one resource.
func (s *Store) GetExternalResource(ctx context.Context, id int64) (ExternalResource, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+resourceColumns+" FROM external_resources WHERE id = ?", id)
	r, err := scanResource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ExternalResource{}, ErrNotFound
	}
	if err != nil {
		return ExternalResource{}, fmt.Errorf("failed to get external resource: %w", classify(err))
	}
	return r, nil
}

// SetExternalResourceStatus records a review decision.
func (s *Store) SetExternalResourceStatus(ctx context.Context, id int64, status string) error {
	if !ValidResourceStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	var projectID sql.NullString
	err := s.write(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, "SELECT project_id FROM external_resources WHERE id = ?", id).Scan(&projectID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "UPDATE external_resources SET status = ?, updated_at = ? WHERE id = ?",
			status, s.nowString(), id)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to set resource status: %w", err)
	}
	s.events.publish(Event{Kind: EventResourceStatusChanged, ResourceID: id, ProjectID: projectID.String, Status: status})
	return nil
}

// IgnoreExternalResources marks the given resources ignored. Rows that were
// reviewed in the meantime keep their status. It returns how many changed.
func (s *Store) IgnoreExternalResources(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var changed []int64
	err := s.write(ctx, func(tx *sql.Tx) error {
		now := s.nowString()
		for _, id := range ids {
			res, err := tx.ExecContext(ctx,
				"UPDATE external_resources SET status = 'ignored', updated_at = ? WHERE id = ? AND status = 'pending'",
				now, id)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n > 0 {
				changed = append(changed, id)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to ignore external resources: %w", err)
	}
	events := make([]Event, 0, len(changed))
	for _, id := range changed {
		events = append(events, Event{Kind: EventResourceStatusChanged, ResourceID: id, Status: ResourceIgnored})
	}
	s.events.publish(events...)
	return len(changed), nil
}

const resourceColumns = `id, project_id, resource_type, root_path, folder_year, folder_date, folder_name,
	full_path, match_score, status, created_at, updated_at`

func scanResource(r rowScanner) (ExternalResource, error) {
	var (
		res       ExternalResource
		projectID sql.NullString
		created   string
		updated   string
	)
	err := r.Scan(&res.ID, &projectID, &res.ResourceType, &res.RootPath, &res.FolderYear, &res.FolderDate,
		&res.FolderName, &res.FullPath, &res.MatchScore, &res.Status, &created, &updated)
	if err != nil {
		return ExternalResource{}, err
	}
	res.ProjectID = projectID.String
	res.CreatedAt = parseTime(created)
	res.UpdatedAt = parseTime(updated)
	return res, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
