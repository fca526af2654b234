package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dcpm/internal/metadata"
)

// AddFileTag adds a tag to an item. Adding an existing pair is a no-op, except
// that a manual add promotes an auto row to manual and an explicit category on
// a manual add replaces the stored one. An auto add of a disabled pair is
// ignored. The returned bool reports whether anything changed.
func (s *Store) AddFileTag(ctx context.Context, t FileTag) (FileTag, bool, error) {
	projectID, _, err := metadata.SplitItemPath(t.Path)
	if err != nil {
		return FileTag{}, false, err
	}
	t.Path = metadata.NormalizeRelPath(t.Path)
	t.ProjectID = projectID
	if t.Source == "" {
		t.Source = SourceManual
	}

	var changed bool
	err = s.write(ctx, func(tx *sql.Tx) error {
		var err error
		switch t.Source {
		case SourceManual:
			changed, err = s.ensureManualTx(ctx, tx, t, true)
		case SourceAuto:
			changed, err = s.addAutoTx(ctx, tx, t)
		default:
			return fmt.Errorf("unknown tag source %q", t.Source)
		}
		if err != nil || !changed {
			return err
		}
		return s.refreshFTSTx(ctx, tx, projectID)
	})
	if err != nil {
		return FileTag{}, false, fmt.Errorf("failed to add tag: %w", err)
	}

	stored, err := s.getFileTag(ctx, t.Path, t.Name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return FileTag{}, false, err
	}
	if changed {
		s.events.publish(Event{Kind: EventTagAdded, ProjectID: projectID, Path: t.Path, Tag: t.Name})
	}
	return stored, changed, nil
}

// ensureManualTx makes (path, name) a manual tag. With explicit set, a non
// empty category overrides the stored category.
func (s *Store) ensureManualTx(ctx context.Context, tx *sql.Tx, t FileTag, explicit bool) (bool, error) {
	var source, category string
	err := tx.QueryRowContext(ctx,
		"SELECT source, category FROM file_tags WHERE file_path = ? AND tag_name = ?",
		t.Path, t.Name).Scan(&source, &category)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if t.Category == "" {
			t.Category = "custom"
		}
		if t.Color == "" {
			t.Color = s.colorFor(t.Category)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO file_tags (file_path, project_id, tag_name, category, color, source, created_time)
			VALUES (?, ?, ?, ?, ?, 'manual', ?)`,
			t.Path, t.ProjectID, t.Name, t.Category, t.Color, s.nowString())
		if err != nil {
			return false, fmt.Errorf("failed to insert manual tag: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("failed to read tag: %w", err)
	}

	recategorize := explicit && t.Category != "" && t.Category != category
	if source == SourceManual && !recategorize {
		return false, nil
	}
	if recategorize {
		if t.Color == "" {
			t.Color = s.colorFor(t.Category)
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE file_tags SET source = 'manual', category = ?, color = ? WHERE file_path = ? AND tag_name = ?",
			t.Category, t.Color, t.Path, t.Name)
	} else {
		_, err = tx.ExecContext(ctx,
			"UPDATE file_tags SET source = 'manual' WHERE file_path = ? AND tag_name = ?", t.Path, t.Name)
	}
	if err != nil {
		return false, fmt.Errorf("failed to promote tag: %w", err)
	}
	return true, nil
}

func (s *Store) addAutoTx(ctx context.Context, tx *sql.Tx, t FileTag) (bool, error) {
	var n int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM disabled_auto_tags WHERE file_path = ? AND tag_name = ?",
		t.Path, t.Name).Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if t.Color == "" {
		t.Color = s.colorFor(t.Category)
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO file_tags (file_path, project_id, tag_name, category, color, source, created_time)
		VALUES (?, ?, ?, ?, ?, 'auto', ?)
		ON CONFLICT(file_path, tag_name) DO NOTHING`,
		t.Path, t.ProjectID, t.Name, t.Category, t.Color, s.nowString())
	if err != nil {
		return false, fmt.Errorf("failed to insert auto tag: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

// RemoveFileTag deletes a tag and returns the removed row. Removing an auto
// tag also disables it so rescans do not bring it back. derived marks a pair
// the tag rules produce for the item; a manual row for such a pair is
// disabled as well, otherwise the next scan would add it back as auto.
func (s *Store) RemoveFileTag(ctx context.Context, path, name string, derived bool) (FileTag, error) {
	path = metadata.NormalizeRelPath(path)
	removed, err := s.getFileTag(ctx, path, name)
	if err != nil {
		return FileTag{}, err
	}

	var disable bool
	err = s.write(ctx, func(tx *sql.Tx) error {
		// the row may have been promoted between the read and the lock
		err := tx.QueryRowContext(ctx,
			"SELECT source FROM file_tags WHERE file_path = ? AND tag_name = ?", path, name).Scan(&removed.Source)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		disable = removed.Source == SourceAuto || derived
		if _, err := tx.ExecContext(ctx, "DELETE FROM file_tags WHERE file_path = ? AND tag_name = ?", path, name); err != nil {
			return err
		}
		if removed.Source == SourceManual {
			_, rel, _ := metadata.SplitItemPath(path)
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM item_tags WHERE project_id = ? AND rel_path = ? AND tag = ?",
				removed.ProjectID, rel, name); err != nil {
				return err
			}
		}
		if disable {
			if err := s.disableTx(ctx, tx, path, name); err != nil {
				return err
			}
		}
		return s.refreshFTSTx(ctx, tx, removed.ProjectID)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return FileTag{}, err
		}
		return FileTag{}, fmt.Errorf("failed to remove tag: %w", err)
	}

	events := []Event{{Kind: EventTagRemoved, ProjectID: removed.ProjectID, Path: path, Tag: name}}
	if disable {
		events = append(events, Event{Kind: EventAutoTagDisabled, ProjectID: removed.ProjectID, Path: path, Tag: name})
	}
	s.events.publish(events...)
	return removed, nil
}

// DisableAutoTag suppresses (path, name) for rule-derived tags and removes an
// existing auto row. Manual rows are untouched.
func (s *Store) DisableAutoTag(ctx context.Context, path, name string) error {
	path = metadata.NormalizeRelPath(path)
	projectID, _, err := metadata.SplitItemPath(path)
	if err != nil {
		return err
	}
	err = s.write(ctx, func(tx *sql.Tx) error {
		if err := s.disableTx(ctx, tx, path, name); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM file_tags WHERE file_path = ? AND tag_name = ? AND source = 'auto'", path, name); err != nil {
			return err
		}
		return s.refreshFTSTx(ctx, tx, projectID)
	})
	if err != nil {
		return fmt.Errorf("failed to disable auto tag: %w", err)
	}
	s.events.publish(Event{Kind: EventAutoTagDisabled, ProjectID: projectID, Path: path, Tag: name})
	return nil
}

func (s *Store) disableTx(ctx context.Context, tx *sql.Tx, path, name string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO disabled_auto_tags (file_path, tag_name, disabled_time)
		VALUES (?, ?, ?)
		ON CONFLICT(file_path, tag_name) DO NOTHING`, path, name, s.nowString())
	return err
}

// EnableAutoTag removes a suppression. The owning project's fingerprint is
// cleared so the next scan derives the tag again.
func (s *Store) EnableAutoTag(ctx context.Context, path, name string) error {
	path = metadata.NormalizeRelPath(path)
	projectID, _, err := metadata.SplitItemPath(path)
	if err != nil {
		return err
	}
	err = s.write(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM disabled_auto_tags WHERE file_path = ? AND tag_name = ?", path, name)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		_, err = tx.ExecContext(ctx, "UPDATE projects SET fingerprint = '' WHERE id = ?", projectID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to enable auto tag: %w", err)
	}
	s.events.publish(Event{Kind: EventAutoTagEnabled, ProjectID: projectID, Path: path, Tag: name})
	return nil
}

// TagsFor lists the tags of one item in insertion order.
func (s *Store) TagsFor(ctx context.Context, path string) ([]FileTag, error) {
	return s.queryTags(ctx, "WHERE file_path = ?", metadata.NormalizeRelPath(path))
}

// TagsForProject lists the tags of every item of a project.
func (s *Store) TagsForProject(ctx context.Context, projectID string) ([]FileTag, error) {
	return s.queryTags(ctx, "WHERE project_id = ?", projectID)
}

// DisabledFor lists the suppressed auto tags of one item.
func (s *Store) DisabledFor(ctx context.Context, path string) ([]DisabledAutoTag, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT file_path, tag_name, disabled_time FROM disabled_auto_tags WHERE file_path = ? ORDER BY tag_name",
		metadata.NormalizeRelPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to list disabled tags: %w", classify(err))
	}
	defer rows.Close()

	out := []DisabledAutoTag{}
	for rows.Next() {
		var d DisabledAutoTag
		var disabled string
		if err := rows.Scan(&d.Path, &d.Name, &disabled); err != nil {
			return nil, classify(err)
		}
		d.DisabledTime = parseTime(disabled)
		out = append(out, d)
	}
	return out, classify(rows.Err())
}

func (s *Store) getFileTag(ctx context.Context, path, name string) (FileTag, error) {
	tags, err := s.queryTags(ctx, "WHERE file_path = ? AND tag_name = ?", path, name)
	if err != nil {
		return FileTag{}, err
	}
	if len(tags) == 0 {
		return FileTag{}, ErrNotFound
	}
	return tags[0], nil
}

func (s *Store) queryTags(ctx context.Context, where string, args ...any) ([]FileTag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT file_path, project_id, tag_name, category, color, source, created_time
		FROM file_tags `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", classify(err))
	}
	defer rows.Close()

	out := []FileTag{}
	for rows.Next() {
		var t FileTag
		var created string
		if err := rows.Scan(&t.Path, &t.ProjectID, &t.Name, &t.Category, &t.Color, &t.Source, &created); err != nil {
			return nil, classify(err)
		}
		t.CreatedTime = parseTime(created)
		out = append(out, t)
	}
	return out, classify(rows.Err())
}
