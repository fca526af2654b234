package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dcpm/internal/metadata"
)

// SaveNote creates or replaces the note of an item. plainText is the
// searchable rendering of content; an empty content deletes the note.
func (s *Store) SaveNote(ctx context.Context, path, content, plainText string) (Note, error) {
	path = metadata.NormalizeRelPath(path)
	projectID, _, err := metadata.SplitItemPath(path)
	if err != nil {
		return Note{}, err
	}

	err = s.write(ctx, func(tx *sql.Tx) error {
		if content == "" {
			if _, err := tx.ExecContext(ctx, "DELETE FROM file_notes WHERE file_path = ?", path); err != nil {
				return err
			}
		} else {
			now := s.nowString()
			_, err := tx.ExecContext(ctx, `INSERT INTO file_notes (file_path, project_id, content, plain_text, create_time, update_time)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(file_path) DO UPDATE SET
					content = excluded.content,
					plain_text = excluded.plain_text,
					update_time = excluded.update_time`,
				path, projectID, content, plainText, now, now)
			if err != nil {
				return err
			}
		}
		return s.refreshFTSTx(ctx, tx, projectID)
	})
	if err != nil {
		return Note{}, fmt.Errorf("failed to save note: %w", err)
	}
	s.events.publish(Event{Kind: EventNoteSaved, ProjectID: projectID, Path: path})

	if content == "" {
		return Note{Path: path, ProjectID: projectID}, nil
	}
	return s.GetNote(ctx, path)
}

// GetNote returns the note of an item.
func (s *Store) GetNote(ctx context.Context, path string) (Note, error) {
	var (
		n       Note
		created string
		updated string
	)
	err := s.db.QueryRowContext(ctx, `SELECT file_path, project_id, content, plain_text, create_time, update_time
		FROM file_notes WHERE file_path = ?`, metadata.NormalizeRelPath(path)).
		Scan(&n.Path, &n.ProjectID, &n.Content, &n.PlainText, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	if err != nil {
		return Note{}, fmt.Errorf("failed to get note: %w", classify(err))
	}
	n.CreateTime = parseTime(created)
	n.UpdateTime = parseTime(updated)
	return n, nil
}
