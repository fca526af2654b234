package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// RebuildResult summarizes a Rebuild.
type RebuildResult struct {
	Projects int
	Removed  int
}

// Rebuild replaces every derived row with the given projections in one write
// transaction, so concurrent readers see either the old or the new index.
// User state survives: pins and open counters of projects still present,
// manual tags, disabled auto tags, notes and external resources. A cancelled
// context rolls the whole rebuild back.
func (s *Store) Rebuild(ctx context.Context, projections []Projection) (RebuildResult, error) {
	var result RebuildResult

	err := s.write(ctx, func(tx *sql.Tx) error {
		stmts := []string{
			"DELETE FROM project_files",
			"DELETE FROM item_tags",
			"DELETE FROM file_tags WHERE source = 'auto'",
		}
		if s.fts {
			stmts = append(stmts, "DELETE FROM project_fts")
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to clear derived rows: %w", err)
			}
		}

		present := make(map[string]bool, len(projections))
		for _, p := range projections {
			present[p.ID] = true
		}
		stale, err := staleIDs(ctx, tx, present)
		if err != nil {
			return err
		}
		for _, id := range stale {
			if _, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id); err != nil {
				return fmt.Errorf("failed to delete project %s: %w", id, err)
			}
		}
		result.Removed = len(stale)

		for _, p := range projections {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.upsertProjectTx(ctx, tx, p, fingerprint(p)); err != nil {
				return fmt.Errorf("failed to index project %s: %w", p.ID, err)
			}
			result.Projects++
		}
		return nil
	})
	if err != nil {
		return RebuildResult{}, fmt.Errorf("failed to rebuild index: %w", err)
	}

	s.events.publish(Event{Kind: EventIndexRebuilt, Count: result.Projects})
	return result, nil
}

func staleIDs(ctx context.Context, tx *sql.Tx, present map[string]bool) ([]string, error) {
	rows, err := tx.QueryContext(ctx, "SELECT id FROM projects")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if !present[id] {
			stale = append(stale, id)
		}
	}
	return stale, rows.Err()
}
