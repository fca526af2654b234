package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"dcpm/internal/metadata"
)

const projectColumns = `p.id, p.name, p.customer, p.customer_code, p.part_number, p.description,
	p.cover_image, p.status, p.tags_json, p.create_time, p.month, p.project_dir,
	p.pinned, p.last_open_time, p.open_count`

// UpsertProject inserts or replaces the projection of one project in a single
// transaction. It reports false without writing anything when the stored
// fingerprint shows the projection is unchanged.
func (s *Store) UpsertProject(ctx context.Context, p Projection) (bool, error) {
	if strings.TrimSpace(p.ID) == "" {
		return false, fmt.Errorf("projection without id")
	}
	fp := fingerprint(p)

	var stored string
	err := s.db.QueryRowContext(ctx, "SELECT fingerprint FROM projects WHERE id = ?", p.ID).Scan(&stored)
	switch {
	case err == nil && stored == fp:
		return false, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("failed to read fingerprint: %w", classify(err))
	}

	err = s.write(ctx, func(tx *sql.Tx) error {
		return s.upsertProjectTx(ctx, tx, p, fp)
	})
	if err != nil {
		return false, fmt.Errorf("failed to upsert project %s: %w", p.ID, err)
	}
	s.events.publish(Event{Kind: EventProjectUpserted, ProjectID: p.ID})
	return true, nil
}

func (s *Store) upsertProjectTx(ctx context.Context, tx *sql.Tx, p Projection, fp string) error {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := encodeTags(tags)
	if err != nil {
		return err
	}
	now := s.nowString()

	_, err = tx.ExecContext(ctx, `INSERT INTO projects (id, name, customer, customer_code, part_number,
			description, cover_image, status, tags_json, create_time, month, project_dir, fingerprint, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			customer = excluded.customer,
			customer_code = excluded.customer_code,
			part_number = excluded.part_number,
			description = excluded.description,
			cover_image = excluded.cover_image,
			status = excluded.status,
			tags_json = excluded.tags_json,
			create_time = excluded.create_time,
			month = excluded.month,
			project_dir = excluded.project_dir,
			fingerprint = excluded.fingerprint,
			indexed_at = excluded.indexed_at`,
		p.ID, p.Name, p.Customer, p.CustomerCode, p.PartNumber, p.Description, p.CoverImage,
		p.Status, tagsJSON, formatTime(p.CreateTime), p.CreateTime.Format("2006-01"),
		p.ProjectDir, fp, now)
	if err != nil {
		return fmt.Errorf("failed to write project row: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM project_files WHERE project_id = ?", p.ID); err != nil {
		return fmt.Errorf("failed to clear files: %w", err)
	}
	for _, it := range p.Items {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO project_files (project_id, rel_path, file_name, is_dir) VALUES (?, ?, ?, ?)",
			p.ID, it.RelPath, it.Name, it.IsDir); err != nil {
			return fmt.Errorf("failed to write file row: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM item_tags WHERE project_id = ?", p.ID); err != nil {
		return fmt.Errorf("failed to clear item tags: %w", err)
	}
	manual := make(map[[2]string]bool, len(p.ManualTags))
	for _, t := range p.ManualTags {
		manual[[2]string{metadata.ItemPath(p.ID, t.RelPath), t.Name}] = true
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO item_tags (project_id, rel_path, tag) VALUES (?, ?, ?)",
			p.ID, t.RelPath, t.Name); err != nil {
			return fmt.Errorf("failed to write item tag: %w", err)
		}
		if _, err := s.ensureManualTx(ctx, tx, FileTag{
			Path:      metadata.ItemPath(p.ID, t.RelPath),
			ProjectID: p.ID,
			Name:      t.Name,
			Category:  t.Category,
			Color:     t.Color,
		}, false); err != nil {
			return err
		}
	}
	if err := s.dropManualTx(ctx, tx, p.ID, manual); err != nil {
		return err
	}

	if err := s.syncAutoTagsTx(ctx, tx, p.ID, p.AutoTags); err != nil {
		return err
	}
	return s.refreshFTSTx(ctx, tx, p.ID)
}

// encodeTags returns the JSON array stored in tags_json. HTML escaping stays
// off so the LIKE search sees tags such as "R&D" as written.
func encodeTags(tags []string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tags); err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// dropManualTx deletes the manual rows of a project whose pair is no longer
// listed in the sidecar's item_tags.
func (s *Store) dropManualTx(ctx context.Context, tx *sql.Tx, projectID string, keep map[[2]string]bool) error {
	existing, err := pairSet(ctx, tx,
		"SELECT file_path, tag_name FROM file_tags WHERE project_id = ? AND source = 'manual'", projectID)
	if err != nil {
		return fmt.Errorf("failed to load manual tags: %w", err)
	}
	for k := range existing {
		if keep[k] {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM file_tags WHERE file_path = ? AND tag_name = ? AND source = 'manual'", k[0], k[1]); err != nil {
			return fmt.Errorf("failed to delete manual tag: %w", err)
		}
	}
	return nil
}

// syncAutoTagsTx makes the auto rows of a project equal to want minus the
// disabled pairs. Rows already present keep their created_time.
func (s *Store) syncAutoTagsTx(ctx context.Context, tx *sql.Tx, projectID string, want []ItemTag) error {
	disabled, err := pairSet(ctx, tx,
		"SELECT file_path, tag_name FROM disabled_auto_tags WHERE file_path >= ? AND file_path < ?",
		projectID+"/", projectID+"0")
	if err != nil {
		return fmt.Errorf("failed to load disabled tags: %w", err)
	}
	existing, err := pairSet(ctx, tx,
		"SELECT file_path, tag_name FROM file_tags WHERE project_id = ? AND source = 'auto'", projectID)
	if err != nil {
		return fmt.Errorf("failed to load auto tags: %w", err)
	}

	keep := make(map[[2]string]ItemTag, len(want))
	for _, t := range want {
		k := [2]string{metadata.ItemPath(projectID, t.RelPath), t.Name}
		if disabled[k] {
			continue
		}
		if _, dup := keep[k]; !dup {
			keep[k] = t
		}
	}

	for k := range existing {
		if _, ok := keep[k]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM file_tags WHERE file_path = ? AND tag_name = ? AND source = 'auto'", k[0], k[1]); err != nil {
			return fmt.Errorf("failed to delete auto tag: %w", err)
		}
	}

	now := s.nowString()
	for k, t := range keep {
		if existing[k] {
			continue
		}
		color := t.Color
		if color == "" {
			color = s.colorFor(t.Category)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO file_tags (file_path, project_id, tag_name, category, color, source, created_time)
			VALUES (?, ?, ?, ?, ?, 'auto', ?)
			ON CONFLICT(file_path, tag_name) DO NOTHING`,
			k[0], projectID, k[1], t.Category, color, now); err != nil {
			return fmt.Errorf("failed to insert auto tag: %w", err)
		}
	}
	return nil
}

// refreshFTSTx rebuilds the full-text row of one project from the relational
// tables.
func (s *Store) refreshFTSTx(ctx context.Context, tx *sql.Tx, projectID string) error {
	if !s.fts {
		return nil
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM project_fts WHERE id = ?", projectID); err != nil {
		return fmt.Errorf("failed to clear fts row: %w", err)
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO project_fts (id, name, customer, part_number, tags, description, notes, item_tags, files)
		SELECT p.id, p.name, p.customer, p.part_number || ' ' || p.customer_code,
			(SELECT COALESCE(group_concat(j.value, ' '), '') FROM json_each(p.tags_json) j),
			p.description,
			(SELECT COALESCE(group_concat(n.plain_text, ' '), '') FROM file_notes n WHERE n.project_id = p.id),
			(SELECT COALESCE(group_concat(t.tag, ' '), '') FROM (
				SELECT tag FROM item_tags WHERE project_id = p.id
				UNION
				SELECT tag_name FROM file_tags WHERE project_id = p.id) t),
			(SELECT COALESCE(group_concat(f.file_name, ' '), '') FROM project_files f WHERE f.project_id = p.id)
		FROM projects p WHERE p.id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("failed to write fts row: %w", err)
	}
	return nil
}

// DeleteProject removes a project and its derived rows. Manual tags, disabled
// auto tags and notes stay so they return if the folder comes back.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	err := s.write(ctx, func(tx *sql.Tx) error {
		return s.deleteProjectTx(ctx, tx, id)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete project %s: %w", id, err)
	}
	s.events.publish(Event{Kind: EventProjectDeleted, ProjectID: id})
	return nil
}

func (s *Store) deleteProjectTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM file_tags WHERE project_id = ? AND source = 'auto'", id); err != nil {
		return err
	}
	if s.fts {
		if _, err := tx.ExecContext(ctx, "DELETE FROM project_fts WHERE id = ?", id); err != nil {
			return err
		}
	}
	return nil
}

// PartNumberInUse reports whether another project than excludeID carries
// partNumber. Empty part numbers are never in use.
func (s *Store) PartNumberInUse(ctx context.Context, partNumber, excludeID string) (bool, error) {
	partNumber = strings.TrimSpace(partNumber)
	if partNumber == "" {
		return false, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM projects WHERE part_number = ? AND id != ?", partNumber, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check part number: %w", classify(err))
	}
	return n > 0, nil
}

// GetProject returns one project summary.
func (s *Store) GetProject(ctx context.Context, id string) (ProjectSummary, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects p WHERE p.id = ?", id)
	p, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ProjectSummary{}, ErrNotFound
	}
	if err != nil {
		return ProjectSummary{}, fmt.Errorf("failed to get project: %w", classify(err))
	}
	return p, nil
}

// GetProjects returns summaries for ids in the given order, skipping ids that
// are not indexed.
func (s *Store) GetProjects(ctx context.Context, ids []string) ([]ProjectSummary, error) {
	out := make([]ProjectSummary, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetProject(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ProjectDirs maps every indexed project id to its folder.
func (s *Store) ProjectDirs(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, project_dir FROM projects")
	if err != nil {
		return nil, fmt.Errorf("failed to list project dirs: %w", classify(err))
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, dir string
		if err := rows.Scan(&id, &dir); err != nil {
			return nil, classify(err)
		}
		out[id] = dir
	}
	return out, classify(rows.Err())
}

// ListProjects returns the projects matching f, pinned first, newest first.
func (s *Store) ListProjects(ctx context.Context, f Filter) ([]ProjectSummary, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "p.status = ?")
		args = append(args, f.Status)
	}
	if f.Pinned != nil {
		where = append(where, "p.pinned = ?")
		args = append(args, *f.Pinned)
	}
	if f.Tag != "" {
		where = append(where, `(EXISTS (SELECT 1 FROM json_each(p.tags_json) j WHERE j.value = ?)
			OR EXISTS (SELECT 1 FROM file_tags ft WHERE ft.project_id = p.id AND ft.tag_name = ?)
			OR EXISTS (SELECT 1 FROM item_tags it WHERE it.project_id = p.id AND it.tag = ?))`)
		args = append(args, f.Tag, f.Tag, f.Tag)
	}

	query := "SELECT " + projectColumns + " FROM projects p"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.pinned DESC, p.create_time DESC, p.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", classify(err))
	}
	defer rows.Close()

	out := []ProjectSummary{}
	for rows.Next() {
		p, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", classify(err))
		}
		out = append(out, p)
	}
	return out, classify(rows.Err())
}

// SetPinned pins or unpins a project.
func (s *Store) SetPinned(ctx context.Context, id string, pinned bool) error {
	return s.updateProject(ctx, id, "UPDATE projects SET pinned = ? WHERE id = ?", pinned, id)
}

// MarkOpened records that a project was opened.
func (s *Store) MarkOpened(ctx context.Context, id string) error {
	return s.updateProject(ctx, id,
		"UPDATE projects SET last_open_time = ?, open_count = open_count + 1 WHERE id = ?", s.nowString(), id)
}

func (s *Store) updateProject(ctx context.Context, id, query string, args ...any) error {
	err := s.write(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to update project %s: %w", id, err)
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(r rowScanner) (ProjectSummary, error) {
	var (
		p          ProjectSummary
		tagsJSON   string
		createTime string
		lastOpen   sql.NullString
	)
	err := r.Scan(&p.ID, &p.Name, &p.Customer, &p.CustomerCode, &p.PartNumber, &p.Description,
		&p.CoverImage, &p.Status, &tagsJSON, &createTime, &p.Month, &p.ProjectDir,
		&p.Pinned, &lastOpen, &p.OpenCount)
	if err != nil {
		return ProjectSummary{}, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil || p.Tags == nil {
		p.Tags = []string{}
	}
	p.CreateTime = parseTime(createTime)
	if lastOpen.Valid {
		t := parseTime(lastOpen.String)
		p.LastOpenTime = &t
	}
	return p, nil
}

// fingerprint hashes the canonical form of a projection. Item and tag order
// coming from the filesystem walk does not affect it.
func fingerprint(p Projection) string {
	c := p
	c.Items = append([]Item(nil), p.Items...)
	sort.Slice(c.Items, func(i, j int) bool { return c.Items[i].RelPath < c.Items[j].RelPath })
	c.ManualTags = sortedTags(p.ManualTags)
	c.AutoTags = sortedTags(p.AutoTags)

	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

func sortedTags(in []ItemTag) []ItemTag {
	out := append([]ItemTag(nil), in...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].RelPath != out[j].RelPath {
			return out[i].RelPath < out[j].RelPath
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func pairSet(ctx context.Context, tx *sql.Tx, query string, args ...any) (map[[2]string]bool, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[[2]string]bool)
	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			return nil, err
		}
		out[[2]string{a, b}] = true
	}
	return out, rows.Err()
}
