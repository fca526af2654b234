package storage

import (
	"context"
	"fmt"
	"strings"
)

const defaultSearchLimit = 50

// likeFields are the columns and sub-queries a LIKE token is matched against.
var likeFields = []string{
	"p.id LIKE ? ESCAPE '\\'",
	"p.name LIKE ? ESCAPE '\\'",
	"p.customer LIKE ? ESCAPE '\\'",
	"p.customer_code LIKE ? ESCAPE '\\'",
	"p.part_number LIKE ? ESCAPE '\\'",
	"p.description LIKE ? ESCAPE '\\'",
	"p.tags_json LIKE ? ESCAPE '\\'",
	"EXISTS (SELECT 1 FROM project_files f WHERE f.project_id = p.id AND f.file_name LIKE ? ESCAPE '\\')",
	"EXISTS (SELECT 1 FROM item_tags it WHERE it.project_id = p.id AND it.tag LIKE ? ESCAPE '\\')",
	"EXISTS (SELECT 1 FROM file_tags ft WHERE ft.project_id = p.id AND ft.tag_name LIKE ? ESCAPE '\\')",
	"EXISTS (SELECT 1 FROM file_notes n WHERE n.project_id = p.id AND n.plain_text LIKE ? ESCAPE '\\')",
}

// Search returns project ids matching every whitespace separated token of
// query. With FTS5 the ranked full-text hits come first, followed by substring
// hits the tokenizer cannot see (text inside CJK runs). Without FTS5 only the
// substring pass runs, ordered by pinned state and recency.
func (s *Store) Search(ctx context.Context, query string, limit int, opts SearchOptions) ([]string, error) {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	ids := []string{}
	seen := make(map[string]bool)
	if s.fts {
		hits, err := s.searchFTS(ctx, tokens, limit, opts)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// a query the FTS parser rejects still gets the substring pass
		for _, id := range hits {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) >= limit {
		return ids, nil
	}

	hits, err := s.searchLike(ctx, tokens, limit, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", classify(err))
	}
	for _, id := range hits {
		if len(ids) >= limit {
			break
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Store) searchFTS(ctx context.Context, tokens []string, limit int, opts SearchOptions) ([]string, error) {
	query := `SELECT project_fts.id FROM project_fts
		JOIN projects p ON p.id = project_fts.id
		WHERE project_fts MATCH ?`
	if !opts.IncludeArchived {
		query += " AND p.status != 'archived'"
	}
	query += " ORDER BY bm25(project_fts), p.pinned DESC, p.id LIMIT ?"

	rows, err := s.db.QueryContext(ctx, query, ftsQuery(tokens), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) searchLike(ctx context.Context, tokens []string, limit int, opts SearchOptions) ([]string, error) {
	var (
		where []string
		args  []any
	)
	if !opts.IncludeArchived {
		where = append(where, "p.status != 'archived'")
	}
	anyField := "(" + strings.Join(likeFields, " OR ") + ")"
	for _, tok := range tokens {
		where = append(where, anyField)
		pattern := "%" + escapeLike(tok) + "%"
		for range likeFields {
			args = append(args, pattern)
		}
	}
	args = append(args, limit)

	query := "SELECT p.id FROM projects p WHERE " + strings.Join(where, " AND ") +
		" ORDER BY p.pinned DESC, COALESCE(p.last_open_time, p.create_time) DESC, p.id LIMIT ?"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ftsQuery quotes every token as a prefix phrase and requires all of them.
func ftsQuery(tokens []string) string {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		parts = append(parts, `"`+strings.ReplaceAll(tok, `"`, `""`)+`"*`)
	}
	return strings.Join(parts, " AND ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
