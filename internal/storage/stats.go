package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// GetStats aggregates the current index state. topN bounds the tag list and
// recentN the activity list.
func (s *Store) GetStats(ctx context.Context, topN, recentN int) (Stats, error) {
	if topN <= 0 {
		topN = 10
	}
	if recentN <= 0 {
		recentN = 10
	}

	var st Stats
	month := s.now().Format("2006-01")
	err := s.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN month = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'ongoing' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'delivered' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'archived' THEN 1 ELSE 0 END), 0)
		FROM projects`, month).Scan(&st.Total, &st.NewThisMonth, &st.Active, &st.Delivered, &st.Archived)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count projects: %w", classify(err))
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM external_resources WHERE status = 'pending'").Scan(&st.PendingResources); err != nil {
		return Stats{}, fmt.Errorf("failed to count resources: %w", classify(err))
	}

	if st.TopTags, err = s.topTags(ctx, topN); err != nil {
		return Stats{}, err
	}
	if st.RecentActivity, err = s.recentActivity(ctx, recentN); err != nil {
		return Stats{}, err
	}
	if st.MonthCounts, err = s.monthCounts(ctx); err != nil {
		return Stats{}, err
	}
	return st, nil
}

func (s *Store) topTags(ctx context.Context, n int) ([]TagCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag, COUNT(DISTINCT project_id) AS c FROM (
			SELECT p.id AS project_id, j.value AS tag FROM projects p, json_each(p.tags_json) j
			UNION ALL
			SELECT ft.project_id, ft.tag_name FROM file_tags ft JOIN projects p ON p.id = ft.project_id
		)
		GROUP BY tag ORDER BY c DESC, tag ASC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to count tags: %w", classify(err))
	}
	defer rows.Close()

	out := []TagCount{}
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, classify(err)
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count tags: %w", classify(err))
	}
	return out, nil
}

func (s *Store) recentActivity(ctx context.Context, n int) ([]Activity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, customer, status, create_time, last_open_time
		FROM projects
		ORDER BY COALESCE(last_open_time, create_time) DESC, id
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", classify(err))
	}
	defer rows.Close()

	out := []Activity{}
	for rows.Next() {
		var (
			a        Activity
			created  string
			lastOpen sql.NullString
		)
		if err := rows.Scan(&a.ProjectID, &a.Name, &a.Customer, &a.Status, &created, &lastOpen); err != nil {
			return nil, classify(err)
		}
		a.Action, a.Time = "created", parseTime(created)
		if lastOpen.Valid && lastOpen.String >= created {
			a.Action, a.Time = "opened", parseTime(lastOpen.String)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", classify(err))
	}
	return out, nil
}

func (s *Store) monthCounts(ctx context.Context) ([]MonthCount, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT month, COUNT(*) FROM projects GROUP BY month ORDER BY month DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to count months: %w", classify(err))
	}
	defer rows.Close()

	out := []MonthCount{}
	for rows.Next() {
		var mc MonthCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, classify(err)
		}
		out = append(out, mc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count months: %w", classify(err))
	}
	return out, nil
}
