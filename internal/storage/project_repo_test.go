package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// dumpTables renders every persisted row so two index states can be compared.
func dumpTables(t *testing.T, s *Store) map[string][]string {
	t.Helper()
	tables := []string{"projects", "project_files", "item_tags", "file_tags", "disabled_auto_tags", "external_resources", "file_notes"}
	out := make(map[string][]string, len(tables))
	for _, table := range tables {
		rows, err := s.db.Query("SELECT * FROM " + table + " ORDER BY 1, 2")
		if err != nil {
			t.Fatalf("failed to dump %s: %v", table, err)
		}
		cols, _ := rows.Columns()
		for rows.Next() {
			vals := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range vals {
				ptrs[i] = &vals[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				t.Fatalf("failed to scan %s: %v", table, err)
			}
			for i, v := range vals {
				if b, ok := v.([]byte); ok {
					vals[i] = string(b)
				}
			}
			out[table] = append(out[table], fmt.Sprint(vals...))
		}
		_ = rows.Close()
	}
	return out
}

func TestStore_UpsertProject(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(mode.name, func(t *testing.T) {
			s := openTestStore(t, mode.opts)
			ctx := context.Background()

			changed, err := s.UpsertProject(ctx, sampleProjection())
			if err != nil {
				t.Fatalf("UpsertProject() error = %v", err)
			}
			if !changed {
				t.Error("UpsertProject() changed = false on first write")
			}

			got, err := s.GetProject(ctx, "PRJ-202403-001")
			if err != nil {
				t.Fatalf("GetProject() error = %v", err)
			}
			if got.Name != "前梁壳体" || got.Month != "2024-03" || got.Status != "ongoing" {
				t.Errorf("GetProject() = %+v", got)
			}
			if diff := cmp.Diff([]string{"压铸"}, got.Tags); diff != "" {
				t.Errorf("Tags mismatch (-want +got):\n%s", diff)
			}

			tags, err := s.TagsForProject(ctx, "PRJ-202403-001")
			if err != nil {
				t.Fatalf("TagsForProject() error = %v", err)
			}
			sources := map[string]string{}
			for _, tag := range tags {
				sources[tag.Path+"|"+tag.Name] = tag.Source
			}
			want := map[string]string{
				"PRJ-202403-001/01_工程数据|常用":            SourceManual,
				"PRJ-202403-001/01_工程数据/模具_第一版.pdf|第一版":   SourceAuto,
				"PRJ-202403-001/01_工程数据/模具_第一版.pdf|模具图":   SourceAuto,
				"PRJ-202403-001/01_工程数据/模具_第一版.pdf|PDF文档": SourceAuto,
			}
			if diff := cmp.Diff(want, sources); diff != "" {
				t.Errorf("tags mismatch (-want +got):\n%s", diff)
			}

			ids, err := s.Search(ctx, "常用", 10, SearchOptions{})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if diff := cmp.Diff([]string{"PRJ-202403-001"}, ids); diff != "" {
				t.Errorf("Search(常用) mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_UpsertProject_UnchangedIsNoop(t *testing.T) {
	s := openTestStore(t, Options{})
	ctx := context.Background()

	if _, err := s.UpsertProject(ctx, sampleProjection()); err != nil {
		t.Fatalf("UpsertProject() error = %v", err)
	}
	before := dumpTables(t, s)

	// same content in a different walk order
	p := sampleProjection()
	p.Items[0], p.Items[1] = p.Items[1], p.Items[0]
	p.AutoTags[0], p.AutoTags[2] = p.AutoTags[2], p.AutoTags[0]

	changed, err := s.UpsertProject(ctx, p)
	if err != nil {
		t.Fatalf("UpsertProject() error = %v", err)
	}
	if changed {
		t.Error("UpsertProject() changed = true for identical projection")
	}
	if diff := cmp.Diff(before, dumpTables(t, s)); diff != "" {
		t.Errorf("index changed (-before +after):\n%s", diff)
	}
}

func TestStore_UpsertProject_ReplacesDerivedRows(t *testing.T) {
	s := openTestStore(t, Options{})
	ctx := context.Background()

	if _, err := s.UpsertProject(ctx, sampleProjection()); err != nil {
		t.Fatalf("UpsertProject() error = %v", err)
	}
	if _, _, err := s.AddFileTag(ctx, FileTag{Path: "PRJ-202403-001/01_工程数据/模具_第一版.pdf", Name: "重要"}); err != nil {
		t.Fatalf("AddFileTag() error = %v", err)
	}

	p := sampleProjection()
	p.Items = p.Items[:1]
	p.AutoTags = nil
	p.ManualTags = append(p.ManualTags, ItemTag{RelPath: "01_工程数据/模具_第一版.pdf", Name: "重要", Category: "custom"})
	if _, err := s.UpsertProject(ctx, p); err != nil {
		t.Fatalf("UpsertProject() error = %v", err)
	}

	tags, err := s.TagsFor(ctx, "PRJ-202403-001/01_工程数据/模具_第一版.pdf")
	if err != nil {
		t.Fatalf("TagsFor() error = %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "重要" || tags[0].Source != SourceManual {
		t.Errorf("TagsFor() = %+v, want only the manual tag", tags)
	}

	ids, err := s.Search(ctx, "模具", 10, SearchOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Search(模具) = %v, want no hits after the file left", ids)
	}
}

func TestStore_DeleteProject(t *testing.T) {
	s := openTestStore(t, Options{})
	ctx := context.Background()

	if _, err := s.UpsertProject(ctx, sampleProjection()); err != nil {
		t.Fatalf("UpsertProject() error = %v", err)
	}
	if err := s.DeleteProject(ctx, "PRJ-202403-001"); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if _, err := s.GetProject(ctx, "PRJ-202403-001"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProject() error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteProject(ctx, "PRJ-202403-001"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteProject() error = %v, want ErrNotFound", err)
	}

	tags, err := s.TagsForProject(ctx, "PRJ-202403-001")
	if err != nil {
		t.Fatalf("TagsForProject() error = %v", err)
	}
	if len(tags) != 1 || tags[0].Source != SourceManual {
		t.Errorf("TagsForProject() = %+v, want the manual tag kept", tags)
	}
}

func TestStore_ListProjects(t *testing.T) {
	s := openTestStore(t, Options{})
	ctx := context.Background()

	a := sampleProjection()
	b := sampleProjection()
	b.ID, b.Name, b.Status, b.Tags = "PRJ-202403-002", "支架", "delivered", []string{"重要"}
	b.ManualTags, b.AutoTags, b.Items = nil, nil, nil
	c := sampleProjection()
	c.ID, c.Name, c.Status, c.Tags = "PRJ-202402-001", "端盖", "archived", nil
	c.ManualTags, c.AutoTags, c.Items = nil, nil, nil

	for _, p := range []Projection{a, b, c} {
		if _, err := s.UpsertProject(ctx, p); err != nil {
			t.Fatalf("UpsertProject(%s) error = %v", p.ID, err)
		}
	}
	if err := s.SetPinned(ctx, "PRJ-202402-001", true); err != nil {
		t.Fatalf("SetPinned() error = %v", err)
	}

	pinned := true
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "all pinned first", filter: Filter{}, want: []string{"PRJ-202402-001", "PRJ-202403-001", "PRJ-202403-002"}},
		{name: "status", filter: Filter{Status: "delivered"}, want: []string{"PRJ-202403-002"}},
		{name: "project tag", filter: Filter{Tag: "重要"}, want: []string{"PRJ-202403-002"}},
		{name: "item tag", filter: Filter{Tag: "常用"}, want: []string{"PRJ-202403-001"}},
		{name: "auto tag", filter: Filter{Tag: "PDF文档"}, want: []string{"PRJ-202403-001"}},
		{name: "pinned", filter: Filter{Pinned: &pinned}, want: []string{"PRJ-202402-001"}},
		{name: "no match", filter: Filter{Status: "ongoing", Tag: "重要"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListProjects(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListProjects() error = %v", err)
			}
			ids := []string{}
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Errorf("ListProjects() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_MarkOpened(t *testing.T) {
	s := openTestStore(t, Options{})
	ctx := context.Background()

	if _, err := s.UpsertProject(ctx, sampleProjection()); err != nil {
		t.Fatalf("UpsertProject() error = %v", err)
	}
	for range 2 {
		if err := s.MarkOpened(ctx, "PRJ-202403-001"); err != nil {
			t.Fatalf("MarkOpened() error = %v", err)
		}
	}
	p, err := s.GetProject(ctx, "PRJ-202403-001")
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if p.OpenCount != 2 || p.LastOpenTime == nil {
		t.Errorf("GetProject() OpenCount = %d, LastOpenTime = %v", p.OpenCount, p.LastOpenTime)
	}

	if err := s.MarkOpened(ctx, "PRJ-209901-001"); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkOpened(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	a := sampleProjection()
	b := sampleProjection()
	b.Items[0], b.Items[1] = b.Items[1], b.Items[0]
	b.AutoTags[0], b.AutoTags[1] = b.AutoTags[1], b.AutoTags[0]

	if fingerprint(a) != fingerprint(b) {
		t.Error("fingerprint() depends on walk order")
	}

	b.Description = "changed"
	if fingerprint(a) == fingerprint(b) {
		t.Error("fingerprint() ignores a field change")
	}
}
