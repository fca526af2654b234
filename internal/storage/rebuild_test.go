package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStore_Rebuild_PreservesUserState(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(mode.name, func(t *testing.T) {
			s := openTestStore(t, mode.opts)
			ctx := context.Background()

			gone := sampleProjection()
			gone.ID, gone.Name = "PRJ-202402-009", "已删除"
			gone.ManualTags, gone.AutoTags, gone.Items = nil, nil, nil
			for _, p := range []Projection{sampleProjection(), gone} {
				if _, err := s.UpsertProject(ctx, p); err != nil {
					t.Fatalf("UpsertProject() error = %v", err)
				}
			}
			if err := s.SetPinned(ctx, "PRJ-202403-001", true); err != nil {
				t.Fatalf("SetPinned() error = %v", err)
			}
			if _, _, err := s.AddFileTag(ctx, FileTag{Path: pdfPath, Name: "重要"}); err != nil {
				t.Fatalf("AddFileTag() error = %v", err)
			}
			if err := s.DisableAutoTag(ctx, pdfPath, "模具图"); err != nil {
				t.Fatalf("DisableAutoTag() error = %v", err)
			}
			if _, err := s.SaveNote(ctx, pdfPath, "# 备注\n客户要求加厚", "备注 客户要求加厚"); err != nil {
				t.Fatalf("SaveNote() error = %v", err)
			}

			queries := []string{"常用", "前梁", "重要", "加厚", "第一版"}
			before := map[string][]string{}
			for _, q := range queries {
				ids, err := s.Search(ctx, q, 10, SearchOptions{})
				if err != nil {
					t.Fatalf("Search(%q) error = %v", q, err)
				}
				before[q] = ids
			}

			// the sidecar now lists the manual tag
			current := sampleProjection()
			current.ManualTags = append(current.ManualTags, ItemTag{RelPath: "01_工程数据/模具_第一版.pdf", Name: "重要", Category: "custom"})
			res, err := s.Rebuild(ctx, []Projection{current})
			if err != nil {
				t.Fatalf("Rebuild() error = %v", err)
			}
			if res.Projects != 1 || res.Removed != 1 {
				t.Errorf("Rebuild() = %+v, want 1 project and 1 removed", res)
			}

			after := map[string][]string{}
			for _, q := range queries {
				ids, err := s.Search(ctx, q, 10, SearchOptions{})
				if err != nil {
					t.Fatalf("Search(%q) error = %v", q, err)
				}
				after[q] = ids
			}
			if diff := cmp.Diff(before, after); diff != "" {
				t.Errorf("search results changed by rebuild (-before +after):\n%s", diff)
			}

			p, err := s.GetProject(ctx, "PRJ-202403-001")
			if err != nil {
				t.Fatalf("GetProject() error = %v", err)
			}
			if !p.Pinned {
				t.Error("pinned flag lost")
			}
			if _, err := s.GetProject(ctx, "PRJ-202402-009"); !errors.Is(err, ErrNotFound) {
				t.Errorf("stale project survived: %v", err)
			}
			if n := countTags(t, s, pdfPath, "模具图"); n != 0 {
				t.Error("disabled auto tag came back")
			}
			if n := countTags(t, s, pdfPath, "重要"); n != 1 {
				t.Error("manual tag lost")
			}
			if _, err := s.GetNote(ctx, pdfPath); err != nil {
				t.Errorf("GetNote() error = %v", err)
			}
		})
	}
}

func TestStore_Rebuild_Idempotent(t *testing.T) {
	s := openTestStore(t, Options{Now: newClock().Now})
	ctx := context.Background()

	if _, err := s.Rebuild(ctx, []Projection{sampleProjection()}); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	first := dumpTables(t, s)
	if _, err := s.Rebuild(ctx, []Projection{sampleProjection()}); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	second := dumpTables(t, s)

	if len(first["projects"]) != len(second["projects"]) || len(first["file_tags"]) != len(second["file_tags"]) {
		t.Errorf("row counts differ: %d/%d projects, %d/%d tags",
			len(first["projects"]), len(second["projects"]), len(first["file_tags"]), len(second["file_tags"]))
	}
	if diff := cmp.Diff(first["item_tags"], second["item_tags"]); diff != "" {
		t.Errorf("item_tags differ (-first +second):\n%s", diff)
	}
}

func TestStore_Rebuild_CancelledWritesNothing(t *testing.T) {
	s := openTestStore(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Rebuild(ctx, []Projection{sampleProjection()}); err == nil {
		t.Fatal("Rebuild() with cancelled context expected error")
	}

	list, err := s.ListProjects(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("ListProjects() = %d projects after cancelled rebuild", len(list))
	}
}

func TestStore_ManualTagsFollowSidecar(t *testing.T) {
	write := map[string]func(s *Store, p Projection) error{
		"upsert": func(s *Store, p Projection) error {
			_, err := s.UpsertProject(context.Background(), p)
			return err
		},
		"rebuild": func(s *Store, p Projection) error {
			_, err := s.Rebuild(context.Background(), []Projection{p})
			return err
		},
	}

	for name, apply := range write {
		t.Run(name, func(t *testing.T) {
			s := openTestStore(t, Options{})
			ctx := context.Background()

			if _, err := s.UpsertProject(ctx, sampleProjection()); err != nil {
				t.Fatalf("UpsertProject() error = %v", err)
			}
			if n := countTags(t, s, "PRJ-202403-001/01_工程数据", "常用"); n != 1 {
				t.Fatalf("manual tag missing before the edit")
			}

			// item_tags was cleared in the sidecar by hand
			p := sampleProjection()
			p.ManualTags = nil
			if err := apply(s, p); err != nil {
				t.Fatalf("%s error = %v", name, err)
			}

			if n := countTags(t, s, "PRJ-202403-001/01_工程数据", "常用"); n != 0 {
				t.Errorf("manual tag survived the sidecar edit")
			}
			ids, err := s.Search(ctx, "常用", 10, SearchOptions{})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(ids) != 0 {
				t.Errorf("Search(常用) = %v, want no hits", ids)
			}
			// auto rows are untouched
			if n := countTags(t, s, pdfPath, "模具图"); n != 1 {
				t.Errorf("auto tag lost")
			}
		})
	}
}
