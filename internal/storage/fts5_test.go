//go:build sqlite_fts5

package storage

import (
	"context"
	"testing"
)

func TestOpen_FTSCompiledIn(t *testing.T) {
	s := openTestStore(t, Options{})
	if !s.FTSEnabled() {
		t.Fatal("FTSEnabled() = false in a sqlite_fts5 build")
	}

	if _, err := s.UpsertProject(context.Background(), sampleProjection()); err != nil {
		t.Fatalf("UpsertProject() error = %v", err)
	}
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM project_fts WHERE project_fts MATCH ?", `"前梁"*`).Scan(&n); err != nil {
		t.Fatalf("fts query error = %v", err)
	}
	if n != 1 {
		t.Errorf("fts rows for 前梁 = %d, want 1", n)
	}

	like := openTestStore(t, Options{DisableFTS: true})
	if like.FTSEnabled() {
		t.Error("FTSEnabled() = true with DisableFTS")
	}
}
