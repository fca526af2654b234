package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dcpm/internal/library"
	"dcpm/internal/metadata"
	"dcpm/internal/service"
)

func TestService_CreateProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.CreateProject(ctx, service.CreateProjectRequest{
		Name:       "支架",
		Customer:   "长安",
		PartNumber: "7001",
		Tags:       []string{"压铸", " 铝合金 "},
	})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if got.ID != "PRJ-202403-002" || got.Status != metadata.StatusOngoing || got.Month != "2024-03" {
		t.Errorf("CreateProject() = %+v", got)
	}
	if want := filepath.Join(f.layout.Root, "2024-03", "PRJ-202403-002_长安_支架"); got.ProjectDir != want {
		t.Errorf("ProjectDir = %s, want %s", got.ProjectDir, want)
	}
	if diff := cmp.Diff([]string{"压铸", "铝合金"}, got.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	for _, sub := range library.DefaultFolders {
		if info, err := os.Stat(filepath.Join(got.ProjectDir, sub)); err != nil || !info.IsDir() {
			t.Errorf("default folder %s missing: %v", sub, err)
		}
	}

	found, err := f.svc.Search(ctx, service.SearchRequest{Query: "长安"})
	if err != nil || len(found) != 1 || found[0].ID != got.ID {
		t.Errorf("Search() after create = %v, %v", found, err)
	}
}

func TestService_CreateProject_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     service.CreateProjectRequest
		wantErr error
	}{
		{name: "part number taken", req: service.CreateProjectRequest{Name: "b", Customer: "c", PartNumber: " 8891 "}, wantErr: service.ErrConflict},
		{name: "missing customer", req: service.CreateProjectRequest{Name: "b"}, wantErr: service.ErrInvalidInput},
		{name: "bad month", req: service.CreateProjectRequest{Month: "2024-3", Name: "b", Customer: "c"}, wantErr: service.ErrInvalidInput},
		{name: "blank name", req: service.CreateProjectRequest{Name: "  ", Customer: "c"}, wantErr: service.ErrInvalidInput},
		{name: "tag with separator", req: service.CreateProjectRequest{Name: "b", Customer: "c", Tags: []string{"a,b"}}, wantErr: service.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.CreateProject(ctx, tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateProject() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	entries, err := os.ReadDir(filepath.Join(f.layout.Root, "2024-03"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("month directory has %d entries, want 1", len(entries))
	}
}

func TestService_ArchiveUnarchive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.svc.SetPinned(ctx, projectID, true); err != nil {
		t.Fatalf("SetPinned() error = %v", err)
	}

	archived, err := f.svc.ArchiveProject(ctx, projectID)
	if err != nil {
		t.Fatalf("ArchiveProject() error = %v", err)
	}
	if archived.Status != metadata.StatusArchived || !archived.Pinned {
		t.Errorf("ArchiveProject() = %+v", archived)
	}
	if want := filepath.Join(f.layout.ArchivePath(), filepath.Base(f.projectDir)); archived.ProjectDir != want {
		t.Errorf("ProjectDir = %s, want %s", archived.ProjectDir, want)
	}
	if _, err := os.Stat(f.projectDir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("old folder still present: %v", err)
	}
	if p, err := metadata.ReadDir(archived.ProjectDir); err != nil || p.Status != metadata.StatusArchived {
		t.Errorf("archived sidecar = %+v, %v", p, err)
	}

	found, err := f.svc.Search(ctx, service.SearchRequest{Query: "比亚迪"})
	if err != nil || len(found) != 0 {
		t.Errorf("Search() without archived = %v, %v", found, err)
	}

	delivered := metadata.StatusDelivered
	if _, err := f.svc.UpdateProject(ctx, projectID, service.ProjectUpdate{Status: &delivered}); !errors.Is(err, service.ErrConflict) {
		t.Errorf("UpdateProject() of an archived project error = %v, want ErrConflict", err)
	}
	if _, err := f.svc.UnarchiveProject(ctx, projectID, metadata.StatusArchived); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("UnarchiveProject(archived) error = %v, want ErrInvalidInput", err)
	}

	back, err := f.svc.UnarchiveProject(ctx, projectID, delivered)
	if err != nil {
		t.Fatalf("UnarchiveProject() error = %v", err)
	}
	if back.Status != delivered || back.ProjectDir != f.projectDir {
		t.Errorf("UnarchiveProject() = %+v", back)
	}
	tags, err := f.svc.TagsFor(ctx, pdfPath)
	if err != nil || len(tags) == 0 {
		t.Errorf("TagsFor() after unarchive = %v, %v", tags, err)
	}
}

func TestService_ArchiveProject_Unknown(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.ArchiveProject(context.Background(), "PRJ-209901-001"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("ArchiveProject() error = %v, want ErrNotFound", err)
	}
}

func TestService_UpdateProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	delivered := metadata.StatusDelivered
	desc := "  二期模具  "
	tags := []string{"压铸", "返修"}
	got, err := f.svc.UpdateProject(ctx, projectID, service.ProjectUpdate{Status: &delivered, Description: &desc, Tags: &tags})
	if err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}
	if got.Status != delivered || got.Description != "二期模具" {
		t.Errorf("UpdateProject() = %+v", got)
	}
	if diff := cmp.Diff(tags, got.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	p, err := metadata.ReadDir(f.projectDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if p.Status != delivered || p.PartNumber != "8891" {
		t.Errorf("sidecar = %+v", p)
	}

	archived := metadata.StatusArchived
	if _, err := f.svc.UpdateProject(ctx, projectID, service.ProjectUpdate{Status: &archived}); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("UpdateProject(archived) error = %v, want ErrInvalidInput", err)
	}
}

func TestService_ProjectMoves_NoLibraryRoot(t *testing.T) {
	svc := service.New(service.Config{})
	defer svc.Close()
	ctx := context.Background()

	if _, err := svc.CreateProject(ctx, service.CreateProjectRequest{Name: "b", Customer: "c"}); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("CreateProject() error = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.ArchiveProject(ctx, projectID); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("ArchiveProject() error = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.UnarchiveProject(ctx, projectID, ""); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("UnarchiveProject() error = %v, want ErrInvalidInput", err)
	}
}
