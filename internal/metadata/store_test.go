package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
		check   func(*testing.T, *Project)
	}{
		{
			name: "full document",
			content: `{
  "id": "PRJ-202403-001",
  "name": "前梁",
  "customer": "比亚迪",
  "create_time": "2024-03-05T10:20:30",
  "status": "delivered",
  "tags": ["常用", " ", "紧急"],
  "item_tags": {"./01_工程数据/": ["常用", "常用", ""], "": ["x"]},
  "customer_code": "BYD",
  "part_number": "A-100",
  "description": null,
  "cover_image": "  "
}`,
			check: func(t *testing.T, p *Project) {
				want := &Project{
					ID:           "PRJ-202403-001",
					Name:         "前梁",
					Customer:     "比亚迪",
					CreateTime:   time.Date(2024, 3, 5, 10, 20, 30, 0, time.Local),
					Status:       StatusDelivered,
					Tags:         []string{"常用", "紧急"},
					ItemTags:     map[string][]string{"01_工程数据": {"常用"}},
					CustomerCode: "BYD",
					PartNumber:   "A-100",
				}
				if diff := cmp.Diff(want, p); diff != "" {
					t.Errorf("Read() mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name:    "defaults for missing optional fields",
			content: `{"id":"PRJ-202401-002","name":"壳体","customer":"c","create_time":"2024-01-02T03:04:05","tags":"oops"}`,
			check: func(t *testing.T, p *Project) {
				if p.Status != StatusOngoing {
					t.Errorf("Status = %q, want %q", p.Status, StatusOngoing)
				}
				if len(p.Tags) != 0 {
					t.Errorf("Tags = %v, want empty", p.Tags)
				}
				if p.ItemTags != nil {
					t.Errorf("ItemTags = %v, want nil", p.ItemTags)
				}
			},
		},
		{
			name:    "malformed json",
			content: `{"id": "PRJ-202401-002",`,
			wantErr: &MalformedError{},
		},
		{
			name:    "missing create_time",
			content: `{"id":"PRJ-202401-002","name":"壳体","customer":"c"}`,
			wantErr: &MalformedError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			p, err := Read(path)
			if tt.wantErr != nil {
				var malformed *MalformedError
				if !errors.As(err, &malformed) {
					t.Fatalf("Read() error = %v, want *MalformedError", err)
				}
				if malformed.Path != path {
					t.Errorf("MalformedError.Path = %q, want %q", malformed.Path, path)
				}
				return
			}
			if err != nil {
				t.Fatalf("Read() unexpected error: %v", err)
			}
			tt.check(t, p)
		})
	}
}

func TestRead_Missing(t *testing.T) {
	_, err := ReadDir(t.TempDir())
	if !errors.Is(err, ErrNoMetadata) {
		t.Fatalf("ReadDir() error = %v, want ErrNoMetadata", err)
	}
}

func TestWriteThenRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "PRJ-202403-001_客户_前梁")
	p := &Project{
		ID:         "PRJ-202403-001",
		Name:       "前梁",
		Customer:   "客户",
		CreateTime: time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local),
		Status:     StatusOngoing,
		ItemTags:   map[string][]string{"01_工程数据": {"常用"}},
		PartNumber: "PN-7",
	}

	if err := Write(PathFor(dir), p); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	raw, err := os.ReadFile(PathFor(dir))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	for _, want := range []string{`"create_time": "2024-03-01T09:00:00"`, `"tags": []`, `"description": null`, `"前梁"`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("written JSON missing %s:\n%s", want, raw)
		}
	}

	got, err := ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	p.Tags = []string{}
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdate_KeepsIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)
	if err := Write(path, &Project{ID: "PRJ-202403-001", Name: "n", Customer: "c", CreateTime: created, Status: StatusOngoing}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := Update(path, func(p *Project) error {
		p.ID = "PRJ-209901-999"
		p.CreateTime = time.Now()
		AddItemTag(p, `a\b.pdf`, "常用")
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.ID != "PRJ-202403-001" || !got.CreateTime.Equal(created) {
		t.Errorf("Update() changed identity: id=%s create_time=%v", got.ID, got.CreateTime)
	}
	if diff := cmp.Diff(map[string][]string{"a/b.pdf": {"常用"}}, got.ItemTags); diff != "" {
		t.Errorf("ItemTags mismatch (-want +got):\n%s", diff)
	}
}

func TestItemTagEdits(t *testing.T) {
	p := &Project{}
	if !AddItemTag(p, "x.pdf", "a") {
		t.Error("AddItemTag() first add = false, want true")
	}
	if AddItemTag(p, "x.pdf", "a") {
		t.Error("AddItemTag() duplicate add = true, want false")
	}
	if RemoveItemTag(p, "x.pdf", "missing") {
		t.Error("RemoveItemTag() missing tag = true, want false")
	}
	if !RemoveItemTag(p, "x.pdf", "a") {
		t.Error("RemoveItemTag() = false, want true")
	}
	if _, ok := p.ItemTags["x.pdf"]; ok {
		t.Error("RemoveItemTag() left an empty entry")
	}
}
