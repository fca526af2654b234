package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestStore_GetStats(t *testing.T) {
	now := time.Date(2024, 3, 20, 9, 0, 0, 0, time.Local)
	s := openTestStore(t, Options{Now: func() time.Time { return now }})
	ctx := context.Background()

	a := sampleProjection()
	b := sampleProjection()
	b.ID, b.Status, b.Tags = "PRJ-202402-004", "delivered", []string{"压铸", "重要"}
	b.CreateTime = time.Date(2024, 2, 10, 8, 0, 0, 0, time.Local)
	b.ManualTags, b.AutoTags, b.Items = nil, nil, nil
	c := sampleProjection()
	c.ID, c.Status, c.Tags = "PRJ-202401-002", "archived", nil
	c.CreateTime = time.Date(2024, 1, 5, 8, 0, 0, 0, time.Local)
	c.ManualTags, c.AutoTags, c.Items = nil, nil, nil

	for _, p := range []Projection{a, b, c} {
		if _, err := s.UpsertProject(ctx, p); err != nil {
			t.Fatalf("UpsertProject(%s) error = %v", p.ID, err)
		}
	}
	if err := s.MarkOpened(ctx, "PRJ-202401-002"); err != nil {
		t.Fatalf("MarkOpened() error = %v", err)
	}
	if _, err := s.RecordExternalResources(ctx, sampleResources()); err != nil {
		t.Fatalf("RecordExternalResources() error = %v", err)
	}

	st, err := s.GetStats(ctx, 2, 2)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}

	if st.Total != 3 || st.NewThisMonth != 1 || st.Active != 1 || st.Delivered != 1 || st.Archived != 1 {
		t.Errorf("counts = %+v", st)
	}
	if st.PendingResources != 2 {
		t.Errorf("PendingResources = %d, want 2", st.PendingResources)
	}
	wantTags := []TagCount{{Tag: "压铸", Count: 2}, {Tag: "PDF文档", Count: 1}}
	if diff := cmp.Diff(wantTags, st.TopTags); diff != "" {
		t.Errorf("TopTags mismatch (-want +got):\n%s", diff)
	}
	if len(st.RecentActivity) != 2 {
		t.Fatalf("RecentActivity = %+v", st.RecentActivity)
	}
	if st.RecentActivity[0].ProjectID != "PRJ-202401-002" || st.RecentActivity[0].Action != "opened" {
		t.Errorf("RecentActivity[0] = %+v, want the opened project", st.RecentActivity[0])
	}
	if st.RecentActivity[1].ProjectID != "PRJ-202403-001" || st.RecentActivity[1].Action != "created" {
		t.Errorf("RecentActivity[1] = %+v", st.RecentActivity[1])
	}
	wantMonths := []MonthCount{{Month: "2024-03", Count: 1}, {Month: "2024-02", Count: 1}, {Month: "2024-01", Count: 1}}
	if diff := cmp.Diff(wantMonths, st.MonthCounts); diff != "" {
		t.Errorf("MonthCounts mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_GetStats_QueryFailure(t *testing.T) {
	s := openTestStore(t, Options{})
	ctx := context.Background()

	if _, err := s.UpsertProject(ctx, sampleProjection()); err != nil {
		t.Fatalf("UpsertProject() error = %v", err)
	}
	// json_each fails while the tag rows are stepped, not when the query is prepared
	if _, err := s.db.Exec("UPDATE projects SET tags_json = '[\"压铸\"' WHERE id = ?", "PRJ-202403-001"); err != nil {
		t.Fatalf("failed to damage tags_json: %v", err)
	}

	if st, err := s.GetStats(ctx, 5, 5); err == nil {
		t.Errorf("GetStats() = %+v, want an error for unreadable tags", st.TopTags)
	}
}
