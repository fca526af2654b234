package tagrules

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEngine_Derive(t *testing.T) {
	e := Default()

	tests := []struct {
		name string
		item string
		ext  string
		want []Candidate
	}{
		{
			name: "chinese ordinal version with pdf",
			item: "模具_第一版.pdf",
			want: []Candidate{
				{Name: "第一版", Category: CategoryVersion},
				{Name: "模具图", Category: CategoryType},
				{Name: "PDF文档", Category: CategoryType},
			},
		},
		{
			name: "v number and revision",
			item: "流道图_V2_revb.dwg",
			want: []Candidate{
				{Name: "V2", Category: CategoryVersion},
				{Name: "RevB", Category: CategoryVersion},
				{Name: "流道图", Category: CategoryType},
				{Name: "CAD图纸", Category: CategoryType},
			},
		},
		{
			name: "case insensitive keywords and extension",
			item: "MOLDFLOW Report Version 3.PDF",
			want: []Candidate{
				{Name: "V3", Category: CategoryVersion},
				{Name: "模流报告", Category: CategoryType},
				{Name: "PDF文档", Category: CategoryType},
			},
		},
		{
			name: "stage keywords",
			item: "T1试模问题汇总.xlsx",
			want: []Candidate{
				{Name: "问题记录", Category: CategoryType},
				{Name: "Excel表格", Category: CategoryType},
				{Name: "试模", Category: CategoryStage},
			},
		},
		{
			name: "directory suppresses extension label",
			item: "02_模流报告.v1",
			ext:  "-",
			want: []Candidate{
				{Name: "V1", Category: CategoryVersion},
				{Name: "模流报告", Category: CategoryType},
			},
		},
		{
			name: "letters before v do not form a version",
			item: "dev2 review notes.txt",
		},
		{
			name: "duplicate labels collapse",
			item: "浇注系统流道.pdf",
			want: []Candidate{
				{Name: "流道图", Category: CategoryType},
				{Name: "PDF文档", Category: CategoryType},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Derive(tt.item, tt.ext)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Derive(%q) mismatch (-want +got):\n%s", tt.item, diff)
			}
		})
	}
}

func TestEngine_DeriveIsDeterministic(t *testing.T) {
	e := Default()
	first := e.Derive("最终版_前梁_第3版_rev2.stp", "")
	for i := 0; i < 20; i++ {
		if diff := cmp.Diff(first, e.Derive("最终版_前梁_第3版_rev2.stp", "")); diff != "" {
			t.Fatalf("Derive() not deterministic (-first +got):\n%s", diff)
		}
	}
	want := []Candidate{
		{Name: "第3版", Category: CategoryVersion},
		{Name: "Rev2", Category: CategoryVersion},
		{Name: "最终版", Category: CategoryVersion},
		{Name: "3D模型", Category: CategoryType},
	}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("Derive() mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	c := DefaultCatalog()
	c.VersionRules = []VersionRule{{Family: "broken", Pattern: "("}}
	if _, err := New(c); err == nil {
		t.Fatal("New() expected error for invalid pattern")
	}
}

func TestParseCatalog_Overlay(t *testing.T) {
	data := []byte(`{
		// replace the quick presets only
		"quick": [
			{"name": "客户确认", "category": "stage"},
		],
		"extensions": {"PDF": "图纸PDF"},
		"category_colors": {"stage": "#000000"},
	}`)

	c, err := ParseCatalog(data)
	if err != nil {
		t.Fatalf("ParseCatalog() error = %v", err)
	}
	e, err := New(c)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	wantQuick := []QuickTag{{Name: "客户确认", Category: CategoryStage, Color: "#000000"}}
	if diff := cmp.Diff(wantQuick, e.Quick()); diff != "" {
		t.Errorf("Quick() mismatch (-want +got):\n%s", diff)
	}
	got := e.Derive("a.pdf", "")
	if diff := cmp.Diff([]Candidate{{Name: "图纸PDF", Category: CategoryType}}, got); diff != "" {
		t.Errorf("Derive() mismatch (-want +got):\n%s", diff)
	}
	if len(c.TypeKeywords) == 0 {
		t.Error("ParseCatalog() dropped default type keywords")
	}
	if e.ColorFor(CategoryVersion) != "#3B82F6" {
		t.Errorf("ColorFor(version) = %q", e.ColorFor(CategoryVersion))
	}
}

func TestParseCatalog_Invalid(t *testing.T) {
	if _, err := ParseCatalog([]byte(`{"quick": [`)); err == nil {
		t.Fatal("ParseCatalog() expected error")
	}
}

func TestEngine_QuickIsCopy(t *testing.T) {
	e := Default()
	q := e.Quick()
	q[0].Name = "changed"
	if e.Quick()[0].Name == "changed" {
		t.Error("Quick() exposed internal state")
	}
	if e.CategoryOf("最终版") != CategoryVersion {
		t.Errorf("CategoryOf(最终版) = %q", e.CategoryOf("最终版"))
	}
	if e.CategoryOf("unknown") != CategoryCustom {
		t.Errorf("CategoryOf(unknown) = %q", e.CategoryOf("unknown"))
	}
}
