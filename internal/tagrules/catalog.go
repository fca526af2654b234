package tagrules

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// Tag categories.
const (
	CategoryVersion = "version"
	CategoryType    = "type"
	CategoryStage   = "stage"
	CategoryCustom  = "custom"
)

// ValidCategory reports whether c is a known tag category.
func ValidCategory(c string) bool {
	switch c {
	case CategoryVersion, CategoryType, CategoryStage, CategoryCustom:
		return true
	}
	return false
}

// VersionRule is one family of version patterns. The first match of Pattern
// in a name is expanded with Template ($1 style references). When Upper is set
// the expanded submatches are upper-cased.
type VersionRule struct {
	Family   string `json:"family"`
	Pattern  string `json:"pattern"`
	Template string `json:"template"`
	Upper    bool   `json:"upper,omitempty"`
}

// Keyword maps a case-insensitive substring to a tag label.
type Keyword struct {
	Keyword string `json:"keyword"`
	Label   string `json:"label"`
}

// QuickTag is a preset offered for one-click manual tagging.
type QuickTag struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Color    string `json:"color,omitempty"`
}

// Catalog holds every data table the engine evaluates.
type Catalog struct {
	VersionRules   []VersionRule     `json:"version_rules"`
	TypeKeywords   []Keyword         `json:"type_keywords"`
	Extensions     map[string]string `json:"extensions"`
	StageKeywords  []Keyword         `json:"stage_keywords"`
	CategoryColors map[string]string `json:"category_colors"`
	Quick          []QuickTag        `json:"quick"`
}

// DefaultCatalog returns the built-in die-casting catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		VersionRules: []VersionRule{
			{Family: "chinese_ordinal", Pattern: `第([一二三四五六七八九十百零〇\d]+)版`, Template: "第${1}版"},
			{Family: "v_number", Pattern: `(?i)(?:^|[^a-z])(?:version|ver|v)[ ._-]?(\d+(?:\.\d+)?)`, Template: "V${1}"},
			{Family: "revision", Pattern: `(?i)(?:^|[^a-z])rev[ ._-]?(\d+|[a-z])(?:[^a-z]|$)`, Template: "Rev${1}", Upper: true},
			{Family: "final", Pattern: `(?i)(最终版|终版|定稿|(?:^|[^a-z])final(?:[^a-z]|$))`, Template: "最终版"},
		},
		TypeKeywords: []Keyword{
			{Keyword: "流道", Label: "流道图"},
			{Keyword: "浇注", Label: "流道图"},
			{Keyword: "runner", Label: "流道图"},
			{Keyword: "模流", Label: "模流报告"},
			{Keyword: "moldflow", Label: "模流报告"},
			{Keyword: "模具", Label: "模具图"},
			{Keyword: "三维", Label: "3D数据"},
			{Keyword: "3d", Label: "3D数据"},
			{Keyword: "图纸", Label: "2D图纸"},
			{Keyword: "2d", Label: "2D图纸"},
			{Keyword: "报价", Label: "报价单"},
			{Keyword: "探伤", Label: "检测报告"},
			{Keyword: "x-ray", Label: "检测报告"},
			{Keyword: "xray", Label: "检测报告"},
			{Keyword: "检测", Label: "检测报告"},
			{Keyword: "合同", Label: "合同"},
			{Keyword: "会议", Label: "会议纪要"},
			{Keyword: "问题", Label: "问题记录"},
		},
		Extensions: map[string]string{
			".pdf":  "PDF文档",
			".doc":  "Word文档",
			".docx": "Word文档",
			".xls":  "Excel表格",
			".xlsx": "Excel表格",
			".ppt":  "PPT演示",
			".pptx": "PPT演示",
			".stp":  "3D模型",
			".step": "3D模型",
			".igs":  "3D模型",
			".iges": "3D模型",
			".x_t":  "3D模型",
			".prt":  "3D模型",
			".dwg":  "CAD图纸",
			".dxf":  "CAD图纸",
			".jpg":  "图片",
			".jpeg": "图片",
			".png":  "图片",
			".zip":  "压缩包",
			".rar":  "压缩包",
			".7z":   "压缩包",
		},
		StageKeywords: []Keyword{
			{Keyword: "试模", Label: "试模"},
			{Keyword: "trial", Label: "试模"},
			{Keyword: "打样", Label: "样品"},
			{Keyword: "样品", Label: "样品"},
			{Keyword: "量产", Label: "量产"},
			{Keyword: "评审", Label: "评审"},
			{Keyword: "设计", Label: "设计"},
			{Keyword: "交付", Label: "交付"},
		},
		CategoryColors: map[string]string{
			CategoryVersion: "#3B82F6",
			CategoryType:    "#10B981",
			CategoryStage:   "#F59E0B",
			CategoryCustom:  "#6B7280",
		},
		Quick: []QuickTag{
			{Name: "常用", Category: CategoryCustom},
			{Name: "重要", Category: CategoryCustom, Color: "#EF4444"},
			{Name: "待确认", Category: CategoryStage},
			{Name: "已确认", Category: CategoryStage},
			{Name: "客户提供", Category: CategoryType},
			{Name: "最终版", Category: CategoryVersion},
		},
	}
}

// catalogFile mirrors Catalog with optional sections so a file can override
// only part of the defaults.
type catalogFile struct {
	VersionRules   *[]VersionRule     `json:"version_rules"`
	TypeKeywords   *[]Keyword         `json:"type_keywords"`
	Extensions     *map[string]string `json:"extensions"`
	StageKeywords  *[]Keyword         `json:"stage_keywords"`
	CategoryColors *map[string]string `json:"category_colors"`
	Quick          *[]QuickTag        `json:"quick"`
}

// LoadCatalog reads a catalog file (JSON with comments and trailing commas
// allowed) and overlays every section it defines onto DefaultCatalog.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read tag catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses catalog data as described in LoadCatalog.
func ParseCatalog(data []byte) (Catalog, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to parse tag catalog: %w", err)
	}
	var f catalogFile
	if err := json.Unmarshal(std, &f); err != nil {
		return Catalog{}, fmt.Errorf("failed to decode tag catalog: %w", err)
	}

	c := DefaultCatalog()
	if f.VersionRules != nil {
		c.VersionRules = *f.VersionRules
	}
	if f.TypeKeywords != nil {
		c.TypeKeywords = *f.TypeKeywords
	}
	if f.Extensions != nil {
		c.Extensions = *f.Extensions
	}
	if f.StageKeywords != nil {
		c.StageKeywords = *f.StageKeywords
	}
	if f.CategoryColors != nil {
		for k, v := range *f.CategoryColors {
			c.CategoryColors[k] = v
		}
	}
	if f.Quick != nil {
		c.Quick = *f.Quick
	}
	return c, nil
}
