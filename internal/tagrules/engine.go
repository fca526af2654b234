// Package tagrules derives candidate tags from file and folder names.
//
// The engine is pure: it holds compiled data tables and never performs I/O.
// Every rule family (version patterns, type keywords, extension labels,
// stage keywords) is evaluated independently and the results are unioned in
// that order.
package tagrules

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Candidate is a derived tag.
type Candidate struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type versionRule struct {
	family   string
	re       *regexp.Regexp
	template string
	upper    bool
}

type keyword struct {
	needle string
	label  string
}

// Engine evaluates a Catalog against item names.
type Engine struct {
	versions   []versionRule
	types      []keyword
	extensions map[string]string
	stages     []keyword
	colors     map[string]string
	quick      []QuickTag
}

// New compiles a catalog. It fails only on invalid version patterns.
func New(c Catalog) (*Engine, error) {
	e := &Engine{
		extensions: make(map[string]string, len(c.Extensions)),
		colors:     make(map[string]string, len(c.CategoryColors)),
		quick:      append([]QuickTag(nil), c.Quick...),
	}
	for _, r := range c.VersionRules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid version rule %q: %w", r.Family, err)
		}
		e.versions = append(e.versions, versionRule{family: r.Family, re: re, template: r.Template, upper: r.Upper})
	}
	e.types = compileKeywords(c.TypeKeywords)
	e.stages = compileKeywords(c.StageKeywords)
	for ext, label := range c.Extensions {
		e.extensions[normalizeExt(ext)] = label
	}
	for cat, color := range c.CategoryColors {
		e.colors[cat] = color
	}
	for i := range e.quick {
		if e.quick[i].Color == "" {
			e.quick[i].Color = e.colors[e.quick[i].Category]
		}
	}
	return e, nil
}

// Default returns an engine over DefaultCatalog.
func Default() *Engine {
	e, err := New(DefaultCatalog())
	if err != nil {
		panic(err)
	}
	return e
}

// Derive returns the candidate tags for an item name. ext may be empty, in
// which case it is taken from name; directories should pass "-" to suppress
// extension labels.
func (e *Engine) Derive(name, ext string) []Candidate {
	if ext == "" {
		ext = filepath.Ext(name)
	}
	var out []Candidate
	seen := make(map[string]bool)
	add := func(n, cat string) {
		if n == "" || seen[n] {
			return
		}
		seen[n] = true
		out = append(out, Candidate{Name: n, Category: cat})
	}

	for _, r := range e.versions {
		m := r.re.FindStringSubmatchIndex(name)
		if m == nil {
			continue
		}
		src := name
		if r.upper {
			src = asciiUpper(name)
		}
		add(string(r.re.ExpandString(nil, r.template, src, m)), CategoryVersion)
	}

	lower := strings.ToLower(name)
	for _, k := range e.types {
		if strings.Contains(lower, k.needle) {
			add(k.label, CategoryType)
		}
	}
	if label, ok := e.extensions[normalizeExt(ext)]; ok {
		add(label, CategoryType)
	}
	for _, k := range e.stages {
		if strings.Contains(lower, k.needle) {
			add(k.label, CategoryStage)
		}
	}
	return out
}

// ColorFor returns the display color for a category.
func (e *Engine) ColorFor(category string) string {
	if c, ok := e.colors[category]; ok {
		return c
	}
	return e.colors[CategoryCustom]
}

// Quick returns a copy of the preset tags.
func (e *Engine) Quick() []QuickTag {
	return append([]QuickTag(nil), e.quick...)
}

// CategoryOf returns the category of a quick preset with the given name, or
// CategoryCustom.
func (e *Engine) CategoryOf(name string) string {
	for _, q := range e.quick {
		if q.Name == name {
			return q.Category
		}
	}
	return CategoryCustom
}

func compileKeywords(in []Keyword) []keyword {
	out := make([]keyword, 0, len(in))
	for _, k := range in {
		n := strings.ToLower(strings.TrimSpace(k.Keyword))
		if n == "" || k.Label == "" {
			continue
		}
		out = append(out, keyword{needle: n, label: k.Label})
	}
	return out
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && ext != "-" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// asciiUpper upper-cases ASCII letters only, so byte offsets into s stay valid.
func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
