// Package metadata reads and writes the per-project ".project.json" sidecar
// files that are the source of truth for project data.
package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

// timeLayout is the on-disk timestamp format (local time, no zone).
const timeLayout = "2006-01-02T15:04:05"

// ErrNoMetadata is returned when a project folder has no sidecar file.
var ErrNoMetadata = errors.New("project metadata not found")

// MalformedError reports a sidecar file that exists but cannot be decoded.
type MalformedError struct {
	Path string
	Err  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed project metadata %s: %v", e.Path, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// document is the JSON wire shape of a sidecar file.
type document struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Customer     string              `json:"customer"`
	CreateTime   string              `json:"create_time"`
	Status       string              `json:"status"`
	Tags         json.RawMessage     `json:"tags"`
	ItemTags     map[string][]string `json:"item_tags"`
	CustomerCode *string             `json:"customer_code"`
	PartNumber   *string             `json:"part_number"`
	Description  *string             `json:"description"`
	CoverImage   *string             `json:"cover_image"`
}

// PathFor returns the sidecar path inside a project folder.
func PathFor(projectDir string) string {
	return filepath.Join(projectDir, FileName)
}

// ReadDir reads the sidecar file of a project folder.
func ReadDir(projectDir string) (*Project, error) {
	return Read(PathFor(projectDir))
}

// Read reads and validates a sidecar file.
// It returns ErrNoMetadata if the file does not exist and *MalformedError if
// it cannot be decoded.
func Read(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoMetadata
		}
		return nil, fmt.Errorf("failed to read project metadata: %w", err)
	}
	p, err := Decode(data)
	if err != nil {
		return nil, &MalformedError{Path: path, Err: err}
	}
	return p, nil
}

// Decode parses sidecar JSON. Missing optional fields take their defaults.
func Decode(data []byte) (*Project, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.ID) == "" {
		return nil, errors.New("missing id")
	}
	if strings.TrimSpace(doc.Name) == "" {
		return nil, errors.New("missing name")
	}
	createTime, err := parseTime(doc.CreateTime)
	if err != nil {
		return nil, fmt.Errorf("invalid create_time: %w", err)
	}

	p := &Project{
		ID:           strings.TrimSpace(doc.ID),
		Name:         doc.Name,
		Customer:     doc.Customer,
		CreateTime:   createTime,
		Status:       doc.Status,
		Tags:         decodeTags(doc.Tags),
		ItemTags:     normalizeItemTags(doc.ItemTags),
		CustomerCode: deref(doc.CustomerCode),
		PartNumber:   deref(doc.PartNumber),
		Description:  deref(doc.Description),
		CoverImage:   deref(doc.CoverImage),
	}
	if p.Status == "" {
		p.Status = StatusOngoing
	}
	return p, nil
}

// Encode renders p as indented sidecar JSON.
func Encode(p *Project) ([]byte, error) {
	tags, err := json.Marshal(nonNil(p.Tags))
	if err != nil {
		return nil, err
	}
	itemTags := normalizeItemTags(p.ItemTags)
	if itemTags == nil {
		itemTags = map[string][]string{}
	}
	doc := document{
		ID:           p.ID,
		Name:         p.Name,
		Customer:     p.Customer,
		CreateTime:   p.CreateTime.Format(timeLayout),
		Status:       p.Status,
		Tags:         tags,
		ItemTags:     itemTags,
		CustomerCode: ref(p.CustomerCode),
		PartNumber:   ref(p.PartNumber),
		Description:  ref(p.Description),
		CoverImage:   ref(p.CoverImage),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write atomically replaces the sidecar file at path.
func Write(path string, p *Project) error {
	data, err := Encode(p)
	if err != nil {
		return fmt.Errorf("failed to encode project metadata: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write project metadata: %w", err)
	}
	return nil
}

// Update applies fn to the project stored at path and writes the result.
// The identifier and creation time are restored after fn runs.
func Update(path string, fn func(p *Project) error) (*Project, error) {
	old, err := Read(path)
	if err != nil {
		return nil, err
	}
	next := old.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.ID = old.ID
	next.CreateTime = old.CreateTime
	if err := Write(path, next); err != nil {
		return nil, err
	}
	return next, nil
}

// AddItemTag adds tag to the item_tags entry for rel. It reports whether the
// project changed.
func AddItemTag(p *Project, rel, tag string) bool {
	rel = NormalizeRelPath(rel)
	tag = strings.TrimSpace(tag)
	if rel == "" || tag == "" {
		return false
	}
	if p.ItemTags == nil {
		p.ItemTags = make(map[string][]string)
	}
	if slices.Contains(p.ItemTags[rel], tag) {
		return false
	}
	p.ItemTags[rel] = append(p.ItemTags[rel], tag)
	return true
}

// RemoveItemTag removes tag from the item_tags entry for rel, dropping the
// entry when it becomes empty. It reports whether the project changed.
func RemoveItemTag(p *Project, rel, tag string) bool {
	rel = NormalizeRelPath(rel)
	tags, ok := p.ItemTags[rel]
	if !ok {
		return false
	}
	out := tags[:0:0]
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	if len(out) == len(tags) {
		return false
	}
	if len(out) == 0 {
		delete(p.ItemTags, rel)
	} else {
		p.ItemTags[rel] = out
	}
	return true
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty")
	}
	for _, layout := range []string{timeLayout, "2006-01-02T15:04:05.999999", time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func decodeTags(raw json.RawMessage) []string {
	var items []any
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return []string{}
	}
	tags := make([]string, 0, len(items))
	for _, it := range items {
		var s string
		switch v := it.(type) {
		case string:
			s = v
		case nil:
			continue
		default:
			s = fmt.Sprint(v)
		}
		if s = strings.TrimSpace(s); s != "" {
			tags = append(tags, s)
		}
	}
	return tags
}

func normalizeItemTags(in map[string][]string) map[string][]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string][]string, len(in))
	for rel, tags := range in {
		key := NormalizeRelPath(rel)
		if key == "" {
			continue
		}
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" || slices.Contains(out[key], t) {
				continue
			}
			out[key] = append(out[key], t)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func ref(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
