package metadata

import "time"

// Project statuses.
const (
	StatusOngoing   = "ongoing"
	StatusDelivered = "delivered"
	StatusArchived  = "archived"
)

// FileName is the name of the sidecar file stored in every project folder.
const FileName = ".project.json"

// Project is the authoritative description of a project as stored in its
// sidecar file.
type Project struct {
	ID           string
	Name         string
	Customer     string
	CreateTime   time.Time
	Status       string
	Tags         []string
	ItemTags     map[string][]string // relative item path -> tag names
	CustomerCode string
	PartNumber   string
	Description  string
	CoverImage   string // relative to the project folder
}

// ValidStatus reports whether s is a known project status.
func ValidStatus(s string) bool {
	switch s {
	case StatusOngoing, StatusDelivered, StatusArchived:
		return true
	}
	return false
}

// Clone returns a deep copy of p.
func (p *Project) Clone() *Project {
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	c.ItemTags = make(map[string][]string, len(p.ItemTags))
	for k, v := range p.ItemTags {
		c.ItemTags[k] = append([]string(nil), v...)
	}
	return &c
}
