package storage

import "time"

// Tag sources.
const (
	SourceAuto   = "auto"
	SourceManual = "manual"
)

// External resource statuses.
const (
	ResourcePending   = "pending"
	ResourceConfirmed = "confirmed"
	ResourceIgnored   = "ignored"
)

// ValidResourceStatus reports whether s is a known resource status.
func ValidResourceStatus(s string) bool {
	switch s {
	case ResourcePending, ResourceConfirmed, ResourceIgnored:
		return true
	}
	return false
}

// Item is a file or directory inside a project folder.
type Item struct {
	RelPath string // slash separated, relative to the project folder
	Name    string
	IsDir   bool
}

// ItemTag is a tag attached to an item of a projection.
type ItemTag struct {
	RelPath  string
	Name     string
	Category string
	Color    string
}

// Projection is the searchable form of a project handed to the store by the
// library scanner.
type Projection struct {
	ID           string
	Name         string
	Customer     string
	CustomerCode string
	PartNumber   string
	Description  string
	CoverImage   string
	Status       string
	Tags         []string
	CreateTime   time.Time
	ProjectDir   string
	Items        []Item
	ManualTags   []ItemTag // mirrored from the sidecar item_tags
	AutoTags     []ItemTag // derived by tag rules
}

// ProjectSummary is a project row as returned by listing queries.
type ProjectSummary struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Customer     string     `json:"customer"`
	CustomerCode string     `json:"customer_code,omitempty"`
	PartNumber   string     `json:"part_number,omitempty"`
	Description  string     `json:"description,omitempty"`
	CoverImage   string     `json:"cover_image,omitempty"`
	Status       string     `json:"status"`
	Tags         []string   `json:"tags"`
	CreateTime   time.Time  `json:"create_time"`
	Month        string     `json:"month"`
	ProjectDir   string     `json:"project_dir"`
	Pinned       bool       `json:"pinned"`
	LastOpenTime *time.Time `json:"last_open_time,omitempty"`
	OpenCount    int        `json:"open_count"`
}

// FileTag is a tag row of the file tag store.
type FileTag struct {
	Path        string    `json:"path"`
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Color       string    `json:"color"`
	Source      string    `json:"source"`
	CreatedTime time.Time `json:"created_time"`
}

// DisabledAutoTag suppresses an auto tag for a path.
type DisabledAutoTag struct {
	Path         string    `json:"path"`
	Name         string    `json:"name"`
	DisabledTime time.Time `json:"disabled_time"`
}

// ExternalResource is a folder found under an external root and scored
// against the known projects. ProjectID is empty while unassigned.
type ExternalResource struct {
	ID           int64     `json:"id"`
	ProjectID    string    `json:"project_id,omitempty"`
	ResourceType string    `json:"resource_type"`
	RootPath     string    `json:"root_path"`
	FolderYear   int       `json:"folder_year"`
	FolderDate   string    `json:"folder_date"`
	FolderName   string    `json:"folder_name"`
	FullPath     string    `json:"full_path"`
	MatchScore   int       `json:"match_score"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Note is free text attached to an item.
type Note struct {
	Path       string    `json:"path"`
	ProjectID  string    `json:"project_id"`
	Content    string    `json:"content"`
	PlainText  string    `json:"-"`
	CreateTime time.Time `json:"create_time"`
	UpdateTime time.Time `json:"update_time"`
}

// TagCount is a tag and the number of projects using it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// MonthCount is the number of projects created in a month.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Activity is an entry of the recent activity list.
type Activity struct {
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Customer  string    `json:"customer"`
	Status    string    `json:"status"`
	Action    string    `json:"action"` // "opened" or "created"
	Time      time.Time `json:"time"`
}

// Stats aggregates the current index state.
type Stats struct {
	Total            int          `json:"total"`
	NewThisMonth     int          `json:"new_this_month"`
	Active           int          `json:"active"`
	Delivered        int          `json:"delivered"`
	Archived         int          `json:"archived"`
	PendingResources int          `json:"pending_resources"`
	TopTags          []TagCount   `json:"top_tags"`
	RecentActivity   []Activity   `json:"recent_activity"`
	MonthCounts      []MonthCount `json:"month_counts"`
}

// Filter selects projects for ListProjects. Zero values match everything.
type Filter struct {
	Status string
	Tag    string
	Pinned *bool
}

// SearchOptions tunes Search.
type SearchOptions struct {
	IncludeArchived bool
}
