package library

import "fmt"

// Warning kinds reported by reconciliation.
const (
	WarnMissingMetadata   = "missing_metadata"
	WarnMalformedMetadata = "malformed_metadata"
	WarnIDMismatch        = "id_mismatch"
	WarnDuplicateID       = "duplicate_id"
	WarnMissingFolder     = "missing_folder"
	WarnStaleItemTag      = "stale_item_tag"
	WarnUnreadable        = "unreadable"
)

// Warning is a non-fatal reconciliation finding. The pass that produced it
// still completed.
type Warning struct {
	Kind      string `json:"kind"`
	Path      string `json:"path"`
	ProjectID string `json:"project_id,omitempty"`
	Message   string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s (%s)", w.Kind, w.Path, w.Message)
}
