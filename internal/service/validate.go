package service

import (
	"strings"
	"unicode/utf8"

	"dcpm/internal/metadata"
	"dcpm/internal/storage"
	"dcpm/internal/tagrules"
)

const (
	defaultLimit  = 50
	maxLimit      = 500
	maxTagRunes   = 64
	maxNoteBytes  = 64 << 10
	tagSeparators = ",;，；"
)

func validateQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", &ValidationError{Field: "query", Message: "cannot be empty"}
	}
	return q, nil
}

func validateLimit(limit int) (int, error) {
	switch {
	case limit == 0:
		return defaultLimit, nil
	case limit < 1 || limit > maxLimit:
		return 0, &ValidationError{Field: "limit", Message: "must be between 1 and 500"}
	}
	return limit, nil
}

func validateProjectStatus(status string) error {
	if !metadata.ValidStatus(status) {
		return &ValidationError{Field: "status", Message: "must be one of ongoing, delivered, archived"}
	}
	return nil
}

func validateResourceStatus(status string) error {
	if !storage.ValidResourceStatus(status) {
		return &ValidationError{Field: "status", Message: "must be one of pending, confirmed, ignored"}
	}
	return nil
}

func validateProjectID(id string) error {
	if !metadata.ValidID(id) {
		return &ValidationError{Field: "project_id", Message: "must look like PRJ-YYYYMM-NNN"}
	}
	return nil
}

// validateItemPath checks a "<project id>/<relative path>" key and returns
// it normalized along with its parts.
func validateItemPath(path string) (norm, projectID, rel string, err error) {
	projectID, rel, err = metadata.SplitItemPath(path)
	if err != nil {
		return "", "", "", &ValidationError{Field: "path", Message: err.Error()}
	}
	for _, part := range strings.Split(rel, "/") {
		if part == ".." || part == "." {
			return "", "", "", &ValidationError{Field: "path", Message: "must not contain . or .. segments"}
		}
	}
	return metadata.ItemPath(projectID, rel), projectID, rel, nil
}

func validateTagName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", &ValidationError{Field: "name", Message: "cannot be empty"}
	case utf8.RuneCountInString(name) > maxTagRunes:
		return "", &ValidationError{Field: "name", Message: "must be at most 64 characters"}
	case strings.ContainsAny(name, tagSeparators):
		return "", &ValidationError{Field: "name", Message: "must not contain , or ;"}
	}
	return name, nil
}

func validateCategory(category string) error {
	if category != "" && !tagrules.ValidCategory(category) {
		return &ValidationError{Field: "category", Message: "must be one of version, type, stage, custom"}
	}
	return nil
}

func validateNote(content string) error {
	if len(content) > maxNoteBytes {
		return &ValidationError{Field: "content", Message: "must be at most 64 KiB"}
	}
	if !utf8.ValidString(content) {
		return &ValidationError{Field: "content", Message: "must be valid UTF-8"}
	}
	return nil
}
