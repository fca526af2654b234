package metadata

import (
	"fmt"
	"strings"
)

// NormalizeRelPath turns a user or filesystem supplied relative path into the
// canonical item key: forward slashes, no leading "./", no surrounding slashes.
func NormalizeRelPath(rel string) string {
	p := strings.ReplaceAll(strings.TrimSpace(rel), "\\", "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return strings.Trim(p, "/")
}

// ItemPath builds the key used for file tags: "<project id>/<relative path>".
func ItemPath(projectID, rel string) string {
	return projectID + "/" + NormalizeRelPath(rel)
}

// SplitItemPath splits an item path into project identifier and relative path.
func SplitItemPath(path string) (projectID, rel string, err error) {
	path = NormalizeRelPath(path)
	id, rest, ok := strings.Cut(path, "/")
	if !ok || rest == "" {
		return "", "", fmt.Errorf("item path %q must look like <project id>/<relative path>", path)
	}
	if !ValidID(id) {
		return "", "", fmt.Errorf("item path %q does not start with a project id", path)
	}
	return id, rest, nil
}
