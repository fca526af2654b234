package library

import (
	"io/fs"
	"path/filepath"
	"strings"

	"dcpm/internal/metadata"
	"dcpm/internal/storage"
)

// skipDirs are tool and cache directories that never hold project content.
var skipDirs = map[string]bool{
	"node_modules":  true,
	"__pycache__":   true,
	".git":          true,
	".svn":          true,
	".hg":           true,
	".venv":         true,
	"venv":          true,
	".env":          true,
	"env":           true,
	"dist":          true,
	"build":         true,
	"target":        true,
	".idea":         true,
	".vscode":       true,
	".pytest_cache": true,
	".mypy_cache":   true,
	".tox":          true,
	".pm_cover":     true,
}

// contentTree lists every file and directory below projectDir, skipping
// hidden entries, tool directories and the metadata sidecar. Unreadable
// subtrees are reported and skipped.
func contentTree(projectDir, projectID string) ([]storage.Item, []Warning) {
	var (
		items    []storage.Item
		warnings []Warning
	)
	_ = filepath.WalkDir(projectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			warnings = append(warnings, Warning{Kind: WarnUnreadable, Path: path, ProjectID: projectID, Message: err.Error()})
			if path == projectDir || (d != nil && d.IsDir()) {
				return filepath.SkipDir
			}
			return nil
		}
		if path == projectDir {
			return nil
		}

		name := d.Name()
		if hidden(name) || skipDirs[name] {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && name == metadata.FileName {
			return nil
		}

		rel, err := filepath.Rel(projectDir, path)
		if err != nil {
			return nil
		}
		items = append(items, storage.Item{
			RelPath: metadata.NormalizeRelPath(filepath.ToSlash(rel)),
			Name:    name,
			IsDir:   d.IsDir(),
		})
		return nil
	})
	return items, warnings
}

// itemExt returns the extension passed to the tag rules: "-" for directories
// so no extension label is derived from a dotted folder name.
func itemExt(it storage.Item) string {
	if it.IsDir {
		return "-"
	}
	return strings.ToLower(filepath.Ext(it.Name))
}
