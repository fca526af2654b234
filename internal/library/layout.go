package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dcpm/internal/metadata"
	"dcpm/internal/storage"
)

const (
	DefaultArchiveDir = "归档项目"
	DefaultSystemDir  = ".pm_system"
)

// Layout describes where projects live under a library root: month
// directories named YYYY-MM, one archive directory and a system directory
// holding the index.
type Layout struct {
	Root       string
	ArchiveDir string
	SystemDir  string
}

// NewLayout returns a layout with defaults for empty directory names.
func NewLayout(root, archiveDir, systemDir string) Layout {
	if archiveDir == "" {
		archiveDir = DefaultArchiveDir
	}
	if systemDir == "" {
		systemDir = DefaultSystemDir
	}
	return Layout{Root: filepath.Clean(root), ArchiveDir: archiveDir, SystemDir: systemDir}
}

// IndexPath returns the index database location.
func (l Layout) IndexPath() string {
	return storage.PathFor(l.Root, l.SystemDir)
}

// ArchivePath returns the absolute archive directory.
func (l Layout) ArchivePath() string {
	return filepath.Join(l.Root, l.ArchiveDir)
}

// ProjectFolder is a directory whose name starts with a project identifier.
type ProjectFolder struct {
	Dir      string // absolute path
	FolderID string // identifier taken from the folder name
}

// Containers lists the month directories and the archive directory, sorted.
// Failing to read the root is the only error.
func (l Layout) Containers() ([]string, error) {
	entries, err := os.ReadDir(l.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to read library root %s: %w", l.Root, err)
	}

	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if metadata.IsMonthDir(name) || name == l.ArchiveDir {
			out = append(out, filepath.Join(l.Root, name))
		}
	}
	sort.Strings(out)
	return out, nil
}

// IsContainer reports whether dir is a month or archive directory of l.
func (l Layout) IsContainer(dir string) bool {
	if filepath.Dir(filepath.Clean(dir)) != l.Root {
		return false
	}
	name := filepath.Base(dir)
	return metadata.IsMonthDir(name) || name == l.ArchiveDir
}

// ProjectFolders lists the identifier-prefixed children of a container.
// Other entries are ignored.
func (l Layout) ProjectFolders(container string) ([]ProjectFolder, error) {
	entries, err := os.ReadDir(container)
	if err != nil {
		return nil, err
	}
	var out []ProjectFolder
	for _, e := range entries {
		if !e.IsDir() || hidden(e.Name()) {
			continue
		}
		id, ok := metadata.IDPrefix(e.Name())
		if !ok {
			continue
		}
		out = append(out, ProjectFolder{Dir: filepath.Join(container, e.Name()), FolderID: id})
	}
	return out, nil
}

// ProjectFolderOf returns the project folder containing path, if path lies
// inside one.
func (l Layout) ProjectFolderOf(path string) (string, bool) {
	rel, err := filepath.Rel(l.Root, filepath.Clean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return "", false
	}
	if !metadata.IsMonthDir(parts[0]) && parts[0] != l.ArchiveDir {
		return "", false
	}
	if _, ok := metadata.IDPrefix(parts[1]); !ok {
		return "", false
	}
	return filepath.Join(l.Root, parts[0], parts[1]), true
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
