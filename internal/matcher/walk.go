package matcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dcpm/internal/library"
)

// ResourceType is recorded on every resource the matcher finds.
const ResourceType = "inspection"

// folder is a candidate resource folder found by the walk.
type folder struct {
	Name     string
	FullPath string
	Year     int
	Date     string
}

// systemDirs are NAS and OS housekeeping directories.
var systemDirs = map[string]bool{
	"$recycle.bin":              true,
	"system volume information": true,
	"@eadir":                    true,
	"#recycle":                  true,
	"#snapshot":                 true,
	"lost+found":                true,
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || systemDirs[strings.ToLower(name)]
}

// walk lists the folders four levels below root: Year, Batch, Date and the
// resource folder itself. Year directories must be named YYYY; other entries
// at that level are ignored. Unreadable directories become warnings. Only an
// unreadable root is an error.
func walk(ctx context.Context, root string) ([]folder, []library.Warning, error) {
	years, err := subdirs(root)
	if err != nil {
		return nil, nil, err
	}

	var (
		out      []folder
		warnings []library.Warning
	)
	read := func(dir string) []string {
		names, err := subdirs(dir)
		if err != nil {
			warnings = append(warnings, library.Warning{Kind: library.WarnUnreadable, Path: dir, Message: err.Error()})
		}
		return names
	}

	for _, y := range years {
		year, ok := parseYear(y)
		if !ok {
			continue
		}
		yearDir := filepath.Join(root, y)
		for _, batch := range read(yearDir) {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			batchDir := filepath.Join(yearDir, batch)
			for _, day := range read(batchDir) {
				dayDir := filepath.Join(batchDir, day)
				for _, name := range read(dayDir) {
					full := filepath.Join(dayDir, name)
					out = append(out, folder{
						Name:     name,
						FullPath: full,
						Year:     year,
						Date:     folderDate(full, name, day, year),
					})
				}
			}
		}
	}
	return out, warnings, nil
}

// folderDate takes the date from the folder name, then the date directory,
// then the modification time.
func folderDate(full, name, day string, year int) string {
	if t, ok := extractDate(name, year); ok {
		return formatDate(t)
	}
	if t, ok := extractDate(day, year); ok {
		return formatDate(t)
	}
	if info, err := os.Stat(full); err == nil {
		return formatDate(info.ModTime().Local())
	}
	return ""
}

// subdirs returns the sorted visible subdirectory names of dir.
func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !skipDir(e.Name()) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
