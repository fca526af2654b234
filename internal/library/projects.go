package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dcpm/internal/metadata"
)

// DefaultFolders are created inside every new project folder.
var DefaultFolders = []string{
	"01_3D文件",
	"02_模流报告",
	"03_试模数据",
	"04_项目文件",
	"05_问题",
	"06_其它",
}

const (
	// maxSeq is the largest sequence number an identifier can carry.
	maxSeq = 999
	// maxMoveSuffix bounds the "<name>_N" candidates tried when a move
	// target is taken.
	maxMoveSuffix = 999
)

// ErrTargetExists is returned when no free folder name is left for a move
// or a new project.
var ErrTargetExists = errors.New("target folder already exists")

// NewProject describes a project folder to create.
type NewProject struct {
	Month        string // YYYY-MM container the project goes into
	Name         string
	Customer     string
	CustomerCode string
	PartNumber   string
	Description  string
	Tags         []string
}

// CreateProject allocates the next identifier of the month, creates the
// project folder with DefaultFolders and writes its sidecar. A project
// created for the current month is stamped with now; one filed under
// another month gets that month's first day at now's clock time.
func (l Layout) CreateProject(np NewProject, now time.Time) (string, *metadata.Project, error) {
	year, month, err := metadata.ParseMonth(np.Month)
	if err != nil {
		return "", nil, err
	}
	monthDir := filepath.Join(l.Root, fmt.Sprintf("%04d-%02d", year, month))
	if err := os.MkdirAll(monthDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create month directory: %w", err)
	}

	id, err := metadata.NextID(monthDir, year, month)
	if err != nil {
		return "", nil, err
	}
	// another writer may take the identifier between NextID and Mkdir
	dir := ""
	for ; id.Seq <= maxSeq; id.Seq++ {
		candidate := filepath.Join(monthDir, metadata.FolderName(id.String(), np.Customer, np.Name))
		err := os.Mkdir(candidate, 0o755)
		if err == nil {
			dir = candidate
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", nil, fmt.Errorf("failed to create project folder: %w", err)
		}
	}
	if dir == "" {
		return "", nil, fmt.Errorf("no free identifier in %s: %w", monthDir, ErrTargetExists)
	}

	for _, sub := range DefaultFolders {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return dir, nil, fmt.Errorf("failed to create %s: %w", sub, err)
		}
	}

	created := now
	if now.Year() != year || int(now.Month()) != month {
		created = time.Date(year, time.Month(month), 1, now.Hour(), now.Minute(), now.Second(), 0, now.Location())
	}
	tags := make([]string, 0, len(np.Tags))
	for _, t := range np.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	p := &metadata.Project{
		ID:           id.String(),
		Name:         strings.TrimSpace(np.Name),
		Customer:     strings.TrimSpace(np.Customer),
		CreateTime:   created,
		Status:       metadata.StatusOngoing,
		Tags:         tags,
		CustomerCode: strings.TrimSpace(np.CustomerCode),
		PartNumber:   strings.TrimSpace(np.PartNumber),
		Description:  strings.TrimSpace(np.Description),
	}
	if err := metadata.Write(metadata.PathFor(dir), p); err != nil {
		return dir, nil, err
	}
	return dir, p, nil
}

// MoveToArchive moves a project folder into the archive directory and
// returns its new location.
func (l Layout) MoveToArchive(dir string) (string, error) {
	return moveInto(dir, l.ArchivePath())
}

// MoveToMonth moves a project folder back into the month directory its
// identifier belongs to and returns its new location.
func (l Layout) MoveToMonth(dir, projectID string) (string, error) {
	id, err := metadata.ParseID(projectID)
	if err != nil {
		return "", err
	}
	return moveInto(dir, filepath.Join(l.Root, id.MonthDir()))
}

// moveInto renames dir into parent. A taken name gets the first free
// "_N" suffix.
func moveInto(dir, parent string) (string, error) {
	dir = filepath.Clean(dir)
	if filepath.Dir(dir) == filepath.Clean(parent) {
		return dir, nil
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", parent, err)
	}

	base := filepath.Base(dir)
	target := filepath.Join(parent, base)
	for i := 1; exists(target); i++ {
		if i > maxMoveSuffix {
			return "", fmt.Errorf("no free name for %s in %s: %w", base, parent, ErrTargetExists)
		}
		target = filepath.Join(parent, base+"_"+strconv.Itoa(i))
	}
	if err := os.Rename(dir, target); err != nil {
		return "", fmt.Errorf("failed to move project folder: %w", err)
	}
	return target, nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
