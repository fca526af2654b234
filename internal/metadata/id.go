package metadata

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	monthRe    = regexp.MustCompile(`^(\d{4})-(0[1-9]|1[0-2])$`)
	idRe       = regexp.MustCompile(`^PRJ-(\d{4})(0[1-9]|1[0-2])-(\d{3})$`)
	idPrefixRe = regexp.MustCompile(`^PRJ-(\d{4})(0[1-9]|1[0-2])-(\d{3})`)
	unsafeRe   = regexp.MustCompile(`[\\/:*?"<>|]`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// ID is a parsed project identifier of the form PRJ-YYYYMM-NNN.
type ID struct {
	Year  int
	Month int
	Seq   int
}

// String formats the identifier.
func (id ID) String() string {
	return fmt.Sprintf("PRJ-%04d%02d-%03d", id.Year, id.Month, id.Seq)
}

// MonthDir returns the YYYY-MM directory the identifier belongs to.
func (id ID) MonthDir() string {
	return fmt.Sprintf("%04d-%02d", id.Year, id.Month)
}

// ParseID parses a project identifier.
func ParseID(s string) (ID, error) {
	m := idRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ID{}, fmt.Errorf("project id %q must look like PRJ-YYYYMM-NNN", s)
	}
	return idFromMatch(m), nil
}

// ValidID reports whether s is a well-formed project identifier.
func ValidID(s string) bool {
	return idRe.MatchString(s)
}

// IDPrefix returns the identifier a project folder name starts with.
// Project folders are named "<id>_<customer>_<name>".
func IDPrefix(folder string) (string, bool) {
	m := idPrefixRe.FindStringSubmatch(folder)
	if m == nil {
		return "", false
	}
	return m[0], true
}

// ParseMonth parses a YYYY-MM month string.
func ParseMonth(s string) (year, month int, err error) {
	m := monthRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("month %q must look like YYYY-MM", s)
	}
	year, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	return year, month, nil
}

// IsMonthDir reports whether name is a YYYY-MM month directory name.
func IsMonthDir(name string) bool {
	return monthRe.MatchString(name)
}

// NextID returns the next free identifier for the given month, based on the
// project folders already present in monthDir.
func NextID(monthDir string, year, month int) (ID, error) {
	entries, err := os.ReadDir(monthDir)
	if err != nil && !os.IsNotExist(err) {
		return ID{}, fmt.Errorf("failed to read month directory: %w", err)
	}
	maxSeq := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		prefix, ok := IDPrefix(e.Name())
		if !ok {
			continue
		}
		id := idFromMatch(idRe.FindStringSubmatch(prefix))
		if id.Year != year || id.Month != month {
			continue
		}
		if id.Seq > maxSeq {
			maxSeq = id.Seq
		}
	}
	return ID{Year: year, Month: month, Seq: maxSeq + 1}, nil
}

// SanitizeFolderComponent replaces characters that are not allowed in folder
// names and collapses whitespace.
func SanitizeFolderComponent(s string) string {
	s = unsafeRe.ReplaceAllString(strings.TrimSpace(s), "_")
	return spaceRe.ReplaceAllString(s, " ")
}

// FolderName returns the canonical folder name for a project.
func FolderName(id, customer, name string) string {
	return id + "_" + SanitizeFolderComponent(customer) + "_" + SanitizeFolderComponent(name)
}

func idFromMatch(m []string) ID {
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	seq, _ := strconv.Atoi(m[3])
	return ID{Year: year, Month: month, Seq: seq}
}
