package matcher

import (
	"regexp"
	"strconv"
	"time"
)

var (
	fullDateRe    = regexp.MustCompile(`(\d{4})[-._](\d{1,2})[-._](\d{1,2})`)
	compactDateRe = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])(?:\D|$)`)
	shortDateRe   = regexp.MustCompile(`(?:^|\D)(0?[1-9]|1[0-2])[-.](0?[1-9]|[12]\d|3[01])(?:\D|$)`)
	yearRe        = regexp.MustCompile(`^(?:19|20)\d{2}$`)
)

// extractDate finds a date in name. yearHint completes month-day dates and
// may be zero.
func extractDate(name string, yearHint int) (time.Time, bool) {
	if m := fullDateRe.FindStringSubmatch(name); m != nil {
		if t, ok := makeDate(m[1], m[2], m[3]); ok {
			return t, true
		}
	}
	if m := compactDateRe.FindStringSubmatch(name); m != nil {
		if t, ok := makeDate(m[1], m[2], m[3]); ok {
			return t, true
		}
	}
	if yearHint > 0 {
		if m := shortDateRe.FindStringSubmatch(name); m != nil {
			if t, ok := makeDate(strconv.Itoa(yearHint), m[1], m[2]); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func makeDate(y, m, d string) (time.Time, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	// reject normalized dates such as 02-30
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// parseYear parses a year directory name.
func parseYear(name string) (int, bool) {
	if !yearRe.MatchString(name) {
		return 0, false
	}
	y, _ := strconv.Atoi(name)
	return y, true
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
