package sanitize

import (
	"regexp"
	"strings"
)

// DashMode selects how headings ending in " -" are removed.
type DashMode string

const (
	// DashLine removes only the offending heading lines.
	DashLine DashMode = "line"
	// DashCell removes the whole cell when it is a dash heading.
	DashCell DashMode = "cell"
)

var (
	dashHeading = regexp.MustCompile(`^#+\s+.*\s-\s*$`)
	strayDash   = regexp.MustCompile(`^#+[^#\s].*\s-\s*$`)
)

// DashResult is the outcome of RemoveDashHeadings.
type DashResult struct {
	Source     string
	RemoveCell bool
	// Stray lists lines that look like dash headings but lack the space
	// after the hashes, so they are left in place.
	Stray []string
}

// RemoveDashHeadings removes markdown headings whose text ends with " -".
// In DashCell mode the source is untouched and RemoveCell reports whether
// the cell itself is such a heading.
func RemoveDashHeadings(src string, mode DashMode) DashResult {
	res := DashResult{Source: src}
	if !strings.Contains(src, "-") {
		return res
	}

	lines := strings.Split(src, "\n")
	for _, l := range lines {
		if strayDash.MatchString(strings.TrimSpace(l)) {
			res.Stray = append(res.Stray, l)
		}
	}

	if mode == DashCell {
		trimmed := strings.TrimSpace(src)
		res.RemoveCell = strings.HasPrefix(trimmed, "#") && strings.HasSuffix(trimmed, " -")
		return res
	}

	kept := lines[:0:0]
	changed := false
	for _, l := range lines {
		if dashHeading.MatchString(strings.TrimSpace(l)) {
			changed = true
			continue
		}
		kept = append(kept, l)
	}
	if changed {
		res.Source = strings.TrimSpace(strings.Join(kept, "\n"))
	}
	return res
}
