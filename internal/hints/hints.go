// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"
)

// InCI reports whether the process runs under a CI system.
var InCI = func() bool {
	for _, name := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// ForExecution returns hints for a cell that failed while rendering.
// In CI the --no-exec flag is suggested first since outputs are usually
// already stored in the notebook.
func ForExecution() string {
	hints := []string{"mark the cell with #| eval: false to skip it"}
	if InCI() {
		hints = append([]string{"pass --no-exec to render stored outputs only"}, hints...)
	}
	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for notebooks with slow cells, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-nb2md/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, "go-nb2md") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForTemplateNotFound returns hints for template not found errors.
func ForTemplateNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForDecode returns hints for notebooks that cannot be read.
func ForDecode() string {
	return format("input must be an nbformat 4 notebook; upgrade older files with `jupyter nbconvert --to notebook`")
}

// ForNoInput returns hints when no notebook was found to convert.
func ForNoInput() string {
	return format("pass .ipynb files or directories containing them")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
