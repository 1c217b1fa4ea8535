package directive

import "strings"

const defaultPrefix = "#"

// commentPrefixes maps a cell language to its line-comment prefix.
var commentPrefixes = map[string]string{
	"python":     "#",
	"r":          "#",
	"bash":       "#",
	"sh":         "#",
	"ruby":       "#",
	"perl":       "#",
	"julia":      "#",
	"go":         "//",
	"javascript": "//",
	"js":         "//",
	"typescript": "//",
	"c":          "//",
	"cpp":        "//",
	"java":       "//",
	"rust":       "//",
	"sql":        "--",
	"lua":        "--",
	"haskell":    "--",
	"latex":      "%",
	"html":       "<!--",
	"markdown":   "<!--",
	"svg":        "<!--",
}

// CommentPrefix returns the line-comment prefix for lang, "#" when unknown.
func CommentPrefix(lang string) string {
	if p, ok := commentPrefixes[strings.ToLower(lang)]; ok {
		return p
	}
	return defaultPrefix
}
