package pipeline

import (
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-nb2md/internal/directive"
	"github.com/alnah/go-nb2md/internal/notebook"
)

// Scoped metadata keys written by the preparation units.
const (
	TagsKey         = "tags"
	FilterStreamKey = "filter_stream"
)

// Directives read by the preparation units.
const (
	dirNBFlags      = "nbflags"
	dirMeta         = "meta"
	dirTags         = "tags"
	dirFilterStream = "filter_stream"
)

var (
	magicLine = regexp.MustCompile(`(?m)^[ \t]*%.*$`)
	bangLine  = regexp.MustCompile(`(?m)^([ \t]*)!`)
)

// langAliases maps embedded-language magics to the language recorded on the cell.
var langAliases = map[string]string{
	"js": "javascript",
	"sh": "bash",
}

// populateLanguage records the notebook language on code cells lacking one.
func populateLanguage(st *State, nb *notebook.Notebook) error {
	lang := nb.Language()
	for _, c := range nb.Cells {
		if c.Type == notebook.Code && c.Language() == "" {
			c.SetLanguage(lang)
		}
	}
	return nil
}

// nbFlags collects the arguments of every nbflags directive into nb.Flags.
func nbFlags(st *State, nb *notebook.Notebook) error {
	for _, c := range nb.Cells {
		for _, f := range c.Directives()[dirNBFlags] {
			if !slices.Contains(nb.Flags, f) {
				nb.Flags = append(nb.Flags, f)
			}
		}
	}
	return nil
}

// injectMeta copies meta, tags and filter_stream directives into the scoped
// metadata of the cell.
func injectMeta(st *State, c *notebook.Cell) (*notebook.Cell, error) {
	d := c.Directives()
	if !d.HasAny(dirMeta, dirTags, dirFilterStream) {
		return nil, nil
	}
	scoped := c.Scoped()

	pairs, rejected := directive.ParseMeta(d[dirMeta])
	for _, r := range rejected {
		st.warn("inline metadata has no '=', ignored", zap.String("fragment", r))
	}
	for k, v := range pairs {
		scoped[k] = v
	}
	if tags := d[dirTags]; len(tags) > 0 {
		scoped[TagsKey] = mergeUnique(stringList(scoped[TagsKey]), tags)
	}
	if words := d[dirFilterStream]; len(words) > 0 {
		scoped[FilterStreamKey] = mergeUnique(stringList(scoped[FilterStreamKey]), words)
	}
	return nil, nil
}

// langIdentify returns the unit recording the language named by a cell
// magic such as %%bash, for the configured embedded languages.
func langIdentify(embedded []string) CellFunc {
	if len(embedded) == 0 {
		return func(*State, *notebook.Cell) (*notebook.Cell, error) { return nil, nil }
	}
	quoted := make([]string, len(embedded))
	for i, l := range embedded {
		quoted[i] = regexp.QuoteMeta(l)
	}
	// Longer names first so that "javascript" is not read as "js".
	slices.SortFunc(quoted, func(a, b string) int { return len(b) - len(a) })
	pattern := regexp.MustCompile(`(?m)^[ \t]*%%[ \t]*(` + strings.Join(quoted, "|") + `)[ \t]*$`)

	return func(st *State, c *notebook.Cell) (*notebook.Cell, error) {
		if c.Type != notebook.Code {
			return nil, nil
		}
		m := pattern.FindStringSubmatch(c.Source())
		if m == nil {
			return nil, nil
		}
		lang := m[1]
		if alias, ok := langAliases[lang]; ok {
			lang = alias
		}
		c.SetLanguage(lang)
		return nil, nil
	}
}

// bashIdentify turns primary-language cells with shell escapes ("!ls")
// into bash cells.
func bashIdentify(st *State, c *notebook.Cell) (*notebook.Cell, error) {
	if c.Type != notebook.Code || c.Language() != st.Notebook.Language() {
		return nil, nil
	}
	if !bangLine.MatchString(c.Source()) {
		return nil, nil
	}
	c.SetLanguage("bash")
	c.SetSource(strings.TrimSpace(bangLine.ReplaceAllString(c.Source(), "$1")))
	return nil, nil
}

// cleanMagics drops IPython magic lines.
func cleanMagics(st *State, c *notebook.Cell) (*notebook.Cell, error) {
	if c.Type != notebook.Code || !strings.Contains(c.Source(), "%") {
		return nil, nil
	}
	cleaned := strings.TrimSpace(magicLine.ReplaceAllString(c.Source(), ""))
	if cleaned != c.Source() {
		c.SetSource(cleaned)
	}
	return nil, nil
}

// updateTags merges the scoped tags into metadata.tags.
func updateTags(st *State, c *notebook.Cell) (*notebook.Cell, error) {
	v, ok := c.ScopedValue(TagsKey)
	if !ok {
		return nil, nil
	}
	tags := mergeUnique(c.Tags(), stringList(v))
	if len(tags) > 0 {
		c.Metadata["tags"] = tags
	}
	return nil, nil
}

// stringList reads a list of strings stored as []string or decoded JSON.
func stringList(v any) []string {
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, x := range l {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if l == "" {
			return nil
		}
		return strings.Split(l, ",")
	}
	return nil
}

// mergeUnique appends the items of add missing from base, keeping order.
func mergeUnique(base, add []string) []string {
	out := slices.Clone(base)
	for _, s := range add {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
