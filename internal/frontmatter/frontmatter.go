// Package frontmatter infers a notebook's publishing metadata and writes it
// back as a YAML preamble cell.
//
// Three sources are merged with increasing precedence: defaults derived from
// the notebook (the output file name), values scraped from the markdown title
// cell, and an explicit raw front-matter block.
package frontmatter

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-nb2md/internal/notebook"
	"github.com/alnah/go-nb2md/internal/yamlutil"
)

// Record is a front-matter mapping.
type Record map[string]any

// DefaultKeys is the ordered allow-list of serialized keys.
var DefaultKeys = []string{
	"title", "description", "author", "image", "categories",
	"output-file", "aliases", "search", "draft", "comments",
}

// PreambleKey marks, in the scoped cell metadata, a preamble written by Infer.
const PreambleKey = "frontmatter"

var (
	fence      = regexp.MustCompile(`(?s)^---(.*\S+.*)---`)
	defaultExp = regexp.MustCompile(`(?m)^\s*#\|\s*default_exp[\s:=]+(\S+)`)
	bullet     = regexp.MustCompile(`^-\s+(.*)$`)
)

// FindRaw returns the first raw cell holding a fenced front-matter block,
// its index and its parsed body. A block that does not parse is logged and
// skipped.
func FindRaw(nb *notebook.Notebook, log *zap.Logger) (int, Record) {
	for i, c := range nb.Cells {
		if c.Type != notebook.Raw {
			continue
		}
		m := fence.FindStringSubmatch(strings.TrimSpace(c.Source()))
		if m == nil {
			continue
		}
		rec := Record{}
		if err := yamlutil.Unmarshal([]byte(m[1]), &rec); err != nil {
			log.Warn("ignoring unparsable front matter",
				zap.Int("cell", i), zap.String("fragment", firstLine(m[1])), zap.Error(err))
			continue
		}
		return i, rec
	}
	return -1, nil
}

// FromTitleCell scrapes the first markdown cell starting with "# ". The
// heading gives the title, an immediately following "> " line the
// description, and "- key: value" bullets further entries. When remove is
// set the title cell's source is cleared.
func FromTitleCell(nb *notebook.Notebook, remove bool, log *zap.Logger) Record {
	c, rec := titleCell(nb, log)
	if c != nil && remove {
		c.ClearSource()
	}
	return rec
}

func titleCell(nb *notebook.Notebook, log *zap.Logger) (*notebook.Cell, Record) {
	for i, c := range nb.Cells {
		if c.Type != notebook.Markdown {
			continue
		}
		src := strings.TrimSpace(c.Source())
		if strings.HasPrefix(src, "# ") {
			return c, parseTitleCell(src, i, log)
		}
	}
	return nil, Record{}
}

func parseTitleCell(src string, idx int, log *zap.Logger) Record {
	lines := strings.Split(src, "\n")
	rec := Record{}
	if title := strings.TrimSpace(strings.TrimPrefix(lines[0], "# ")); title != "" {
		rec["title"] = title
	}
	if len(lines) > 1 {
		if desc, ok := strings.CutPrefix(strings.TrimSpace(lines[1]), "> "); ok && strings.TrimSpace(desc) != "" {
			rec["description"] = strings.TrimSpace(desc)
		}
	}
	for _, l := range lines[1:] {
		m := bullet.FindStringSubmatch(strings.TrimSpace(l))
		if m == nil {
			continue
		}
		k, v, ok := strings.Cut(m[1], ":")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		if k == "title" || k == "description" {
			continue
		}
		val, err := yamlutil.ParseScalar(v)
		if err != nil {
			log.Warn("front matter value kept as text",
				zap.Int("cell", idx), zap.String("fragment", l), zap.Error(err))
			val = v
		}
		rec[k] = val
	}
	return rec
}

// Alias translates legacy keys into their current form, in place.
func Alias(rec Record) Record {
	replace(rec, "search_exclude", map[string]any{"search": false})
	replace(rec, "hide", map[string]any{"draft": true})
	replace(rec, "comments", map[string]any{
		"comments": map[string]any{"hypothesis": map[string]any{"theme": "clean"}},
	})
	return rec
}

func replace(rec Record, key string, with map[string]any) {
	v, ok := rec[key]
	if !ok || strings.ToLower(strings.TrimSpace(fmt.Sprint(v))) != "true" {
		return
	}
	delete(rec, key)
	for k, nv := range with {
		rec[k] = nv
	}
}

// DefaultExport derives output-file from the first default_exp directive
// found in a code cell.
func DefaultExport(nb *notebook.Notebook) Record {
	for _, c := range nb.Cells {
		if c.Type != notebook.Code {
			continue
		}
		if m := defaultExp.FindStringSubmatch(c.Source()); m != nil {
			return Record{"output-file": m[1] + ".html"}
		}
	}
	return Record{}
}

// Merge combines records; later records win per key.
func Merge(recs ...Record) Record {
	out := Record{}
	for _, r := range recs {
		for k, v := range r {
			out[k] = v
		}
	}
	return out
}

// Infer builds the front matter of nb and inserts it as a raw cell at index
// 0, consuming any raw front-matter cell and the title cell. Nothing happens
// when no title can be found. It reports whether a preamble was inserted.
//
// A preamble written by an earlier run already holds the scraped title, so no
// title cell is consumed when one is found.
func Infer(nb *notebook.Notebook, keys []string, log *zap.Logger) (bool, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(keys) == 0 {
		keys = DefaultKeys
	}

	rawIdx, raw := FindRaw(nb, log)
	var (
		title   *notebook.Cell
		scraped = Record{}
	)
	if rawIdx < 0 || !IsPreamble(nb.Cells[rawIdx]) {
		title, scraped = titleCell(nb, log)
	}
	merged := Merge(DefaultExport(nb), Alias(scraped), raw)
	if _, ok := merged["title"]; !ok {
		return false, nil
	}

	preamble, err := Serialize(merged, keys)
	if err != nil {
		return false, err
	}
	if title != nil {
		title.ClearSource()
	}
	cell := notebook.NewCell(notebook.Raw, preamble)
	cell.Scoped()[PreambleKey] = true
	if rawIdx >= 0 {
		// Keep the id stable so that re-running yields the same document.
		cell.ID = nb.Cells[rawIdx].ID
		nb.Remove(rawIdx)
	}
	nb.Insert(0, cell)
	return true, nil
}

// IsPreamble reports whether c was written by Infer.
func IsPreamble(c *notebook.Cell) bool {
	v, _ := c.ScopedValue(PreambleKey)
	b, _ := v.(bool)
	return b
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
