// Package notebook is the in-memory document model: an ordered list of
// cells, each carrying source text, metadata and optional outputs.
//
// Values derived from a cell's source (its directives and its syntax
// summary) are cached on the cell and invalidated by every source mutation,
// so they can never be read stale.
package notebook

import (
	"strings"

	"github.com/google/uuid"

	"github.com/alnah/go-nb2md/internal/directive"
	"github.com/alnah/go-nb2md/internal/syntax"
)

// CellType tags the kind of a cell.
type CellType string

// Cell types.
const (
	Code     CellType = "code"
	Markdown CellType = "markdown"
	Raw      CellType = "raw"
)

// ScopeKey is the metadata key under which the pipeline stores its own data.
const ScopeKey = "nb2md"

// Scoped keys shared by the pipeline and the renderer.
const (
	EchoKey    = "echo"   // false hides the cell source
	OutputKey  = "output" // OutputAsIs emits outputs without fences
	OutputAsIs = "asis"
)

// DefaultLanguage is assumed when the notebook declares no language.
const DefaultLanguage = "python"

// Cell is one unit of a notebook.
type Cell struct {
	ID             string
	Type           CellType
	Metadata       map[string]any
	Outputs        []*Output
	ExecutionCount *int
	Attachments    map[string]any

	source  string
	removed bool

	directives directive.Map
	parsed     *parsedCache
}

type parsedCache struct {
	lang    string
	summary syntax.Summary
}

// NewCell creates a cell with a fresh id and empty metadata.
func NewCell(typ CellType, source string) *Cell {
	return &Cell{
		ID:       NewID(),
		Type:     typ,
		Metadata: map[string]any{},
		source:   source,
	}
}

// NewID returns a cell id in the nbformat 4.5 style (32 hex characters).
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Source returns the cell's source text.
func (c *Cell) Source() string { return c.source }

// HasSource reports whether the cell produces visible input.
func (c *Cell) HasSource() bool { return strings.TrimSpace(c.source) != "" }

// SetSource replaces the source and invalidates derived caches.
func (c *Cell) SetSource(s string) {
	if s == c.source {
		return
	}
	c.source = s
	c.directives = nil
	c.parsed = nil
}

// ClearSource deletes the source, marking the cell as producing no input.
func (c *Cell) ClearSource() { c.SetSource("") }

// Directives returns the directives of a code cell, parsed on first use.
// Non-code cells never carry directives.
func (c *Cell) Directives() directive.Map {
	if c.Type != Code {
		return directive.Map{}
	}
	if c.directives == nil {
		c.directives = directive.Parse(c.source)
	}
	return c.directives
}

// Parsed returns the syntax summary of a code cell for its language. The
// leading directive block is not part of the parsed code.
func (c *Cell) Parsed(cl *syntax.Classifier) syntax.Summary {
	if c.Type != Code {
		return syntax.Summary{}
	}
	lang := c.Language()
	if lang == "" {
		lang = DefaultLanguage
	}
	if c.parsed == nil || c.parsed.lang != lang {
		c.parsed = &parsedCache{lang: lang, summary: cl.Summarize(lang, directive.Strip(c.source))}
	}
	return c.parsed.summary
}

// Language returns the language recorded in the cell metadata, or "".
func (c *Cell) Language() string {
	lang, _ := c.Metadata["language"].(string)
	return lang
}

// SetLanguage records the cell language in its metadata.
func (c *Cell) SetLanguage(lang string) {
	c.meta()["language"] = lang
	c.parsed = nil
}

// Scoped returns the pipeline-owned metadata sub-map, creating it if needed.
func (c *Cell) Scoped() map[string]any {
	m := c.meta()
	if s, ok := m[ScopeKey].(map[string]any); ok {
		return s
	}
	s := map[string]any{}
	m[ScopeKey] = s
	return s
}

// ScopedValue reads the scoped sub-map without creating it.
func (c *Cell) ScopedValue(key string) (any, bool) {
	s, ok := c.Metadata[ScopeKey].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := s[key]
	return v, ok
}

// ScopedString returns a string value from the scoped sub-map.
func (c *Cell) ScopedString(key string) string {
	v, _ := c.ScopedValue(key)
	s, _ := v.(string)
	return s
}

func (c *Cell) meta() map[string]any {
	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	return c.Metadata
}

// Tags returns metadata.tags as strings.
func (c *Cell) Tags() []string {
	switch v := c.Metadata["tags"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// HasTag reports whether any of the tags is set on the cell.
func (c *Cell) HasTag(tags ...string) bool {
	for _, have := range c.Tags() {
		for _, want := range tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// MarkRemoved flags the cell for removal when the notebook is compacted.
func (c *Cell) MarkRemoved() { c.removed = true }

// Removed reports whether the cell was marked for removal.
func (c *Cell) Removed() bool { return c.removed }

// Notebook is an ordered list of cells plus document-level metadata.
type Notebook struct {
	Cells         []*Cell
	Metadata      map[string]any
	NBFormat      int
	NBFormatMinor int

	// Flags are document-level switches collected from nbflags directives.
	Flags []string
}

// New creates an empty nbformat 4 notebook.
func New(cells ...*Cell) *Notebook {
	return &Notebook{
		Cells:         cells,
		Metadata:      map[string]any{},
		NBFormat:      4,
		NBFormatMinor: 5,
	}
}

// Language returns the primary language of the notebook.
func (nb *Notebook) Language() string {
	if ks, ok := nb.Metadata["kernelspec"].(map[string]any); ok {
		if l, ok := ks["language"].(string); ok && l != "" {
			return strings.ToLower(l)
		}
	}
	if li, ok := nb.Metadata["language_info"].(map[string]any); ok {
		if l, ok := li["name"].(string); ok && l != "" {
			return strings.ToLower(l)
		}
	}
	return DefaultLanguage
}

// HasFlag reports whether any of the document-level flags is set.
func (nb *Notebook) HasFlag(flags ...string) bool {
	for _, have := range nb.Flags {
		for _, want := range flags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Insert places c at index i, clamped to the valid range.
func (nb *Notebook) Insert(i int, c *Cell) {
	if i < 0 {
		i = 0
	}
	if i > len(nb.Cells) {
		i = len(nb.Cells)
	}
	nb.Cells = append(nb.Cells, nil)
	copy(nb.Cells[i+1:], nb.Cells[i:])
	nb.Cells[i] = c
}

// Remove deletes the cell at index i.
func (nb *Notebook) Remove(i int) {
	if i < 0 || i >= len(nb.Cells) {
		return
	}
	nb.Cells = append(nb.Cells[:i], nb.Cells[i+1:]...)
}

// Replace substitutes the cell at index i.
func (nb *Notebook) Replace(i int, c *Cell) {
	if i < 0 || i >= len(nb.Cells) {
		return
	}
	nb.Cells[i] = c
}

// Index returns the position of c, or -1.
func (nb *Notebook) Index(c *Cell) int {
	for i, x := range nb.Cells {
		if x == c {
			return i
		}
	}
	return -1
}

// Filter keeps only the cells for which keep returns true.
func (nb *Notebook) Filter(keep func(*Cell) bool) {
	kept := nb.Cells[:0]
	for _, c := range nb.Cells {
		if keep(c) {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(nb.Cells); i++ {
		nb.Cells[i] = nil
	}
	nb.Cells = kept
}

// Compact drops the cells marked for removal.
func (nb *Notebook) Compact() {
	nb.Filter(func(c *Cell) bool { return !c.Removed() })
}
