package pipeline

import (
	"regexp"
	"strings"

	"github.com/alnah/go-nb2md/internal/directive"
	"github.com/alnah/go-nb2md/internal/notebook"
)

// Tags and directives controlling what the rendered document shows.
var (
	removeCellTags   = []string{"remove_cell", "hide"}
	removeOutputTags = []string{"remove_output", "hide_output"}
	removeInputTags  = []string{"remove_input", "hide_input"}
)

var htmlRemove = regexp.MustCompile(`(?s)<HTMLRemove>.*</HTMLRemove>`)

// cleanFlags returns the unit stripping legacy "# flag" comment lines.
func cleanFlags(flags []string) CellFunc {
	stripper := directive.NewFlagStripper(flags)
	return func(_ *State, c *notebook.Cell) (*notebook.Cell, error) {
		if c.Type != notebook.Code {
			return nil, nil
		}
		if src := stripper.Strip(c.Source()); src != c.Source() {
			c.SetSource(src)
		}
		return nil, nil
	}
}

// hideLine returns the unit dropping source lines that end with the
// hide-line marker comment.
func hideLine(token string) CellFunc {
	hider := directive.NewLineHider(token)
	return func(_ *State, c *notebook.Cell) (*notebook.Cell, error) {
		if c.Type != notebook.Code {
			return nil, nil
		}
		prefix := directive.CommentPrefix(c.Language())
		if src := hider.Hide(c.Source(), prefix); src != c.Source() {
			c.SetSource(src)
		}
		return nil, nil
	}
}

// rmExport clears the source of cells carrying a hide-class directive.
func rmExport(st *State, c *notebook.Cell) (*notebook.Cell, error) {
	if c.Type == notebook.Code && c.Directives().HasAny(st.Config.Directives.Hide...) {
		c.ClearSource()
	}
	return nil, nil
}

// visibility applies the remove_* and hide_* tags and directives.
func visibility(st *State, c *notebook.Cell) (*notebook.Cell, error) {
	if c.HasTag(removeCellTags...) {
		c.MarkRemoved()
		return nil, nil
	}
	if c.Type != notebook.Code {
		return nil, nil
	}
	d := c.Directives()
	if c.HasTag(removeOutputTags...) || d.HasAny(removeOutputTags...) {
		c.Outputs = nil
	}
	if c.HasTag(removeInputTags...) || d.HasAny(removeInputTags...) {
		c.Scoped()[notebook.EchoKey] = false
	}
	return nil, nil
}

// cleanDirectives strips the leading directive block of code cells.
func cleanDirectives(st *State, c *notebook.Cell) (*notebook.Cell, error) {
	if c.Type != notebook.Code || len(c.Directives()) == 0 {
		return nil, nil
	}
	c.SetSource(directive.Strip(c.Source()))
	return nil, nil
}

// cleanShowDoc turns a documentation cell with a single HTML output into a
// raw cell holding that HTML. Other documentation cells keep their outputs,
// shown as-is without the source.
func cleanShowDoc(st *State, c *notebook.Cell) (*notebook.Cell, error) {
	if c.Type != notebook.Code || !c.Parsed(st.Gate.Classifier()).HasShowDoc() {
		return nil, nil
	}

	var htmls []string
	for _, o := range c.Outputs {
		if s, ok := o.DataText(notebook.MIMEHTML); ok {
			htmls = append(htmls, s)
		}
	}
	if len(htmls) == 1 {
		raw := notebook.NewCell(notebook.Raw, strings.TrimSpace(htmlRemove.ReplaceAllString(htmls[0], "")))
		raw.ID = c.ID
		raw.Metadata = c.Metadata
		return raw, nil
	}

	scoped := c.Scoped()
	scoped[notebook.OutputKey] = notebook.OutputAsIs
	scoped[notebook.EchoKey] = false
	return nil, nil
}

// rmEmptyCode drops code cells whose source is blank.
func rmEmptyCode(st *State, nb *notebook.Notebook) error {
	nb.Filter(func(c *notebook.Cell) bool {
		return c.Type != notebook.Code || c.HasSource()
	})
	return nil
}
