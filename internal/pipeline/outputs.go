package pipeline

import (
	"go.uber.org/zap"

	"github.com/alnah/go-nb2md/internal/config"
	"github.com/alnah/go-nb2md/internal/notebook"
	"github.com/alnah/go-nb2md/internal/sanitize"
)

// stripANSI removes terminal escape sequences from streams and tracebacks.
func stripANSI(st *State, c *notebook.Cell) (*notebook.Cell, error) {
	for _, o := range c.Outputs {
		switch o.Type {
		case notebook.Stream:
			for i, l := range o.Text {
				o.Text[i] = sanitize.StripANSI(l)
			}
		case notebook.Error:
			for i, l := range o.Traceback {
				o.Traceback[i] = sanitize.StripANSI(l)
			}
		}
	}
	return nil, nil
}

// filterStream drops stream lines containing a configured word or a word
// given by the cell's filter_stream directive.
func filterStream(st *State, c *notebook.Cell) (*notebook.Cell, error) {
	if len(c.Outputs) == 0 {
		return nil, nil
	}
	words := st.Config.Output.FilterWords
	if v, ok := c.ScopedValue(FilterStreamKey); ok {
		words = append(words[:len(words):len(words)], stringList(v)...)
	}
	if len(words) == 0 {
		return nil, nil
	}
	for _, o := range c.Outputs {
		if o.Type == notebook.Stream {
			o.Text = sanitize.FilterLines(o.Text, words)
		}
	}
	return nil, nil
}

// htmlEscape rewrites HTML outputs as fenced html blocks, except for
// dataframes and cells whose outputs are shown as-is.
func htmlEscape(st *State, c *notebook.Cell) (*notebook.Cell, error) {
	if c.Type != notebook.Code || c.ScopedString(notebook.OutputKey) == notebook.OutputAsIs {
		return nil, nil
	}
	for _, o := range c.Outputs {
		html, ok := o.DataText(notebook.MIMEHTML)
		if !ok || sanitize.IsDataFrame(html) {
			continue
		}
		o.SetDataText(notebook.MIMEMarkdown, sanitize.EscapeHTML(html))
		delete(o.Data, notebook.MIMEHTML)
	}
	return nil, nil
}

// rmHeaderDash removes markdown headings ending in " -".
func rmHeaderDash(st *State, c *notebook.Cell) (*notebook.Cell, error) {
	if c.Type != notebook.Markdown {
		return nil, nil
	}
	mode := sanitize.DashLine
	if st.Config.Output.HeaderDash == config.HeaderDashCell {
		mode = sanitize.DashCell
	}
	res := sanitize.RemoveDashHeadings(c.Source(), mode)
	for _, l := range res.Stray {
		st.warn("heading ending in ' -' has no space after '#', kept", zap.String("fragment", l))
	}
	if res.RemoveCell {
		c.MarkRemoved()
		return nil, nil
	}
	if res.Source != c.Source() {
		c.SetSource(res.Source)
	}
	return nil, nil
}

// addLinks links known symbols in markdown sources and markdown outputs.
func addLinks(st *State, c *notebook.Cell) (*notebook.Cell, error) {
	if len(st.Links.Symbols()) == 0 {
		return nil, nil
	}
	l := st.Linker()
	switch c.Type {
	case notebook.Markdown:
		if src := l.Linkify(c.Source()); src != c.Source() {
			c.SetSource(src)
		}
	case notebook.Code:
		for _, o := range c.Outputs {
			if md, ok := o.DataText(notebook.MIMEMarkdown); ok {
				o.SetDataText(notebook.MIMEMarkdown, l.Linkify(md))
			}
		}
	}
	return nil, nil
}

// stripHiddenMetadata drops the notebook UI "hidden" flag from code cells.
func stripHiddenMetadata(st *State, c *notebook.Cell) (*notebook.Cell, error) {
	if c.Type == notebook.Code {
		delete(c.Metadata, "hidden")
	}
	return nil, nil
}
