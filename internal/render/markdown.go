// Package render turns a transformed notebook into markdown through a
// text/template, and markdown into a standalone HTML page through goldmark.
package render

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/alnah/go-nb2md/internal/notebook"
	"github.com/alnah/go-nb2md/internal/sanitize"
)

// Sentinel errors for rendering.
var (
	ErrTemplate = errors.New("invalid template")
	ErrRender   = errors.New("rendering failed")
)

var crlf = regexp.MustCompile(`\r\n?`)

// imageMIMEs are embedded as data URIs, in preference order.
var imageMIMEs = []string{"image/png", "image/jpeg", "image/gif"}

// Document is the value a markdown template executes against.
type Document struct {
	Language string
	Cells    []CellView
}

// CellView is one non-empty cell, already split into markdown blocks.
type CellView struct {
	ID     string
	Type   string
	Blocks []string
}

// MarkdownRenderer executes a notebook template.
type MarkdownRenderer struct {
	tmpl *template.Template
}

// NewMarkdownRenderer parses a markdown template. Templates may call join
// and trim in addition to the text/template builtins.
func NewMarkdownRenderer(src string) (*MarkdownRenderer, error) {
	tmpl, err := template.New("markdown").Funcs(template.FuncMap{
		"join": strings.Join,
		"trim": strings.TrimSpace,
	}).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return &MarkdownRenderer{tmpl: tmpl}, nil
}

// Render produces the markdown document. A notebook with nothing to show
// renders as the empty string.
func (r *MarkdownRenderer) Render(nb *notebook.Notebook) (string, error) {
	doc := NewDocument(nb)
	if len(doc.Cells) == 0 {
		return "", nil
	}
	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return crlf.ReplaceAllString(sb.String(), "\n"), nil
}

// NewDocument builds the template view of nb, skipping removed cells and
// cells that render to nothing.
func NewDocument(nb *notebook.Notebook) Document {
	doc := Document{Language: nb.Language()}
	for _, c := range nb.Cells {
		if c.Removed() {
			continue
		}
		blocks := cellBlocks(c)
		if len(blocks) == 0 {
			continue
		}
		doc.Cells = append(doc.Cells, CellView{ID: c.ID, Type: string(c.Type), Blocks: blocks})
	}
	return doc
}

func cellBlocks(c *notebook.Cell) []string {
	switch c.Type {
	case notebook.Raw:
		if !c.HasSource() {
			return nil
		}
		return []string{strings.TrimRight(c.Source(), "\n")}
	case notebook.Markdown:
		if !c.HasSource() {
			return nil
		}
		return []string{strings.TrimSpace(c.Source())}
	}

	var blocks []string
	if v, _ := c.ScopedValue(notebook.EchoKey); v != false && c.HasSource() {
		blocks = append(blocks, fence(c.Language(), c.Source()))
	}
	asis := c.ScopedString(notebook.OutputKey) == notebook.OutputAsIs
	for _, o := range c.Outputs {
		if b := outputBlock(o, asis); b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func outputBlock(o *notebook.Output, asis bool) string {
	switch o.Type {
	case notebook.Stream:
		return fence("", o.Joined())
	case notebook.Error:
		tb := strings.Join(o.Traceback, "\n")
		if tb == "" {
			tb = o.EName + ": " + o.EValue
		}
		return fence("", sanitize.StripANSI(tb))
	}

	if s, ok := o.DataText(notebook.MIMEMarkdown); ok {
		return strings.TrimSpace(s)
	}
	if s, ok := o.DataText(notebook.MIMEHTML); ok && (asis || sanitize.IsDataFrame(s)) {
		return strings.TrimSpace(s)
	}
	for _, mime := range imageMIMEs {
		if s, ok := o.DataText(mime); ok {
			return fmt.Sprintf("![](data:%s;base64,%s)", mime, strings.ReplaceAll(strings.TrimSpace(s), "\n", ""))
		}
	}
	if s, ok := o.DataText("image/svg+xml"); ok {
		return strings.TrimSpace(s)
	}
	if s, ok := o.DataText(notebook.MIMEHTML); ok {
		return sanitize.EscapeHTML(s)
	}
	if s, ok := o.DataText(notebook.MIMEPlain); ok {
		if asis {
			return strings.TrimSpace(s)
		}
		return fence("", s)
	}
	return ""
}

// fence wraps text in a code fence long enough not to collide with any
// backtick run inside it.
func fence(lang, text string) string {
	text = strings.TrimRight(text, "\n")
	if strings.TrimSpace(text) == "" {
		return ""
	}
	ticks := "```"
	for strings.Contains(text, ticks) {
		ticks += "`"
	}
	return ticks + lang + "\n" + text + "\n" + ticks
}
