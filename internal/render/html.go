package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// DefaultHighlightStyle is the chroma style used for code blocks.
const DefaultHighlightStyle = "github"

// Page is the value the page template executes against.
type Page struct {
	Lang  string
	Title string
	Style htmltemplate.CSS
	Body  htmltemplate.HTML
}

// Input is one markdown document to publish as a page. SourceDir and
// OutputDir, when both set, relocate relative links for the output location.
type Input struct {
	Markdown  string
	Title     string
	SourceDir string
	OutputDir string
}

// HTMLRenderer converts rendered markdown into a standalone page.
type HTMLRenderer struct {
	md    goldmark.Markdown
	page  *htmltemplate.Template
	style string
}

// NewHTMLRenderer parses the page template and prepares goldmark with GFM
// extensions and class-based chroma highlighting. The chroma stylesheet for
// highlightStyle is appended to css.
func NewHTMLRenderer(pageSrc, css, highlightStyle string) (*HTMLRenderer, error) {
	page, err := htmltemplate.New("page").Parse(pageSrc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}

	if highlightStyle == "" {
		highlightStyle = DefaultHighlightStyle
	}
	var chromaCSS bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&chromaCSS, styles.Get(highlightStyle)); err != nil {
		return nil, fmt.Errorf("writing highlight styles: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithStyle(highlightStyle),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
			// Dataframes and show-doc output reach the page as raw HTML.
			html.WithUnsafe(),
		),
	)

	return &HTMLRenderer{
		md:    md,
		page:  page,
		style: strings.TrimSpace(css) + "\n\n" + chromaCSS.String(),
	}, nil
}

// Render converts markdown to a complete HTML5 document. A leading YAML
// front matter block is not part of the body. Supports context cancellation
// via goroutine + select since goldmark doesn't natively support context.
func (r *HTMLRenderer) Render(ctx context.Context, in Input) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var body bytes.Buffer
		if err := r.md.Convert([]byte(StripFrontMatter(in.Markdown)), &body); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		relocated, err := RelocatePaths(body.String(), in.SourceDir, in.OutputDir)
		if err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		var out bytes.Buffer
		err = r.page.Execute(&out, Page{
			Lang:  "en",
			Title: in.Title,
			Style: htmltemplate.CSS(r.style),    // #nosec G203 -- stylesheet comes from embedded or configured assets
			Body:  htmltemplate.HTML(relocated), // #nosec G203 -- produced by goldmark
		})
		if err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrRender, err)}
			return
		}
		done <- result{html: out.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.html, res.err
	}
}

// StripFrontMatter removes a leading "---" fenced block.
func StripFrontMatter(markdown string) string {
	if !strings.HasPrefix(markdown, "---\n") {
		return markdown
	}
	rest := markdown[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return markdown
	}
	rest = rest[end+len("\n---"):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && strings.TrimSpace(rest[:nl]) == "" {
		return strings.TrimLeft(rest[nl+1:], "\n")
	}
	if strings.TrimSpace(rest) == "" {
		return ""
	}
	return markdown
}
