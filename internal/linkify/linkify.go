// Package linkify turns known symbol names in markdown into reference links.
//
// The markdown is parsed with goldmark only to locate plain text: symbols
// inside links, images, code spans, autolinks, raw HTML and code blocks are
// never rewritten, so already-linked text is not wrapped twice.
package linkify

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/alnah/go-nb2md/internal/yamlutil"
)

// Lookup resolves symbol names to link destinations.
type Lookup interface {
	Link(symbol string) (string, bool)
	Symbols() []string
}

// Table is a static symbol table.
type Table map[string]string

// Link implements Lookup.
func (t Table) Link(symbol string) (string, bool) {
	u, ok := t[symbol]
	return u, ok && u != ""
}

// Symbols implements Lookup.
func (t Table) Symbols() []string {
	out := make([]string, 0, len(t))
	for s := range t {
		out = append(out, s)
	}
	return out
}

// LoadTable reads a YAML mapping of symbol name to URL.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided symbols file
	if err != nil {
		return nil, fmt.Errorf("reading symbols file: %w", err)
	}
	t := Table{}
	if err := yamlutil.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing symbols file %q: %w", path, err)
	}
	return t, nil
}

// Linker rewrites markdown against a Lookup.
type Linker struct {
	lookup  Lookup
	pattern *regexp.Regexp
	md      goldmark.Markdown
}

// New builds a Linker. A nil or empty lookup yields a Linker that returns
// its input unchanged.
func New(lookup Lookup) *Linker {
	l := &Linker{lookup: lookup, md: goldmark.New()}
	if lookup == nil {
		return l
	}
	syms := lookup.Symbols()
	if len(syms) == 0 {
		return l
	}
	// Longest first so that "Foo.bar" wins over "Foo".
	sort.Slice(syms, func(i, j int) bool {
		if len(syms[i]) != len(syms[j]) {
			return len(syms[i]) > len(syms[j])
		}
		return syms[i] < syms[j]
	})
	quoted := make([]string, len(syms))
	for i, s := range syms {
		quoted[i] = regexp.QuoteMeta(s)
	}
	l.pattern = regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	return l
}

type span struct{ start, stop int }

// Linkify returns src with every plain-text symbol occurrence replaced by
// [symbol](url).
func (l *Linker) Linkify(src string) string {
	if l.pattern == nil || src == "" || !l.pattern.MatchString(src) {
		return src
	}
	source := []byte(src)
	doc := l.md.Parser().Parse(text.NewReader(source))
	spans := plainSpans(doc)
	if len(spans) == 0 {
		return src
	}

	var b strings.Builder
	last := 0
	for _, sp := range spans {
		if sp.start < last {
			continue
		}
		b.Write(source[last:sp.start])
		b.WriteString(l.replace(string(source[sp.start:sp.stop])))
		last = sp.stop
	}
	b.Write(source[last:])
	return b.String()
}

func (l *Linker) replace(s string) string {
	return l.pattern.ReplaceAllStringFunc(s, func(sym string) string {
		u, ok := l.lookup.Link(sym)
		if !ok {
			return sym
		}
		return "[" + sym + "](" + u + ")"
	})
}

// plainSpans collects the source ranges of text nodes outside of link-like
// and code inlines, merging adjacent ranges so that symbols split across
// text nodes are still matched.
func plainSpans(doc ast.Node) []span {
	var spans []span
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindLink, ast.KindImage, ast.KindCodeSpan, ast.KindAutoLink,
			ast.KindRawHTML, ast.KindCodeBlock, ast.KindFencedCodeBlock, ast.KindHTMLBlock:
			return ast.WalkSkipChildren, nil
		case ast.KindText:
			seg := n.(*ast.Text).Segment
			if seg.Stop <= seg.Start {
				return ast.WalkContinue, nil
			}
			if k := len(spans) - 1; k >= 0 && spans[k].stop == seg.Start {
				spans[k].stop = seg.Stop
			} else {
				spans = append(spans, span{seg.Start, seg.Stop})
			}
		}
		return ast.WalkContinue, nil
	})
	return spans
}
