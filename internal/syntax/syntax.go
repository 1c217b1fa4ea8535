// Package syntax classifies the top-level statements of a code cell.
//
// Only three facts are extracted: whether the cell imports anything, which
// symbols it passes to the show-documentation function, and which public
// names it defines. Python and Go are parsed with tree-sitter; any other
// language falls back to line-anchored regular expressions.
package syntax

import (
	"context"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/python"
)

// DefaultShowDocFunc is the documentation-display function recognized in cells.
const DefaultShowDocFunc = "show_doc"

// Summary describes the top-level statements of one cell.
type Summary struct {
	Imports  bool     // at least one top-level import
	ShowDocs []string // arguments of top-level show-doc calls, in order
	Defs     []string // top-level function, class and type names, in order
}

// HasShowDoc reports whether the cell invokes the show-doc function.
func (s Summary) HasShowDoc() bool { return len(s.ShowDocs) > 0 }

// PublicDefs returns the definitions not starting with an underscore.
func (s Summary) PublicDefs() []string {
	var out []string
	for _, d := range s.Defs {
		if d != "" && !strings.HasPrefix(d, "_") {
			out = append(out, d)
		}
	}
	return out
}

// Classifier summarizes cells. The zero value recognizes DefaultShowDocFunc.
type Classifier struct {
	ShowDocFunc string

	reShow *regexp.Regexp // fallback show-doc call pattern, set by NewClassifier
}

// NewClassifier creates a Classifier for the given show-doc function name.
func NewClassifier(showDocFunc string) *Classifier {
	c := &Classifier{ShowDocFunc: showDocFunc}
	c.reShow = showDocPattern(c.showDoc())
	return c
}

func (c *Classifier) showDoc() string {
	if c == nil || c.ShowDocFunc == "" {
		return DefaultShowDocFunc
	}
	return c.ShowDocFunc
}

// grammar holds the tree-sitter language and node names for one language.
type grammar struct {
	lang      func() *sitter.Language
	imports   map[string]bool
	defs      map[string]bool
	exprStmt  string
	call      string
	callArgs  string
	wrapper   string // node wrapping a definition (decorators), if any
	wrapField string
}

var grammars = map[string]grammar{
	"python": {
		lang:      python.GetLanguage,
		imports:   map[string]bool{"import_statement": true, "import_from_statement": true, "future_import_statement": true},
		defs:      map[string]bool{"function_definition": true, "class_definition": true},
		exprStmt:  "expression_statement",
		call:      "call",
		callArgs:  "arguments",
		wrapper:   "decorated_definition",
		wrapField: "definition",
	},
	"go": {
		lang:     golang.GetLanguage,
		imports:  map[string]bool{"import_declaration": true},
		defs:     map[string]bool{"function_declaration": true, "method_declaration": true, "type_declaration": true},
		exprStmt: "expression_statement",
		call:     "call_expression",
		callArgs: "arguments",
	},
}

// HasGrammar reports whether lang is parsed with tree-sitter.
func HasGrammar(lang string) bool {
	_, ok := grammars[strings.ToLower(lang)]
	return ok
}

// Summarize classifies the top-level statements of source written in lang.
func (c *Classifier) Summarize(lang, source string) Summary {
	if strings.TrimSpace(source) == "" {
		return Summary{}
	}
	g, ok := grammars[strings.ToLower(lang)]
	if !ok {
		return c.summarizeRegexp(source)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.lang())

	content := []byte(source)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return c.summarizeRegexp(source)
	}
	defer tree.Close()

	var s Summary
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		c.visit(g, root.NamedChild(i), content, &s)
	}
	// Notebook cells may hold bare statements, which some grammars only
	// accept inside a function body.
	if root.HasError() && !s.HasShowDoc() {
		s.ShowDocs = c.summarizeRegexp(source).ShowDocs
	}
	return s
}

func (c *Classifier) visit(g grammar, n *sitter.Node, content []byte, s *Summary) {
	typ := n.Type()
	switch {
	case g.imports[typ]:
		s.Imports = true
	case g.defs[typ]:
		s.Defs = append(s.Defs, defNames(n, content)...)
	case g.wrapper != "" && typ == g.wrapper:
		if def := n.ChildByFieldName(g.wrapField); def != nil {
			s.Defs = append(s.Defs, defNames(def, content)...)
		}
	case typ == g.exprStmt:
		for j := 0; j < int(n.NamedChildCount()); j++ {
			if name, ok := c.showDocArg(g, n.NamedChild(j), content); ok {
				s.ShowDocs = append(s.ShowDocs, name)
			}
		}
	}
}

// defNames returns the declared names of a definition node. Go type
// declarations may group several specs.
func defNames(n *sitter.Node, content []byte) []string {
	if name := n.ChildByFieldName("name"); name != nil {
		return []string{name.Content(content)}
	}
	var out []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if name := n.NamedChild(i).ChildByFieldName("name"); name != nil {
			out = append(out, name.Content(content))
		}
	}
	return out
}

func (c *Classifier) showDocArg(g grammar, n *sitter.Node, content []byte) (string, bool) {
	if n.Type() != g.call {
		return "", false
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Content(content) != c.showDoc() {
		return "", false
	}
	args := n.ChildByFieldName(g.callArgs)
	if args == nil || args.NamedChildCount() == 0 {
		return "", true
	}
	return args.NamedChild(0).Content(content), true
}

// Fallback patterns for languages without a grammar.
var (
	reImport      = regexp.MustCompile(`(?m)^(?:import\s+\S|from\s+\S+\s+import\s|library\(|require\(|using\s+\S)`)
	reDef         = regexp.MustCompile(`(?m)^(?:async\s+)?(?:def|class|func|function|fn)\s+([A-Za-z_]\w*)`)
	reDefaultShow = showDocPattern(DefaultShowDocFunc)
)

func showDocPattern(fn string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(fn) + `\(\s*([\w.]*)`)
}

// showPattern returns the compiled show-doc pattern. Classifiers built
// without NewClassifier compile theirs on use.
func (c *Classifier) showPattern() *regexp.Regexp {
	switch {
	case c != nil && c.reShow != nil:
		return c.reShow
	case c.showDoc() == DefaultShowDocFunc:
		return reDefaultShow
	default:
		return showDocPattern(c.showDoc())
	}
}

func (c *Classifier) summarizeRegexp(source string) Summary {
	var s Summary
	s.Imports = reImport.MatchString(source)
	for _, m := range reDef.FindAllStringSubmatch(source, -1) {
		s.Defs = append(s.Defs, m[1])
	}
	for _, m := range c.showPattern().FindAllStringSubmatch(source, -1) {
		s.ShowDocs = append(s.ShowDocs, m[1])
	}
	return s
}
