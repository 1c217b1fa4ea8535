package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-nb2md/internal/frontmatter"
	"github.com/alnah/go-nb2md/internal/notebook"
	"github.com/alnah/go-nb2md/internal/syntax"
)

// ErrExportLanguage indicates an export directive on a cell written in a
// language other than the notebook's.
var ErrExportLanguage = errors.New("export from a non-primary language cell")

// WarningText is the body of the synthesized autogenerated-file cell.
const WarningText = "<!-- WARNING: THIS FILE WAS AUTOGENERATED! DO NOT EDIT! -->"

// exportDirectives mark cells whose definitions get show-doc cells.
var exportDirectives = []string{"export", "exports"}

// inferFrontMatter inserts the front matter preamble at index 0.
func inferFrontMatter(st *State, nb *notebook.Notebook) error {
	inserted, err := frontmatter.Infer(nb, st.Config.FrontMatter.Keys, st.Logger)
	if err != nil {
		return err
	}
	if inserted {
		st.Logger.Debug("front matter inferred")
	}
	return nil
}

// addShowDocs inserts a show-doc cell after each exported cell for every
// public top-level definition not documented anywhere in the notebook.
func addShowDocs(st *State, nb *notebook.Notebook) error {
	cl := st.Gate.Classifier()
	fn := cl.ShowDocFunc
	if fn == "" {
		fn = syntax.DefaultShowDocFunc
	}

	shown := map[string]bool{}
	var exports []*notebook.Cell
	for _, c := range nb.Cells {
		for _, name := range c.Parsed(cl).ShowDocs {
			shown[name] = true
		}
		if c.Type == notebook.Code && c.HasSource() && c.Directives().HasAny(exportDirectives...) {
			exports = append(exports, c)
		}
	}

	lang := nb.Language()
	for i := len(exports) - 1; i >= 0; i-- {
		c := exports[i]
		if cellLang := c.Language(); cellLang != "" && !strings.EqualFold(cellLang, lang) {
			return fmt.Errorf("%w: %s cell:\n%s", ErrExportLanguage, cellLang, c.Source())
		}
		at := nb.Index(c) + 1
		for _, name := range c.Parsed(cl).PublicDefs() {
			if shown[name] {
				continue
			}
			shown[name] = true
			doc := notebook.NewCell(notebook.Code, fmt.Sprintf("%s(%s)", fn, name))
			doc.SetLanguage(lang)
			nb.Insert(at, doc)
			at++
			st.Logger.Debug("show_doc cell added", zap.String("name", name))
		}
	}
	return nil
}

// execShowDocs runs the execution gate over the notebook.
func execShowDocs(st *State, nb *notebook.Notebook) error {
	return st.Gate.Run(st.Context(), nb)
}

// insertWarning places the autogenerated-file notice at index 1 unless the
// notebook already carries it.
func insertWarning(st *State, nb *notebook.Notebook) error {
	for _, c := range nb.Cells {
		if c.Type == notebook.Markdown && strings.TrimSpace(c.Source()) == WarningText {
			return nil
		}
	}
	nb.Insert(1, notebook.NewCell(notebook.Markdown, WarningText))
	return nil
}
