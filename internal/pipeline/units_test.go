package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alnah/go-nb2md/internal/config"
	"github.com/alnah/go-nb2md/internal/linkify"
	"github.com/alnah/go-nb2md/internal/notebook"
)

func code(src string) *notebook.Cell { return notebook.NewCell(notebook.Code, src) }

func md(src string) *notebook.Cell { return notebook.NewCell(notebook.Markdown, src) }

func withTags(c *notebook.Cell, tags ...string) *notebook.Cell {
	c.Metadata["tags"] = tags
	return c
}

// newState returns the defaulted state of an empty pipeline bound to nb.
func newState(nb *notebook.Notebook, mutate func(*State)) *State {
	st := State{Config: config.DefaultConfig()}
	if mutate != nil {
		mutate(&st)
	}
	p := New(st)
	out := p.base
	out.Notebook = nb
	return &out
}

// observed returns a logger recording warnings.
func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	return zap.New(core), logs
}

func runCell(t *testing.T, st *State, fn CellFunc, c *notebook.Cell) *notebook.Cell {
	t.Helper()
	got, err := fn(st, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return got
}

// ---------------------------------------------------------------------------
// Preparation units
// ---------------------------------------------------------------------------

func TestPopulateLanguage(t *testing.T) {
	t.Parallel()

	plain := code("x = 1")
	shell := code("ls")
	shell.SetLanguage("bash")
	text := md("# T")
	nb := notebook.New(plain, shell, text)

	if err := populateLanguage(newState(nb, nil), nb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plain.Language() != "python" {
		t.Errorf("plain cell language = %q, want python", plain.Language())
	}
	if shell.Language() != "bash" {
		t.Errorf("bash cell language = %q, want bash", shell.Language())
	}
	if text.Language() != "" {
		t.Errorf("markdown cell language = %q, want empty", text.Language())
	}
}

func TestNBFlags(t *testing.T) {
	t.Parallel()

	nb := notebook.New(
		code("#| nbflags: skip_exec\nx = 1"),
		code("#| nbflags skip_exec other\ny = 2"),
		md("#| nbflags: ignored"),
	)
	if err := nbFlags(newState(nb, nil), nb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"skip_exec", "other"}, nb.Flags); diff != "" {
		t.Errorf("Flags mismatch (-want +got):\n%s", diff)
	}
}

func TestInjectMeta(t *testing.T) {
	t.Parallel()

	logger, logs := observed()
	c := code("#| meta: a=1 bad\n#| tags: x, y\n#| filter_stream: DEBUG\nprint(1)")
	st := newState(notebook.New(c), func(s *State) { s.Logger = logger })

	runCell(t, st, injectMeta, c)
	runCell(t, st, injectMeta, c)

	if got := c.ScopedString("a"); got != "1" {
		t.Errorf("scoped a = %q, want 1", got)
	}
	tags, _ := c.ScopedValue(TagsKey)
	if diff := cmp.Diff([]string{"x", "y"}, stringList(tags)); diff != "" {
		t.Errorf("scoped tags mismatch (-want +got):\n%s", diff)
	}
	words, _ := c.ScopedValue(FilterStreamKey)
	if diff := cmp.Diff([]string{"DEBUG"}, stringList(words)); diff != "" {
		t.Errorf("scoped filter_stream mismatch (-want +got):\n%s", diff)
	}

	warnings := logs.FilterMessageSnippet("no '='").All()
	if len(warnings) != 2 {
		t.Fatalf("got %d warnings, want one per run", len(warnings))
	}
	if got := warnings[0].ContextMap()["fragment"]; got != "bad" {
		t.Errorf("warning fragment = %v, want bad", got)
	}
}

func TestInjectMeta_NoDirectivesLeavesMetadataAlone(t *testing.T) {
	t.Parallel()

	c := code("x = 1")
	runCell(t, newState(notebook.New(c), nil), injectMeta, c)
	if _, ok := c.Metadata[notebook.ScopeKey]; ok {
		t.Error("scoped metadata created for a cell without directives")
	}
}

func TestLangIdentify(t *testing.T) {
	t.Parallel()

	fn := langIdentify(config.DefaultConfig().Languages.Embedded)
	tests := []struct {
		src  string
		want string
	}{
		{"%%javascript\nconsole.log(1)", "javascript"},
		{"%%js\nconsole.log(1)", "javascript"},
		{"%%sh\nls", "bash"},
		{"  %%bash  \nls", "bash"},
		{"%%html\n<b>x</b>", "html"},
		{"%%timeit\nx = 1", ""},
		{"x = 1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			c := code(tt.src)
			runCell(t, newState(notebook.New(c), nil), fn, c)
			if got := c.Language(); got != tt.want {
				t.Errorf("language = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBashIdentify(t *testing.T) {
	t.Parallel()

	t.Run("shell escapes become bash", func(t *testing.T) {
		t.Parallel()

		c := code("!ls -la\n!pwd")
		c.SetLanguage("python")
		runCell(t, newState(notebook.New(c), nil), bashIdentify, c)
		if c.Language() != "bash" {
			t.Errorf("language = %q, want bash", c.Language())
		}
		if c.Source() != "ls -la\npwd" {
			t.Errorf("source = %q, want %q", c.Source(), "ls -la\npwd")
		}
	})

	t.Run("other languages are untouched", func(t *testing.T) {
		t.Parallel()

		c := code("!important")
		c.SetLanguage("ruby")
		runCell(t, newState(notebook.New(c), nil), bashIdentify, c)
		if c.Language() != "ruby" || c.Source() != "!important" {
			t.Errorf("cell changed: language %q source %q", c.Language(), c.Source())
		}
	})
}

func TestCleanMagics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"%matplotlib inline\nx = 1", "x = 1"},
		{"%%time\ny = 2\n", "y = 2"},
		{"x = 10 % 3", "x = 10 % 3"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			c := code(tt.in)
			runCell(t, newState(notebook.New(c), nil), cleanMagics, c)
			if c.Source() != tt.want {
				t.Errorf("source = %q, want %q", c.Source(), tt.want)
			}
		})
	}
}

func TestUpdateTags_Deduplicates(t *testing.T) {
	t.Parallel()

	c := withTags(code("x = 1"), "a")
	c.Scoped()[TagsKey] = []string{"a", "b"}
	st := newState(notebook.New(c), nil)

	runCell(t, st, updateTags, c)
	runCell(t, st, updateTags, c)

	if diff := cmp.Diff([]string{"a", "b"}, c.Tags()); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// Document units
// ---------------------------------------------------------------------------

func TestAddShowDocs(t *testing.T) {
	t.Parallel()

	exported := code("#| export\ndef foo(): pass\ndef _private(): pass\nclass Bar: pass")
	documented := code("show_doc(Bar)")
	after := md("text")
	nb := notebook.New(exported, after, documented)

	st := newState(nb, nil)
	if err := addShowDocs(st, nb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := addShowDocs(st, nb); err != nil {
		t.Fatalf("unexpected error on second pass: %v", err)
	}

	if len(nb.Cells) != 4 {
		t.Fatalf("got %d cells, want 4", len(nb.Cells))
	}
	doc := nb.Cells[1]
	if doc.Type != notebook.Code || doc.Source() != "show_doc(foo)" {
		t.Errorf("cell 1 = %s %q, want code show_doc(foo)", doc.Type, doc.Source())
	}
	if doc.Language() != "python" {
		t.Errorf("show_doc cell language = %q, want python", doc.Language())
	}
	if nb.Cells[2] != after {
		t.Error("show_doc cell not placed directly after the exported cell")
	}
}

func TestAddShowDocs_NonPrimaryLanguage(t *testing.T) {
	t.Parallel()

	c := code("#| export\nfunction f() {}")
	c.SetLanguage("javascript")
	nb := notebook.New(c)

	err := addShowDocs(newState(nb, nil), nb)
	if !errors.Is(err, ErrExportLanguage) {
		t.Fatalf("error = %v, want ErrExportLanguage", err)
	}
	if !strings.Contains(err.Error(), "function f() {}") {
		t.Errorf("error %q should include the cell source", err)
	}
}

func TestInsertWarning(t *testing.T) {
	t.Parallel()

	nb := notebook.New(notebook.NewCell(notebook.Raw, "---\ntitle: T\n---"), md("body"))
	st := newState(nb, nil)
	for range 2 {
		if err := insertWarning(st, nb); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(nb.Cells) != 3 {
		t.Fatalf("got %d cells, want 3", len(nb.Cells))
	}
	if nb.Cells[1].Source() != WarningText {
		t.Errorf("cell 1 = %q, want the warning", nb.Cells[1].Source())
	}
}

func TestRmEmptyCode(t *testing.T) {
	t.Parallel()

	empty := md("")
	nb := notebook.New(code("  \n"), code("x = 1"), empty, code(""))
	if err := rmEmptyCode(newState(nb, nil), nb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nb.Cells) != 2 || nb.Cells[1] != empty {
		t.Errorf("got %d cells, want the code cell and the markdown cell", len(nb.Cells))
	}
}

// ---------------------------------------------------------------------------
// Cleaning units
// ---------------------------------------------------------------------------

func TestSourceCleaners(t *testing.T) {
	t.Parallel()

	defaults := config.DefaultConfig()
	flags := cleanFlags(defaults.LegacyFlags)
	hide := hideLine(defaults.Directives.HideLine)

	tests := []struct {
		name string
		fn   CellFunc
		in   string
		want string
	}{
		{"clean_flags legacy flag", flags, "# export\ndef f(): pass", "def f(): pass"},
		{"clean_flags keeps comments", flags, "# compute\nx = 1", "# compute\nx = 1"},
		{"hide_line", hide, "x = 1\nprint(s)  #| hide_line\ny = 2", "x = 1\ny = 2"},
		{"rm_export hide", rmExport, "#| hide\nx = 1", ""},
		{"rm_export export", rmExport, "#| export\ndef f(): pass", ""},
		{"rm_export keeps exports", rmExport, "#| exports\ndef f(): pass", "#| exports\ndef f(): pass"},
		{"clean_directives", cleanDirectives, "#| export\n\n#| eval: false\ndef f(): pass", "def f(): pass"},
		{"clean_directives no block", cleanDirectives, "x = 1\n#| late", "x = 1\n#| late"},
		{"clean_directives leading block only", cleanDirectives, "#| echo: true\nx = 1\n#| hide\ny = 2", "x = 1\n#| hide\ny = 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := code(tt.in)
			runCell(t, newState(notebook.New(c), nil), tt.fn, c)
			if c.Source() != tt.want {
				t.Errorf("source = %q, want %q", c.Source(), tt.want)
			}
		})
	}
}

func TestVisibility(t *testing.T) {
	t.Parallel()

	out := func(c *notebook.Cell) *notebook.Cell {
		c.Outputs = []*notebook.Output{notebook.NewStream("stdout", "x\n")}
		return c
	}

	tests := []struct {
		name        string
		cell        *notebook.Cell
		wantRemoved bool
		wantOutputs int
		wantEcho    bool
	}{
		{"remove_cell tag", withTags(out(code("x")), "remove_cell"), true, 1, true},
		{"hide tag on markdown", withTags(md("secret"), "hide"), true, 0, true},
		{"remove_output tag", withTags(out(code("x")), "remove_output"), false, 0, true},
		{"hide_output directive", out(code("#| hide_output\nx")), false, 0, true},
		{"remove_input tag", withTags(out(code("x")), "remove_input"), false, 1, false},
		{"hide_input directive", out(code("#| hide_input\nx")), false, 1, false},
		{"untouched", out(code("x")), false, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := tt.cell
			runCell(t, newState(notebook.New(c), nil), visibility, c)
			if c.Removed() != tt.wantRemoved {
				t.Errorf("Removed() = %v, want %v", c.Removed(), tt.wantRemoved)
			}
			if len(c.Outputs) != tt.wantOutputs {
				t.Errorf("got %d outputs, want %d", len(c.Outputs), tt.wantOutputs)
			}
			echo, ok := c.ScopedValue(notebook.EchoKey)
			if gotEcho := !ok || echo != false; gotEcho != tt.wantEcho {
				t.Errorf("echo = %v, want %v", gotEcho, tt.wantEcho)
			}
		})
	}
}

func TestCleanShowDoc(t *testing.T) {
	t.Parallel()

	t.Run("single html output becomes raw", func(t *testing.T) {
		t.Parallel()

		c := code("show_doc(foo)")
		c.Metadata["keep"] = true
		res := &notebook.Output{Type: notebook.DisplayData, Data: map[string]any{
			notebook.MIMEHTML: "<h4>foo</h4>\n<HTMLRemove>\n<p>noise</p>\n</HTMLRemove>",
		}}
		c.Outputs = []*notebook.Output{res}

		got := runCell(t, newState(notebook.New(c), nil), cleanShowDoc, c)
		if got == nil {
			t.Fatal("expected a replacement cell")
		}
		if got.Type != notebook.Raw || got.Source() != "<h4>foo</h4>" {
			t.Errorf("replacement = %s %q, want raw <h4>foo</h4>", got.Type, got.Source())
		}
		if got.ID != c.ID || got.Metadata["keep"] != true {
			t.Error("replacement lost the cell id or metadata")
		}
	})

	t.Run("other outputs are shown as-is without source", func(t *testing.T) {
		t.Parallel()

		c := code("show_doc(foo)")
		c.Outputs = []*notebook.Output{notebook.NewStream("stdout", "func()\n")}

		if got := runCell(t, newState(notebook.New(c), nil), cleanShowDoc, c); got != nil {
			t.Fatalf("unexpected replacement %v", got)
		}
		if c.ScopedString(notebook.OutputKey) != notebook.OutputAsIs {
			t.Error("output not marked as-is")
		}
		if v, _ := c.ScopedValue(notebook.EchoKey); v != false {
			t.Error("echo not disabled")
		}
	})

	t.Run("ordinary cells are untouched", func(t *testing.T) {
		t.Parallel()

		c := code("x = show_doc")
		runCell(t, newState(notebook.New(c), nil), cleanShowDoc, c)
		if _, ok := c.Metadata[notebook.ScopeKey]; ok {
			t.Error("ordinary cell got scoped metadata")
		}
	})
}

// ---------------------------------------------------------------------------
// Output sanitizers
// ---------------------------------------------------------------------------

func TestStripANSI(t *testing.T) {
	t.Parallel()

	c := code("x")
	c.Outputs = []*notebook.Output{
		notebook.NewStream("stderr", "\x1b[31mERROR\x1b[0m\n"),
		{Type: notebook.Error, EName: "E", Traceback: []string{"\x1b[1mline\x1b[0m"}},
	}
	runCell(t, newState(notebook.New(c), nil), stripANSI, c)

	if got := c.Outputs[0].Joined(); got != "ERROR\n" {
		t.Errorf("stream = %q, want %q", got, "ERROR\n")
	}
	if got := c.Outputs[1].Traceback[0]; got != "line" {
		t.Errorf("traceback = %q, want %q", got, "line")
	}
}

func TestFilterStream(t *testing.T) {
	t.Parallel()

	t.Run("configured words", func(t *testing.T) {
		t.Parallel()

		c := code("x")
		c.Outputs = []*notebook.Output{{Type: notebook.Stream, Name: "stdout", Text: []string{"a", "DEBUG: x", "b"}}}
		st := newState(notebook.New(c), func(s *State) {
			s.Config.Output.FilterWords = []string{"DEBUG"}
		})
		runCell(t, st, filterStream, c)
		if diff := cmp.Diff([]string{"a", "b"}, c.Outputs[0].Text); diff != "" {
			t.Errorf("stream mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("cell words", func(t *testing.T) {
		t.Parallel()

		c := code("x")
		c.Scoped()[FilterStreamKey] = []string{"TRACE"}
		c.Outputs = []*notebook.Output{notebook.NewStream("stdout", "keep\nTRACE drop\n")}
		runCell(t, newState(notebook.New(c), nil), filterStream, c)
		if diff := cmp.Diff([]string{"keep\n"}, c.Outputs[0].Text); diff != "" {
			t.Errorf("stream mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestHTMLEscape(t *testing.T) {
	t.Parallel()

	frame := `<style scoped>.dataframe tbody tr th {}</style><table class="dataframe"></table>`
	plainOut := &notebook.Output{Type: notebook.DisplayData, Data: map[string]any{notebook.MIMEHTML: "<div>x</div>\n"}}
	frameOut := &notebook.Output{Type: notebook.ExecuteResult, Data: map[string]any{notebook.MIMEHTML: frame}}
	c := code("x")
	c.Outputs = []*notebook.Output{plainOut, frameOut}

	runCell(t, newState(notebook.New(c), nil), htmlEscape, c)

	if _, ok := plainOut.Data[notebook.MIMEHTML]; ok {
		t.Error("html payload kept after escaping")
	}
	if got, _ := plainOut.DataText(notebook.MIMEMarkdown); got != "```html\n<div>x</div>\n```" {
		t.Errorf("escaped payload = %q", got)
	}
	if got, _ := frameOut.DataText(notebook.MIMEHTML); got != frame {
		t.Error("dataframe html was rewritten")
	}
}

func TestRmHeaderDash(t *testing.T) {
	t.Parallel()

	t.Run("line mode", func(t *testing.T) {
		t.Parallel()

		logger, logs := observed()
		c := md("# Keep\n## Drop -\n##Stray -\ntext")
		runCell(t, newState(notebook.New(c), func(s *State) { s.Logger = logger }), rmHeaderDash, c)
		if c.Source() != "# Keep\n##Stray -\ntext" {
			t.Errorf("source = %q", c.Source())
		}
		if logs.Len() != 1 {
			t.Errorf("got %d warnings, want 1 for the stray heading", logs.Len())
		}
	})

	t.Run("cell mode", func(t *testing.T) {
		t.Parallel()

		c := md("## Section -")
		st := newState(notebook.New(c), func(s *State) {
			s.Config.Output.HeaderDash = config.HeaderDashCell
		})
		runCell(t, st, rmHeaderDash, c)
		if !c.Removed() {
			t.Error("dash heading cell not removed")
		}
	})
}

func TestAddLinks(t *testing.T) {
	t.Parallel()

	links := linkify.Table{"DataFrame": "https://docs.example/df"}
	c := md("Use DataFrame here")
	out := code("x")
	out.Outputs = []*notebook.Output{{Type: notebook.DisplayData, Data: map[string]any{
		notebook.MIMEMarkdown: "a DataFrame",
	}}}
	st := newState(notebook.New(c, out), func(s *State) { s.Links = links })

	runCell(t, st, addLinks, c)
	runCell(t, st, addLinks, out)

	if want := "Use [DataFrame](https://docs.example/df) here"; c.Source() != want {
		t.Errorf("source = %q, want %q", c.Source(), want)
	}
	if got, _ := out.Outputs[0].DataText(notebook.MIMEMarkdown); got != "a [DataFrame](https://docs.example/df)" {
		t.Errorf("markdown output = %q", got)
	}
}

func TestStripHiddenMetadata(t *testing.T) {
	t.Parallel()

	c := code("x")
	c.Metadata["hidden"] = true
	c.Metadata["other"] = 1
	runCell(t, newState(notebook.New(c), nil), stripHiddenMetadata, c)
	if _, ok := c.Metadata["hidden"]; ok {
		t.Error("hidden metadata kept")
	}
	if c.Metadata["other"] != 1 {
		t.Error("unrelated metadata dropped")
	}
}
