package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-nb2md/internal/notebook"
	"github.com/alnah/go-nb2md/internal/pipeline"
)

func code(src string) *notebook.Cell { return notebook.NewCell(notebook.Code, src) }

func md(src string) *notebook.Cell { return notebook.NewCell(notebook.Markdown, src) }

// ---------------------------------------------------------------------------
// TestPipeline_Run - Engine semantics
// ---------------------------------------------------------------------------

func TestPipeline_RunsUnitsInOrder(t *testing.T) {
	t.Parallel()

	var log []string
	record := func(name string) pipeline.Unit {
		return pipeline.DocUnit(name, func(*pipeline.State, *notebook.Notebook) error {
			log = append(log, name)
			return nil
		})
	}
	visit := pipeline.CellUnit("visit", func(st *pipeline.State, c *notebook.Cell) (*notebook.Cell, error) {
		log = append(log, c.Source())
		return nil, nil
	})

	p := pipeline.New(pipeline.State{}, record("first"), visit, record("last"))
	if err := p.Run(context.Background(), notebook.New(md("a"), md("b"))); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if diff := cmp.Diff([]string{"first", "a", "b", "last"}, log); diff != "" {
		t.Errorf("execution order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"first", "visit", "last"}, p.Units()); diff != "" {
		t.Errorf("Units() mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_ReplacesCells(t *testing.T) {
	t.Parallel()

	repl := notebook.NewCell(notebook.Raw, "replaced")
	p := pipeline.New(pipeline.State{}, pipeline.CellUnit("swap", func(st *pipeline.State, c *notebook.Cell) (*notebook.Cell, error) {
		if st.Index == 1 {
			return repl, nil
		}
		return c, nil
	}))

	nb := notebook.New(md("a"), md("b"), md("c"))
	if err := p.Run(context.Background(), nb); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(nb.Cells) != 3 || nb.Cells[1] != repl {
		t.Errorf("cell 1 = %v, want the replacement", nb.Cells[1])
	}
}

func TestPipeline_CompactsRemovedCells(t *testing.T) {
	t.Parallel()

	var seen []string
	drop := pipeline.CellUnit("drop", func(st *pipeline.State, c *notebook.Cell) (*notebook.Cell, error) {
		if c.Source() == "drop" {
			c.MarkRemoved()
		}
		return nil, nil
	})
	count := pipeline.CellUnit("count", func(st *pipeline.State, c *notebook.Cell) (*notebook.Cell, error) {
		seen = append(seen, c.Source())
		return nil, nil
	})

	nb := notebook.New(md("keep"), md("drop"), md("also"))
	if err := pipeline.New(pipeline.State{}, drop, count).Run(context.Background(), nb); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if diff := cmp.Diff([]string{"keep", "also"}, seen); diff != "" {
		t.Errorf("cells seen after removal (-want +got):\n%s", diff)
	}
	if len(nb.Cells) != 2 {
		t.Errorf("got %d cells, want 2", len(nb.Cells))
	}
}

func TestPipeline_ExposesIndex(t *testing.T) {
	t.Parallel()

	var cells []int
	docIndex := 0
	p := pipeline.New(pipeline.State{},
		pipeline.CellUnit("cells", func(st *pipeline.State, c *notebook.Cell) (*notebook.Cell, error) {
			cells = append(cells, st.Index)
			return nil, nil
		}),
		pipeline.DocUnit("doc", func(st *pipeline.State, nb *notebook.Notebook) error {
			docIndex = st.Index
			return nil
		}),
	)
	if err := p.Run(context.Background(), notebook.New(md("a"), md("b"), md("c"))); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, cells); diff != "" {
		t.Errorf("cell indexes mismatch (-want +got):\n%s", diff)
	}
	if docIndex != -1 {
		t.Errorf("doc unit index = %d, want -1", docIndex)
	}
}

func TestPipeline_WrapsUnitErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ran := false
	p := pipeline.New(pipeline.State{},
		pipeline.CellUnit("explode", func(*pipeline.State, *notebook.Cell) (*notebook.Cell, error) {
			return nil, boom
		}),
		pipeline.DocUnit("after", func(*pipeline.State, *notebook.Notebook) error {
			ran = true
			return nil
		}),
	)

	err := p.Run(context.Background(), notebook.New(md("a")))
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want boom", err)
	}
	if !strings.Contains(err.Error(), `unit "explode"`) {
		t.Errorf("error %q should name the unit", err)
	}
	if ran {
		t.Error("units after a failure ran")
	}
}

func TestPipeline_StopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	ranSecond := false
	p := pipeline.New(pipeline.State{},
		pipeline.DocUnit("cancel", func(*pipeline.State, *notebook.Notebook) error {
			cancel()
			return nil
		}),
		pipeline.DocUnit("second", func(*pipeline.State, *notebook.Notebook) error {
			ranSecond = true
			return nil
		}),
	)

	err := p.Run(ctx, notebook.New())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if ranSecond {
		t.Error("unit ran after cancellation")
	}
}

func TestPipeline_StateDefaults(t *testing.T) {
	t.Parallel()

	p := pipeline.New(pipeline.State{}, pipeline.DocUnit("check", func(st *pipeline.State, nb *notebook.Notebook) error {
		if st.Config == nil || st.Logger == nil || st.Links == nil || st.Gate == nil {
			t.Error("state field left nil")
		}
		if st.Notebook != nb {
			t.Error("state does not hold the notebook being run")
		}
		if st.Context() == nil {
			t.Error("nil context")
		}
		return nil
	}))
	if err := p.Run(context.Background(), notebook.New()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}
