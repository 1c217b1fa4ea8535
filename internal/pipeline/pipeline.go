package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alnah/go-nb2md/internal/config"
	"github.com/alnah/go-nb2md/internal/execgate"
	"github.com/alnah/go-nb2md/internal/linkify"
	"github.com/alnah/go-nb2md/internal/notebook"
)

// Kind tags the variant held by a Unit.
type Kind int

const (
	CellKind Kind = iota
	DocKind
)

func (k Kind) String() string {
	if k == DocKind {
		return "doc"
	}
	return "cell"
}

// CellFunc transforms one cell. A non-nil returned cell replaces the input
// at the same index; returning nil keeps the (possibly mutated) input.
type CellFunc func(st *State, c *notebook.Cell) (*notebook.Cell, error)

// DocFunc transforms the whole notebook.
type DocFunc func(st *State, nb *notebook.Notebook) error

// Unit is one named transformation.
type Unit struct {
	Kind Kind
	Name string
	Cell CellFunc
	Doc  DocFunc
}

// CellUnit creates a unit applied to every cell.
func CellUnit(name string, fn CellFunc) Unit {
	return Unit{Kind: CellKind, Name: name, Cell: fn}
}

// DocUnit creates a unit applied once to the notebook.
func DocUnit(name string, fn DocFunc) Unit {
	return Unit{Kind: DocKind, Name: name, Doc: fn}
}

// State is shared by every unit of one run.
type State struct {
	Config   *config.Config
	Logger   *zap.Logger
	Links    linkify.Lookup
	Gate     *execgate.Gate
	Notebook *notebook.Notebook
	// Index is the position of the cell a cell unit is looking at.
	Index int

	ctx    context.Context
	linker *linkify.Linker
}

// Context returns the context of the current run.
func (st *State) Context() context.Context {
	if st.ctx == nil {
		return context.Background()
	}
	return st.ctx
}

// Linker returns the annotator for st.Links, built on first use.
func (st *State) Linker() *linkify.Linker {
	if st.linker == nil {
		st.linker = linkify.New(st.Links)
	}
	return st.linker
}

// warn logs a recoverable problem with the current cell.
func (st *State) warn(msg string, fields ...zap.Field) {
	st.Logger.Warn(msg, append([]zap.Field{zap.Int("cell", st.Index)}, fields...)...)
}

// Pipeline is an explicit, ordered list of units.
type Pipeline struct {
	units []Unit
	base  State
}

// New creates a pipeline over units. State fields left nil are defaulted:
// the default config, a no-op logger, an empty link table and a gate that
// records decisions without executing.
func New(st State, units ...Unit) *Pipeline {
	if st.Config == nil {
		st.Config = config.DefaultConfig()
	}
	if st.Logger == nil {
		st.Logger = zap.NewNop()
	}
	if st.Links == nil {
		st.Links = linkify.Table{}
	}
	if st.Gate == nil {
		st.Gate = execgate.New(nil, execgate.WithLogger(st.Logger))
	}
	return &Pipeline{units: units, base: st}
}

// Units returns the unit names in execution order.
func (p *Pipeline) Units() []string {
	names := make([]string, len(p.units))
	for i, u := range p.units {
		names[i] = u.Name
	}
	return names
}

// Run applies every unit once, in order. Cells marked removed by a cell unit
// are dropped before the next unit starts.
func (p *Pipeline) Run(ctx context.Context, nb *notebook.Notebook) error {
	st := p.base
	st.Notebook = nb
	st.ctx = ctx

	for _, u := range p.units {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.apply(&st, u); err != nil {
			return fmt.Errorf("unit %q: %w", u.Name, err)
		}
		nb.Compact()
	}
	return nil
}

func (p *Pipeline) apply(st *State, u Unit) error {
	nb := st.Notebook
	switch u.Kind {
	case DocKind:
		st.Index = -1
		return u.Doc(st, nb)
	case CellKind:
		for i := 0; i < len(nb.Cells); i++ {
			st.Index = i
			c := nb.Cells[i]
			if c.Removed() {
				continue
			}
			repl, err := u.Cell(st, c)
			if err != nil {
				return err
			}
			if repl != nil && repl != c {
				nb.Replace(i, repl)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown unit kind %d", u.Kind)
	}
}
