// Package execgate decides which code cells must run before documentation
// is rendered, and runs them in one session shared by the whole notebook.
//
// A cell must run when it exports symbols, imports something, or calls the
// show-doc function at top level. Everything else is skipped. Decisions are
// recorded in the cell's scoped metadata and never revisited, so running the
// gate twice over the same notebook executes nothing new.
package execgate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-nb2md/internal/directive"
	"github.com/alnah/go-nb2md/internal/notebook"
	"github.com/alnah/go-nb2md/internal/syntax"
)

// Decision is the gate outcome for one cell.
type Decision string

const (
	Skip        Decision = "skip"
	MustExecute Decision = "execute"
)

// ScopedKey is the scoped metadata key holding a recorded decision.
const ScopedKey = "gate"

// DefaultExecDirectives force execution of the cells that carry them.
var DefaultExecDirectives = []string{"export", "exports", "exporti", "exec_doc"}

// Notebook flags that disable execution.
const (
	FlagSkipExec    = "skip_exec"
	FlagSkipShowDoc = "skip_showdoc"
)

// Gate decides and drives cell execution.
type Gate struct {
	factory        Factory
	classifier     *syntax.Classifier
	execDirectives []string
	logger         *zap.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithClassifier sets the statement classifier.
func WithClassifier(c *syntax.Classifier) Option {
	return func(g *Gate) { g.classifier = c }
}

// WithExecDirectives replaces the directives that force execution.
func WithExecDirectives(names []string) Option {
	return func(g *Gate) {
		if len(names) > 0 {
			g.execDirectives = names
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a Gate. A nil factory records decisions without running
// anything.
func New(factory Factory, opts ...Option) *Gate {
	g := &Gate{
		factory:        factory,
		classifier:     syntax.NewClassifier(""),
		execDirectives: DefaultExecDirectives,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Classifier returns the classifier used for decisions.
func (g *Gate) Classifier() *syntax.Classifier { return g.classifier }

// Decide classifies one cell of nb.
func (g *Gate) Decide(nb *notebook.Notebook, c *notebook.Cell) Decision {
	if c.Type != notebook.Code {
		return Skip
	}
	if lang := c.Language(); lang != "" && !strings.EqualFold(lang, nb.Language()) {
		return Skip
	}
	d := c.Directives()
	if eval := d.First("eval"); strings.EqualFold(eval, "false") {
		return Skip
	}
	if nb.HasFlag(FlagSkipExec, FlagSkipShowDoc) {
		return Skip
	}
	if d.HasAny(g.execDirectives...) {
		return MustExecute
	}
	s := c.Parsed(g.classifier)
	if s.Imports || s.HasShowDoc() {
		return MustExecute
	}
	return Skip
}

// Run decides every undecided code cell in document order and executes the
// ones that must run, replacing their outputs. The session is opened on the
// first cell that needs it and closed before Run returns.
func (g *Gate) Run(ctx context.Context, nb *notebook.Notebook) (err error) {
	var (
		sess      Session
		noBackend = g.factory == nil
		count     int
	)
	defer func() {
		if sess == nil {
			return
		}
		if cerr := sess.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing session: %w", cerr)
		}
	}()

	for i, c := range nb.Cells {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.Type != notebook.Code || c.ScopedString(ScopedKey) != "" {
			continue
		}
		d := g.Decide(nb, c)
		c.Scoped()[ScopedKey] = string(d)
		if d == Skip || noBackend {
			continue
		}

		if sess == nil {
			s, ferr := g.factory(ctx, nb.Language())
			if errors.Is(ferr, ErrNoSession) {
				g.logger.Info("no execution backend, recording decisions only",
					zap.String("language", nb.Language()))
				noBackend = true
				continue
			}
			if ferr != nil {
				return fmt.Errorf("opening session: %w", ferr)
			}
			sess = s
		}

		outs, rerr := sess.Run(ctx, directive.Strip(c.Source()))
		if rerr != nil {
			return &ExecutionError{Index: i, Source: c.Source(), Err: rerr}
		}
		count++
		n := count
		c.Outputs = outs
		c.ExecutionCount = &n
		g.logger.Debug("executed cell", zap.Int("cell", i), zap.Int("outputs", len(outs)))
	}
	return nil
}
