package execgate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/alnah/go-nb2md/internal/notebook"
	"github.com/alnah/go-nb2md/internal/syntax"
)

// Session executes cells one after another, sharing state between them.
type Session interface {
	Run(ctx context.Context, source string) ([]*notebook.Output, error)
	Close() error
}

// Factory opens a session for a notebook's primary language. It returns
// ErrNoSession when the language has no backend.
type Factory func(ctx context.Context, lang string) (Session, error)

// DefaultFactory runs Go notebooks in-process with yaegi. Every other
// language has no backend.
func DefaultFactory(showDocFunc string) Factory {
	return func(ctx context.Context, lang string) (Session, error) {
		if !strings.EqualFold(lang, "go") {
			return nil, fmt.Errorf("%w: %s", ErrNoSession, lang)
		}
		return NewYaegiSession(ctx, showDocFunc)
	}
}

var errSessionClosed = errors.New("session closed")

// YaegiSession interprets Go cells with yaegi. Standard output and error
// are captured per cell.
type YaegiSession struct {
	mu     sync.Mutex
	interp *interp.Interpreter
	stdout bytes.Buffer
	stderr bytes.Buffer
}

// NewYaegiSession starts an interpreter with the standard library loaded and
// a show-doc function defined that prints the type of its arguments.
func NewYaegiSession(ctx context.Context, showDocFunc string) (*YaegiSession, error) {
	if showDocFunc == "" {
		showDocFunc = syntax.DefaultShowDocFunc
	}
	s := &YaegiSession{}
	s.interp = interp.New(interp.Options{Stdout: &s.stdout, Stderr: &s.stderr})
	if err := s.interp.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading stdlib symbols: %w", err)
	}
	setup := fmt.Sprintf("import \"fmt\"\n\nfunc %s(v ...interface{}) {\n\tfor _, x := range v {\n\t\tfmt.Printf(\"%%T\\n\", x)\n\t}\n}\n", showDocFunc)
	if _, err := s.interp.EvalWithContext(ctx, setup); err != nil {
		return nil, fmt.Errorf("session setup: %w", err)
	}
	s.stdout.Reset()
	s.stderr.Reset()
	return s, nil
}

// Run evaluates source and returns its captured outputs.
func (s *YaegiSession) Run(ctx context.Context, source string) (outs []*notebook.Output, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interp == nil {
		return nil, errSessionClosed
	}
	s.stdout.Reset()
	s.stderr.Reset()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	v, evalErr := s.interp.EvalWithContext(ctx, source)
	if out := s.stdout.String(); out != "" {
		outs = append(outs, notebook.NewStream("stdout", out))
	}
	if out := s.stderr.String(); out != "" {
		outs = append(outs, notebook.NewStream("stderr", out))
	}
	if evalErr != nil {
		return outs, evalErr
	}
	if text, ok := resultText(v); ok {
		outs = append(outs, notebook.NewResult(text))
	}
	return outs, nil
}

func resultText(v reflect.Value) (string, bool) {
	if !v.IsValid() || !v.CanInterface() {
		return "", false
	}
	switch v.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return "", false
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return "", false
		}
	}
	return fmt.Sprint(v.Interface()), true
}

// Close discards the interpreter.
func (s *YaegiSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interp = nil
	return nil
}
