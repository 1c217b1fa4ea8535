package execgate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExecution matches every *ExecutionError.
	ErrExecution = errors.New("cell execution failed")
	// ErrNoSession is returned by a Factory that has no backend for a language.
	ErrNoSession = errors.New("no execution session for language")
)

// ExecutionError reports a cell whose execution raised. It aborts the run.
type ExecutionError struct {
	Index  int
	Source string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing cell %d:\n%s\n%v", e.Index, indent(e.Source), e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrExecution) match.
func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}
