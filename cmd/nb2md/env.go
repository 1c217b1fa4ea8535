package main

import (
	"context"
	"io"
	"os"
	"time"

	nb2md "github.com/alnah/go-nb2md"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Context context.Context
	Now     func() time.Time
	Stdout  io.Writer
	Stderr  io.Writer

	// SessionFactory replaces the execution backend. Nil keeps the default.
	SessionFactory nb2md.SessionFactory
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Context: context.Background(),
		Now:     time.Now,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}
