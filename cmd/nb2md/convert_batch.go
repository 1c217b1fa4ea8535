package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	nb2md "github.com/alnah/go-nb2md"
	"github.com/alnah/go-nb2md/internal/fileutil"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Sentinel errors for batch operations.
var (
	ErrNoInput         = errors.New("no input specified")
	ErrReadNotebook    = errors.New("failed to read notebook")
	ErrWriteOutput     = errors.New("failed to write output")
	ErrCreateOutputDir = errors.New("failed to create output directory")
)

// NotebookConverter is the interface for the conversion service.
type NotebookConverter interface {
	Convert(ctx context.Context, in nb2md.Input) (*nb2md.Result, error)
}

// Compile-time interface implementation check.
var _ NotebookConverter = (*nb2md.Converter)(nil)

// conversionParams groups parameters shared across the batch.
type conversionParams struct {
	html    bool
	timeout time.Duration
	workers int
	now     func() time.Time
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// convertBatch converts files concurrently, at most params.workers at a
// time. A failed notebook does not stop the others.
func convertBatch(ctx context.Context, conv NotebookConverter, files []FileToConvert, params *conversionParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	results := make([]ConversionResult, len(files))
	var g errgroup.Group
	g.SetLimit(max(1, params.workers))

	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = ConversionResult{InputPath: f.InputPath, Err: err}
				return nil
			}
			results[i] = convertFile(ctx, conv, f, params)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// convertFile processes a single notebook and returns the result.
func convertFile(ctx context.Context, conv NotebookConverter, f FileToConvert, params *conversionParams) ConversionResult {
	now := params.now
	if now == nil {
		now = time.Now
	}
	start := now()
	result := ConversionResult{InputPath: f.InputPath, OutputPath: f.OutputPath}
	finish := func(err error) ConversionResult {
		result.Err = err
		result.Duration = now().Sub(start)
		return result
	}

	if params.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.timeout)
		defer cancel()
	}

	in, err := os.Open(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		return finish(fmt.Errorf("%w: %w", ErrReadNotebook, err))
	}
	nb, err := nb2md.Decode(in)
	_ = in.Close()
	if err != nil {
		return finish(err)
	}

	outDir := filepath.Dir(f.OutputPath)
	res, err := conv.Convert(ctx, nb2md.Input{
		Notebook:  nb,
		HTML:      f.HTMLPath != "",
		Title:     strings.TrimSuffix(filepath.Base(f.InputPath), filepath.Ext(f.InputPath)),
		SourceDir: filepath.Dir(f.InputPath),
		OutputDir: outDir,
	})
	if err != nil {
		return finish(err)
	}

	if err := os.MkdirAll(outDir, dirPermissions); err != nil {
		return finish(fmt.Errorf("%w: %w", ErrCreateOutputDir, err))
	}
	if err := fileutil.WriteAtomic(f.OutputPath, []byte(res.Markdown), filePermissions); err != nil {
		return finish(fmt.Errorf("%w: %w", ErrWriteOutput, err))
	}
	if f.HTMLPath != "" {
		if err := fileutil.WriteAtomic(f.HTMLPath, res.HTML, filePermissions); err != nil {
			return finish(fmt.Errorf("%w: %w", ErrWriteOutput, err))
		}
	}

	return finish(nil)
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResultsWithWriter outputs conversion results using the provided writers.
func printResultsWithWriter(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.InputPath, r.Err, hintFor(r.Err))
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}
