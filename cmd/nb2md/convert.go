package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	nb2md "github.com/alnah/go-nb2md"
	"github.com/alnah/go-nb2md/internal/assets"
	"github.com/alnah/go-nb2md/internal/hints"
)

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}
	if len(positionalArgs) == 0 {
		return ErrNoInput
	}

	cfg := nb2md.DefaultConfig()
	if flags.common.config != "" {
		var err error
		cfg, err = nb2md.LoadConfig(flags.common.config)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}
	mergeFlags(flags, cfg)

	logger := newLogger(env.Stderr, flags.common.verbose, flags.common.quiet)
	defer func() { _ = logger.Sync() }()

	opts := []nb2md.Option{
		nb2md.WithConfig(cfg),
		nb2md.WithLogger(logger),
		nb2md.WithStyle(flags.assets.style),
		nb2md.WithHighlightStyle(flags.assets.highlightStyle),
	}
	if env.SessionFactory != nil {
		opts = append(opts, nb2md.WithSessionFactory(env.SessionFactory))
	}
	conv, err := nb2md.NewConverter(opts...)
	if err != nil {
		return err
	}

	files, err := discoverFiles(positionalArgs, flags.outputDir, flags.html)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no notebooks found in %v", ErrNoInput, positionalArgs)
	}

	workers := nb2md.ResolveWorkers(flags.workers)
	logger.Debug("converting notebooks", zap.Int("notebooks", len(files)), zap.Int("workers", workers))

	results := convertBatch(ctx, conv, files, &conversionParams{
		html:    flags.html,
		timeout: flags.timeout,
		workers: workers,
		now:     env.Now,
	})

	if failed := printResultsWithWriter(results, flags.common.quiet, flags.common.verbose, env); failed > 0 {
		return &batchError{failed: failed, first: firstError(results)}
	}
	return nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *nb2md.Config) {
	if flags.noExec {
		cfg.Execution.Enabled = false
	}
	if flags.assets.template != "" {
		cfg.Template.Name = flags.assets.template
	}
	if flags.assets.assetPath != "" {
		cfg.Template.BasePath = flags.assets.assetPath
	}
	if flags.symbols != "" {
		cfg.Links.SymbolsFile = flags.symbols
	}
}

// batchError reports failed conversions. It unwraps to the first failure so
// the exit code follows its class.
type batchError struct {
	failed int
	first  error
}

func (e *batchError) Error() string {
	return fmt.Sprintf("%d conversion(s) failed", e.failed)
}

func (e *batchError) Unwrap() error { return e.first }

func firstError(results []ConversionResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	var batch *batchError
	if errors.As(err, &batch) {
		return ""
	}
	switch {
	case errors.Is(err, nb2md.ErrExecution):
		return hints.ForExecution()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, nb2md.ErrConfigNotFound):
		return hints.ForConfigNotFound(configSearchPaths())
	case errors.Is(err, nb2md.ErrTemplateNotFound):
		return hints.ForTemplateNotFound([]string{assets.DefaultTemplateName})
	case errors.Is(err, ErrCreateOutputDir):
		return hints.ForOutputDirectory()
	case errors.Is(err, nb2md.ErrDecode), errors.Is(err, nb2md.ErrUnsupportedFormat):
		return hints.ForDecode()
	case errors.Is(err, ErrNoInput):
		return hints.ForNoInput()
	}
	return ""
}

func configSearchPaths() []string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(dir, "go-nb2md", "nb2md.yaml")}
}
