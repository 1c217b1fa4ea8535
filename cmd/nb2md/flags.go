package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// ErrUsage wraps flag parsing errors.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// assetFlags holds template and style selection.
type assetFlags struct {
	template       string
	style          string
	highlightStyle string
	assetPath      string
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common    commonFlags
	assets    assetFlags
	outputDir string
	html      bool
	noExec    bool
	symbols   string
	timeout   time.Duration
	workers   int
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
}

// addAssetFlags adds asset-related flags to a FlagSet.
func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVar(&f.template, "template", "", "markdown template name")
	fs.StringVar(&f.style, "style", "", "page style name (with --html)")
	fs.StringVar(&f.highlightStyle, "highlight", "", "chroma style for code in pages")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, usage io.Writer) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := &convertFlags{}

	fs.StringVarP(&f.outputDir, "output-dir", "o", "", "output directory (default: next to each notebook)")
	fs.BoolVar(&f.html, "html", false, "also write a standalone HTML page")
	fs.BoolVar(&f.noExec, "no-exec", false, "never execute cells, render stored outputs")
	fs.StringVar(&f.symbols, "symbols", "", "YAML file mapping symbols to documentation URLs")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "per-notebook timeout (e.g. 30s, 2m; 0 = none)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel conversions (0 = auto)")

	addCommonFlags(fs, &f.common)
	addAssetFlags(fs, &f.assets)

	fs.Usage = func() { printConvertUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if f.timeout < 0 {
		return nil, nil, fmt.Errorf("%w: timeout must be positive, got %s", ErrUsage, f.timeout)
	}

	return f, fs.Args(), nil
}
