package main

import (
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/alnah/go-nb2md/internal/fileutil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ErrUnknownCommand is returned for a first argument that is neither a
// command nor a notebook path.
var ErrUnknownCommand = errors.New("unknown command")

func main() {
	os.Exit(runMain(os.Args[1:], DefaultEnv()))
}

// runMain dispatches args to a command and returns the process exit code.
func runMain(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[0], args[1:]
	switch {
	case cmd == "help" || cmd == "-h" || cmd == "--help":
		if len(rest) > 0 && rest[0] == "convert" {
			printConvertUsage(env.Stdout)
		} else {
			printUsage(env.Stdout)
		}
		return ExitSuccess
	case cmd == "version" || cmd == "--version":
		fmt.Fprintf(env.Stdout, "nb2md %s\n", Version)
		return ExitSuccess
	case cmd == "convert":
	case looksLikeNotebook(cmd):
		rest = args
	default:
		err := fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
		fmt.Fprintf(env.Stderr, "%v\n", err)
		printUsage(env.Stderr)
		return exitCodeFor(err)
	}

	flags, positional, err := parseConvertFlags(rest, env.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}
	setMaxProcs(flags.common.verbose, env)

	ctx, stop := notifyContext(env.Context)
	defer stop()

	if err := runConvert(ctx, positional, flags, env); err != nil {
		fmt.Fprintf(env.Stderr, "%v%s\n", err, hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// setMaxProcs configures GOMAXPROCS for the container quota. Its log lines
// are only shown with --verbose.
func setMaxProcs(verbose bool, env *Environment) {
	// maxprocs.Set only fails on an invalid GOMAXPROCS variable, in which
	// case the runtime default applies.
	if verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
			fmt.Fprintf(env.Stderr, format+"\n", args...)
		}))
		return
	}
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
}

// looksLikeNotebook reports whether arg names a notebook or a directory, so
// that "nb2md file.ipynb" works without the convert command.
func looksLikeNotebook(arg string) bool {
	if fileutil.IsNotebook(arg) {
		return true
	}
	info, err := os.Stat(arg)
	return err == nil && info.IsDir()
}
