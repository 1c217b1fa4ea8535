package main

import (
	"context"
	"errors"
	"os"

	nb2md "github.com/alnah/go-nb2md"
	"github.com/alnah/go-nb2md/internal/config"
)

// Exit codes for the nb2md CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess   = 0 // Successful conversion
	ExitGeneral   = 1 // General/unexpected error
	ExitUsage     = 2 // Invalid flags, config, or notebook content
	ExitIO        = 3 // File not found, permission denied, unreadable notebook
	ExitExecution = 4 // A cell failed while rendering
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, nb2md.ErrExecution) || errors.Is(err, context.DeadlineExceeded) {
		return ExitExecution
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadNotebook) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrCreateOutputDir) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, nb2md.ErrDecode) ||
		errors.Is(err, nb2md.ErrUnsupportedFormat) {
		return ExitIO
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, nb2md.ErrConfigNotFound) ||
		errors.Is(err, nb2md.ErrConfigParse) ||
		errors.Is(err, nb2md.ErrInvalidConfig) ||
		errors.Is(err, nb2md.ErrTemplateNotFound) ||
		errors.Is(err, nb2md.ErrStyleNotFound) ||
		errors.Is(err, nb2md.ErrInvalidAssetPath) ||
		errors.Is(err, nb2md.ErrSymbolsFile) ||
		errors.Is(err, nb2md.ErrTemplate) ||
		errors.Is(err, nb2md.ErrExportLanguage) {
		return ExitUsage
	}

	return ExitGeneral
}
