package nb2md

import (
	"errors"

	"github.com/alnah/go-nb2md/internal/config"
	"github.com/alnah/go-nb2md/internal/execgate"
	"github.com/alnah/go-nb2md/internal/notebook"
	"github.com/alnah/go-nb2md/internal/pipeline"
	"github.com/alnah/go-nb2md/internal/render"
)

// Sentinel errors for library operations.
var (
	ErrNilNotebook = errors.New("notebook cannot be nil")

	// Notebook decoding errors.
	ErrDecode            = notebook.ErrDecode
	ErrUnsupportedFormat = notebook.ErrUnsupportedFormat

	// Transformation errors.
	ErrExecution      = execgate.ErrExecution
	ErrNoSession      = execgate.ErrNoSession
	ErrExportLanguage = pipeline.ErrExportLanguage

	// Rendering errors.
	ErrTemplate       = render.ErrTemplate
	ErrRender         = render.ErrRender
	ErrHTMLConversion = render.ErrHTMLConversion

	// Configuration and asset errors.
	ErrInvalidConfig    = config.ErrInvalidConfig
	ErrConfigNotFound   = config.ErrConfigNotFound
	ErrConfigParse      = config.ErrConfigParse
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
	ErrSymbolsFile      = errors.New("failed to load symbols file")
)

// ExecutionError reports the cell whose execution aborted a conversion.
type ExecutionError = execgate.ExecutionError
