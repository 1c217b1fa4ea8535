package nb2md

import (
	"io"

	"go.uber.org/zap"

	"github.com/alnah/go-nb2md/internal/config"
	"github.com/alnah/go-nb2md/internal/execgate"
	"github.com/alnah/go-nb2md/internal/notebook"
)

// Notebook is a decoded notebook document.
type Notebook = notebook.Notebook

// Cell is one cell of a Notebook.
type Cell = notebook.Cell

// Config is the YAML-backed converter configuration.
type Config = config.Config

// Session runs the cells of one notebook and returns their outputs.
type Session = execgate.Session

// SessionFactory opens a Session for a notebook language. It returns an
// error matching ErrNoSession when the language has no backend.
type SessionFactory = execgate.Factory

// Decode reads an nbformat 4 notebook.
func Decode(r io.Reader) (*Notebook, error) {
	return notebook.Decode(r)
}

// Encode writes nb as nbformat 4 JSON.
func Encode(w io.Writer, nb *Notebook) error {
	return notebook.Encode(w, nb)
}

// DefaultConfig returns the configuration used when WithConfig is not given.
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// LoadConfig reads a configuration file by path, or by name from the
// current directory and the user config directory.
func LoadConfig(nameOrPath string) (*Config, error) {
	return config.LoadConfig(nameOrPath)
}

// Input is one notebook to convert.
type Input struct {
	Notebook *Notebook

	// HTML also renders a standalone page.
	HTML bool

	// Title is the page title used when the notebook has no front matter
	// title.
	Title string

	// SourceDir and OutputDir locate the notebook and the written page.
	// When both are set, relative links in the page are rewritten to stay
	// valid from OutputDir.
	SourceDir string
	OutputDir string
}

// Result holds the outcome of a conversion.
type Result struct {
	// Notebook is the transformed notebook, modified in place.
	Notebook *Notebook
	Markdown string
	// HTML is empty unless Input.HTML was set.
	HTML []byte
}

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	cfg            *config.Config
	logger         *zap.Logger
	factory        execgate.Factory
	assetPath      string
	templateName   string
	styleName      string
	highlightStyle string
	links          map[string]string
}

// WithConfig sets the configuration. It is validated by NewConverter.
func WithConfig(cfg *Config) Option {
	return func(c *Converter) {
		c.cfg.cfg = cfg
	}
}

// WithLogger sets the logger receiving warnings about recoverable problems.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) {
		c.cfg.logger = l
	}
}

// WithSessionFactory replaces the execution backend.
func WithSessionFactory(f SessionFactory) Option {
	return func(c *Converter) {
		c.cfg.factory = f
	}
}

// WithAssetPath sets a directory of custom templates and styles. Assets not
// found there fall back to the embedded ones.
func WithAssetPath(path string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = path
	}
}

// WithAssetLoader sets a custom asset loader. It takes precedence over
// WithAssetPath.
func WithAssetLoader(loader AssetLoader) Option {
	return func(c *Converter) {
		c.publicAssetLoader = loader
	}
}

// WithTemplate selects the markdown template by name.
func WithTemplate(name string) Option {
	return func(c *Converter) {
		c.cfg.templateName = name
	}
}

// WithStyle selects the page stylesheet by name.
func WithStyle(name string) Option {
	return func(c *Converter) {
		c.cfg.styleName = name
	}
}

// WithHighlightStyle selects the chroma style of code blocks in pages.
func WithHighlightStyle(name string) Option {
	return func(c *Converter) {
		c.cfg.highlightStyle = name
	}
}

// WithLinks adds symbol links applied to markdown text. They are merged over
// the symbols of the configuration.
func WithLinks(links map[string]string) Option {
	return func(c *Converter) {
		if c.cfg.links == nil {
			c.cfg.links = map[string]string{}
		}
		for k, v := range links {
			c.cfg.links[k] = v
		}
	}
}
