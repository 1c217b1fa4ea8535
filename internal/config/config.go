package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/alnah/go-nb2md/internal/fileutil"
	"github.com/alnah/go-nb2md/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidConfig   = errors.New("invalid config")
)

// Field length limits.
const (
	MaxNameLength = 64   // directive, flag, key and function names
	MaxWordLength = 200  // output filter word
	MaxPathLength = 4096 // file system paths
	MaxURLLength  = 2048 // symbol link targets
)

// Header dash modes.
const (
	HeaderDashLine = "line"
	HeaderDashCell = "cell"
)

var (
	identifier   = regexp.MustCompile(`^[A-Za-z_][\w-]*$`)
	templateName = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

func init() {
	validation.ErrorTag = "yaml"
}

// Config holds all configuration for notebook conversion.
type Config struct {
	Directives  DirectivesConfig  `yaml:"directives"`
	LegacyFlags []string          `yaml:"legacyFlags"`
	FrontMatter FrontMatterConfig `yaml:"frontMatter"`
	Output      OutputConfig      `yaml:"output"`
	Languages   LanguagesConfig   `yaml:"languages"`
	Links       LinksConfig       `yaml:"links"`
	Execution   ExecutionConfig   `yaml:"execution"`
	Template    TemplateConfig    `yaml:"template"`
}

// DirectivesConfig names the directives with special meaning.
type DirectivesConfig struct {
	Hide     []string `yaml:"hide"`     // source is cleared before rendering
	Exec     []string `yaml:"exec"`     // cell always runs before rendering
	HideLine string   `yaml:"hideLine"` // end-of-line marker removing a single line
}

func (c DirectivesConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Hide, validation.Each(validation.Required, validation.Match(identifier), validation.Length(1, MaxNameLength))),
		validation.Field(&c.Exec, validation.Each(validation.Required, validation.Match(identifier), validation.Length(1, MaxNameLength))),
		validation.Field(&c.HideLine, validation.Required, validation.Match(identifier), validation.Length(1, MaxNameLength)),
	)
}

// FrontMatterConfig controls the serialized preamble.
type FrontMatterConfig struct {
	Keys []string `yaml:"keys"` // ordered allow-list
}

func (c FrontMatterConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Keys,
			validation.Required,
			validation.By(containsString("title")),
			validation.Each(validation.Required, validation.Length(1, MaxNameLength)),
		),
	)
}

// OutputConfig controls output sanitizing.
type OutputConfig struct {
	FilterWords []string `yaml:"filterWords"` // lines containing any of these are dropped
	HeaderDash  string   `yaml:"headerDash"`  // "line" or "cell"
}

func (c OutputConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.FilterWords, validation.Each(validation.Required, validation.Length(1, MaxWordLength))),
		validation.Field(&c.HeaderDash, validation.In(HeaderDashLine, HeaderDashCell)),
	)
}

// LanguagesConfig lists the languages a %%lang cell magic may switch to.
type LanguagesConfig struct {
	Embedded []string `yaml:"embedded"`
}

func (c LanguagesConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Embedded, validation.Each(validation.Required, validation.By(knownLexer))),
	)
}

// LinksConfig provides the symbol table used to annotate markdown.
type LinksConfig struct {
	Symbols     map[string]string `yaml:"symbols"`
	SymbolsFile string            `yaml:"symbolsFile"`
}

func (c LinksConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Symbols, validation.Each(validation.Required, validation.Length(1, MaxURLLength))),
		validation.Field(&c.SymbolsFile, validation.Length(0, MaxPathLength)),
	)
}

// ExecutionConfig controls the execution gate.
type ExecutionConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ShowDocFunc string `yaml:"showDocFunc"`
}

func (c ExecutionConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ShowDocFunc, validation.Required, validation.Match(identifier), validation.Length(1, MaxNameLength)),
	)
}

// TemplateConfig selects the markdown rendering template.
type TemplateConfig struct {
	Name     string `yaml:"name"`
	BasePath string `yaml:"basePath"` // empty = embedded templates only
}

func (c TemplateConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, validation.Match(templateName), validation.Length(1, MaxNameLength)),
		validation.Field(&c.BasePath, validation.Length(0, MaxPathLength)),
	)
}

// Validate checks every section. Called automatically by LoadConfig, but
// available for library users who build a Config by hand.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Directives),
		validation.Field(&c.LegacyFlags, validation.Each(validation.Required, validation.Match(identifier), validation.Length(1, MaxNameLength))),
		validation.Field(&c.FrontMatter),
		validation.Field(&c.Output),
		validation.Field(&c.Languages),
		validation.Field(&c.Links),
		validation.Field(&c.Execution),
		validation.Field(&c.Template),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func containsString(want string) validation.RuleFunc {
	return func(value any) error {
		list, _ := value.([]string)
		for _, s := range list {
			if s == want {
				return nil
			}
		}
		return fmt.Errorf("must contain %q", want)
	}
}

func knownLexer(value any) error {
	name, _ := value.(string)
	if lexers.Get(name) == nil {
		return fmt.Errorf("no syntax highlighter for language %q", name)
	}
	return nil
}

// DefaultConfig returns the documentation-rendering defaults.
func DefaultConfig() *Config {
	return &Config{
		Directives: DirectivesConfig{
			Hide:     []string{"export", "exporti", "hide", "default_exp"},
			Exec:     []string{"export", "exports", "exporti", "exec_doc"},
			HideLine: "hide_line",
		},
		LegacyFlags: []string{
			"export", "exports", "exporti", "hide", "hide_input", "hide_output",
			"collapse_input", "collapse_output", "collapse_show", "collapse_hide",
			"notest", "slow", "cuda", "multicuda", "cpp", "default_exp",
		},
		FrontMatter: FrontMatterConfig{
			Keys: []string{
				"title", "description", "author", "image", "categories",
				"output-file", "aliases", "search", "draft", "comments",
			},
		},
		Output: OutputConfig{HeaderDash: HeaderDashLine},
		Languages: LanguagesConfig{
			Embedded: []string{"bash", "html", "javascript", "js", "latex", "markdown", "perl", "ruby", "sh", "svg"},
		},
		Execution: ExecutionConfig{Enabled: true, ShowDocFunc: "show_doc"},
		Template:  TemplateConfig{Name: "markdown"},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Values absent from the file keep their defaults.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-nb2md/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-nb2md", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
