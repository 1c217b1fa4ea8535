package pipeline

import (
	"go.uber.org/zap"

	"github.com/alnah/go-nb2md/internal/config"
	"github.com/alnah/go-nb2md/internal/execgate"
	"github.com/alnah/go-nb2md/internal/linkify"
	"github.com/alnah/go-nb2md/internal/syntax"
)

// Option configures the pipeline built by Default.
type Option func(*defaultOptions)

type defaultOptions struct {
	logger  *zap.Logger
	links   linkify.Lookup
	factory execgate.Factory
}

// WithLogger sets the logger shared by every unit.
func WithLogger(l *zap.Logger) Option {
	return func(o *defaultOptions) { o.logger = l }
}

// WithLinks sets the symbol table used by add_links.
func WithLinks(l linkify.Lookup) Option {
	return func(o *defaultOptions) { o.links = l }
}

// WithSessionFactory replaces the session backend of exec_show_docs.
func WithSessionFactory(f execgate.Factory) Option {
	return func(o *defaultOptions) { o.factory = f }
}

// Default builds the documentation-rendering pipeline for cfg.
func Default(cfg *config.Config, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	o := defaultOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	factory := o.factory
	if !cfg.Execution.Enabled {
		factory = nil
	} else if factory == nil {
		factory = execgate.DefaultFactory(cfg.Execution.ShowDocFunc)
	}
	gate := execgate.New(factory,
		execgate.WithClassifier(syntax.NewClassifier(cfg.Execution.ShowDocFunc)),
		execgate.WithExecDirectives(cfg.Directives.Exec),
		execgate.WithLogger(o.logger),
	)

	st := State{Config: cfg, Logger: o.logger, Links: o.links, Gate: gate}
	return New(st,
		DocUnit("populate_language", populateLanguage),
		DocUnit("nbflags", nbFlags),
		CellUnit("inject_meta", injectMeta),
		CellUnit("lang_identify", langIdentify(cfg.Languages.Embedded)),
		CellUnit("bash_identify", bashIdentify),
		CellUnit("clean_magics", cleanMagics),
		CellUnit("update_tags", updateTags),
		DocUnit("infer_frontmatter", inferFrontMatter),
		DocUnit("add_show_docs", addShowDocs),
		DocUnit("exec_show_docs", execShowDocs),
		DocUnit("insert_warning", insertWarning),
		CellUnit("clean_flags", cleanFlags(cfg.LegacyFlags)),
		CellUnit("hide_line", hideLine(cfg.Directives.HideLine)),
		CellUnit("rm_export", rmExport),
		CellUnit("visibility", visibility),
		CellUnit("clean_directives", cleanDirectives),
		CellUnit("clean_show_doc", cleanShowDoc),
		DocUnit("rm_empty_code", rmEmptyCode),
		CellUnit("strip_ansi", stripANSI),
		CellUnit("filter_stream", filterStream),
		CellUnit("html_escape", htmlEscape),
		CellUnit("rm_header_dash", rmHeaderDash),
		CellUnit("add_links", addLinks),
		CellUnit("strip_hidden_metadata", stripHiddenMetadata),
	)
}
