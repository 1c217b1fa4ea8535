package nb2md

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alnah/go-nb2md/internal/assets"
	"github.com/alnah/go-nb2md/internal/config"
	"github.com/alnah/go-nb2md/internal/frontmatter"
	"github.com/alnah/go-nb2md/internal/linkify"
	"github.com/alnah/go-nb2md/internal/pipeline"
	"github.com/alnah/go-nb2md/internal/render"
)

// Converter runs the transformation pipeline and renders the result.
// Create with NewConverter and reuse it across notebooks.
type Converter struct {
	cfg               converterConfig
	publicAssetLoader AssetLoader // from WithAssetLoader
	loader            AssetLoader
	pipeline          *pipeline.Pipeline
	markdown          *render.MarkdownRenderer
	html              *render.HTMLRenderer
}

// NewConverter validates the configuration, loads templates and styles, and
// builds the pipeline. Missing assets are reported here rather than on the
// first conversion.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{}
	for _, opt := range opts {
		opt(c)
	}

	if c.cfg.cfg == nil {
		c.cfg.cfg = config.DefaultConfig()
	}
	if err := c.cfg.cfg.Validate(); err != nil {
		return nil, err
	}
	if c.cfg.logger == nil {
		c.cfg.logger = zap.NewNop()
	}

	links, err := c.loadLinks()
	if err != nil {
		return nil, err
	}

	if err := c.resolveLoader(); err != nil {
		return nil, err
	}
	if err := c.loadRenderers(); err != nil {
		return nil, err
	}

	popts := []pipeline.Option{
		pipeline.WithLogger(c.cfg.logger),
		pipeline.WithLinks(links),
	}
	if c.cfg.factory != nil {
		popts = append(popts, pipeline.WithSessionFactory(c.cfg.factory))
	}
	c.pipeline = pipeline.Default(c.cfg.cfg, popts...)

	return c, nil
}

// Convert transforms in.Notebook in place and renders it.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, in Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if in.Notebook == nil {
		return nil, ErrNilNotebook
	}
	if err := c.pipeline.Run(ctx, in.Notebook); err != nil {
		return nil, err
	}

	md, err := c.markdown.Render(in.Notebook)
	if err != nil {
		return nil, err
	}
	result = &Result{Notebook: in.Notebook, Markdown: md}
	if !in.HTML {
		return result, nil
	}

	page, err := c.html.Render(ctx, render.Input{
		Markdown:  md,
		Title:     c.pageTitle(in),
		SourceDir: in.SourceDir,
		OutputDir: in.OutputDir,
	})
	if err != nil {
		return nil, err
	}
	result.HTML = []byte(page)
	return result, nil
}

// Transform runs the pipeline on nb without rendering it.
func (c *Converter) Transform(ctx context.Context, nb *Notebook) error {
	if nb == nil {
		return ErrNilNotebook
	}
	return c.pipeline.Run(ctx, nb)
}

// Units lists the names of the pipeline units in execution order.
func (c *Converter) Units() []string {
	return c.pipeline.Units()
}

func (c *Converter) pageTitle(in Input) string {
	if _, rec := frontmatter.FindRaw(in.Notebook, zap.NewNop()); rec != nil {
		if title, ok := rec["title"].(string); ok && title != "" {
			return title
		}
	}
	return in.Title
}

// loadLinks merges the symbols file, inline symbols and WithLinks, later
// sources winning.
func (c *Converter) loadLinks() (linkify.Table, error) {
	table := linkify.Table{}
	if path := c.cfg.cfg.Links.SymbolsFile; path != "" {
		loaded, err := linkify.LoadTable(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSymbolsFile, err)
		}
		for k, v := range loaded {
			table[k] = v
		}
	}
	for k, v := range c.cfg.cfg.Links.Symbols {
		table[k] = v
	}
	for k, v := range c.cfg.links {
		table[k] = v
	}
	return table, nil
}

func (c *Converter) resolveLoader() error {
	if c.publicAssetLoader != nil {
		c.loader = c.publicAssetLoader
		return nil
	}
	path := c.cfg.assetPath
	if path == "" {
		path = c.cfg.cfg.Template.BasePath
	}
	loader, err := NewAssetLoader(path)
	if err != nil {
		return err
	}
	if a, ok := loader.(*assetLoaderAdapter); ok && a.resolver.HasCustomLoader() {
		c.cfg.logger.Debug("custom assets enabled", zap.String("path", path))
	}
	c.loader = loader
	return nil
}

func (c *Converter) loadRenderers() error {
	name := c.cfg.templateName
	if name == "" {
		name = c.cfg.cfg.Template.Name
	}
	if name == "" {
		name = DefaultTemplate
	}
	src, err := c.loader.LoadTemplate(name)
	if err != nil {
		return fmt.Errorf("loading template %q: %w", name, err)
	}
	c.markdown, err = render.NewMarkdownRenderer(src)
	if err != nil {
		return fmt.Errorf("template %q: %w", name, err)
	}

	pageSrc, err := c.loader.LoadTemplate(assets.PageTemplateName)
	if err != nil {
		return fmt.Errorf("loading page template: %w", err)
	}
	style := c.cfg.styleName
	if style == "" {
		style = DefaultStyle
	}
	css, err := c.loader.LoadStyle(style)
	if err != nil {
		return fmt.Errorf("loading style %q: %w", style, err)
	}
	c.html, err = render.NewHTMLRenderer(pageSrc, css, c.cfg.highlightStyle)
	if err != nil {
		return fmt.Errorf("page template: %w", err)
	}
	return nil
}
