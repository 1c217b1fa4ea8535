// Package nb2md turns Jupyter notebooks into publishable markdown, and
// optionally into standalone HTML pages.
//
// # Quick Start
//
// Decode a notebook, create a converter, and convert:
//
//	nb, err := nb2md.Decode(file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	conv, err := nb2md.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := conv.Convert(ctx, nb2md.Input{Notebook: nb})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("index.md", []byte(result.Markdown), 0644)
//
// Set Input.HTML to also get a page rendered with goldmark and chroma.
//
// # Conversion Pipeline
//
// The notebook goes through an ordered list of transformations:
//
//  1. Preparation: cell languages, inline metadata, magics and tags
//  2. Front matter inferred from a raw YAML cell or the title cell
//  3. Documentation cells for exported definitions, executed when the
//     notebook language has an execution backend
//  4. Cleaning: hidden cells, directive comments, empty code cells
//  5. Output sanitizing: ANSI codes, filtered stream lines, escaped HTML,
//     symbol links
//
// The pipeline is idempotent: converting an already converted notebook
// yields the same document.
//
// # Directives
//
// Cells are annotated with leading comment lines such as
//
//	#| export
//	#| hide_input
//	#| eval: false
//
// The directive block is removed from the published document.
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	conv, err := nb2md.NewConverter(
//	    nb2md.WithConfig(cfg),
//	    nb2md.WithLogger(logger),
//	    nb2md.WithTemplate("compact"),
//	    nb2md.WithAssetPath("/path/to/custom/assets"),
//	)
//
// # Custom Assets
//
// WithAssetPath points at a directory holding templates/{name}.tmpl and
// styles/{name}.css. Missing files fall back to the embedded defaults.
//
// # Execution
//
// Go notebooks are executed in-process with yaegi. Other languages keep the
// outputs stored in the notebook. Provide WithSessionFactory to plug in
// another backend.
//
// # Thread Safety
//
// A Converter holds no per-conversion state and may be used from several
// goroutines at once.
package nb2md
