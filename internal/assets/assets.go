package assets

// Built-in asset names.
const (
	DefaultTemplateName = "markdown" // notebook rendered as markdown
	PageTemplateName    = "page"     // HTML page wrapping rendered markdown
	DefaultStyleName    = "default"
)

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads a CSS file by name using the default embedded loader.
// The name should not include the .css extension or path components.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// LoadTemplate loads a template by name using the default embedded loader.
// The name should not include the .tmpl extension or path components.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}
