package render

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-nb2md/internal/fileutil"
)

// RelocatePaths rewrites relative links of an HTML fragment for a page
// written to outputDir from a notebook in sourceDir:
//   - img[src] and a[href] are made relative to outputDir
//   - a[href] pointing at a notebook is redirected to its .html page
//
// Paths escaping sourceDir, absolute paths and URLs are left alone. When
// either directory is empty only the notebook links are rewritten.
func RelocatePaths(fragment, sourceDir, outputDir string) (string, error) {
	var absSource, absOutput string
	if sourceDir != "" && outputDir != "" {
		var err error
		if absSource, err = filepath.Abs(sourceDir); err != nil {
			return "", err
		}
		if absOutput, err = filepath.Abs(outputDir); err != nil {
			return "", err
		}
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for _, n := range nodes {
		relocateNode(n, absSource, absOutput)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func relocateNode(n *html.Node, sourceDir, outputDir string) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Img:
			relocateAttr(n, "src", sourceDir, outputDir, false)
		case atom.A:
			relocateAttr(n, "href", sourceDir, outputDir, true)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		relocateNode(c, sourceDir, outputDir)
	}
}

func relocateAttr(n *html.Node, key, sourceDir, outputDir string, link bool) {
	for i, attr := range n.Attr {
		if attr.Key != key || !isRelativePath(attr.Val) {
			continue
		}

		p, suffix := splitSuffix(attr.Val)
		if link && fileutil.IsNotebook(p) {
			p = fileutil.ReplaceExt(p, ".html")
		}

		if sourceDir != "" && sourceDir != outputDir {
			abs := filepath.Join(sourceDir, filepath.FromSlash(p))
			if isPathUnderDir(abs, sourceDir) {
				if rel, err := filepath.Rel(outputDir, abs); err == nil {
					p = filepath.ToSlash(rel)
				}
			}
		}
		n.Attr[i].Val = p + suffix
	}
}

// splitSuffix separates a path from its query or fragment.
func splitSuffix(ref string) (string, string) {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}

// isRelativePath returns true if the reference is a local relative path.
func isRelativePath(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "/") {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return false
	}
	return !filepath.IsAbs(ref)
}

// isPathUnderDir checks if absPath is under dir.
func isPathUnderDir(absPath, dir string) bool {
	cleanDir := filepath.Clean(dir)
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(filepath.Clean(absPath)+string(filepath.Separator), cleanDir)
}
