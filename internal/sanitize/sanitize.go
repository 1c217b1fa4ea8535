// Package sanitize cleans cell outputs and markdown sources for publication.
// None of these functions fail: malformed input is passed through.
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var ansiEscape = regexp.MustCompile(`\x1B(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

// StripANSI removes terminal escape sequences.
func StripANSI(s string) string {
	if !strings.Contains(s, "\x1b") {
		return s
	}
	return ansiEscape.ReplaceAllString(s, "")
}

// FilterLines drops every line containing one of words. Words are matched
// literally. Empty words are ignored.
func FilterLines(lines []string, words []string) []string {
	words = nonEmpty(words)
	if len(words) == 0 {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if !containsAny(line, words) {
			out = append(out, line)
		}
	}
	return out
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func nonEmpty(words []string) []string {
	out := words[:0:0]
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// EscapeHTML wraps an HTML payload in a fenced html code block so that
// markdown renderers display it instead of interpreting it.
func EscapeHTML(s string) string {
	return "```html\n" + strings.TrimRight(s, "\n") + "\n```"
}

// IsDataFrame reports whether an HTML payload is a rendered data frame:
// it carries a <style scoped> element whose text mentions ".dataframe".
// Such tables are kept as HTML.
func IsDataFrame(s string) bool {
	if !strings.Contains(s, ".dataframe") {
		return false
	}
	z := html.NewTokenizer(strings.NewReader(s))
	inScopedStyle := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken:
			tok := z.Token()
			inScopedStyle = tok.Data == "style" && hasAttr(tok, "scoped")
		case html.EndTagToken:
			inScopedStyle = false
		case html.TextToken:
			if inScopedStyle && strings.Contains(string(z.Text()), ".dataframe") {
				return true
			}
		}
	}
}

func hasAttr(tok html.Token, key string) bool {
	for _, a := range tok.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
