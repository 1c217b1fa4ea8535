// Package directive extracts comment-form directives from code cell source.
//
// A directive is a leading comment line of the form
//
//	#| name: arg1, arg2
//
// The colon is optional (`#| default_exp core` is accepted) and arguments
// are split on commas and whitespace. Directives are recognized only in the
// leading block of a cell: blank lines may appear between them, and the
// block ends at the first line that is neither blank nor a directive.
package directive

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Map holds the directives of one cell, keyed by name.
// A directive without arguments maps to an empty, non-nil slice.
type Map map[string][]string

// Has reports whether the directive is present.
func (m Map) Has(name string) bool {
	_, ok := m[name]
	return ok
}

// HasAny reports whether any of the given directives is present.
func (m Map) HasAny(names ...string) bool {
	for _, n := range names {
		if m.Has(n) {
			return true
		}
	}
	return false
}

// First returns the first argument of the directive, or "" when absent.
func (m Map) First(name string) string {
	args := m[name]
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// Names returns the directive names in sorted order.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Precompiled patterns.
var (
	// #| name, #| name: args, #| name args, #| name=args
	directiveLine = regexp.MustCompile(`^\s*#\|\s*([A-Za-z_][\w-]*)(?:\s*[:=]?\s*(.*?))?\s*$`)

	argSplit = regexp.MustCompile(`[,\s]+`)
)

// Parse returns the directives found in the leading block of source.
// It never executes or interprets the code that follows.
func Parse(source string) Map {
	m := Map{}
	for _, line := range strings.Split(source, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, args, ok := parseLine(line)
		if !ok {
			break
		}
		if prev, ok := m[name]; ok {
			args = append(prev, args...)
		}
		m[name] = args
	}
	return m
}

// IsDirective reports whether a single line is a directive line.
func IsDirective(line string) bool {
	_, _, ok := parseLine(line)
	return ok
}

func parseLine(line string) (string, []string, bool) {
	match := directiveLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if match == nil {
		return "", nil, false
	}
	return match[1], splitArgs(match[2]), true
}

func splitArgs(raw string) []string {
	args := []string{}
	for _, a := range argSplit.Split(strings.TrimSpace(raw), -1) {
		if a != "" {
			args = append(args, a)
		}
	}
	return args
}

// Strip removes the leading directive block from source, along with the blank
// lines interleaved with it. Code after the block is kept verbatim.
func Strip(source string) string {
	lines := strings.Split(source, "\n")
	i := 0
	sawDirective := false
	for ; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		if !IsDirective(lines[i]) {
			break
		}
		sawDirective = true
	}
	if !sawDirective {
		return source
	}
	return strings.Join(lines[i:], "\n")
}

// FlagStripper removes bare comment flags such as "# hide" or "#export"
// written in the older annotation style. The flags carry no meaning anymore.
type FlagStripper struct {
	pattern *regexp.Regexp
}

// NewFlagStripper compiles the pattern for flags. A nil or empty list yields
// a stripper that keeps every source unchanged.
func NewFlagStripper(flags []string) *FlagStripper {
	if len(flags) == 0 {
		return &FlagStripper{}
	}
	quoted := make([]string, len(flags))
	for i, f := range flags {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return &FlagStripper{pattern: regexp.MustCompile(`^#\s*(?:` + strings.Join(quoted, "|") + `)\s*$`)}
}

// Strip returns source without its flag lines, trimmed when any was removed.
func (f *FlagStripper) Strip(source string) string {
	if f.pattern == nil || source == "" {
		return source
	}
	kept, removed := dropLines(source, f.pattern)
	if !removed {
		return source
	}
	return strings.TrimSpace(kept)
}

// LineHider removes every line ending with the hide marker, e.g.
// `print(secret)  #| hide_line` for a language commented with "#".
type LineHider struct {
	token string

	mu      sync.Mutex
	markers map[string]*regexp.Regexp
}

// NewLineHider compiles the marker for every known comment prefix.
func NewLineHider(token string) *LineHider {
	h := &LineHider{token: token, markers: map[string]*regexp.Regexp{}}
	if token == "" {
		return h
	}
	h.markers[defaultPrefix] = h.compile(defaultPrefix)
	for _, p := range commentPrefixes {
		if _, ok := h.markers[p]; !ok {
			h.markers[p] = h.compile(p)
		}
	}
	return h
}

func (h *LineHider) compile(prefix string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(prefix) + `\|\s*` + regexp.QuoteMeta(h.token) + `\s*$`)
}

func (h *LineHider) marker(prefix string) *regexp.Regexp {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.markers[prefix]
	if !ok {
		m = h.compile(prefix)
		h.markers[prefix] = m
	}
	return m
}

// Hide drops the marked lines of source written with commentPrefix, "#"
// when empty.
func (h *LineHider) Hide(source, commentPrefix string) string {
	if source == "" || h.token == "" || !strings.Contains(source, h.token) {
		return source
	}
	if commentPrefix == "" {
		commentPrefix = defaultPrefix
	}
	kept, removed := dropLines(source, h.marker(commentPrefix))
	if !removed {
		return source
	}
	return kept
}

// dropLines removes the lines of source matching re.
func dropLines(source string, re *regexp.Regexp) (string, bool) {
	lines := strings.Split(source, "\n")
	kept := make([]string, 0, len(lines))
	removed := false
	for _, l := range lines {
		if re.MatchString(strings.TrimRight(l, "\r")) {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n"), removed
}

// ParseMeta splits key=value arguments. Arguments lacking "=" are returned
// in rejected so the caller can warn about them.
func ParseMeta(args []string) (pairs map[string]string, rejected []string) {
	pairs = map[string]string{}
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			rejected = append(rejected, a)
			continue
		}
		pairs[k] = v
	}
	return pairs, rejected
}
