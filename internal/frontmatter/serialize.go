package frontmatter

import (
	"fmt"
	"strings"

	"github.com/alnah/go-nb2md/internal/yamlutil"
)

// alwaysQuoted keys are emitted as double-quoted strings whatever their value.
var alwaysQuoted = map[string]bool{"title": true, "description": true}

// Serialize renders the allow-listed keys of rec, in allow-list order, as a
// fenced YAML block.
func Serialize(rec Record, keys []string) (string, error) {
	var b strings.Builder
	b.WriteString("---\n")
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		line, err := entry(k, v)
		if err != nil {
			return "", fmt.Errorf("serializing front matter key %q: %w", k, err)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("---")
	return b.String(), nil
}

func entry(key string, v any) (string, error) {
	if alwaysQuoted[key] {
		return key + ": " + YAMLString(fmt.Sprint(v)), nil
	}
	switch val := v.(type) {
	case string:
		return key + ": " + quoteIfNeeded(val), nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprintf("%s: %v", key, val), nil
	}
	out, err := yamlutil.MarshalOrdered(map[string]any{key: v}, []string{key})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// YAMLString returns s as a double-quoted YAML string. Strings already
// wrapped in double quotes are returned unchanged.
func YAMLString(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// quoteIfNeeded leaves s plain only when it reads back as the same string.
func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, `"'\`) {
		return YAMLString(s)
	}
	v, err := yamlutil.ParseScalar(s)
	if err != nil {
		return YAMLString(s)
	}
	if str, ok := v.(string); !ok || str != s {
		return YAMLString(s)
	}
	return s
}
