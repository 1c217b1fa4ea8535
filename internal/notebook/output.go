package notebook

import "strings"

// OutputType tags the kind of an output.
type OutputType string

// Output types.
const (
	Stream        OutputType = "stream"
	DisplayData   OutputType = "display_data"
	ExecuteResult OutputType = "execute_result"
	Error         OutputType = "error"
)

// Common MIME types.
const (
	MIMEPlain    = "text/plain"
	MIMEHTML     = "text/html"
	MIMEMarkdown = "text/markdown"
)

// Output is one result of executing a code cell.
type Output struct {
	Type           OutputType
	Name           string   // stream name: stdout or stderr
	Text           []string // stream lines, newline-terminated except possibly the last
	Data           map[string]any
	Metadata       map[string]any
	ExecutionCount *int
	EName          string
	EValue         string
	Traceback      []string
}

// NewStream creates a stream output from text, split into lines.
func NewStream(name, text string) *Output {
	return &Output{Type: Stream, Name: name, Text: SplitLines(text)}
}

// NewResult creates an execute_result with a text/plain payload.
func NewResult(text string) *Output {
	return &Output{
		Type:     ExecuteResult,
		Data:     map[string]any{MIMEPlain: text},
		Metadata: map[string]any{},
	}
}

// DataText returns a text payload, joining list payloads.
func (o *Output) DataText(mime string) (string, bool) {
	switch v := o.Data[mime].(type) {
	case string:
		return v, true
	case []string:
		return strings.Join(v, ""), true
	case []any:
		var b strings.Builder
		for _, x := range v {
			s, ok := x.(string)
			if !ok {
				return "", false
			}
			b.WriteString(s)
		}
		return b.String(), true
	}
	return "", false
}

// SetDataText stores a text payload.
func (o *Output) SetDataText(mime, text string) {
	if o.Data == nil {
		o.Data = map[string]any{}
	}
	o.Data[mime] = text
}

// Joined returns the stream text as one string.
func (o *Output) Joined() string { return strings.Join(o.Text, "") }

// SplitLines splits s into lines, keeping the trailing newline of each line.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	for s != "" {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return lines
}
