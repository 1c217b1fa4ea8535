package notebook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Sentinel errors for the ipynb codec.
var (
	ErrDecode            = errors.New("invalid notebook document")
	ErrUnsupportedFormat = errors.New("unsupported nbformat version")
)

// multiline is an nbformat text field: a string or a list of chunks. Either
// form is normalized to one element per line.
type multiline []string

func (m *multiline) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = SplitLines(s)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(b, &lines); err != nil {
		return err
	}
	*m = SplitLines(strings.Join(lines, ""))
	return nil
}

func (m multiline) String() string { return strings.Join(m, "") }

type rawNotebook struct {
	Cells         []rawCell      `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

type rawCell struct {
	ID             string         `json:"id"`
	CellType       string         `json:"cell_type"`
	Metadata       map[string]any `json:"metadata"`
	Source         multiline      `json:"source"`
	Outputs        []rawOutput    `json:"outputs"`
	ExecutionCount *int           `json:"execution_count"`
	Attachments    map[string]any `json:"attachments"`
}

type rawOutput struct {
	OutputType     string         `json:"output_type"`
	Name           string         `json:"name"`
	Text           multiline      `json:"text"`
	Data           map[string]any `json:"data"`
	Metadata       map[string]any `json:"metadata"`
	ExecutionCount *int           `json:"execution_count"`
	EName          string         `json:"ename"`
	EValue         string         `json:"evalue"`
	Traceback      []string       `json:"traceback"`
}

// Decode reads an nbformat 4 JSON document.
func Decode(r io.Reader) (*Notebook, error) {
	var raw rawNotebook
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if raw.NBFormat != 4 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, raw.NBFormat)
	}

	nb := &Notebook{
		Metadata:      raw.Metadata,
		NBFormat:      raw.NBFormat,
		NBFormatMinor: raw.NBFormatMinor,
	}
	if nb.Metadata == nil {
		nb.Metadata = map[string]any{}
	}

	for i, rc := range raw.Cells {
		typ := CellType(rc.CellType)
		switch typ {
		case Code, Markdown, Raw:
		default:
			return nil, fmt.Errorf("%w: cell %d has unknown type %q", ErrDecode, i, rc.CellType)
		}
		c := &Cell{
			ID:             rc.ID,
			Type:           typ,
			Metadata:       rc.Metadata,
			ExecutionCount: rc.ExecutionCount,
			Attachments:    rc.Attachments,
			source:         rc.Source.String(),
		}
		if c.ID == "" {
			c.ID = NewID()
		}
		if c.Metadata == nil {
			c.Metadata = map[string]any{}
		}
		for _, ro := range rc.Outputs {
			c.Outputs = append(c.Outputs, &Output{
				Type:           OutputType(ro.OutputType),
				Name:           ro.Name,
				Text:           ro.Text,
				Data:           ro.Data,
				Metadata:       ro.Metadata,
				ExecutionCount: ro.ExecutionCount,
				EName:          ro.EName,
				EValue:         ro.EValue,
				Traceback:      ro.Traceback,
			})
		}
		nb.Cells = append(nb.Cells, c)
	}
	return nb, nil
}

// Encode writes nb as indented nbformat 4 JSON. Multi-line text is emitted
// as lists of lines, the way Jupyter writes it.
func Encode(w io.Writer, nb *Notebook) error {
	cells := make([]map[string]any, 0, len(nb.Cells))
	for _, c := range nb.Cells {
		cells = append(cells, encodeCell(c))
	}
	doc := map[string]any{
		"cells":          cells,
		"metadata":       nonNil(nb.Metadata),
		"nbformat":       nb.NBFormat,
		"nbformat_minor": nb.NBFormatMinor,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

func encodeCell(c *Cell) map[string]any {
	m := map[string]any{
		"id":        c.ID,
		"cell_type": string(c.Type),
		"metadata":  nonNil(c.Metadata),
		"source":    lines(SplitLines(c.source)),
	}
	if len(c.Attachments) > 0 {
		m["attachments"] = c.Attachments
	}
	if c.Type != Code {
		return m
	}
	outs := make([]map[string]any, 0, len(c.Outputs))
	for _, o := range c.Outputs {
		outs = append(outs, encodeOutput(o))
	}
	m["outputs"] = outs
	m["execution_count"] = c.ExecutionCount
	return m
}

func encodeOutput(o *Output) map[string]any {
	m := map[string]any{"output_type": string(o.Type)}
	switch o.Type {
	case Stream:
		m["name"] = o.Name
		m["text"] = lines(o.Text)
	case Error:
		m["ename"] = o.EName
		m["evalue"] = o.EValue
		m["traceback"] = lines(o.Traceback)
	default:
		data := make(map[string]any, len(o.Data))
		for mime, v := range o.Data {
			if s, ok := v.(string); ok && strings.HasPrefix(mime, "text/") {
				data[mime] = lines(SplitLines(s))
				continue
			}
			data[mime] = v
		}
		m["data"] = data
		m["metadata"] = nonNil(o.Metadata)
		if o.Type == ExecuteResult {
			m["execution_count"] = o.ExecutionCount
		}
	}
	return m
}

func lines(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
