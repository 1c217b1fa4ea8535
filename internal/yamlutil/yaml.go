// Package yamlutil wraps YAML parsing to isolate the external dependency.
// Front matter, configuration files and symbol tables all go through it.
package yamlutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

func Unmarshal(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

func Marshal(v any) ([]byte, error) {
	result, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return result, nil
}

// UnmarshalStrict rejects unknown fields in the input.
func UnmarshalStrict(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// MarshalOrdered serializes the entries of m as a block mapping whose keys
// follow the order of keys. Keys missing from m are skipped.
func MarshalOrdered(m map[string]any, keys []string) ([]byte, error) {
	slice := make(yaml.MapSlice, 0, len(keys))
	for _, k := range keys {
		if v, ok := m[k]; ok {
			slice = append(slice, yaml.MapItem{Key: k, Value: v})
		}
	}
	if len(slice) == 0 {
		return nil, nil
	}
	return Marshal(slice)
}

// ParseScalar decodes a single inline YAML value, so that "true" becomes a
// bool and "[a, b]" a list. Empty input yields "".
func ParseScalar(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	var v any
	if err := Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}
