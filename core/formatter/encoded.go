package formatter

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// document is the envelope of the json and yaml output.
type document struct {
	Type  string `json:"type" yaml:"type"`
	Count *int   `json:"count,omitempty" yaml:"count,omitempty"`
	Data  any    `json:"data" yaml:"data"`
}

type errorDocument struct {
	Error string `json:"error" yaml:"error"`
}

// EncodedFormatter writes records through a structured encoder.
type EncodedFormatter struct {
	name, description string
	encode            func(w io.Writer, v any, compact bool) error
}

// NewJSONFormatter writes indented JSON, or one line per document with
// FormatOptions.Compact.
func NewJSONFormatter() *EncodedFormatter {
	return &EncodedFormatter{
		name:        "json",
		description: "JSON output format",
		encode: func(w io.Writer, v any, compact bool) error {
			enc := json.NewEncoder(w)
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(v)
		},
	}
}

// NewYAMLFormatter writes YAML. Compact has no effect.
func NewYAMLFormatter() *EncodedFormatter {
	return &EncodedFormatter{
		name:        "yaml",
		description: "YAML output format",
		encode: func(w io.Writer, v any, _ bool) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(v); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func (f *EncodedFormatter) Name() string        { return f.name }
func (f *EncodedFormatter) Description() string { return f.description }

func (f *EncodedFormatter) FormatList(w io.Writer, s Schema, records []map[string]any, opts FormatOptions) error {
	data := projectAll(s, records, opts.Columns)
	n := len(data)
	return f.encode(w, document{Type: s.Name, Count: &n, Data: data}, opts.Compact)
}

func (f *EncodedFormatter) FormatRecord(w io.Writer, s Schema, record map[string]any, opts FormatOptions) error {
	return f.encode(w, document{Type: s.Name, Data: project(s, record, opts.Columns)}, opts.Compact)
}

func (f *EncodedFormatter) FormatError(w io.Writer, err error) error {
	return f.encode(w, errorDocument{Error: err.Error()}, false)
}

func init() {
	Register(NewJSONFormatter())
	Register(NewYAMLFormatter())
}
