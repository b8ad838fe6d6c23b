// Package formatter provides a pluggable output formatting system.
// Formatters convert records to various output formats (table, json, yaml).
package formatter

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Formatter converts records to a specific output format.
type Formatter interface {
	// Name returns the formatter name (e.g., "table", "json", "yaml").
	Name() string

	// Description returns a human-readable description.
	Description() string

	// FormatList formats a list of records.
	FormatList(w io.Writer, s Schema, records []map[string]any, opts FormatOptions) error

	// FormatRecord formats a single record.
	FormatRecord(w io.Writer, s Schema, record map[string]any, opts FormatOptions) error

	// FormatError formats an error.
	FormatError(w io.Writer, err error) error
}

// Schema names a record type and its columns in display order.
type Schema struct {
	Name   string
	Fields []Field
}

// Field is one column of a record.
type Field struct {
	Name string

	// Hidden fields are left out unless requested by column.
	Hidden bool
}

// Columns returns the visible field names.
func (s Schema) Columns() []string {
	var columns []string
	for _, f := range s.Fields {
		if !f.Hidden {
			columns = append(columns, f.Name)
		}
	}
	return columns
}

// FormatOptions configures formatting behavior.
type FormatOptions struct {
	// Columns specifies which fields to include (nil = all visible).
	Columns []string

	// NoHeader disables header row for tabular formats.
	NoHeader bool

	// Compact minimizes whitespace (json only).
	Compact bool

	// MaxWidth truncates long values in tables (0 = no limit).
	MaxWidth int
}

// project keeps the requested columns, or the visible ones when none are requested.
func project(s Schema, record map[string]any, columns []string) map[string]any {
	if record == nil {
		return nil
	}
	if len(columns) == 0 {
		columns = s.Columns()
	}

	result := make(map[string]any, len(columns))
	for _, col := range columns {
		if val, ok := record[col]; ok {
			result[col] = val
		}
	}
	return result
}

func projectAll(s Schema, records []map[string]any, columns []string) []map[string]any {
	result := make([]map[string]any, len(records))
	for i, record := range records {
		result[i] = project(s, record, columns)
	}
	return result
}

// Registry maps output format names to formatters.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]Formatter
	fallback string
}

// NewRegistry returns an empty registry that resolves "" to fallback.
func NewRegistry(fallback string) *Registry {
	return &Registry{byName: make(map[string]Formatter), fallback: fallback}
}

// Register fails if the name is taken.
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[f.Name()]; taken {
		return fmt.Errorf("formatter %q already registered", f.Name())
	}
	r.byName[f.Name()] = f
	return nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := lo.Keys(r.byName)
	sort.Strings(names)
	return names
}

// Lookup returns the named formatter. An empty name selects the fallback.
func (r *Registry) Lookup(name string) (Formatter, error) {
	if name == "" {
		name = r.fallback
	}

	r.mu.RLock()
	f, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return f, nil
}

// DefaultRegistry holds the built-in formats; table is the fallback.
var DefaultRegistry = NewRegistry("table")

func Register(f Formatter) error { return DefaultRegistry.Register(f) }

func Lookup(name string) (Formatter, error) { return DefaultRegistry.Lookup(name) }

func Names() []string { return DefaultRegistry.Names() }
