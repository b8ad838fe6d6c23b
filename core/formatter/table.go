package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"
)

// TableFormatter prints records as aligned text. Widths are counted in
// terminal cells so wide characters line up.
type TableFormatter struct{}

func NewTableFormatter() *TableFormatter { return &TableFormatter{} }

func (*TableFormatter) Name() string        { return "table" }
func (*TableFormatter) Description() string { return "Aligned text table output" }

// FormatList prints one row per record under an upper-cased header.
func (*TableFormatter) FormatList(w io.Writer, s Schema, records []map[string]any, opts FormatOptions) error {
	if len(records) == 0 {
		_, err := io.WriteString(w, "No records found.\n")
		return err
	}

	columns := pick(s, opts.Columns)
	rows := make([][]string, 0, len(records)+1)
	if !opts.NoHeader {
		rows = append(rows, lo.Map(columns, func(c string, _ int) string { return strings.ToUpper(c) }))
	}
	for _, record := range records {
		rows = append(rows, lo.Map(columns, func(c string, _ int) string {
			return cell(record[c], opts.MaxWidth)
		}))
	}
	return writeAligned(w, rows)
}

// FormatRecord prints one "Label: value" line per column.
func (*TableFormatter) FormatRecord(w io.Writer, s Schema, record map[string]any, opts FormatOptions) error {
	if record == nil {
		_, err := io.WriteString(w, "Record not found.\n")
		return err
	}

	rows := lo.Map(pick(s, opts.Columns), func(c string, _ int) []string {
		return []string{label(c) + ":", cell(record[c], 0)}
	})
	return writeAligned(w, rows)
}

func (*TableFormatter) FormatError(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "Error: %s\n", err)
	return werr
}

func pick(s Schema, columns []string) []string {
	if len(columns) > 0 {
		return columns
	}
	return s.Columns()
}

// writeAligned pads every cell but the last to its column width.
func writeAligned(w io.Writer, rows [][]string) error {
	var widths []int
	for _, row := range rows {
		for i, c := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(c))
		}
	}

	var b strings.Builder
	for _, row := range rows {
		for i, c := range row {
			if i == len(row)-1 {
				b.WriteString(c)
				break
			}
			b.WriteString(runewidth.FillRight(c, widths[i]))
			b.WriteString("  ")
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// label turns snake_case into Title Case.
func label(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// cell renders a value for display, truncated to maxWidth cells when
// maxWidth leaves room for the ellipsis. Missing and empty values show as "-".
func cell(val any, maxWidth int) string {
	var s string
	switch v := val.(type) {
	case nil:
		return "-"
	case string:
		if v == "" {
			return "-"
		}
		s = v
	case bool:
		s = lo.Ternary(v, "yes", "no")
	case int:
		s = strconv.Itoa(v)
	case float64:
		if v == float64(int64(v)) {
			s = strconv.FormatInt(int64(v), 10)
		} else {
			s = strconv.FormatFloat(v, 'f', 2, 64)
		}
	default:
		b, _ := json.Marshal(v)
		s = string(b)
	}

	if maxWidth > 3 && runewidth.StringWidth(s) > maxWidth {
		s = runewidth.Truncate(s, maxWidth, "...")
	}
	return s
}

func init() {
	Register(NewTableFormatter())
}
