package localization

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Exporter writes a bundle in some format.
type Exporter interface {
	Export(ctx context.Context, b *Bundle, w io.Writer) error
}

// ExportError reports a failed export.
type ExportError struct {
	Format  string
	Entries int
	Cause   error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("localization export failed [format=%s, entries=%d]: %v", e.Format, e.Entries, e.Cause)
}

func (e *ExportError) Unwrap() error { return e.Cause }

// NewExporter returns the exporter for a format name: json, yaml or csv.
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONExporter(true), nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "csv":
		return NewCSVExporter(true), nil
	}
	return nil, fmt.Errorf("unsupported localization format %q (valid: json, yaml, csv)", format)
}

// JSONExporter writes the whole bundle as one JSON object.
type JSONExporter struct {
	// Pretty enables indentation.
	Pretty bool
}

func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

func (e *JSONExporter) Export(ctx context.Context, b *Bundle, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(b); err != nil {
		return &ExportError{Format: "json", Entries: len(b.Entries()), Cause: err}
	}
	return nil
}

// YAMLExporter writes the whole bundle as one YAML document.
type YAMLExporter struct{}

func (e *YAMLExporter) Export(ctx context.Context, b *Bundle, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return &ExportError{Format: "yaml", Entries: len(b.Entries()), Cause: err}
	}
	if err := enc.Close(); err != nil {
		return &ExportError{Format: "yaml", Entries: len(b.Entries()), Cause: err}
	}
	return nil
}

// CSVExporter writes one row per entry: id, kind, text.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

func (e *CSVExporter) Export(ctx context.Context, b *Bundle, w io.Writer) error {
	entries := b.Entries()
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write([]string{"id", "kind", "text"}); err != nil {
			return &ExportError{Format: "csv", Entries: len(entries), Cause: err}
		}
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.Write([]string{entry.ID, string(entry.Kind), entry.Text}); err != nil {
			return &ExportError{Format: "csv", Entries: len(entries), Cause: err}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return &ExportError{Format: "csv", Entries: len(entries), Cause: err}
	}
	return nil
}
