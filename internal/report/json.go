package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/enex2md/internal/model"
)

// ManifestFileName is the name of the manifest written next to the notes.
const ManifestFileName = "manifest.json"

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(report *model.ExportReport) (int, error) {
	return w.writeJSON(report)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// Manifest is the document stored as ManifestFileName. It maps every note
// and attachment of the export to its file and records the version of the
// converter that produced them.
type Manifest struct {
	// Version is the enex2md version that generated the export.
	Version string `json:"version"`

	// Export is the full export report.
	Export *model.ExportReport `json:"export"`

	// DiagnosticCounts summarizes Export.Diagnostics by kind.
	DiagnosticCounts map[model.DiagnosticKind]int `json:"diagnostic_counts,omitempty"`
}

// NewManifest creates a Manifest for report.
func NewManifest(report *model.ExportReport, version string) *Manifest {
	m := &Manifest{
		Version: version,
		Export:  report,
	}
	if report.HasDiagnostics() {
		m.DiagnosticCounts = report.DiagnosticCounts()
	}
	return m
}

// ManifestWriter outputs reports wrapped in a Manifest.
type ManifestWriter struct {
	*JSONWriter

	// version is the enex2md version string.
	version string
}

// NewManifestWriter creates a writer for manifests.
func NewManifestWriter(output io.Writer, version string, opts ...JSONWriterOption) *ManifestWriter {
	return &ManifestWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the manifest for report.
func (w *ManifestWriter) Write(report *model.ExportReport) (int, error) {
	return w.writeJSON(NewManifest(report, w.version))
}
