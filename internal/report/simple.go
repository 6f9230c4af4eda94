package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/enex2md/internal/model"
)

// SimpleWriter outputs a human-readable summary for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether empty sections are shown.
	showEmpty bool

	// verbose lists every note and diagnostic instead of counts only.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary.
func (w *SimpleWriter) Write(report *model.ExportReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeNotes(&sb, report)
	w.writeDiagnostics(&sb, report)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the export summary.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ExportReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Archive:      %s\n", report.Archive)
	if report.OutputDir != "" {
		fmt.Fprintf(sb, "Output:       %s\n", report.OutputDir)
	}
	fmt.Fprintf(sb, "Notes:        %d\n", len(report.Notes))
	fmt.Fprintf(sb, "Media files:  %d (%d written, %d already present)\n",
		len(report.Media), report.MediaWritten(), report.MediaSkipped())
	fmt.Fprintf(sb, "Duplicates:   %d\n", report.DuplicateResources)
	fmt.Fprintf(sb, "Duration:     %s\n", report.Duration().Round(1e6))
	fmt.Fprintf(sb, "Status:       %s\n", statusText(report))
}

// writeNotes lists note files in verbose mode.
func (w *SimpleWriter) writeNotes(sb *strings.Builder, report *model.ExportReport) {
	if !w.verbose || (len(report.Notes) == 0 && !w.showEmpty) {
		return
	}

	w.writeSection(sb, "NOTES")
	if len(report.Notes) == 0 {
		sb.WriteString("  No notes written\n")
		return
	}
	for _, n := range report.Notes {
		fmt.Fprintf(sb, "  [+] %s -> %s\n", n.Title, n.File)
	}
}

// writeDiagnostics writes diagnostic counts, and every diagnostic in
// verbose mode.
func (w *SimpleWriter) writeDiagnostics(sb *strings.Builder, report *model.ExportReport) {
	if !report.HasDiagnostics() && !w.showEmpty {
		return
	}

	w.writeSection(sb, "DIAGNOSTICS")
	if !report.HasDiagnostics() {
		sb.WriteString("  No diagnostics\n")
		return
	}

	counts := report.DiagnosticCounts()
	for _, kind := range report.DiagnosticKinds() {
		fmt.Fprintf(sb, "  %-28s %d\n", kind, counts[kind])
	}

	if !w.verbose {
		return
	}
	sb.WriteString("\n")
	for _, d := range report.Diagnostics {
		if d.Note != "" {
			fmt.Fprintf(sb, "  [!] %s (%s): %s\n", d.Kind, d.Note, d.Message)
		} else {
			fmt.Fprintf(sb, "  [!] %s: %s\n", d.Kind, d.Message)
		}
	}
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
}
