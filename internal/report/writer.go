package report

import (
	"io"

	"github.com/nao1215/enex2md/internal/model"
)

// Writer renders an export report.
type Writer interface {
	// Write renders report and returns the number of bytes produced.
	Write(report *model.ExportReport) (int, error)
}

// MultiWriter renders one report with several Writers in order, e.g. the
// index and the manifest of one output directory.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter returns a MultiWriter over writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write calls every Writer in turn and sums their byte counts.
// The first failing Writer ends the call; later Writers are not run.
func (m *MultiWriter) Write(report *model.ExportReport) (int, error) {
	written := 0
	for _, w := range m.writers {
		n, err := w.Write(report)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// baseWriter holds the destination shared by the concrete writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText returns a one-line status of the export.
func statusText(report *model.ExportReport) string {
	switch {
	case !report.Succeeded():
		return "Failed - " + report.ErrorMessage
	case report.HasDiagnostics():
		return "Complete with diagnostics"
	default:
		return "Complete"
	}
}
