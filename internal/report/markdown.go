package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/enex2md/internal/model"
)

// IndexFileName is the name of the index written next to the notes.
const IndexFileName = "index.md"

// MarkdownWriter outputs an index of the export in Markdown format.
// Note links are relative to the output directory, so the index is meant to
// be written there as IndexFileName.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the index.
func (w *MarkdownWriter) Write(report *model.ExportReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeAlert(md, report)
	w.writeNotes(md, report)
	w.writeMedia(md, report)
	w.writeDiagnostics(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and the export summary table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ExportReport) {
	md.H1(filepath.Base(report.Archive))
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Archive", markdown.Code(report.Archive)},
			{"Exported", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Notes", strconv.Itoa(len(report.Notes))},
			{"Media Files", fmt.Sprintf("%d (%d written, %d already present)",
				len(report.Media), report.MediaWritten(), report.MediaSkipped())},
			{"Duplicate Attachments", strconv.Itoa(report.DuplicateResources)},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")
}

// writeAlert writes an alert that matches the outcome of the export.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.ExportReport) {
	switch {
	case !report.Succeeded():
		md.Cautionf("The export stopped early: %s", escapeCell(report.ErrorMessage))
	case report.DiagnosticCounts()[model.DiagnosticSkippedNote] > 0:
		md.Warningf("%d note(s) could not be converted and were skipped.",
			report.DiagnosticCounts()[model.DiagnosticSkippedNote])
	case report.HasDiagnostics():
		md.Importantf("%d diagnostic(s) were recorded. Some content may be incomplete.", len(report.Diagnostics))
	default:
		md.Tip("All notes were converted without issues.")
	}
	md.PlainText("")
}

// writeNotes writes a table linking every note file.
func (w *MarkdownWriter) writeNotes(md *markdown.Markdown, report *model.ExportReport) {
	md.H2("Notes")
	md.PlainText("")

	if len(report.Notes) == 0 {
		md.PlainText("No notes were written.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Notes))
	for i, n := range report.Notes {
		rows[i] = []string{
			markdown.Link(escapeLinkText(titleOrFile(n)), n.File),
			markdown.Code(n.File),
			strconv.Itoa(n.Media),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Title", "File", "Media"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeMedia writes the attachment table and a chart of media types.
func (w *MarkdownWriter) writeMedia(md *markdown.Markdown, report *model.ExportReport) {
	if len(report.Media) == 0 {
		return
	}

	md.H2("Media")
	md.PlainText("")

	rows := make([][]string, len(report.Media))
	byType := make(map[string]uint64)
	types := make([]string, 0)
	for i, m := range report.Media {
		rows[i] = []string{
			markdown.Link(filepath.Base(m.Path), m.Path),
			m.MIME,
			formatSize(m.Size),
			markdown.Code(truncateString(m.Checksum, 16)),
		}
		if byType[m.MIME] == 0 {
			types = append(types, m.MIME)
		}
		byType[m.MIME]++
	}
	md.Table(markdown.TableSet{
		Header: []string{"File", "Type", "Size", "SHA3-256"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(types) > 1 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Media Types"),
			piechart.WithShowData(true),
		)
		for _, t := range types {
			chart.LabelAndIntValue(t, byType[t])
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
}

// writeDiagnostics writes every recorded diagnostic.
func (w *MarkdownWriter) writeDiagnostics(md *markdown.Markdown, report *model.ExportReport) {
	if !report.HasDiagnostics() {
		return
	}

	md.H2("Diagnostics")
	md.PlainText("")

	rows := make([][]string, len(report.Diagnostics))
	for i, d := range report.Diagnostics {
		note := d.Note
		if note == "" {
			note = "-"
		}
		rows[i] = []string{
			markdown.Code(string(d.Kind)),
			escapeCell(note),
			escapeCell(truncateString(d.Message, 120)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Note", "Message"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Generated by [enex2md](https://github.com/nao1215/enex2md)*")
}

func titleOrFile(n model.NoteEntry) string {
	if strings.TrimSpace(n.Title) == "" {
		return n.File
	}
	return n.Title
}

// escapeCell makes text safe inside a table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// escapeLinkText makes text safe as link text inside a table cell.
func escapeLinkText(s string) string {
	s = strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
	return escapeCell(s)
}

// formatSize renders a byte count for humans.
func formatSize(n int) string {
	const unit = 1024
	if n < unit {
		return strconv.Itoa(n) + " B"
	}
	div, exp := unit, 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
