// Package report renders the result of an export.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable summary for the terminal
//   - JSONWriter: the export report as JSON
//   - ManifestWriter: the JSON manifest stored next to the notes
//   - MarkdownWriter: an index.md linking every converted note
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
