// Package model defines the core data structures used throughout enex2md.
//
// This package contains the following main types:
//   - Note: A note read from the archive, with its content already converted to Markdown
//   - Resource: A raw attachment payload read from the archive
//   - Diagnostic: A non-fatal issue found while converting an archive
//   - ExportReport: The summary of one archive conversion
//
// Models live in their own package because the reader, the pipeline, the report
// writers and the history database all exchange them.
//
// The models are serializable to JSON for the export manifest and database storage.
package model
