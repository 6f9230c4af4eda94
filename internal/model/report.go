package model

import (
	"sort"
	"time"
)

// NoteEntry records where one note was written.
type NoteEntry struct {
	// Title is the raw note title.
	Title string `json:"title"`

	// File is the path of the Markdown file, relative to the output directory.
	File string `json:"file"`

	// Media is the number of embedded media references in the note.
	Media int `json:"media,omitempty"`
}

// MediaEntry records one distinct attachment.
type MediaEntry struct {
	// Fingerprint is the MD5 hex digest the archive uses to reference the attachment.
	Fingerprint string `json:"fingerprint"`

	// Path is the path of the media file, relative to the output directory.
	Path string `json:"path"`

	// MIME is the sniffed media type.
	MIME string `json:"mime"`

	// Size is the payload size in bytes.
	Size int `json:"size"`

	// Checksum is the SHA3-256 hex digest of the payload.
	Checksum string `json:"checksum"`

	// Written is false when the file already existed and was left untouched.
	Written bool `json:"written"`
}

// ExportReport is the result of converting one archive.
//
// The report is filled in while the pipeline runs, so a failed run still
// carries everything that was handed to the writers before the failure.
type ExportReport struct {
	// Archive is the path (or name) of the converted archive.
	Archive string `json:"archive"`

	// OutputDir is the directory notes were written to.
	OutputDir string `json:"output_dir"`

	// StartedAt is when the conversion started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the conversion ended, successfully or not.
	FinishedAt time.Time `json:"finished_at"`

	// Notes lists the written notes in archive order.
	Notes []NoteEntry `json:"notes"`

	// Media lists the distinct attachments in registration order.
	Media []MediaEntry `json:"media"`

	// DuplicateResources counts attachments whose fingerprint was already registered.
	DuplicateResources int `json:"duplicate_resources"`

	// Diagnostics collects non-fatal issues.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`

	// Error is the fatal error that aborted the conversion, if any.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewExportReport creates an empty report for the given archive.
func NewExportReport(archive, outputDir string) *ExportReport {
	return &ExportReport{
		Archive:     archive,
		OutputDir:   outputDir,
		StartedAt:   time.Now(),
		Notes:       make([]NoteEntry, 0),
		Media:       make([]MediaEntry, 0),
		Diagnostics: make([]Diagnostic, 0),
	}
}

// AddNote records a written note.
func (r *ExportReport) AddNote(entry NoteEntry) {
	r.Notes = append(r.Notes, entry)
}

// AddMedia records a distinct attachment.
func (r *ExportReport) AddMedia(entry MediaEntry) {
	r.Media = append(r.Media, entry)
}

// AddDiagnostics records non-fatal issues.
func (r *ExportReport) AddDiagnostics(diags ...Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, diags...)
}

// SetError records the fatal error of the run.
func (r *ExportReport) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// Finish stamps the end time.
func (r *ExportReport) Finish() {
	r.FinishedAt = time.Now()
}

// Duration returns how long the conversion took.
func (r *ExportReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// MediaWritten counts attachments that were written during this run.
func (r *ExportReport) MediaWritten() int {
	n := 0
	for _, m := range r.Media {
		if m.Written {
			n++
		}
	}
	return n
}

// MediaSkipped counts attachments whose file already existed.
func (r *ExportReport) MediaSkipped() int {
	return len(r.Media) - r.MediaWritten()
}

// HasDiagnostics reports whether any non-fatal issue was recorded.
func (r *ExportReport) HasDiagnostics() bool {
	return len(r.Diagnostics) > 0
}

// DiagnosticCounts returns the number of diagnostics per kind.
func (r *ExportReport) DiagnosticCounts() map[DiagnosticKind]int {
	counts := make(map[DiagnosticKind]int)
	for _, d := range r.Diagnostics {
		counts[d.Kind]++
	}
	return counts
}

// DiagnosticKinds returns the recorded kinds sorted by name.
func (r *ExportReport) DiagnosticKinds() []DiagnosticKind {
	counts := r.DiagnosticCounts()
	kinds := make([]DiagnosticKind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Succeeded reports whether the run finished without a fatal error.
func (r *ExportReport) Succeeded() bool {
	return r.Error == nil && r.ErrorMessage == ""
}
