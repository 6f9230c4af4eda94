package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nao1215/enex2md/internal/enex"
	"github.com/nao1215/enex2md/internal/enml"
	"github.com/nao1215/enex2md/internal/media"
	"github.com/nao1215/enex2md/internal/model"
	"github.com/nao1215/enex2md/internal/vault"
)

// NoteWriter stores a converted note and returns where it was written,
// relative to the output directory. It is called once per note, in archive
// order.
type NoteWriter interface {
	WriteNote(title, markdown string) (string, error)
}

// ResourcePersister stores an attachment under a path assigned by the
// registry. It is called once per distinct fingerprint, and again for a
// fingerprint whose previous call failed. It must report
// vault.Skipped, not fail, when the path already exists.
type ResourcePersister interface {
	PersistResource(relPath string, data []byte) (vault.PersistResult, error)
}

// Pipeline converts one archive. It owns the registry for that archive, so a
// Pipeline must not be reused for a second archive.
type Pipeline struct {
	registry  *media.Registry
	converter *enml.Converter
	notes     NoteWriter
	resources ResourcePersister

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError skips a failing note or attachment instead of
	// aborting the run. A malformed archive always aborts.
	continueOnError bool

	// frontMatter prepends a YAML header with title, dates and tags.
	frontMatter bool

	// exifCheck reports images that carry identifying EXIF tags.
	exifCheck bool

	outputDir string

	// unwritten holds media paths whose persistence failed in this run.
	unwritten map[string]bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to skip notes and attachments
// that fail instead of stopping. Every skipped unit is recorded in the report
// as a diagnostic.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// WithFrontMatter enables a YAML front matter block at the top of every note.
func WithFrontMatter(enabled bool) Option {
	return func(p *Pipeline) {
		p.frontMatter = enabled
	}
}

// WithEXIFCheck enables the inspection of image attachments for EXIF tags
// that reveal location, device serial numbers or owner names.
func WithEXIFCheck(enabled bool) Option {
	return func(p *Pipeline) {
		p.exifCheck = enabled
	}
}

// WithOutputDir sets the output directory recorded in the report.
func WithOutputDir(dir string) Option {
	return func(p *Pipeline) {
		p.outputDir = dir
	}
}

// New creates a Pipeline that registers attachments in registry, writes
// notes through notes and attachments through resources.
func New(registry *media.Registry, notes NoteWriter, resources ResourcePersister, opts ...Option) *Pipeline {
	p := &Pipeline{
		registry:  registry,
		notes:     notes,
		resources: resources,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.registry == nil {
		p.registry = media.NewRegistry(nil)
	}
	p.converter = enml.NewConverter(p.registry, enml.WithLogger(p.logger))

	return p
}

// Registry returns the registry of this run.
func (p *Pipeline) Registry() *media.Registry {
	return p.registry
}

// Execute converts the archive read from r. archive names the input in logs
// and in the report.
//
// Events are handled strictly in archive order: every attachment is
// registered and persisted before the note that contains it is converted.
// The context is checked between events.
//
// The report is returned even when Execute fails; it then describes
// everything written before the failure and carries the error.
func (p *Pipeline) Execute(ctx context.Context, archive string, r io.Reader) (*model.ExportReport, error) {
	report := model.NewExportReport(archive, p.outputDir)
	defer report.Finish()

	p.unwritten = make(map[string]bool)

	fail := func(err error) (*model.ExportReport, error) {
		report.SetError(err)
		p.logger.Error("conversion failed", "archive", archive, "error", err)
		return report, err
	}

	reader, err := enex.NewReader(r)
	if err != nil {
		return fail(err)
	}

	p.logger.Info("converting archive", "archive", archive)

	for ev, err := range reader.All() {
		select {
		case <-ctx.Done():
			p.logger.Warn("conversion cancelled", "archive", archive, "reason", ctx.Err())
			return fail(ctx.Err())
		default:
		}

		if err != nil {
			return fail(err)
		}

		switch ev.Kind {
		case enex.EventResource:
			err = p.handleResource(ev, report)
			if err != nil && p.continueOnError && !isAbort(err) {
				p.logger.Warn("skipping attachment", "archive", archive, "error", err)
				report.AddDiagnostics(model.Diagnostic{
					Kind:    model.DiagnosticSkippedResource,
					Message: err.Error(),
				})
				err = nil
			}

		case enex.EventNote:
			err = p.handleNote(ev, report)
			if err != nil && p.continueOnError && !isAbort(err) {
				p.logger.Warn("skipping note", "archive", archive, "note", ev.Title, "error", err)
				report.AddDiagnostics(model.Diagnostic{
					Kind:    model.DiagnosticSkippedNote,
					Message: err.Error(),
					Note:    ev.Title,
				})
				err = nil
			}
		}

		if err != nil {
			return fail(err)
		}
	}

	p.logger.Info("archive converted",
		"archive", archive,
		"notes", len(report.Notes),
		"media", len(report.Media),
		"duplicates", report.DuplicateResources,
		"diagnostics", len(report.Diagnostics),
	)

	return report, nil
}

// isAbort reports errors that end a run regardless of WithContinueOnError.
func isAbort(err error) bool {
	return errors.Is(err, enex.ErrMalformedArchive) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (p *Pipeline) handleResource(ev enex.Event, report *model.ExportReport) error {
	res := ev.Resource

	if ev.DecodeErr != nil {
		p.logger.Warn("attachment payload is not valid base64, treating it as empty",
			"file_name", res.FileName,
			"error", ev.DecodeErr,
		)
		report.AddDiagnostics(model.Diagnostic{
			Kind:    model.DiagnosticInvalidPayload,
			Message: describeResource(res) + ": " + ev.DecodeErr.Error(),
		})
	}

	rec, created, err := p.registry.Register(res.Data)
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", describeResource(res), err)
	}
	// A fingerprint whose file could not be written is persisted again
	// when the same payload shows up later.
	if !created && !p.unwritten[rec.RelativePath] {
		report.DuplicateResources++
		p.logger.Debug("duplicate attachment", "fingerprint", rec.Fingerprint, "path", rec.RelativePath)
		return nil
	}

	result, err := p.resources.PersistResource(rec.RelativePath, res.Data)
	if err != nil {
		p.unwritten[rec.RelativePath] = true
		return fmt.Errorf("failed to persist %s: %w", rec.RelativePath, err)
	}
	delete(p.unwritten, rec.RelativePath)
	p.logger.Debug("attachment stored", "path", rec.RelativePath, "result", result)

	report.AddMedia(model.MediaEntry{
		Fingerprint: rec.Fingerprint,
		Path:        rec.RelativePath,
		MIME:        rec.MIME,
		Size:        rec.Size,
		Checksum:    rec.Checksum,
		Written:     result == vault.Written,
	})

	if p.exifCheck && media.HasEXIFSupport(rec.MIME) {
		if tags := media.InspectEXIF(res.Data); len(tags) > 0 {
			p.logger.Warn("attachment carries identifying EXIF metadata", "path", rec.RelativePath, "tags", tags)
			report.AddDiagnostics(model.Diagnostic{
				Kind:    model.DiagnosticSensitiveMetadata,
				Message: rec.RelativePath + " carries EXIF tags " + strings.Join(tags, ", "),
			})
		}
	}

	return nil
}

func (p *Pipeline) handleNote(ev enex.Event, report *model.ExportReport) error {
	result, err := p.converter.Convert(ev.Content)
	if err != nil {
		return fmt.Errorf("failed to convert note %q: %w", ev.Title, err)
	}

	for _, d := range result.Diagnostics {
		d.Note = ev.Title
		report.AddDiagnostics(d)
	}
	for _, path := range result.Media {
		if p.unwritten[path] {
			p.logger.Warn("note links to an attachment that was not written", "title", ev.Title, "path", path)
			report.AddDiagnostics(model.Diagnostic{
				Kind:    model.DiagnosticSkippedResource,
				Message: "links to " + path + ", which was not written",
				Note:    ev.Title,
			})
		}
	}

	note := model.Note{
		Title:   ev.Title,
		Content: result.Markdown,
		Created: ev.Created,
		Updated: ev.Updated,
		Tags:    ev.Tags,
	}

	body := note.Content
	if p.frontMatter {
		header, err := renderFrontMatter(note)
		if err != nil {
			return fmt.Errorf("failed to render front matter for %q: %w", ev.Title, err)
		}
		body = header + body
	}

	file, err := p.notes.WriteNote(note.Title, body)
	if err != nil {
		return fmt.Errorf("failed to write note %q: %w", note.Title, err)
	}
	p.logger.Info("note written", "title", note.Title, "file", file)

	report.AddNote(model.NoteEntry{
		Title: note.Title,
		File:  file,
		Media: len(result.Media),
	})
	return nil
}

func describeResource(res model.Resource) string {
	if res.FileName != "" {
		return fmt.Sprintf("attachment %q", res.FileName)
	}
	return "attachment"
}
