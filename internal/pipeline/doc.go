// Package pipeline drives the conversion of an Evernote archive.
//
// A Pipeline pulls events from an enex.Reader and handles them in archive
// order:
//
//   - an attachment is fingerprinted by the media registry and, the first
//     time its fingerprint is seen, handed to a ResourcePersister
//   - a note body is converted by enml, which resolves en-media references
//     through the same registry, and handed to a NoteWriter
//
// Attachments of a note always close before the note itself, so by the time
// a note is converted all of its references are registered. The converter
// still checks every reference and fails the note if one is missing.
//
// Fatal errors (malformed archive, unsupported media type, unknown resource
// reference, writer failures) stop the run unless WithContinueOnError is
// set, in which case the failing note or attachment is skipped and recorded
// as a diagnostic. A malformed archive always stops the run.
//
// BatchProcessor converts several archives concurrently with errgroup, one
// Pipeline per archive.
package pipeline
