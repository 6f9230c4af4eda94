package model

// DiagnosticKind classifies a non-fatal issue found during a conversion.
type DiagnosticKind string

const (
	// DiagnosticUnsupportedFeature is reported for content the converter
	// deliberately does not render, such as encrypted sections.
	DiagnosticUnsupportedFeature DiagnosticKind = "unsupported_feature"

	// DiagnosticMalformedContent is reported when a note body contains markup
	// that could not be parsed cleanly. The rest of the note is still rendered.
	DiagnosticMalformedContent DiagnosticKind = "malformed_content_fragment"

	// DiagnosticInvalidPayload is reported when an attachment payload is not
	// valid base64 and was treated as empty.
	DiagnosticInvalidPayload DiagnosticKind = "invalid_payload"

	// DiagnosticSensitiveMetadata is reported when an image attachment carries
	// EXIF tags that may identify a person or place.
	DiagnosticSensitiveMetadata DiagnosticKind = "sensitive_metadata"

	// DiagnosticSkippedNote is reported when a note failed and the pipeline
	// was configured to continue.
	DiagnosticSkippedNote DiagnosticKind = "skipped_note"

	// DiagnosticSkippedResource is reported when an attachment failed and the
	// pipeline was configured to continue.
	DiagnosticSkippedResource DiagnosticKind = "skipped_resource"
)

// Diagnostic is a non-fatal issue. It never aborts a conversion.
type Diagnostic struct {
	// Kind classifies the issue.
	Kind DiagnosticKind `json:"kind"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Note is the title of the note the issue belongs to, if any.
	Note string `json:"note,omitempty"`
}
