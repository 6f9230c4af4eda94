package media

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MIMEEmpty is reported for zero-length payloads.
const MIMEEmpty = "application/x-empty"

// extensions maps sniffed MIME types to file extensions.
// Anything missing from this table is rejected with ErrUnsupportedMediaType.
var extensions = map[string]string{
	MIMEEmpty:         "txt",
	"image/gif":       "gif",
	"image/jpeg":      "jpeg",
	"image/png":       "png",
	"image/svg":       "svg",
	"image/svg+xml":   "svg",
	"image/x-ms-bmp":  "bmp",
	"image/bmp":       "bmp",
	"application/pdf": "pdf",
}

// Extension returns the file extension for a MIME type.
// Parameters such as "; charset=utf-8" are ignored.
func Extension(mimeType string) (string, bool) {
	ext, ok := extensions[baseType(mimeType)]
	return ext, ok
}

// SupportedTypes returns the MIME types of the extension table.
func SupportedTypes() []string {
	types := make([]string, 0, len(extensions))
	for t := range extensions {
		types = append(types, t)
	}
	return types
}

func baseType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// Detector reports the MIME type of a payload.
type Detector interface {
	Detect(data []byte) string
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(data []byte) string

// Detect calls f(data).
func (f DetectorFunc) Detect(data []byte) string {
	return f(data)
}

// Sniffer detects MIME types from magic numbers.
type Sniffer struct{}

// NewSniffer returns the default Detector.
func NewSniffer() *Sniffer {
	return &Sniffer{}
}

// Detect returns MIMEEmpty for an empty payload and the sniffed type otherwise.
func (s *Sniffer) Detect(data []byte) string {
	if len(data) == 0 {
		return MIMEEmpty
	}
	return baseType(mimetype.Detect(data).String())
}
