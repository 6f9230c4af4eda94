package enex

import "errors"

var (
	// ErrMalformedArchive is returned when the archive is not well-formed XML.
	// It is fatal: no event is produced for the offending subtree and the
	// reader stops.
	ErrMalformedArchive = errors.New("malformed archive")

	// ErrInvalidPayload is attached to a resource event whose data element is
	// not valid base64. The payload of such an event is empty.
	ErrInvalidPayload = errors.New("invalid base64 payload")
)
