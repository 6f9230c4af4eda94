package enml

import "errors"

// ErrUnknownResourceReference is returned when an en-media element names a
// fingerprint that has not been registered.
var ErrUnknownResourceReference = errors.New("unknown resource reference")
