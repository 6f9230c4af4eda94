// Package media assigns stable, deduplicated paths to note attachments.
//
// Attachments are content-addressed: the path of an attachment is derived
// from the MD5 digest of its bytes (the same digest ENML en-media tags use to
// reference it) and from an extension chosen by sniffing the bytes. Two
// attachments with the same digest are treated as the same file; the bytes
// are never compared.
//
// The Registry only assigns paths and remembers them for the lifetime of one
// conversion run. Writing the bytes to disk is left to the caller.
package media
