// Package vault stores converted notes and attachments on the local
// filesystem.
//
// A Vault is rooted at the output directory. Notes are written to the root
// as "{slug}.md", where the slug is derived from the NFC-normalized title.
// Attachments are written under the relative paths assigned by the media
// registry, normally "media/{fingerprint}.{ext}".
//
// Attachment files are content addressed, so an existing file is never
// rewritten: PersistResource reports Skipped instead. This makes repeated
// exports into the same directory cheap and safe. Note files are always
// rewritten.
//
// All writes go through a temporary file in the target directory followed by
// a rename, so an interrupted export never leaves a half-written file.
package vault
