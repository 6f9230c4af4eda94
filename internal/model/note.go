package model

import "time"

// Note is one note of the archive.
// Content holds the final Markdown text. Title is the raw title from the archive;
// turning it into a file name is the job of the vault.
type Note struct {
	// Title is the note title as found in the archive.
	Title string `json:"title"`

	// Content is the Markdown rendering of the note body.
	Content string `json:"content"`

	// Created is the creation timestamp, zero if the archive does not carry one.
	Created time.Time `json:"created,omitzero"`

	// Updated is the last modification timestamp, zero if absent.
	Updated time.Time `json:"updated,omitzero"`

	// Tags are the note tags in archive order.
	Tags []string `json:"tags,omitempty"`
}

// Resource is a raw attachment payload.
// MIME and FileName are what the archive declares; they are informational only,
// the registry always sniffs Data itself.
type Resource struct {
	Data     []byte `json:"-"`
	MIME     string `json:"mime,omitempty"`
	FileName string `json:"file_name,omitempty"`
}
