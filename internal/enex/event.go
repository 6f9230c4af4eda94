package enex

import (
	"time"

	"github.com/nao1215/enex2md/internal/model"
)

// EventKind identifies what a completed element represents.
type EventKind int

const (
	// EventResource marks a completed resource element.
	EventResource EventKind = iota + 1

	// EventNote marks a completed note element.
	EventNote
)

// String returns the element name the kind stands for.
func (k EventKind) String() string {
	switch k {
	case EventResource:
		return "resource"
	case EventNote:
		return "note"
	default:
		return "unknown"
	}
}

// Event is one structural event of the archive.
type Event struct {
	// Kind tells which of the fields below are set.
	Kind EventKind

	// Title is the note title (EventNote).
	Title string

	// Content is the raw ENML body of the note (EventNote).
	Content string

	// Created and Updated are the note timestamps, zero when absent (EventNote).
	Created time.Time
	Updated time.Time

	// Tags are the note tags (EventNote).
	Tags []string

	// Resource is the decoded attachment (EventResource).
	Resource model.Resource

	// DecodeErr is set when the resource payload was not valid base64.
	// Resource.Data is empty in that case.
	DecodeErr error
}
