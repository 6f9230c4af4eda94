package enex

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"
	"unicode"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/nao1215/enex2md/internal/model"
)

// noteXPath selects the note elements directly under the root element.
const noteXPath = "/*/note"

// enexTimeLayout is the timestamp format used by Evernote exports.
const enexTimeLayout = "20060102T150405Z"

// Compiled once; xpath expressions are safe for concurrent use.
var (
	titleExpr    = xpath.MustCompile("title")
	contentExpr  = xpath.MustCompile("content")
	createdExpr  = xpath.MustCompile("created")
	updatedExpr  = xpath.MustCompile("updated")
	tagExpr      = xpath.MustCompile("tag")
	resourceExpr = xpath.MustCompile("resource")
	dataExpr     = xpath.MustCompile("data")
	mimeExpr     = xpath.MustCompile("mime")
	fileNameExpr = xpath.MustCompile("resource-attributes/file-name")
)

// Reader produces the events of one archive.
// It is a one-shot, non-restartable sequence and is not safe for concurrent use.
type Reader struct {
	sp      *xmlquery.StreamParser
	pending []Event
	err     error
}

// NewReader creates a Reader over r. Nothing is read until Next is called.
func NewReader(r io.Reader) (*Reader, error) {
	sp, err := xmlquery.CreateStreamParser(r, noteXPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream parser: %w", err)
	}
	return &Reader{sp: sp}, nil
}

// Next returns the next event. It returns io.EOF once the archive is exhausted
// and an error wrapping ErrMalformedArchive if the XML is not well-formed.
// After an error every further call returns the same error.
func (r *Reader) Next() (Event, error) {
	for len(r.pending) == 0 {
		if r.err != nil {
			return Event{}, r.err
		}

		node, err := r.sp.Read()
		if errors.Is(err, io.EOF) {
			r.err = io.EOF
			continue
		}
		if err != nil {
			r.err = fmt.Errorf("%w: %w", ErrMalformedArchive, err)
			continue
		}

		r.pending = noteEvents(node)
	}

	ev := r.pending[0]
	r.pending = r.pending[1:]
	return ev, nil
}

// All returns the remaining events as a range-over-func sequence.
// The sequence ends silently at io.EOF; any other error is yielded once
// and ends the sequence.
func (r *Reader) All() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			ev, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(ev, err) || err != nil {
				return
			}
		}
	}
}

// noteEvents turns a completed note subtree into its resource events
// followed by the note event.
func noteEvents(note *xmlquery.Node) []Event {
	resources := xmlquery.QuerySelectorAll(note, resourceExpr)
	events := make([]Event, 0, len(resources)+1)

	for _, res := range resources {
		events = append(events, resourceEvent(res))
	}

	ev := Event{
		Kind:    EventNote,
		Title:   childText(note, titleExpr),
		Content: childText(note, contentExpr),
		Created: parseTime(childText(note, createdExpr)),
		Updated: parseTime(childText(note, updatedExpr)),
	}
	for _, tag := range xmlquery.QuerySelectorAll(note, tagExpr) {
		if t := strings.TrimSpace(tag.InnerText()); t != "" {
			ev.Tags = append(ev.Tags, t)
		}
	}

	return append(events, ev)
}

func resourceEvent(res *xmlquery.Node) Event {
	data, err := decodePayload(childText(res, dataExpr))
	return Event{
		Kind: EventResource,
		Resource: model.Resource{
			Data:     data,
			MIME:     strings.TrimSpace(childText(res, mimeExpr)),
			FileName: strings.TrimSpace(childText(res, fileNameExpr)),
		},
		DecodeErr: err,
	}
}

// decodePayload decodes a base64 data element. Line breaks and other
// whitespace are ignored. Empty text decodes to empty bytes. Invalid input
// also yields empty bytes, together with an error wrapping ErrInvalidPayload:
// archive producers emit empty or truncated placeholders, and those must not
// abort a conversion.
func decodePayload(text string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	if cleaned == "" {
		return []byte{}, nil
	}

	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return []byte{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return data, nil
}

func childText(n *xmlquery.Node, expr *xpath.Expr) string {
	child := xmlquery.QuerySelector(n, expr)
	if child == nil {
		return ""
	}
	return child.InnerText()
}

func parseTime(s string) time.Time {
	t, err := time.Parse(enexTimeLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}
