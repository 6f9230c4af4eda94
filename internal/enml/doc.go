// Package enml converts ENML note bodies to Markdown.
//
// ENML is XHTML with a small closed set of extra elements. A single
// tokenizer pass classifies every start and end tag into one of five kinds
// and dispatches it explicitly:
//
//	en-note   root, produces no output
//	en-media  ![title](path) using the fingerprint in the hash attribute
//	en-crypt  dropped, together with its cipher text
//	en-todo   [x] or [ ]
//	other     generic HTML, copied through
//
// The pass also reports malformed markup and closes every element
// explicitly, so self-closing XHTML tags such as <div/> keep their meaning.
// The resulting HTML is rendered by html-to-markdown, with renderers for
// the en-media and en-todo elements the pass leaves in place.
//
// Attachment paths come from a Resolver, normally a *media.Registry. A
// reference to a fingerprint the Resolver does not know is an error: the
// caller must register every attachment of a note before converting it.
//
// Markup problems that do not prevent conversion, such as a stray end tag,
// are returned as diagnostics alongside the Markdown.
package enml
