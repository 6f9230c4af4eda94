// Package enex streams Evernote export archives (.enex).
//
// An archive is a single XML document:
//
//	<en-export>
//	  <note>
//	    <title>...</title>
//	    <content><![CDATA[ ...ENML... ]]></content>
//	    <resource><data encoding="base64">...</data></resource>
//	  </note>
//	</en-export>
//
// Reader pulls one note subtree at a time with an xmlquery stream parser, so
// the archive is never fully materialized; a subtree is released as soon as
// the next one is requested. Each note yields its resource events first, in
// document order, followed by the note event itself. This is the order in
// which the elements close, and callers rely on it: every attachment of a
// note is seen before the note body that references it.
//
// The content element is passed through as opaque text. Converting ENML is
// the job of package enml.
package enex
