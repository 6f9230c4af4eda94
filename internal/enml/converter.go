package enml

import (
	"fmt"
	"log/slog"
	"strings"

	htmlmd "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"

	"github.com/nao1215/enex2md/internal/model"
)

// ENML element names.
const (
	tagNote  = "en-note"
	tagMedia = "en-media"
	tagCrypt = "en-crypt"
	tagTodo  = "en-todo"
)

// Attributes carried from the tag pass to the Markdown renderers.
const (
	attrPath    = "data-path"
	attrTitle   = "title"
	attrChecked = "checked"
)

// tagKind is the dispatch class of an element.
type tagKind int

const (
	kindGeneric tagKind = iota
	kindRoot
	kindMedia
	kindEncrypted
	kindCheckbox
)

func classify(name string) tagKind {
	switch name {
	case tagNote:
		return kindRoot
	case tagMedia:
		return kindMedia
	case tagCrypt:
		return kindEncrypted
	case tagTodo:
		return kindCheckbox
	default:
		return kindGeneric
	}
}

// Resolver maps an attachment fingerprint to the relative path it was
// stored under.
type Resolver interface {
	Lookup(fingerprint string) (string, bool)
}

// Result is the outcome of converting one note body.
type Result struct {
	// Markdown is the converted text. It ends with a single newline unless
	// it is empty.
	Markdown string

	// Media lists the attachment paths referenced by the note, in order of
	// appearance.
	Media []string

	// Diagnostics lists non-fatal problems found in the markup.
	Diagnostics []model.Diagnostic
}

// Converter turns ENML into Markdown. A Converter holds no per-note state
// and may be shared between goroutines if its Resolver can be.
type Converter struct {
	resolver Resolver
	logger   *slog.Logger
	markdown *htmlmd.Converter
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger used for warnings about dropped content.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// NewConverter creates a Converter that resolves en-media references with
// resolver.
func NewConverter(resolver Resolver, opts ...Option) *Converter {
	c := &Converter{
		resolver: resolver,
		markdown: newMarkdownConverter(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// newMarkdownConverter returns the HTML to Markdown converter used for
// generic markup, with renderers for the ENML elements left in the
// document by the tag pass.
func newMarkdownConverter() *htmlmd.Converter {
	conv := htmlmd.NewConverter(
		htmlmd.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			strikethrough.NewStrikethroughPlugin(),
			table.NewTablePlugin(),
		),
	)
	conv.Register.RendererFor(tagMedia, htmlmd.TagTypeInline, renderMedia, htmlmd.PriorityEarly)
	conv.Register.RendererFor(tagTodo, htmlmd.TagTypeInline, renderCheckbox, htmlmd.PriorityEarly)
	return conv
}

// Convert converts one ENML document. The XML declaration and doctype are
// ignored. An en-media element with an unregistered hash fails the whole
// note with an error wrapping ErrUnknownResourceReference; everything else
// is converted best-effort.
func (c *Converter) Convert(content string) (*Result, error) {
	doc, err := c.dispatch(content)
	if err != nil {
		return nil, err
	}

	md, err := c.markdown.ConvertString(doc.html)
	if err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}

	md = strings.Trim(md, "\n")
	if md != "" {
		md += "\n"
	}

	return &Result{
		Markdown:    md,
		Media:       doc.media,
		Diagnostics: doc.diagnostics,
	}, nil
}

func renderMedia(_ htmlmd.Context, w htmlmd.Writer, n *html.Node) htmlmd.RenderStatus {
	_, _ = w.WriteString("![" + attrValue(n.Attr, attrTitle) + "](" + attrValue(n.Attr, attrPath) + ")")
	return htmlmd.RenderSuccess
}

func renderCheckbox(_ htmlmd.Context, w htmlmd.Writer, n *html.Node) htmlmd.RenderStatus {
	if attrValue(n.Attr, attrChecked) == "true" {
		_, _ = w.WriteString("[x]")
	} else {
		_, _ = w.WriteString("[ ]")
	}
	return htmlmd.RenderSuccess
}

// checked reports whether an en-todo is ticked: the attribute is present
// and not "false".
func checked(attrs []html.Attribute) bool {
	for _, a := range attrs {
		if a.Key == attrChecked {
			return !strings.EqualFold(strings.TrimSpace(a.Val), "false")
		}
	}
	return false
}
