package enml

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/enex2md/internal/model"
)

// voidElements never have content or an end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

func isVoid(name string) bool {
	return voidElements[name]
}

// document is the result of the tag pass: well-formed HTML for the
// Markdown converter and what was found on the way.
type document struct {
	html        string
	media       []string
	diagnostics []model.Diagnostic
}

// openElement is an element on the tag pass stack. out is the name written
// to the document, which differs from name for promoted table headers.
type openElement struct {
	name string
	out  string
}

// tagPass tokenizes the ENML once. ENML elements are dispatched by kind;
// generic markup is copied through with every element explicitly closed.
type tagPass struct {
	*Converter

	out   strings.Builder
	doc   *document
	stack []openElement

	// crypt is the en-crypt nesting depth; nothing inside is copied.
	crypt int

	// rows counts the rows seen so far in each open table.
	rows []int
}

func (c *Converter) dispatch(content string) (*document, error) {
	p := &tagPass{Converter: c, doc: &document{}}

	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				p.diagnose("tokenizer stopped: %v", err)
			}
			p.closeAll()
			p.doc.html = p.out.String()
			return p.doc, nil

		case html.TextToken:
			if p.crypt == 0 {
				p.out.Write(z.Raw())
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, attrs := readTag(z)
			if err := p.start(name, attrs, tt == html.SelfClosingTagToken); err != nil {
				return nil, err
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			p.end(string(name))

		case html.CommentToken, html.DoctypeToken:
			// The XML declaration is tokenized as a bogus comment.
		}
	}
}

func readTag(z *html.Tokenizer) (string, []html.Attribute) {
	name, hasAttr := z.TagName()
	var attrs []html.Attribute
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		attrs = append(attrs, html.Attribute{Key: string(key), Val: string(val)})
	}
	return string(name), attrs
}

func attrValue(attrs []html.Attribute, key string) string {
	for _, a := range attrs {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func openTag(name string, attrs []html.Attribute) string {
	var sb strings.Builder
	sb.WriteString("<" + name)
	for _, a := range attrs {
		sb.WriteString(" " + a.Key + `="` + html.EscapeString(a.Val) + `"`)
	}
	sb.WriteString(">")
	return sb.String()
}

func (p *tagPass) diagnose(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.logger.Debug("malformed note content", "detail", msg)
	p.doc.diagnostics = append(p.doc.diagnostics, model.Diagnostic{
		Kind:    model.DiagnosticMalformedContent,
		Message: msg,
	})
}

func (p *tagPass) start(name string, attrs []html.Attribute, selfClosing bool) error {
	kind := classify(name)

	if p.crypt > 0 {
		if kind == kindEncrypted && !selfClosing {
			p.crypt++
			p.stack = append(p.stack, openElement{name: name})
		}
		return nil
	}

	switch kind {
	case kindRoot:
		// en-note itself produces nothing.
		if !selfClosing {
			p.stack = append(p.stack, openElement{name: name})
		}

	case kindMedia:
		return p.media(attrs)

	case kindEncrypted:
		p.logger.Warn("encrypted content is not converted", "hint", attrValue(attrs, "hint"))
		p.doc.diagnostics = append(p.doc.diagnostics, model.Diagnostic{
			Kind:    model.DiagnosticUnsupportedFeature,
			Message: "encrypted content was dropped",
		})
		if !selfClosing {
			p.crypt++
			p.stack = append(p.stack, openElement{name: name})
		}

	case kindCheckbox:
		state := "false"
		if checked(attrs) {
			state = "true"
		}
		p.out.WriteString(openTag(tagTodo, []html.Attribute{{Key: attrChecked, Val: state}}) + "</" + tagTodo + ">")

	case kindGeneric:
		p.generic(name, attrs, selfClosing)
	}
	return nil
}

// generic copies a generic start tag. Cells of the first row of a table
// become header cells, so every table gets a header row.
func (p *tagPass) generic(name string, attrs []html.Attribute, selfClosing bool) {
	if isVoid(name) {
		p.out.WriteString(openTag(name, attrs))
		return
	}

	switch name {
	case "table":
		p.rows = append(p.rows, 0)
	case "tr":
		if len(p.rows) > 0 {
			p.rows[len(p.rows)-1]++
		}
	}

	out := name
	if name == "td" && len(p.rows) > 0 && p.rows[len(p.rows)-1] == 1 {
		out = "th"
	}

	p.out.WriteString(openTag(out, attrs))
	if selfClosing {
		p.out.WriteString("</" + out + ">")
		if name == "table" {
			p.rows = p.rows[:len(p.rows)-1]
		}
		return
	}
	p.stack = append(p.stack, openElement{name: name, out: out})
}

// end closes the matching open element. An end tag with no open element of
// that name is ignored. If inner elements are still open they are closed
// first.
func (p *tagPass) end(name string) {
	if p.crypt > 0 {
		if name == tagCrypt {
			p.crypt--
			p.stack = p.stack[:len(p.stack)-1]
		}
		return
	}

	if k := classify(name); k == kindMedia || k == kindCheckbox {
		// Written as complete elements at their start tag.
		return
	}

	idx := -1
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.stack[i].name == name {
			idx = i
			break
		}
	}

	if idx < 0 {
		if name == "br" {
			// </br> is read as <br>, as browsers do.
			p.out.WriteString("<br>")
			return
		}
		p.diagnose("stray end tag </%s>", name)
		return
	}

	if idx != len(p.stack)-1 {
		open := make([]string, 0, len(p.stack)-1-idx)
		for _, e := range p.stack[idx+1:] {
			open = append(open, e.name)
		}
		p.diagnose("end tag </%s> closes unclosed <%s>", name, strings.Join(open, ">, <"))
	}

	p.popTo(idx)
}

// closeAll closes elements left open at the end of the document.
func (p *tagPass) closeAll() {
	if len(p.stack) == 0 {
		return
	}
	names := make([]string, 0, len(p.stack))
	for _, e := range p.stack {
		names = append(names, e.name)
	}
	p.diagnose("unclosed elements at end of content: <%s>", strings.Join(names, ">, <"))

	p.crypt = 0
	p.popTo(0)
}

// popTo closes the elements from the top of the stack down to index idx.
func (p *tagPass) popTo(idx int) {
	for len(p.stack) > idx {
		e := p.stack[len(p.stack)-1]
		p.stack = p.stack[:len(p.stack)-1]

		if e.out == "" {
			// en-note and en-crypt write no tags.
			continue
		}
		p.out.WriteString("</" + e.out + ">")
		if e.name == "table" && len(p.rows) > 0 {
			p.rows = p.rows[:len(p.rows)-1]
		}
	}
}

func (p *tagPass) media(attrs []html.Attribute) error {
	hash := strings.ToLower(strings.TrimSpace(attrValue(attrs, "hash")))
	path, ok := p.resolver.Lookup(hash)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownResourceReference, hash)
	}
	p.doc.media = append(p.doc.media, path)

	p.out.WriteString(openTag(tagMedia, []html.Attribute{
		{Key: attrPath, Val: path},
		{Key: attrTitle, Val: attrValue(attrs, "title")},
	}) + "</" + tagMedia + ">")
	return nil
}
