package toml

import (
	"fmt"

	"skiff/internal/diag"
	"skiff/internal/source"
)

type parser struct {
	file *source.File
	cur  cursor
	root *Table
	// target receives key/value lines; switched by table headers.
	target *Table
}

// Parse builds the spanned tree for a document. On failure it returns a
// *diag.Diagnostic and no tree; a document is never partially parsed.
func Parse(file *source.File) (*Table, error) {
	p := &parser{
		file: file,
		cur:  newCursor(file),
		root: &Table{explicit: true},
	}
	p.target = p.root
	if err := p.parseDocument(); err != nil {
		return nil, err
	}
	return p.root, nil
}

func (p *parser) errf(span source.Span, format string, args ...any) *diag.Diagnostic {
	return diag.New(diag.CfgParse, span, fmt.Sprintf(format, args...))
}

func (p *parser) parseDocument() error {
	for {
		p.skipTrivia()
		if p.cur.eof() {
			return nil
		}
		if p.cur.peek() == '[' {
			if _, b1, ok := p.cur.peek2(); ok && b1 == '[' {
				if err := p.parseArrayTableHeader(); err != nil {
					return err
				}
			} else if err := p.parseTableHeader(); err != nil {
				return err
			}
			continue
		}
		if err := p.parseKeyValueLine(p.target); err != nil {
			return err
		}
	}
}

// skipTrivia consumes whitespace, newlines, and comments.
func (p *parser) skipTrivia() {
	for !p.cur.eof() {
		switch p.cur.peek() {
		case ' ', '\t', '\r', '\n':
			p.cur.bump()
		case '#':
			p.skipComment()
		default:
			return
		}
	}
}

// skipInlineWS consumes spaces and tabs only, never newlines.
func (p *parser) skipInlineWS() {
	for !p.cur.eof() {
		b := p.cur.peek()
		if b != ' ' && b != '\t' {
			return
		}
		p.cur.bump()
	}
}

func (p *parser) skipComment() {
	for !p.cur.eof() && p.cur.peek() != '\n' {
		p.cur.bump()
	}
}

// expectEndOfLine allows trailing whitespace and a comment, then requires
// a newline or EOF.
func (p *parser) expectEndOfLine(what string) error {
	p.skipInlineWS()
	if p.cur.peek() == '#' {
		p.skipComment()
	}
	if p.cur.eof() || p.cur.eat('\n') {
		return nil
	}
	return p.errf(p.cur.pointSpan(), "expected newline after %s", what)
}

func (p *parser) parseKeyValueLine(tab *Table) error {
	segs, spans, err := p.parseKeyPath()
	if err != nil {
		return err
	}
	p.skipInlineWS()
	if !p.cur.eat('=') {
		return p.errf(p.cur.pointSpan(), "expected '=' after key %q", segs[len(segs)-1])
	}
	p.skipInlineWS()
	val, err := p.parseValue()
	if err != nil {
		return err
	}
	if err := p.insert(tab, segs, spans, val); err != nil {
		return err
	}
	return p.expectEndOfLine("key/value pair")
}

// parseKeyPath reads one dotted key: segments with their individual spans.
func (p *parser) parseKeyPath() ([]string, []source.Span, error) {
	var segs []string
	var spans []source.Span
	for {
		seg, span, err := p.parseKeySegment()
		if err != nil {
			return nil, nil, err
		}
		segs = append(segs, seg)
		spans = append(spans, span)
		p.skipInlineWS()
		if !p.cur.eat('.') {
			return segs, spans, nil
		}
		p.skipInlineWS()
	}
}

func (p *parser) parseKeySegment() (string, source.Span, error) {
	switch b := p.cur.peek(); {
	case b == '"':
		return p.scanBasicString()
	case b == '\'':
		return p.scanLiteralString()
	case isBareKeyByte(b):
		m := p.cur.mark()
		for !p.cur.eof() && isBareKeyByte(p.cur.peek()) {
			p.cur.bump()
		}
		sp := p.cur.spanFrom(m)
		return string(p.file.Content[sp.Start:sp.End]), sp, nil
	default:
		return "", p.cur.pointSpan(), p.errf(p.cur.pointSpan(), "expected key")
	}
}

// insert walks the dotted path, creating implied tables, and places the
// value under the final segment. A final segment that already exists is a
// duplicate-key error pointing back at the previous definition.
func (p *parser) insert(tab *Table, segs []string, spans []source.Span, val *Value) error {
	t := tab
	for i := 0; i < len(segs)-1; i++ {
		entry, ok := t.Entry(segs[i])
		if !ok {
			sub := &Table{}
			t.Entries = append(t.Entries, &Entry{
				Key:     segs[i],
				KeySpan: spans[i],
				Value:   &Value{Kind: KindTable, Span: spans[i], Tab: sub},
			})
			t = sub
			continue
		}
		if entry.Value.Kind != KindTable {
			return p.errf(spans[i], "key %q is already defined as a %s", segs[i], entry.Value.Kind).
				WithNote(entry.KeySpan, "previous definition")
		}
		t = entry.Value.Tab
	}

	last := len(segs) - 1
	if prev, ok := t.Entry(segs[last]); ok {
		return p.errf(spans[last], "key %q is already defined in this table", segs[last]).
			WithNote(prev.KeySpan, "previous definition")
	}
	t.Entries = append(t.Entries, &Entry{Key: segs[last], KeySpan: spans[last], Value: val})
	return nil
}

func (p *parser) parseTableHeader() error {
	m := p.cur.mark()
	p.cur.bump() // '['
	p.skipInlineWS()
	segs, spans, err := p.parseKeyPath()
	if err != nil {
		return err
	}
	p.skipInlineWS()
	if !p.cur.eat(']') {
		return p.errf(p.cur.pointSpan(), "expected ']' to close table header")
	}
	headerSpan := p.cur.spanFrom(m)

	t := p.root
	for i := 0; i < len(segs)-1; i++ {
		var err error
		t, err = p.descend(t, segs[i], spans[i])
		if err != nil {
			return err
		}
	}

	last := len(segs) - 1
	entry, ok := t.Entry(segs[last])
	switch {
	case !ok:
		sub := &Table{explicit: true}
		t.Entries = append(t.Entries, &Entry{
			Key:     segs[last],
			KeySpan: spans[last],
			Value:   &Value{Kind: KindTable, Span: headerSpan, Tab: sub},
		})
		p.target = sub
	case entry.Value.Kind == KindTable && !entry.Value.Tab.explicit:
		entry.Value.Tab.explicit = true
		p.target = entry.Value.Tab
	case entry.Value.Kind == KindTable:
		return p.errf(headerSpan, "table %q is already defined", segs[last]).
			WithNote(entry.KeySpan, "previous definition")
	default:
		return p.errf(spans[last], "key %q is already defined as a %s", segs[last], entry.Value.Kind).
			WithNote(entry.KeySpan, "previous definition")
	}
	return p.expectEndOfLine("table header")
}

func (p *parser) parseArrayTableHeader() error {
	m := p.cur.mark()
	p.cur.bump() // '['
	p.cur.bump() // '['
	p.skipInlineWS()
	segs, spans, err := p.parseKeyPath()
	if err != nil {
		return err
	}
	p.skipInlineWS()
	if !p.cur.eat(']') || !p.cur.eat(']') {
		return p.errf(p.cur.pointSpan(), "expected ']]' to close array table header")
	}
	headerSpan := p.cur.spanFrom(m)

	t := p.root
	for i := 0; i < len(segs)-1; i++ {
		var err error
		t, err = p.descend(t, segs[i], spans[i])
		if err != nil {
			return err
		}
	}

	last := len(segs) - 1
	elem := &Table{explicit: true}
	elemValue := &Value{Kind: KindTable, Span: headerSpan, Tab: elem}
	entry, ok := t.Entry(segs[last])
	switch {
	case !ok:
		t.Entries = append(t.Entries, &Entry{
			Key:     segs[last],
			KeySpan: spans[last],
			Value: &Value{
				Kind:       KindArray,
				Span:       headerSpan,
				Arr:        []*Value{elemValue},
				tableArray: true,
			},
		})
	case entry.Value.Kind == KindArray && entry.Value.tableArray:
		entry.Value.Arr = append(entry.Value.Arr, elemValue)
	default:
		return p.errf(spans[last], "key %q is already defined as a %s", segs[last], entry.Value.Kind).
			WithNote(entry.KeySpan, "previous definition")
	}
	p.target = elem
	return p.expectEndOfLine("table header")
}

// descend follows one header path segment, creating an implied table.
func (p *parser) descend(t *Table, seg string, span source.Span) (*Table, error) {
	entry, ok := t.Entry(seg)
	if !ok {
		sub := &Table{}
		t.Entries = append(t.Entries, &Entry{
			Key:     seg,
			KeySpan: span,
			Value:   &Value{Kind: KindTable, Span: span, Tab: sub},
		})
		return sub, nil
	}
	switch {
	case entry.Value.Kind == KindTable:
		return entry.Value.Tab, nil
	case entry.Value.Kind == KindArray && entry.Value.tableArray:
		// Header paths address the most recent element of an array table.
		return entry.Value.Arr[len(entry.Value.Arr)-1].Tab, nil
	default:
		return nil, p.errf(span, "key %q is already defined as a %s", seg, entry.Value.Kind).
			WithNote(entry.KeySpan, "previous definition")
	}
}

func (p *parser) parseValue() (*Value, error) {
	switch b := p.cur.peek(); {
	case b == '"':
		str, span, err := p.scanBasicString()
		if err != nil {
			return nil, err
		}
		return &Value{Kind: KindString, Span: span, Str: str}, nil
	case b == '\'':
		str, span, err := p.scanLiteralString()
		if err != nil {
			return nil, err
		}
		return &Value{Kind: KindString, Span: span, Str: str}, nil
	case b == '[':
		return p.parseArray()
	case b == '{':
		return p.parseInlineTable()
	case b == 't' || b == 'f':
		return p.scanBool()
	case b == '+' || b == '-' || isDigit(b):
		return p.scanInteger()
	default:
		return nil, p.errf(p.cur.pointSpan(), "expected a value")
	}
}

func (p *parser) parseArray() (*Value, error) {
	m := p.cur.mark()
	p.cur.bump() // '['
	var elems []*Value
	for {
		p.skipTrivia() // arrays may span lines and hold comments
		if p.cur.eof() {
			return nil, p.errf(p.cur.spanFrom(m), "unterminated array")
		}
		if p.cur.eat(']') {
			break
		}
		elem, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		p.skipTrivia()
		if p.cur.eat(',') {
			continue
		}
		if p.cur.eat(']') {
			break
		}
		if p.cur.eof() {
			return nil, p.errf(p.cur.spanFrom(m), "unterminated array")
		}
		return nil, p.errf(p.cur.pointSpan(), "expected ',' or ']' in array")
	}
	return &Value{Kind: KindArray, Span: p.cur.spanFrom(m), Arr: elems}, nil
}

func (p *parser) parseInlineTable() (*Value, error) {
	m := p.cur.mark()
	p.cur.bump() // '{'
	tab := &Table{explicit: true}
	p.skipInlineWS()
	if !p.cur.eat('}') {
		for {
			if p.cur.eof() || p.cur.peek() == '\n' {
				return nil, p.errf(p.cur.spanFrom(m), "unterminated inline table")
			}
			segs, spans, err := p.parseKeyPath()
			if err != nil {
				return nil, err
			}
			p.skipInlineWS()
			if !p.cur.eat('=') {
				return nil, p.errf(p.cur.pointSpan(), "expected '=' after key %q", segs[len(segs)-1])
			}
			p.skipInlineWS()
			val, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			if err := p.insert(tab, segs, spans, val); err != nil {
				return nil, err
			}
			p.skipInlineWS()
			if p.cur.eat(',') {
				p.skipInlineWS()
				continue
			}
			if p.cur.eat('}') {
				break
			}
			return nil, p.errf(p.cur.pointSpan(), "expected ',' or '}' in inline table")
		}
	}
	return &Value{Kind: KindTable, Span: p.cur.spanFrom(m), Tab: tab}, nil
}

func isBareKeyByte(b byte) bool {
	return b == '-' || b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= 'a' && b <= 'z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
