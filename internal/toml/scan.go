package toml

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"skiff/internal/source"
)

// scanBasicString reads a "..."-delimited string, decoding escapes. The
// returned span includes the quotes.
func (p *parser) scanBasicString() (string, source.Span, error) {
	m := p.cur.mark()
	p.cur.bump() // '"'
	if b0, b1, ok := p.cur.peek2(); ok && b0 == '"' && b1 == '"' {
		p.cur.bump()
		p.cur.bump()
		return "", p.cur.spanFrom(m), p.errf(p.cur.spanFrom(m), "multi-line strings are not supported")
	}
	var sb strings.Builder
	for {
		if p.cur.eof() || p.cur.peek() == '\n' {
			return "", p.cur.spanFrom(m), p.errf(p.cur.spanFrom(m), "unterminated string")
		}
		b := p.cur.bump()
		switch b {
		case '"':
			return sb.String(), p.cur.spanFrom(m), nil
		case '\\':
			if err := p.scanEscape(&sb, m); err != nil {
				return "", p.cur.spanFrom(m), err
			}
		default:
			sb.WriteByte(b)
		}
	}
}

func (p *parser) scanEscape(sb *strings.Builder, strStart mark) error {
	if p.cur.eof() {
		return p.errf(p.cur.spanFrom(strStart), "unterminated string")
	}
	em := p.cur.mark()
	switch e := p.cur.bump(); e {
	case 'b':
		sb.WriteByte('\b')
	case 't':
		sb.WriteByte('\t')
	case 'n':
		sb.WriteByte('\n')
	case 'f':
		sb.WriteByte('\f')
	case 'r':
		sb.WriteByte('\r')
	case '"':
		sb.WriteByte('"')
	case '\\':
		sb.WriteByte('\\')
	case 'u':
		return p.scanUnicodeEscape(sb, em, 4)
	case 'U':
		return p.scanUnicodeEscape(sb, em, 8)
	default:
		// Rewind so the span covers backslash and escape byte.
		return p.errf(source.Span{File: p.file.ID, Start: uint32(em) - 1, End: p.cur.off},
			"invalid escape sequence '\\%c'", e)
	}
	return nil
}

func (p *parser) scanUnicodeEscape(sb *strings.Builder, em mark, digits int) error {
	var code rune
	for i := 0; i < digits; i++ {
		b := p.cur.peek()
		var d rune
		switch {
		case b >= '0' && b <= '9':
			d = rune(b - '0')
		case b >= 'a' && b <= 'f':
			d = rune(b-'a') + 10
		case b >= 'A' && b <= 'F':
			d = rune(b-'A') + 10
		default:
			return p.errf(source.Span{File: p.file.ID, Start: uint32(em) - 1, End: p.cur.off},
				"unicode escape needs %d hex digits", digits)
		}
		p.cur.bump()
		code = code<<4 | d
	}
	if !utf8.ValidRune(code) {
		return p.errf(source.Span{File: p.file.ID, Start: uint32(em) - 1, End: p.cur.off},
			"invalid unicode code point in escape")
	}
	sb.WriteRune(code)
	return nil
}

// scanLiteralString reads a '...'-delimited string with no escapes.
func (p *parser) scanLiteralString() (string, source.Span, error) {
	m := p.cur.mark()
	p.cur.bump() // '\''
	content := p.cur.mark()
	for {
		if p.cur.eof() || p.cur.peek() == '\n' {
			return "", p.cur.spanFrom(m), p.errf(p.cur.spanFrom(m), "unterminated string")
		}
		if p.cur.peek() == '\'' {
			str := string(p.file.Content[content:p.cur.mark()])
			p.cur.bump()
			return str, p.cur.spanFrom(m), nil
		}
		p.cur.bump()
	}
}

func (p *parser) scanBool() (*Value, error) {
	m := p.cur.mark()
	for !p.cur.eof() && isBareKeyByte(p.cur.peek()) {
		p.cur.bump()
	}
	sp := p.cur.spanFrom(m)
	switch word := string(p.file.Content[sp.Start:sp.End]); word {
	case "true":
		return &Value{Kind: KindBool, Span: sp, Bool: true}, nil
	case "false":
		return &Value{Kind: KindBool, Span: sp, Bool: false}, nil
	default:
		return nil, p.errf(sp, "expected a value, found %q", word)
	}
}

func (p *parser) scanInteger() (*Value, error) {
	m := p.cur.mark()
	var digits strings.Builder
	if b := p.cur.peek(); b == '+' || b == '-' {
		p.cur.bump()
		if b == '-' {
			digits.WriteByte('-')
		}
	}
	seen := false
	lastUnderscore := false
	for !p.cur.eof() {
		b := p.cur.peek()
		switch {
		case isDigit(b):
			digits.WriteByte(b)
			seen = true
			lastUnderscore = false
		case b == '_':
			if !seen || lastUnderscore {
				return nil, p.errf(p.cur.pointSpan(), "underscores must separate digits")
			}
			lastUnderscore = true
		default:
			goto done
		}
		p.cur.bump()
	}
done:
	sp := p.cur.spanFrom(m)
	if !seen || lastUnderscore {
		return nil, p.errf(sp, "invalid integer literal")
	}
	if b := p.cur.peek(); b == '.' || b == 'e' || b == 'E' {
		return nil, p.errf(sp, "floating point numbers are not supported")
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return nil, p.errf(sp, "integer out of range")
	}
	return &Value{Kind: KindInteger, Span: sp, Int: n}, nil
}
