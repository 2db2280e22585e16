package toml

import (
	"fmt"

	"fortio.org/safecast"

	"skiff/internal/source"
)

// cursor is a byte-level position in a document.
type cursor struct {
	file  *source.File
	off   uint32
	limit uint32 // exclusive upper bound, len(file.Content)
}

func newCursor(f *source.File) cursor {
	limit, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return cursor{file: f, off: 0, limit: limit}
}

func (c *cursor) eof() bool {
	return c.off >= c.limit
}

// peek reads the current byte, or 0 at EOF.
func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.file.Content[c.off]
}

// peek2 reads the current and next byte.
func (c *cursor) peek2() (b0, b1 byte, ok bool) {
	if c.off+1 >= c.limit {
		return 0, 0, false
	}
	return c.file.Content[c.off], c.file.Content[c.off+1], true
}

// bump advances one byte and returns the byte read.
func (c *cursor) bump() byte {
	if c.eof() {
		return 0
	}
	b := c.file.Content[c.off]
	c.off++
	return b
}

// eat consumes the next byte if it matches b.
func (c *cursor) eat(b byte) bool {
	if !c.eof() && c.file.Content[c.off] == b {
		c.off++
		return true
	}
	return false
}

// mark remembers a position so a span can be recovered cheaply.
type mark uint32

func (c *cursor) mark() mark {
	return mark(c.off)
}

// spanFrom builds the span from a mark to the current position.
func (c *cursor) spanFrom(m mark) source.Span {
	return source.Span{
		File:  c.file.ID,
		Start: uint32(m),
		End:   c.off,
	}
}

// pointSpan is a zero-length span at the current position.
func (c *cursor) pointSpan() source.Span {
	return source.Point(c.file.ID, c.off)
}
