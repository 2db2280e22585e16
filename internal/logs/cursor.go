// Package logs follows the backend's cursor-paginated log streams.
package logs

// cursorState tracks where a paginated stream stands.
type cursorState uint8

const (
	cursorInitial cursorState = iota
	cursorNext
	cursorEnd
)

// Cursor is a three-state pagination token: before the first page, holding
// the continuation token for the next page, or exhausted.
type Cursor[T any] struct {
	state cursorState
	next  T
}

// Ref returns the continuation token to send with the next request; the
// initial and end states have none.
func (c *Cursor[T]) Ref() (T, bool) {
	if c.state == cursorNext {
		return c.next, true
	}
	var zero T
	return zero, false
}

// Done reports whether the stream is exhausted.
func (c *Cursor[T]) Done() bool {
	return c.state == cursorEnd
}

// Advance records the continuation token of the page just read; nil marks
// the end of the stream.
func (c *Cursor[T]) Advance(next *T) {
	if next == nil {
		c.state = cursorEnd
		return
	}
	c.state = cursorNext
	c.next = *next
}
