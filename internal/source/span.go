package source

import (
	"fmt"
)

// Span is a half-open byte range [Start, End) into a document's content.
// Pure value type; never mutated after creation.
type Span struct {
	File  FileID
	Start uint32 // inclusive
	End   uint32 // exclusive
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

// Valid reports whether the span points into a registered document.
func (s Span) Valid() bool {
	return s.File != NoFile
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover returns the smallest span containing both s and other.
// Spans from different files cannot be merged; s wins.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Point returns a zero-length span at the given offset.
func Point(file FileID, off uint32) Span {
	return Span{File: file, Start: off, End: off}
}
