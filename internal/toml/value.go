package toml

import (
	"skiff/internal/source"
)

// Kind discriminates the node types of the spanned tree.
type Kind uint8

const (
	KindString Kind = iota
	KindInteger
	KindBool
	KindArray
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindBool:
		return "boolean"
	case KindArray:
		return "array"
	case KindTable:
		return "table"
	}
	return "unknown"
}

// Value is one node of the spanned tree. Span covers the literal exactly
// as written (quotes included for strings), so slicing it out of the
// original text reproduces the literal.
type Value struct {
	Kind Kind
	Span source.Span

	Str  string // decoded, KindString only
	Int  int64  // KindInteger only
	Bool bool   // KindBool only
	Arr  []*Value
	Tab  *Table

	// tableArray is set on KindArray values produced by [[header]] lines.
	tableArray bool
}

// Entry is one key/value pair of a table, with the key's own span.
type Entry struct {
	Key     string
	KeySpan source.Span
	Value   *Value
}

// Table is an ordered sequence of key-bearing entries. Order is
// declaration order; lookups are linear, which is fine at document scale.
type Table struct {
	Entries []*Entry

	// explicit is set once the table appeared as a [header] or an inline
	// table, as opposed to being implied by a dotted path.
	explicit bool
}

// Get returns the value for key, if present.
func (t *Table) Get(key string) (*Value, bool) {
	if e, ok := t.Entry(key); ok {
		return e.Value, true
	}
	return nil, false
}

// Entry returns the full entry for key, if present.
func (t *Table) Entry(key string) (*Entry, bool) {
	for _, e := range t.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return nil, false
}

// GetString returns the decoded string for key when the entry exists and
// is a string.
func (t *Table) GetString(key string) (string, bool) {
	v, ok := t.Get(key)
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// GetBool returns the boolean for key when the entry exists and is a bool.
func (t *Table) GetBool(key string) (bool, bool) {
	v, ok := t.Get(key)
	if !ok || v.Kind != KindBool {
		return false, false
	}
	return v.Bool, true
}
