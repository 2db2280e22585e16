// Package toml parses deployment documents into a generic tree whose
// every key and scalar carries the exact byte range it was parsed from.
//
// The grammar is the TOML subset the spec and config documents use:
// bare and basic-quoted keys, dotted keys, [table] and [[array-of-table]]
// headers, basic and literal strings, integers, booleans, arrays, inline
// tables, and comments. Multi-line strings, floats, and datetimes are not
// part of the document grammar and are rejected.
//
// Parsing is all-or-nothing: the first malformed construct aborts with a
// span-carrying diagnostic and no partial tree is returned. Tables keep
// their entries in declaration order; a key defined twice in the same
// table is a parse error, while duplicates across the env and secrets
// namespaces are deliberately left to the cross-document validator.
package toml
