// Package diag defines the structured diagnostics produced by the
// document loader and the cross-document validator.
//
// A Diagnostic carries everything needed to render itself against the
// original document text: a code, a message, a primary span, labeled
// secondary spans (possibly in another document), and an optional help
// line. Diagnostics implement error; the loading pipeline stops at the
// first one and hands it to the caller unchanged.
package diag
