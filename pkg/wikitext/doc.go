// Package wikitext defines the simplified node sequence that genre
// descriptions are rendered from.
//
// # Overview
//
// Genre descriptions are stored as raw wikitext. An external parser turns that
// text into a flat, ordered [Sequence] of typed [Node] values; this package
// owns the data contract for that output, not the wikitext grammar itself.
//
// The only part of the contract that the rest of genregraph depends on is the
// pair of boundary kinds, [TypeParagraphBreak] and [TypeNewline]. Every other
// kind is an opaque payload that is passed through untouched.
//
// # Parsers
//
// The [Parser] interface is the seam to the external parser:
//
//   - [CommandParser] pipes text through the external parser executable and
//     decodes its JSON output with [Decode]
//     (e.g. [{"type":"text","text":"Intro."},{"type":"paragraph-break"}]).
//   - [LineParser] is a line-structure fallback for plain text. It recognises
//     blank lines and single line breaks and nothing else.
//
// # Ordering
//
// A Sequence preserves source order. Boundary detection ([Sequence.FirstBoundary])
// only inspects top-level nodes and never descends into [Node.Children].
package wikitext
