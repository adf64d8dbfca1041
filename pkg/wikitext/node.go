package wikitext

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Type identifies the kind of a [Node]. The set is closed per parser version
// but extensible: unknown types decode fine and are treated as payload.
type Type string

// Boundary kinds. These mark natural truncation points.
const (
	TypeParagraphBreak Type = "paragraph-break"
	TypeNewline        Type = "newline"
)

// Payload kinds emitted by the simplified parser.
const (
	TypeFragment       Type = "fragment"
	TypeTemplate       Type = "template"
	TypeLink           Type = "link"
	TypeExtLink        Type = "ext-link"
	TypeBold           Type = "bold"
	TypeItalic         Type = "italic"
	TypeBlockquote     Type = "blockquote"
	TypeSuperscript    Type = "superscript"
	TypeSubscript      Type = "subscript"
	TypeSmall          Type = "small"
	TypePreformatted   Type = "preformatted"
	TypeHeading        Type = "heading"
	TypeTag            Type = "tag"
	TypeText           Type = "text"
	TypeHorizontalRule Type = "horizontal-divider"
)

// IsBoundary reports whether t terminates a collapsed view.
func (t Type) IsBoundary() bool {
	return t == TypeParagraphBreak || t == TypeNewline
}

// Node is one element of a simplified document.
//
// Only Type is interpreted by genregraph. Text carries the literal value of
// text runs, Target the destination of links, and Children the nested content
// of formatting and link nodes.
type Node struct {
	Type     Type   `json:"type" bson:"type"`
	Text     string `json:"text,omitempty" bson:"text,omitempty"`
	Target   string `json:"target,omitempty" bson:"target,omitempty"`
	Children []Node `json:"children,omitempty" bson:"children,omitempty"`
}

// Text returns a text-run node.
func Text(s string) Node { return Node{Type: TypeText, Text: s} }

// ParagraphBreak returns a paragraph-break node.
func ParagraphBreak() Node { return Node{Type: TypeParagraphBreak} }

// Newline returns a newline node.
func Newline() Node { return Node{Type: TypeNewline} }

// Link returns an internal link to target displaying children.
func Link(target string, children ...Node) Node {
	return Node{Type: TypeLink, Target: target, Children: children}
}

// IsBoundary reports whether n is a boundary-kind node.
func (n Node) IsBoundary() bool { return n.Type.IsBoundary() }

// String renders the node in a compact debug form, e.g. text("Intro.").
func (n Node) String() string {
	switch {
	case n.Type == TypeText:
		return fmt.Sprintf("text(%q)", n.Text)
	case len(n.Children) > 0:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = c.String()
		}
		return fmt.Sprintf("%s[%s]", n.Type, strings.Join(parts, ", "))
	default:
		return string(n.Type)
	}
}

// Sequence is an ordered, parsed document. It is produced once per input
// text and must not be modified afterwards; consumers take subslices.
type Sequence []Node

// FirstBoundary returns the index of the first top-level boundary node,
// or -1 when the sequence has none.
func (s Sequence) FirstBoundary() int {
	for i, n := range s {
		if n.IsBoundary() {
			return i
		}
	}
	return -1
}

// String renders the sequence as a bracketed list of [Node.String] values.
func (s Sequence) String() string {
	parts := make([]string, len(s))
	for i, n := range s {
		parts[i] = n.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// MarshalJSON encodes a nil sequence as [] so API consumers never see null.
func (s Sequence) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Node(s))
}
