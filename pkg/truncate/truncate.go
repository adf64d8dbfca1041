// Package truncate decides how much of a parsed description to show.
//
// A document is cut at its first top-level boundary node (a paragraph break
// or a newline). Whether the cut applies is controlled by a per-document
// [State] that a user can toggle, and that is discarded whenever the display
// is bound to a different document identity.
//
//	view := truncate.ComputeView(seq, truncate.State{})
//	if view.HasBoundary {
//	    // view.Visible is seq[:i]
//	}
//
// Everything here is synchronous and free of I/O. [Display] and [Arena] are
// meant to be owned by a single event loop and are not safe for concurrent use.
package truncate

import "github.com/matzehuels/genregraph/pkg/wikitext"

// Toggle labels.
const (
	LabelShowMore = "Show more"
	LabelShowLess = "Show less"
)

// State is the per-document truncation state. The zero value is collapsed.
type State struct {
	Expanded bool `json:"expanded"`
}

// View is the result of applying a [State] to a sequence.
type View struct {
	Visible     wikitext.Sequence `json:"visible"`
	HasBoundary bool              `json:"has_boundary"`
}

// ComputeView returns the part of seq to display.
//
// With no boundary node the full sequence is returned and st is ignored.
// Otherwise the prefix before the first boundary is returned while collapsed,
// and the full sequence while expanded. seq is never modified.
func ComputeView(seq wikitext.Sequence, st State) View {
	i := seq.FirstBoundary()
	if i < 0 {
		return View{Visible: seq}
	}
	if !st.Expanded {
		return View{Visible: seq[:i:i], HasBoundary: true}
	}
	return View{Visible: seq, HasBoundary: true}
}

// Toggle flips the expanded flag.
func Toggle(st State) State {
	return State{Expanded: !st.Expanded}
}

// Label returns the toggle label for st.
func Label(st State) string {
	if st.Expanded {
		return LabelShowLess
	}
	return LabelShowMore
}

// Toggleable reports whether a toggle affordance should be offered: the view
// must have something to collapse and the embedding context must allow it.
func Toggleable(v View, expandable bool) bool {
	return v.HasBoundary && expandable
}

// DocID identifies a document instance. Two documents with identical text but
// different DocIDs are distinct; state never carries over between them.
type DocID string

// Rebind returns the state to use after a display moves from old to next.
// Any change of identity yields a fresh collapsed state.
func Rebind(old, next DocID, st State) State {
	if old != next {
		return State{}
	}
	return st
}
