package truncate

import "github.com/matzehuels/genregraph/pkg/wikitext"

// Display is one slot that shows a truncated document, such as a sidebar
// panel or a list row. It owns the [State] for whatever document it is
// currently bound to.
type Display struct {
	expandable bool

	id    DocID
	seq   wikitext.Sequence
	state State
}

// NewDisplay creates an unbound display. expandable is supplied by the
// embedding context (a detail view typically allows expansion, a list row
// does not).
func NewDisplay(expandable bool) *Display {
	return &Display{expandable: expandable}
}

// Bind associates the display with a document. Binding a different id
// resets the state to collapsed; rebinding the same id keeps it.
func (d *Display) Bind(id DocID, seq wikitext.Sequence) {
	d.state = Rebind(d.id, id, d.state)
	d.id = id
	d.seq = seq
}

// ID returns the bound document identity.
func (d *Display) ID() DocID { return d.id }

// State returns the current truncation state.
func (d *Display) State() State { return d.state }

// Expandable reports the caller-supplied expandable flag.
func (d *Display) Expandable() bool { return d.expandable }

// SetExpandable changes whether the toggle affordance may be offered. Turning
// it off collapses the display again.
func (d *Display) SetExpandable(expandable bool) {
	d.expandable = expandable
	if !expandable {
		d.state = State{}
	}
}

// View computes the visible part of the bound document.
func (d *Display) View() View {
	return ComputeView(d.seq, d.state)
}

// Affordance returns the toggle label and whether a toggle is offered at all.
func (d *Display) Affordance() (string, bool) {
	if !Toggleable(d.View(), d.expandable) {
		return "", false
	}
	return Label(d.state), true
}

// Toggle flips the state if a toggle is offered and reports whether it did.
// Without an affordance it is a no-op and the display stays collapsed.
func (d *Display) Toggle() bool {
	if _, ok := d.Affordance(); !ok {
		return false
	}
	d.state = Toggle(d.state)
	return true
}
