package truncate

// Arena keeps truncation state for many documents at once, keyed by
// identity. It suits views that show several descriptions side by side.
type Arena struct {
	states map[DocID]State
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{states: make(map[DocID]State)}
}

// Get returns the state for id, inserting a fresh collapsed state when the
// id has not been seen.
func (a *Arena) Get(id DocID) State {
	st, ok := a.states[id]
	if !ok {
		st = State{}
		a.states[id] = st
	}
	return st
}

// Toggle flips the state for id and returns the new value. Callers gate it
// with [Toggleable].
func (a *Arena) Toggle(id DocID) State {
	st := Toggle(a.Get(id))
	a.states[id] = st
	return st
}

// Forget drops the state for id.
func (a *Arena) Forget(id DocID) {
	delete(a.states, id)
}

// Reset drops every state. Used when the whole document set is replaced.
func (a *Arena) Reset() {
	clear(a.states)
}

// Len returns the number of tracked documents.
func (a *Arena) Len() int { return len(a.states) }
