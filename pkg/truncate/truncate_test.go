package truncate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/genregraph/pkg/wikitext"
)

var (
	intro = wikitext.Text("Intro.")
	more  = wikitext.Text("More.")
)

func TestComputeViewEmpty(t *testing.T) {
	for _, st := range []State{{}, {Expanded: true}} {
		v := ComputeView(nil, st)
		assert.False(t, v.HasBoundary)
		assert.Empty(t, v.Visible)
	}
}

func TestComputeViewFirstBoundary(t *testing.T) {
	tests := []struct {
		name string
		seq  wikitext.Sequence
		want wikitext.Sequence
	}{
		{
			name: "paragraph break",
			seq:  wikitext.Sequence{intro, wikitext.ParagraphBreak(), more},
			want: wikitext.Sequence{intro},
		},
		{
			name: "newline before later paragraph break",
			seq:  wikitext.Sequence{intro, wikitext.Text("a"), wikitext.Newline(), more, wikitext.ParagraphBreak(), more},
			want: wikitext.Sequence{intro, wikitext.Text("a")},
		},
		{
			name: "boundary at start",
			seq:  wikitext.Sequence{wikitext.ParagraphBreak(), intro},
			want: wikitext.Sequence{},
		},
		{
			name: "nested boundary does not count",
			seq: wikitext.Sequence{
				{Type: wikitext.TypeItalic, Children: []wikitext.Node{intro, wikitext.Newline()}},
				more,
				wikitext.ParagraphBreak(),
				more,
			},
			want: wikitext.Sequence{
				{Type: wikitext.TypeItalic, Children: []wikitext.Node{intro, wikitext.Newline()}},
				more,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collapsed := ComputeView(tt.seq, State{})
			assert.True(t, collapsed.HasBoundary)
			assert.Equal(t, tt.want, collapsed.Visible)

			expanded := ComputeView(tt.seq, State{Expanded: true})
			assert.True(t, expanded.HasBoundary)
			assert.Equal(t, tt.seq, expanded.Visible)
		})
	}
}

func TestComputeViewNoBoundaryPassthrough(t *testing.T) {
	seq := wikitext.Sequence{intro, {Type: wikitext.TypeBold, Children: []wikitext.Node{more}}, more}
	for _, st := range []State{{}, {Expanded: true}} {
		v := ComputeView(seq, st)
		assert.False(t, v.HasBoundary)
		assert.Equal(t, seq, v.Visible)
	}
}

func TestComputeViewDoesNotMutate(t *testing.T) {
	seq := wikitext.Sequence{intro, wikitext.ParagraphBreak(), more}
	v := ComputeView(seq, State{})

	// Appending to the collapsed view must not overwrite the source.
	_ = append(v.Visible, wikitext.Text("extra"))
	assert.Equal(t, wikitext.ParagraphBreak(), seq[1])
}

func TestToggleIsFlip(t *testing.T) {
	for _, st := range []State{{}, {Expanded: true}} {
		assert.Equal(t, st, Toggle(Toggle(st)))
		assert.NotEqual(t, st, Toggle(st))
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Show more", Label(State{}))
	assert.Equal(t, "Show less", Label(State{Expanded: true}))
}

func TestToggleable(t *testing.T) {
	tests := []struct {
		hasBoundary bool
		expandable  bool
		want        bool
	}{
		{true, true, true},
		{true, false, false},
		{false, true, false},
		{false, false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Toggleable(View{HasBoundary: tt.hasBoundary}, tt.expandable))
	}
}

func TestRebind(t *testing.T) {
	expanded := State{Expanded: true}
	assert.Equal(t, expanded, Rebind("a", "a", expanded))
	assert.Equal(t, State{}, Rebind("a", "b", expanded))
	assert.Equal(t, State{}, Rebind("", "a", expanded))
}

func TestDisplayScenarioNoBoundary(t *testing.T) {
	seq := wikitext.Sequence{wikitext.Text("Hello world")}

	d := NewDisplay(true)
	d.Bind("doc", seq)

	collapsed := d.View()
	assert.False(t, collapsed.HasBoundary)
	assert.Equal(t, seq, collapsed.Visible)

	_, ok := d.Affordance()
	assert.False(t, ok, "no toggle without a boundary")

	assert.False(t, d.Toggle())
	assert.False(t, d.State().Expanded)
	assert.Equal(t, seq, d.View().Visible)
}

func TestDisplayScenarioParagraphBreak(t *testing.T) {
	seq := wikitext.Sequence{intro, wikitext.ParagraphBreak(), more}

	d := NewDisplay(true)
	d.Bind("doc", seq)

	assert.Equal(t, wikitext.Sequence{intro}, d.View().Visible)
	label, ok := d.Affordance()
	require.True(t, ok)
	assert.Equal(t, LabelShowMore, label)

	require.True(t, d.Toggle())
	assert.Equal(t, seq, d.View().Visible)
	label, ok = d.Affordance()
	require.True(t, ok)
	assert.Equal(t, LabelShowLess, label)

	require.True(t, d.Toggle())
	assert.Equal(t, wikitext.Sequence{intro}, d.View().Visible)
}

func TestDisplayNotExpandable(t *testing.T) {
	seq := wikitext.Sequence{intro, wikitext.ParagraphBreak(), more}

	d := NewDisplay(false)
	d.Bind("doc", seq)

	_, ok := d.Affordance()
	assert.False(t, ok)
	assert.False(t, d.Toggle())
	assert.Equal(t, wikitext.Sequence{intro}, d.View().Visible)
}

func TestDisplayIdentityReset(t *testing.T) {
	seq := wikitext.Sequence{intro, wikitext.ParagraphBreak(), more}

	d := NewDisplay(true)
	d.Bind("rock", seq)
	require.True(t, d.Toggle())
	require.True(t, d.State().Expanded)

	// Same identity keeps the toggle.
	d.Bind("rock", seq)
	assert.True(t, d.State().Expanded)

	// New identity with identical content still resets.
	d.Bind("rock@2", seq)
	assert.False(t, d.State().Expanded)
	assert.Equal(t, DocID("rock@2"), d.ID())
	assert.Equal(t, wikitext.Sequence{intro}, d.View().Visible)
}

func TestDisplaySetExpandableCollapses(t *testing.T) {
	d := NewDisplay(true)
	d.Bind("doc", wikitext.Sequence{intro, wikitext.Newline(), more})
	require.True(t, d.Toggle())

	d.SetExpandable(false)
	assert.False(t, d.State().Expanded)
	assert.False(t, d.Toggle())
}

func TestArena(t *testing.T) {
	a := NewArena()
	assert.Equal(t, State{}, a.Get("a"))
	assert.Equal(t, 1, a.Len())

	assert.Equal(t, State{Expanded: true}, a.Toggle("a"))
	assert.Equal(t, State{Expanded: true}, a.Get("a"))
	assert.Equal(t, State{}, a.Get("b"))

	a.Forget("a")
	assert.Equal(t, State{}, a.Get("a"))

	a.Toggle("b")
	a.Reset()
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, State{}, a.Get("b"))
}
