package visual

import (
	"fmt"
	"unicode/utf16"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/genregraph/pkg/graph"
)

// Fixed saturation and lightness shared by every generated colour.
const (
	Saturation = 0.70
	Lightness  = 0.60
)

// DefaultBaseSize is the node size at the maximum degree.
const DefaultBaseSize = 4.0

// Relationship hues.
const (
	hueDerivative  = 0
	hueSubgenre    = 120
	hueFusionGenre = 240
)

// Color is an HSL colour with the package's fixed saturation and lightness.
type Color struct {
	Hue int // degrees in [0, 360)
}

// CSS returns the colour in CSS notation, e.g. "hsl(154, 70%, 60%)".
func (c Color) CSS() string {
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", c.Hue, int(Saturation*100), int(Lightness*100))
}

// Hex returns the colour as "#rrggbb".
func (c Color) Hex() string {
	return colorful.Hsl(float64(c.Hue), Saturation, Lightness).Clamped().Hex()
}

// String implements fmt.Stringer using [Color.CSS].
func (c Color) String() string { return c.CSS() }

// Hue derives a hue in [0, 360) from an identifier.
//
// The hash runs over UTF-16 code units so that identifiers outside the Basic
// Multilingual Plane hash the same way as in browser implementations.
func Hue(id string) int {
	var acc uint32
	for _, c := range utf16.Encode([]rune(id)) {
		acc = acc*31 + uint32(c)
	}
	return int(acc % 360)
}

// NodeColor returns the colour for a node identifier.
func NodeColor(id string) Color {
	return Color{Hue: Hue(id)}
}

// NodeSize returns base * (0.25 + degree/maxDegree * 0.75).
// A non-positive maxDegree yields base * 0.25.
func NodeSize(degree, maxDegree int, base float64) float64 {
	ratio := 0.0
	if maxDegree > 0 {
		ratio = float64(degree) / float64(maxDegree)
	}
	return base * (0.25 + ratio*0.75)
}

// EdgeColor returns the fixed colour for a relationship type. It panics on a
// value outside the enumeration; decoding rejects such values upstream.
func EdgeColor(ty graph.RelationshipType) Color {
	switch ty {
	case graph.Derivative:
		return Color{Hue: hueDerivative}
	case graph.Subgenre:
		return Color{Hue: hueSubgenre}
	case graph.FusionGenre:
		return Color{Hue: hueFusionGenre}
	}
	panic(fmt.Sprintf("visual: unknown relationship type %d", int(ty)))
}

// LegendEntry describes one relationship type for display.
type LegendEntry struct {
	Type  graph.RelationshipType `json:"type"`
	Label string                 `json:"label"`
	Color string                 `json:"color"`
}

// Legend returns one entry per relationship type in display order.
func Legend() []LegendEntry {
	types := graph.RelationshipTypes()
	out := make([]LegendEntry, len(types))
	for i, ty := range types {
		out[i] = LegendEntry{Type: ty, Label: ty.Label(), Color: EdgeColor(ty).CSS()}
	}
	return out
}

// Scheme binds the encoding functions to a dataset.
type Scheme struct {
	MaxDegree int
	BaseSize  float64
}

// NewScheme creates a scheme for ds using [DefaultBaseSize].
func NewScheme(ds *graph.Dataset) Scheme {
	return Scheme{MaxDegree: ds.MaxDegree, BaseSize: DefaultBaseSize}
}

// NodeColor returns the colour of n.
func (s Scheme) NodeColor(n graph.Node) Color { return NodeColor(n.ID) }

// NodeSize returns the size of n relative to the dataset's maximum degree.
func (s Scheme) NodeSize(n graph.Node) float64 {
	base := s.BaseSize
	if base == 0 {
		base = DefaultBaseSize
	}
	return NodeSize(n.Degree, s.MaxDegree, base)
}

// LinkColor returns the colour of l.
func (s Scheme) LinkColor(l graph.Link) Color { return EdgeColor(l.Type) }
