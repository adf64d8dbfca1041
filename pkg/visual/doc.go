// Package visual maps genre graph data onto colour and size.
//
// Nothing here comes from the dataset's producer: colours and sizes are pure
// functions of the data itself, so the same genre looks the same in every
// render, in every session and in every implementation that follows the same
// rules.
//
// # Node Colour
//
// [Hue] hashes an identifier with acc = acc*31 + c (mod 2^32) over its UTF-16
// code units and reduces the result mod 360. [NodeColor] places that hue at a
// fixed saturation and lightness (70%, 60%). Different identifiers may land on
// the same hue; that is accepted.
//
// # Node Size
//
// [NodeSize] interpolates linearly from 25% of the base size at degree 0 to
// 100% at the dataset's maximum degree. A maximum degree of zero (or less)
// is treated as a ratio of zero, so every node gets 25% of the base size.
// Degrees above the maximum are not clamped.
//
// # Edge Colour
//
// [EdgeColor] assigns one fixed hue per relationship type:
//
//	Derivative   hsl(0, 70%, 60%)
//	Subgenre     hsl(120, 70%, 60%)
//	FusionGenre  hsl(240, 70%, 60%)
//
// # Scheme
//
// [Scheme] binds the three functions to one dataset so a renderer can call
// them per element without knowing about maxDegree or base sizes.
package visual
