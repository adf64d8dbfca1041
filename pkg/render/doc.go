// Package render turns genre graphs into images.
//
// The [nodelink] subpackage lays the graph out with Graphviz and produces
// SVG. This package converts that SVG to other formats with the external
// rsvg-convert tool (from librsvg):
//
//	svg, err := nodelink.RenderSVG(ctx, dot, nodelink.EngineSFDP)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
//
// [nodelink]: github.com/matzehuels/genregraph/pkg/render/nodelink
package render
