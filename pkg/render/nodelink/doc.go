// Package nodelink renders genre graphs as node-link diagrams.
//
// # Usage
//
// Convert a dataset to DOT, then lay it out and render SVG:
//
//	scheme := visual.NewScheme(ds)
//	dot := nodelink.ToDOT(ds, scheme, nodelink.Options{Labels: true})
//	svg, err := nodelink.RenderSVG(ctx, dot, nodelink.EngineSFDP)
//
// # Encoding
//
// Every node is a filled circle coloured by [visual.NodeColor] and sized by
// [visual.NodeSize]. Edges take the fixed colour of their relationship type
// and point from the originating genre to the derived one. Links whose
// source or target is not a node of the dataset are left out of the DOT
// source; Graphviz would otherwise invent a node for them.
//
// # Engines
//
// Genre graphs have no natural ranking, so force-directed engines ([EngineSFDP],
// [EngineFDP], [EngineNeato]) usually read better than the layered [EngineDot].
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion lives in the parent render package.
package nodelink
