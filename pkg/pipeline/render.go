package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/genregraph/pkg/graph"
	"github.com/matzehuels/genregraph/pkg/observability"
	"github.com/matzehuels/genregraph/pkg/render"
	"github.com/matzehuels/genregraph/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats. The Graphviz
// layout runs at most once, however many raster formats are requested.
func Render(ctx context.Context, ds *graph.Dataset, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	dot := nodelink.ToDOT(ds, opts.Scheme(ds), nodelink.Options{Labels: opts.Labels})
	var svg []byte
	layoutSVG := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var err error
		svg, err = nodelink.RenderSVG(ctx, dot, opts.Engine)
		return svg, err
	}

	hooks := observability.Pipeline()
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if _, done := artifacts[format]; done {
			continue
		}
		hooks.OnRenderStart(ctx, format, len(ds.Nodes))
		start := time.Now()

		data, err := renderFormat(ctx, format, ds, dot, layoutSVG, opts)
		hooks.OnRenderComplete(ctx, format, len(data), time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, format string, ds *graph.Dataset, dot string, layoutSVG func() ([]byte, error), opts Options) ([]byte, error) {
	switch format {
	case render.FormatJSON:
		return graph.Marshal(ds)
	case render.FormatDOT:
		return []byte(dot), nil
	case render.FormatSVG:
		return layoutSVG()
	case render.FormatPNG:
		svg, err := layoutSVG()
		if err != nil {
			return nil, err
		}
		return render.ToPNG(ctx, svg, opts.PNGScale)
	case render.FormatPDF:
		svg, err := layoutSVG()
		if err != nil {
			return nil, err
		}
		return render.ToPDF(ctx, svg)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
