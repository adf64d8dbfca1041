package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	apperr "github.com/matzehuels/genregraph/pkg/errors"
	"github.com/matzehuels/genregraph/pkg/graph"
	"github.com/matzehuels/genregraph/pkg/visual"
)

// Layout engines.
const (
	EngineDot   = "dot"
	EngineNeato = "neato"
	EngineFDP   = "fdp"
	EngineSFDP  = "sfdp"
)

// DefaultEngine is used when no engine is given.
const DefaultEngine = EngineSFDP

// inchesPerUnit converts visual node sizes to Graphviz inches.
const inchesPerUnit = 0.1

var engines = map[string]graphviz.Layout{
	EngineDot:   graphviz.DOT,
	EngineNeato: graphviz.NEATO,
	EngineFDP:   graphviz.FDP,
	EngineSFDP:  graphviz.SFDP,
}

// Engines lists the supported layout engines.
func Engines() []string {
	return []string{EngineSFDP, EngineFDP, EngineNeato, EngineDot}
}

// ValidEngine reports whether name is a supported layout engine.
func ValidEngine(name string) bool {
	_, ok := engines[name]
	return ok
}

// Options configures DOT generation.
type Options struct {
	// Labels draws the genre name next to each node.
	Labels bool
}

// ToDOT converts a dataset to Graphviz DOT source.
func ToDOT(ds *graph.Dataset, scheme visual.Scheme, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true, penwidth=0, fontsize=10, label=\"\"];\n")
	buf.WriteString("  edge [arrowsize=0.5, penwidth=0.8];\n")
	buf.WriteString("\n")

	known := make(map[string]bool, len(ds.Nodes))
	for _, n := range ds.Nodes {
		known[n.ID] = true
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(n.ID), strings.Join(nodeAttrs(n, scheme, opts), ", "))
	}

	buf.WriteString("\n")
	for _, l := range ds.Links {
		if !known[l.Source] || !known[l.Target] {
			continue
		}
		fmt.Fprintf(&buf, "  %s -> %s [color=%s, tooltip=%s];\n",
			quote(l.Source), quote(l.Target), quote(scheme.LinkColor(l).Hex()), quote(l.Type.Label()))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n graph.Node, scheme visual.Scheme, opts Options) []string {
	width := strconv.FormatFloat(scheme.NodeSize(n)*inchesPerUnit, 'f', 3, 64)
	attrs := []string{
		fmt.Sprintf("width=%s", width),
		"fillcolor=" + quote(scheme.NodeColor(n).Hex()),
		"tooltip=" + quote(n.DisplayLabel()),
	}
	if opts.Labels {
		attrs = append(attrs, "xlabel="+quote(n.DisplayLabel()))
	}
	return attrs
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quote returns s as a DOT double-quoted string. Only backslash and double
// quote are escaped; every other character is passed through as-is.
func quote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

// RenderSVG lays out DOT source with the named engine and renders SVG.
// An empty engine means [DefaultEngine].
func RenderSVG(ctx context.Context, dot, engine string) ([]byte, error) {
	if engine == "" {
		engine = DefaultEngine
	}
	layout, ok := engines[engine]
	if !ok {
		return nil, apperr.New(apperr.ErrCodeInvalidInput, "unknown layout engine %q (must be one of: %s)",
			engine, strings.Join(Engines(), ", "))
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(layout)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="(-?[0-9.]+)\s+(-?[0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based width and height with the
// viewBox dimensions so the SVG scales in a browser.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="%s %s %.2f %.2f" width="%.0f" height="%.0f">`,
		m[1], m[2], w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
