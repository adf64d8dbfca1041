package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/genregraph/pkg/pipeline"
	"github.com/matzehuels/genregraph/pkg/render/nodelink"
)

const defaultRenderBase = "genres"

// renderOpts holds the render command's flags. Zero values fall back to the
// config file.
type renderOpts struct {
	output   string
	formats  string
	engine   string
	baseSize float64
	labels   bool
	pngScale float64
	refresh  bool
	strict   bool
}

// renderCommand lays out the genre graph and writes it in one or more
// formats.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [source]",
		Short: "Render the genre graph to SVG, PNG, PDF, DOT or JSON",
		Long: `Render loads a data.json (a path or URL; default from the config) and lays
it out with Graphviz. Nodes are coloured by a hash of their id and sized by
degree; links are coloured by relationship type.

PNG and PDF output need rsvg-convert on PATH.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (one format) or base path (several); default "+defaultRenderBase)
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, pdf, dot, json (comma-separated)")
	cmd.Flags().StringVarP(&opts.engine, "engine", "e", "", "layout engine: "+strings.Join(nodelink.Engines(), ", "))
	cmd.Flags().Float64Var(&opts.baseSize, "base-size", 0, "node size at the maximum degree")
	cmd.Flags().BoolVar(&opts.labels, "labels", false, "draw genre labels next to nodes")
	cmd.Flags().Float64Var(&opts.pngScale, "png-scale", 0, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-download a URL source")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "validate the dataset before rendering")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, args []string, opts renderOpts) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	popts := renderDefaults(cfg)
	popts.Source = sourceArg(cfg, args)
	popts.Formats = parseFormats(opts.formats)
	popts.Refresh = opts.refresh
	popts.Strict = popts.Strict || opts.strict
	popts.Labels = popts.Labels || opts.labels
	if opts.engine != "" {
		popts.Engine = opts.engine
	}
	if opts.baseSize > 0 {
		popts.BaseSize = opts.baseSize
	}
	if opts.pngScale > 0 {
		popts.PNGScale = opts.pngScale
	}
	if err := pipeline.ValidateFormats(popts.Formats); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	spin := newSpinnerWithContext(ctx, "Rendering "+popts.Source+"...")
	spin.Start()
	result, err := runner.Execute(ctx, popts)
	spin.Stop()
	if err != nil {
		return err
	}

	paths := outputPaths(opts.output, popts.Formats)
	printSuccess("Rendered %s", popts.Source)
	printStats(result.Stats.NodeCount, result.Stats.LinkCount, result.CacheInfo.RenderHit)
	for _, format := range popts.Formats {
		path := paths[format]
		if err := writeArtifact(path, result.Artifacts[format]); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}

// outputPaths maps each format to a file. A single format uses output as
// given when it has an extension; otherwise output is a base path and each
// format appends its own extension.
func outputPaths(output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && filepath.Ext(output) != "" {
		paths[formats[0]] = output
		return paths
	}
	base := output
	if base == "" {
		base = defaultRenderBase
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
