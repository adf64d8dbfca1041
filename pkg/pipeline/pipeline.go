// Package pipeline provides the load → render pipeline shared by the CLI
// and the server.
//
// # Architecture
//
// The pipeline has two stages:
//
//  1. Load: fetch a data.json from a path or URL and decode it
//  2. Render: encode the dataset visually and produce SVG, PNG, PDF, DOT
//     or JSON artifacts
//
// A third, offline stage builds data.json from a directory of processed
// genre TOML files ([Build]).
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  "https://example.com/data.json",
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Rendered artifacts are cached under a key derived from the dataset's
// content hash and the render options, so a changed dataset or option
// never serves a stale image.
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/genregraph/pkg/cache"
	"github.com/matzehuels/genregraph/pkg/graph"
	"github.com/matzehuels/genregraph/pkg/render"
	"github.com/matzehuels/genregraph/pkg/render/nodelink"
	"github.com/matzehuels/genregraph/pkg/visual"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultPNGScale renders PNGs at 2x for high-DPI displays.
	DefaultPNGScale = 2.0

	// DefaultDatasetTTL is how long a downloaded dataset stays cached.
	DefaultDatasetTTL = 24 * time.Hour

	// DefaultRenderTTL is how long a rendered artifact stays cached.
	DefaultRenderTTL = 7 * 24 * time.Hour

	// DefaultDescriptionTTL is how long a parsed description stays cached.
	DefaultDescriptionTTL = 30 * 24 * time.Hour
)

// DefaultEngine is the default Graphviz layout engine.
const DefaultEngine = nodelink.DefaultEngine

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
type Options struct {
	// Load options
	Source  string `json:"source"`
	Refresh bool   `json:"refresh,omitempty"`
	Strict  bool   `json:"strict,omitempty"` // run graph.Validate after decoding

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Engine   string   `json:"engine,omitempty"`
	BaseSize float64  `json:"base_size,omitempty"`
	Labels   bool     `json:"labels,omitempty"`
	PNGScale float64  `json:"png_scale,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Dataset is the loaded genre graph.
	Dataset *graph.Dataset

	// DatasetHash is the content hash of the canonical dataset encoding.
	DatasetHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	LinkCount  int
	LoadTime   time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !render.ValidFormat(format) {
		return fmt.Errorf("invalid format: %q (must be one of: %s)", format, strings.Join(render.Formats(), ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateEngine checks that a layout engine is valid.
func ValidateEngine(engine string) error {
	if !nodelink.ValidEngine(engine) {
		return fmt.Errorf("invalid engine: %q (must be one of: %s)", engine, strings.Join(nodelink.Engines(), ", "))
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading.
func (o *Options) ValidateForLoad() error {
	if strings.TrimSpace(o.Source) == "" {
		return fmt.Errorf("source is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{render.FormatSVG}
	}
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.BaseSize <= 0 {
		o.BaseSize = visual.DefaultBaseSize
	}
	if o.PNGScale <= 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateEngine(o.Engine)
}

// RenderKeyOpts returns cache key options for one rendered format.
func (o *Options) RenderKeyOpts(format string) cache.RenderKeyOpts {
	k := cache.RenderKeyOpts{Format: format}
	switch format {
	case render.FormatJSON:
		// Independent of every visual option.
	case render.FormatPNG:
		k.Engine, k.BaseSize, k.Labels, k.Scale = o.Engine, o.BaseSize, o.Labels, o.PNGScale
	case render.FormatDOT:
		k.BaseSize, k.Labels = o.BaseSize, o.Labels
	default:
		k.Engine, k.BaseSize, k.Labels = o.Engine, o.BaseSize, o.Labels
	}
	return k
}

// Scheme returns the visual scheme for ds under these options.
func (o *Options) Scheme(ds *graph.Dataset) visual.Scheme {
	s := visual.NewScheme(ds)
	if o.BaseSize > 0 {
		s.BaseSize = o.BaseSize
	}
	return s
}
