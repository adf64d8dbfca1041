package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/genregraph/pkg/cache"
	apperr "github.com/matzehuels/genregraph/pkg/errors"
	"github.com/matzehuels/genregraph/pkg/fetch"
	"github.com/matzehuels/genregraph/pkg/graph"
	"github.com/matzehuels/genregraph/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use it so caching behaves the same everywhere.
//
// The Runner holds no pipeline results. Multiple goroutines can safely use
// the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	Client *fetch.Client
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		Client: fetch.NewClient(c, DefaultDatasetTTL, nil).WithKeyer(keyer),
	}
}

// Execute runs the complete load → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid options")
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	ds, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Dataset = ds
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = len(ds.Nodes)
	result.Stats.LinkCount = len(ds.Links)

	opts.Logger.Info("loaded dataset",
		"nodes", result.Stats.NodeCount,
		"links", result.Stats.LinkCount,
		"duration", result.Stats.LoadTime)

	// Stage 2: Render
	renderStart := time.Now()
	hash, artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, ds, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.DatasetHash = hash
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load fetches and decodes the dataset named by opts.Source. With
// opts.Strict the dataset must also pass [graph.Validate].
func (r *Runner) Load(ctx context.Context, opts Options) (*graph.Dataset, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid options")
	}
	ds, err := r.Client.Load(ctx, opts.Source, opts.Refresh)
	if err != nil {
		return nil, err
	}
	if opts.Strict {
		if err := graph.Validate(ds); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidDataset, err, "dataset %s failed validation", opts.Source)
		}
	}
	return ds, nil
}

// RenderWithCacheInfo generates artifacts with caching. It returns the
// dataset hash used in the cache keys and whether every artifact came from
// the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, ds *graph.Dataset, opts Options) (string, map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return "", nil, false, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid options")
	}

	data, err := graph.Marshal(ds)
	if err != nil {
		return "", nil, false, fmt.Errorf("serialize dataset for cache key: %w", err)
	}
	hash := cache.Hash(data)
	hooks := observability.Cache()

	// Try to get all formats from cache
	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		key := r.Keyer.RenderKey(hash, opts.RenderKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			hooks.OnCacheHit(ctx, "render")
			artifacts[format] = data
			continue
		}
		hooks.OnCacheMiss(ctx, "render")
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return hash, artifacts, true, nil
	}

	renderOpts := opts
	renderOpts.Formats = missing
	rendered, err := Render(ctx, ds, renderOpts)
	if err != nil {
		return "", nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.RenderKey(hash, opts.RenderKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, DefaultRenderTTL); err != nil {
			opts.Logger.Warn("cache write failed", "format", format, "err", err)
		} else {
			hooks.OnCacheSet(ctx, "render", len(data))
		}
		artifacts[format] = data
	}
	return hash, artifacts, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache info.
func (r *Runner) Render(ctx context.Context, ds *graph.Dataset, opts Options) (map[string][]byte, error) {
	_, artifacts, _, err := r.RenderWithCacheInfo(ctx, ds, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
