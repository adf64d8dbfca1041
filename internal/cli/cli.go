package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/genregraph/internal/config"
	"github.com/matzehuels/genregraph/pkg/buildinfo"
	"github.com/matzehuels/genregraph/pkg/cache"
	apperr "github.com/matzehuels/genregraph/pkg/errors"
	"github.com/matzehuels/genregraph/pkg/fetch"
	"github.com/matzehuels/genregraph/pkg/pipeline"
	"github.com/matzehuels/genregraph/pkg/render"
	"github.com/matzehuels/genregraph/pkg/shell"
	"github.com/matzehuels/genregraph/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "genregraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	noCache    bool
	cfg        *config.Config

	// openStore overrides the snapshot store; tests set it.
	openStore func(ctx context.Context, cfg *config.Config) (store.Store, error)
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Explore the Wikipedia music genre graph",
		Long: `genregraph builds, renders and serves a graph of music genres extracted from
Wikipedia. Each genre is coloured by a hash of its id and sized by its degree;
links are coloured by relationship type.`,
		Version:       buildinfo.Resolve().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return config.LoadDotenv()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default: ./genregraph.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable caching")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.describeCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.legendCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config
// =============================================================================

// loadConfig loads settings once per process. --no-cache overrides the
// configured backend.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.noCache {
		cfg.Cache.Backend = config.CacheNone
	}
	c.cfg = cfg
	return cfg, nil
}

// sourceArg returns the positional source if one was given, else the
// configured one.
func sourceArg(cfg *config.Config, args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return cfg.Source
}

// =============================================================================
// Factories
// =============================================================================

// newCache opens the configured cache backend.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: cfg.Cache.RedisURL, Prefix: cfg.Cache.Prefix})
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeUnavailable, err, "open redis cache")
		}
		return rc, nil
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		d, err := cache.DefaultDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// newRunner creates a pipeline runner for CLI use. Downloaded datasets are
// cached for cache.ttl.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(ch, nil, c.Logger)
	if cfg.Cache.TTL > 0 {
		r.Client = fetch.NewClient(ch, cfg.Cache.TTL, nil).WithKeyer(r.Keyer)
	}
	return r, nil
}

// newShell creates an unloaded shell over the runner's fetch client. The
// description parser shares the runner's cache.
func (c *CLI) newShell(r *pipeline.Runner, cfg *config.Config, source string, logger *log.Logger) *shell.Shell {
	parser := pipeline.NewParser(pipeline.ParserOptions{
		Command: cfg.Parser.Command,
		Args:    cfg.Parser.Args,
		Timeout: cfg.Parser.Timeout,
		Cache:   r.Cache,
		Keyer:   r.Keyer,
		Logger:  logger,
	})
	return shell.New(r.Client, shell.Options{
		Source:   source,
		Strict:   cfg.Strict,
		BaseSize: cfg.Render.BaseSize,
		Parser:   parser,
		Logger:   logger,
	})
}

// newStore opens the snapshot store.
func (c *CLI) newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if c.openStore != nil {
		return c.openStore(ctx, cfg)
	}
	if cfg.Store.MongoURI == "" {
		return nil, apperr.New(apperr.ErrCodeInvalidInput,
			"no snapshot store configured (set store.mongo_uri or GENREGRAPH_MONGO_URI)")
	}
	return store.NewMongoStore(ctx, store.MongoConfig{
		URI:        cfg.Store.MongoURI,
		Database:   cfg.Store.Database,
		Collection: cfg.Store.Collection,
	})
}

// =============================================================================
// Options Helpers
// =============================================================================

// renderDefaults turns the config's render section into pipeline options.
func renderDefaults(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		Source:   cfg.Source,
		Strict:   cfg.Strict,
		Engine:   cfg.Render.Engine,
		BaseSize: cfg.Render.BaseSize,
		Labels:   cfg.Render.Labels,
		PNGScale: cfg.Render.PNGScale,
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{render.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
