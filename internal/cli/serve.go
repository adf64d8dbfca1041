package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/genregraph/internal/server"
	apperr "github.com/matzehuels/genregraph/pkg/errors"
	"github.com/matzehuels/genregraph/pkg/observability"
	"github.com/matzehuels/genregraph/pkg/observability/prom"
	"github.com/matzehuels/genregraph/pkg/shell"
)

const metricsNamespace = appName

type serveOpts struct {
	addr      string
	watch     bool
	noMetrics bool
	cors      []string
	rateLimit float64
}

// serveCommand serves the dataset, descriptions and renders over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [source]",
		Short: "Serve the genre graph over HTTP",
		Long: `Serve exposes the dataset (/data.json), per-genre details and truncated
descriptions (/api/nodes), the legend (/api/legend), a rendered graph
(/graph.svg) and Prometheus metrics (/metrics).

If the dataset cannot be loaded the server still starts and answers data
routes with 503 until a reload succeeds. With --watch a local dataset file is
reloaded when it changes; a failed reload keeps the previous dataset.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "reload when the dataset file changes")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "disable /metrics")
	cmd.Flags().StringSliceVar(&opts.cors, "cors", nil, "allowed CORS origins (default from config)")
	cmd.Flags().Float64Var(&opts.rateLimit, "rate-limit", -1, "requests per second per client; 0 disables")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, args []string, opts serveOpts) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	sc := cfg.Server
	if opts.addr != "" {
		sc.Addr = opts.addr
	}
	if len(opts.cors) > 0 {
		sc.CORSOrigins = opts.cors
	}
	if opts.rateLimit >= 0 {
		sc.RateLimit = opts.rateLimit
	}
	sc.Watch = sc.Watch || opts.watch
	source := sourceArg(cfg, args)

	var metrics *prom.Metrics
	if !opts.noMetrics {
		metrics = prom.New(metricsNamespace)
		observability.SetPipelineHooks(metrics)
		observability.SetCacheHooks(metrics)
		observability.SetHTTPHooks(metrics)
		defer observability.Reset()
	}

	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	holder := server.NewHolder(func() *shell.Shell {
		return c.newShell(runner, cfg, source, c.Logger)
	}, c.Logger)
	if err := holder.Reload(ctx); err != nil {
		printWarning("Dataset unavailable, serving 503 until it loads: %v", apperr.UserMessage(err))
	}

	if sc.Watch {
		if apperr.IsURL(source) {
			printWarning("--watch ignored for URL source %s", source)
		} else if err := server.Watch(ctx, source, holder); err != nil {
			return err
		}
	}

	render := renderDefaults(cfg)
	render.Source = source
	srv := server.New(holder, server.Options{
		Addr:         sc.Addr,
		CORSOrigins:  sc.CORSOrigins,
		RateLimit:    sc.RateLimit,
		Burst:        sc.Burst,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		Render:       render,
		Runner:       runner,
		Metrics:      metrics,
		Logger:       c.Logger,
	})

	printSuccess("Serving %s", source)
	printKeyValue("Address", "http://"+sc.Addr)
	if metrics != nil {
		printKeyValue("Metrics", "http://"+sc.Addr+"/metrics")
	}
	return srv.Run(ctx)
}
