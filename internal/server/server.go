// Package server serves a loaded genre graph over HTTP.
//
// # Routes
//
//	GET /health                          liveness and dataset status
//	GET /ready                           503 until a dataset is loaded
//	GET /data.json                       the dataset as loaded
//	GET /graph.svg                       rendered node-link diagram
//	GET /api/legend                      relationship types and colours
//	GET /api/nodes                       node list with visual encoding
//	GET /api/nodes/{id}                  one node with its links
//	GET /api/nodes/{id}/description      truncated description
//	GET /api/version                     build information
//	GET /metrics                         Prometheus metrics
//
// When the dataset failed to load, every data route answers 503 with the
// load error; the server itself keeps running.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/genregraph/pkg/observability/prom"
	"github.com/matzehuels/genregraph/pkg/pipeline"
)

const shutdownTimeout = 10 * time.Second

// Options configures a [Server].
type Options struct {
	Addr         string
	CORSOrigins  []string
	RateLimit    float64 // requests per second per client; 0 disables
	Burst        int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Render holds the defaults for /graph.svg.
	Render pipeline.Options

	Runner  *pipeline.Runner
	Metrics *prom.Metrics // nil disables /metrics
	Logger  *log.Logger
}

// Server is the HTTP front end over a [Holder].
type Server struct {
	holder  *Holder
	opts    Options
	logger  *log.Logger
	limiter *clientLimiter
}

// New creates a server.
func New(holder *Holder, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	s := &Server{holder: holder, opts: opts, logger: opts.Logger}
	if opts.RateLimit > 0 {
		s.limiter = newClientLimiter(opts.RateLimit, opts.Burst)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)
	if s.opts.Metrics != nil {
		r.Use(s.opts.Metrics.Middleware)
	}

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-Dataset-Generation"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/api/version", s.handleVersion)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Get("/api/legend", s.handleLegend)

		r.Group(func(r chi.Router) {
			r.Use(s.requireDataset)
			r.Get("/data.json", s.handleData)
			r.Get("/graph.svg", s.handleGraphSVG)
			r.Route("/api/nodes", func(r chi.Router) {
				r.Get("/", s.handleNodes)
				r.Get("/{id}", s.handleNode)
				r.Get("/{id}/description", s.handleDescription)
			})
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
