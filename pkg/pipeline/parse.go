package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/genregraph/pkg/cache"
	"github.com/matzehuels/genregraph/pkg/observability"
	"github.com/matzehuels/genregraph/pkg/wikitext"
)

// ParserName identifies the built-in line parser in cache keys and metrics.
const ParserName = "line"

// ParserOptions configures [NewParser].
type ParserOptions struct {
	// Command is an external wikitext parser executable. Empty selects the
	// built-in line parser.
	Command string
	Args    []string

	// Timeout bounds one external parser invocation. Zero means 10s.
	Timeout time.Duration

	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewParser returns the description parser for opts. Results are cached by
// parser identity and raw text, so descriptions survive process restarts.
// A failed external parse falls back to the line parser and is not cached.
func NewParser(opts ParserOptions) *CachingParser {
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	name := ParserName
	if opts.Command != "" {
		name = strings.Join(append([]string{opts.Command}, opts.Args...), " ")
	}
	return &CachingParser{opts: opts, name: name}
}

// CachingParser implements [wikitext.Parser] on top of the cache.
type CachingParser struct {
	opts ParserOptions
	name string

	warnOnce sync.Once
}

// Name returns the parser identity used in cache keys.
func (p *CachingParser) Name() string { return p.name }

// ParseAndSimplify implements [wikitext.Parser].
func (p *CachingParser) ParseAndSimplify(text string) wikitext.Sequence {
	ctx := context.Background()
	start := time.Now()

	if p.opts.Command == "" {
		seq := wikitext.LineParser{}.ParseAndSimplify(text)
		observability.Pipeline().OnParseComplete(ctx, p.name, len(seq), time.Since(start), false)
		return seq
	}

	key := p.opts.Keyer.DescriptionKey(p.name, text)
	hooks := observability.Cache()
	var cached wikitext.Sequence
	if ok, err := cache.GetJSON(ctx, p.opts.Cache, key, &cached); err == nil && ok {
		hooks.OnCacheHit(ctx, "description")
		return cached
	}
	hooks.OnCacheMiss(ctx, "description")

	parseCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()
	seq, err := wikitext.CommandParser{Command: p.opts.Command, Args: p.opts.Args}.Parse(parseCtx, text)
	if err != nil {
		p.warnOnce.Do(func() {
			p.opts.Logger.Warn("wikitext parser failed, using line parser", "parser", p.name, "err", err)
		})
		seq = wikitext.LineParser{}.ParseAndSimplify(text)
		observability.Pipeline().OnParseComplete(ctx, p.name, len(seq), time.Since(start), true)
		return seq
	}
	observability.Pipeline().OnParseComplete(ctx, p.name, len(seq), time.Since(start), false)

	if err := cache.SetJSON(ctx, p.opts.Cache, key, seq, DefaultDescriptionTTL); err == nil {
		hooks.OnCacheSet(ctx, "description", len(text))
	}
	return seq
}
