// Package cli implements the genregraph command-line interface.
//
// The commands cover the whole life of a genre dataset: building data.json
// from processed genre files, rendering it, reading single descriptions,
// browsing it in the terminal, serving it over HTTP and keeping snapshots.
//
// # Commands
//
//   - build: assemble data.json from a directory of processed genre TOML files
//   - render: lay out the graph and write SVG, PNG, PDF, DOT or JSON
//   - describe: print one genre's description, collapsed or expanded
//   - browse: interactive terminal browser
//   - serve: HTTP API over the dataset
//   - legend: relationship colours
//   - snapshot: push, pull and list dataset snapshots
//   - cache: inspect and clear the cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// travels through context.Context so long-running stages can report
// progress without a global.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w at level, with "15:04:05.00"
// timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long an operation took. Not for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Built dataset (1.234s)".
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg, append(keyvals, "elapsed", p.elapsed())...)
}

func (p *progress) elapsed() time.Duration {
	return time.Since(p.start).Round(time.Millisecond)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
			return l
		}
	}
	return log.Default()
}
