package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/genregraph/pkg/errors"
	"github.com/matzehuels/genregraph/pkg/graph"
)

// BuildOptions configures [Build].
type BuildOptions struct {
	// Dir holds one processed TOML file per genre page.
	Dir string

	// DumpName is the Wikipedia dump file (or directory) the processed
	// files came from. Its date becomes dump_date; an unparseable name
	// leaves dump_date empty.
	DumpName string

	// Ignore lists page names left out of the dataset.
	Ignore []string

	// Output is the data.json path to write. Empty skips writing.
	Output string

	Logger *log.Logger
}

// Build reads processed genres from opts.Dir and assembles a dataset.
func Build(ctx context.Context, opts BuildOptions) (*graph.Dataset, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Dir == "" {
		return nil, apperr.New(apperr.ErrCodeInvalidInput, "processed directory is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	genres, err := graph.ReadProcessedDir(opts.Dir)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidPath, err, "read %s", opts.Dir)
	}
	opts.Logger.Debug("read processed genres", "dir", opts.Dir, "count", len(genres))

	var dumpDate time.Time
	if opts.DumpName != "" {
		d, ok := graph.ParseDumpDate(filepath.Base(opts.DumpName))
		if ok {
			dumpDate = d
		} else {
			opts.Logger.Warn("could not read dump date from name", "name", opts.DumpName)
		}
	}

	ds, err := graph.Build(genres, graph.BuildOptions{DumpDate: dumpDate, Ignore: opts.Ignore})
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidDataset, err, "build dataset")
	}
	opts.Logger.Info("built dataset",
		"nodes", len(ds.Nodes),
		"links", len(ds.Links),
		"max_degree", ds.MaxDegree,
		"duration", time.Since(start).Round(time.Millisecond))

	if opts.Output != "" {
		if err := graph.WriteFile(ds, opts.Output); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidPath, err, "write %s", opts.Output)
		}
	}
	return ds, nil
}
