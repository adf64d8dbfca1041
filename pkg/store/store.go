// Package store keeps published dataset snapshots, one per Wikipedia dump.
//
// A snapshot is keyed by the dataset's dump date, so pushing a rebuild of
// the same dump replaces the earlier snapshot. [MongoStore] persists
// snapshots in MongoDB; [MemoryStore] keeps them in process for tests and
// single-shot CLI runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/genregraph/pkg/cache"
	apperr "github.com/matzehuels/genregraph/pkg/errors"
	"github.com/matzehuels/genregraph/pkg/graph"
)

// Latest selects the most recent snapshot in [Store.Pull].
const Latest = "latest"

// ErrNotFound is returned when no snapshot matches.
var ErrNotFound = errors.New("snapshot not found")

// Store persists dataset snapshots.
type Store interface {
	// Push stores ds under its dump date, replacing any earlier snapshot
	// for the same date.
	Push(ctx context.Context, ds *graph.Dataset) (Summary, error)
	// Pull returns the snapshot for dumpDate, or the newest one for
	// [Latest] or "".
	Pull(ctx context.Context, dumpDate string) (*graph.Dataset, error)
	// List returns snapshot summaries, newest first.
	List(ctx context.Context) ([]Summary, error)
	// Delete removes the snapshot for dumpDate.
	Delete(ctx context.Context, dumpDate string) error
	// Close releases backend resources.
	Close(ctx context.Context) error
}

// Summary describes a stored snapshot without its payload.
type Summary struct {
	DumpDate  string    `json:"dump_date" bson:"_id"`
	Hash      string    `json:"hash" bson:"hash"`
	Nodes     int       `json:"nodes" bson:"nodes"`
	Links     int       `json:"links" bson:"links"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type snapshot struct {
	Summary `bson:",inline"`
	Dataset *graph.Dataset `bson:"dataset"`
}

func newSnapshot(ds *graph.Dataset, now time.Time) (snapshot, error) {
	if ds == nil {
		return snapshot{}, apperr.New(apperr.ErrCodeInvalidInput, "dataset is nil")
	}
	if ds.DumpDate == "" {
		return snapshot{}, apperr.New(apperr.ErrCodeInvalidDataset, "dataset has no dump_date; rebuild it with --dump")
	}
	if _, err := time.Parse(time.DateOnly, ds.DumpDate); err != nil {
		return snapshot{}, apperr.Wrap(apperr.ErrCodeInvalidDataset, err, "dump_date %q is not a date", ds.DumpDate)
	}
	data, err := graph.Marshal(ds)
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{
		Summary: Summary{
			DumpDate:  ds.DumpDate,
			Hash:      cache.Hash(data),
			Nodes:     len(ds.Nodes),
			Links:     len(ds.Links),
			CreatedAt: now.UTC().Truncate(time.Millisecond),
		},
		Dataset: ds,
	}, nil
}

func notFound(dumpDate string) error {
	if dumpDate == "" || dumpDate == Latest {
		return apperr.Wrap(apperr.ErrCodeSnapshotNotFound, ErrNotFound, "no snapshots stored")
	}
	return apperr.Wrap(apperr.ErrCodeSnapshotNotFound, ErrNotFound, "no snapshot for %s", dumpDate)
}
