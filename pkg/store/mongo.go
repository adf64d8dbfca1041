package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	apperr "github.com/matzehuels/genregraph/pkg/errors"
	"github.com/matzehuels/genregraph/pkg/graph"
)

const (
	// DefaultDatabase is used when MongoConfig.Database is empty.
	DefaultDatabase = "genregraph"

	// DefaultCollection is used when MongoConfig.Collection is empty.
	DefaultCollection = "snapshots"

	connectTimeout = 10 * time.Second
)

// MongoConfig configures [NewMongoStore].
type MongoConfig struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string
	Collection string
}

// MongoStore is a [Store] backed by one MongoDB collection. Documents are
// keyed by dump date.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, apperr.New(apperr.ErrCodeInvalidInput, "mongo URI is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeUnavailable, err, "connect to mongo")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, apperr.Wrap(apperr.ErrCodeUnavailable, err, "ping mongo")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		now:    time.Now,
	}, nil
}

// Push implements [Store].
func (s *MongoStore) Push(ctx context.Context, ds *graph.Dataset) (Summary, error) {
	snap, err := newSnapshot(ds, s.now())
	if err != nil {
		return Summary{}, err
	}
	_, err = s.coll.ReplaceOne(ctx,
		bson.M{"_id": snap.DumpDate},
		snap,
		options.Replace().SetUpsert(true))
	if err != nil {
		return Summary{}, fmt.Errorf("store snapshot %s: %w", snap.DumpDate, err)
	}
	return snap.Summary, nil
}

// Pull implements [Store].
func (s *MongoStore) Pull(ctx context.Context, dumpDate string) (*graph.Dataset, error) {
	filter := bson.M{"_id": dumpDate}
	opts := options.FindOne()
	if dumpDate == "" || dumpDate == Latest {
		filter = bson.M{}
		opts.SetSort(bson.D{{Key: "_id", Value: -1}})
	}

	var snap snapshot
	err := s.coll.FindOne(ctx, filter, opts).Decode(&snap)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(dumpDate)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", dumpDate, err)
	}
	if snap.Dataset == nil {
		return nil, apperr.New(apperr.ErrCodeInvalidDataset, "snapshot %s has no dataset", snap.DumpDate)
	}
	snap.Dataset.DumpDate = snap.DumpDate
	return snap.Dataset, nil
}

// List implements [Store].
func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetProjection(bson.M{"dataset": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := []Summary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode snapshots: %w", err)
	}
	return out, nil
}

// Delete implements [Store].
func (s *MongoStore) Delete(ctx context.Context, dumpDate string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": dumpDate})
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", dumpDate, err)
	}
	if res.DeletedCount == 0 {
		return notFound(dumpDate)
	}
	return nil
}

// Close implements [Store].
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
