// Package mongo provides a MongoDB-backed checkpoint.Store for durable,
// multi-process deployments, grounded on the teacher's features/run/mongo
// and features/memory/mongo stores (collection-per-concern, bson document
// shape, upsert-by-natural-key).
package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/arwynlabs/graphrt/checkpoint"
)

const (
	defaultCollection = "graphrt_checkpoints"
	defaultOpTimeout  = 5 * time.Second
)

// Options configures the Mongo-backed checkpoint store.
type Options struct {
	Client     *mongodriver.Client
	Database   string
	Collection string
	Timeout    time.Duration
}

// Store implements checkpoint.Store[S] over a single Mongo collection,
// indexed on (thread_id, checkpoint_ns, ts) so GetTuple/List can page
// without a full collection scan.
type Store[S any] struct {
	coll    *mongodriver.Collection
	timeout time.Duration
}

// New constructs a Store and ensures its supporting indexes exist.
func New[S any](opts Options) (*Store[S], error) {
	if opts.Client == nil {
		return nil, errors.New("checkpoint/mongo: client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("checkpoint/mongo: database is required")
	}
	collName := opts.Collection
	if collName == "" {
		collName = defaultCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	coll := opts.Client.Database(opts.Database).Collection(collName)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	idx := mongodriver.IndexModel{
		Keys: bson.D{
			{Key: "thread_id", Value: 1},
			{Key: "checkpoint_ns", Value: 1},
			{Key: "ts", Value: -1},
		},
	}
	if _, err := coll.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, err
	}
	uniqIdx := mongodriver.IndexModel{
		Keys: bson.D{
			{Key: "thread_id", Value: 1},
			{Key: "checkpoint_ns", Value: 1},
			{Key: "checkpoint_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	if _, err := coll.Indexes().CreateOne(ctx, uniqIdx); err != nil {
		return nil, err
	}
	return &Store[S]{coll: coll, timeout: timeout}, nil
}

type document[S any] struct {
	ThreadID        string                      `bson:"thread_id"`
	CheckpointNS    string                      `bson:"checkpoint_ns"`
	CheckpointID    string                      `bson:"checkpoint_id"`
	V               int64                       `bson:"v"`
	TS              string                      `bson:"ts"`
	ChannelValues   S                           `bson:"channel_values"`
	ChannelVersions map[string]int64            `bson:"channel_versions,omitempty"`
	VersionsSeen    map[string]map[string]int64 `bson:"versions_seen,omitempty"`
	UpdatedChannels []string                    `bson:"updated_channels,omitempty"`
	PendingSends    []checkpoint.PendingSend    `bson:"pending_sends,omitempty"`
	Meta            checkpoint.Metadata         `bson:"metadata"`
}

func toDocument[S any](cfg checkpoint.Config, cp checkpoint.Checkpoint[S]) document[S] {
	return document[S]{
		ThreadID:        cfg.ThreadID,
		CheckpointNS:    cfg.CheckpointNS,
		CheckpointID:    cp.ID,
		V:               cp.V,
		TS:              cp.TS,
		ChannelValues:   cp.ChannelValues,
		ChannelVersions: cp.ChannelVersions,
		VersionsSeen:    cp.VersionsSeen,
		UpdatedChannels: cp.UpdatedChannels,
		PendingSends:    cp.PendingSends,
		Meta:            cp.Meta,
	}
}

func (d document[S]) toCheckpoint() checkpoint.Checkpoint[S] {
	return checkpoint.Checkpoint[S]{
		V:               d.V,
		ID:              d.CheckpointID,
		TS:              d.TS,
		ChannelValues:   d.ChannelValues,
		ChannelVersions: d.ChannelVersions,
		VersionsSeen:    d.VersionsSeen,
		UpdatedChannels: d.UpdatedChannels,
		PendingSends:    d.PendingSends,
		Meta:            d.Meta,
	}
}

func (s *Store[S]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store[S]) Put(ctx context.Context, cfg checkpoint.Config, cp checkpoint.Checkpoint[S]) (string, error) {
	if cfg.ThreadID == "" {
		return "", checkpoint.ErrThreadIDRequired
	}
	if cp.TS == "" {
		cp.TS = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	doc := toDocument(cfg, cp)
	filter := bson.M{"thread_id": cfg.ThreadID, "checkpoint_ns": cfg.CheckpointNS, "checkpoint_id": cp.ID}
	update := bson.M{"$set": doc}
	_, err := s.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return "", &checkpoint.StorageError{Cause: err}
	}
	return cp.ID, nil
}

func (s *Store[S]) GetTuple(ctx context.Context, cfg checkpoint.Config) (checkpoint.Checkpoint[S], bool, error) {
	var zero checkpoint.Checkpoint[S]
	if cfg.ThreadID == "" {
		return zero, false, checkpoint.ErrThreadIDRequired
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	filter := bson.M{"thread_id": cfg.ThreadID, "checkpoint_ns": cfg.CheckpointNS}
	findOpts := options.FindOne()
	if cfg.CheckpointID != "" {
		filter["checkpoint_id"] = cfg.CheckpointID
	} else {
		findOpts.SetSort(bson.D{{Key: "ts", Value: -1}})
	}

	var doc document[S]
	err := s.coll.FindOne(ctx, filter, findOpts).Decode(&doc)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, &checkpoint.StorageError{Cause: err}
	}
	return doc.toCheckpoint(), true, nil
}

func (s *Store[S]) List(ctx context.Context, cfg checkpoint.Config, limit int, before, after string) ([]checkpoint.ListItem, error) {
	if cfg.ThreadID == "" {
		return nil, checkpoint.ErrThreadIDRequired
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	filter := bson.M{"thread_id": cfg.ThreadID, "checkpoint_ns": cfg.CheckpointNS}
	findOpts := options.Find().SetSort(bson.D{{Key: "ts", Value: -1}})
	if limit > 0 {
		// Pagination cursors operate on checkpoint ids, so fetch a
		// generous window and trim client-side after filtering by
		// before/after; a production deployment would push this into the
		// query via a secondary ts lookup per cursor id.
		findOpts.SetLimit(int64(limit) * 4)
	}

	cursor, err := s.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, &checkpoint.StorageError{Cause: err}
	}
	defer cursor.Close(ctx)

	var docs []document[S]
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &checkpoint.StorageError{Cause: err}
	}

	afterIdx, beforeIdx := -1, -1
	for i, d := range docs {
		if after != "" && d.CheckpointID == after {
			afterIdx = i
		}
		if before != "" && d.CheckpointID == before {
			beforeIdx = i
		}
	}
	start := 0
	if afterIdx >= 0 {
		start = afterIdx + 1
	}
	end := len(docs)
	if beforeIdx >= 0 {
		end = beforeIdx
	}
	if start > end {
		start = end
	}
	window := docs[start:end]
	if limit > 0 && len(window) > limit {
		window = window[:limit]
	}

	items := make([]checkpoint.ListItem, 0, len(window))
	for _, d := range window {
		items = append(items, checkpoint.ListItem{ID: d.CheckpointID, TS: d.TS, Meta: d.Meta})
	}
	return items, nil
}
