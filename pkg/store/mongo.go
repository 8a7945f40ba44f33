package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/generate"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/layout/force"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
)

// Mongo defaults.
const (
	DefaultDatabase = "forcegraph"
	RunsCollection  = "runs"
)

// MongoStore keeps runs in the "runs" collection with the run ID as _id.
type MongoStore struct {
	client *mongo.Client
	runs   *mongo.Collection
}

// NewMongoStore connects to uri, pings the server and ensures the
// created_at index exists. An empty database means DefaultDatabase.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}

	s := &MongoStore{client: client, runs: client.Database(database).Collection(RunsCollection)}
	_, err = s.runs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create runs index: %w", err)
	}
	return s, nil
}

// runDoc is the stored shape of a Run. The seed is kept as int64 bits
// because BSON has no unsigned 64-bit integer.
type runDoc struct {
	ID        string    `bson:"_id"`
	CreatedAt time.Time `bson:"created_at"`

	Generator  string          `bson:"generator,omitempty"`
	Params     generate.Params `bson:"params"`
	Algorithm  string          `bson:"algorithm"`
	Seed       int64           `bson:"seed"`
	Force      *force.Config   `bson:"force,omitempty"`
	Radius     float64         `bson:"radius,omitempty"`
	Projection string          `bson:"projection,omitempty"`

	GraphHash string         `bson:"graph_hash"`
	Graph     *graph.Graph   `bson:"graph"`
	Stats     pipeline.Stats `bson:"stats"`
}

func toDoc(r *Run) runDoc {
	return runDoc{
		ID:         r.ID,
		CreatedAt:  r.CreatedAt,
		Generator:  r.Generator,
		Params:     r.Params,
		Algorithm:  r.Algorithm,
		Seed:       int64(r.Seed),
		Force:      r.Force,
		Radius:     r.Radius,
		Projection: r.Projection,
		GraphHash:  r.GraphHash,
		Graph:      r.Graph,
		Stats:      r.Stats,
	}
}

func (d runDoc) run() *Run {
	return &Run{
		ID:         d.ID,
		CreatedAt:  d.CreatedAt,
		Generator:  d.Generator,
		Params:     d.Params,
		Algorithm:  d.Algorithm,
		Seed:       uint64(d.Seed),
		Force:      d.Force,
		Radius:     d.Radius,
		Projection: d.Projection,
		GraphHash:  d.GraphHash,
		Graph:      d.Graph,
		Stats:      d.Stats,
	}
}

func (s *MongoStore) Save(ctx context.Context, run *Run) error {
	if err := errors.ValidateRunID(run.ID); err != nil {
		return err
	}
	_, err := s.runs.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: run.ID}},
		toDoc(run),
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Run, error) {
	if err := errors.ValidateRunID(id); err != nil {
		return nil, err
	}
	var doc runDoc
	err := s.runs.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeNotFound, "run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return doc.run(), nil
}

func (s *MongoStore) List(ctx context.Context, opts ListOptions) ([]*Run, error) {
	find := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(max(opts.Offset, 0))).
		SetLimit(int64(opts.limit()))

	cur, err := s.runs.Find(ctx, bson.D{}, find)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer cur.Close(ctx)

	var docs []runDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	runs := make([]*Run, len(docs))
	for i, d := range docs {
		runs[i] = d.run()
	}
	return runs, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateRunID(id); err != nil {
		return err
	}
	res, err := s.runs.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeNotFound, "run %s not found", id)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
