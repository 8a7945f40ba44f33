package store

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/generate"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
	"github.com/matzehuels/forcegraph/pkg/vec3"
)

func sampleRun(t *testing.T, id string, created time.Time) *Run {
	t.Helper()
	g := graph.New(3)
	g.AddEdge(0, 1)
	for i := range g.Nodes {
		p := vec3.New(float64(i), -float64(i), 0.5)
		g.Nodes[i].Position = &p
	}
	return &Run{
		ID:        id,
		CreatedAt: created,
		Generator: generate.NameErdosRenyi,
		Params:    generate.Params{Nodes: 3, Probability: 0.5},
		Algorithm: pipeline.AlgorithmSphere,
		Seed:      math.MaxUint64,
		Radius:    10,
		GraphHash: "abc",
		Graph:     g,
		Stats:     pipeline.Stats{NodeCount: 3, EdgeCount: 1, LayoutTime: time.Millisecond},
	}
}

func TestNewRun(t *testing.T) {
	opts := pipeline.Options{Generator: generate.NameGeometric, Params: generate.Params{Nodes: 4, Radius: 0.3}}
	require.NoError(t, opts.ValidateAndSetDefaults())
	res := &pipeline.Result{Graph: graph.New(4), GraphHash: "h", Stats: pipeline.Stats{NodeCount: 4}}

	run := NewRun(opts, res)

	require.NoError(t, errors.ValidateRunID(run.ID))
	assert.Len(t, run.ID, 36)
	assert.Equal(t, opts.Params, run.Params)
	assert.Equal(t, pipeline.AlgorithmForce, run.Algorithm)
	assert.NotNil(t, run.Force)
	assert.Zero(t, run.Radius)
	assert.Equal(t, pipeline.DefaultSeed, run.Seed)
	assert.False(t, run.CreatedAt.IsZero())

	other := NewRun(opts, res)
	assert.NotEqual(t, run.ID, other.ID)

	rebuilt := run.Options()
	require.NoError(t, rebuilt.ValidateAndSetDefaults())
	assert.Same(t, res.Graph, rebuilt.Graph)
}

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	run := sampleRun(t, "run-1", time.Now())
	require.NoError(t, s.Save(ctx, run))

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, got)

	// copies, not shared pointers
	got.Graph.Nodes[0].Position.X = 99
	again, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, again.Graph.Nodes[0].Position.X)

	require.NoError(t, s.Delete(ctx, "run-1"))
	_, err = s.Get(ctx, "run-1")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "got %v", err)
	assert.True(t, errors.Is(s.Delete(ctx, "run-1"), errors.ErrCodeNotFound))
}

func TestMemoryStoreRejectsBadIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, id := range []string{"", "a/b", "../etc"} {
		_, err := s.Get(ctx, id)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "Get(%q): %v", id, err)
		assert.True(t, errors.Is(s.Save(ctx, &Run{ID: id}), errors.ErrCodeInvalidInput))
	}
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Save(ctx, sampleRun(t, id, base.Add(time.Duration(i)*time.Minute))))
	}

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"all newest first", ListOptions{}, []string{"d", "c", "b", "a"}},
		{"limit", ListOptions{Limit: 2}, []string{"d", "c"}},
		{"offset", ListOptions{Offset: 1, Limit: 2}, []string{"c", "b"}},
		{"past end", ListOptions{Offset: 10}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := s.List(ctx, tt.opts)
			require.NoError(t, err)
			ids := make([]string, len(runs))
			for i, r := range runs {
				ids[i] = r.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestRunDocBSONRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 4, 5, 6, 7, 8_000_000, time.UTC)
	run := sampleRun(t, "doc-1", created)

	data, err := bson.Marshal(toDoc(run))
	require.NoError(t, err)

	var raw bson.M
	require.NoError(t, bson.Unmarshal(data, &raw))
	assert.Equal(t, "doc-1", raw["_id"])
	assert.Equal(t, int64(-1), raw["seed"], "seed is stored as int64 bits")

	var doc runDoc
	require.NoError(t, bson.Unmarshal(data, &doc))
	back := doc.run()

	assert.True(t, created.Equal(back.CreatedAt))
	back.CreatedAt = run.CreatedAt
	assert.Equal(t, run, back)
}

// TestMongoStore runs against a live server when FORCEGRAPH_MONGO_URI is set.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("FORCEGRAPH_MONGO_URI")
	if uri == "" {
		t.Skip("FORCEGRAPH_MONGO_URI not set")
	}
	ctx := context.Background()

	s, err := NewMongoStore(ctx, uri, "forcegraph_test")
	require.NoError(t, err)
	defer s.Close(ctx)
	defer s.runs.Drop(ctx)

	run := sampleRun(t, "mongo-1", time.Now().UTC().Truncate(time.Millisecond))
	require.NoError(t, s.Save(ctx, run))

	got, err := s.Get(ctx, "mongo-1")
	require.NoError(t, err)
	assert.Equal(t, run.Seed, got.Seed)
	assert.Equal(t, run.Graph, got.Graph)

	runs, err := s.List(ctx, ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	require.NoError(t, s.Delete(ctx, "mongo-1"))
	_, err = s.Get(ctx, "mongo-1")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}
