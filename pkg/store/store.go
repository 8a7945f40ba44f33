// Package store persists finished layout runs so the API can serve them
// after the request that computed them.
//
// [MemoryStore] keeps runs in process and is the default for `forcegraph
// serve`; [MongoStore] keeps them in a MongoDB collection shared by all
// server replicas.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/forcegraph/pkg/generate"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/layout/force"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
	"github.com/matzehuels/forcegraph/pkg/render/nodelink"
)

// DefaultListLimit caps List when ListOptions.Limit is zero.
const DefaultListLimit = 50

// Run is one completed pipeline execution.
type Run struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Generator  string          `json:"generator,omitempty"`
	Params     generate.Params `json:"params"`
	Algorithm  string          `json:"algorithm"`
	Seed       uint64          `json:"seed"`
	Force      *force.Config   `json:"force,omitempty"`
	Radius     float64         `json:"radius,omitempty"`
	Projection string          `json:"projection,omitempty"`

	GraphHash string         `json:"graph_hash"`
	Graph     *graph.Graph   `json:"graph"`
	Stats     pipeline.Stats `json:"stats"`
}

// NewRun records a finished pipeline result under a fresh random ID. opts
// must have been validated.
func NewRun(opts pipeline.Options, res *pipeline.Result) *Run {
	r := &Run{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Generator:  opts.Generator,
		Algorithm:  opts.Algorithm,
		Seed:       opts.Seed,
		Projection: string(opts.Projection),
		GraphHash:  res.GraphHash,
		Graph:      res.Graph,
		Stats:      res.Stats,
	}
	if opts.Generator != "" {
		r.Params = opts.Params
	}
	if opts.IsSphere() {
		r.Radius = opts.Radius
	} else {
		r.Force = opts.Force
	}
	return r
}

// Options rebuilds pipeline options that render this run's graph.
func (r *Run) Options() pipeline.Options {
	return pipeline.Options{
		Graph:      r.Graph,
		Algorithm:  r.Algorithm,
		Seed:       r.Seed,
		Force:      r.Force,
		Radius:     r.Radius,
		Projection: nodelink.Projection(r.Projection),
	}
}

// ListOptions pages through runs, newest first.
type ListOptions struct {
	Limit  int
	Offset int
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultListLimit
	}
	return o.Limit
}

// Store persists runs. Get and Delete return a NOT_FOUND error for unknown
// IDs and an INVALID_INPUT error for malformed ones.
type Store interface {
	Save(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, opts ListOptions) ([]*Run, error)
	Delete(ctx context.Context, id string) error
	Close(ctx context.Context) error
}
