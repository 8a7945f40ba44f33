// Package cache stores generated graphs, computed layouts and rendered
// artifacts behind a small byte-oriented interface.
//
// Three backends exist: [FileCache] for the CLI, [RedisCache] for the API
// server and [NullCache] when caching is disabled. Keys are produced by a
// [Keyer] so that callers never build key strings by hand.
//
// RedisCache retries network failures with backoff and stops calling Redis
// for a while after repeated failures; callers see [ErrNetwork] and should
// treat it as a miss.
package cache

import (
	"context"
	"time"
)

// Default lifetimes per entry kind. Layouts are deterministic for a given
// graph, options and seed, so they can live long.
const (
	TTLGraph    = 7 * 24 * time.Hour
	TTLLayout   = 30 * 24 * time.Hour
	TTLArtifact = 30 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data. A non-positive ttl stores without expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Close() error
}

// GraphKeyOpts identifies a generated graph.
type GraphKeyOpts struct {
	Seed   uint64 `json:"seed"`
	Params any    `json:"params"`
}

// LayoutKeyOpts identifies a layout of a graph. Worker count is deliberately
// absent: parallel and serial runs produce identical positions.
type LayoutKeyOpts struct {
	Algorithm string  `json:"algorithm"`
	Seed      uint64  `json:"seed"`
	Radius    float64 `json:"radius,omitempty"`
	Config    any     `json:"config,omitempty"`
}

// ArtifactKeyOpts identifies a rendered output of a layout.
type ArtifactKeyOpts struct {
	Format     string `json:"format"`
	Projection string `json:"projection,omitempty"`
	Detailed   bool   `json:"detailed,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	GraphKey(generator string, opts GraphKeyOpts) string
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) GraphKey(generator string, opts GraphKeyOpts) string {
	return hashKey("graph", generator, opts)
}

func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
