package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forcegraph/pkg/cache"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/observability"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeGraph    = "graph"
	keyTypeLayout   = "layout"
	keyTypeArtifact = "artifact"
)

// Runner executes pipeline stages with caching.
//
// It holds no per-run state, so one Runner can serve concurrent requests
// with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// means DefaultKeyer and a nil logger means log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs generate → layout → render.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{}

	// Stage 1: Generate (or take the supplied graph)
	input := opts.Graph
	if input == nil {
		start := time.Now()
		g, hit, err := r.GenerateWithCacheInfo(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
		input = g
		result.Stats.GenerateTime = time.Since(start)
		result.CacheInfo.GenerateHit = hit

		r.Logger.Info("generated graph",
			"generator", opts.Generator,
			"nodes", g.NodeCount(),
			"edges", g.EdgeCount(),
			"duration", result.Stats.GenerateTime)
	}
	result.Stats.NodeCount = input.NodeCount()
	result.Stats.EdgeCount = input.EdgeCount()
	if h, err := graphHash(input); err == nil {
		result.GraphHash = h
	}

	// Stage 2: Layout
	start := time.Now()
	laid, info, hit, err := r.ComputeLayoutWithCacheInfo(ctx, input, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Graph = laid
	result.Stats.Iterations = info.Iterations
	result.Stats.Settled = info.Settled
	result.Stats.LayoutTime = time.Since(start)
	result.CacheInfo.LayoutHit = hit

	r.Logger.Info("computed layout",
		"algorithm", opts.Algorithm,
		"iterations", info.Iterations,
		"settled", info.Settled,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	start = time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, laid, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)
	result.CacheInfo.RenderHit = hit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// GenerateWithCacheInfo builds the generator graph, reporting whether it
// came from the cache.
func (r *Runner) GenerateWithCacheInfo(ctx context.Context, opts Options) (*graph.Graph, bool, error) {
	r.applyLogger(&opts)
	if opts.Graph != nil {
		return nil, false, fmt.Errorf("options carry an input graph, nothing to generate")
	}
	if err := opts.ValidateForGenerate(); err != nil {
		return nil, false, err
	}
	opts.SetLayoutDefaults()

	hooks := observability.Pipeline()
	key := r.Keyer.GraphKey(opts.Generator, opts.GraphKeyOpts())

	if !opts.Refresh {
		if data, ok := r.lookup(ctx, key, keyTypeGraph); ok {
			if g, err := graph.UnmarshalGraph(data); err == nil {
				return g, true, nil
			}
		}
	}

	hooks.OnGenerateStart(ctx, opts.Generator)
	start := time.Now()
	g, err := GenerateGraph(ctx, opts)
	if err != nil {
		hooks.OnGenerateComplete(ctx, opts.Generator, 0, 0, time.Since(start), err)
		return nil, false, err
	}
	hooks.OnGenerateComplete(ctx, opts.Generator, g.NodeCount(), g.EdgeCount(), time.Since(start), nil)

	if data, err := graph.MarshalGraph(g); err == nil {
		r.store(ctx, key, keyTypeGraph, data, cache.TTLGraph)
	}
	return g, false, nil
}

// Generate is GenerateWithCacheInfo without the hit flag.
func (r *Runner) Generate(ctx context.Context, opts Options) (*graph.Graph, error) {
	g, _, err := r.GenerateWithCacheInfo(ctx, opts)
	return g, err
}

// layoutEntry is the cached form of a layout.
type layoutEntry struct {
	Graph *graph.Graph `json:"graph"`
	Info  LayoutInfo   `json:"info"`
}

// ComputeLayoutWithCacheInfo lays out a copy of g, reporting whether the
// result came from the cache. Canceled and timed-out runs are not cached;
// their partial layout is returned with the error.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, g *graph.Graph, opts Options) (*graph.Graph, LayoutInfo, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, LayoutInfo{}, false, err
	}
	if err := g.Validate(); err != nil {
		return nil, LayoutInfo{}, false, err
	}

	h, err := graphHash(g)
	if err != nil {
		return nil, LayoutInfo{}, false, fmt.Errorf("hash graph: %w", err)
	}
	key := r.Keyer.LayoutKey(h, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, ok := r.lookup(ctx, key, keyTypeLayout); ok {
			var entry layoutEntry
			if err := json.Unmarshal(data, &entry); err == nil && entry.Graph != nil && entry.Graph.Validate() == nil {
				return entry.Graph, entry.Info, true, nil
			}
		}
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.Algorithm, g.NodeCount())
	start := time.Now()
	laid, info, err := ComputeLayout(ctx, g, opts)
	hooks.OnLayoutComplete(ctx, opts.Algorithm, info.Iterations, time.Since(start), err)
	if err != nil {
		return laid, info, false, err
	}

	if data, err := json.Marshal(layoutEntry{Graph: laid, Info: info}); err == nil {
		r.store(ctx, key, keyTypeLayout, data, cache.TTLLayout)
	}
	return laid, info, false, nil
}

// ComputeLayout is ComputeLayoutWithCacheInfo without the hit flag.
func (r *Runner) ComputeLayout(ctx context.Context, g *graph.Graph, opts Options) (*graph.Graph, LayoutInfo, error) {
	laid, info, _, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	return laid, info, err
}

// RenderWithCacheInfo renders every requested format. The hit flag is true
// only when all formats came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *graph.Graph, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	h, err := graphHash(g)
	if err != nil {
		return nil, false, fmt.Errorf("hash layout: %w", err)
	}

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, ok := r.lookup(ctx, r.Keyer.ArtifactKey(h, opts.ArtifactKeyOpts(format)), keyTypeArtifact)
			if !ok {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, g, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		r.store(ctx, r.Keyer.ArtifactKey(h, opts.ArtifactKeyOpts(format)), keyTypeArtifact, data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// Render is RenderWithCacheInfo without the hit flag.
func (r *Runner) Render(ctx context.Context, g *graph.Graph, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, opts)
	return artifacts, err
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// lookup reads key and reports the outcome to the cache hooks. Backend
// errors count as misses.
func (r *Runner) lookup(ctx context.Context, key, keyType string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "type", keyType, "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

// store writes key; failures are logged and otherwise ignored.
func (r *Runner) store(ctx context.Context, key, keyType string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func graphHash(g *graph.Graph) (string, error) {
	data, err := graph.MarshalGraph(g)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}
