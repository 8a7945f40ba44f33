// Package pipeline runs the generate → layout → render flow shared by the
// CLI and the API server.
//
// # Stages
//
//  1. Generate: build a random graph from a named generator, or take the
//     graph supplied in [Options.Graph]
//  2. Layout: position every node with the force engine or on a sphere
//  3. Render: encode the positioned graph as JSON, DOT or SVG
//
// Each stage can run on its own. The [Runner] adds caching: generated graphs
// are keyed by generator parameters and seed, layouts by graph hash and
// layout options, artifacts by layout hash and format. Everything is seeded,
// so cached results are identical to fresh ones.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Generator: "barabasi-albert",
//	    Params:    generate.Params{Nodes: 200, EdgesPerNode: 2},
//	    Formats:   []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forcegraph/pkg/cache"
	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/generate"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/layout/force"
	"github.com/matzehuels/forcegraph/pkg/layout/sphere"
	"github.com/matzehuels/forcegraph/pkg/render/nodelink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultSeed is used when Options.Seed is zero.
	DefaultSeed = uint64(42)

	// DefaultAlgorithm is the layout used when none is named.
	DefaultAlgorithm = AlgorithmForce

	// MaxNodes bounds generated and submitted graphs. The force engine is
	// quadratic per step.
	MaxNodes = 20000

	// MaxEdges bounds submitted graphs and the expected size of generated
	// ones.
	MaxEdges = 2_000_000
)

// Layout algorithms.
const (
	AlgorithmForce  = "force"
	AlgorithmSphere = "sphere"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// ValidAlgorithms is the set of supported layout algorithms.
var ValidAlgorithms = map[string]bool{
	AlgorithmForce:  true,
	AlgorithmSphere: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline run. It is the body of API requests and the
// shape of configuration files.
type Options struct {
	// Input: exactly one of Generator or Graph.
	Generator string          `json:"generator,omitempty" toml:"generator" yaml:"generator,omitempty"`
	Params    generate.Params `json:"params" toml:"params" yaml:"params"`
	Graph     *graph.Graph    `json:"graph,omitempty" toml:"-" yaml:"-"`

	// Layout
	Algorithm string        `json:"algorithm,omitempty" toml:"algorithm" yaml:"algorithm,omitempty"`
	Force     *force.Config `json:"force,omitempty" toml:"force" yaml:"force,omitempty"`
	Radius    float64       `json:"radius,omitempty" toml:"radius" yaml:"radius,omitempty"`
	Seed      uint64        `json:"seed,omitempty" toml:"seed" yaml:"seed,omitempty"`
	Workers   int           `json:"workers,omitempty" toml:"workers" yaml:"workers,omitempty"`

	// TimeoutSeconds bounds the layout stage; 0 means no limit.
	TimeoutSeconds float64 `json:"timeout_seconds,omitempty" toml:"timeout_seconds" yaml:"timeout_seconds,omitempty"`

	// Render
	Formats    []string            `json:"formats,omitempty" toml:"formats" yaml:"formats,omitempty"`
	Projection nodelink.Projection `json:"projection,omitempty" toml:"projection" yaml:"projection,omitempty"`
	Detailed   bool                `json:"detailed,omitempty" toml:"detailed" yaml:"detailed,omitempty"`

	// Refresh skips cache reads but still writes fresh results.
	Refresh bool `json:"refresh,omitempty" toml:"refresh" yaml:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-" yaml:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the positioned graph.
	Graph *graph.Graph

	// GraphHash is the content hash of the input graph, before layout.
	GraphHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int           `json:"node_count" bson:"node_count"`
	EdgeCount    int           `json:"edge_count" bson:"edge_count"`
	Iterations   int           `json:"iterations" bson:"iterations"`
	Settled      bool          `json:"settled" bson:"settled"`
	GenerateTime time.Duration `json:"generate_time" bson:"generate_time"`
	LayoutTime   time.Duration `json:"layout_time" bson:"layout_time"`
	RenderTime   time.Duration `json:"render_time" bson:"render_time"`
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GenerateHit bool `json:"generate_hit"`
	LayoutHit   bool `json:"layout_hit"`
	RenderHit   bool `json:"render_hit"` // all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAlgorithm checks that a layout algorithm is valid.
func ValidateAlgorithm(algorithm string) error {
	if !ValidAlgorithms[algorithm] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid algorithm: %q (must be one of: force, sphere)", algorithm)
	}
	return nil
}

// ValidateGenerator checks that a generator name is registered.
func ValidateGenerator(name string) error {
	if !slices.Contains(generate.Names(), name) {
		return errors.New(errors.ErrCodeInvalidGenerator, "unknown generator %q (must be one of: %v)", name, generate.Names())
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the whole run and applies defaults.
// Calling it again is a no-op.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForGenerate(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForGenerate checks the input selection.
func (o *Options) ValidateForGenerate() error {
	o.setLogger()
	switch {
	case o.Generator == "" && o.Graph == nil:
		return errors.New(errors.ErrCodeInvalidInput, "generator or graph is required")
	case o.Generator != "" && o.Graph != nil:
		return errors.New(errors.ErrCodeInvalidInput, "generator and graph are mutually exclusive")
	case o.Graph != nil:
		if o.Graph.NodeCount() > MaxNodes {
			return errors.New(errors.ErrCodeInvalidInput, "graph has %d nodes (max %d)", o.Graph.NodeCount(), MaxNodes)
		}
		if o.Graph.EdgeCount() > MaxEdges {
			return errors.New(errors.ErrCodeInvalidInput, "graph has %d edges (max %d)", o.Graph.EdgeCount(), MaxEdges)
		}
		return o.Graph.Validate()
	}
	if err := ValidateGenerator(o.Generator); err != nil {
		return err
	}
	if o.Params.Nodes > MaxNodes {
		return errors.New(errors.ErrCodeInvalidGenerator, "nodes must be at most %d, got %d", MaxNodes, o.Params.Nodes)
	}
	gen, err := generate.New(o.Generator, o.Params)
	if err != nil {
		return err
	}
	if err := gen.Validate(); err != nil {
		return err
	}
	if n := gen.ExpectedEdges(); n > MaxEdges {
		return errors.New(errors.ErrCodeInvalidGenerator, "%s would produce about %.0f edges (max %d)", o.Generator, n, MaxEdges)
	}
	return nil
}

// SetLayoutDefaults fills empty layout fields.
func (o *Options) SetLayoutDefaults() {
	if o.Algorithm == "" {
		o.Algorithm = DefaultAlgorithm
	}
	if o.Force == nil {
		cfg := force.DefaultConfig()
		o.Force = &cfg
	}
	if o.Radius == 0 {
		o.Radius = sphere.DefaultRadius
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	o.setLogger()
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateAlgorithm(o.Algorithm); err != nil {
		return err
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must not be negative, got %d", o.Workers)
	}
	if err := errors.ValidateFinite("timeout_seconds", o.TimeoutSeconds); err != nil {
		return err
	}
	if o.TimeoutSeconds < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "timeout_seconds must not be negative, got %v", o.TimeoutSeconds)
	}
	if o.Algorithm == AlgorithmSphere {
		if err := errors.ValidateFinite("radius", o.Radius); err != nil {
			return err
		}
		if o.Radius <= 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "radius must be positive, got %v", o.Radius)
		}
		return nil
	}
	return o.Force.Validate()
}

// SetRenderDefaults fills empty render fields.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Projection == "" {
		o.Projection = nodelink.ProjectXY
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return nodelink.ValidateProjection(o.Projection)
}

// Timeout returns the layout time limit.
func (o *Options) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds * float64(time.Second))
}

// IsSphere reports whether the closed-form sphere layout is selected.
func (o *Options) IsSphere() bool { return o.Algorithm == AlgorithmSphere }

// GraphKeyOpts returns cache key options for a generated graph.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{Seed: o.Seed, Params: o.Params}
}

// LayoutKeyOpts returns cache key options for layout computation. Only the
// settings of the selected algorithm take part.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	if o.IsSphere() {
		return cache.LayoutKeyOpts{Algorithm: o.Algorithm, Radius: o.Radius}
	}
	return cache.LayoutKeyOpts{Algorithm: o.Algorithm, Seed: o.Seed, Config: o.Force}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format, Projection: string(o.Projection), Detailed: o.Detailed}
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}
