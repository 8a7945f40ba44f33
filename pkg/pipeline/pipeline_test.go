package pipeline

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/matzehuels/forcegraph/pkg/cache"
	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/generate"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/layout/force"
	"github.com/matzehuels/forcegraph/pkg/layout/sphere"
	"github.com/matzehuels/forcegraph/pkg/observability"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, errors.GetCode(err))
		}
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("empty formats should pass: %v", err)
	}
}

func TestValidateAlgorithmAndGenerator(t *testing.T) {
	if ValidateAlgorithm("force") != nil || ValidateAlgorithm("sphere") != nil {
		t.Error("known algorithms should pass")
	}
	if ValidateAlgorithm("spring") == nil {
		t.Error("unknown algorithm should fail")
	}
	for _, name := range generate.Names() {
		if err := ValidateGenerator(name); err != nil {
			t.Errorf("ValidateGenerator(%q): %v", name, err)
		}
	}
	if !errors.Is(ValidateGenerator("lattice"), errors.ErrCodeInvalidGenerator) {
		t.Error("unknown generator should be INVALID_GENERATOR")
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Generator: generate.NameErdosRenyi, Params: generate.Params{Nodes: 5}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("valid options should pass: %v", err)
	}

	if opts.Algorithm != AlgorithmForce {
		t.Errorf("Algorithm = %q", opts.Algorithm)
	}
	if opts.Seed != DefaultSeed {
		t.Errorf("Seed = %d", opts.Seed)
	}
	if opts.Force == nil || *opts.Force != force.DefaultConfig() {
		t.Errorf("Force = %+v", opts.Force)
	}
	if opts.Radius != sphere.DefaultRadius {
		t.Errorf("Radius = %v", opts.Radius)
	}
	if !reflect.DeepEqual(opts.Formats, []string{FormatJSON}) {
		t.Errorf("Formats = %v", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	// Idempotent: a second call keeps the result.
	opts.Algorithm = "bogus"
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call should be a no-op: %v", err)
	}
}

func TestOptionsValidation(t *testing.T) {
	badForce := force.DefaultConfig()
	badForce.CoolDownFactor = 1

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"no input", Options{}, errors.ErrCodeInvalidInput},
		{"both inputs", Options{Generator: "erdos-renyi", Graph: graph.New(1)}, errors.ErrCodeInvalidInput},
		{"bad edge", Options{Graph: &graph.Graph{Nodes: graph.New(1).Nodes, Edges: []graph.Edge{{Source: 0, Target: 3}}}}, errors.ErrCodeInvalidEdge},
		{"unknown generator", Options{Generator: "lattice"}, errors.ErrCodeInvalidGenerator},
		{"too many nodes", Options{Generator: "erdos-renyi", Params: generate.Params{Nodes: MaxNodes + 1}}, errors.ErrCodeInvalidGenerator},
		{"bad generator params", Options{Generator: "erdos-renyi", Params: generate.Params{Nodes: 5, Probability: 2}}, errors.ErrCodeInvalidGenerator},
		{"watts-strogatz degree above nodes", Options{Generator: "watts-strogatz", Params: generate.Params{Nodes: MaxNodes, AvgDegree: 1 << 40}}, errors.ErrCodeInvalidGenerator},
		{"watts-strogatz too many edges", Options{Generator: "watts-strogatz", Params: generate.Params{Nodes: MaxNodes, AvgDegree: 200}}, errors.ErrCodeInvalidGenerator},
		{"erdos-renyi too many edges", Options{Generator: "erdos-renyi", Params: generate.Params{Nodes: MaxNodes, Probability: 1}}, errors.ErrCodeInvalidGenerator},
		{"geometric too many edges", Options{Generator: "geometric", Params: generate.Params{Nodes: MaxNodes, Radius: 0.5}}, errors.ErrCodeInvalidGenerator},
		{"barabasi-albert too many edges", Options{Generator: "barabasi-albert", Params: generate.Params{Nodes: MaxNodes, EdgesPerNode: 1000}}, errors.ErrCodeInvalidGenerator},
		{"too many input edges", Options{Graph: &graph.Graph{Nodes: graph.New(2).Nodes, Edges: make([]graph.Edge, MaxEdges+1)}}, errors.ErrCodeInvalidInput},
		{"bad algorithm", Options{Graph: graph.New(1), Algorithm: "spring"}, errors.ErrCodeInvalidInput},
		{"negative workers", Options{Graph: graph.New(1), Workers: -1}, errors.ErrCodeInvalidInput},
		{"negative timeout", Options{Graph: graph.New(1), TimeoutSeconds: -1}, errors.ErrCodeInvalidConfig},
		{"bad force config", Options{Graph: graph.New(1), Force: &badForce}, errors.ErrCodeInvalidConfig},
		{"bad radius", Options{Graph: graph.New(1), Algorithm: "sphere", Radius: -5}, errors.ErrCodeInvalidConfig},
		{"bad format", Options{Graph: graph.New(1), Formats: []string{"png"}}, errors.ErrCodeInvalidFormat},
		{"bad projection", Options{Graph: graph.New(1), Projection: "iso"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestOptionsValidationEdgeBudget(t *testing.T) {
	opts := Options{Generator: "erdos-renyi", Params: generate.Params{Nodes: MaxNodes, Probability: 0.01}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("about %d edges should be accepted: %v", MaxEdges, err)
	}
}

func TestLayoutKeyOpts(t *testing.T) {
	a := Options{Algorithm: AlgorithmSphere, Radius: 10, Seed: 1}
	b := Options{Algorithm: AlgorithmSphere, Radius: 10, Seed: 2}
	if !reflect.DeepEqual(a.LayoutKeyOpts(), b.LayoutKeyOpts()) {
		t.Error("sphere layout keys should ignore the seed")
	}

	cfg := force.DefaultConfig()
	c := Options{Algorithm: AlgorithmForce, Force: &cfg, Seed: 1, Workers: 1}
	d := Options{Algorithm: AlgorithmForce, Force: &cfg, Seed: 1, Workers: 8}
	if !reflect.DeepEqual(c.LayoutKeyOpts(), d.LayoutKeyOpts()) {
		t.Error("force layout keys should ignore the worker count")
	}
}

func TestGenerateGraphDeterministic(t *testing.T) {
	opts := Options{Generator: generate.NameBarabasiAlbert, Params: generate.Params{Nodes: 30, EdgesPerNode: 2}, Seed: 9}
	a, err := GenerateGraph(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := GenerateGraph(context.Background(), opts)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed should produce the same graph")
	}
}

func smallForce() *force.Config {
	cfg := force.DefaultConfig()
	cfg.MaxIterations = 20
	return &cfg
}

func TestComputeLayoutLeavesInputUntouched(t *testing.T) {
	g := graph.New(4)
	g.AddEdge(0, 1)
	g.AddEdge(2, 3)

	opts := Options{Graph: g, Force: smallForce()}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	laid, info, err := ComputeLayout(context.Background(), g, opts)
	if err != nil {
		t.Fatal(err)
	}
	if info.Iterations != 20 {
		t.Errorf("Iterations = %d, want 20", info.Iterations)
	}
	if !laid.HasAllPositions() {
		t.Error("every node should be positioned")
	}
	if g.Nodes[0].Position != nil {
		t.Error("input graph must not be modified")
	}
}

func TestComputeLayoutSphere(t *testing.T) {
	g := graph.New(10)
	opts := Options{Graph: g, Algorithm: AlgorithmSphere, Radius: 3}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	laid, info, err := ComputeLayout(context.Background(), g, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !info.Settled || info.Iterations != 0 {
		t.Errorf("info = %+v", info)
	}
	if got, want := *laid.Nodes[4].Position, sphere.Position(4, 10, 3); got != want {
		t.Errorf("node 4 = %v, want %v", got, want)
	}
}

func TestComputeLayoutCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := graph.New(3)
	opts := Options{Graph: g}
	_ = opts.ValidateAndSetDefaults()
	_, _, err := ComputeLayout(ctx, g, opts)
	if !errors.Is(err, errors.ErrCodeCanceled) {
		t.Errorf("err = %v, want CANCELED", err)
	}
}

func TestRunnerComputeLayoutCanceledKeepsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	g := graph.New(4)
	g.AddEdge(0, 1)
	opts := Options{Graph: g, Force: smallForce()}

	laid, info, err := runner.ComputeLayout(ctx, g, opts)
	if !errors.Is(err, errors.ErrCodeCanceled) {
		t.Fatalf("err = %v, want CANCELED", err)
	}
	if laid == nil || !laid.HasAllPositions() {
		t.Fatal("canceled layout should return the partially placed graph")
	}
	if info.Iterations != 0 {
		t.Errorf("Iterations = %d, want 0", info.Iterations)
	}
	if g.HasAllPositions() {
		t.Error("input graph was modified")
	}

	_, _, hit, err := runner.ComputeLayoutWithCacheInfo(context.Background(), g, opts)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("canceled layout should not have been cached")
	}
}

func TestRender(t *testing.T) {
	g := graph.New(2)
	g.AddEdge(0, 1)
	opts := Options{Graph: g, Algorithm: AlgorithmSphere, Formats: []string{FormatJSON, FormatDOT}}
	_ = opts.ValidateAndSetDefaults()
	laid, _, _ := ComputeLayout(context.Background(), g, opts)

	artifacts, err := Render(context.Background(), laid, opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := graph.UnmarshalGraph(artifacts[FormatJSON]); err != nil {
		t.Errorf("json artifact does not decode: %v", err)
	}
	if !strings.Contains(string(artifacts[FormatDOT]), `"0" -- "1";`) {
		t.Errorf("dot artifact = %s", artifacts[FormatDOT])
	}

	opts.Formats = []string{"png"}
	if _, err := Render(context.Background(), laid, opts); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("err = %v, want UNSUPPORTED", err)
	}
}

type countingCacheHooks struct {
	observability.NoopCacheHooks
	mu     sync.Mutex
	hits   map[string]int
	misses map[string]int
}

func (h *countingCacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits[keyType]++
}

func (h *countingCacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses[keyType]++
}

func TestRunnerExecuteCaches(t *testing.T) {
	hooks := &countingCacheHooks{hits: map[string]int{}, misses: map[string]int{}}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	opts := Options{
		Generator: generate.NameWattsStrogatz,
		Params:    generate.Params{Nodes: 24, AvgDegree: 4, Probability: 0.1},
		Force:     smallForce(),
		Formats:   []string{FormatJSON, FormatDOT},
	}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.CacheInfo != (CacheInfo{}) {
		t.Errorf("first run should miss everywhere: %+v", first.CacheInfo)
	}
	if first.Stats.NodeCount != 24 || first.Stats.EdgeCount != 24*4 {
		t.Errorf("stats = %+v", first.Stats)
	}
	if first.Stats.Iterations != 20 {
		t.Errorf("Iterations = %d", first.Stats.Iterations)
	}
	if len(first.GraphHash) != 64 {
		t.Errorf("GraphHash = %q", first.GraphHash)
	}

	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if second.CacheInfo != (CacheInfo{GenerateHit: true, LayoutHit: true, RenderHit: true}) {
		t.Errorf("second run should hit everywhere: %+v", second.CacheInfo)
	}
	if !reflect.DeepEqual(first.Graph.Positions(), second.Graph.Positions()) {
		t.Error("cached layout differs from the computed one")
	}
	if !reflect.DeepEqual(first.Artifacts, second.Artifacts) {
		t.Error("cached artifacts differ")
	}
	if hooks.hits[keyTypeLayout] != 1 || hooks.misses[keyTypeLayout] != 1 {
		t.Errorf("layout hooks: hits=%d misses=%d", hooks.hits[keyTypeLayout], hooks.misses[keyTypeLayout])
	}

	opts.Refresh = true
	third, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.LayoutHit {
		t.Error("Refresh should bypass the cache")
	}
	if !reflect.DeepEqual(first.Graph.Positions(), third.Graph.Positions()) {
		t.Error("seeded layouts should be reproducible")
	}
}

func TestRunnerExecuteInputGraph(t *testing.T) {
	g := graph.New(5)
	g.AddEdge(0, 4)

	runner := NewRunner(nil, nil, nil)
	res, err := runner.Execute(context.Background(), Options{Graph: g, Algorithm: AlgorithmSphere})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.GenerateHit || res.Stats.GenerateTime != 0 {
		t.Error("input graphs skip the generate stage")
	}
	if !res.Graph.HasAllPositions() {
		t.Error("result graph should be positioned")
	}
}

func TestRunnerGenerateRejectsInputGraph(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	if _, err := runner.Generate(context.Background(), Options{Graph: graph.New(1)}); err == nil {
		t.Error("Generate with an input graph should fail")
	}
}
