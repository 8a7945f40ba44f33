package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/config"
	"github.com/matzehuels/forcegraph/pkg/generate"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/layout/force"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
	"github.com/matzehuels/forcegraph/pkg/render/nodelink"
)

// paramFlags are the generator parameters shared by generate, layout and watch.
type paramFlags struct {
	generator string
	params    generate.Params
	seed      uint64
}

func (f *paramFlags) register(cmd *cobra.Command, withGenerator bool) {
	fs := cmd.Flags()
	if withGenerator {
		fs.StringVarP(&f.generator, "generator", "g", "", "generate the input graph: barabasi-albert, erdos-renyi, geometric, watts-strogatz")
	}
	fs.IntVarP(&f.params.Nodes, "nodes", "n", 100, "number of nodes")
	fs.IntVar(&f.params.EdgesPerNode, "edges-per-node", 2, "edges added per node (barabasi-albert)")
	fs.Float64Var(&f.params.Probability, "probability", 0.05, "edge probability (erdos-renyi) or rewiring probability (watts-strogatz)")
	fs.Float64Var(&f.params.Radius, "connect-radius", 0.2, "connection radius in the unit square (geometric)")
	fs.IntVar(&f.params.AvgDegree, "avg-degree", 4, "mean degree, must be even (watts-strogatz)")
	fs.Uint64Var(&f.seed, "seed", pipeline.DefaultSeed, "random seed for generation and layout")
}

// apply copies the flags the user set onto opts. All parameter flags are
// taken together whenever one of them was set, so defaults fill the rest.
func (f *paramFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	fs := cmd.Flags()
	if fs.Changed("generator") {
		opts.Generator = f.generator
	}
	for _, name := range []string{"nodes", "edges-per-node", "probability", "connect-radius", "avg-degree"} {
		if fs.Changed(name) || opts.Params == (generate.Params{}) {
			opts.Params = f.params
			break
		}
	}
	if fs.Changed("seed") || opts.Seed == 0 {
		opts.Seed = f.seed
	}
}

// layoutFlags select and tune the layout algorithm.
type layoutFlags struct {
	paramFlags

	configPath string
	algorithm  string
	radius     float64
	workers    int
	timeout    time.Duration

	force   force.Config
	forces  string
	cooling string
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	f.paramFlags.register(cmd, true)
	f.force = force.DefaultConfig()

	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "load options from a .toml, .yaml or .json file; flags override it")
	fs.StringVarP(&f.algorithm, "algorithm", "a", pipeline.DefaultAlgorithm, "layout algorithm: force, sphere")
	fs.Float64Var(&f.radius, "radius", 250, "sphere radius (sphere)")
	fs.IntVar(&f.workers, "workers", 0, "goroutines for the repulsion pass (0 or 1: serial)")
	fs.DurationVar(&f.timeout, "timeout", 0, "abort the layout after this long (0: no limit)")

	fs.IntVarP(&f.force.MaxIterations, "iterations", "i", f.force.MaxIterations, "simulation iterations")
	fs.Float64Var(&f.force.Area, "area", f.force.Area, "side of the bounding cube")
	fs.Float64Var(&f.force.Jitter, "jitter", f.force.Jitter, "positional noise at the initial temperature")
	fs.Float64Var(&f.force.GravityForce, "gravity", f.force.GravityForce, "pull toward the origin per step")
	fs.Float64Var(&f.force.TemperatureMultiplier, "temperature", f.force.TemperatureMultiplier, "initial temperature multiplier")
	fs.Float64Var(&f.force.CoolDownFactor, "cool-down", f.force.CoolDownFactor, "temperature factor per iteration, in (0, 1)")
	fs.Float64Var(&f.force.RepulsionMultiplier, "repulsion", f.force.RepulsionMultiplier, "repulsion multiplier")
	fs.Float64Var(&f.force.AttractionMultiplier, "attraction", f.force.AttractionMultiplier, "attraction multiplier")
	fs.StringVar(&f.forces, "forces", string(force.ForcesLogarithmic), "force laws: logarithmic, classic")
	fs.StringVar(&f.cooling, "cooling", string(force.CoolingGeometric), "cooling schedule: geometric, adaptive")
}

// engineFlags maps flag names to the Config field they set.
var engineFlags = map[string]func(dst *force.Config, src force.Config){
	"iterations":  func(d *force.Config, s force.Config) { d.MaxIterations = s.MaxIterations },
	"area":        func(d *force.Config, s force.Config) { d.Area = s.Area },
	"jitter":      func(d *force.Config, s force.Config) { d.Jitter = s.Jitter },
	"gravity":     func(d *force.Config, s force.Config) { d.GravityForce = s.GravityForce },
	"temperature": func(d *force.Config, s force.Config) { d.TemperatureMultiplier = s.TemperatureMultiplier },
	"cool-down":   func(d *force.Config, s force.Config) { d.CoolDownFactor = s.CoolDownFactor },
	"repulsion":   func(d *force.Config, s force.Config) { d.RepulsionMultiplier = s.RepulsionMultiplier },
	"attraction":  func(d *force.Config, s force.Config) { d.AttractionMultiplier = s.AttractionMultiplier },
}

// options builds pipeline options from the config file, if any, with every
// explicitly set flag applied on top. input, when not empty, is a graph file
// that replaces generation.
func (f *layoutFlags) options(cmd *cobra.Command, input string) (pipeline.Options, error) {
	var opts pipeline.Options
	if f.configPath != "" {
		loaded, err := config.LoadFile(f.configPath)
		if err != nil {
			return opts, err
		}
		opts = loaded
	}

	if input != "" {
		g, err := graph.ReadGraphFile(input)
		if err != nil {
			return opts, err
		}
		opts.Graph = g
		opts.Generator = ""
	}
	f.paramFlags.apply(cmd, &opts)

	fs := cmd.Flags()
	if fs.Changed("algorithm") || opts.Algorithm == "" {
		opts.Algorithm = f.algorithm
	}
	if fs.Changed("radius") {
		opts.Radius = f.radius
	}
	if fs.Changed("workers") {
		opts.Workers = f.workers
	}
	if fs.Changed("timeout") {
		opts.TimeoutSeconds = f.timeout.Seconds()
	}

	if opts.Force == nil {
		cfg := force.DefaultConfig()
		opts.Force = &cfg
	}
	for name, set := range engineFlags {
		if fs.Changed(name) {
			set(opts.Force, f.force)
		}
	}
	if fs.Changed("forces") {
		opts.Force.Forces = force.Forces(f.forces)
	}
	if fs.Changed("cooling") {
		opts.Force.Cooling = force.Cooling(f.cooling)
	}
	return opts, nil
}

// renderFlags choose output formats and projection.
type renderFlags struct {
	formats    string
	projection string
	detailed   bool
	output     string
}

func (f *renderFlags) register(cmd *cobra.Command, defaultFormat string) {
	fs := cmd.Flags()
	fs.StringVarP(&f.formats, "format", "f", "", "output format(s): json, dot, svg (comma-separated, default "+defaultFormat+")")
	fs.StringVarP(&f.projection, "projection", "p", string(nodelink.ProjectXY), "projection plane: xy, xz, yz")
	fs.BoolVar(&f.detailed, "detailed", false, "add positions and metadata to node labels")
	fs.StringVarP(&f.output, "output", "o", "", "output file (single format) or base path (several formats)")
}

func (f *renderFlags) apply(cmd *cobra.Command, opts *pipeline.Options, defaultFormat string) {
	fs := cmd.Flags()
	if fs.Changed("format") || len(opts.Formats) == 0 {
		opts.Formats = parseFormats(f.formats, defaultFormat)
	}
	if fs.Changed("projection") || opts.Projection == "" {
		opts.Projection = nodelink.Projection(f.projection)
	}
	if fs.Changed("detailed") {
		opts.Detailed = f.detailed
	}
}
