package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/pipeline"
)

// layoutCommand creates the layout command for computing 3-D layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags   layoutFlags
		render  renderFlags
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute a 3-D layout for a graph",
		Long: `Compute a 3-D layout for a graph file or a generated graph.

The input is either a graph.json file (as written by 'generate') or a generator
selected with --generator. The force algorithm runs a Fruchterman-Reingold
simulation for --iterations steps; the sphere algorithm spreads the nodes
evenly over a sphere.

Options may come from a --config file; flags given on the command line win.
Results are cached locally for faster subsequent runs.`,
		Example: `  forcegraph layout -g barabasi-albert -n 300 --iterations 300
  forcegraph layout graph.json -f json,svg -o out/graph
  forcegraph layout --config layout.toml --seed 7`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			opts, err := flags.options(cmd, input)
			if err != nil {
				return err
			}
			render.apply(cmd, &opts, pipeline.FormatJSON)
			opts.Refresh = refresh

			base := opts.Generator + ".layout"
			if input != "" {
				base = stem(input) + ".layout"
			}
			return c.runLayout(cmd.Context(), opts, render.output, base, noCache)
		},
	}

	flags.register(cmd)
	render.register(cmd, pipeline.FormatJSON)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")

	return cmd
}

// runLayout executes the pipeline and writes the artifacts.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output, base string, noCache bool) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", opts.Algorithm))
	restore := trackIterations(spinner, opts.Force.MaxIterations)
	spinner.Start()

	res, err := runner.Execute(ctx, opts)
	restore()
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	paths, err := writeArtifacts(res.Artifacts, opts.Formats, output, base)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}

	printSuccess("Layout complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(res.Stats, res.CacheInfo)
	if p, ok := pathFor(paths, opts.Formats, pipeline.FormatJSON); ok {
		printNewline()
		printNextStep("Render", appName+" render "+p+" -f svg")
	}
	return nil
}

// pathFor returns the path written for format.
func pathFor(paths, formats []string, format string) (string, bool) {
	for i, f := range formats {
		if f == format && i < len(paths) {
			return paths[i], true
		}
	}
	return "", false
}
