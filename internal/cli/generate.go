package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/generate"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
)

// generateCommand creates the generate command for building random graphs.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		flags   paramFlags
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "generate <generator>",
		Short: "Generate a random graph",
		Long: `Generate a random graph and write it as JSON.

Generators:
  barabasi-albert   preferential attachment (--nodes, --edges-per-node)
  erdos-renyi       independent edges (--nodes, --probability)
  geometric         unit-square proximity (--nodes, --connect-radius)
  watts-strogatz    rewired ring lattice (--nodes, --avg-degree, --probability)

The same generator, parameters and seed always produce the same graph.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: generate.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{Generator: args[0], Params: flags.params, Seed: flags.seed}
			return c.runGenerate(cmd.Context(), opts, output, noCache)
		},
	}

	flags.register(cmd, false)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: <generator>.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	if err := opts.ValidateForGenerate(); err != nil {
		return err
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	g, hit, err := runner.GenerateWithCacheInfo(ctx, opts)
	if err != nil {
		return fmt.Errorf("generate %s: %w", opts.Generator, err)
	}
	prog.done("generated graph", "generator", opts.Generator, "cached", hit)

	if output == "-" {
		return graph.WriteGraph(g, stdout)
	}
	if output == "" {
		output = opts.Generator + ".json"
	}
	if err := graph.WriteGraphFile(g, output); err != nil {
		return err
	}

	printSuccess("Generated %s graph", opts.Generator)
	printFile(output)
	printStats(pipeline.Stats{NodeCount: g.NodeCount(), EdgeCount: g.EdgeCount()}, pipeline.CacheInfo{GenerateHit: hit})
	printNewline()
	printNextStep("Lay out", appName+" layout "+output)
	return nil
}
