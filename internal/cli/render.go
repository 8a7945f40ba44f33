package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
)

// renderCommand creates the render command for drawing a laid out graph.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags   renderFlags
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "render <layout.json>",
		Short: "Render a laid out graph to DOT or SVG",
		Long: `Render a laid out graph (as written by 'layout') to Graphviz DOT or SVG.

Node positions are projected onto the plane chosen with --projection and kept
fixed; nodes nearer to the viewer are drawn lighter.`,
		Example: `  forcegraph render graph.layout.json
  forcegraph render graph.layout.json -f dot,svg -p xz --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts pipeline.Options
			flags.apply(cmd, &opts, pipeline.FormatSVG)
			return c.runRender(cmd.Context(), args[0], opts, flags.output, noCache)
		},
	}

	flags.register(cmd, pipeline.FormatSVG)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return err
	}
	if !g.HasAllPositions() {
		return errors.New(errors.ErrCodeInvalidInput, "%s has nodes without positions; run '%s layout' first", input, appName)
	}
	opts.Logger = c.Logger

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, g, opts)
	if err != nil {
		return err
	}
	prog.done("rendered", "formats", opts.Formats, "cached", hit)

	paths, err := writeArtifacts(artifacts, opts.Formats, output, stem(input))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}

	printSuccess("Rendered %d file(s)", len(paths))
	for _, p := range paths {
		printFile(p)
	}
	return nil
}
