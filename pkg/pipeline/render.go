package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/render/nodelink"
)

// Render encodes a positioned graph in every format of opts.Formats.
func Render(ctx context.Context, g *graph.Graph, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var dot string
	toDOT := func() string {
		if dot == "" {
			dot = nodelink.ToDOT(g, nodelink.Options{Projection: opts.Projection, Detailed: opts.Detailed})
		}
		return dot
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = graph.MarshalGraph(g)
		case FormatDOT:
			data = []byte(toDOT())
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, toDOT())
		default:
			return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
