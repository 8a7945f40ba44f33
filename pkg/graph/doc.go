// Package graph defines the graph model consumed by the layout engines and its
// JSON wire format.
//
// # Core Types
//
//   - [Graph]: An ordered node sequence plus an edge collection
//   - [Node]: Stable ID, optional position, engine-owned displacement
//   - [Edge]: A pair of indices into the node sequence
//
// Edges reference nodes by index, not by ID, so the order of [Graph.Nodes]
// matters. Every edge index must lie in [0, len(Nodes)); [Graph.Validate]
// reports violations with the INVALID_EDGE error code. Graphs read through
// this package are always validated.
//
// # Serialization
//
// Graphs use a simple node-link JSON format:
//
//	{
//	  "nodes": [{"id": "0", "position": {"x": 1, "y": 2, "z": 3}}, {"id": "1"}],
//	  "edges": [{"source": 0, "target": 1}]
//	}
//
// A node without "position" has not been placed yet. The displacement
// accumulator is scratch state for a running layout and is never written.
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("graph.json")   // File → Graph (validated)
//	graph.WriteGraphFile(g, "out.json")         // Graph → File
//	data, _ := graph.MarshalGraph(g)            // Graph → []byte
//	parsed, _ := graph.UnmarshalGraph(data)     // []byte → Graph (validated)
//
// # Concurrency
//
// A Graph is plain data. Layout engines mutate positions in place and must
// own the graph exclusively while running.
package graph
