// Package nodelink renders process graphs as node-link diagrams.
//
// # Usage
//
// Convert a graph snapshot to DOT, then render it to SVG:
//
//	dot := nodelink.ToDOT(g.Snapshot(), nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [RenderGraph] does both in one call.
//
// # DOT Format
//
// The generated DOT lays the process out left to right (rankdir=LR), like
// the editor grid. Node fill colours are the colours assigned in the graph;
// preview nodes are drawn dashed and the root with a heavier outline. With
// [Options.Positioned] every node carries its grid cell as a pinned pos,
// so neato -n reproduces the editor layout.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
