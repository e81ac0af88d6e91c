// Package render holds the visual outputs of process graphs.
//
// The [nodelink] subpackage renders a graph as a Graphviz flow diagram:
// confirmed nodes as boxes, Petri net places as circles and previews as
// dashed boxes in their palette colour.
//
//	dot := nodelink.ToDOT(g.Snapshot(), nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderGraph(ctx, g, nodelink.Options{})
//
// [nodelink]: github.com/matzehuels/nextstep/pkg/render/nodelink
package render
