package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nextstep/pkg/graph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the probability and support of previews and the
	// comment of confirmed nodes to their labels.
	Detailed bool

	// HidePreviews leaves preview nodes and their edges out.
	HidePreviews bool

	// Positioned pins each node to its grid cell with a pos attribute, for
	// rendering with neato -n.
	Positioned bool
}

// ToDOT converts a graph snapshot to Graphviz DOT. Nodes are filled with
// their colour, previews are dashed, and petri-net places are drawn as
// circles.
func ToDOT(s graph.Snapshot, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	hidden := make(map[string]bool)
	for _, n := range s.Nodes {
		if opts.HidePreviews && n.IsPreview() {
			hidden[n.ID()] = true
			continue
		}
		attrs := fmtAttrs(n, s.Root, fmtLabel(n, opts.Detailed))
		if opts.Positioned {
			attrs = append(attrs, fmt.Sprintf("pos=\"%d,%d!\"", n.GridX, -n.GridY))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range s.Edges {
		if hidden[e.From] || hidden[e.To] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, detailed bool) string {
	label := n.Caption
	if label == "" {
		label = n.ActualKey()
	}
	if !detailed {
		return label
	}
	if n.IsPreview() {
		return fmt.Sprintf("%s\np=%.2f s=%d", label, n.Probability, n.Support)
	}
	if n.Comment != "" {
		return label + "\n" + n.Comment
	}
	return label
}

func fmtAttrs(n graph.Node, root, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.Color != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", n.Color))
	}
	switch {
	case n.IsPreview():
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	case n.ID() == root:
		attrs = append(attrs, "penwidth=2")
	}
	switch n.Kind {
	case graph.KindPlace:
		attrs = append(attrs, "shape=circle")
	case graph.KindTransition:
		attrs = append(attrs, "shape=box", "style=filled")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderGraph snapshots g and renders it to SVG.
func RenderGraph(ctx context.Context, g *graph.Graph, opts Options) ([]byte, error) {
	return RenderSVG(ctx, ToDOT(g.Snapshot(), opts))
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's svg tag with one whose viewBox
// starts at the origin and whose size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
