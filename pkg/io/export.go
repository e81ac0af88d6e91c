package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/nextstep/pkg/graph"
)

// Document is the JSON form of a graph.
type Document struct {
	Nodes       []Node     `json:"nodes"`
	Edges       [][]string `json:"edges"`
	DeletedKeys []string   `json:"deletedKeys"`
	Probability float64    `json:"probability"`
	Support     int        `json:"support"`
	Auto        bool       `json:"auto"`
	Matrix      string     `json:"matrix"`
	Root        string     `json:"root,omitempty"`
}

// Node is the JSON form of a confirmed node.
type Node struct {
	ID          string   `json:"id"`
	X           int      `json:"x"`
	Y           int      `json:"y"`
	RealX       *float64 `json:"realX,omitempty"`
	RealY       *float64 `json:"realY,omitempty"`
	Caption     string   `json:"caption"`
	ActualKey   string   `json:"actualKey"`
	Probability float64  `json:"probability"`
	Color       string   `json:"color"`
	Comment     string   `json:"comment"`
	Support     int      `json:"support"`
	Kind        string   `json:"kind,omitempty"`
}

// Options controls encoding.
type Options struct {
	// KeepSelectedEdges writes edges touching selected nodes too. Without it
	// they are left out, matching what the prediction backend expects.
	KeepSelectedEdges bool
}

// Encode converts a snapshot to its document form.
func Encode(s graph.Snapshot, opts Options) Document {
	doc := Document{
		Nodes:       []Node{},
		Edges:       [][]string{},
		DeletedKeys: s.DeletedKeys,
		Probability: s.Settings.ProbabilityMin,
		Support:     s.Settings.SupportMin,
		Auto:        s.Settings.Auto,
		Matrix:      s.Settings.Matrix,
		Root:        s.Root,
	}
	if doc.DeletedKeys == nil {
		doc.DeletedKeys = []string{}
	}

	skip := make(map[string]bool)
	for _, n := range s.Nodes {
		if n.IsPreview() || (n.Selected && !opts.KeepSelectedEdges) {
			skip[n.ID()] = true
		}
		if n.IsPreview() {
			continue
		}
		doc.Nodes = append(doc.Nodes, encodeNode(n))
	}
	for _, e := range s.Edges {
		if skip[e.From] || skip[e.To] {
			continue
		}
		doc.Edges = append(doc.Edges, []string{e.From, e.To})
	}
	return doc
}

func encodeNode(n graph.Node) Node {
	rx, ry := n.PixelX, n.PixelY
	out := Node{
		ID:          n.ID(),
		X:           n.GridX,
		Y:           n.GridY,
		RealX:       &rx,
		RealY:       &ry,
		Caption:     n.Caption,
		ActualKey:   n.ActualKey(),
		Probability: n.Probability,
		Color:       n.Color,
		Comment:     n.Comment,
		Support:     n.Support,
	}
	if n.Kind != graph.KindActivity {
		out.Kind = n.Kind.String()
	}
	return out
}

// Marshal encodes the graph as compact JSON.
func Marshal(g *graph.Graph, opts Options) ([]byte, error) {
	data, err := json.Marshal(Encode(g.Snapshot(), opts))
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// MarshalSelection encodes the selected nodes and the edges among them, for
// the clipboard. With nothing selected the whole confirmed graph is encoded.
// The result carries no root.
func MarshalSelection(g *graph.Graph) ([]byte, error) {
	s := g.Snapshot()
	selected := make(map[string]bool)
	for _, n := range s.Nodes {
		if n.Selected {
			selected[n.ID()] = true
		}
	}

	if len(selected) > 0 {
		nodes := s.Nodes[:0:0]
		for _, n := range s.Nodes {
			if selected[n.ID()] {
				nodes = append(nodes, n)
			}
		}
		edges := s.Edges[:0:0]
		for _, e := range s.Edges {
			if selected[e.From] && selected[e.To] {
				edges = append(edges, e)
			}
		}
		s.Nodes, s.Edges = nodes, edges
	}
	s.Root = ""

	data, err := json.Marshal(Encode(s, Options{KeepSelectedEdges: true}))
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// WriteJSON encodes the graph as indented JSON and writes it to w.
func WriteJSON(g *graph.Graph, w io.Writer, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Encode(g.Snapshot(), opts)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes the graph to a JSON file at path, keeping edges of
// selected nodes. The file is replaced only after encoding succeeded.
func ExportJSON(g *graph.Graph, path string) error {
	var buf bytes.Buffer
	if err := WriteJSON(g, &buf, Options{KeepSelectedEdges: true}); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
