package io

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
)

// ReadOptions controls decoding.
type ReadOptions struct {
	// ApplySettings replaces the target's settings with the document's.
	// Loading a file sets it; pasting does not.
	ApplySettings bool

	// OffsetX and OffsetY shift every imported node by whole cells.
	OffsetX, OffsetY int
}

// Unmarshal imports a JSON graph document into g. The document is fully
// validated first; on failure a coded INVALID_PAYLOAD error is returned and
// g is unchanged.
func Unmarshal(data []byte, g *graph.Graph, opts ReadOptions) (graph.ImportResult, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return graph.ImportResult{}, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode graph")
	}
	batch, err := doc.batch(g, opts)
	if err != nil {
		return graph.ImportResult{}, err
	}
	res, err := g.Import(batch)
	if err != nil {
		return graph.ImportResult{}, errors.Wrap(errors.ErrCodeInvalidPayload, err, "import graph")
	}
	return res, nil
}

// ReadJSON decodes a graph document from r into g.
func ReadJSON(r io.Reader, g *graph.Graph, opts ReadOptions) (graph.ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return graph.ImportResult{}, errors.Wrap(errors.ErrCodeInternal, err, "read graph")
	}
	return Unmarshal(data, g, opts)
}

// ImportJSON reads a graph document from a file at path into g, applying
// the file's settings.
func ImportJSON(path string, g *graph.Graph) (graph.ImportResult, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return graph.ImportResult{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return graph.ImportResult{}, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	return Unmarshal(data, g, ReadOptions{ApplySettings: true})
}

func (doc Document) batch(g *graph.Graph, opts ReadOptions) (graph.Batch, error) {
	if doc.Nodes == nil {
		return graph.Batch{}, errors.New(errors.ErrCodeInvalidPayload, "document has no nodes array")
	}
	if doc.Edges == nil {
		return graph.Batch{}, errors.New(errors.ErrCodeInvalidPayload, "document has no edges array")
	}

	tr := g.Transform()
	dx := float64(opts.OffsetX) * tr.PitchX()
	dy := float64(opts.OffsetY) * tr.PitchY()

	b := graph.Batch{
		Nodes: make([]graph.ImportNode, 0, len(doc.Nodes)),
		Edges: make([]graph.Edge, 0, len(doc.Edges)),
	}
	seen := make(map[string]bool, len(doc.Nodes))
	for i, n := range doc.Nodes {
		if n.ID == "" {
			return graph.Batch{}, errors.New(errors.ErrCodeInvalidPayload, "node %d has no id", i)
		}
		if seen[n.ID] {
			return graph.Batch{}, errors.New(errors.ErrCodeInvalidPayload, "duplicate node id %q", n.ID)
		}
		seen[n.ID] = true

		kind := graph.KindActivity
		if n.Kind != "" {
			k, err := graph.ParseKind(n.Kind)
			if err != nil {
				return graph.Batch{}, errors.Wrap(errors.ErrCodeInvalidPayload, err, "node %q", n.ID)
			}
			kind = k
		}
		if n.Probability < 0 || n.Probability > 1 {
			return graph.Batch{}, errors.New(errors.ErrCodeInvalidPayload, "node %q probability %v not in [0,1]", n.ID, n.Probability)
		}

		in := graph.ImportNode{
			SourceID:    n.ID,
			ActualKey:   n.ActualKey,
			Kind:        kind,
			GridX:       n.X + opts.OffsetX,
			GridY:       n.Y + opts.OffsetY,
			Caption:     n.Caption,
			Comment:     n.Comment,
			Color:       n.Color,
			Probability: n.Probability,
			Support:     n.Support,
		}
		if n.RealX != nil && n.RealY != nil {
			in.HasPixel = true
			in.PixelX, in.PixelY = *n.RealX+dx, *n.RealY+dy
		}
		b.Nodes = append(b.Nodes, in)
	}

	for i, e := range doc.Edges {
		if len(e) != 2 {
			return graph.Batch{}, errors.New(errors.ErrCodeInvalidPayload, "edge %d has %d endpoints, want 2", i, len(e))
		}
		b.Edges = append(b.Edges, graph.Edge{From: e[0], To: e[1]})
	}

	if doc.Root != "" {
		if !seen[doc.Root] {
			return graph.Batch{}, errors.New(errors.ErrCodeInvalidPayload, "root %q is not a node", doc.Root)
		}
		b.Root = doc.Root
	}

	if opts.ApplySettings {
		s := g.Settings()
		s.ProbabilityMin = doc.Probability
		s.SupportMin = doc.Support
		s.Auto = doc.Auto
		if doc.Matrix != "" {
			s.Matrix = doc.Matrix
		}
		if err := s.Validate(); err != nil {
			return graph.Batch{}, errors.Wrap(errors.ErrCodeInvalidPayload, err, "document settings")
		}
		b.Settings = &s
	}
	return b, nil
}
