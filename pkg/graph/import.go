package graph

import (
	"errors"
	"fmt"
)

// ErrInvalidBatch is returned by [Graph.Import] when the batch itself is
// inconsistent. Nothing is imported in that case.
var ErrInvalidBatch = errors.New("invalid import batch")

// ImportNode describes one node to import, keyed by its id in the source
// document.
type ImportNode struct {
	SourceID  string
	ActualKey string
	Kind      Kind

	GridX, GridY   int
	PixelX, PixelY float64
	HasPixel       bool // Pixel position wins over the grid cell when set

	Caption     string
	Comment     string
	Color       string // Empty assigns a fresh colour
	Probability float64
	Support     int
}

// Batch is a set of nodes and edges to import in one step. Edge endpoints
// refer to source ids.
type Batch struct {
	Nodes []ImportNode
	Edges []Edge

	// Root is the source id of the source document's root. It becomes the
	// target's root when the target has none.
	Root string

	// Settings replaces the target settings when non-nil.
	Settings *Settings
}

// ImportResult reports the outcome of [Graph.Import].
type ImportResult struct {
	IDs      map[string]string // Source id to new id
	Added    []string          // New ids in batch order
	Dangling []Edge            // Edges with an endpoint not in the batch, skipped
	Dropped  []Edge            // Self-loops and duplicates, skipped
}

// Import adds a batch of nodes under fresh ids from the graph's own
// allocator and re-creates the batch edges between them. A root adopted by a
// rootless graph keeps its source id when that id is free. The old-to-new id
// table is built completely before any edge is added. Dangling edges are
// skipped and reported; the rest of the batch still imports.
func (g *Graph) Import(b Batch) (ImportResult, error) {
	if err := b.validate(); err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{IDs: make(map[string]string, len(b.Nodes))}
	err := g.mutate(func() (Event, error) {
		adopt := g.root == "" && b.Root != ""
		created := make([]*Node, 0, len(b.Nodes))
		for _, in := range b.Nodes {
			var id string
			if adopt && in.SourceID == b.Root && !g.inUse(in.SourceID) {
				id = in.SourceID
				g.pool.forget(id)
			} else {
				id = g.pool.allocate(len(g.nodes), g.inUse)
			}
			activity := in.ActualKey
			if activity == id {
				activity = ""
			}
			n := &Node{
				State:       Confirmed{ID: id, Activity: activity},
				Kind:        in.Kind,
				Caption:     in.Caption,
				Comment:     in.Comment,
				Color:       in.Color,
				Probability: in.Probability,
				Support:     in.Support,
			}
			if in.HasPixel {
				gx, gy := g.tr.ToGrid(in.PixelX, in.PixelY)
				n.GridX, n.GridY = gx, gy
				n.PixelX, n.PixelY = in.PixelX, in.PixelY
			} else {
				g.place(n, in.GridX, in.GridY)
			}
			g.insert(n)
			created = append(created, n)
			res.IDs[in.SourceID] = id
			res.Added = append(res.Added, id)
		}

		for _, e := range b.Edges {
			from, okFrom := res.IDs[e.From]
			to, okTo := res.IDs[e.To]
			switch {
			case !okFrom || !okTo:
				res.Dangling = append(res.Dangling, e)
			case from == to || g.hasEdge(from, to):
				res.Dropped = append(res.Dropped, e)
			default:
				g.edges = append(g.edges, Edge{From: from, To: to})
			}
		}

		for _, n := range created {
			if n.Color == "" {
				n.Color = g.assignColor(n.ID())
			}
		}
		if adopt {
			g.root = res.IDs[b.Root]
		}
		if b.Settings != nil {
			g.settings = *b.Settings
		}
		return Event{Kind: GraphImported, IDs: res.Added}, nil
	})
	return res, err
}

func (b Batch) validate() error {
	seen := make(map[string]bool, len(b.Nodes))
	for i, n := range b.Nodes {
		if n.SourceID == "" {
			return fmt.Errorf("%w: node %d has no id", ErrInvalidBatch, i)
		}
		if seen[n.SourceID] {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidBatch, n.SourceID)
		}
		seen[n.SourceID] = true
	}
	if b.Root != "" && !seen[b.Root] {
		return fmt.Errorf("%w: root %q is not in the batch", ErrInvalidBatch, b.Root)
	}
	if b.Settings != nil {
		if err := b.Settings.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBatch, err)
		}
	}
	return nil
}
