package graph

import (
	"fmt"
	"slices"
)

// Proposal is one predicted successor of a confirmed node.
type Proposal struct {
	Predecessor  string  // Confirmed node the transition starts from
	GridX, GridY int     // Proposed cell
	ActualKey    string  // Activity id the node takes once promoted
	Probability  float64 // 0..1
	Support      int
}

// MergeResult reports what [Graph.MergePreviews] did.
type MergeResult struct {
	Added   []string   // Synthetic ids of the new preview nodes
	Skipped []Proposal // Proposals whose predecessor is gone or is itself a preview
}

// EvictPreviews removes every preview node and its edges and releases their
// ids. It returns the evicted ids.
func (g *Graph) EvictPreviews() []string {
	var evicted []string
	_ = g.mutate(func() (Event, error) {
		for _, id := range slices.Clone(g.order) {
			if g.nodes[id].IsPreview() {
				g.remove(id)
				evicted = append(evicted, id)
			}
		}
		return Event{Kind: PreviewsEvicted, IDs: evicted}, nil
	})
	return evicted
}

// MergePreviews adds a preview node for each proposal, coloured like its
// predecessor and connected from it. Ids in freed that are not live are
// added to the recycle pool.
func (g *Graph) MergePreviews(proposals []Proposal, freed []string) MergeResult {
	var res MergeResult
	_ = g.mutate(func() (Event, error) {
		// A synthetic id must never equal an id some preview would become.
		reserved := make(map[string]bool, len(proposals))
		for _, p := range proposals {
			reserved[p.ActualKey] = true
		}
		for _, n := range g.nodes {
			if n.IsPreview() {
				reserved[n.ActualKey()] = true
			}
		}
		for _, p := range proposals {
			pred, ok := g.nodes[p.Predecessor]
			if !ok || pred.IsPreview() || p.ActualKey == "" {
				res.Skipped = append(res.Skipped, p)
				continue
			}
			id := g.pool.allocatePreview(len(g.nodes), g.inUse, reserved)
			n := &Node{
				State:       Preview{SyntheticID: id, WouldBecome: p.ActualKey},
				Caption:     p.ActualKey,
				Color:       pred.Color,
				Probability: p.Probability,
				Support:     p.Support,
			}
			g.place(n, p.GridX, p.GridY)
			g.insert(n)
			g.edges = append(g.edges, Edge{From: p.Predecessor, To: id})
			res.Added = append(res.Added, id)
		}
		for _, k := range freed {
			if !g.inUse(k) {
				g.pool.release(k)
			}
		}
		return Event{Kind: PreviewsMerged, IDs: res.Added}, nil
	})
	return res
}

// Promote turns a preview node into the confirmed node it would become and
// returns the confirmed id.
//
// If a confirmed node with that id already exists, the preview is folded
// into it: its support is added to the existing node and its edges are
// rewired there. Otherwise the node is re-keyed and given a fresh colour; a
// preview that happens to hold the id moves to a fresh synthetic id first.
// Edges that would become self-loops or duplicates are dropped. The
// synthetic id is released.
func (g *Graph) Promote(id string) (string, error) {
	var target string
	err := g.mutate(func() (Event, error) {
		n, ok := g.nodes[id]
		if !ok {
			return Event{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
		}
		p, ok := n.State.(Preview)
		if !ok {
			return Event{}, fmt.Errorf("%w: %s", ErrNotPreview, id)
		}
		target = p.WouldBecome
		if held, ok := g.nodes[target]; ok && held.IsPreview() && target != id {
			g.rekeyPreview(held)
		}

		edges := g.edges
		g.edges = nil
		g.remove(id)

		existing, collision := g.nodes[target]
		if collision {
			existing.Support += n.Support
		} else {
			n.State = Confirmed{ID: target}
			g.insert(n)
		}

		for _, e := range edges {
			if e.From == id {
				e.From = target
			}
			if e.To == id {
				e.To = target
			}
			if e.From == e.To || g.hasEdge(e.From, e.To) {
				continue
			}
			g.edges = append(g.edges, e)
		}

		if !collision {
			n.Color = g.assignColor(target)
		}
		return Event{Kind: NodePromoted, IDs: []string{target}}, nil
	})
	return target, err
}

// rekeyPreview moves a preview node to a freshly minted synthetic id and
// rewires its edges.
func (g *Graph) rekeyPreview(n *Node) {
	old := n.ID()
	p := n.State.(Preview)
	p.SyntheticID = g.pool.mint(previewPrefix, len(g.nodes), g.inUse)
	n.State = p

	delete(g.nodes, old)
	g.nodes[p.SyntheticID] = n
	g.order[slices.Index(g.order, old)] = p.SyntheticID
	for i, e := range g.edges {
		if e.From == old {
			g.edges[i].From = p.SyntheticID
		}
		if e.To == old {
			g.edges[i].To = p.SyntheticID
		}
	}
	g.pool.release(old)
}
