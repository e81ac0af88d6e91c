package graph

import (
	"fmt"
	"slices"

	"github.com/matzehuels/nextstep/pkg/geom"
)

// Selected returns the selected node ids in selection order.
func (g *Graph) Selected() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.selected)
}

// SelectNodesInRect replaces the selection with every confirmed node whose
// pixel box intersects r. The rectangle must already be in graph pixel
// coordinates. It returns the selected ids in insertion order.
func (g *Graph) SelectNodesInRect(r geom.Rect) []string {
	var ids []string
	_ = g.mutate(func() (Event, error) {
		g.clearSelection()
		for _, id := range g.order {
			n := g.nodes[id]
			if n.IsPreview() {
				continue
			}
			if r.Intersects(g.tr.NodeBox(n.PixelX, n.PixelY)) {
				n.Selected = true
				g.selected = append(g.selected, id)
			}
		}
		ids = slices.Clone(g.selected)
		return Event{Kind: SelectionChanged, IDs: ids}, nil
	})
	return ids
}

// ClearSelection deselects every node.
func (g *Graph) ClearSelection() {
	_ = g.mutate(func() (Event, error) {
		g.clearSelection()
		return Event{Kind: SelectionChanged}, nil
	})
}

// ToggleSelect flips the selection state of a confirmed node.
func (g *Graph) ToggleSelect(id string) error {
	return g.mutate(func() (Event, error) {
		if err := g.toggle(id); err != nil {
			return Event{}, err
		}
		return Event{Kind: SelectionChanged, IDs: []string{id}}, nil
	})
}

// Click handles a click on a node: a preview node is promoted, a confirmed
// node has its selection toggled. It returns the id the node has afterwards.
func (g *Graph) Click(id string) (string, error) {
	n, ok := g.Node(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	if n.IsPreview() {
		return g.Promote(id)
	}
	return id, g.ToggleSelect(id)
}

// DeleteSelectedNodes removes every selected node except the root and
// returns the removed ids. With nothing removable the selection is left
// untouched.
func (g *Graph) DeleteSelectedNodes() []string {
	var removed []string
	err := g.mutate(func() (Event, error) {
		removed = slices.DeleteFunc(slices.Clone(g.selected), func(id string) bool { return id == g.root })
		if len(removed) == 0 {
			return Event{}, ErrUnknownNode
		}
		for _, id := range removed {
			g.remove(id)
		}
		g.clearSelection()
		return Event{Kind: NodeRemoved, IDs: removed}, nil
	})
	if err != nil {
		return nil
	}
	return removed
}

// DeleteSelectedEdge removes the edge between the two selected nodes. It
// does nothing unless exactly two nodes are selected.
func (g *Graph) DeleteSelectedEdge() bool {
	g.mu.Lock()
	if len(g.selected) != 2 {
		g.mu.Unlock()
		return false
	}
	a, b := g.selected[0], g.selected[1]
	g.mu.Unlock()
	return g.RemoveEdge(a, b)
}

func (g *Graph) toggle(id string) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	if n.IsPreview() {
		return fmt.Errorf("%w: %s", ErrPreviewNode, id)
	}
	if n.Selected {
		n.Selected = false
		g.selected = slices.DeleteFunc(g.selected, func(s string) bool { return s == id })
	} else {
		n.Selected = true
		g.selected = append(g.selected, id)
	}
	return nil
}

func (g *Graph) clearSelection() {
	for _, id := range g.selected {
		if n, ok := g.nodes[id]; ok {
			n.Selected = false
		}
	}
	g.selected = nil
}
