package graph

import "fmt"

// DragBy moves a node by a pixel delta without snapping. When the node is
// selected the whole selection moves with it. Grid coordinates are left as
// they were until [Graph.EndDrag].
func (g *Graph) DragBy(id string, dx, dy float64) error {
	return g.mutate(func() (Event, error) {
		set, err := g.dragSet(id)
		if err != nil {
			return Event{}, err
		}
		for _, sid := range set {
			n := g.nodes[sid]
			n.PixelX += dx
			n.PixelY += dy
		}
		return Event{Kind: NodesMoved, IDs: set}, nil
	})
}

// EndDrag snaps the dragged node to its nearest grid cell and shifts every
// other node of the drag set by the same offset, so relative spacing within
// a dragged group is kept exactly.
func (g *Graph) EndDrag(id string) error {
	return g.mutate(func() (Event, error) {
		set, err := g.dragSet(id)
		if err != nil {
			return Event{}, err
		}
		anchor := g.nodes[id]
		sx, sy := g.tr.Snap(anchor.PixelX, anchor.PixelY)
		ox, oy := sx-anchor.PixelX, sy-anchor.PixelY
		for _, sid := range set {
			n := g.nodes[sid]
			gx, gy := g.tr.ToGrid(n.PixelX+ox, n.PixelY+oy)
			g.place(n, gx, gy)
		}
		return Event{Kind: NodesMoved, IDs: set}, nil
	})
}

// MoveTo places a confirmed node on a grid cell.
func (g *Graph) MoveTo(id string, gx, gy int) error {
	return g.mutate(func() (Event, error) {
		if _, err := g.dragSet(id); err != nil {
			return Event{}, err
		}
		g.place(g.nodes[id], gx, gy)
		return Event{Kind: NodesMoved, IDs: []string{id}}, nil
	})
}

// ApplyPositions moves confirmed nodes to the given grid cells, as computed
// by the backend's auto-layout. Unknown ids and preview nodes are ignored.
// It returns the number of nodes moved.
func (g *Graph) ApplyPositions(pos map[string][2]int) int {
	var moved []string
	_ = g.mutate(func() (Event, error) {
		for _, id := range g.order {
			p, ok := pos[id]
			n := g.nodes[id]
			if !ok || n.IsPreview() {
				continue
			}
			g.place(n, p[0], p[1])
			moved = append(moved, id)
		}
		return Event{Kind: PositionsApplied, IDs: moved}, nil
	})
	return len(moved)
}

// dragSet returns the nodes moved together with id.
func (g *Graph) dragSet(id string) ([]string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	if n.IsPreview() {
		return nil, fmt.Errorf("%w: %s", ErrPreviewNode, id)
	}
	if !n.Selected {
		return []string{id}, nil
	}
	set := make([]string, 0, len(g.selected))
	for _, sid := range g.selected {
		if _, ok := g.nodes[sid]; ok {
			set = append(set, sid)
		}
	}
	return set, nil
}
