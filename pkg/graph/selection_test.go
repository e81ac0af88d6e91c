package graph

import (
	"slices"
	"testing"

	"github.com/matzehuels/nextstep/pkg/geom"
)

// row builds root -> a -> b -> c along grid row 3 (cells 1..4).
func row(t *testing.T) (*Graph, []string) {
	t.Helper()
	g := New()
	ids := []string{DefaultRootID}
	for range 3 {
		id, err := g.AddNode(ids[len(ids)-1])
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	return g, ids
}

func TestSelectNodesInRectExactBounds(t *testing.T) {
	views := []geom.View{
		{},
		{Scale: 2, PanX: 100, PanY: 50},
		{Scale: 0.5, PanX: -64, PanY: 16},
	}
	for _, v := range views {
		g, ids := row(t)
		// boxes of cells 2 and 3: x 320..420 and 480..580, y 360..420
		world := geom.Rect{X: 320, Y: 360, W: 260, H: 60}
		screen := v.ToScreen(world)

		got := g.SelectNodesInRect(v.ToWorld(screen))
		want := []string{ids[1], ids[2]}
		if !slices.Equal(got, want) {
			t.Errorf("view %+v: SelectNodesInRect() = %v, want %v", v, got, want)
		}
		for _, n := range g.Nodes() {
			if n.Selected != slices.Contains(want, n.ID()) {
				t.Errorf("view %+v: node %s Selected = %v", v, n.ID(), n.Selected)
			}
		}
	}
}

func TestSelectNodesInRectClearsPrevious(t *testing.T) {
	g, ids := row(t)
	_ = g.ToggleSelect(ids[3])
	got := g.SelectNodesInRect(geom.Rect{X: 0, Y: 0, W: 10, H: 10})
	if len(got) != 0 {
		t.Errorf("SelectNodesInRect() = %v, want none", got)
	}
	if n, _ := g.Node(ids[3]); n.Selected {
		t.Error("previous selection not cleared")
	}
}

func TestSelectNodesInRectSkipsPreviews(t *testing.T) {
	g := New()
	g.MergePreviews([]Proposal{{Predecessor: DefaultRootID, GridX: 2, GridY: 3, ActualKey: "x"}}, nil)
	got := g.SelectNodesInRect(geom.Rect{X: 0, Y: 0, W: 2000, H: 2000})
	if len(got) != 1 || got[0] != DefaultRootID {
		t.Errorf("SelectNodesInRect() = %v, want only the root", got)
	}
}

func TestToggleAndClear(t *testing.T) {
	g, ids := row(t)
	_ = g.ToggleSelect(ids[1])
	_ = g.ToggleSelect(ids[2])
	_ = g.ToggleSelect(ids[1])
	if got := g.Selected(); !slices.Equal(got, []string{ids[2]}) {
		t.Errorf("Selected() = %v, want [%s]", got, ids[2])
	}
	g.ClearSelection()
	if len(g.Selected()) != 0 {
		t.Errorf("Selected() = %v after ClearSelection", g.Selected())
	}
}

func TestDeleteSelectedEdge(t *testing.T) {
	g, ids := row(t)
	_ = g.ToggleSelect(ids[1])
	if g.DeleteSelectedEdge() {
		t.Error("DeleteSelectedEdge() with one selected = true, want false")
	}
	_ = g.ToggleSelect(ids[2])
	if !g.DeleteSelectedEdge() {
		t.Error("DeleteSelectedEdge() = false, want true")
	}
	if g.HasEdge(ids[1], ids[2]) {
		t.Error("edge still present")
	}
}

func TestDeleteSelectedRootOnly(t *testing.T) {
	g := New()
	_ = g.ToggleSelect(DefaultRootID)
	events := 0
	g.Subscribe(func(Event) { events++ })

	if removed := g.DeleteSelectedNodes(); removed != nil {
		t.Errorf("DeleteSelectedNodes() = %v, want nil", removed)
	}
	if got := g.Selected(); !slices.Equal(got, []string{DefaultRootID}) {
		t.Errorf("Selected() = %v, want [%s]", got, DefaultRootID)
	}
	if events != 0 {
		t.Errorf("got %d events, want 0", events)
	}
}
