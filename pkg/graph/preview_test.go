package graph

import (
	"errors"
	"testing"
)

func mergeOne(t *testing.T, g *Graph, p Proposal) string {
	t.Helper()
	res := g.MergePreviews([]Proposal{p}, nil)
	if len(res.Added) != 1 {
		t.Fatalf("MergePreviews() added %d nodes, want 1", len(res.Added))
	}
	return res.Added[0]
}

func TestMergePreview(t *testing.T) {
	g := New()
	pv := mergeOne(t, g, Proposal{Predecessor: DefaultRootID, GridX: 1, GridY: 0, ActualKey: "n1", Probability: 0.8, Support: 5})

	n, ok := g.Node(pv)
	if !ok {
		t.Fatalf("preview %s not found", pv)
	}
	if !n.IsPreview() {
		t.Error("IsPreview() = false, want true")
	}
	if n.ActualKey() != "n1" {
		t.Errorf("ActualKey() = %q, want n1", n.ActualKey())
	}
	if n.GridX != 1 || n.GridY != 0 {
		t.Errorf("cell = (%d, %d), want (1, 0)", n.GridX, n.GridY)
	}
	if n.Probability != 0.8 || n.Support != 5 {
		t.Errorf("probability/support = %v/%d, want 0.8/5", n.Probability, n.Support)
	}
	root, _ := g.Node(DefaultRootID)
	if n.Color != root.Color {
		t.Errorf("preview colour = %s, want predecessor colour %s", n.Color, root.Color)
	}
	if !g.HasEdge(DefaultRootID, pv) || g.EdgeCount() != 1 {
		t.Errorf("Edges() = %v, want one edge root -> preview", g.Edges())
	}
}

func TestMergeSkipsMissingPredecessor(t *testing.T) {
	g := New()
	res := g.MergePreviews([]Proposal{
		{Predecessor: "gone", ActualKey: "a"},
		{Predecessor: DefaultRootID, ActualKey: ""},
		{Predecessor: DefaultRootID, ActualKey: "b"},
	}, []string{"New7", DefaultRootID})

	if len(res.Added) != 1 || len(res.Skipped) != 2 {
		t.Errorf("MergePreviews() added %d skipped %d, want 1 and 2", len(res.Added), len(res.Skipped))
	}
	keys := g.DeletedKeys()
	if len(keys) != 1 || keys[0] != "New7" {
		t.Errorf("DeletedKeys() = %v, want [New7]", keys)
	}
}

func TestEvictPreviews(t *testing.T) {
	g := New()
	a, _ := g.AddNode(DefaultRootID)
	g.MergePreviews([]Proposal{
		{Predecessor: DefaultRootID, GridX: 1, GridY: 4, ActualKey: "x"},
		{Predecessor: a, GridX: 3, GridY: 3, ActualKey: "y"},
	}, nil)

	evicted := g.EvictPreviews()
	if len(evicted) != 2 {
		t.Fatalf("EvictPreviews() = %v, want 2 ids", evicted)
	}
	if len(g.Previews()) != 0 {
		t.Errorf("Previews() = %v after eviction", g.Previews())
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Errorf("graph has %d nodes %d edges, want 2 and 1", g.NodeCount(), g.EdgeCount())
	}
	if len(g.DeletedKeys()) != 2 {
		t.Errorf("DeletedKeys() = %v, want the two evicted ids", g.DeletedKeys())
	}
}

func TestPromote(t *testing.T) {
	g := New()
	pv := mergeOne(t, g, Proposal{Predecessor: DefaultRootID, GridX: 1, GridY: 0, ActualKey: "n1", Probability: 0.8, Support: 5})

	id, err := g.Promote(pv)
	if err != nil {
		t.Fatalf("Promote() error: %v", err)
	}
	if id != "n1" {
		t.Errorf("Promote() = %q, want n1", id)
	}
	n, ok := g.Node("n1")
	if !ok || n.IsPreview() {
		t.Fatalf("n1 = %+v, want confirmed node", n)
	}
	if n.Support != 5 {
		t.Errorf("Support = %d, want 5", n.Support)
	}
	if _, ok := g.Node(pv); ok && pv != "n1" {
		t.Errorf("synthetic id %s still present", pv)
	}
	if g.NodeCount() != 2 || !g.HasEdge(DefaultRootID, "n1") {
		t.Errorf("graph = %v / %v, want root -> n1", g.Nodes(), g.Edges())
	}
	root, _ := g.Node(DefaultRootID)
	if n.Color == root.Color {
		t.Errorf("promoted node shares colour %s with its predecessor", n.Color)
	}
	if keys := g.DeletedKeys(); len(keys) != 1 || keys[0] != pv {
		t.Errorf("DeletedKeys() = %v, want [%s]", keys, pv)
	}
}

func TestPromoteCollisionMergesSupport(t *testing.T) {
	g := New()
	a, _ := g.AddNode(DefaultRootID)
	b, _ := g.AddNode(a)

	pv := mergeOne(t, g, Proposal{Predecessor: a, GridX: 4, GridY: 3, ActualKey: b, Support: 4})
	pv2 := mergeOne(t, g, Proposal{Predecessor: DefaultRootID, GridX: 1, GridY: 4, ActualKey: b, Support: 3})

	if _, err := g.Promote(pv); err != nil {
		t.Fatal(err)
	}
	n, _ := g.Node(b)
	if n.Support != 4 {
		t.Errorf("Support after duplicate-edge promotion = %d, want 4", n.Support)
	}
	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3 (a->b duplicate dropped)", g.EdgeCount())
	}

	if _, err := g.Promote(pv2); err != nil {
		t.Fatal(err)
	}
	n, _ = g.Node(b)
	if n.Support != 7 {
		t.Errorf("Support = %d, want 7", n.Support)
	}
	if !g.HasEdge(DefaultRootID, b) {
		t.Error("edge root -> b missing after promotion")
	}
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount() = %d, want 3", g.NodeCount())
	}
}

func TestPromoteErrors(t *testing.T) {
	g := New()
	if _, err := g.Promote("missing"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Promote(missing) error = %v, want %v", err, ErrUnknownNode)
	}
	if _, err := g.Promote(DefaultRootID); !errors.Is(err, ErrNotPreview) {
		t.Errorf("Promote(root) error = %v, want %v", err, ErrNotPreview)
	}
}

func TestClickPromotesPreview(t *testing.T) {
	g := New()
	pv := mergeOne(t, g, Proposal{Predecessor: DefaultRootID, GridX: 2, GridY: 3, ActualKey: "Approve"})

	var kinds []EventKind
	g.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })

	id, err := g.Click(pv)
	if err != nil {
		t.Fatal(err)
	}
	if id != "Approve" {
		t.Errorf("Click() = %q, want Approve", id)
	}
	if len(kinds) != 1 || kinds[0] != NodePromoted {
		t.Errorf("events = %v, want [node-promoted]", kinds)
	}
	if !kinds[0].ConfirmedChange() {
		t.Error("promotion must count as a confirmed change")
	}
}

func TestPreviewNotWiredByHand(t *testing.T) {
	g := New()
	a, _ := g.AddNode(DefaultRootID)
	pv := mergeOne(t, g, Proposal{Predecessor: DefaultRootID, GridX: 1, GridY: 4, ActualKey: "x"})

	if err := g.AddEdge(a, pv); !errors.Is(err, ErrPreviewNode) {
		t.Errorf("AddEdge(a, preview) error = %v, want %v", err, ErrPreviewNode)
	}
	if g.RemoveEdge(DefaultRootID, pv) {
		t.Error("RemoveEdge(root, preview) = true, want false")
	}
	if err := g.ToggleSelect(pv); !errors.Is(err, ErrPreviewNode) {
		t.Errorf("ToggleSelect(preview) error = %v, want %v", err, ErrPreviewNode)
	}
	if err := g.DragBy(pv, 10, 10); !errors.Is(err, ErrPreviewNode) {
		t.Errorf("DragBy(preview) error = %v, want %v", err, ErrPreviewNode)
	}
}

func TestPromoteOntoPreviewID(t *testing.T) {
	g := New()
	a, _ := g.AddNode(DefaultRootID)
	b, _ := g.AddNode(a)
	if err := g.RemoveNode(b); err != nil {
		t.Fatal(err)
	}

	// The recycled id b goes to the first preview; the second would become b.
	held := mergeOne(t, g, Proposal{Predecessor: DefaultRootID, GridX: 1, GridY: 4, ActualKey: "Ship"})
	if held != b {
		t.Fatalf("first preview id = %s, want recycled %s", held, b)
	}
	pv := mergeOne(t, g, Proposal{Predecessor: a, GridX: 3, GridY: 3, ActualKey: b, Support: 5})

	id, err := g.Promote(pv)
	if err != nil {
		t.Fatalf("Promote() error: %v", err)
	}
	n, ok := g.Node(id)
	if id != b || !ok || n.IsPreview() || n.Support != 5 {
		t.Fatalf("Promote() = %s, node %+v, want confirmed %s with support 5", id, n, b)
	}

	previews := g.Previews()
	if len(previews) != 1 || previews[0] == b {
		t.Fatalf("Previews() = %v, want the Ship preview under a fresh id", previews)
	}
	ship, _ := g.Node(previews[0])
	if ship.ActualKey() != "Ship" || !g.HasEdge(DefaultRootID, previews[0]) {
		t.Errorf("moved preview = %+v, want Ship still connected from the root", ship)
	}

	g.EvictPreviews()
	if _, ok := g.Node(b); !ok || !g.HasEdge(a, b) {
		t.Errorf("promoted node %s lost after eviction: %v / %v", b, g.Nodes(), g.Edges())
	}
}

func TestMergeNeverUsesPendingKeys(t *testing.T) {
	g := New()
	a, _ := g.AddNode(DefaultRootID)
	b, _ := g.AddNode(a)
	if err := g.RemoveNode(b); err != nil {
		t.Fatal(err)
	}

	res := g.MergePreviews([]Proposal{
		{Predecessor: a, GridX: 3, GridY: 3, ActualKey: b},
		{Predecessor: DefaultRootID, GridX: 1, GridY: 4, ActualKey: "Ship"},
	}, nil)
	for _, id := range res.Added {
		if id == b {
			t.Errorf("MergePreviews() used %s, which a proposal would become", b)
		}
	}
}
