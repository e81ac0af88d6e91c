package graph

import (
	"slices"
	"testing"
)

func TestEventsPublishedAfterMutation(t *testing.T) {
	g := New()
	var counts []int
	g.Subscribe(func(ev Event) {
		// calling back into the graph must not deadlock
		counts = append(counts, g.NodeCount())
	})

	id, _ := g.AddNode(DefaultRootID)
	_ = g.RemoveNode(id)

	if !slices.Equal(counts, []int{2, 1}) {
		t.Errorf("observed node counts = %v, want [2 1]", counts)
	}
}

func TestRejectedMutationPublishesNothing(t *testing.T) {
	g := New()
	n := 0
	g.Subscribe(func(Event) { n++ })

	_ = g.RemoveNode(DefaultRootID)
	_ = g.AddEdge(DefaultRootID, DefaultRootID)
	g.RemoveEdge(DefaultRootID, "x")

	if n != 0 {
		t.Errorf("%d events published for rejected mutations, want 0", n)
	}
}

func TestUnsubscribe(t *testing.T) {
	g := New()
	n := 0
	cancel := g.Subscribe(func(Event) { n++ })
	_, _ = g.AddNode(DefaultRootID)
	cancel()
	cancel()
	_, _ = g.AddNode(DefaultRootID)
	if n != 1 {
		t.Errorf("observer called %d times, want 1", n)
	}
}

func TestConfirmedChange(t *testing.T) {
	tests := []struct {
		kind EventKind
		want bool
	}{
		{NodeAdded, true},
		{NodeRemoved, true},
		{EdgeAdded, true},
		{EdgeRemoved, true},
		{NodePromoted, true},
		{SettingsChanged, true},
		{GraphImported, true},
		{NodeUpdated, false},
		{NodesMoved, false},
		{SelectionChanged, false},
		{PreviewsEvicted, false},
		{PreviewsMerged, false},
		{PositionsApplied, false},
	}
	for _, tt := range tests {
		if got := tt.kind.ConfirmedChange(); got != tt.want {
			t.Errorf("%s.ConfirmedChange() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}
