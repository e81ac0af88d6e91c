// Package graph holds the business-process graph being edited: confirmed
// nodes placed by the user, preview nodes proposed by the predictor, and the
// directed edges between them.
//
// # Node Identity
//
// A node's identity is a closed union, [NodeState]:
//
//   - [Confirmed]: a permanent node stored under its id.
//   - [Preview]: a proposal stored under a synthetic id, carrying the id it
//     would take once accepted.
//
// [Graph.Promote] is the only transition from Preview to Confirmed. It
// re-keys the node, rewires its edges and releases the synthetic id.
//
// # Ids
//
// Ids released by deletion, eviction or promotion go to a recycle pool.
// New ids are taken from the pool in natural order (New9 before New10)
// before a fresh New<n> is minted, so the id space stays dense.
//
// # Invariants
//
//   - Every edge endpoint is a live node.
//   - At most one edge joins any unordered pair of nodes; no self-loops.
//   - The root node is never removed.
//   - Preview nodes are never selected, dragged or wired by hand.
//
// Operations that would break an invariant return a sentinel error and leave
// the graph unchanged.
//
// # Events
//
// Observers registered with [Graph.Subscribe] receive one [Event] per
// successful mutation, after the mutation completed and with no lock held.
// [EventKind.ConfirmedChange] tells a preview reconciler which events change
// what the predictor sees:
//
//	g := graph.New()
//	cancel := g.Subscribe(func(ev graph.Event) {
//	    if ev.Kind.ConfirmedChange() {
//	        reconciler.Trigger()
//	    }
//	})
//	defer cancel()
//
//	id, _ := g.AddNode(graph.DefaultRootID)
package graph
