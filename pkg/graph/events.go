package graph

import "sync"

// EventKind identifies what a mutation changed.
type EventKind int

const (
	NodeAdded EventKind = iota + 1
	NodeRemoved
	NodeUpdated
	EdgeAdded
	EdgeRemoved
	NodePromoted
	NodesMoved
	SelectionChanged
	PreviewsEvicted
	PreviewsMerged
	SettingsChanged
	GraphImported
	PositionsApplied
)

var eventNames = map[EventKind]string{
	NodeAdded:        "node-added",
	NodeRemoved:      "node-removed",
	NodeUpdated:      "node-updated",
	EdgeAdded:        "edge-added",
	EdgeRemoved:      "edge-removed",
	NodePromoted:     "node-promoted",
	NodesMoved:       "nodes-moved",
	SelectionChanged: "selection-changed",
	PreviewsEvicted:  "previews-evicted",
	PreviewsMerged:   "previews-merged",
	SettingsChanged:  "settings-changed",
	GraphImported:    "graph-imported",
	PositionsApplied: "positions-applied",
}

func (k EventKind) String() string {
	if s, ok := eventNames[k]; ok {
		return s
	}
	return "unknown"
}

// ConfirmedChange reports whether events of this kind change what the
// predictor sees, so previews must be recomputed.
func (k EventKind) ConfirmedChange() bool {
	switch k {
	case NodeAdded, NodeRemoved, EdgeAdded, EdgeRemoved, NodePromoted, SettingsChanged, GraphImported:
		return true
	}
	return false
}

// Event describes one completed mutation.
type Event struct {
	Kind EventKind
	IDs  []string // Node ids the mutation touched, if any
}

// Observer receives events. It is called synchronously after the mutation
// has completed and with no graph lock held, so it may call back into the graph.
type Observer func(Event)

type observers struct {
	mu   sync.Mutex
	next int
	fns  map[int]Observer
	keys []int // subscription order
}

// Subscribe registers fn for every subsequent event and returns a function
// that removes it.
func (g *Graph) Subscribe(fn Observer) (cancel func()) {
	o := &g.observers
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fns == nil {
		o.fns = make(map[int]Observer)
	}
	id := o.next
	o.next++
	o.fns[id] = fn
	o.keys = append(o.keys, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.fns, id)
			for i, k := range o.keys {
				if k == id {
					o.keys = append(o.keys[:i], o.keys[i+1:]...)
					break
				}
			}
		})
	}
}

func (g *Graph) publish(ev Event) {
	o := &g.observers
	o.mu.Lock()
	fns := make([]Observer, 0, len(o.keys))
	for _, k := range o.keys {
		fns = append(fns, o.fns[k])
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
