// Package palette assigns display colours to graph nodes.
//
// The assignment is deterministic for a given node count: the starting
// index is (7*n + 3) mod len(palette), which walks the palette in a fixed
// pseudo-random order as the graph grows. From the start index the assigner
// advances past every colour already used by a direct neighbour, wrapping
// around the palette. When every colour is taken by a neighbour it falls
// back to the least recently assigned colour.
//
//	a := palette.New(palette.Default)
//	color := a.Assign(g.NodeCount(), neighbourColors)
package palette

import "sync"

// Default is the 13-colour palette used by the editor.
var Default = []string{
	"#FF0000", // red
	"#00FF00", // green
	"#0000FF", // blue
	"#FFA500", // orange
	"#800080", // purple
	"#FFC0CB", // pink
	"#008080", // teal
	"#000080", // navy
	"#4B0082", // indigo
	"#EE82EE", // violet
	"#FFD700", // gold
	"#D2691E", // chocolate
	"#FF4500", // orangered
}

const (
	multiplier = 7
	increment  = 3
)

// Assigner picks colours from a fixed palette. It is safe for concurrent use.
type Assigner struct {
	mu      sync.Mutex
	colors  []string
	clock   uint64
	lastUse []uint64 // zero means never assigned
}

// New creates an assigner over colors. An empty palette falls back to [Default].
func New(colors []string) *Assigner {
	if len(colors) == 0 {
		colors = Default
	}
	c := make([]string, len(colors))
	copy(c, colors)
	return &Assigner{colors: c, lastUse: make([]uint64, len(c))}
}

// Colors returns a copy of the palette.
func (a *Assigner) Colors() []string {
	out := make([]string, len(a.colors))
	copy(out, a.colors)
	return out
}

// Start returns the palette index the search begins at for a graph of
// nodeCount nodes.
func (a *Assigner) Start(nodeCount int) int {
	n := len(a.colors)
	i := (multiplier*nodeCount + increment) % n
	if i < 0 {
		i += n
	}
	return i
}

// Assign returns a colour for a node in a graph of nodeCount nodes whose
// direct neighbours use the colours in exclude.
func (a *Assigner) Assign(nodeCount int, exclude []string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	excluded := make(map[string]bool, len(exclude))
	for _, c := range exclude {
		excluded[c] = true
	}

	n := len(a.colors)
	start := a.Start(nodeCount)
	for step := range n {
		i := (start + step) % n
		if !excluded[a.colors[i]] {
			return a.use(i)
		}
	}
	return a.use(a.leastRecent())
}

func (a *Assigner) use(i int) string {
	a.clock++
	a.lastUse[i] = a.clock
	return a.colors[i]
}

// leastRecent returns the index with the oldest use; ties go to palette order.
func (a *Assigner) leastRecent() int {
	best := 0
	for i := 1; i < len(a.lastUse); i++ {
		if a.lastUse[i] < a.lastUse[best] {
			best = i
		}
	}
	return best
}
