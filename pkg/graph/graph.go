package graph

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/matzehuels/nextstep/pkg/geom"
	"github.com/matzehuels/nextstep/pkg/palette"
)

var (
	// ErrUnknownNode is returned when an operation names a node id that is
	// not in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrRootNode is returned by [Graph.RemoveNode] for the root node,
	// which can never be deleted.
	ErrRootNode = errors.New("root node cannot be removed")

	// ErrSelfLoop is returned by [Graph.AddEdge] when both endpoints are the
	// same node.
	ErrSelfLoop = errors.New("self-loop")

	// ErrDuplicateEdge is returned by [Graph.AddEdge] when the two nodes are
	// already connected in either direction.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrPreviewNode is returned when a user operation targets a preview
	// node. Preview nodes cannot be selected, dragged or wired by hand.
	ErrPreviewNode = errors.New("operation not allowed on preview node")

	// ErrNotPreview is returned by [Graph.Promote] for a confirmed node.
	ErrNotPreview = errors.New("node is not a preview")

	// ErrInvalidSettings is returned by [Graph.SetSettings] for out-of-range
	// thresholds or an empty matrix name.
	ErrInvalidSettings = errors.New("invalid settings")
)

// DefaultRootID is the id of the start node every new graph begins with.
// The prediction backend walks sequences from this id.
const DefaultRootID = "starting_with_key:0"

// DefaultMatrix is the prediction matrix selected in a new graph.
const DefaultMatrix = "Simple IOR Choice"

// Root node placement.
const (
	rootCaption = "Start"
	rootGridX   = 1
	rootGridY   = 3
)

// Settings are the per-graph controls sent along with every prediction request.
type Settings struct {
	ProbabilityMin float64 `json:"probability"`
	SupportMin     int     `json:"support"`
	Auto           bool    `json:"auto"`
	Matrix         string  `json:"matrix"`
	ShowPreview    bool    `json:"showPreview"`
}

// DefaultSettings returns the settings of a new graph.
func DefaultSettings() Settings {
	return Settings{
		ProbabilityMin: 0.3,
		SupportMin:     1,
		Auto:           true,
		Matrix:         DefaultMatrix,
		ShowPreview:    true,
	}
}

// Validate checks that thresholds are in range and a matrix is named.
func (s Settings) Validate() error {
	switch {
	case s.ProbabilityMin < 0 || s.ProbabilityMin > 1:
		return fmt.Errorf("%w: probability %v not in [0,1]", ErrInvalidSettings, s.ProbabilityMin)
	case s.SupportMin < 0:
		return fmt.Errorf("%w: support %d is negative", ErrInvalidSettings, s.SupportMin)
	case s.Matrix == "":
		return fmt.Errorf("%w: matrix name is empty", ErrInvalidSettings)
	}
	return nil
}

// Graph is a process graph of confirmed and preview nodes.
//
// All methods are safe for concurrent use. Every successful mutation
// publishes exactly one [Event] to subscribers after the mutation completed.
// Invalid mutations return an error and leave the graph unchanged.
type Graph struct {
	mu       sync.Mutex
	tr       geom.Transform
	colors   *palette.Assigner
	nodes    map[string]*Node
	order    []string // insertion order
	edges    []Edge
	pool     keyPool
	root     string
	selected []string
	settings Settings

	observers observers
}

// Option configures a Graph.
type Option func(*config)

type config struct {
	tr       geom.Transform
	colors   *palette.Assigner
	settings Settings
	noRoot   bool
}

// WithTransform sets the grid/pixel transform. The default is [geom.Default].
func WithTransform(tr geom.Transform) Option {
	return func(c *config) { c.tr = tr }
}

// WithPalette sets the colour assigner.
func WithPalette(a *palette.Assigner) Option {
	return func(c *config) { c.colors = a }
}

// WithSettings sets the initial settings.
func WithSettings(s Settings) Option {
	return func(c *config) { c.settings = s }
}

// WithoutRoot creates the graph without a start node. Such a graph adopts a
// root only through [Graph.Import].
func WithoutRoot() Option {
	return func(c *config) { c.noRoot = true }
}

// New creates a graph containing only the root start node.
func New(opts ...Option) *Graph {
	cfg := config{tr: geom.Default(), settings: DefaultSettings()}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.colors == nil {
		cfg.colors = palette.New(nil)
	}

	g := &Graph{
		tr:       cfg.tr,
		colors:   cfg.colors,
		nodes:    make(map[string]*Node),
		pool:     newKeyPool(),
		settings: cfg.settings,
	}
	if !cfg.noRoot {
		n := &Node{State: Confirmed{ID: DefaultRootID}, Caption: rootCaption}
		g.place(n, rootGridX, rootGridY)
		g.insert(n)
		g.root = DefaultRootID
		n.Color = g.assignColor(DefaultRootID)
	}
	return g
}

// mutate runs fn under the lock and publishes its event afterwards.
func (g *Graph) mutate(fn func() (Event, error)) error {
	g.mu.Lock()
	ev, err := fn()
	g.mu.Unlock()
	if err != nil {
		return err
	}
	g.publish(ev)
	return nil
}

// =============================================================================
// Queries
// =============================================================================

// Transform returns the grid/pixel transform.
func (g *Graph) Transform() geom.Transform { return g.tr }

// Root returns the root node id, or "" for a rootless graph.
func (g *Graph) Root() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.root
}

// Settings returns the current settings.
func (g *Graph) Settings() Settings {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.settings
}

// Node returns a copy of the node stored under id.
func (g *Graph) Node(id string) (Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns copies of all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nodeList()
}

// Edges returns a copy of the edge list.
func (g *Graph) Edges() []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.edges)
}

// NodeCount returns the number of nodes, previews included.
func (g *Graph) NodeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.edges)
}

// HasEdge reports whether a and b are connected in either direction.
func (g *Graph) HasEdge(a, b string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hasEdge(a, b)
}

// Previews returns the ids of all preview nodes in insertion order.
func (g *Graph) Previews() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var ids []string
	for _, id := range g.order {
		if g.nodes[id].IsPreview() {
			ids = append(ids, id)
		}
	}
	return ids
}

// DeletedKeys returns the recycle pool in the order ids will be reused.
func (g *Graph) DeletedKeys() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pool.sorted()
}

// Snapshot is a consistent copy of a graph's state.
type Snapshot struct {
	Nodes       []Node
	Edges       []Edge
	DeletedKeys []string
	Settings    Settings
	Root        string
}

// Snapshot copies the whole graph under a single lock.
func (g *Graph) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{
		Nodes:       g.nodeList(),
		Edges:       slices.Clone(g.edges),
		DeletedKeys: g.pool.sorted(),
		Settings:    g.settings,
		Root:        g.root,
	}
}

// =============================================================================
// Mutations
// =============================================================================

// AddNode creates a confirmed node next to from and connects from to it.
// The new node takes the first free grid cell to the right of from on the
// same row, and a recycled id when one is available.
func (g *Graph) AddNode(from string) (string, error) {
	var id string
	err := g.mutate(func() (Event, error) {
		parent, ok := g.nodes[from]
		if !ok {
			return Event{}, fmt.Errorf("%w: %s", ErrUnknownNode, from)
		}
		if parent.IsPreview() {
			return Event{}, fmt.Errorf("%w: %s", ErrPreviewNode, from)
		}

		x, y := parent.GridX, parent.GridY
		for g.occupied(x, y) {
			x++
		}

		id = g.pool.allocate(len(g.nodes), g.inUse)
		n := &Node{State: Confirmed{ID: id}, Caption: id}
		g.place(n, x, y)
		g.insert(n)
		g.edges = append(g.edges, Edge{From: from, To: id})
		n.Color = g.assignColor(id)
		return Event{Kind: NodeAdded, IDs: []string{from, id}}, nil
	})
	return id, err
}

// AddNodeAt creates an unconnected confirmed node at a grid cell.
// An empty caption defaults to the new id.
func (g *Graph) AddNodeAt(gx, gy int, caption string) (string, error) {
	var id string
	err := g.mutate(func() (Event, error) {
		id = g.pool.allocate(len(g.nodes), g.inUse)
		if caption == "" {
			caption = id
		}
		n := &Node{State: Confirmed{ID: id}, Caption: caption}
		g.place(n, gx, gy)
		g.insert(n)
		n.Color = g.assignColor(id)
		return Event{Kind: NodeAdded, IDs: []string{id}}, nil
	})
	return id, err
}

// RemoveNode deletes a confirmed node and every edge touching it, and
// releases its id for reuse. The root node is never removed.
func (g *Graph) RemoveNode(id string) error {
	return g.mutate(func() (Event, error) {
		n, ok := g.nodes[id]
		switch {
		case !ok:
			return Event{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
		case id == g.root:
			return Event{}, ErrRootNode
		case n.IsPreview():
			return Event{}, fmt.Errorf("%w: %s", ErrPreviewNode, id)
		}
		g.remove(id)
		return Event{Kind: NodeRemoved, IDs: []string{id}}, nil
	})
}

// AddEdge connects two confirmed nodes.
func (g *Graph) AddEdge(from, to string) error {
	return g.mutate(func() (Event, error) {
		if from == to {
			return Event{}, ErrSelfLoop
		}
		for _, id := range []string{from, to} {
			n, ok := g.nodes[id]
			if !ok {
				return Event{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
			}
			if n.IsPreview() {
				return Event{}, fmt.Errorf("%w: %s", ErrPreviewNode, id)
			}
		}
		if g.hasEdge(from, to) {
			return Event{}, ErrDuplicateEdge
		}
		g.edges = append(g.edges, Edge{From: from, To: to})
		return Event{Kind: EdgeAdded, IDs: []string{from, to}}, nil
	})
}

// RemoveEdge removes the edge between a and b in whichever direction it
// exists. It reports whether an edge was removed; a missing edge or one
// touching a preview node is left alone.
func (g *Graph) RemoveEdge(a, b string) bool {
	err := g.mutate(func() (Event, error) {
		if g.isPreview(a) || g.isPreview(b) {
			return Event{}, ErrPreviewNode
		}
		i := g.edgeIndex(a, b)
		if i < 0 {
			return Event{}, ErrUnknownNode
		}
		g.edges = slices.Delete(g.edges, i, i+1)
		return Event{Kind: EdgeRemoved, IDs: []string{a, b}}, nil
	})
	return err == nil
}

// SetCaption changes the display caption of a confirmed node.
func (g *Graph) SetCaption(id, caption string) error {
	return g.update(id, func(n *Node) { n.Caption = caption })
}

// SetComment changes the free-text comment of a confirmed node.
func (g *Graph) SetComment(id, comment string) error {
	return g.update(id, func(n *Node) { n.Comment = comment })
}

func (g *Graph) update(id string, fn func(*Node)) error {
	return g.mutate(func() (Event, error) {
		n, ok := g.nodes[id]
		if !ok {
			return Event{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
		}
		if n.IsPreview() {
			return Event{}, fmt.Errorf("%w: %s", ErrPreviewNode, id)
		}
		fn(n)
		return Event{Kind: NodeUpdated, IDs: []string{id}}, nil
	})
}

// SetSettings replaces the thresholds, matrix and preview toggle.
func (g *Graph) SetSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return g.mutate(func() (Event, error) {
		g.settings = s
		return Event{Kind: SettingsChanged}, nil
	})
}

// SetMatrix switches the active prediction matrix.
func (g *Graph) SetMatrix(name string) error {
	s := g.Settings()
	s.Matrix = name
	return g.SetSettings(s)
}

// =============================================================================
// Internals (lock held)
// =============================================================================

func (g *Graph) inUse(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) isPreview(id string) bool {
	n, ok := g.nodes[id]
	return ok && n.IsPreview()
}

func (g *Graph) nodeList() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, *g.nodes[id])
	}
	return out
}

func (g *Graph) insert(n *Node) {
	id := n.ID()
	g.nodes[id] = n
	g.order = append(g.order, id)
	g.pool.forget(id)
}

// remove deletes a node, its edges and its selection entry, and releases its id.
func (g *Graph) remove(id string) {
	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })
	g.selected = slices.DeleteFunc(g.selected, func(s string) bool { return s == id })
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.Touches(id) })
	g.pool.release(id)
}

func (g *Graph) place(n *Node, gx, gy int) {
	n.GridX, n.GridY = gx, gy
	n.PixelX, n.PixelY = g.tr.ToPixel(gx, gy)
}

func (g *Graph) occupied(gx, gy int) bool {
	for _, n := range g.nodes {
		if n.GridX == gx && n.GridY == gy {
			return true
		}
	}
	return false
}

func (g *Graph) edgeIndex(a, b string) int {
	return slices.IndexFunc(g.edges, func(e Edge) bool { return e.Connects(a, b) })
}

func (g *Graph) hasEdge(a, b string) bool { return g.edgeIndex(a, b) >= 0 }

// assignColor picks a colour for id that differs from its direct neighbours.
func (g *Graph) assignColor(id string) string {
	var exclude []string
	for _, e := range g.edges {
		if e.Touches(id) {
			if nb, ok := g.nodes[e.Other(id)]; ok && nb.Color != "" {
				exclude = append(exclude, nb.Color)
			}
		}
	}
	return g.colors.Assign(len(g.nodes), exclude)
}
