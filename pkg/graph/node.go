package graph

import "fmt"

// Kind distinguishes regular process activities from nodes imported from a
// petri net.
type Kind int

const (
	// KindActivity is a regular process step created in the editor.
	KindActivity Kind = iota
	// KindPlace is a petri-net place.
	KindPlace
	// KindTransition is a petri-net transition.
	KindTransition
)

func (k Kind) String() string {
	switch k {
	case KindPlace:
		return "place"
	case KindTransition:
		return "transition"
	default:
		return "activity"
	}
}

// ParseKind returns the Kind named by s. The empty string is an activity.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "activity":
		return KindActivity, nil
	case "place":
		return KindPlace, nil
	case "transition":
		return KindTransition, nil
	}
	return KindActivity, fmt.Errorf("unknown node kind %q", s)
}

// NodeState is the identity of a node: either [Confirmed] or [Preview].
// The set of implementations is closed.
type NodeState interface {
	// Key returns the id the node is stored and referenced under.
	Key() string
	isNodeState()
}

// Confirmed is the state of a permanent, user-accepted node.
type Confirmed struct {
	ID string
	// Activity is the process activity the node stands for, sent to the
	// predictor as actualKey. Empty means the same as ID.
	Activity string
}

// Key returns the confirmed id.
func (s Confirmed) Key() string { return s.ID }

func (Confirmed) isNodeState() {}

// Preview is the state of a node proposed by the predictor and not yet
// accepted. It lives under SyntheticID until promoted to WouldBecome.
type Preview struct {
	SyntheticID string
	WouldBecome string
}

// Key returns the synthetic id.
func (s Preview) Key() string { return s.SyntheticID }

func (Preview) isNodeState() {}

// Node is a vertex of a process graph. Values returned by [Graph] are copies;
// mutate nodes through the Graph methods.
type Node struct {
	State NodeState
	Kind  Kind

	GridX, GridY   int     // Logical grid cell
	PixelX, PixelY float64 // Rendered top-left corner; off-grid only while dragging

	Caption     string
	Comment     string
	Color       string
	Probability float64 // Transition probability reported by the predictor, 0..1
	Support     int     // Accumulated observation count
	Selected    bool
}

// ID returns the key the node is stored under.
func (n Node) ID() string { return n.State.Key() }

// ActualKey returns the activity id the node stands for. For preview nodes
// this is the id the node would take once promoted.
func (n Node) ActualKey() string {
	switch s := n.State.(type) {
	case Preview:
		return s.WouldBecome
	case Confirmed:
		if s.Activity != "" {
			return s.Activity
		}
		return s.ID
	}
	return ""
}

// IsPreview reports whether the node is a speculative predictor proposal.
func (n Node) IsPreview() bool {
	_, ok := n.State.(Preview)
	return ok
}

// Edge is a directed connection between two nodes.
type Edge struct {
	From string
	To   string
}

// Touches reports whether id is either endpoint of e.
func (e Edge) Touches(id string) bool { return e.From == id || e.To == id }

// Connects reports whether e joins a and b in either direction.
func (e Edge) Connects(a, b string) bool {
	return (e.From == a && e.To == b) || (e.From == b && e.To == a)
}

// Other returns the endpoint of e opposite id.
func (e Edge) Other(id string) string {
	if e.From == id {
		return e.To
	}
	return e.From
}
