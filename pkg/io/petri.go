package io

import (
	"encoding/json"
	"math"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
)

// Petri net layouts start at this cell so the net clears the canvas edge.
const (
	petriOriginX = 5
	petriOriginY = 3
)

// PetriNet is a discovered Petri net with a layout in cell units.
type PetriNet struct {
	Places      []Place      `json:"places"`
	Transitions []Transition `json:"transitions"`
	Arcs        []Arc        `json:"arcs"`
}

// Place is a Petri net place.
type Place struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Transition is a Petri net transition.
type Transition struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Arc connects a place and a transition.
type Arc struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// ParsePetriNet decodes a Petri net, either bare or wrapped as
// {"net": ...} where the net may itself be an encoded JSON string.
func ParsePetriNet(data []byte) (PetriNet, error) {
	var wrapper struct {
		Net json.RawMessage `json:"net"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return PetriNet{}, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode petri net")
	}

	var net struct {
		Places      *[]Place      `json:"places"`
		Transitions *[]Transition `json:"transitions"`
		Arcs        *[]Arc        `json:"arcs"`
	}
	var err error
	if wrapper.Net != nil {
		err = DecodeEmbedded(wrapper.Net, &net)
	} else {
		err = json.Unmarshal(data, &net)
	}
	if err != nil {
		return PetriNet{}, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode petri net")
	}
	if net.Places == nil || net.Transitions == nil || net.Arcs == nil {
		return PetriNet{}, errors.New(errors.ErrCodeInvalidPayload, "petri net needs places, transitions and arcs")
	}
	return PetriNet{Places: *net.Places, Transitions: *net.Transitions, Arcs: *net.Arcs}, nil
}

// Batch converts the net to an import batch. Places carry no caption;
// transitions are captioned with their label. Places and transitions keep
// separate id spaces, so batch source ids are prefixed "p:" and "t:".
func (n PetriNet) Batch() graph.Batch {
	b := graph.Batch{
		Nodes: make([]graph.ImportNode, 0, len(n.Places)+len(n.Transitions)),
		Edges: make([]graph.Edge, 0, len(n.Arcs)),
	}
	places := make(map[string]bool, len(n.Places))
	for _, p := range n.Places {
		places[p.ID] = true
		b.Nodes = append(b.Nodes, graph.ImportNode{
			SourceID:  placeKey(p.ID),
			ActualKey: p.ID,
			Kind:      graph.KindPlace,
			GridX:     cell(p.X) + petriOriginX,
			GridY:     cell(p.Y) + petriOriginY,
		})
	}
	transitions := make(map[string]bool, len(n.Transitions))
	for _, t := range n.Transitions {
		transitions[t.ID] = true
		b.Nodes = append(b.Nodes, graph.ImportNode{
			SourceID:  transitionKey(t.ID),
			ActualKey: t.ID,
			Kind:      graph.KindTransition,
			GridX:     cell(t.X) + petriOriginX,
			GridY:     cell(t.Y) + petriOriginY,
			Caption:   t.Label,
		})
	}
	for _, a := range n.Arcs {
		var e graph.Edge
		switch {
		case places[a.Source] && transitions[a.Target]:
			e = graph.Edge{From: placeKey(a.Source), To: transitionKey(a.Target)}
		case transitions[a.Source] && places[a.Target]:
			e = graph.Edge{From: transitionKey(a.Source), To: placeKey(a.Target)}
		default:
			// Not a place-transition pair; resolve each end on its own.
			e = graph.Edge{From: arcEnd(a.Source, places), To: arcEnd(a.Target, places)}
		}
		b.Edges = append(b.Edges, e)
	}
	return b
}

func placeKey(id string) string      { return "p:" + id }
func transitionKey(id string) string { return "t:" + id }

func arcEnd(id string, places map[string]bool) string {
	if places[id] {
		return placeKey(id)
	}
	return transitionKey(id)
}

// ReadPetriNet decodes a Petri net and imports it into g.
func ReadPetriNet(data []byte, g *graph.Graph) (graph.ImportResult, error) {
	net, err := ParsePetriNet(data)
	if err != nil {
		return graph.ImportResult{}, err
	}
	res, err := g.Import(net.Batch())
	if err != nil {
		return graph.ImportResult{}, errors.Wrap(errors.ErrCodeInvalidPayload, err, "import petri net")
	}
	return res, nil
}

func cell(v float64) int { return int(math.Floor(v + 0.5)) }
