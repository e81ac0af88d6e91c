package io

import (
	"encoding/json"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
)

// ParsePositions decodes an auto-layout answer, {"positions": ...}, into
// cells keyed by node id. The positions value may be an encoded JSON string.
func ParsePositions(data []byte) (map[string][2]int, error) {
	var wrapper struct {
		Positions json.RawMessage `json:"positions"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode positions")
	}
	var raw map[string][]float64
	if err := DecodeEmbedded(wrapper.Positions, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode positions")
	}

	out := make(map[string][2]int, len(raw))
	for id, xy := range raw {
		if len(xy) != 2 {
			return nil, errors.New(errors.ErrCodeInvalidPayload, "position of %q has %d coordinates, want 2", id, len(xy))
		}
		out[id] = [2]int{cell(xy[0]), cell(xy[1])}
	}
	return out, nil
}

// ApplyPositions decodes an auto-layout answer and moves the named nodes of
// g. It returns the number of nodes moved.
func ApplyPositions(data []byte, g *graph.Graph) (int, error) {
	pos, err := ParsePositions(data)
	if err != nil {
		return 0, err
	}
	return g.ApplyPositions(pos), nil
}
