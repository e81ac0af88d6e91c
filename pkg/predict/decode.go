package predict

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
	pkgio "github.com/matzehuels/nextstep/pkg/io"
)

type returnNode struct {
	EdgeStart string `json:"edgeStart"`
	Node      struct {
		X         float64 `json:"x"`
		Y         float64 `json:"y"`
		ActualKey string  `json:"actualKey"`
	} `json:"node"`
	Probability float64 `json:"probability"`
	Support     int     `json:"support"`
}

type dfg struct {
	ReturnNodes map[string]returnNode `json:"returnNodes"`
	DeletedKeys []string              `json:"deletedKeys"`
}

// DecodeResponse decodes a predictor answer of the form
// {"predictions": payload}, where payload is an object or an encoded JSON
// string holding {"dfg": {...}, ...analytics}. A payload without the dfg
// wrapper is read as the dfg itself. Any structural problem yields a coded
// MALFORMED_PREDICTION error.
func DecodeResponse(data []byte) (Response, error) {
	var envelope struct {
		Predictions json.RawMessage `json:"predictions"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Response{}, errors.Wrap(errors.ErrCodeMalformedPrediction, err, "decode prediction envelope")
	}
	var payload map[string]json.RawMessage
	if err := pkgio.DecodeEmbedded(envelope.Predictions, &payload); err != nil {
		return Response{}, errors.Wrap(errors.ErrCodeMalformedPrediction, err, "decode predictions")
	}

	var d dfg
	analytics := make(map[string]json.RawMessage)
	if raw, ok := payload["dfg"]; ok {
		if err := pkgio.DecodeEmbedded(raw, &d); err != nil {
			return Response{}, errors.Wrap(errors.ErrCodeMalformedPrediction, err, "decode dfg")
		}
		for k, v := range payload {
			if k != "dfg" {
				analytics[k] = v
			}
		}
	} else {
		if err := remarshal(payload, &d); err != nil {
			return Response{}, errors.Wrap(errors.ErrCodeMalformedPrediction, err, "decode dfg")
		}
	}
	if d.ReturnNodes == nil {
		return Response{}, errors.New(errors.ErrCodeMalformedPrediction, "prediction has no returnNodes")
	}

	keys := make([]string, 0, len(d.ReturnNodes))
	for k := range d.ReturnNodes {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	resp := Response{
		Proposals:   make([]graph.Proposal, 0, len(keys)),
		DeletedKeys: d.DeletedKeys,
		Analytics:   analytics,
	}
	for _, k := range keys {
		rn := d.ReturnNodes[k]
		if rn.EdgeStart == "" || rn.Node.ActualKey == "" {
			return Response{}, errors.New(errors.ErrCodeMalformedPrediction, "proposal %q lacks edgeStart or actualKey", k)
		}
		if rn.Probability < 0 || rn.Probability > 1 {
			return Response{}, errors.New(errors.ErrCodeMalformedPrediction, "proposal %q probability %v not in [0,1]", k, rn.Probability)
		}
		resp.Proposals = append(resp.Proposals, graph.Proposal{
			Predecessor: rn.EdgeStart,
			GridX:       int(math.Floor(rn.Node.X + 0.5)),
			GridY:       int(math.Floor(rn.Node.Y + 0.5)),
			ActualKey:   rn.Node.ActualKey,
			Probability: rn.Probability,
			Support:     rn.Support,
		})
	}
	return resp, nil
}

// EncodeResponse is the inverse of [DecodeResponse], used to cache answers.
func EncodeResponse(r Response) ([]byte, error) {
	d := dfg{ReturnNodes: make(map[string]returnNode, len(r.Proposals)), DeletedKeys: r.DeletedKeys}
	for i, p := range r.Proposals {
		var rn returnNode
		rn.EdgeStart = p.Predecessor
		rn.Node.X, rn.Node.Y = float64(p.GridX), float64(p.GridY)
		rn.Node.ActualKey = p.ActualKey
		rn.Probability = p.Probability
		rn.Support = p.Support
		d.ReturnNodes[fmt.Sprintf("p%06d", i)] = rn
	}
	dfgJSON, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	payload := map[string]json.RawMessage{"dfg": dfgJSON}
	for k, v := range r.Analytics {
		payload[k] = v
	}
	return json.Marshal(map[string]any{"predictions": payload})
}

func remarshal(in any, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
