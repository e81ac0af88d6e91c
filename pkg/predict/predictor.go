package predict

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/nextstep/pkg/graph"
)

// Request is one prediction call: the serialized confirmed graph and the
// matrix to predict with.
type Request struct {
	Graph  []byte // Graph document as produced by the io package
	Matrix string
}

// Response is a decoded prediction.
type Response struct {
	// Proposals in ascending order of their response key.
	Proposals []graph.Proposal

	// DeletedKeys are ids the predictor considers free.
	DeletedKeys []string

	// Analytics holds every payload field besides the graph proposals,
	// undecoded.
	Analytics map[string]json.RawMessage
}

// Predictor proposes successors for a graph.
type Predictor interface {
	Predict(ctx context.Context, req Request) (Response, error)
}

// PredictorFunc adapts a function to [Predictor].
type PredictorFunc func(ctx context.Context, req Request) (Response, error)

// Predict calls f.
func (f PredictorFunc) Predict(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Filter drops proposals below the graph's thresholds. With Auto set the
// predictor applies the thresholds itself and all proposals are kept.
func Filter(proposals []graph.Proposal, s graph.Settings) []graph.Proposal {
	if s.Auto {
		return proposals
	}
	out := proposals[:0:0]
	for _, p := range proposals {
		if p.Probability >= s.ProbabilityMin && p.Support >= s.SupportMin {
			out = append(out, p)
		}
	}
	return out
}
