package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/nextstep/internal/validate"
	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
	"github.com/matzehuels/nextstep/pkg/predict"
)

// errorBody is the JSON body of every failed request.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	respondJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: errors.UserMessage(err)}})
}

// classify maps graph invariant violations and coded errors to a status
// and code.
func classify(err error) (int, errors.Code) {
	switch {
	case stderrors.Is(err, graph.ErrUnknownNode):
		return http.StatusNotFound, errors.ErrCodeNotFound
	case stderrors.Is(err, graph.ErrRootNode),
		stderrors.Is(err, graph.ErrSelfLoop),
		stderrors.Is(err, graph.ErrDuplicateEdge),
		stderrors.Is(err, graph.ErrPreviewNode),
		stderrors.Is(err, graph.ErrNotPreview):
		return http.StatusConflict, errors.ErrCodeInvalidInput
	case stderrors.Is(err, graph.ErrInvalidSettings):
		return http.StatusBadRequest, errors.ErrCodeInvalidInput
	case stderrors.Is(err, predict.ErrBusy):
		return http.StatusConflict, errors.ErrCodeUnavailable
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return errors.HTTPStatus(err), code
}

// decode reads a JSON body into v and validates it.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return validate.Struct(v, errors.ErrCodeInvalidInput)
}
