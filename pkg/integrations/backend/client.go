package backend

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"sync"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/integrations"
	pkgio "github.com/matzehuels/nextstep/pkg/io"
	"github.com/matzehuels/nextstep/pkg/predict"
)

// ErrNoSession is returned by every call except [Client.TestConnection] and
// [Client.StartSession] until a session has been started.
var ErrNoSession = stderrors.New("session has not been started")

// Client talks to the prediction and metrics backend.
//
// The backend keeps per-session state in a cookie, so one Client is one
// session. All methods are safe for concurrent use.
type Client struct {
	http *integrations.Client

	mu        sync.RWMutex
	sessionID string
}

// NewClient creates a backend client for baseURL.
func NewClient(baseURL string, opts ...integrations.ClientOption) (*Client, error) {
	hc, err := integrations.NewClient(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{http: hc}, nil
}

// TestConnection reports the backend's status message.
func (c *Client) TestConnection(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.http.GetJSON(ctx, "testConnection", &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// StartSession starts a backend session predicting with matrix, or with an
// uploaded CSV when csv is non-nil. It is a no-op once a session exists.
func (c *Client) StartSession(ctx context.Context, matrix string, csv io.Reader) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID != "" {
		return c.sessionID, nil
	}

	var resp struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
	}
	err := c.http.PostForm(ctx, "startSession", map[string]string{"matrix_name": matrix}, csvPart(matrix, csv), &resp)
	if err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", errors.New(errors.ErrCodeInvalidPayload, "startSession returned no session id")
	}
	c.sessionID = resp.SessionID
	return c.sessionID, nil
}

// SessionID returns the current session id, or "" before StartSession.
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

func (c *Client) requireSession() error {
	if c.SessionID() == "" {
		return errors.Wrap(errors.ErrCodeSessionNotFound, ErrNoSession, "backend call")
	}
	return nil
}

// Matrices lists the predefined and uploaded matrices.
func (c *Client) Matrices(ctx context.Context) (Matrices, error) {
	var m Matrices
	if err := c.requireSession(); err != nil {
		return m, err
	}
	err := c.http.GetJSON(ctx, "getAvailableMatrices", &m)
	return m, err
}

// ChangeMatrix makes name the session's current matrix. With csv non-nil
// the CSV is uploaded as a new custom matrix called name.
func (c *Client) ChangeMatrix(ctx context.Context, name string, csv io.Reader) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	return c.http.PostForm(ctx, "changeMatrix", map[string]string{"matrix_name": name}, csvPart(name, csv), nil)
}

// AddLog attaches an XES event log to the custom matrix name, enabling
// fitness for it.
func (c *Client) AddLog(ctx context.Context, name string, xes io.Reader) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	file := &integrations.FilePart{Field: "file", Filename: name + ".xes", Data: xes}
	return c.http.PostForm(ctx, "addLog", map[string]string{"matrix_name": name}, file, nil)
}

// RemoveMatrix removes a custom matrix. Predefined matrices are kept by the
// backend.
func (c *Client) RemoveMatrix(ctx context.Context, name string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	return c.http.PostJSON(ctx, "removeMatrix", map[string]string{"matrix_name": name}, nil)
}

// Predict sends the confirmed graph and returns the decoded proposals.
func (c *Client) Predict(ctx context.Context, req predict.Request) (predict.Response, error) {
	if err := c.requireSession(); err != nil {
		return predict.Response{}, err
	}
	body := map[string]string{"graph_input": string(req.Graph), "matrix": req.Matrix}
	var raw []byte
	if err := c.http.PostJSON(ctx, "predictOutcome", body, &raw); err != nil {
		return predict.Response{}, err
	}
	return predict.DecodeResponse(raw)
}

// AutoPosition returns the backend's layout for the last predicted graph
// as grid cells by node id.
func (c *Client) AutoPosition(ctx context.Context) (map[string][2]int, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var raw []byte
	if err := c.http.GetJSON(ctx, "autoPosition", &raw); err != nil {
		return nil, err
	}
	return pkgio.ParsePositions(raw)
}

// Variants lists the event log's variants for the last predicted graph.
func (c *Client) Variants(ctx context.Context) (Variants, error) {
	var v Variants
	err := c.postEmbedded(ctx, "getVariants", "variants", &v)
	return v, err
}

// Metrics returns the coverage scores of the last predicted graph.
func (c *Client) Metrics(ctx context.Context) (Metrics, error) {
	var m Metrics
	err := c.postEmbedded(ctx, "getMetrics", "metrics", &m)
	return m, err
}

// Fitness returns the fitness of the last predicted graph. It is slow on
// large logs.
func (c *Client) Fitness(ctx context.Context) (Fitness, error) {
	var f Fitness
	err := c.postEmbedded(ctx, "getPm4pyMetrics", "metrics", &f)
	return f, err
}

// PetriNetImage renders the last predicted graph as a Petri net JPEG.
func (c *Client) PetriNetImage(ctx context.Context) ([]byte, error) {
	return c.download(ctx, "generatePetriNet")
}

// PetriNetFile exports the last predicted graph as PNML.
func (c *Client) PetriNetFile(ctx context.Context) ([]byte, error) {
	return c.download(ctx, "generatePetriNetFile")
}

func (c *Client) download(ctx context.Context, path string) ([]byte, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var data []byte
	if err := c.http.PostJSON(ctx, path, nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// postEmbedded posts to path and decodes field, which the backend sends as
// a JSON-encoded string, into v.
func (c *Client) postEmbedded(ctx context.Context, path, field string, v any) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	var resp map[string]json.RawMessage
	if err := c.http.PostJSON(ctx, path, struct{}{}, &resp); err != nil {
		return err
	}
	raw, ok := resp[field]
	if !ok {
		return errors.New(errors.ErrCodeInvalidPayload, "%s response has no %q", path, field)
	}
	if err := pkgio.DecodeEmbedded(raw, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode %s", path)
	}
	return nil
}

func csvPart(name string, csv io.Reader) *integrations.FilePart {
	if csv == nil {
		return nil
	}
	return &integrations.FilePart{Field: "file", Filename: name + ".csv", Data: csv}
}

var _ predict.Predictor = (*Client)(nil)
