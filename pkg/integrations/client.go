package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/httputil"
	"github.com/matzehuels/nextstep/pkg/observability"
)

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 4 << 10

// Client is a JSON HTTP client for one backend base URL.
//
// GET requests are retried on transient failures; POST requests are not.
// All requests pass through a circuit breaker, and session cookies are kept
// between calls. Failures come back as coded errors from pkg/errors.
type Client struct {
	http    *http.Client
	base    *url.URL
	headers map[string]string
	breaker *gobreaker.CircuitBreaker
	logger  *log.Logger
	retry   func(ctx context.Context, fn func() error) error
}

// ClientOption configures a [Client].
type ClientOption func(*clientConfig)

type clientConfig struct {
	http    *http.Client
	headers map[string]string
	breaker BreakerConfig
	logger  *log.Logger
	retry   func(ctx context.Context, fn func() error) error
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cfg *clientConfig) { cfg.http = c }
}

// WithHeaders sets headers sent with every request.
func WithHeaders(h map[string]string) ClientOption {
	return func(cfg *clientConfig) { cfg.headers = h }
}

// WithBreaker replaces the circuit breaker settings.
func WithBreaker(b BreakerConfig) ClientOption {
	return func(cfg *clientConfig) { cfg.breaker = b }
}

// WithClientLogger sets the logger for breaker state changes.
func WithClientLogger(l *log.Logger) ClientOption {
	return func(cfg *clientConfig) { cfg.logger = l }
}

// WithRetry replaces the retry policy for GET requests.
func WithRetry(fn func(ctx context.Context, fn func() error) error) ClientOption {
	return func(cfg *clientConfig) { cfg.retry = fn }
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = NormalizeBaseURL(baseURL)
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	base, err := url.Parse(baseURL + "/")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse base URL")
	}

	cfg := clientConfig{
		breaker: DefaultBreakerConfig(base.Host),
		logger:  log.New(io.Discard),
		retry:   httputil.RetryWithBackoff,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.http == nil {
		cfg.http = NewHTTPClient()
	}

	return &Client{
		http:    cfg.http,
		base:    base,
		headers: cfg.headers,
		breaker: newBreaker(cfg.breaker, cfg.logger),
		logger:  cfg.logger,
		retry:   cfg.retry,
	}, nil
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// GetJSON performs a GET and decodes the JSON response into v.
func (c *Client) GetJSON(ctx context.Context, path string, v any) error {
	var body []byte
	err := c.retry(ctx, func() error {
		var err error
		body, err = c.Do(ctx, http.MethodGet, path, "", nil)
		return err
	})
	if err != nil {
		return unwrapRetryable(err)
	}
	return decode(body, v)
}

// PostJSON posts in as JSON and decodes the JSON response into v. A nil in
// posts an empty body; a nil v discards the response.
func (c *Client) PostJSON(ctx context.Context, path string, in, v any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode request")
		}
	}
	body, err := c.Do(ctx, http.MethodPost, path, "application/json", payload)
	if err != nil {
		return unwrapRetryable(err)
	}
	return decode(body, v)
}

// FilePart is a file field of a multipart form.
type FilePart struct {
	Field    string
	Filename string
	Data     io.Reader
}

// PostForm posts a multipart form with optional file and decodes the JSON
// response into v.
func (c *Client) PostForm(ctx context.Context, path string, fields map[string]string, file *FilePart, v any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, val := range fields {
		if err := mw.WriteField(k, val); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode form")
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode form")
		}
		if _, err := io.Copy(fw, file.Data); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "read %s", file.Filename)
		}
	}
	if err := mw.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode form")
	}

	body, err := c.Do(ctx, http.MethodPost, path, mw.FormDataContentType(), buf.Bytes())
	if err != nil {
		return unwrapRetryable(err)
	}
	return decode(body, v)
}

// Do sends one request through the circuit breaker and returns the
// response body. Transient failures are returned wrapped in
// [httputil.RetryableError].
func (c *Client) Do(ctx context.Context, method, path, contentType string, payload []byte) ([]byte, error) {
	u := c.base.ResolveReference(&url.URL{Path: strings.TrimLeft(path, "/")})
	hooks := observability.HTTP()

	out, err := c.breaker.Execute(func() (any, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "build request")
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Accept", "application/json")
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		hooks.OnRequest(ctx, method, u.Host, u.Path)
		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			hooks.OnError(ctx, method, u.Host, u.Path, err)
			return nil, transportError(ctx, method, u.Path, err)
		}
		defer resp.Body.Close()
		hooks.OnResponse(ctx, method, u.Host, u.Path, resp.StatusCode, time.Since(start))

		if err := checkStatus(resp, method, u.Path); err != nil {
			return nil, err
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, transportError(ctx, method, u.Path, err)
		}
		return data, nil
	})
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		hooks.OnError(ctx, method, u.Host, u.Path, err)
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "%s %s", method, u.Path)
	}
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func transportError(ctx context.Context, method, path string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.Wrap(errors.ErrCodeTimeout, fmt.Errorf("%w: %v", ErrNetwork, err), "%s %s", method, path)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, fmt.Errorf("%w: %v", ErrNetwork, err), "%s %s", method, path))
}

// checkStatus maps a non-2xx response to a coded error. The backend
// reports missing sessions as 400 with an error message naming the session.
func checkStatus(resp *http.Response, method, path string) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}
	msg := errorMessage(resp.Body)
	switch {
	case code == http.StatusNotFound:
		return errors.Wrap(errors.ErrCodeNotFound, ErrNotFound, "%s %s: %s", method, path, msg)
	case code >= 500:
		return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, fmt.Errorf("%w: status %d", ErrNetwork, code), "%s %s: %s", method, path, msg))
	case strings.Contains(strings.ToLower(msg), "session"):
		return errors.Wrap(errors.ErrCodeSessionNotFound, ErrRejected, "%s %s: %s", method, path, msg)
	default:
		return errors.Wrap(errors.ErrCodeInvalidInput, fmt.Errorf("%w: status %d", ErrRejected, code), "%s %s: %s", method, path, msg)
	}
}

func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(data))
}

func decode(body []byte, v any) error {
	if v == nil {
		return nil
	}
	if raw, ok := v.(*[]byte); ok {
		*raw = body
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode response")
	}
	return nil
}

// unwrapRetryable strips the retry marker so callers see the coded error.
func unwrapRetryable(err error) error {
	var re *httputil.RetryableError
	if stderrors.As(err, &re) {
		return re.Err
	}
	return err
}
