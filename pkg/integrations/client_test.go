package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	nserrors "github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/httputil"
)

func fastRetry(ctx context.Context, fn func() error) error {
	return httputil.Retry(ctx, 3, time.Millisecond, fn)
}

func newTestClient(t *testing.T, h http.Handler, opts ...ClientOption) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	c, err := NewClient(server.URL, append([]ClientOption{WithRetry(fastRetry)}, opts...)...)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"http://localhost:5000", "http://localhost:5000/", false},
		{"https://api.example.com/v1/", "https://api.example.com/v1/", false},
		{"localhost:5000", "http://localhost:5000/", false},
		{"", "", true},
		{"ftp://example.com", "", true},
	}
	for _, tt := range tests {
		c, err := NewClient(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewClient(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if err == nil && c.BaseURL() != tt.want {
			t.Errorf("NewClient(%q).BaseURL() = %q, want %q", tt.url, c.BaseURL(), tt.want)
		}
	}
}

func TestClientGetJSON(t *testing.T) {
	type response struct {
		Message string `json:"message"`
	}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/getMatrices" {
			t.Errorf("path = %s, want /getMatrices", r.URL.Path)
		}
		if r.Header.Get("X-Test") != "yes" {
			t.Errorf("X-Test header = %q, want yes", r.Header.Get("X-Test"))
		}
		json.NewEncoder(w).Encode(response{Message: "hello"})
	}), WithHeaders(map[string]string{"X-Test": "yes"}))

	var got response
	if err := c.GetJSON(context.Background(), "getMatrices", &got); err != nil {
		t.Fatalf("GetJSON() error: %v", err)
	}
	if got.Message != "hello" {
		t.Errorf("GetJSON() message = %q, want hello", got.Message)
	}
}

func TestClientPostJSON(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]string{"echo": in["matrix"]})
	}))

	var got map[string]string
	if err := c.PostJSON(context.Background(), "/predictOutcome", map[string]string{"matrix": "m"}, &got); err != nil {
		t.Fatalf("PostJSON() error: %v", err)
	}
	if got["echo"] != "m" {
		t.Errorf("PostJSON() echo = %q, want m", got["echo"])
	}
}

func TestClientPostForm(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm() error: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile() error: %v", err)
		}
		data, _ := io.ReadAll(f)
		json.NewEncoder(w).Encode(map[string]string{
			"name": r.FormValue("name"),
			"file": hdr.Filename,
			"data": string(data),
		})
	}))

	var got map[string]string
	file := &FilePart{Field: "file", Filename: "log.csv", Data: strings.NewReader("a,b")}
	err := c.PostForm(context.Background(), "uploadMatrix", map[string]string{"name": "M1"}, file, &got)
	if err != nil {
		t.Fatalf("PostForm() error: %v", err)
	}
	want := map[string]string{"name": "M1", "file": "log.csv", "data": "a,b"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("PostForm() %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestClientStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode nserrors.Code
		wantErr  error
	}{
		{"not found", http.StatusNotFound, `{}`, nserrors.ErrCodeNotFound, ErrNotFound},
		{"no session", http.StatusBadRequest, `{"error":"No session started"}`, nserrors.ErrCodeSessionNotFound, ErrRejected},
		{"bad request", http.StatusBadRequest, `{"error":"unknown matrix"}`, nserrors.ErrCodeInvalidInput, ErrRejected},
		{"server error", http.StatusInternalServerError, `boom`, nserrors.ErrCodeNetwork, ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			err := c.PostJSON(context.Background(), "x", nil, nil)
			if !nserrors.Is(err, tt.wantCode) {
				t.Errorf("PostJSON() code = %s, want %s (err %v)", nserrors.GetCode(err), tt.wantCode, err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("PostJSON() error = %v, want wrapping %v", err, tt.wantErr)
			}
			if httputil.IsRetryable(err) {
				t.Error("PostJSON() error still marked retryable")
			}
		})
	}
}

func TestClientGetRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"ok":true}`)
	}))

	var got struct{ OK bool }
	if err := c.GetJSON(context.Background(), "x", &got); err != nil {
		t.Fatalf("GetJSON() error: %v", err)
	}
	if !got.OK || calls.Load() != 3 {
		t.Errorf("GetJSON() ok = %v after %d calls, want true after 3", got.OK, calls.Load())
	}
}

func TestClientPostNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	if err := c.PostJSON(context.Background(), "x", nil, nil); err == nil {
		t.Fatal("PostJSON() error = nil, want failure")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestClientBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	cfg := DefaultBreakerConfig("test")
	cfg.MinRequests = 3
	cfg.FailureThreshold = 0.5
	cfg.Timeout = time.Minute
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}), WithBreaker(cfg))

	for range 3 {
		_ = c.PostJSON(context.Background(), "x", nil, nil)
	}
	err := c.PostJSON(context.Background(), "x", nil, nil)
	if !nserrors.Is(err, nserrors.ErrCodeUnavailable) {
		t.Errorf("PostJSON() with open breaker code = %s, want %s", nserrors.GetCode(err), nserrors.ErrCodeUnavailable)
	}
	if calls.Load() != 3 {
		t.Errorf("server calls = %d, want 3", calls.Load())
	}
}

func TestClientRejectionsKeepBreakerClosed(t *testing.T) {
	cfg := DefaultBreakerConfig("test")
	cfg.MinRequests = 2
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}), WithBreaker(cfg))

	for range 5 {
		err := c.PostJSON(context.Background(), "x", nil, nil)
		if nserrors.Is(err, nserrors.ErrCodeUnavailable) {
			t.Fatal("breaker opened on client errors")
		}
	}
}

func TestClientKeepsSessionCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/startSession", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		io.WriteString(w, `{}`)
	})
	mux.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("session")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"no session"}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"session": ck.Value})
	})
	c := newTestClient(t, mux)

	ctx := context.Background()
	if err := c.GetJSON(ctx, "whoami", nil); !nserrors.Is(err, nserrors.ErrCodeSessionNotFound) {
		t.Errorf("GetJSON() before session code = %s, want %s", nserrors.GetCode(err), nserrors.ErrCodeSessionNotFound)
	}
	if err := c.GetJSON(ctx, "startSession", nil); err != nil {
		t.Fatal(err)
	}
	var got map[string]string
	if err := c.GetJSON(ctx, "whoami", &got); err != nil {
		t.Fatalf("GetJSON() after session error: %v", err)
	}
	if got["session"] != "abc" {
		t.Errorf("session = %q, want abc", got["session"])
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.PostJSON(ctx, "slow", nil, nil)
	if !nserrors.Is(err, nserrors.ErrCodeTimeout) {
		t.Errorf("PostJSON() code = %s, want %s (err %v)", nserrors.GetCode(err), nserrors.ErrCodeTimeout, err)
	}
}

func TestClientRawBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `"quoted"`)
	}))
	var raw []byte
	if err := c.GetJSON(context.Background(), "x", &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw) != `"quoted"` {
		t.Errorf("raw body = %s, want \"quoted\"", raw)
	}
}
