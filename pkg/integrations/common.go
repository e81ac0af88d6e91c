package integrations

import (
	"errors"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

const httpTimeout = 30 * time.Second

var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for transport failures and 5xx responses.
	ErrNetwork = errors.New("network error")

	// ErrRejected is returned for other 4xx responses.
	ErrRejected = errors.New("request rejected")
)

// NewHTTPClient creates an HTTP client with the standard timeout and a
// cookie jar, so a backend session cookie set by one call is sent with the
// next.
func NewHTTPClient() *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{Timeout: httpTimeout, Jar: jar}
}

// NormalizeBaseURL trims whitespace and trailing slashes and defaults a
// bare host to http.
func NormalizeBaseURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	return strings.TrimRight(s, "/")
}
