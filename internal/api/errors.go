package api

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is a non-2xx response.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string // first bytes of the response body
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api: %s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api: %s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Temporary reports whether retrying the same request may succeed.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsTemporary reports whether err is worth retrying: transport failures
// and 429/5xx responses are, other HTTP errors are not.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Temporary()
	}
	return true
}

// IsUnauthorized reports a 401 or 403 response.
func IsUnauthorized(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && (he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden)
}
