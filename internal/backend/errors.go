package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is reported when the backend answers 401; the caller's
// session key for that config is no longer valid.
var ErrUnauthorized = errors.New("backend: unauthorized")

// ErrDecode wraps malformed response bodies.
var ErrDecode = errors.New("backend: malformed response")

// HTTPError is a non-2xx backend answer.
type HTTPError struct {
	Op      string
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, e.Message)
}

// Is makes a 401 HTTPError match ErrUnauthorized.
func (e *HTTPError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// ErrorMessage extracts the backend-provided message, if any.
func ErrorMessage(err error) string {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Message
	}
	return ""
}
