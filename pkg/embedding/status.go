package embedding

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError is a non-200 answer from an embedding backend.
type StatusError struct {
	Backend string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Backend, e.Code, e.Body)
}

// Temporary reports whether the same request may succeed later.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

func statusError(backend string, resp *http.Response) *StatusError {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Backend: backend, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
}
