package es

import (
	"context"
	"errors"
	"net"
)

// Sentinel errors for backend operations.
var (
	ErrIndexNotFound = errors.New("es: index not found")
	ErrIndexExists   = errors.New("es: index already exists")
)

// Op constants name backend endpoints for error context.
const (
	OpSearch        = "search"
	OpSuggest       = "suggest"
	OpClusterHealth = "cluster_health"
	OpIndexExists   = "index_exists"
	OpCreateIndex   = "create_index"
	OpRefreshIndex  = "refresh_index"
	OpIndexDocument = "index_document"
	OpPing          = "ping"
)

// Error wraps an underlying error with the operation name and, for HTTP-level
// failures, the response status code.
type Error struct {
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// IsTransient reports whether err is worth retrying: timeouts, connection
// failures, and backend-side overload (429/5xx). Request errors (other 4xx)
// are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var esErr *Error
	if errors.As(err, &esErr) && esErr.Status != 0 {
		return esErr.Status == 429 || esErr.Status >= 500
	}
	return false
}

// IsRequestError reports whether err is a backend rejection of the request
// itself (4xx other than 429). Such errors are surfaced immediately.
func IsRequestError(err error) bool {
	var esErr *Error
	if errors.As(err, &esErr) && esErr.Status != 0 {
		return esErr.Status >= 400 && esErr.Status < 500 && esErr.Status != 429
	}
	return false
}
