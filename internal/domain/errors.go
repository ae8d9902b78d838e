package domain

import "errors"

var (
	// ErrInvalidQuery signals a malformed search query, rejected before any backend call.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidDocument signals a malformed detection document.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrBackendUnavailable signals that the search backend cannot be reached,
	// either after retry exhaustion or because the circuit breaker is open.
	ErrBackendUnavailable = errors.New("search backend unavailable")
	// ErrQueryRejected signals a request the backend refused as malformed. Never retried.
	ErrQueryRejected = errors.New("query rejected by backend")
	// ErrMalformedResponse signals a backend response missing required telemetry.
	ErrMalformedResponse = errors.New("malformed backend response")
	// ErrIndexUnhealthy signals a red cluster; dependent operations are refused.
	ErrIndexUnhealthy = errors.New("index unhealthy")
)
