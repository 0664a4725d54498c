package github

import "errors"

// Classified upstream failures. Classification happens here, as close to
// the failure source as possible; the HTTP handler is the only layer that
// turns these into status codes.
var (
	// ErrQuotaExhausted means the provider reported its API quota as spent.
	// Recoverable after a delay, never retried within the same request.
	ErrQuotaExhausted = errors.New("github: api quota exhausted")

	// ErrMalformedResponse means the provider answered with a shape we
	// don't recognize. Malformed data is never coerced.
	ErrMalformedResponse = errors.New("github: malformed response")
)

// errNotFound is internal only: fetchers normalize it to an empty result
// before returning, because a missing path is a valid lookup outcome.
var errNotFound = errors.New("github: not found")
