package tools

import "errors"

var (
	// ErrMalformedInput is returned when a structured tool input does
	// not follow its key=value contract.
	ErrMalformedInput = errors.New("malformed tool input")

	// ErrUpstreamRejected is returned when a third-party API answers
	// with a non-2xx status.
	ErrUpstreamRejected = errors.New("upstream request rejected")

	// ErrToolNotFound is returned when the registry has no tool under
	// the requested name.
	ErrToolNotFound = errors.New("tool not found")
)
