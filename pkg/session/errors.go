package session

import "errors"

var (
	// ErrNotFound is returned when no source provides a session token.
	ErrNotFound = errors.New("session token not found")

	// ErrMalformedFile is returned when the config file is not a valid mapping.
	ErrMalformedFile = errors.New("malformed session config file")
)
