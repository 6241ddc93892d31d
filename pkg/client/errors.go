package client

import (
	"errors"
	"fmt"
)

// FetchError describes why a year could not be fetched. It is either an
// HTTP error (StatusCode and Reason set) or a transport error (Err set,
// ErrorClass network).
type FetchError struct {
	Year       int
	StatusCode int
	ErrorClass ErrorClass
	Reason     string
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.IsTransport() {
		return fmt.Sprintf("fetch %d: %s error: %v", e.Year, e.ErrorClass, e.Err)
	}
	return fmt.Sprintf("fetch %d: HTTP %d - %s", e.Year, e.StatusCode, e.Reason)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether no HTTP response was obtained.
func (e *FetchError) IsTransport() bool {
	return e.ErrorClass == ErrorClassNetwork
}

// AsFetchError is a shorthand for errors.As with *FetchError.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
