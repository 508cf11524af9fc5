package models

import (
	"errors"
	"fmt"
)

// FetchError reports a transport, auth or remote-API failure during fetch.
// The upstream status is preserved for the run's failure message.
type FetchError struct {
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("fetch failed (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("fetch failed: %s", e.Message)
}

// ErrAuthRequired signals that a source needs (re-)authentication before it
// can be fetched. Surfaced distinctly so callers can prompt for it.
var ErrAuthRequired = errors.New("authentication required")

// ValidationError reports that the content sink rejected the final content.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}
