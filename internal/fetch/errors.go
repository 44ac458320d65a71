package fetch

import (
	"errors"
	"fmt"
)

// ErrBodyTooLarge is returned when a response body exceeds the
// configured cap. The request is treated like any other fetch failure:
// recoverable, logged, skipped.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// FetchError wraps any failure to retrieve a URL: transport errors,
// timeouts, non-2xx statuses, oversized bodies. It is recoverable;
// callers record it and move on to the next URL.
type FetchError struct {
	// URL is the URL the fetch was attempted for.
	URL string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause so errors.Is/As work through it.
func (e *FetchError) Unwrap() error {
	return e.Err
}
