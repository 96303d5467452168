package scraper

import (
	"errors"
	"fmt"
)

// ErrBodyTooLarge is returned when a response body exceeds the transport's
// size cap. It is not retried.
var ErrBodyTooLarge = errors.New("response body too large")

// TransportError is a network or connection level failure. It is the only
// failure the Fetcher retries by default.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteStatusError describes a response whose status is neither 200 nor a
// redirect. The Fetcher returns such responses as data; this error exists
// for callers that need to report a skipped page.
type RemoteStatusError struct {
	URL    string
	Status int
}

func (e *RemoteStatusError) Error() string {
	return fmt.Sprintf("remote status %d for %s", e.Status, e.URL)
}

// IsTransportError reports whether err wraps a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
