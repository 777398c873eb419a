package search

import "errors"

var (
	// ErrTimeout is returned when the node did not respond in time
	ErrTimeout = errors.New("search timed out")
	// ErrNoResults is returned when the node found nothing for the query
	ErrNoResults = errors.New("no results found")
)

// UpstreamError wraps any other failure of the node or of its response
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	return "search failed: " + e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
