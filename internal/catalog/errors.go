package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the catalog document does not exist at its source.
var ErrNotFound = errors.New("catalog not found")

// StatusError captures non-2xx HTTP responses from the catalog host.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Body == "" {
		return fmt.Sprintf("catalog request %s failed: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("catalog request %s failed: status %d: %s", e.URL, e.StatusCode, e.Body)
}
