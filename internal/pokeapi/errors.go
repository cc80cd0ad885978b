package pokeapi

import (
	"errors"
	"fmt"
	"net/http"
)

// FetchError reports a non-2xx response.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Permanent reports whether retrying the same request cannot help.
// Client errors are permanent except 408 and 429.
func (e *FetchError) Permanent() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsNotFound reports whether err wraps a 404 FetchError.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound
}

// IsPermanent reports whether err wraps a FetchError that should not be retried.
func IsPermanent(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Permanent()
}
