package cache

import "time"

// Response is one cached API payload.
type Response struct {
	Key       string
	Kind      string
	Body      []byte
	FetchedAt time.Time
}
