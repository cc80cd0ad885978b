package explorer

import "sync"

// Tracker remembers which request is current so that results of superseded
// requests, which are never cancelled, can be discarded on arrival.
type Tracker struct {
	mu     sync.Mutex
	active string
}

// Begin marks key as the current request.
func (t *Tracker) Begin(key string) {
	t.mu.Lock()
	t.active = key
	t.mu.Unlock()
}

// Accept reports whether res answers the current request.
func (t *Tracker) Accept(res Result) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return res.Key != "" && res.Key == t.active
}

func (t *Tracker) Active() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}
