// Package favorites keeps the user's favorite ids, persisted as a JSON array
// under a single key of the local store.
package favorites

import (
	"log/slog"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
)

const StorageKey = "pokemon:favorites"

// Backend is the string key/value store the set persists to.
// *cache.Cache implements it.
type Backend interface {
	GetMeta(key string) (string, bool, error)
	SetMeta(key, value string) error
}

// Set is safe for concurrent use. Every mutation replaces the underlying map,
// so snapshots returned by IDs and Snapshot are never modified afterwards.
type Set struct {
	mu      sync.Mutex
	ids     catalog.IDSet
	backend Backend
	logger  *slog.Logger
}

// Load reads the persisted set. A missing or unreadable value yields an empty
// set. backend may be nil for a session-only set.
func Load(backend Backend, logger *slog.Logger) *Set {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Set{ids: catalog.IDSet{}, backend: backend, logger: logger}
	if backend == nil {
		return s
	}

	raw, ok, err := backend.GetMeta(StorageKey)
	if err != nil {
		logger.Warn("reading favorites", "error", err)
		return s
	}
	if !ok || raw == "" {
		return s
	}
	var ids []int
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		logger.Warn("ignoring corrupt favorites", "error", err)
		return s
	}
	for _, id := range ids {
		if id > 0 {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

func (s *Set) Has(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids.Has(id)
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns the favorites in ascending order.
func (s *Set) IDs() []int {
	return s.Snapshot().Sorted()
}

// Snapshot returns the current set. Callers must not modify it.
func (s *Set) Snapshot() catalog.IDSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids
}

// Add reports whether id was newly added.
func (s *Set) Add(id int) bool {
	return s.update(func(next catalog.IDSet) bool {
		if next.Has(id) {
			return false
		}
		next[id] = struct{}{}
		return true
	})
}

// Remove reports whether id was present.
func (s *Set) Remove(id int) bool {
	return s.update(func(next catalog.IDSet) bool {
		if !next.Has(id) {
			return false
		}
		delete(next, id)
		return true
	})
}

// Toggle flips id and reports whether it is now a favorite.
func (s *Set) Toggle(id int) bool {
	var now bool
	s.update(func(next catalog.IDSet) bool {
		if next.Has(id) {
			delete(next, id)
		} else {
			next[id] = struct{}{}
			now = true
		}
		return true
	})
	return now
}

func (s *Set) Clear() {
	s.update(func(next catalog.IDSet) bool {
		clear(next)
		return true
	})
}

// update applies fn to a copy and swaps it in when fn reports a change.
// Persistence failures are logged and the in-memory change is kept.
func (s *Set) update(fn func(next catalog.IDSet) bool) bool {
	s.mu.Lock()
	next := catalog.Union(s.ids)
	if !fn(next) {
		s.mu.Unlock()
		return false
	}
	s.ids = next
	ids := next.Sorted()
	s.mu.Unlock()

	s.persist(ids)
	return true
}

func (s *Set) persist(ids []int) {
	if s.backend == nil {
		return
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		s.logger.Warn("encoding favorites", "error", err)
		return
	}
	if err := s.backend.SetMeta(StorageKey, string(raw)); err != nil {
		s.logger.Warn("writing favorites", "error", err)
	}
}
