// Package pokeapitest serves a small in-memory PokeAPI for tests.
package pokeapitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
)

// Entry is one fixture record.
type Entry struct {
	ID        int
	Name      string
	Types     []string
	Abilities []string
	// HP, Attack, Defense, Speed, then any extra stats (summed into total power).
	Stats   [4]int
	Extra   []int
	Species int
	// Malformed makes the detail endpoint return a record without stats.
	Malformed bool
}

// Server is a fake API rooted at URL.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	entries  map[int]Entry
	order    []int
	requests map[string]int
	failures map[string]int
	artwork  map[int]bool
}

// NewServer starts a server over entries and closes it with the test.
func NewServer(t testing.TB, entries ...Entry) *Server {
	t.Helper()
	s := &Server{
		entries:  make(map[int]Entry),
		requests: make(map[string]int),
		failures: make(map[string]int),
		artwork:  make(map[int]bool),
	}
	for _, e := range entries {
		s.entries[e.ID] = e
		s.order = append(s.order, e.ID)
		s.artwork[e.ID] = true
	}
	sort.Ints(s.order)
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to hand to pokeapi.New.
func (s *Server) BaseURL() string { return s.URL + "/api/v2" }

// ArtworkTemplate serves artwork from this server.
func (s *Server) ArtworkTemplate() string { return s.URL + "/artwork/{id}.png" }

// Fail makes path answer with status until cleared with status 0.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = status
}

// HideArtwork makes the artwork for id answer 404.
func (s *Server) HideArtwork(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artwork[id] = false
}

// Requests returns how many times path (without query string) was requested.
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// DetailRequests counts requests to every /pokemon/{id} endpoint.
func (s *Server) DetailRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for p, c := range s.requests {
		if strings.HasPrefix(p, "/api/v2/pokemon/") {
			n += c
		}
	}
	return n
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests[r.URL.Path]++
	status, failing := s.failures[r.URL.Path]
	s.mu.Unlock()

	if failing {
		http.Error(w, "injected failure", status)
		return
	}

	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/artwork/"):
		s.serveArtwork(w, strings.TrimSuffix(strings.TrimPrefix(path, "/artwork/"), ".png"))
	case path == "/api/v2/pokemon" || path == "/api/v2/pokemon/":
		s.serveList(w, r)
	case strings.HasPrefix(path, "/api/v2/pokemon/"):
		s.serveDetail(w, strings.Trim(strings.TrimPrefix(path, "/api/v2/pokemon/"), "/"))
	case strings.HasPrefix(path, "/api/v2/type/"):
		s.serveIndex(w, strings.TrimPrefix(path, "/api/v2/type/"), func(e Entry) []string { return e.Types })
	case strings.HasPrefix(path, "/api/v2/ability/"):
		s.serveIndex(w, strings.TrimPrefix(path, "/api/v2/ability/"), func(e Entry) []string { return e.Abilities })
	default:
		http.NotFound(w, nil)
	}
}

func (s *Server) resource(kind string, id int) map[string]string {
	return map[string]string{"name": s.name(id), "url": fmt.Sprintf("%s/api/v2/%s/%d/", s.URL, kind, id)}
}

func (s *Server) name(id int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[id].Name
}

func (s *Server) serveList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 20
	}
	total := len(s.order)
	end := min(offset+limit, total)
	results := []map[string]string{}
	for i := offset; i < end; i++ {
		results = append(results, s.resource("pokemon", s.order[i]))
	}
	body := map[string]any{"count": total, "results": results, "next": nil, "previous": nil}
	if end < total {
		body["next"] = fmt.Sprintf("%s/api/v2/pokemon?limit=%d&offset=%d", s.URL, limit, end)
	}
	if offset > 0 {
		body["previous"] = fmt.Sprintf("%s/api/v2/pokemon?limit=%d&offset=%d", s.URL, limit, max(0, offset-limit))
	}
	writeJSON(w, body)
}

func (s *Server) lookup(ref string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, err := strconv.Atoi(ref); err == nil {
		e, ok := s.entries[id]
		return e, ok
	}
	for _, e := range s.entries {
		if e.Name == ref {
			return e, true
		}
	}
	return Entry{}, false
}

func (s *Server) serveDetail(w http.ResponseWriter, ref string) {
	e, ok := s.lookup(ref)
	if !ok {
		http.NotFound(w, nil)
		return
	}
	if e.Malformed {
		writeJSON(w, map[string]any{"id": e.ID, "name": e.Name})
		return
	}

	types := []map[string]any{}
	for i, t := range e.Types {
		types = append(types, map[string]any{"slot": i + 1, "type": map[string]string{"name": t, "url": s.URL + "/api/v2/type/" + t + "/"}})
	}
	abilities := []map[string]any{}
	for i, a := range e.Abilities {
		abilities = append(abilities, map[string]any{
			"slot":      i + 1,
			"is_hidden": i > 0 && i == len(e.Abilities)-1,
			"ability":   map[string]string{"name": a, "url": s.URL + "/api/v2/ability/" + a + "/"},
		})
	}
	names := []string{"hp", "attack", "defense", "speed"}
	stats := []map[string]any{}
	for i, v := range e.Stats {
		stats = append(stats, map[string]any{"base_stat": v, "stat": map[string]string{"name": names[i]}})
	}
	for i, v := range e.Extra {
		stats = append(stats, map[string]any{"base_stat": v, "stat": map[string]string{"name": fmt.Sprintf("extra-%d", i)}})
	}
	species := e.Species
	if species == 0 {
		species = e.ID
	}
	writeJSON(w, map[string]any{
		"id":        e.ID,
		"name":      e.Name,
		"types":     types,
		"abilities": abilities,
		"stats":     stats,
		"species":   map[string]string{"name": e.Name, "url": fmt.Sprintf("%s/api/v2/pokemon-species/%d/", s.URL, species)},
	})
}

func (s *Server) serveIndex(w http.ResponseWriter, name string, field func(Entry) []string) {
	name = strings.Trim(name, "/")
	found := false
	list := []map[string]any{}
	for _, id := range s.order {
		e, _ := s.lookup(strconv.Itoa(id))
		for _, v := range field(e) {
			if v == name {
				found = true
				list = append(list, map[string]any{"pokemon": s.resource("pokemon", id)})
			}
		}
	}
	if !found && !knownIndex(name) {
		http.NotFound(w, nil)
		return
	}
	writeJSON(w, map[string]any{"name": name, "pokemon": list})
}

// knownIndex lets empty-but-valid categories answer 200 with no members.
func knownIndex(name string) bool {
	switch name {
	case "normal", "fire", "water", "grass", "electric", "ice", "fighting", "poison", "ground",
		"flying", "psychic", "bug", "rock", "ghost", "dragon", "dark", "steel", "fairy":
		return true
	}
	return false
}

func (s *Server) serveArtwork(w http.ResponseWriter, ref string) {
	id, _ := strconv.Atoi(ref)
	s.mu.Lock()
	ok := s.artwork[id]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, nil)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
