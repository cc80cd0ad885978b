package explorer

import (
	"context"
	"errors"
	"sync"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/favorites"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/guard"
)

// ErrAwaitingConfirmation is returned by Prepare while a heavy query waits
// for the user.
var ErrAwaitingConfirmation = errors.New("heavy operation awaiting confirmation")

// Session is the interactive state around the pipeline: staged and applied
// filters, sort, search text, page, and the favorites restriction. Any change
// to what is queried returns to the first page.
type Session struct {
	pipeline *Pipeline
	guard    *guard.Guard
	tracker  Tracker
	favs     *favorites.Set

	mu            sync.Mutex
	staged        catalog.FilterSpec
	applied       catalog.FilterSpec
	sort          catalog.SortSpec
	search        string
	page          int
	size          int
	favoritesOnly bool
}

// NewSession starts from default filters and sort. favs may be nil.
func NewSession(p *Pipeline, favs *favorites.Set, pageSize int) *Session {
	if pageSize < 1 {
		pageSize = catalog.DefaultPageSize
	}
	return &Session{
		pipeline: p,
		guard:    guard.New(),
		favs:     favs,
		staged:   catalog.DefaultFilters(),
		applied:  catalog.DefaultFilters(),
		sort:     catalog.DefaultSort(),
		page:     1,
		size:     pageSize,
	}
}

// StageFilters records edits without changing what is queried.
func (s *Session) StageFilters(spec catalog.FilterSpec) {
	s.mu.Lock()
	s.staged = spec.Normalize()
	s.mu.Unlock()
}

// CommitFilters promotes the staged filters to the applied ones.
func (s *Session) CommitFilters() {
	s.mu.Lock()
	s.applied = s.staged
	s.page = 1
	s.mu.Unlock()
}

// ApplyNow stages and commits spec in one step.
func (s *Session) ApplyNow(spec catalog.FilterSpec) {
	s.mu.Lock()
	s.staged = spec.Normalize()
	s.applied = s.staged
	s.page = 1
	s.mu.Unlock()
}

// Reset restores default staged and applied filters.
func (s *Session) Reset() {
	s.mu.Lock()
	s.staged = catalog.DefaultFilters()
	s.applied = catalog.DefaultFilters()
	s.page = 1
	s.mu.Unlock()
}

func (s *Session) Staged() catalog.FilterSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staged
}

func (s *Session) Applied() catalog.FilterSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}

// Dirty reports whether staged filters differ from the applied ones.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staged.Values().Encode() != s.applied.Values().Encode()
}

func (s *Session) SetSort(spec catalog.SortSpec) {
	s.mu.Lock()
	if spec.Field == "" {
		spec = catalog.DefaultSort()
	}
	if spec.Direction != catalog.Desc {
		spec.Direction = catalog.Asc
	}
	s.sort = spec
	s.page = 1
	s.mu.Unlock()
}

func (s *Session) Sort() catalog.SortSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sort
}

func (s *Session) SetSearch(term string) {
	s.mu.Lock()
	if term != s.search {
		s.search = term
		s.page = 1
	}
	s.mu.Unlock()
}

func (s *Session) Search() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

// SetPage moves to page n; values below 1 become 1.
func (s *Session) SetPage(n int) {
	s.mu.Lock()
	s.page = max(n, 1)
	s.mu.Unlock()
}

func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

func (s *Session) PageSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// SetFavoritesOnly restricts the universe to the favorite set.
func (s *Session) SetFavoritesOnly(on bool) {
	s.mu.Lock()
	if on != s.favoritesOnly {
		s.favoritesOnly = on
		s.page = 1
	}
	s.mu.Unlock()
}

func (s *Session) FavoritesOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favoritesOnly
}

// Favorites returns the favorite set, which may be nil.
func (s *Session) Favorites() *favorites.Set { return s.favs }

// Request builds the pipeline request for the current state.
func (s *Session) Request() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := Request{
		Filters:  s.applied,
		Sort:     s.sort,
		Search:   s.search,
		Page:     s.page,
		PageSize: s.size,
	}
	if s.favoritesOnly && s.favs != nil {
		req.Restrict = s.favs.Snapshot()
	}
	return req
}

func (s *Session) Condition() guard.Condition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return guard.Condition{
		Filters:    s.applied,
		Sort:       s.sort,
		Search:     s.search,
		Restricted: s.favoritesOnly,
	}
}

func (s *Session) Guard() *guard.Guard { return s.guard }

// Evaluate updates the guard for the current state.
func (s *Session) Evaluate() guard.State {
	return s.guard.Evaluate(s.Condition())
}

// Confirm accepts the pending heavy query.
func (s *Session) Confirm() bool {
	return s.guard.Confirm()
}

// Abandon declines the pending heavy query and clears filters and sort.
func (s *Session) Abandon() {
	s.guard.Abandon()
	s.Reset()
	s.SetSort(catalog.DefaultSort())
}

// Plan is how Execute will serve one request.
type Plan struct {
	Request Request
	// Browse serves the raw paged listing.
	Browse bool
	// Empty answers without any fetch: favorites-only with no favorites.
	Empty bool
}

// Prepare evaluates the guard, picks a plan for the current state and marks
// it as the active request. A request held for confirmation is still marked
// active so results of earlier requests are dropped.
func (s *Session) Prepare() (Plan, error) {
	req := s.Request()
	if s.Evaluate() == guard.AwaitingConfirmation {
		s.tracker.Begin(req.Key())
		return Plan{}, ErrAwaitingConfirmation
	}
	plan := Plan{Request: req}
	switch {
	case s.FavoritesOnly() && len(req.Restrict) == 0:
		plan.Empty = true
	case req.Plain():
		plan.Browse = true
	}
	s.tracker.Begin(req.Key())
	return plan, nil
}

// Execute runs plan. It is safe to call from a goroutine.
func (s *Session) Execute(ctx context.Context, plan Plan) Result {
	switch {
	case plan.Empty:
		return Result{
			Key:  plan.Request.Key(),
			Page: catalog.Page{Items: []catalog.Item{}, CurrentPage: 1},
		}
	case plan.Browse:
		return s.pipeline.Browse(ctx, plan.Request.Page, plan.Request.PageSize)
	}
	return s.pipeline.Query(ctx, plan.Request)
}

// Accept reports whether res answers the active request. Results of
// superseded requests must be dropped.
func (s *Session) Accept(res Result) bool {
	return s.tracker.Accept(res)
}

// Fetch prepares and executes the current state synchronously.
func (s *Session) Fetch(ctx context.Context) (Result, error) {
	plan, err := s.Prepare()
	if err != nil {
		return Result{}, err
	}
	return s.Execute(ctx, plan), nil
}

// Pipeline exposes the underlying pipeline for detail lookups.
func (s *Session) Pipeline() *Pipeline { return s.pipeline }
