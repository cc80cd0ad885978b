// Package explorer runs the filter, search, enrich, sort and paginate
// pipeline and holds the interactive session state around it.
package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/enrich"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/listing"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/pokeapi"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/resolver"
)

// Backend is everything the pipeline reads. *Source implements it.
type Backend interface {
	resolver.Source
	enrich.Fetcher
	Names(ctx context.Context) ([]pokeapi.ListEntry, error)
	Page(ctx context.Context, limit, offset int) (*pokeapi.ListPage, error)
	ArtworkURL(id int) string
}

// Request is one query over the catalog.
type Request struct {
	Filters  catalog.FilterSpec
	Sort     catalog.SortSpec
	Search   string
	Page     int
	PageSize int
	// Restrict limits the universe to these ids when non-empty.
	Restrict catalog.IDSet
}

// Key identifies the request. Two requests with the same key produce the
// same result from a warm cache.
func (r Request) Key() string {
	var b strings.Builder
	b.WriteString(r.Filters.Normalize().Values().Encode())
	sort := "none"
	if !r.Sort.IsDefault() {
		sort = string(r.Sort.Field) + ":" + string(r.Sort.Direction)
	}
	fmt.Fprintf(&b, "|sort=%s|q=%s|page=%d|size=%d", sort, normalizeSearch(r.Search), r.Page, r.PageSize)
	if len(r.Restrict) > 0 {
		b.WriteString("|in=")
		for i, id := range r.Restrict.Sorted() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(id))
		}
	}
	return b.String()
}

// Plain reports whether the request constrains nothing, so the raw paged
// listing answers it.
func (r Request) Plain() bool {
	return !r.Filters.HasActiveFilters() && r.Sort.IsDefault() &&
		normalizeSearch(r.Search) == "" && len(r.Restrict) == 0
}

// Result never carries a Go error; Err holds a displayable message instead.
type Result struct {
	ID         string        `json:"id"`
	Key        string        `json:"-"`
	Page       catalog.Page  `json:"page"`
	Candidates int           `json:"candidates"`
	Err        string        `json:"error,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
}

func (r Result) Failed() bool { return r.Err != "" }

type Pipeline struct {
	backend  Backend
	resolver *resolver.Resolver
	enricher *enrich.Enricher
	logger   *slog.Logger
}

type Option func(*options)

type options struct {
	concurrency int
	logger      *slog.Logger
}

// WithConcurrency bounds in-flight detail fetches.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func NewPipeline(b Backend, opts ...Option) *Pipeline {
	o := options{concurrency: enrich.DefaultConcurrency, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Pipeline{
		backend:  b,
		resolver: resolver.New(b, o.logger),
		enricher: enrich.New(b,
			enrich.WithConcurrency(o.concurrency),
			enrich.WithArtwork(b.ArtworkURL),
			enrich.WithLogger(o.logger),
		),
		logger: o.logger,
	}
}

func normalizeSearch(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// matchesSearch is a case-insensitive substring match on the name; a numeric
// term also matches the id exactly.
func matchesSearch(id int, name, term string) bool {
	if strings.Contains(strings.ToLower(name), term) {
		return true
	}
	n, err := strconv.Atoi(term)
	return err == nil && n == id
}

// Query runs the full pipeline. Failures at any stage produce an empty first
// page with Err set.
func (p *Pipeline) Query(ctx context.Context, req Request) Result {
	start := time.Now()
	res := Result{ID: ulid.Make().String(), Key: req.Key()}
	log := p.logger.With("query", res.ID)

	page, candidates, err := p.run(ctx, req, log)
	res.Elapsed = time.Since(start)
	if err != nil {
		log.Error("error fetching filtered pokemon", "error", err)
		res.Page = catalog.Page{Items: []catalog.Item{}, CurrentPage: 1}
		res.Err = "Failed to load Pokemon: " + err.Error()
		return res
	}
	res.Page = page
	res.Candidates = candidates
	log.Info("query complete",
		"candidates", candidates, "total", page.Total,
		"page", page.CurrentPage, "elapsed", res.Elapsed)
	return res
}

func (p *Pipeline) run(ctx context.Context, req Request, log *slog.Logger) (catalog.Page, int, error) {
	term := normalizeSearch(req.Search)
	restricted := len(req.Restrict) > 0

	ids, err := p.resolver.Resolve(ctx, req.Filters, req.Restrict)
	if err != nil {
		return catalog.Page{}, 0, err
	}

	// Within a restriction set the name listing is not needed: the few
	// restricted items are matched by name after enrichment.
	if term != "" && !restricted {
		names, err := p.backend.Names(ctx)
		if err != nil {
			return catalog.Page{}, 0, fmt.Errorf("loading name listing: %w", err)
		}
		matched := catalog.IDSet{}
		for _, e := range names {
			if matchesSearch(e.ID, e.Name, term) {
				matched[e.ID] = struct{}{}
			}
		}
		ids = catalog.Intersect(ids, matched)
	}

	if len(ids) == 0 {
		return listing.Paginate(nil, req.Page, req.PageSize), 0, nil
	}

	log.Debug("enriching candidates", "count", len(ids))
	items := p.enricher.Enrich(ctx, ids.Sorted())
	if err := ctx.Err(); err != nil {
		return catalog.Page{}, 0, err
	}
	items = enrich.FilterStats(items, req.Filters)

	if term != "" && restricted {
		kept := items[:0]
		for _, it := range items {
			if matchesSearch(it.ID, it.Name, term) {
				kept = append(kept, it)
			}
		}
		items = kept
	}

	items = listing.Sort(items, req.Sort)
	return listing.Paginate(items, req.Page, req.PageSize), len(ids), nil
}

// Browse serves page of the raw listing without enriching anything. Items
// carry id, name and image only.
func (p *Pipeline) Browse(ctx context.Context, page, size int) Result {
	start := time.Now()
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = catalog.DefaultPageSize
	}
	res := Result{
		ID:  ulid.Make().String(),
		Key: Request{Filters: catalog.DefaultFilters(), Sort: catalog.DefaultSort(), Page: page, PageSize: size}.Key(),
	}

	offset, ok := listing.Offset(page, size)
	if !ok {
		// Past any real listing; the first page only supplies the count.
		offset, size = 0, 1
	}
	lp, err := p.backend.Page(ctx, size, offset)
	res.Elapsed = time.Since(start)
	if err != nil {
		p.logger.Error("failed to fetch pokemon list", "query", res.ID, "error", err)
		res.Page = catalog.Page{Items: []catalog.Item{}, CurrentPage: 1}
		res.Err = "Failed to fetch Pokemon list: " + err.Error()
		return res
	}

	if !ok {
		res.Page = catalog.Page{Items: []catalog.Item{}, Total: lp.Count, CurrentPage: page}
		res.Candidates = lp.Count
		return res
	}

	items := make([]catalog.Item, 0, len(lp.Entries))
	for _, e := range lp.Entries {
		items = append(items, catalog.Item{
			ID:         e.ID,
			Name:       e.Name,
			Image:      p.backend.ArtworkURL(e.ID),
			Generation: catalog.GenerationOf(e.ID),
			Partial:    true,
		})
	}
	res.Page = catalog.Page{
		Items:       items,
		Total:       lp.Count,
		HasMore:     lp.Next != "",
		CurrentPage: page,
	}
	res.Candidates = lp.Count
	return res
}

// Detail fetches and converts one item for the detail view.
func (p *Pipeline) Detail(ctx context.Context, id int) (catalog.Item, *pokeapi.Detail, error) {
	d, err := p.backend.Detail(ctx, id)
	if err != nil {
		return catalog.Item{}, nil, err
	}
	item, err := enrich.Convert(d, p.backend.ArtworkURL)
	if err != nil {
		return catalog.Item{}, nil, fmt.Errorf("pokemon %d: %w", id, err)
	}
	return item, d, nil
}
