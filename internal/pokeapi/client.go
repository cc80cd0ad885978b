// Package pokeapi is a read-only client for the PokeAPI v2 REST endpoints
// the explorer depends on.
package pokeapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "https://pokeapi.co/api/v2"
	DefaultArtworkURL = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/other/official-artwork/{id}.png"

	// ListAllLimit exceeds the total number of entries, so one request
	// returns the complete listing.
	ListAllLimit = 1500
)

// Client talks to the remote API. It holds no response cache of its own;
// callers route reads through the query cache.
type Client struct {
	baseURL    string
	artworkURL string
	http       *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger

	mu       sync.Mutex
	artworks map[int]string
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithRateLimit caps outgoing requests per second. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithArtworkURL sets the artwork template; "{id}" is replaced by the id.
func WithArtworkURL(tmpl string) Option {
	return func(c *Client) {
		if tmpl != "" {
			c.artworkURL = tmpl
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Client for baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		artworkURL: DefaultArtworkURL,
		http:       &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default(),
		artworks:   make(map[int]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", u, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request", "url", u, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{URL: u, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", u, err)
	}
	return nil
}

// ListAll fetches the complete name listing in one request.
func (c *Client) ListAll(ctx context.Context) ([]ListEntry, error) {
	var data listResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/pokemon?limit=%d", c.baseURL, ListAllLimit), &data); err != nil {
		return nil, err
	}
	return entries(data.Results), nil
}

// ListPage fetches one page of the raw listing.
func (c *Client) ListPage(ctx context.Context, limit, offset int) (*ListPage, error) {
	if limit < 1 {
		limit = 24
	}
	if offset < 0 {
		offset = 0
	}
	var data listResponse
	u := fmt.Sprintf("%s/pokemon?limit=%d&offset=%d", c.baseURL, limit, offset)
	if err := c.getJSON(ctx, u, &data); err != nil {
		return nil, err
	}
	page := &ListPage{
		Entries: entries(data.Results),
		Count:   data.Count,
		Limit:   limit,
		Offset:  offset,
	}
	if data.Next != nil {
		page.Next = *data.Next
	}
	if data.Previous != nil {
		page.Previous = *data.Previous
	}
	return page, nil
}

func entries(results []NamedResource) []ListEntry {
	out := make([]ListEntry, 0, len(results))
	for _, r := range results {
		id, err := IDFromURL(r.URL)
		if err != nil {
			continue
		}
		out = append(out, ListEntry{ID: id, Name: r.Name})
	}
	return out
}

// Pokemon fetches one detail record by id or name.
func (c *Client) Pokemon(ctx context.Context, ref string) (*Detail, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return nil, fmt.Errorf("empty pokemon reference")
	}
	var d Detail
	if err := c.getJSON(ctx, c.baseURL+"/pokemon/"+url.PathEscape(ref), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Type returns the sorted ids of every entry having type name.
func (c *Client) Type(ctx context.Context, name string) ([]int, error) {
	return c.index(ctx, "type", name)
}

// Ability returns the sorted ids of every entry having ability name.
func (c *Client) Ability(ctx context.Context, name string) ([]int, error) {
	return c.index(ctx, "ability", name)
}

func (c *Client) index(ctx context.Context, kind, name string) ([]int, error) {
	var data indexResponse
	if err := c.getJSON(ctx, c.baseURL+"/"+kind+"/"+url.PathEscape(name), &data); err != nil {
		return nil, err
	}
	seen := make(map[int]bool, len(data.Pokemon))
	ids := make([]int, 0, len(data.Pokemon))
	for _, p := range data.Pokemon {
		id, err := IDFromURL(p.Pokemon.URL)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// ArtworkURL renders the artwork template for id.
func (c *Client) ArtworkURL(id int) string {
	return strings.ReplaceAll(c.artworkURL, "{id}", strconv.Itoa(id))
}

// ResolveArtwork returns the artwork URL for id, falling back to the species
// artwork when the form has none. Results are memoized per id once the
// artwork host has answered.
func (c *Client) ResolveArtwork(ctx context.Context, id, speciesID int) string {
	c.mu.Lock()
	if u, ok := c.artworks[id]; ok {
		c.mu.Unlock()
		return u
	}
	c.mu.Unlock()

	primary := c.ArtworkURL(id)
	if speciesID <= 0 || speciesID == id {
		c.memoArtwork(id, primary)
		return primary
	}

	found, answered := c.exists(ctx, primary)
	if !answered {
		// unknown; keep the primary URL without remembering it
		return primary
	}
	resolved := primary
	if !found {
		resolved = c.ArtworkURL(speciesID)
		c.logger.Debug("artwork fallback", "id", id, "species", speciesID)
	}
	c.memoArtwork(id, resolved)
	return resolved
}

func (c *Client) memoArtwork(id int, u string) {
	c.mu.Lock()
	c.artworks[id] = u
	c.mu.Unlock()
}

// exists sends a HEAD request for u. answered is false when no HTTP status
// was received.
func (c *Client) exists(ctx context.Context, u string) (found, answered bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return false, false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, false
	}
	resp.Body.Close()
	return resp.StatusCode < 400, true
}

// IDFromURL extracts the trailing numeric path segment of a resource URL.
func IDFromURL(raw string) (int, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing resource url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := parts[len(parts)-1]
	id, err := strconv.Atoi(last)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("no id in resource url %q", raw)
	}
	return id, nil
}
