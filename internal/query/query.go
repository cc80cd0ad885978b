// Package query is a keyed read-through cache for remote reads. Each key has a
// freshness window (stale time) and an idle lifetime (gc time); identical
// concurrent reads share one fetch, and transient failures are retried with
// exponential backoff. An optional Store persists responses across runs.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/cache"
)

// Kind classifies a resource; policies are chosen per kind.
type Kind string

const (
	KindListAll Kind = "pokemonListAll"
	KindPage    Kind = "pokemonPage"
	KindType    Kind = "type"
	KindAbility Kind = "ability"
	KindPokemon Kind = "pokemon"
)

// Key identifies one cached resource.
type Key struct {
	Kind Kind
	ID   string
}

func (k Key) String() string {
	if k.ID == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + ":" + k.ID
}

// Policy bounds how long an entry is served without refetching (Stale) and
// how long it survives without being read (GC).
type Policy struct {
	Stale time.Duration
	GC    time.Duration
}

type Config struct {
	Policies map[Kind]Policy
	Default  Policy

	// RetryCount is the number of retries after the first attempt.
	RetryCount   int
	RetryInitial time.Duration
	RetryMax     time.Duration

	// JanitorInterval is how often idle entries are collected; 0 disables
	// the background sweep.
	JanitorInterval time.Duration
}

func DefaultConfig() Config {
	gc := time.Hour
	return Config{
		Policies: map[Kind]Policy{
			KindListAll: {Stale: 24 * time.Hour, GC: gc},
			KindType:    {Stale: time.Hour, GC: gc},
			KindAbility: {Stale: time.Hour, GC: gc},
			KindPokemon: {Stale: 5 * time.Minute, GC: gc},
		},
		Default:         Policy{Stale: time.Minute, GC: gc},
		RetryCount:      2,
		RetryInitial:    250 * time.Millisecond,
		RetryMax:        4 * time.Second,
		JanitorInterval: 5 * time.Minute,
	}
}

// PolicyFor returns the policy for kind, falling back to Default.
func (cfg Config) PolicyFor(kind Kind) Policy {
	if p, ok := cfg.Policies[kind]; ok {
		return p
	}
	return cfg.Default
}

// Store is the persistent tier. *cache.Cache implements it.
type Store interface {
	GetResponse(key string) (cache.Response, bool, error)
	PutResponse(r cache.Response) error
}

type entry struct {
	value      any
	fetchedAt  time.Time
	lastAccess time.Time
	policy     Policy
}

type Client struct {
	cfg    Config
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group

	counters counters
	metrics  *queryMetrics
	reg      prometheus.Registerer

	shutdown  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type Option func(*Client)

// WithStore enables the persistent tier.
func WithStore(s Store) Option {
	return func(c *Client) { c.store = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRegisterer exposes cache counters as Prometheus metrics.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Client) { c.reg = reg }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New builds a Client and starts its janitor when cfg.JanitorInterval > 0.
// Close stops the janitor.
func New(cfg Config, opts ...Option) (*Client, error) {
	c := &Client{
		cfg:      cfg,
		logger:   slog.Default(),
		now:      time.Now,
		entries:  make(map[string]*entry),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.reg != nil {
		m, err := newQueryMetrics(c.reg)
		if err != nil {
			return nil, fmt.Errorf("registering query metrics: %w", err)
		}
		c.metrics = m
	}

	if cfg.JanitorInterval > 0 {
		go c.janitor(cfg.JanitorInterval)
	} else {
		close(c.done)
	}
	return c, nil
}

// Get returns the cached value for key, fetching it when absent or stale.
// A refetch that fails after retries falls back to the stale value when
// one exists.
func Get[T any](ctx context.Context, c *Client, key Key, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	k := key.String()

	if v, ok := c.fresh(k); ok {
		if t, ok := v.(T); ok {
			c.recordHit()
			return t, nil
		}
	}
	c.recordMiss()

	// The shared fetch outlives any one caller; each caller still stops
	// waiting when its own ctx ends.
	fctx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(k, func() (any, error) {
		if v, ok := c.fresh(k); ok {
			return v, nil
		}
		policy := c.cfg.PolicyFor(key.Kind)

		stored, storedAt, haveStored := load[T](c, k)
		if haveStored && c.now().Sub(storedAt) < policy.Stale {
			c.recordStoreHit()
			c.set(k, stored, storedAt, policy)
			return stored, nil
		}

		var out T
		err := c.retry(fctx, key, func() error {
			c.recordFetch(key.Kind)
			v, err := fetch(fctx)
			if err != nil {
				return err
			}
			out = v
			return nil
		})
		if err != nil {
			c.recordError(key.Kind)
			if stale, ok := c.stale(k); ok {
				c.logger.Warn("serving stale value after fetch failure", "key", k, "error", err)
				return stale, nil
			}
			if haveStored {
				c.logger.Warn("serving stored value after fetch failure", "key", k, "error", err)
				c.set(k, stored, storedAt, policy)
				return stored, nil
			}
			return nil, err
		}

		now := c.now()
		c.set(k, out, now, policy)
		c.persist(key, out, now)
		return out, nil
	})

	var r singleflight.Result
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r = <-ch:
	}
	if r.Shared {
		c.recordCoalesced()
	}
	if r.Err != nil {
		return zero, r.Err
	}
	t, ok := r.Val.(T)
	if !ok {
		return zero, fmt.Errorf("query %s: cached value has type %T", k, r.Val)
	}
	return t, nil
}

// fresh returns the entry for k when it is inside its stale window, and
// marks it as read.
func (c *Client) fresh(k string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	now := c.now()
	e.lastAccess = now
	if now.Sub(e.fetchedAt) >= e.policy.Stale {
		return nil, false
	}
	return e.value, true
}

func (c *Client) stale(k string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	return e.value, true
}

func (c *Client) set(k string, v any, fetchedAt time.Time, p Policy) {
	c.mu.Lock()
	c.entries[k] = &entry{value: v, fetchedAt: fetchedAt, lastAccess: c.now(), policy: p}
	size := len(c.entries)
	c.mu.Unlock()
	c.updateSize(size)
}

func load[T any](c *Client, k string) (T, time.Time, bool) {
	var zero T
	if c.store == nil {
		return zero, time.Time{}, false
	}
	r, ok, err := c.store.GetResponse(k)
	if err != nil {
		c.logger.Warn("reading stored response", "key", k, "error", err)
		return zero, time.Time{}, false
	}
	if !ok {
		return zero, time.Time{}, false
	}
	var v T
	if err := json.Unmarshal(r.Body, &v); err != nil {
		c.logger.Warn("decoding stored response", "key", k, "error", err)
		return zero, time.Time{}, false
	}
	return v, r.FetchedAt, true
}

func (c *Client) persist(key Key, v any, at time.Time) {
	if c.store == nil {
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("encoding response", "key", key.String(), "error", err)
		return
	}
	if err := c.store.PutResponse(cache.Response{
		Key:       key.String(),
		Kind:      string(key.Kind),
		Body:      body,
		FetchedAt: at,
	}); err != nil {
		c.logger.Warn("storing response", "key", key.String(), "error", err)
	}
}

// permanent is implemented by errors that retrying cannot fix.
type permanent interface {
	Permanent() bool
}

func (c *Client) retry(ctx context.Context, key Key, op func() error) error {
	eb := backoff.NewExponentialBackOff()
	if c.cfg.RetryInitial > 0 {
		eb.InitialInterval = c.cfg.RetryInitial
	}
	if c.cfg.RetryMax > 0 {
		eb.MaxInterval = c.cfg.RetryMax
	}
	eb.MaxElapsedTime = 0

	retries := max(c.cfg.RetryCount, 0)
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)

	return backoff.RetryNotify(func() error {
		err := op()
		var p permanent
		if err != nil && errors.As(err, &p) && p.Permanent() {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		c.recordRetry()
		c.logger.Debug("retrying fetch", "key", key.String(), "wait", wait, "error", err)
	})
}

// Invalidate drops key from memory so the next read refetches.
func (c *Client) Invalidate(key Key) {
	c.mu.Lock()
	delete(c.entries, key.String())
	size := len(c.entries)
	c.mu.Unlock()
	c.updateSize(size)
}

// Clear drops every in-memory entry.
func (c *Client) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
	c.updateSize(0)
}

// Len returns the number of in-memory entries.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Client) Stats() Stats {
	return Stats{
		Hits:      c.counters.hits.Load(),
		Misses:    c.counters.misses.Load(),
		StoreHits: c.counters.storeHits.Load(),
		Fetches:   c.counters.fetches.Load(),
		Errors:    c.counters.errors.Load(),
		Retries:   c.counters.retries.Load(),
		Coalesced: c.counters.coalesced.Load(),
		Evictions: c.counters.evictions.Load(),
		Entries:   c.Len(),
	}
}

// Close stops the janitor.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.shutdown) })
	select {
	case <-c.done:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for janitor to stop")
	}
}

func (c *Client) janitor(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.shutdown:
			return
		case <-ticker.C:
			c.Collect()
		}
	}
}

// Collect removes entries that have not been read within their gc time and
// returns how many were removed.
func (c *Client) Collect() int {
	now := c.now()
	c.mu.Lock()
	n := 0
	for k, e := range c.entries {
		if now.Sub(e.lastAccess) > e.policy.GC {
			delete(c.entries, k)
			n++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	if n > 0 {
		c.recordEvictions(n, size)
		c.logger.Debug("collected idle entries", "count", n, "remaining", size)
	}
	return n
}
