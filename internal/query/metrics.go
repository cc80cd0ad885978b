package query

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// queryMetrics mirrors Stats as Prometheus collectors.
type queryMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	storeHits prometheus.Counter
	fetches   *prometheus.CounterVec
	errors    *prometheus.CounterVec
	retries   prometheus.Counter
	coalesced prometheus.Counter
	evictions prometheus.Counter
	entries   prometheus.Gauge
}

func newQueryMetrics(reg prometheus.Registerer) (*queryMetrics, error) {
	m := &queryMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pokedex",
			Subsystem: "query",
			Name:      "hits_total",
			Help:      "Reads answered by a fresh in-memory entry",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pokedex",
			Subsystem: "query",
			Name:      "misses_total",
			Help:      "Reads that found no fresh in-memory entry",
		}),
		storeHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pokedex",
			Subsystem: "query",
			Name:      "store_hits_total",
			Help:      "Misses answered by the persistent response store",
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pokedex",
			Subsystem: "query",
			Name:      "fetches_total",
			Help:      "Remote fetches by resource kind",
		}, []string{"kind"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pokedex",
			Subsystem: "query",
			Name:      "errors_total",
			Help:      "Fetches that failed after retries, by resource kind",
		}, []string{"kind"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pokedex",
			Subsystem: "query",
			Name:      "retries_total",
			Help:      "Retried fetch attempts",
		}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pokedex",
			Subsystem: "query",
			Name:      "coalesced_total",
			Help:      "Reads that waited on an identical in-flight fetch",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pokedex",
			Subsystem: "query",
			Name:      "evictions_total",
			Help:      "Entries removed after their gc time elapsed unread",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pokedex",
			Subsystem: "query",
			Name:      "entries",
			Help:      "Current number of in-memory entries",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.hits, m.misses, m.storeHits, m.fetches, m.errors,
		m.retries, m.coalesced, m.evictions, m.entries,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	StoreHits int64 `json:"storeHits"`
	Fetches   int64 `json:"fetches"`
	Errors    int64 `json:"errors"`
	Retries   int64 `json:"retries"`
	Coalesced int64 `json:"coalesced"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}

// HitRate is hits over all reads, 0 when nothing was read.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type counters struct {
	hits      atomic.Int64
	misses    atomic.Int64
	storeHits atomic.Int64
	fetches   atomic.Int64
	errors    atomic.Int64
	retries   atomic.Int64
	coalesced atomic.Int64
	evictions atomic.Int64
}

func (c *Client) recordHit() {
	c.counters.hits.Add(1)
	if c.metrics != nil {
		c.metrics.hits.Inc()
	}
}

func (c *Client) recordMiss() {
	c.counters.misses.Add(1)
	if c.metrics != nil {
		c.metrics.misses.Inc()
	}
}

func (c *Client) recordStoreHit() {
	c.counters.storeHits.Add(1)
	if c.metrics != nil {
		c.metrics.storeHits.Inc()
	}
}

func (c *Client) recordFetch(kind Kind) {
	c.counters.fetches.Add(1)
	if c.metrics != nil {
		c.metrics.fetches.WithLabelValues(string(kind)).Inc()
	}
}

func (c *Client) recordError(kind Kind) {
	c.counters.errors.Add(1)
	if c.metrics != nil {
		c.metrics.errors.WithLabelValues(string(kind)).Inc()
	}
}

func (c *Client) recordRetry() {
	c.counters.retries.Add(1)
	if c.metrics != nil {
		c.metrics.retries.Inc()
	}
}

func (c *Client) recordCoalesced() {
	c.counters.coalesced.Add(1)
	if c.metrics != nil {
		c.metrics.coalesced.Inc()
	}
}

func (c *Client) recordEvictions(n, size int) {
	c.counters.evictions.Add(int64(n))
	if c.metrics != nil {
		c.metrics.evictions.Add(float64(n))
		c.metrics.entries.Set(float64(size))
	}
}

func (c *Client) updateSize(size int) {
	if c.metrics != nil {
		c.metrics.entries.Set(float64(size))
	}
}
