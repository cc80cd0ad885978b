// Package enrich fetches detail records for candidate ids with bounded
// concurrency and reduces them to catalog items.
package enrich

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/pokeapi"
)

const DefaultConcurrency = 20

// ErrMalformed marks a detail record missing an id, a name or stats.
var ErrMalformed = errors.New("malformed detail record")

// Fetcher loads one detail record. Implementations are expected to cache.
type Fetcher interface {
	Detail(ctx context.Context, id int) (*pokeapi.Detail, error)
}

type Enricher struct {
	src     Fetcher
	limit   int
	artwork func(int) string
	logger  *slog.Logger
}

type Option func(*Enricher)

// WithConcurrency bounds in-flight detail fetches. n < 1 keeps the default.
func WithConcurrency(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.limit = n
		}
	}
}

// WithArtwork sets the id to image URL mapping.
func WithArtwork(fn func(int) string) Option {
	return func(e *Enricher) {
		if fn != nil {
			e.artwork = fn
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Enricher) {
		if l != nil {
			e.logger = l
		}
	}
}

func New(src Fetcher, opts ...Option) *Enricher {
	e := &Enricher{
		src:     src,
		limit:   DefaultConcurrency,
		artwork: pokeapi.New("").ArtworkURL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich fetches every id and returns the converted items in the order of
// ids. Ids whose fetch fails or whose record is malformed are logged and
// left out; the batch itself never fails.
func (e *Enricher) Enrich(ctx context.Context, ids []int) []catalog.Item {
	slots := make([]*catalog.Item, len(ids))

	var g errgroup.Group
	g.SetLimit(e.limit)
	for i, id := range ids {
		g.Go(func() error {
			d, err := e.src.Detail(ctx, id)
			if err != nil {
				e.logger.Warn("failed to fetch details", "id", id, "error", err)
				return nil
			}
			item, err := Convert(d, e.artwork)
			if err != nil {
				e.logger.Warn("dropping detail", "id", id, "error", err)
				return nil
			}
			slots[i] = &item
			return nil
		})
	}
	_ = g.Wait()

	out := make([]catalog.Item, 0, len(ids))
	for _, it := range slots {
		if it != nil {
			out = append(out, *it)
		}
	}
	if dropped := len(ids) - len(out); dropped > 0 {
		e.logger.Info("enrichment incomplete", "requested", len(ids), "dropped", dropped)
	}
	return out
}

// Convert reduces a detail record to an item. TotalPower sums every raw stat,
// not only the tracked ones.
func Convert(d *pokeapi.Detail, artwork func(int) string) (catalog.Item, error) {
	if d == nil || d.ID <= 0 || d.Name == "" || len(d.Stats) == 0 {
		return catalog.Item{}, ErrMalformed
	}

	var stats catalog.Stats
	for _, s := range d.Stats {
		switch s.Stat.Name {
		case catalog.StatHP:
			stats.HP = s.BaseStat
		case catalog.StatAttack:
			stats.Attack = s.BaseStat
		case catalog.StatDefense:
			stats.Defense = s.BaseStat
		case catalog.StatSpeed:
			stats.Speed = s.BaseStat
		}
		stats.TotalPower += s.BaseStat
	}

	types := make([]string, 0, len(d.Types))
	for _, t := range d.Types {
		types = append(types, t.Type.Name)
	}
	abilities := make([]string, 0, len(d.Abilities))
	for _, a := range d.Abilities {
		abilities = append(abilities, a.Ability.Name)
	}

	item := catalog.Item{
		ID:         d.ID,
		Name:       d.Name,
		SpeciesID:  d.SpeciesID(),
		Types:      types,
		Generation: catalog.GenerationOf(d.ID),
		Stats:      stats,
		Abilities:  abilities,
	}
	if artwork != nil {
		item.Image = artwork(d.ID)
	}
	return item, nil
}

// MatchesStats reports whether every tracked stat of item lies within the
// inclusive range configured in spec.
func MatchesStats(item catalog.Item, spec catalog.FilterSpec) bool {
	for _, k := range catalog.StatKeys {
		if !spec.Range(k).Contains(item.Stats.Get(k)) {
			return false
		}
	}
	return true
}

// FilterStats keeps the items matching spec's stat ranges, preserving order.
func FilterStats(items []catalog.Item, spec catalog.FilterSpec) []catalog.Item {
	out := make([]catalog.Item, 0, len(items))
	for _, it := range items {
		if MatchesStats(it, spec) {
			out = append(out, it)
		}
	}
	return out
}
