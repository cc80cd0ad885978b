package explorer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/pokeapi"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/query"
)

// Source routes every remote read through the query cache. It satisfies
// resolver.Source and enrich.Fetcher.
type Source struct {
	api *pokeapi.Client
	q   *query.Client
}

func NewSource(api *pokeapi.Client, q *query.Client) *Source {
	return &Source{api: api, q: q}
}

// Names returns the complete name listing.
func (s *Source) Names(ctx context.Context) ([]pokeapi.ListEntry, error) {
	return query.Get(ctx, s.q, query.Key{Kind: query.KindListAll}, s.api.ListAll)
}

func (s *Source) AllIDs(ctx context.Context) (catalog.IDSet, error) {
	names, err := s.Names(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(catalog.IDSet, len(names))
	for _, e := range names {
		ids[e.ID] = struct{}{}
	}
	return ids, nil
}

func (s *Source) TypeIDs(ctx context.Context, name string) (catalog.IDSet, error) {
	ids, err := query.Get(ctx, s.q, query.Key{Kind: query.KindType, ID: name}, func(ctx context.Context) ([]int, error) {
		return s.api.Type(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return catalog.NewIDSet(ids...), nil
}

func (s *Source) AbilityIDs(ctx context.Context, name string) (catalog.IDSet, error) {
	ids, err := query.Get(ctx, s.q, query.Key{Kind: query.KindAbility, ID: name}, func(ctx context.Context) ([]int, error) {
		return s.api.Ability(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return catalog.NewIDSet(ids...), nil
}

func (s *Source) Detail(ctx context.Context, id int) (*pokeapi.Detail, error) {
	ref := strconv.Itoa(id)
	return query.Get(ctx, s.q, query.Key{Kind: query.KindPokemon, ID: ref}, func(ctx context.Context) (*pokeapi.Detail, error) {
		return s.api.Pokemon(ctx, ref)
	})
}

// Lookup fetches a detail record by id or name.
func (s *Source) Lookup(ctx context.Context, ref string) (*pokeapi.Detail, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if id, err := strconv.Atoi(ref); err == nil {
		if id <= 0 {
			return nil, fmt.Errorf("invalid id %d", id)
		}
		return s.Detail(ctx, id)
	}
	return query.Get(ctx, s.q, query.Key{Kind: query.KindPokemon, ID: ref}, func(ctx context.Context) (*pokeapi.Detail, error) {
		return s.api.Pokemon(ctx, ref)
	})
}

// Page fetches one page of the raw listing.
func (s *Source) Page(ctx context.Context, limit, offset int) (*pokeapi.ListPage, error) {
	key := query.Key{Kind: query.KindPage, ID: fmt.Sprintf("%d:%d", limit, offset)}
	return query.Get(ctx, s.q, key, func(ctx context.Context) (*pokeapi.ListPage, error) {
		return s.api.ListPage(ctx, limit, offset)
	})
}

func (s *Source) ArtworkURL(id int) string { return s.api.ArtworkURL(id) }

func (s *Source) ResolveArtwork(ctx context.Context, id, speciesID int) string {
	return s.api.ResolveArtwork(ctx, id, speciesID)
}
