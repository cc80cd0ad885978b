// Package resolver turns a filter into the set of candidate ids, using the
// per-type and per-ability index listings and the fixed generation ranges.
package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
)

// Source supplies the index listings. Implementations are expected to cache.
type Source interface {
	AllIDs(ctx context.Context) (catalog.IDSet, error)
	TypeIDs(ctx context.Context, name string) (catalog.IDSet, error)
	AbilityIDs(ctx context.Context, name string) (catalog.IDSet, error)
}

type Resolver struct {
	src    Source
	logger *slog.Logger
}

func New(src Source, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{src: src, logger: logger}
}

// Resolve returns the ids satisfying every candidate-reducing constraint in
// spec. Stat ranges are ignored here. A non-empty restrict is intersected
// with the result; with no constraints the result is restrict itself, or the
// full universe when restrict is empty.
func (r *Resolver) Resolve(ctx context.Context, spec catalog.FilterSpec, restrict catalog.IDSet) (catalog.IDSet, error) {
	if !spec.HasNarrowingFilters() {
		if len(restrict) > 0 {
			return catalog.Union(restrict), nil
		}
		all, err := r.src.AllIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading complete listing: %w", err)
		}
		return all, nil
	}

	typeSets := make([]catalog.IDSet, len(spec.Types))
	abilitySets := make([]catalog.IDSet, len(spec.Abilities))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range spec.Types {
		g.Go(func() error {
			ids, err := r.src.TypeIDs(gctx, t)
			if err != nil {
				return fmt.Errorf("loading type %s: %w", t, err)
			}
			typeSets[i] = ids
			return nil
		})
	}
	for i, a := range spec.Abilities {
		g.Go(func() error {
			ids, err := r.src.AbilityIDs(gctx, a)
			if err != nil {
				return fmt.Errorf("loading ability %s: %w", a, err)
			}
			abilitySets[i] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var axes []catalog.IDSet
	if len(typeSets) > 0 {
		if spec.TypeMatch == catalog.MatchAll {
			axes = append(axes, catalog.IntersectAll(typeSets...))
		} else {
			axes = append(axes, catalog.Union(typeSets...))
		}
	}
	if len(spec.Generations) > 0 {
		gens := make([]catalog.IDSet, 0, len(spec.Generations))
		for _, gen := range spec.Generations {
			gens = append(gens, catalog.GenerationIDs(gen))
		}
		axes = append(axes, catalog.Union(gens...))
	}
	if len(abilitySets) > 0 {
		axes = append(axes, catalog.Union(abilitySets...))
	}
	if len(restrict) > 0 {
		axes = append(axes, restrict)
	}

	out := catalog.IntersectAll(axes...)
	r.logger.Debug("resolved candidates",
		"types", len(spec.Types), "generations", len(spec.Generations),
		"abilities", len(spec.Abilities), "restricted", len(restrict) > 0,
		"candidates", len(out))
	return out, nil
}
