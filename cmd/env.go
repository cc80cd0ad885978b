package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/cache"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/config"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/explorer"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/favorites"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/pokeapi"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/query"
)

// env is the process-wide object graph shared by every command.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *cache.Cache // nil when the store could not be opened
	dbPath   string
	api      *pokeapi.Client
	queries  *query.Client
	source   *explorer.Source
	pipeline *explorer.Pipeline
	favs     *favorites.Set
	registry *prometheus.Registry
}

func cachePath() string {
	if flagCache != "" {
		return flagCache
	}
	return config.CachePath()
}

// queryConfig maps the config file onto cache policies.
func queryConfig(cfg *config.Config) query.Config {
	qc := query.DefaultConfig()
	gc := cfg.GCDuration()
	index := query.Policy{Stale: cfg.IndexStale(), GC: gc}
	qc.Policies = map[query.Kind]query.Policy{
		query.KindListAll: {Stale: cfg.ListStale(), GC: gc},
		query.KindType:    index,
		query.KindAbility: index,
		query.KindPokemon: {Stale: cfg.DetailStale(), GC: gc},
	}
	qc.Default = query.Policy{Stale: cfg.DefaultStale(), GC: gc}
	qc.RetryCount = cfg.RetryCount
	return qc
}

// openEnv loads config and wires the explorer stack, logging to logOut.
// A store that cannot be opened degrades to in-memory caching and
// session-only favorites.
func openEnv(logOut io.Writer) (*env, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger := setupLogger(cfg, logOut)
	slog.SetDefault(logger)

	e := &env{cfg: cfg, logger: logger, dbPath: cachePath(), registry: prometheus.NewRegistry()}

	db, err := cache.Open(e.dbPath)
	if err != nil {
		logger.Warn("persistent cache unavailable, favorites will not be saved", "path", e.dbPath, "error", err)
	} else {
		e.db = db
		if err := db.SetLastOpened(); err != nil {
			logger.Debug("recording last opened", "error", err)
		}
	}

	e.api = pokeapi.New(cfg.APIBaseURL,
		pokeapi.WithTimeout(cfg.Timeout()),
		pokeapi.WithRateLimit(cfg.RateLimit, cfg.GetRateBurst()),
		pokeapi.WithArtworkURL(cfg.ArtworkURL),
		pokeapi.WithLogger(logger),
	)

	opts := []query.Option{query.WithLogger(logger), query.WithRegisterer(e.registry)}
	if e.db != nil {
		opts = append(opts, query.WithStore(e.db))
	}
	e.queries, err = query.New(queryConfig(cfg), opts...)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("creating query cache: %w", err)
	}

	e.source = explorer.NewSource(e.api, e.queries)
	e.pipeline = explorer.NewPipeline(e.source,
		explorer.WithConcurrency(cfg.GetConcurrency()),
		explorer.WithLogger(logger),
	)

	var backend favorites.Backend
	if e.db != nil {
		backend = e.db
	}
	e.favs = favorites.Load(backend, logger)
	return e, nil
}

func (e *env) newSession(pageSize int) *explorer.Session {
	if pageSize <= 0 {
		pageSize = e.cfg.GetPageSize()
	}
	return explorer.NewSession(e.pipeline, e.favs, pageSize)
}

func (e *env) Close() error {
	var errs []error
	if e.queries != nil {
		errs = append(errs, e.queries.Close())
	}
	if e.db != nil {
		errs = append(errs, e.db.Close())
	}
	return errors.Join(errs...)
}
