// Package app opens the configured store backend.
package app

import (
	"context"
	"fmt"

	"notely/internal/config"
	"notely/internal/logs"
	"notely/internal/store"
	"notely/internal/store/memory"
	"notely/internal/store/postgres"
	"notely/internal/store/postgrest"
	"notely/internal/store/sqlite"
)

// Store is an open store client plus the resources behind it
type Store struct {
	*store.Client
	Backend string
	close   func() error
}

// Close releases the backend connection, if any
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore validates cfg, opens the selected backend and creates its
// schema when the backend supports that.
func OpenStore(ctx context.Context, cfg *config.Config, opts ...store.Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		table  store.Table
		closer func() error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		table = memory.New()
	case config.BackendSQLite:
		t, err := sqlite.Open(cfg.SQLitePath, cfg.Table)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		table, closer = t, t.Close
	case config.BackendPostgres:
		t, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.Table)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		table, closer = t, t.Close
	case config.BackendPostgREST:
		t, err := postgrest.New(cfg.URL, cfg.Key, cfg.Table)
		if err != nil {
			return nil, err
		}
		table = t
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	log := logs.Logger.With().Str("component", "store").Str("backend", cfg.Backend).Logger()
	opts = append([]store.Option{store.WithLogger(log)}, opts...)
	s := &Store{
		Client:  store.NewClient(table, opts...),
		Backend: cfg.Backend,
		close:   closer,
	}

	if err := s.Initialize(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	log.Debug().Str("table", cfg.Table).Msg("store opened")
	return s, nil
}
