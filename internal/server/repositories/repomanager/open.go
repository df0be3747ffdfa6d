package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/clipher/internal/server/config"
)

// Open builds the manager selected by cfg.StoreDriver and, for PostgreSQL,
// brings the schema up to date.
func Open(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		return NewInMemoryRepositoryManager(), nil
	case config.StoreDriverPostgres:
		m, err := OpenPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := m.RunMigrations(ctx); err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
