// internal/catalog/open.go
package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"weighbridge-service/internal/config"
	"weighbridge-service/internal/database"
)

// Open builds the provider selected by cfg.Catalog. For the postgres source
// the returned DB is non-nil and owned by the caller.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Provider, *database.DB, error) {
	switch cfg.Catalog.Source {
	case config.CatalogFile:
		p, err := NewFileProvider(cfg.Catalog.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, nil, nil

	case config.CatalogPostgres:
		db, err := database.Open(ctx, cfg.GetDatabaseDSN(), &cfg.Catalog.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Catalog.Database.AutoMigrate {
			migrator := database.NewMigrator(db, cfg.Catalog.Database.MigrationsPath, logger)
			if err := migrator.Up(); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("failed to run catalog migrations: %w", err)
			}
		}
		return NewPostgresProvider(db, logger), db, nil

	default:
		return nil, nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}
