// internal/database/migration.go
package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator applies the catalog schema
type Migrator struct {
	db     *DB
	path   string
	logger *zap.Logger
}

// NewMigrator creates a migrator reading SQL files from path
func NewMigrator(db *DB, path string, logger *zap.Logger) *Migrator {
	return &Migrator{
		db:     db,
		path:   path,
		logger: logger.With(zap.String("component", "migrator")),
	}
}

// Up runs all up migrations
func (m *Migrator) Up() error {
	return m.run("up", func(mg *migrate.Migrate) error { return mg.Up() })
}

// Down runs all down migrations
func (m *Migrator) Down() error {
	return m.run("down", func(mg *migrate.Migrate) error { return mg.Down() })
}

// Version returns the current migration version
func (m *Migrator) Version() (uint, bool, error) {
	mg, err := m.create()
	if err != nil {
		return 0, false, err
	}
	defer mg.Close()

	version, dirty, err := mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get version: %w", err)
	}
	return version, dirty, nil
}

func (m *Migrator) run(direction string, step func(*migrate.Migrate) error) error {
	mg, err := m.create()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := step(mg); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration %s failed: %w", direction, err)
	}

	m.logger.Info("Catalog migrations applied", zap.String("direction", direction))
	return nil
}

func (m *Migrator) create() (*migrate.Migrate, error) {
	// A dedicated connection keeps Close from closing the shared pool
	ctx := context.Background()
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	migrationsPath, err := filepath.Abs(m.path)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("failed to get migrations path: %w", err)
	}

	mg, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return mg, nil
}
