// cmd/devicectl/migrate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weighbridge-service/internal/config"
	"weighbridge-service/internal/database"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres catalog schema",
	}

	run := func(action func(cmd *cobra.Command, m *database.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			if e.config.Catalog.Source != config.CatalogPostgres {
				return fmt.Errorf("catalog.source is %q, migrations need %q", e.config.Catalog.Source, config.CatalogPostgres)
			}

			db, err := database.Open(cmd.Context(), e.config.GetDatabaseDSN(), &e.config.Catalog.Database, e.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			return action(cmd, database.NewMigrator(db, e.config.Catalog.Database.MigrationsPath, e.logger))
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, m *database.Migrator) error {
				return m.Up()
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, m *database.Migrator) error {
				return m.Down()
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, m *database.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			}),
		},
	)
	return cmd
}
