// cmd/devicectl/root.go
package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"weighbridge-service/internal/catalog"
	"weighbridge-service/internal/config"
	"weighbridge-service/internal/database"
	"weighbridge-service/internal/session"
	"weighbridge-service/internal/transport"
	"weighbridge-service/internal/utils"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

// env is what every subcommand needs after flag parsing
type env struct {
	config *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "devicectl",
		Short: "Talk to weighbridge devices from the command line",
		Long: `devicectl loads devices from the configured catalog and runs commands
against them without the HTTP service.

Example usage:
  devicectl list
  devicectl exec SCALE-IN WEIGH
  devicectl exec DISPLAY-1 SHOW --text "DRIVE ON"
  devicectl poll SCALE-IN WEIGH --interval 500ms --count 10`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default ./config.yaml or ./configs/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(
		newListCmd(opts),
		newExecCmd(opts),
		newPollCmd(opts),
		newScanCmd(opts),
		newMigrateCmd(opts),
	)
	return cmd
}

// load reads the configuration and builds a logger writing to stderr so
// command output on stdout stays parseable
func (o *rootOptions) load() (*env, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	if cfg.Logging.Output == "" || cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, err
	}
	return &env{config: cfg, logger: logger}, nil
}

// catalog opens the catalog. The returned close func releases the database
// of the postgres source.
func (e *env) catalog(ctx context.Context) (catalog.Provider, func(), error) {
	provider, db, err := catalog.Open(ctx, e.config, e.logger)
	if err != nil {
		return nil, nil, err
	}
	return provider, func() { closeDB(db) }, nil
}

// session loads one device from the catalog
func (e *env) session(ctx context.Context, code string) (*session.Session, error) {
	provider, closeCatalog, err := e.catalog(ctx)
	if err != nil {
		return nil, err
	}
	defer closeCatalog()

	desc, err := provider.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	return session.Load(desc, e.logger, session.WithTransportOptions(
		transport.WithTimeout(e.config.Device.Timeout),
		transport.WithBufferSize(e.config.Device.BufferSize),
	))
}

func closeDB(db *database.DB) {
	if db != nil {
		db.Close()
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
