package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"intranet-backend/internal/config"
	"intranet-backend/internal/domains/taxonomy"
	"intranet-backend/internal/infrastructure/database"
	"intranet-backend/pkg/container"
	"intranet-backend/pkg/logger"
)

// app holds what the commands need; tests swap the factories
type app struct {
	loadConfig func() (*config.Config, error)
	service    func() (taxonomy.Service, func(), error)
	createFile func(path string) (io.WriteCloser, error)
	migrate    func(ctx context.Context, cfg *config.Config) (int, error)
}

func defaultApp() *app {
	return &app{
		loadConfig: config.Load,
		service: func() (taxonomy.Service, func(), error) {
			c, err := container.NewContainer()
			if err != nil {
				return nil, nil, err
			}
			return c.TaxonomyService, c.Cleanup, nil
		},
		migrate: func(ctx context.Context, cfg *config.Config) (int, error) {
			return database.NewPostgresDB(cfg.Database.DBConfig()).Migrate(ctx)
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "syncctl",
		Short:         "Maintenance commands for the Strapi / WooCommerce taxonomy sync",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(os.Getenv("APP_ENV"), logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "zerolog level")

	root.AddCommand(
		newKindsCmd(),
		newAttributeCmd(a),
		newSweepCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newTokenCmd(a),
		newMigrateCmd(a),
	)
	return root
}

func (a *app) create(path string) (io.WriteCloser, error) {
	if a.createFile != nil {
		return a.createFile(path)
	}
	return os.Create(path)
}

// withService builds the service, runs fn and releases connections
func (a *app) withService(fn func(svc taxonomy.Service) error) error {
	svc, cleanup, err := a.service()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}
	return fn(svc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
