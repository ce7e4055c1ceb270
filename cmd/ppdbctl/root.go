package main

import (
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fathussalafi/yayasan-api/pkg/config"
	"github.com/fathussalafi/yayasan-api/pkg/database"
	"github.com/fathussalafi/yayasan-api/pkg/logger"
)

var version = "dev"

// env holds what every subcommand needs once the config is loaded.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ppdbctl",
		Short:         "Operate the Yayasan Fathus Salafi API database",
		Long:          `ppdbctl applies schema migrations and provisions dashboard accounts using the same .env configuration as the API server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newAdminCmd())
	return root
}

// connect loads configuration and opens the database.
func connect() (*env, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = db.Close()
		_ = logr.Sync()
	}
	return &env{cfg: cfg, logger: logr, db: db}, cleanup, nil
}
