package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"oficio/internal/app"
	"oficio/internal/config"
	"oficio/internal/core/audit"
	"oficio/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "dispatchctl",
	Short: "Administer dispatch numbering, templates and documents",
	Long: `dispatchctl works directly against the dispatch database.

Storage is configured the same way as the API server: a YAML file
(--config or CONFIG_PATH) with STORAGE_DRIVER, DATABASE_URL and
SQLITE_PATH overrides from the environment.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML configuration file")
}

// cliActor is recorded in the audit log for every write made from here.
var cliActor = audit.System("cli")

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath, os.LookupEnv)
	}
	return config.Load()
}

// session is an open store with its services.
type session struct {
	cfg      *config.Config
	store    *app.Store
	services *app.Services
}

func (s *session) Close() {
	s.store.Close()
}

func openSession(ctx context.Context, opts ...func(*config.Config)) (context.Context, *session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return ctx, nil, err
	}
	for _, opt := range opts {
		opt(cfg)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Development: true})
	if err != nil {
		return ctx, nil, fmt.Errorf("initialize logger: %w", err)
	}
	ctx = logger.WithLogger(ctx, log)

	store, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		return ctx, nil, err
	}
	dispatchCfg, err := cfg.Dispatch.Generator()
	if err != nil {
		store.Close()
		return ctx, nil, err
	}
	return ctx, &session{cfg: cfg, store: store, services: app.NewServices(store, dispatchCfg)}, nil
}
