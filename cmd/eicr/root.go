package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"eicrcore/internal/config"
	"eicrcore/internal/core"
	"eicrcore/internal/logging"
	"eicrcore/internal/presets"
)

// app carries what PersistentPreRunE prepares for every subcommand.
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

func rootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "eicr",
		Short:         "EICR circuit schedule service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initialize()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./eicr.yaml or ~/.config/eicr/eicr.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		serveCommand(a),
		buildCommand(a),
		checkCommand(a),
		maxZsCommand(a),
	)
	return root
}

func (a *app) initialize() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if _, err := logging.ParseLevel(a.logLevel); err != nil {
			return err
		}
		cfg.Log.Level = a.logLevel
	}
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}

func (a *app) storageConfig() core.StorageConfig {
	return core.StorageConfig{
		Driver:      a.cfg.Storage.Driver,
		SQLitePath:  a.cfg.Storage.SQLitePath,
		PostgresDSN: a.cfg.Storage.PostgresDSN,
	}
}

// service opens the configured store and a service over it. The returned
// function closes both.
func (a *app) service(ctx context.Context, opts ...core.Option) (*core.Service, func(context.Context) error, error) {
	catalog, err := presets.Load(a.cfg.Presets.File)
	if err != nil {
		return nil, nil, err
	}
	store, err := core.OpenDocumentStore(ctx, a.storageConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	base := []core.Option{
		core.WithLogger(a.log),
		core.WithPresets(catalog),
		core.WithDebounce(a.cfg.Session.Debounce),
		core.WithIdleTTL(a.cfg.Session.IdleTTL),
	}
	svc := core.NewService(store, append(base, opts...)...)
	closeFn := func(ctx context.Context) error {
		err := svc.Close(ctx)
		if cerr := store.Close(); err == nil {
			err = cerr
		}
		return err
	}
	return svc, closeFn, nil
}
