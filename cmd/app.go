package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/schemahead/schemahead/internal/config"
	"github.com/schemahead/schemahead/internal/deploy"
	"github.com/schemahead/schemahead/internal/errs"
	"github.com/schemahead/schemahead/internal/executor"
	"github.com/schemahead/schemahead/internal/headstate"
	"github.com/schemahead/schemahead/internal/hook"
	"github.com/schemahead/schemahead/internal/logging"
	"github.com/schemahead/schemahead/internal/metrics"
	"github.com/schemahead/schemahead/internal/registry"
)

// app holds what every command needs, built once per invocation.
type app struct {
	cfg      config.Resolved
	logger   hclog.Logger
	registry *registry.Registry
	metrics  *metrics.Recorder

	store headstate.Store
	heads *headstate.Client
}

// newApp loads and validates configuration. It does not contact the head
// store.
func newApp() (*app, error) {
	raw, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load %s: %v", errs.ErrInvalidConfig, config.FileName, err)
	}

	cfg, err := config.Resolve(raw, config.Overrides{
		Environment:   globalFlags.environment,
		SchemaDir:     globalFlags.schemaDir,
		MigrationsDir: globalFlags.migrationsDir,
		LogLevel:      globalFlags.logLevel,
		MetricsFile:   globalFlags.metricsFile,
	})
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidatePaths(); err != nil {
		return nil, err
	}

	logger := logging.New(cfg.LogLevel, os.Stderr)
	logger.Debug("configuration resolved",
		"environment", cfg.Environment,
		"config", cfg.ConfigFilePath,
		"dotenv", cfg.DotenvPath,
		"schema_dir", cfg.SchemaDir,
		"migrations_dir", cfg.MigrationsDir,
		"head_store", cfg.HeadStore)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry.New(cfg.MigrationsDir, cfg.HookFile),
	}
	if cfg.MetricsFile != "" {
		a.metrics = metrics.New()
	}
	return a, nil
}

// openHeads connects to the configured head store.
func (a *app) openHeads(ctx context.Context) error {
	store, err := headstate.OpenStore(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	a.store = store
	a.heads = headstate.NewClient(store, a.registry, a.logger)
	return nil
}

func (a *app) newExecutor() (*executor.Executor, error) {
	deployer, err := deploy.NewCommand(a.cfg.DeployCommand, a.logger)
	if err != nil {
		return nil, err
	}
	return executor.New(executor.Config{
		Units:        a.registry,
		Heads:        a.heads,
		Hooks:        hook.NewInterpreter(a.logger.Named("hook")),
		Deployer:     deployer,
		DeployParams: a.cfg.DeployParams,
		Logger:       a.logger,
		Metrics:      a.metrics,
	})
}

// close releases the head store and writes metrics.
func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close head store", "error", err)
		}
	}
	if err := a.metrics.WriteFile(a.cfg.MetricsFile); err != nil {
		a.logger.Warn("failed to write metrics", "path", a.cfg.MetricsFile, "error", err)
	}
}
