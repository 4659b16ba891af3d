package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"tariff-workers/internal/common/config"
	"tariff-workers/internal/common/database"
	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/tariff/pipeline"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	cfgFile  string
	snapshot string
	logLevel string

	cfg     *config.Config
	log     logger.Logger
	closers []func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "tariffctl",
		Short:         "Classify products and resolve duty rates from the command line",
		Long:          `tariffctl runs the classification, rate, qualification and savings stages locally, without Zeebe.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: configs/config.yaml)")
	cmd.PersistentFlags().StringVar(&a.snapshot, "snapshot", "", "serve search and lookups from this JSON snapshot instead of the configured stores")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(termsCmd(a))
	cmd.AddCommand(classifyCmd(a))
	cmd.AddCommand(ratesCmd(a))
	cmd.AddCommand(qualifyCmd(a))
	cmd.AddCommand(savingsCmd(a))
	cmd.AddCommand(runCmd(a))
	cmd.AddCommand(registryCmd(a))
	return cmd
}

func (a *app) init() error {
	var (
		cfg *config.Config
		err error
	)
	if a.cfgFile != "" {
		cfg, err = config.LoadFromFile(a.cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.snapshot != "" {
		cfg.Store.SearchBackend = config.BackendMemory
		cfg.Store.LookupBackend = config.BackendMemory
		cfg.Store.SnapshotPath = a.snapshot
	}

	a.cfg = cfg
	a.log = logger.NewStructured(a.logLevel, "console")
	return nil
}

func (a *app) close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// components connects only to the stores the config selects. Redis is
// optional here; an unreachable cache is logged and skipped.
func (a *app) components(ctx context.Context) (*pipeline.Components, error) {
	b := pipeline.Backends{Logger: a.log}
	uses := func(backend string) bool {
		return a.cfg.Store.SearchBackend == backend || a.cfg.Store.LookupBackend == backend
	}

	if uses(config.BackendPostgres) {
		pg, err := database.NewPostgres(a.cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		if err := pg.Ping(ctx); err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		b.Postgres = pg.DB
	}
	if uses(config.BackendElasticsearch) {
		es, err := database.NewElasticsearch(a.cfg.Database.Elasticsearch)
		if err != nil {
			return nil, err
		}
		if err := es.Ping(ctx); err != nil {
			return nil, err
		}
		b.Elasticsearch = es.Client
	}
	if a.cfg.Database.Redis.Address != "" {
		rc, err := database.NewRedis(a.cfg.Database.Redis)
		if err == nil {
			err = rc.Ping(ctx)
		}
		if err != nil {
			a.log.Warn("redis unavailable, running without caches", map[string]interface{}{"error": err})
		} else {
			a.closers = append(a.closers, rc.Close)
			b.Redis = rc.Client
		}
	}

	return pipeline.Build(a.cfg, b)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
