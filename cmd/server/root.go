package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/compliance-engine/config"
	"github.com/warp/compliance-engine/logging"
	"github.com/warp/compliance-engine/rentroll"
	"github.com/warp/compliance-engine/store/memory"
	"github.com/warp/compliance-engine/store/sqlite"
)

const appName = "compliance-engine"

var (
	flagConfig   string
	flagDB       string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "Affordable housing compliance engine",
	Long:          "Classify units into AMI buckets, reconcile property targets and track income verification.",
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "compliance.toml", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Database path (\":memory:\" for in-memory)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, importCmd, reportCmd)
}

// loadConfig reads the config file and applies flag overrides, then
// initializes logging.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDB != "" {
		cfg.Database.Path = flagDB
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}

	logging.InitLogger(appName, cfg.Log.Level)
	return cfg, nil
}

// openStore returns the configured store and its close function.
func openStore(cfg config.Config) (rentroll.Store, func() error, error) {
	if cfg.InMemory() {
		return memory.New(), func() error { return nil }, nil
	}
	s, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, s.Close, nil
}

// newEngine builds the shared engine with debug-level diagnostics.
func newEngine(cfg config.Config) *rentroll.Engine {
	workers := cfg.Engine.Workers
	if workers <= 0 {
		workers = rentroll.DefaultWorkers
	}
	return rentroll.NewEngine(logging.NewObserver(logging.Logger), workers)
}
