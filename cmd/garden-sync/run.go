package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"garden-sync/gardensync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	dataRoot   string
	dbPath     string
	timezone   string
	schedule   string
	debug      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scan boards and reconcile game keys",
	Long: `Scan every board directory, reconcile with the stored state and write the
store, the JSON snapshot and the parse cache.

Examples:
  # one run with defaults (data root ".")
  garden-sync run

  # one run from a config file, overriding the data root
  garden-sync run --config garden-sync.yaml --data-root /srv/public/server/data

  # every 10 minutes until interrupted
  garden-sync run --config garden-sync.yaml --schedule "*/10 * * * *"`,
	RunE: runSync,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML config file path")
	f.StringVar(&dataRoot, "data-root", ".", "Directory holding the boards, store, snapshot and cache")
	f.StringVar(&dbPath, "db", "", "SQLite store path (default <data-root>/game.db)")
	f.StringVar(&timezone, "timezone", "Asia/Tokyo", "Timezone the boards stamp posts in")
	f.StringVar(&schedule, "schedule", "", "Cron expression; run repeatedly instead of once")
	f.BoolVar(&debug, "debug", false, "Enable debug logs")
	rootCmd.AddCommand(runCmd)
}

func loadFileConfig(cmd *cobra.Command) (*gardensync.FileConfig, error) {
	fileCfg := &gardensync.FileConfig{}
	if configPath != "" {
		cfg, err := gardensync.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		fileCfg = cfg
	}

	// flags win only when given explicitly
	flags := cmd.Flags()
	if flags.Changed("data-root") || fileCfg.DataRoot == "" {
		fileCfg.DataRoot = dataRoot
	}
	if flags.Changed("db") {
		fileCfg.DB = dbPath
	}
	if flags.Changed("timezone") || fileCfg.Timezone == "" {
		fileCfg.Timezone = timezone
	}
	if flags.Changed("schedule") {
		fileCfg.Schedule = schedule
	}
	if flags.Changed("debug") {
		fileCfg.Debug = debug
	}
	if fileCfg.Debug {
		fileCfg.Log.Level = "debug"
	}
	if fileCfg.Log.Level == "" {
		fileCfg.Log.Level = "info"
	}
	return fileCfg, nil
}

func runSync(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}

	l, err := gardensync.NewLogger(fileCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	rc := fileCfg.RunnerConfig()
	rc.Logger = l
	runner, err := gardensync.NewRunner(rc)
	if err != nil {
		return fmt.Errorf("init runner: %w", err)
	}
	defer runner.Close()

	if fileCfg.Schedule == "" {
		if _, err := runner.RunOnce(); err != nil {
			// persistence failures are already logged; the run itself completed
			l.Warn("run finished with persistence errors", zap.Error(err))
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return gardensync.RunScheduled(ctx, fileCfg.Schedule, runner)
}
