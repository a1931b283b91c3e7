package main

import (
	"encoding/json"
	"fmt"

	"garden-sync/gardensync"

	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <gameKey>",
	Short: "Print the stored entry for one game key",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func init() {
	f := lookupCmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML config file path")
	f.StringVar(&dataRoot, "data-root", ".", "Directory holding the store")
	f.StringVar(&dbPath, "db", "", "SQLite store path (default <data-root>/game.db)")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	rc := fileCfg.RunnerConfig()

	db, err := gardensync.OpenQueryDB(rc.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	entry, err := gardensync.LookupEntry(db, args[0])
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(entry, "", "    ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
