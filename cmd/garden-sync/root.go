package main

import (
	"fmt"
	"os"

	"garden-sync/gardensync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "garden-sync",
	Short: "Derive game keys and hourly activity from board thread logs",
	Long: `garden-sync reads the thread files of each configured board, binds game keys
to poster ids, counts posts per hour, detects reward messages and reconciles the
result into the game_ids store shared with the web service.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		l, logErr := gardensync.NewLogger(gardensync.LogConfig{Level: "debug", Format: "console"})
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
