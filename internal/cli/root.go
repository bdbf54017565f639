package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "newsdesk",
	Short: "Self-updating news aggregation service",
	Long:  "Newsdesk tracks significant news events: it fetches feeds on a schedule, classifies articles against the tracked events, and serves the ranked active set over HTTP. Single Go binary, SQLite storage.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to TOML config file")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(cleanupCmd)
}
