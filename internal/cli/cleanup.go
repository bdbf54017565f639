package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newsdesk/internal/aggregator"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove redundant update records and exit",
	RunE:  runCleanup,
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Trimming needs neither the oracle nor the feeds.
	engine := aggregator.New(db, nil, nil, cfg)
	removed, err := engine.RunCleanup()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "removed %d redundant update records\n", removed)
	return nil
}
