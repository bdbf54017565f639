package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"newsdesk/internal/aggregator"
	"newsdesk/internal/oracle"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Run one aggregation cycle and exit",
	RunE:  runAggregate,
}

func runAggregate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	client, err := oracle.NewClient(cfg.Oracle)
	if err != nil {
		return fmt.Errorf("oracle not configured: %w", err)
	}

	engine := aggregator.New(db, client, buildFeeds(cfg), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := engine.RunCycle(ctx); err != nil {
		return err
	}

	active, _ := db.CountActiveEvents()
	total, _ := db.CountEvents()
	fmt.Fprintf(os.Stderr, "done: %d active events (%d total)\n", active, total)
	return nil
}
