package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"newsdesk/internal/aggregator"
	"newsdesk/internal/config"
	"newsdesk/internal/feed"
	"newsdesk/internal/oracle"
	"newsdesk/internal/server"
	"newsdesk/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and the aggregation scheduler",
	RunE:  runServe,
}

// loadConfig reads the config file and applies environment key overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Oracle.OpenAIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Oracle.GeminiKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.Oracle.AnthropicKey = key
	}
	if key := os.Getenv("NEWSAPI_KEY"); key != "" {
		cfg.Feeds.NewsAPIKey = key
	}
	return cfg, nil
}

func openStore(cfg config.Config) (*store.DB, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	return store.Open(dbPath)
}

func buildFeeds(cfg config.Config) feed.Provider {
	providers := feed.Multi{feed.NewRSS(cfg.Feeds.RSS)}
	if cfg.Feeds.NewsAPIKey != "" {
		providers = append(providers, feed.NewNewsAPI(cfg.Feeds.NewsAPIKey))
	}
	return providers
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Without an oracle key the API still serves reads; only the
	// aggregation cycles are disabled.
	var sched *aggregator.Scheduler
	client, err := oracle.NewClient(cfg.Oracle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: oracle not configured (%v), aggregation disabled\n", err)
		sched = aggregator.NewScheduler(aggregator.New(db, nil, buildFeeds(cfg), cfg))
	} else {
		engine := aggregator.New(db, client, buildFeeds(cfg), cfg)
		sched = aggregator.NewScheduler(engine)
		sched.Start()
		defer sched.Stop()
		fmt.Fprintf(os.Stderr, "  oracle: %s\n", cfg.Oracle.Provider)
	}

	srv := server.New(db, sched, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "newsdesk serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", db.Path)
		fmt.Fprintf(os.Stderr, "  cycle interval: %s\n", cfg.Aggregator.CycleInterval())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
