package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all newsdesk configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Oracle     OracleConfig     `toml:"oracle"`
	Feeds      FeedsConfig      `toml:"feeds"`
	Aggregator AggregatorConfig `toml:"aggregator"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// OracleConfig selects and configures the classification provider.
type OracleConfig struct {
	Provider     string `toml:"provider"` // "openai", "gemini", "anthropic"
	Model        string `toml:"model"`
	OpenAIKey    string `toml:"openai_key"`
	GeminiKey    string `toml:"gemini_key"`
	AnthropicKey string `toml:"anthropic_key"`
}

type FeedsConfig struct {
	RSS               []string `toml:"rss"`
	NewsAPIKey        string   `toml:"newsapi_key"`
	ArticleBatchLimit int      `toml:"article_batch_limit"`
}

// AggregatorConfig tunes the aggregation cycle. The defaults are the
// product-level contract; everything is overridable per deployment.
type AggregatorConfig struct {
	MaxActiveEvents         int     `toml:"max_active_events"`
	NewEventBonus           float64 `toml:"new_event_bonus"`
	AgePenaltyThresholdDays int     `toml:"age_penalty_threshold_days"`
	MaxAgePenalty           float64 `toml:"max_age_penalty"`
	DeactivationCutoffDays  int     `toml:"deactivation_cutoff_days"`
	CycleIntervalMinutes    int     `toml:"cycle_interval_minutes"`
	ShutdownTimeoutSeconds  int     `toml:"shutdown_timeout_seconds"`
}

// defaultRSSFeeds is the out-of-the-box feed list.
var defaultRSSFeeds = []string{
	"https://feeds.bbci.co.uk/news/rss.xml",
	"https://rss.cnn.com/rss/edition.rss",
	"https://feeds.reuters.com/Reuters/worldNews",
	"https://www.theguardian.com/world/rss",
	"https://feeds.npr.org/1001/rss.xml",
	"https://rss.nytimes.com/services/xml/rss/nyt/World.xml",
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 38800,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Oracle: OracleConfig{
			Provider: "gemini",
		},
		Feeds: FeedsConfig{
			RSS:               defaultRSSFeeds,
			ArticleBatchLimit: 20,
		},
		Aggregator: AggregatorConfig{
			MaxActiveEvents:         12,
			NewEventBonus:           25,
			AgePenaltyThresholdDays: 1,
			MaxAgePenalty:           50,
			DeactivationCutoffDays:  2,
			CycleIntervalMinutes:    15,
			ShutdownTimeoutSeconds:  5,
		},
	}
}

// Load reads a TOML config file on top of the defaults.
// A missing file is not an error; the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// CycleInterval returns the scheduler interval as a duration.
func (a AggregatorConfig) CycleInterval() time.Duration {
	return time.Duration(a.CycleIntervalMinutes) * time.Minute
}

// ShutdownTimeout returns the stop-wait budget as a duration.
func (a AggregatorConfig) ShutdownTimeout() time.Duration {
	return time.Duration(a.ShutdownTimeoutSeconds) * time.Second
}
