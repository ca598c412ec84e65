package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/kairos.db" description:"Path to the SQLite database file"`

	// Feed ingestion
	FeedsFile          string `long:"feeds-file" env:"FEEDS_FILE" default:"./feeds.yml" description:"YAML file with feed definitions loaded at startup"`
	FeedRefreshMinutes int    `long:"feed-refresh-minutes" env:"FEED_REFRESH_MINUTES" default:"15" description:"Interval between feed fetch cycles in minutes"`
	MaxItemsPerFeed    int    `long:"max-items-per-feed" env:"MAX_ITEMS_PER_FEED" default:"50" description:"Maximum number of entries ingested per feed per cycle"`
	FetchWorkers       int    `long:"fetch-workers" env:"FETCH_WORKERS" default:"5" description:"Number of concurrent feed fetch workers"`
	FetchTimeout       int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Feed fetch timeout in seconds"`

	// Webhook delivery
	WebhookURL         string `long:"webhook-url" env:"WEBHOOK_URL" description:"Delivery endpoint for alert notifications (optional)"`
	WebhookTimeout     int    `long:"webhook-timeout" env:"WEBHOOK_TIMEOUT" default:"10" description:"Webhook delivery timeout in seconds"`
	WebhookMaxAttempts int    `long:"webhook-max-attempts" env:"WEBHOOK_MAX_ATTEMPTS" default:"3" description:"Maximum delivery attempts before a webhook job is marked failed"`

	// HTTP server
	Port         string `long:"port" env:"PORT" default:"8083" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Kairos-Triage/1.0" description:"User agent string for outbound HTTP requests"`
	Actor     string `long:"actor" env:"ACTOR" default:"analyst" description:"Identity recorded on triage decisions"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		FeedsFile:          raw.FeedsFile,
		FeedRefreshMinutes: raw.FeedRefreshMinutes,
		MaxItemsPerFeed:    raw.MaxItemsPerFeed,
		FetchWorkers:       raw.FetchWorkers,
		FetchTimeout:       raw.FetchTimeout,
		WebhookURL:         raw.WebhookURL,
		WebhookTimeout:     raw.WebhookTimeout,
		WebhookMaxAttempts: raw.WebhookMaxAttempts,
		Port:               raw.Port,
		APIAccessKey:       raw.APIAccessKey,
		UserAgent:          raw.UserAgent,
		Actor:              raw.Actor,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if cfg.FetchWorkers < 1 {
		return nil, fmt.Errorf("fetch-workers must be at least 1, got %d", cfg.FetchWorkers)
	}
	if cfg.FeedRefreshMinutes < 1 {
		return nil, fmt.Errorf("feed-refresh-minutes must be at least 1, got %d", cfg.FeedRefreshMinutes)
	}
	if cfg.WebhookMaxAttempts < 1 {
		return nil, fmt.Errorf("webhook-max-attempts must be at least 1, got %d", cfg.WebhookMaxAttempts)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
