package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		DBPath:             "./data/test.db",
		FeedsFile:          "./feeds.yml",
		FeedRefreshMinutes: 15,
		MaxItemsPerFeed:    50,
		FetchWorkers:       5,
		FetchTimeout:       30,
		WebhookURL:         "https://hooks.example.com/alerts",
		WebhookTimeout:     10,
		WebhookMaxAttempts: 3,
		Port:               "8083",
		APIAccessKey:       "test-key",
		UserAgent:          "Test Agent",
		Actor:              "analyst",
		Debug:              true,
		Version:            "test-version",
	}

	if cfg.DBPath != "./data/test.db" {
		t.Errorf("Expected DB path './data/test.db', got '%s'", cfg.DBPath)
	}
	if cfg.FetchWorkers != 5 {
		t.Errorf("Expected 5 fetch workers, got %d", cfg.FetchWorkers)
	}
	if cfg.WebhookMaxAttempts != 3 {
		t.Errorf("Expected 3 max attempts, got %d", cfg.WebhookMaxAttempts)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
}

func TestGetPanicsWhenNotLoaded(t *testing.T) {
	prev := globalCfg
	globalCfg = nil
	defer func() {
		globalCfg = prev
		if r := recover(); r == nil {
			t.Error("Expected Get to panic when configuration is not loaded")
		}
	}()

	Get()
}
