package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/apth/kairos/app/api"
	"github.com/apth/kairos/app/cfg"
	"github.com/apth/kairos/app/database"
	"github.com/apth/kairos/app/feed"
	"github.com/apth/kairos/app/fetcher"
	"github.com/apth/kairos/app/tasks"
	"github.com/apth/kairos/app/triage"
	"github.com/apth/kairos/app/urlcheck"
	"github.com/apth/kairos/app/webhook"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	slog.Info("Starting Kairos", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "schema_version", version, "dirty", dirty)

	feedRepo := database.NewFeedRepository(db)
	itemRepo := database.NewItemRepository(db)
	webhookRepo := database.NewWebhookRepository(db)

	validator := urlcheck.New()

	seedFeeds(feedRepo, appCfg.FeedsFile)

	// A misconfigured endpoint should surface at startup, not on the
	// first alert. Delivery still starts; jobs fail at send time.
	if appCfg.WebhookURL != "" {
		if _, err := validator.Validate(context.Background(), appCfg.WebhookURL, urlcheck.PurposeWebhook); err != nil {
			slog.Error("Configured webhook URL failed validation", "error", err)
		}
	} else {
		slog.Warn("No webhook URL configured, alert notifications will be skipped")
	}

	registry := prometheus.NewRegistry()

	engine := fetcher.NewEngine(feedRepo, itemRepo, feed.NewParser(), validator,
		fetcher.NewMetrics(registry), fetcher.Options{
			UserAgent:       appCfg.UserAgent,
			Workers:         appCfg.FetchWorkers,
			MaxItemsPerFeed: appCfg.MaxItemsPerFeed,
			Timeout:         time.Duration(appCfg.FetchTimeout) * time.Second,
		})

	queue := webhook.NewQueue(webhookRepo, validator, webhook.NewMetrics(registry),
		webhook.Options{
			Endpoint:    appCfg.WebhookURL,
			Timeout:     time.Duration(appCfg.WebhookTimeout) * time.Second,
			MaxAttempts: appCfg.WebhookMaxAttempts,
		})

	triageService := triage.NewService(itemRepo, queue)

	scheduler := tasks.NewScheduler(engine, queue,
		time.Duration(appCfg.FeedRefreshMinutes)*time.Minute)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(feedRepo, triageService, validator, scheduler,
		appCfg.Actor, appCfg.Version)
	limiter := api.NewRateLimiter(60, time.Minute)
	router := api.NewServer(handler, appCfg.APIAccessKey, limiter, registry)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

// seedFeeds registers feeds from the seed file. Duplicates from earlier
// runs are expected and skipped.
func seedFeeds(feedRepo database.FeedRepository, path string) {
	seeds, err := feed.LoadSeedFile(path)
	if err != nil {
		slog.Error("Failed to load feed seed file", "path", path, "error", err)
		os.Exit(1)
	}
	if len(seeds) == 0 {
		return
	}

	registered := 0
	for _, s := range seeds {
		if _, err := feedRepo.AddFeed(s.URL, s.Name, s.Priority, s.Category); err != nil {
			slog.Debug("Feed already registered", "url", s.URL)
			continue
		}
		registered++
	}

	slog.Info("Feed seed file processed", "path", path, "total", len(seeds), "new", registered)
}
