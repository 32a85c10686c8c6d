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

	"github.com/lysyi3m/news-comb/app/api"
	"github.com/lysyi3m/news-comb/app/cfg"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/feed"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting News Comb", "version", appCfg.Version)

	sources, err := feed.LoadSources(appCfg.SourcesFile)
	if err != nil {
		slog.Error("Failed to load sources", "error", err)
		os.Exit(1)
	}
	slog.Info("Sources loaded",
		"feeds", len(sources.Feeds),
		"publishers", len(sources.Publishers),
		"rules", len(sources.Categories),
		"dedup", sources.Settings.Dedup,
		"enrich", sources.Settings.Enrich)

	var runRepo api.RunRepositoryInterface
	if appCfg.StatsDB != "" {
		db, err := database.Open(appCfg.StatsDB)
		if err != nil {
			slog.Error("Failed to open statistics database", "path", appCfg.StatsDB, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		runRepo = database.NewRunRepository(db)
		slog.Info("Run statistics enabled", "path", appCfg.StatsDB)
	}

	httpClient := &http.Client{Timeout: appCfg.RequestTimeout}

	aggregator := feed.Build(sources, feed.Options{
		HTTPClient:  httpClient,
		UserAgent:   appCfg.UserAgent,
		ProxyPath:   appCfg.ProxyPath,
		Concurrency: appCfg.Concurrency,
	})

	allowedHosts := append(sources.HotlinkHosts(), appCfg.ProxyAllow...)
	imageProxy := api.NewImageProxy(httpClient, allowedHosts)

	handler := api.NewHandler(aggregator, runRepo, appCfg.Version)
	server := api.NewServer(handler, imageProxy, appCfg.ProxyPath)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
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
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("News Comb shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}
