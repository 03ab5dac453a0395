package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/camuig/robot-analytics/internal/config"
	"github.com/camuig/robot-analytics/internal/ingest"
	"github.com/camuig/robot-analytics/internal/logger"
	"github.com/camuig/robot-analytics/internal/observability"
	"github.com/camuig/robot-analytics/internal/periods"
	"github.com/camuig/robot-analytics/internal/storage"
	"github.com/camuig/robot-analytics/internal/telegram"
	"github.com/camuig/robot-analytics/internal/trades"
	"github.com/camuig/robot-analytics/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dbPath := flag.String("db", "", "path to SQLite upload history (overrides storage.path)")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("starting robot-analytics dashboard")

	// Init database
	db, err := storage.NewDatabase(cfg.Storage.Path)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	repo := storage.NewRepository(db)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	// Init services
	store := periods.NewStore()
	notifier := telegram.NewNotifier(cfg, log)
	if !notifier.Enabled() {
		log.Info("telegram notifications disabled")
	}
	ingestSvc := ingest.NewService(store, repo, notifier, metrics, log)

	preload(ingestSvc, cfg, log)

	webServer, err := web.NewServer(store, ingestSvc, repo, metrics, cfg, log)
	if err != nil {
		log.Error("web server init failed", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := webServer.Start(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()

	notifier.NotifyStatus("📊 Дашборд запущен")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error("web server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("robot-analytics stopped")
}

// preload fills buckets from files named in the config. A failing file is
// logged and its bucket stays empty.
func preload(svc *ingest.Service, cfg *config.Config, log *logger.Logger) {
	for _, b := range trades.Buckets() {
		path, ok := cfg.Preload[string(b)]
		if !ok || path == "" {
			continue
		}
		if _, err := svc.LoadFile(b, path); err != nil {
			log.Error("preload failed", "bucket", string(b), "path", path, "error", err)
		}
	}
}
