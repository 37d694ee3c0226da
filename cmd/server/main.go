package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/mk-ultron/ai-image-analysis/internal/analysis"
	"github.com/mk-ultron/ai-image-analysis/internal/cache"
	"github.com/mk-ultron/ai-image-analysis/internal/config"
	"github.com/mk-ultron/ai-image-analysis/internal/database"
	"github.com/mk-ultron/ai-image-analysis/internal/handlers"
	httpserver "github.com/mk-ultron/ai-image-analysis/internal/http"
	"github.com/mk-ultron/ai-image-analysis/internal/imagesource"
	"github.com/mk-ultron/ai-image-analysis/internal/speech"
	"github.com/mk-ultron/ai-image-analysis/internal/storage"
	"github.com/mk-ultron/ai-image-analysis/internal/store"
	"github.com/mk-ultron/ai-image-analysis/internal/vision"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()

	db, err := database.NewSQLiteDB(logger, cfg.CacheDBPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open cache database")
	}

	analysisStore := store.NewSQLStore(db)
	visionClient := vision.NewClient(logger, cfg)
	speechClient := speech.NewClient(logger, cfg)
	fetcher := imagesource.NewFetcher(logger, &http.Client{Timeout: cfg.FetchTimeout}, cfg.MaxImageBytes)
	orchestrator := analysis.NewOrchestrator(logger, analysisStore, visionClient, cfg.MaxImageBytes)

	var archive storage.Archive
	if cfg.ArchiveEnabled() {
		archive = storage.NewS3Archive(logger, cfg, db)
		logger.WithField("bucket", cfg.S3Bucket).Info("Image archive enabled")
	}

	handler := handlers.NewAPIHandler(logger, cfg, orchestrator, speechClient, fetcher, analysisStore, archive)

	r := mux.NewRouter()
	r.Use(handlers.LoggingMiddleware(logger, db))
	r.Use(handlers.RateLimitMiddleware(cfg))
	handlers.RegisterRoutes(r, handler, cfg.WebDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		cancel()
	}()

	reporter := cache.NewStatsReporter(logger, analysisStore, orchestrator, cfg.StatsInterval)
	go reporter.Start(ctx)

	if err := httpserver.Serve(ctx, logger, r, cfg.ListenAddr, cfg.TLSAddr); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}
