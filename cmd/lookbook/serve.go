package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/domain/search/rank"
	logpkg "github.com/kailas-cloud/lookbook/internal/logger"
	"github.com/kailas-cloud/lookbook/internal/metrics"
	sessionrepo "github.com/kailas-cloud/lookbook/internal/repository/session"
	chiTransport "github.com/kailas-cloud/lookbook/internal/transport/chi"
	"github.com/kailas-cloud/lookbook/internal/version"
	healthuc "github.com/kailas-cloud/lookbook/internal/usecase/health"
	inventoryuc "github.com/kailas-cloud/lookbook/internal/usecase/inventory"
	searchuc "github.com/kailas-cloud/lookbook/internal/usecase/search"
	tagginguc "github.com/kailas-cloud/lookbook/internal/usecase/tagging"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting lookbook API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("vector_backend", cfg.VectorStore.Backend),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterTaggingMetrics()
	metrics.RegisterSearchMetrics()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	deps, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	embedders, err := buildEmbedders(ctx, cfg, deps.store, logger)
	if err != nil {
		return err
	}
	tagger, err := buildTagger(ctx, cfg, logger)
	if err != nil {
		return err
	}

	ranker, err := rank.NewRanker(cfg.Search.MaxDistance)
	if err != nil {
		return fmt.Errorf("create ranker: %w", err)
	}

	taggingSvc, err := tagginguc.New(tagger, embedders.document, deps.items, tagginguc.Options{
		MaxFiles: cfg.Upload.MaxFiles,
		Workers:  cfg.Tagging.Workers,
	}, logger)
	if err != nil {
		return fmt.Errorf("create tagging service: %w", err)
	}
	defer taggingSvc.Close()

	searchSvc := searchuc.New(deps.items, embedders.query, ranker, logger)
	inventorySvc := inventoryuc.New(deps.items)
	sessionTTL := time.Duration(cfg.Session.TTLHours) * time.Hour
	sessions := sessionrepo.New(deps.store, cfg.Storage.KeyPrefix, sessionTTL, logger)

	healthSvc := healthuc.New(deps.store, newEmbeddingHealthChecker(embedders.document))
	if deps.vectorPinger != nil {
		healthSvc = healthSvc.WithVectorStore(deps.vectorPinger)
	}

	server := chiTransport.NewServer(taggingSvc, searchSvc, inventorySvc, sessions, healthSvc,
		chiTransport.Options{
			MaxFileBytes: int64(cfg.Upload.MaxFileMB) << 20,
			SessionTTL:   sessionTTL,
		})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger),
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
