package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fenwick-labs/voicegate/internal/backend"
	"github.com/fenwick-labs/voicegate/internal/config"
	"github.com/fenwick-labs/voicegate/internal/gateway"
	"github.com/fenwick-labs/voicegate/internal/observability"
	"github.com/fenwick-labs/voicegate/internal/ragsvc"
	"github.com/fenwick-labs/voicegate/internal/ragsvc/embedder"
	"github.com/fenwick-labs/voicegate/internal/ragsvc/store"
)

// embeddingRatePerSecond bounds how many batch embedding calls the
// indexer issues per second against the configured embedding endpoint.
const embeddingRatePerSecond = 2.0

func runServe(ctx context.Context, configPath string, debug bool) error {
	logLevel := os.Getenv("LOG_LEVEL")
	if debug {
		logLevel = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:  logLevel,
		Format: os.Getenv("LOG_FORMAT"),
	})

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	metrics := observability.NewMetrics()
	tracer, shutdownTracer := observability.NewTracer(observability.TraceConfig{
		ServiceName:    "voicegate",
		ServiceVersion: version,
		Environment:    os.Getenv("ENVIRONMENT"),
		Endpoint:       os.Getenv("OTEL_ENDPOINT"),
	})
	defer func() { _ = shutdownTracer(context.Background()) }()

	rag, err := buildRAGService(cfg.RAG, cfg.Embedding, logger, metrics)
	if err != nil {
		return fmt.Errorf("build rag service: %w", err)
	}
	if rag != nil {
		if err := rag.Index(ctx, false); err != nil {
			slog.Warn("initial retrieval index build failed, search_knowledge_base will rely on an empty index", "error", err)
		}
	}

	backendClient := backend.New(cfg.Backend)
	server := gateway.NewServer(cfg, rag, backendClient, logger, metrics, tracer)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}

	slog.Info("voicegate gateway started", "addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))

	<-ctx.Done()
	slog.Info("shutdown signal received, draining relay sessions")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildRAGService wires the retrieval service (C2) from config. It
// returns a nil Service, not an error, when no corpus is configured —
// search_knowledge_base then has nothing to serve, but the gateway
// otherwise starts normally.
func buildRAGService(cfg config.RAGConfig, embCfg config.EmbeddingConfig, logger *observability.Logger, metrics *observability.Metrics) (*ragsvc.Service, error) {
	if cfg.CorpusPath == "" {
		return nil, nil
	}

	var emb embedder.Embedder
	if cfg.UseVectorStore {
		client, err := embedder.New(embedder.Config{
			Endpoint: embCfg.Endpoint,
			APIKey:   embCfg.APIKey,
			Model:    embCfg.Model,
		}, embeddingRatePerSecond)
		if err != nil {
			return nil, fmt.Errorf("construct embedder: %w", err)
		}
		emb = client
	}

	var st store.Store
	if cfg.StoreDir != "" {
		st = store.New(cfg.StoreDir)
	}

	return ragsvc.New(cfg, emb, st, logger, metrics), nil
}
