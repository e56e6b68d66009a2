package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fenwick-labs/voicegate/internal/config"
	"github.com/fenwick-labs/voicegate/internal/observability"
)

func runIndex(ctx context.Context, configPath string, force bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LogConfig{})
	metrics := observability.NewMetrics()

	rag, err := buildRAGService(cfg.RAG, cfg.Embedding, logger, metrics)
	if err != nil {
		return fmt.Errorf("build rag service: %w", err)
	}
	if rag == nil {
		return fmt.Errorf("no corpus_path configured, nothing to index")
	}

	if err := rag.Index(ctx, force); err != nil {
		return fmt.Errorf("index corpus: %w", err)
	}
	slog.Info("retrieval index built", "corpus", cfg.RAG.CorpusPath, "store", cfg.RAG.StoreDir, "force", force)
	return nil
}
