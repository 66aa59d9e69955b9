package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/config"
	"github.com/kailas-cloud/lookbook/internal/db"
	dbValkey "github.com/kailas-cloud/lookbook/internal/db/valkey"
	"github.com/kailas-cloud/lookbook/internal/domain"
	domitem "github.com/kailas-cloud/lookbook/internal/domain/item"
	"github.com/kailas-cloud/lookbook/internal/domain/search/hit"
	"github.com/kailas-cloud/lookbook/internal/metrics"
	"github.com/kailas-cloud/lookbook/internal/repository/embcache"
	itemrepo "github.com/kailas-cloud/lookbook/internal/repository/item"
	qdrantrepo "github.com/kailas-cloud/lookbook/internal/repository/qdrant"
	geminiTransport "github.com/kailas-cloud/lookbook/internal/transport/gemini"
	openaiEmb "github.com/kailas-cloud/lookbook/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/lookbook/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/lookbook/internal/usecase/health"
)

// vectorStore is everything the services need from an item backend.
type vectorStore interface {
	EnsureIndex(ctx context.Context) error
	Add(ctx context.Context, it domitem.Item, vector []float32) error
	Query(ctx context.Context, vector []float32, k int, filters map[string]string) ([]hit.SearchHit, error)
	Corpus(ctx context.Context) ([]any, error)
	Items(ctx context.Context) ([]domitem.Item, error)
	Count(ctx context.Context) (int, error)
}

// storage holds the opened backends. Sessions and the embedding cache always live
// in the key-value store; items live in the configured vector backend.
type storage struct {
	store        db.Store
	items        vectorStore
	vectorPinger healthuc.DBPinger
	closers      []func()
}

func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (*storage, error) {
	// The valkey store speaks RESP, so it also serves the redis driver.
	store, err := dbValkey.NewStore(dbValkey.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}
	s := &storage{store: store, closers: []func(){store.Close}}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		s.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))

	switch cfg.VectorStore.Backend {
	case config.BackendQdrant:
		repo, err := qdrantrepo.Dial(qdrantrepo.Config{
			Addr:       cfg.VectorStore.Qdrant.Addr,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("dial qdrant: %w", err)
		}
		s.closers = append(s.closers, func() { _ = repo.Close() })
		s.items = repo
		s.vectorPinger = repo
	default:
		s.items = itemrepo.New(store, itemrepo.Options{
			Prefix:         cfg.Storage.KeyPrefix,
			Dimensions:     cfg.Embedding.Dimensions,
			M:              cfg.VectorStore.HNSWM,
			EFConstruction: cfg.VectorStore.HNSWEFConstruct,
		})
	}

	if err := s.items.EnsureIndex(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("ensure item index: %w", err)
	}
	logger.Info("Vector store ready", zap.String("backend", cfg.VectorStore.Backend))
	return s, nil
}

type embedderPair struct {
	document domain.Embedder
	query    domain.Embedder
}

// buildEmbedders assembles the decorator chain for both task types:
// provider -> cached -> instrumented -> instruction.
func buildEmbedders(ctx context.Context, cfg config.Config, store db.KVStore, logger *zap.Logger) (embedderPair, error) {
	ec := cfg.Embedding

	var docBase, queryBase domain.Embedder
	model := ec.Model
	switch ec.Provider {
	case config.ProviderOpenAI:
		base := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Provider:   ec.Provider,
			Logger:     logger,
		})
		docBase, queryBase = base, base
	default:
		m, err := geminiTransport.NewModels(ctx, geminiTransport.ClientConfig{APIKey: ec.APIKey, BaseURL: ec.BaseURL})
		if err != nil {
			return embedderPair{}, fmt.Errorf("gemini embedding client: %w", err)
		}
		model = cmp.Or(model, geminiTransport.DefaultEmbeddingModel)
		newGemini := func(task string) domain.Embedder {
			return geminiTransport.NewEmbedder(m, geminiTransport.EmbedderConfig{
				Model:      model,
				Dimensions: ec.Dimensions,
				TaskType:   task,
				Logger:     logger,
			})
		}
		docBase = newGemini(geminiTransport.TaskRetrievalDocument)
		queryBase = newGemini(geminiTransport.TaskRetrievalQuery)
	}

	wrap := func(base domain.Embedder, task embeddinguc.Task, instruction string) domain.Embedder {
		embedder := domain.Embedder(embcache.New(base, store, embcache.Options{
			Prefix:    cfg.Storage.KeyPrefix,
			Namespace: fmt.Sprintf("%s:%s:%d:%s", ec.Provider, model, ec.Dimensions, task),
			TTL:       time.Duration(ec.CacheTTLHours) * time.Hour,
		}, metrics.EmbeddingCacheTotal, logger))

		embedder = embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, model, task, logger)

		// Instruction prefix (outermost, so the cache key includes it)
		if instruction != "" {
			return domain.NewInstructionEmbedder(embedder, instruction)
		}
		return embedder
	}

	pair := embedderPair{
		document: wrap(docBase, embeddinguc.TaskDocument, ec.DocumentInstruction),
		query:    wrap(queryBase, embeddinguc.TaskQuery, ec.QueryInstruction),
	}
	logger.Info("Embedders created",
		zap.String("provider", ec.Provider),
		zap.String("model", model),
		zap.Int("dimensions", ec.Dimensions),
	)
	return pair, nil
}

func buildTagger(ctx context.Context, cfg config.Config, logger *zap.Logger) (*geminiTransport.Tagger, error) {
	tc := cfg.Tagging
	apiKey := tc.APIKey
	if apiKey == "" && cfg.Embedding.Provider == config.ProviderGemini {
		apiKey = cfg.Embedding.APIKey
	}
	m, err := geminiTransport.NewModels(ctx, geminiTransport.ClientConfig{APIKey: apiKey, BaseURL: tc.BaseURL})
	if err != nil {
		return nil, fmt.Errorf("gemini tagging client: %w", err)
	}
	return geminiTransport.NewTagger(m, geminiTransport.TaggerConfig{
		Model:  tc.Model,
		Prompt: tc.Prompt,
		Logger: logger,
	}), nil
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
