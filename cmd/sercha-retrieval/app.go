package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-retrieval/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-retrieval/internal/adapters/driven/auth"
	"github.com/custodia-labs/sercha-retrieval/internal/adapters/driven/extractor"
	"github.com/custodia-labs/sercha-retrieval/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/sercha-retrieval/internal/adapters/driven/redis"
	"github.com/custodia-labs/sercha-retrieval/internal/adapters/driven/vectorindex/chromem"
	"github.com/custodia-labs/sercha-retrieval/internal/adapters/driven/vectorindex/qdrant"
	"github.com/custodia-labs/sercha-retrieval/internal/adapters/driving/http"
	"github.com/custodia-labs/sercha-retrieval/internal/config"
	"github.com/custodia-labs/sercha-retrieval/internal/contextbuilder"
	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-retrieval/internal/core/services"
	"github.com/custodia-labs/sercha-retrieval/internal/ranking"
	"github.com/custodia-labs/sercha-retrieval/internal/runtime"
	"github.com/custodia-labs/sercha-retrieval/internal/sections"
	"github.com/custodia-labs/sercha-retrieval/internal/segmenter"
)

// app is the wired object graph shared by every subcommand
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	db       *postgres.DB
	redis    *redis.Client
	index    driven.VectorIndex
	lock     driven.DistributedLock
	runtime  *runtime.Services
	services http.Services
	checks   map[string]http.Pinger
}

// newApp connects to every backend and builds the services.
// Call Close when done.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, checks: make(map[string]http.Pinger)}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg

	// ===== PostgreSQL =====
	log.Println("Connecting to PostgreSQL...")
	dbConfig := postgres.DefaultConfig(cfg.Database.URL)
	dbConfig.MaxOpenConns = cfg.Database.MaxOpenConns
	dbConfig.MaxIdleConns = cfg.Database.MaxIdleConns
	db, err := postgres.Connect(ctx, dbConfig)
	if err != nil {
		return err
	}
	a.db = db
	if err := db.InitSchema(ctx); err != nil {
		return err
	}
	a.checks["database"] = http.PingerFunc(db.PingContext)
	log.Println("PostgreSQL connected and schema initialized")

	// ===== Redis (optional) =====
	var cache driven.EmbeddingCache
	if cfg.Redis.URL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		a.redis = redis.NewClient(opts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		cache = redisadapter.NewEmbeddingCache(a.redis, cfg.Redis.CacheTTL)
		log.Println("Redis connected")
	}

	// ===== Distributed Lock (Redis if available, otherwise PostgreSQL advisory locks) =====
	lockBackend := "postgres"
	if a.redis != nil {
		lock := redisadapter.NewLock(a.redis)
		a.lock = lock
		a.checks["redis"] = http.PingerFunc(lock.Ping)
		lockBackend = "redis"
	} else {
		a.lock = postgres.NewAdvisoryLock(db)
	}

	// ===== AI services =====
	factory := ai.NewFactory(cache, a.logger)
	embedder, err := factory.CreateEmbeddingService(&cfg.Embedding)
	if err != nil {
		return fmt.Errorf("embedding service: %w", err)
	}
	generator, err := factory.CreateGenerationService(&cfg.Generation)
	if err != nil {
		return fmt.Errorf("generation service: %w", err)
	}

	// ===== Vector index =====
	dims := cfg.Embedding.Dimensions
	if embedder != nil {
		dims = embedder.Dimensions()
	}
	index, err := newVectorIndex(ctx, cfg.VectorIndex, dims)
	if err != nil {
		return err
	}
	a.index = index
	a.checks["vector_index"] = http.PingerFunc(index.HealthCheck)

	// ===== Runtime services (embedding pinned to the corpus) =====
	runtimeConfig := domain.NewRuntimeConfig(cfg.VectorIndex.Backend, lockBackend)
	a.runtime = runtime.NewServices(runtimeConfig, postgres.NewCorpusSettingsStore(db))
	if err := a.runtime.ValidateAndSetEmbedding(ctx, cfg.Embedding.Provider, embedder); err != nil {
		return fmt.Errorf("embedding service: %w", err)
	}
	if err := a.runtime.ValidateAndSetGeneration(ctx, generator); err != nil {
		a.logger.Warn("generation service unavailable, answers disabled", "error", err)
	}

	log.Printf("Runtime config: vector_backend=%s, lock_backend=%s, embedding=%t, generation=%t",
		runtimeConfig.VectorBackend,
		runtimeConfig.LockBackend,
		runtimeConfig.EmbeddingAvailable(),
		runtimeConfig.GenerationAvailable())

	// ===== Pipeline components =====
	seg, err := segmenter.New(segmenter.Config{
		MaxLength: cfg.Segmenter.MaxLength,
		Overlap:   cfg.Segmenter.Overlap,
	}, a.logger)
	if err != nil {
		return err
	}
	classifier := sections.New(sections.DefaultConfig())
	reranker := ranking.NewReranker(cfg.Ranking)
	builder := contextbuilder.New(cfg.Context)

	// ===== PostgreSQL Stores =====
	documentStore := postgres.NewDocumentStore(db)
	passageStore := postgres.NewPassageStore(db)
	queryStore := postgres.NewQueryStore(db)

	// ===== Services (core business logic) =====
	ingestService := services.NewIngestService(services.IngestDeps{
		Classifier:    classifier,
		Segmenter:     seg,
		VectorIndex:   index,
		DocumentStore: documentStore,
		Extractor:     extractor.DefaultRegistry(),
		Services:      a.runtime,
		Logger:        a.logger,
	}, services.IngestOptions{
		EmbeddingBatchSize: cfg.Ingestion.EmbeddingBatchSize,
		Concurrency:        cfg.Ingestion.Concurrency,
		SegmentWorkers:     cfg.Ingestion.SegmentWorkers,
	})
	retrievalService := services.NewRetrievalService(services.RetrievalDeps{
		VectorIndex:   index,
		DocumentStore: documentStore,
		Services:      a.runtime,
		Reranker:      reranker,
		Builder:       builder,
		Logger:        a.logger,
	}, services.RetrievalOptions{
		MinSimilarity:       cfg.Retrieval.MinSimilarity,
		CandidateMultiplier: cfg.Retrieval.CandidateMultiplier,
	})
	answerService := services.NewAnswerService(services.AnswerDeps{
		Retrieval:  retrievalService,
		QueryStore: queryStore,
		Services:   a.runtime,
		Reranker:   reranker,
		Builder:    builder,
		Logger:     a.logger,
	})

	var authService driving.AuthService
	if cfg.Auth.Enabled {
		authService = services.NewAuthService(cfg.Auth.Clients, auth.NewAdapter(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	}

	a.services = http.Services{
		Auth:      authService,
		Ingest:    ingestService,
		Retrieval: retrievalService,
		Answer:    answerService,
		Documents: services.NewDocumentService(documentStore, passageStore, queryStore),
		Queries:   services.NewQueryLogService(queryStore),
	}
	return nil
}

// newVectorIndex opens the configured backend
func newVectorIndex(ctx context.Context, cfg config.VectorIndexConfig, dims int) (driven.VectorIndex, error) {
	switch cfg.Backend {
	case config.VectorBackendQdrant:
		log.Printf("Connecting to Qdrant at %s...", cfg.Qdrant.URL)
		index := qdrant.New(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Collection,
			Dimensions: dims,
			Timeout:    cfg.Qdrant.Timeout,
		})
		if err := index.EnsureCollection(ctx); err != nil {
			return nil, fmt.Errorf("qdrant collection %s: %w", cfg.Collection, err)
		}
		return index, nil
	default:
		index, err := chromem.New(chromem.Config{
			Path:       cfg.Chromem.Path,
			Compress:   cfg.Chromem.Compress,
			Collection: cfg.Collection,
			Dimensions: dims,
		})
		if err != nil {
			return nil, fmt.Errorf("chromem index: %w", err)
		}
		return index, nil
	}
}

// Close releases every connection the app opened
func (a *app) Close() {
	if a.runtime != nil {
		_ = a.runtime.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
