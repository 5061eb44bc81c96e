package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	cacheMemory "github.com/vaultscout/vaultscout/internal/adapters/driven/cache/memory"
	cacheRedis "github.com/vaultscout/vaultscout/internal/adapters/driven/cache/redis"
	configFile "github.com/vaultscout/vaultscout/internal/adapters/driven/config/file"
	embedOllama "github.com/vaultscout/vaultscout/internal/adapters/driven/embedding/ollama"
	embedOpenAI "github.com/vaultscout/vaultscout/internal/adapters/driven/embedding/openai"
	keywordBleve "github.com/vaultscout/vaultscout/internal/adapters/driven/keyword/bleve"
	llmGemini "github.com/vaultscout/vaultscout/internal/adapters/driven/llm/gemini"
	llmOllama "github.com/vaultscout/vaultscout/internal/adapters/driven/llm/ollama"
	rerankTEI "github.com/vaultscout/vaultscout/internal/adapters/driven/reranker/tei"
	"github.com/vaultscout/vaultscout/internal/adapters/driven/storage/sqlite"
	"github.com/vaultscout/vaultscout/internal/adapters/driven/vault/obsidian"
	vectorChroma "github.com/vaultscout/vaultscout/internal/adapters/driven/vector/chroma"
	vectorMemory "github.com/vaultscout/vaultscout/internal/adapters/driven/vector/memory"
	"github.com/vaultscout/vaultscout/internal/core/domain"
	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
	"github.com/vaultscout/vaultscout/internal/core/services"
	"github.com/vaultscout/vaultscout/internal/logger"
	"github.com/vaultscout/vaultscout/internal/postprocessors/chunker"
	"github.com/vaultscout/vaultscout/internal/resilience"
)

// app holds the wired adapter stack behind the package-level service
// handles, so closeServices can release everything.
type app struct {
	store       *sqlite.Store
	engine      *keywordBleve.Engine
	vault       *obsidian.Source
	embedder    driven.EmbeddingService
	llm         driven.LLMService
	reranker    driven.CrossEncoder
	embedCache  driven.EmbeddingCache
	resultCache driven.ResultCache
}

// initServices wires the full adapter stack from configuration.
// Idempotent: tests pre-populate the service handles and this becomes
// a no-op.
func initServices() error {
	if searchService != nil {
		return nil
	}

	configStore, err := configFile.NewConfigStore(configDirFlag)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settings = configFile.LoadSettings(configStore)

	dataDir := settings.DataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".vaultscout", "data")
	}

	a := &app{}

	a.store, err = sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}

	a.engine, err = keywordBleve.NewEngine(filepath.Join(dataDir, "keyword.bleve"))
	if err != nil {
		return fmt.Errorf("open keyword index: %w", err)
	}

	a.embedder = buildEmbedder()
	a.llm = buildLLM()
	a.embedCache, a.resultCache = buildCaches()

	vectorIndex, err := buildVectorIndex(a)
	if err != nil {
		return err
	}

	search := services.NewSearchService(a.store, a.engine, vectorIndex, a.embedder,
		services.SearchConfig{
			HybridVectorWeight:  settings.HybridVectorWeight,
			HybridKeywordWeight: settings.HybridKeywordWeight,
			FuzzyDistance:       settings.FuzzyDistance,
		})
	search.SetEmbeddingCache(a.embedCache)
	search.SetResultCache(a.resultCache)

	expansion := services.NewExpansionService(a.llm)
	search.SetExpander(expansion)

	if settings.Rerank.Endpoint != "" {
		a.reranker = rerankTEI.NewCrossEncoder(rerankTEI.Config{
			BaseURL: settings.Rerank.Endpoint,
			Model:   settings.Rerank.Model,
		})
		search.SetReranker(services.NewRerankService(a.reranker, settings.Rerank))
	}

	if settings.VaultPath != "" {
		a.vault, err = obsidian.NewSource(settings.VaultPath)
		if err != nil {
			return err
		}
	}

	pipeline := []driven.PostProcessor{chunker.New(
		chunker.WithChunkSize(settings.ChunkSize),
		chunker.WithOverlap(settings.ChunkOverlap),
	)}

	indexer := services.NewIndexService(a.vault, a.store, a.engine, vectorIndex,
		a.embedder, pipeline, settings.IndexWorkers)
	indexer.SetResultCache(a.resultCache)

	searchService = search
	indexOrchestrator = indexer
	queryExpander = expansion
	notesStore = a.store
	cacheAdmin = services.NewCacheAdminService(a.embedCache, a.resultCache)
	closeServices = a.close

	return nil
}

// buildEmbedder constructs the configured embedding provider wrapped in
// retry and rate limiting. A misconfigured provider degrades to nil so
// keyword search still works.
func buildEmbedder() driven.EmbeddingService {
	var inner driven.EmbeddingService

	switch settings.Embedding.Provider {
	case domain.AIProviderOllama:
		inner = embedOllama.NewEmbeddingService(embedOllama.Config{
			BaseURL:    settings.Embedding.BaseURL,
			Model:      settings.Embedding.Model,
			Dimensions: settings.Embedding.Dimensions,
		})
	case domain.AIProviderOpenAI:
		svc, err := embedOpenAI.NewEmbeddingService(embedOpenAI.Config{
			APIKey:     settings.Embedding.APIKey,
			BaseURL:    settings.Embedding.BaseURL,
			Model:      settings.Embedding.Model,
			Dimensions: settings.Embedding.Dimensions,
		})
		if err != nil {
			logger.Warn("embedding disabled: %v", err)
			return nil
		}
		inner = svc
	default:
		logger.Warn("embedding disabled: unknown provider %q", settings.Embedding.Provider)
		return nil
	}

	return resilience.NewEmbedder(inner, resilience.Config{})
}

// buildLLM constructs the configured LLM provider, or nil when
// unconfigured. Expansion falls back to rules without it.
func buildLLM() driven.LLMService {
	switch settings.LLM.Provider {
	case domain.AIProviderOllama:
		return llmOllama.NewLLMService(llmOllama.Config{
			BaseURL: settings.LLM.BaseURL,
			Model:   settings.LLM.Model,
		})
	case domain.AIProviderGemini:
		svc, err := llmGemini.NewLLMService(llmGemini.Config{
			APIKey: settings.LLM.APIKey,
			Model:  settings.LLM.Model,
		})
		if err != nil {
			logger.Warn("LLM disabled: %v", err)
			return nil
		}
		return svc
	default:
		return nil
	}
}

// buildCaches constructs the embedding and result caches. The embedding
// cache goes to Redis when an address is configured.
func buildCaches() (driven.EmbeddingCache, driven.ResultCache) {
	var embedCache driven.EmbeddingCache
	if settings.Cache.RedisAddr != "" {
		embedCache = cacheRedis.NewEmbeddingCache(settings.Cache.RedisAddr, settings.Cache.EmbeddingTTL)
	} else {
		embedCache = cacheMemory.NewEmbeddingCache(settings.Cache.EmbeddingCapacity, settings.Cache.EmbeddingTTL)
	}

	resultCache := cacheMemory.NewResultCache(settings.Cache.ResultCapacity, settings.Cache.ResultTTL)
	return embedCache, resultCache
}

// buildVectorIndex constructs the configured vector backend. The memory
// backend is rebuilt from stored chunk embeddings at startup.
func buildVectorIndex(a *app) (driven.VectorIndex, error) {
	switch settings.VectorBackend {
	case domain.VectorBackendChroma:
		return vectorChroma.NewVectorIndex(vectorChroma.Config{
			BaseURL:    settings.ChromaURL,
			Collection: settings.ChromaCollection,
		}), nil

	case domain.VectorBackendMemory, "":
		index := vectorMemory.NewVectorIndex(settings.Embedding.Dimensions)
		if err := rebuildVectorIndex(a.store, index); err != nil {
			return nil, fmt.Errorf("rebuild vector index: %w", err)
		}
		return index, nil

	default:
		return nil, fmt.Errorf("%w: unknown vector backend %q",
			domain.ErrInvalidInput, settings.VectorBackend)
	}
}

// rebuildVectorIndex loads stored chunk embeddings into a fresh
// in-memory index.
func rebuildVectorIndex(store driven.DocumentStore, index driven.VectorIndex) error {
	ctx := context.Background()

	docs, err := store.ListDocuments(ctx)
	if err != nil {
		return err
	}

	loaded := 0
	for _, doc := range docs {
		chunks, err := store.GetChunks(ctx, doc.ID)
		if err != nil {
			return err
		}
		for i := range chunks {
			if len(chunks[i].Embedding) == 0 {
				continue
			}
			if err := index.Upsert(ctx, chunks[i].ID, chunks[i].Embedding, chunks[i].Metadata); err != nil {
				return err
			}
			loaded++
		}
	}

	if loaded > 0 {
		logger.Info("vector index: loaded %d chunk embeddings", loaded)
	}
	return nil
}

// close releases adapter resources in reverse dependency order.
func (a *app) close() {
	if a.vault != nil {
		a.vault.Close() //nolint:errcheck
	}
	if a.reranker != nil {
		a.reranker.Close() //nolint:errcheck
	}
	if a.llm != nil {
		a.llm.Close() //nolint:errcheck
	}
	if a.embedder != nil {
		a.embedder.Close() //nolint:errcheck
	}
	if closer, ok := a.embedCache.(interface{ Close() error }); ok {
		closer.Close() //nolint:errcheck
	}
	if a.engine != nil {
		a.engine.Close() //nolint:errcheck
	}
	if a.store != nil {
		a.store.Close() //nolint:errcheck
	}
}
