package file

import (
	"os"
	"time"

	"github.com/vaultscout/vaultscout/internal/core/domain"
	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
)

// Configuration keys. Dotted keys map to TOML tables, so
// "embedding.model" lives under [embedding] in the file.
const (
	KeyVaultPath        = "vault.path"
	KeyDataDir          = "data.dir"
	KeyVectorBackend    = "vector.backend"
	KeyChromaURL        = "vector.chroma_url"
	KeyChromaCollection = "vector.chroma_collection"

	KeyHybridVectorWeight  = "search.hybrid_vector_weight"
	KeyHybridKeywordWeight = "search.hybrid_keyword_weight"
	KeyFuzzyDistance       = "search.fuzzy_distance"

	KeyIndexWorkers = "index.workers"
	KeyChunkSize    = "index.chunk_size"
	KeyChunkOverlap = "index.chunk_overlap"

	KeyEmbeddingProvider   = "embedding.provider"
	KeyEmbeddingModel      = "embedding.model"
	KeyEmbeddingBaseURL    = "embedding.base_url"
	KeyEmbeddingAPIKey     = "embedding.api_key"
	KeyEmbeddingDimensions = "embedding.dimensions"

	KeyLLMProvider = "llm.provider"
	KeyLLMModel    = "llm.model"
	KeyLLMBaseURL  = "llm.base_url"
	KeyLLMAPIKey   = "llm.api_key"

	KeyRerankEndpoint         = "rerank.endpoint"
	KeyRerankModel            = "rerank.model"
	KeyRerankCandidates       = "rerank.candidates"
	KeyRerankSimilarityWeight = "rerank.similarity_weight"
	KeyRerankRerankWeight     = "rerank.rerank_weight"

	KeyCacheEmbeddingTTL      = "cache.embedding_ttl_seconds"
	KeyCacheEmbeddingCapacity = "cache.embedding_capacity"
	KeyCacheResultTTL         = "cache.result_ttl_seconds"
	KeyCacheResultCapacity    = "cache.result_capacity"
	KeyCacheRedisAddr         = "cache.redis_addr"
)

// LoadSettings builds application settings from a config store, layered
// over the defaults. API keys absent from the file fall back to
// environment variables so they can stay out of the config file.
func LoadSettings(store driven.ConfigStore) domain.Settings {
	settings := domain.DefaultSettings()

	setString(store, KeyVaultPath, &settings.VaultPath)
	setString(store, KeyDataDir, &settings.DataDir)
	setString(store, KeyChromaURL, &settings.ChromaURL)
	setString(store, KeyChromaCollection, &settings.ChromaCollection)

	if v := store.GetString(KeyVectorBackend); v != "" {
		settings.VectorBackend = domain.VectorBackend(v)
	}

	setFloat(store, KeyHybridVectorWeight, &settings.HybridVectorWeight)
	setFloat(store, KeyHybridKeywordWeight, &settings.HybridKeywordWeight)
	setInt(store, KeyFuzzyDistance, &settings.FuzzyDistance)
	setInt(store, KeyIndexWorkers, &settings.IndexWorkers)
	setInt(store, KeyChunkSize, &settings.ChunkSize)
	setInt(store, KeyChunkOverlap, &settings.ChunkOverlap)

	if v := store.GetString(KeyEmbeddingProvider); v != "" {
		settings.Embedding.Provider = domain.AIProvider(v)
	}
	setString(store, KeyEmbeddingModel, &settings.Embedding.Model)
	setString(store, KeyEmbeddingBaseURL, &settings.Embedding.BaseURL)
	setString(store, KeyEmbeddingAPIKey, &settings.Embedding.APIKey)
	setInt(store, KeyEmbeddingDimensions, &settings.Embedding.Dimensions)

	if v := store.GetString(KeyLLMProvider); v != "" {
		settings.LLM.Provider = domain.AIProvider(v)
	}
	setString(store, KeyLLMModel, &settings.LLM.Model)
	setString(store, KeyLLMBaseURL, &settings.LLM.BaseURL)
	setString(store, KeyLLMAPIKey, &settings.LLM.APIKey)

	setString(store, KeyRerankEndpoint, &settings.Rerank.Endpoint)
	setString(store, KeyRerankModel, &settings.Rerank.Model)
	setInt(store, KeyRerankCandidates, &settings.Rerank.Candidates)
	setFloat(store, KeyRerankSimilarityWeight, &settings.Rerank.SimilarityWeight)
	setFloat(store, KeyRerankRerankWeight, &settings.Rerank.RerankWeight)

	setSeconds(store, KeyCacheEmbeddingTTL, &settings.Cache.EmbeddingTTL)
	setInt(store, KeyCacheEmbeddingCapacity, &settings.Cache.EmbeddingCapacity)
	setSeconds(store, KeyCacheResultTTL, &settings.Cache.ResultTTL)
	setInt(store, KeyCacheResultCapacity, &settings.Cache.ResultCapacity)
	setString(store, KeyCacheRedisAddr, &settings.Cache.RedisAddr)

	applyEnvKeys(&settings)

	return settings
}

// SaveSettings persists the full settings tree to the config store.
func SaveSettings(store driven.ConfigStore, settings domain.Settings) error {
	values := map[string]any{
		KeyVaultPath:        settings.VaultPath,
		KeyDataDir:          settings.DataDir,
		KeyVectorBackend:    string(settings.VectorBackend),
		KeyChromaURL:        settings.ChromaURL,
		KeyChromaCollection: settings.ChromaCollection,

		KeyHybridVectorWeight:  settings.HybridVectorWeight,
		KeyHybridKeywordWeight: settings.HybridKeywordWeight,
		KeyFuzzyDistance:       settings.FuzzyDistance,

		KeyIndexWorkers: settings.IndexWorkers,
		KeyChunkSize:    settings.ChunkSize,
		KeyChunkOverlap: settings.ChunkOverlap,

		KeyEmbeddingProvider:   string(settings.Embedding.Provider),
		KeyEmbeddingModel:      settings.Embedding.Model,
		KeyEmbeddingBaseURL:    settings.Embedding.BaseURL,
		KeyEmbeddingAPIKey:     settings.Embedding.APIKey,
		KeyEmbeddingDimensions: settings.Embedding.Dimensions,

		KeyLLMProvider: string(settings.LLM.Provider),
		KeyLLMModel:    settings.LLM.Model,
		KeyLLMBaseURL:  settings.LLM.BaseURL,
		KeyLLMAPIKey:   settings.LLM.APIKey,

		KeyRerankEndpoint:         settings.Rerank.Endpoint,
		KeyRerankModel:            settings.Rerank.Model,
		KeyRerankCandidates:       settings.Rerank.Candidates,
		KeyRerankSimilarityWeight: settings.Rerank.SimilarityWeight,
		KeyRerankRerankWeight:     settings.Rerank.RerankWeight,

		KeyCacheEmbeddingTTL:      int(settings.Cache.EmbeddingTTL / time.Second),
		KeyCacheEmbeddingCapacity: settings.Cache.EmbeddingCapacity,
		KeyCacheResultTTL:         int(settings.Cache.ResultTTL / time.Second),
		KeyCacheResultCapacity:    settings.Cache.ResultCapacity,
		KeyCacheRedisAddr:         settings.Cache.RedisAddr,
	}

	for key, value := range values {
		if err := store.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// applyEnvKeys fills missing API keys from the environment.
func applyEnvKeys(settings *domain.Settings) {
	if settings.Embedding.APIKey == "" && settings.Embedding.Provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if settings.LLM.APIKey == "" {
		switch settings.LLM.Provider {
		case domain.AIProviderOpenAI:
			settings.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case domain.AIProviderGemini:
			settings.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	if settings.VaultPath == "" {
		settings.VaultPath = os.Getenv("VAULTSCOUT_VAULT")
	}
}

func setString(store driven.ConfigStore, key string, dst *string) {
	if v := store.GetString(key); v != "" {
		*dst = v
	}
}

func setInt(store driven.ConfigStore, key string, dst *int) {
	if _, ok := store.Get(key); ok {
		*dst = store.GetInt(key)
	}
}

func setFloat(store driven.ConfigStore, key string, dst *float64) {
	if _, ok := store.Get(key); ok {
		*dst = store.GetFloat(key)
	}
}

func setSeconds(store driven.ConfigStore, key string, dst *time.Duration) {
	if _, ok := store.Get(key); ok {
		*dst = time.Duration(store.GetInt(key)) * time.Second
	}
}
