package domain

import "time"

// AIProvider identifies an external service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API (or a compatible endpoint).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGemini is the Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// VectorBackend identifies where chunk vectors are stored and searched.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendMemory is the in-process exact cosine index, rebuilt
	// from the document store at startup.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendChroma is an external ChromaDB server.
	VectorBackendChroma VectorBackend = "chroma"
)

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// Dimensions is the embedding vector size, fixed per collection.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RerankSettings holds cross-encoder re-ranking configuration.
type RerankSettings struct {
	// Endpoint is the reranker API base URL. Empty disables re-ranking.
	Endpoint string

	// Model is the cross-encoder model name.
	Model string

	// Candidates is how many top candidates to score (K). K should
	// exceed the result limit N so re-ranking has room to reorder.
	Candidates int

	// SimilarityWeight is the blend weight for the retrieval similarity.
	SimilarityWeight float64

	// RerankWeight is the blend weight for the cross-encoder score.
	RerankWeight float64
}

// CacheSettings holds embedding and result cache configuration.
type CacheSettings struct {
	// EmbeddingTTL is how long query embeddings stay valid.
	EmbeddingTTL time.Duration

	// EmbeddingCapacity is the maximum cached query embeddings.
	EmbeddingCapacity int

	// ResultTTL is how long hydrated result lists stay valid.
	ResultTTL time.Duration

	// ResultCapacity is the maximum cached result lists.
	ResultCapacity int

	// RedisAddr, when set, backs the embedding cache with Redis instead
	// of process memory.
	RedisAddr string
}

// Settings is the root application configuration.
type Settings struct {
	// VaultPath is the root of the notes vault to index.
	VaultPath string

	// DataDir is where the metadata database and indexes live.
	// Empty defaults to ~/.vaultscout/data.
	DataDir string

	// VectorBackend selects the vector store.
	VectorBackend VectorBackend

	// ChromaURL is the ChromaDB endpoint for the chroma backend.
	ChromaURL string

	// ChromaCollection is the ChromaDB collection name.
	ChromaCollection string

	// HybridVectorWeight and HybridKeywordWeight control the linear blend
	// in hybrid mode. They should sum to 1.
	HybridVectorWeight  float64
	HybridKeywordWeight float64

	// FuzzyDistance is the edit-distance threshold for fuzzy mode.
	FuzzyDistance int

	// IndexWorkers bounds the embedding worker pool during ingestion.
	IndexWorkers int

	// ChunkSize and ChunkOverlap configure the chunker, in words.
	ChunkSize    int
	ChunkOverlap int

	Embedding EmbeddingSettings
	LLM       LLMSettings
	Rerank    RerankSettings
	Cache     CacheSettings
}

// DefaultSettings returns the baseline configuration.
func DefaultSettings() Settings {
	return Settings{
		VectorBackend:       VectorBackendMemory,
		ChromaCollection:    "vaultscout",
		HybridVectorWeight:  0.7,
		HybridKeywordWeight: 0.3,
		FuzzyDistance:       2,
		IndexWorkers:        4,
		ChunkSize:           300,
		ChunkOverlap:        50,
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOllama,
			Model:      "all-minilm",
			Dimensions: 384,
		},
		Rerank: RerankSettings{
			Candidates:       20,
			SimilarityWeight: 0.3,
			RerankWeight:     0.7,
		},
		Cache: CacheSettings{
			EmbeddingTTL:      time.Hour,
			EmbeddingCapacity: 1000,
			ResultTTL:         5 * time.Minute,
			ResultCapacity:    256,
		},
	}
}
