package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultscout/vaultscout/internal/core/domain"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSetAndGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("vault.path", "/notes"))
	require.NoError(t, store.Set("index.workers", 8))
	require.NoError(t, store.Set("search.hybrid_vector_weight", 0.6))
	require.NoError(t, store.Set("verbose", true))

	assert.Equal(t, "/notes", store.GetString("vault.path"))
	assert.Equal(t, 8, store.GetInt("index.workers"))
	assert.InDelta(t, 0.6, store.GetFloat("search.hybrid_vector_weight"), 1e-9)
	assert.True(t, store.GetBool("verbose"))
}

func TestGetMissingKeys(t *testing.T) {
	store := newTestStore(t)

	_, ok := store.Get("nope")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("nope"))
	assert.Zero(t, store.GetInt("nope"))
	assert.Zero(t, store.GetFloat("nope"))
	assert.False(t, store.GetBool("nope"))
	assert.Nil(t, store.GetStringSlice("nope"))
}

func TestGetWrongType(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("key", "a string"))
	assert.Zero(t, store.GetInt("key"))
	assert.Zero(t, store.GetFloat("key"))
	assert.False(t, store.GetBool("key"))
}

func TestGetFloatWidensIntegers(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("candidates", int64(20)))
	assert.InDelta(t, 20.0, store.GetFloat("candidates"), 1e-9)
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("vault.path", "/notes"))
	require.NoError(t, store.Set("index.workers", 8))

	// A fresh store sees persisted values.
	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "/notes", reopened.GetString("vault.path"))
	assert.Equal(t, 8, reopened.GetInt("index.workers"))
}

func TestLoadFlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	content := "[embedding]\nmodel = \"all-minilm\"\ndimensions = 384\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "all-minilm", store.GetString("embedding.model"))
	assert.Equal(t, 384, store.GetInt("embedding.dimensions"))
}

func TestPath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestLoadSettingsDefaults(t *testing.T) {
	store := newTestStore(t)

	settings := LoadSettings(store)
	defaults := domain.DefaultSettings()

	assert.Equal(t, defaults.VectorBackend, settings.VectorBackend)
	assert.Equal(t, defaults.HybridVectorWeight, settings.HybridVectorWeight)
	assert.Equal(t, defaults.Embedding.Model, settings.Embedding.Model)
	assert.Equal(t, defaults.Cache.EmbeddingTTL, settings.Cache.EmbeddingTTL)
}

func TestLoadSettingsOverrides(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set(KeyVaultPath, "/notes"))
	require.NoError(t, store.Set(KeyVectorBackend, "chroma"))
	require.NoError(t, store.Set(KeyChromaURL, "http://localhost:8000"))
	require.NoError(t, store.Set(KeyHybridVectorWeight, 0.5))
	require.NoError(t, store.Set(KeyHybridKeywordWeight, 0.5))
	require.NoError(t, store.Set(KeyEmbeddingProvider, "openai"))
	require.NoError(t, store.Set(KeyEmbeddingModel, "text-embedding-3-small"))
	require.NoError(t, store.Set(KeyCacheEmbeddingTTL, 120))

	settings := LoadSettings(store)

	assert.Equal(t, "/notes", settings.VaultPath)
	assert.Equal(t, domain.VectorBackendChroma, settings.VectorBackend)
	assert.Equal(t, "http://localhost:8000", settings.ChromaURL)
	assert.InDelta(t, 0.5, settings.HybridVectorWeight, 1e-9)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
	assert.Equal(t, 2*time.Minute, settings.Cache.EmbeddingTTL)
}

func TestLoadSettingsEnvAPIKey(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set(KeyLLMProvider, "gemini"))
	t.Setenv("GEMINI_API_KEY", "test-key")

	settings := LoadSettings(store)
	assert.Equal(t, "test-key", settings.LLM.APIKey)
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	settings := domain.DefaultSettings()
	settings.VaultPath = "/notes"
	settings.IndexWorkers = 8
	settings.Rerank.Endpoint = "http://localhost:8080"

	require.NoError(t, SaveSettings(store, settings))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	loaded := LoadSettings(reopened)

	assert.Equal(t, "/notes", loaded.VaultPath)
	assert.Equal(t, 8, loaded.IndexWorkers)
	assert.Equal(t, "http://localhost:8080", loaded.Rerank.Endpoint)
	assert.Equal(t, settings.HybridVectorWeight, loaded.HybridVectorWeight)
	assert.Equal(t, settings.Cache.ResultTTL, loaded.Cache.ResultTTL)
}
