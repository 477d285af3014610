package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_BACKEND", "qdrant")
	t.Setenv("STORE_CONNECTION_STRING", "localhost:6334")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_JWT_SECRET", "jwt-secret")
}

func TestSettingsFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	s, err := settingsFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ServerListenAddr, s.ListenAddr)
	assert.Equal(t, DefaultCollection, s.Store.Collection)
	assert.Equal(t, EmbeddingProviderGemini, s.Embedding.Provider)
	assert.Equal(t, GoogleEmbeddingModel, s.Embedding.Model)
	assert.Equal(t, GoogleEmbeddingDimension, s.Embedding.Dimension)
	assert.Equal(t, HostedEmbeddingCallDelay, s.Embedding.CallDelay)
	assert.Equal(t, GeminiModelName, s.LLM.Model)
	assert.Equal(t, "google-key", s.LLM.APIKey)
	assert.Equal(t, SupabaseDefaultAudience, s.Auth.Audience)
	assert.Equal(t, DefaultTopK, s.Retrieval.TopK)
	assert.Equal(t, DefaultCorsOrigins, s.CorsOrigins)
	assert.Equal(t, slog.LevelDebug, s.Log.Level)
}

func TestSettingsFromEnv_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"store connection string", "STORE_CONNECTION_STRING"},
		{"chat model key", "GOOGLE_API_KEY"},
		{"identity provider url", "SUPABASE_URL"},
		{"identity provider secret", "SUPABASE_JWT_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := settingsFromEnv()
			assert.Error(t, err)
		})
	}
}

func TestSettingsFromEnv_MemoryStoreNeedsNoConnectionString(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("STORE_CONNECTION_STRING", "")

	_, err := settingsFromEnv()
	assert.NoError(t, err)
}

func TestSettingsFromEnv_UnknownBackendRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORE_BACKEND", "mongo")

	_, err := settingsFromEnv()
	assert.Error(t, err)
}

func TestSettingsFromEnv_LocalEmbedderAndOpenAI(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMBEDDING_PROVIDER", "local")
	t.Setenv("EMBEDDING_CALL_DELAY", "250ms")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	s, err := settingsFromEnv()
	require.NoError(t, err)

	assert.Equal(t, LocalEmbeddingModel, s.Embedding.Model)
	assert.Equal(t, LocalEmbeddingDimension, s.Embedding.Dimension)
	assert.Equal(t, LocalEmbeddingBaseURL, s.Embedding.BaseURL)
	assert.Equal(t, 250*time.Millisecond, s.Embedding.CallDelay)
	assert.Equal(t, OpenAIModelName, s.LLM.Model)
	assert.Equal(t, "sk-test", s.LLM.APIKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.CorsOrigins)
}

func TestSettingsFromEnv_OpenAIWithoutKeyRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := settingsFromEnv()
	assert.Error(t, err)
}

func TestSettingsFromEnv_MalformedValuesRejected(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"RETRIEVAL_TOP_K", "abc"},
		{"LOG_LEVEL", "verbose"},
		{"RATE_LIMIT_ENABLED", "maybe"},
		{"EMBEDDING_CALL_DELAY", "soon"},
		{"EMBEDDING_DIMENSION", "768d"},
		{"QDRANT_USE_TLS", "yes please"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := settingsFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestSettingsFromEnv_ReportsEveryMalformedValue(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RETRIEVAL_TOP_K", "abc")
	t.Setenv("LOG_LEVEL", "verbose")

	_, err := settingsFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RETRIEVAL_TOP_K")
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestSettingsFromEnv_WellFormedTypedValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RETRIEVAL_TOP_K", "8")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("RATE_LIMIT_ENABLED", "true")

	s, err := settingsFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8, s.Retrieval.TopK)
	assert.Equal(t, slog.LevelWarn, s.Log.Level)
	assert.True(t, s.RateLimit)
}
