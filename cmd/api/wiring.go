package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/akolanti/GoPDFChat/internal/config"
	"github.com/akolanti/GoPDFChat/internal/data/redisStore"
	"github.com/akolanti/GoPDFChat/internal/data/store"
	"github.com/akolanti/GoPDFChat/internal/rag/embedding"
	"github.com/akolanti/GoPDFChat/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/GoPDFChat/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/GoPDFChat/internal/rag/llm"
	"github.com/akolanti/GoPDFChat/internal/rag/llm/gemini"
	"github.com/akolanti/GoPDFChat/internal/rag/llm/openaiLLM"
	"github.com/akolanti/GoPDFChat/internal/rag/vectorDB"
	"github.com/akolanti/GoPDFChat/internal/rag/vectorDB/pgvectorDB"
	"github.com/akolanti/GoPDFChat/internal/rag/vectorDB/qdrantDB"
)

func newEmbedder(ctx context.Context, s config.EmbeddingSettings, httpClient *http.Client) (embedding.Embedder, error) {
	switch s.Provider {
	case config.EmbeddingProviderLocal:
		return openaiEmbedding.NewLocalEmbeddingClient(openaiEmbedding.Options{
			BaseURL:    s.BaseURL,
			APIKey:     s.APIKey,
			Model:      s.Model,
			Dimension:  s.Dimension,
			BatchSize:  config.LocalEmbeddingBatchSize,
			HTTPClient: httpClient,
		}), nil
	case config.EmbeddingProviderGemini:
		return googleEmbedding.NewGoogleEmbeddingClient(ctx, googleEmbedding.Options{
			APIKey:     s.APIKey,
			Model:      s.Model,
			Dimension:  s.Dimension,
			CallDelay:  s.CallDelay,
			HTTPClient: httpClient,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", s.Provider)
	}
}

func newLLMProvider(ctx context.Context, s config.LLMSettings, httpClient *http.Client) (llm.Provider, error) {
	switch s.Provider {
	case config.LLMProviderOpenAI:
		return openaiLLM.NewOpenAIClient(s.APIKey, s.BaseURL, s.Model, httpClient), nil
	case config.LLMProviderGemini:
		return gemini.NewGeminiClient(ctx, s.APIKey, s.Model, httpClient)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", s.Provider)
	}
}

func newDocumentStore(ctx context.Context, s config.StoreSettings, dimension int) (vectorDB.DocumentStore, error) {
	switch s.Backend {
	case config.StoreBackendQdrant:
		return qdrantDB.NewStore(ctx, qdrantDB.Options{
			ConnectionString: s.ConnectionString,
			APIKey:           s.QdrantAPIKey,
			UseTLS:           s.QdrantUseTLS,
			Collection:       s.Collection,
			Dimension:        dimension,
		})
	case config.StoreBackendPostgres:
		return pgvectorDB.NewStore(ctx, s.ConnectionString, s.Collection)
	case config.StoreBackendRedis:
		client, err := redisStore.NewStore(ctx, s.ConnectionString)
		if err != nil {
			return nil, err
		}
		return store.NewRedisChunkStore(client), nil
	case config.StoreBackendMemory:
		return store.NewInMemoryChunkStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", s.Backend)
	}
}

func closersOf(documents vectorDB.DocumentStore) []io.Closer {
	if c, ok := documents.(io.Closer); ok {
		return []io.Closer{c}
	}
	return nil
}
