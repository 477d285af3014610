package rag_test

import (
	"context"
	"errors"

	"github.com/akolanti/GoPDFChat/internal/domain/commonModels"
)

// MockIngester implements rag.Ingester
type MockIngester struct {
	OnIngest func(ctx context.Context, upload commonModels.Upload) (string, error)
}

func (m *MockIngester) Ingest(ctx context.Context, upload commonModels.Upload) (string, error) {
	if m.OnIngest != nil {
		return m.OnIngest(ctx, upload)
	}
	return "doc-1", nil
}

// MockRetriever implements retrieval.Retriever
type MockRetriever struct {
	OnRetrieve func(ctx context.Context, query commonModels.Query, k int) ([]commonModels.ScoredChunk, error)
}

func (m *MockRetriever) Retrieve(ctx context.Context, query commonModels.Query, k int) ([]commonModels.ScoredChunk, error) {
	if m.OnRetrieve != nil {
		return m.OnRetrieve(ctx, query, k)
	}
	return []commonModels.ScoredChunk{{Record: commonModels.ChunkRecord{Text: "default context"}}}, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnComplete func(ctx context.Context, prompt string) (string, error)
}

func (m *MockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	if m.OnComplete != nil {
		return m.OnComplete(ctx, prompt)
	}
	return "mocked llm response", nil
}

// MockEmbedder implements embedding.Embedder with constant vectors
type MockEmbedder struct {
	OnEmbedQuery func(ctx context.Context, text string) ([]float32, error)
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if m.OnEmbedQuery != nil {
		return m.OnEmbedQuery(ctx, text)
	}
	return []float32{1, 0}, nil
}

func (m *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (m *MockEmbedder) Tag() string { return "mock:constant:2" }

var errProviderDown = errors.New("provider down")
