package openaiEmbedding

import (
	"context"
	"fmt"
	"net/http"

	"github.com/akolanti/GoPDFChat/internal/config"
	"github.com/akolanti/GoPDFChat/internal/rag/embedding"
	"github.com/akolanti/GoPDFChat/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// client talks to a locally run, OpenAI compatible embedding server
// (ollama, text-embeddings-inference, llama.cpp). It is batch capable and has
// no rate limit, so documents go out in batches without pacing.
type client struct {
	api       openai.Client
	model     string
	dimension int
	batchSize int
	logger    *logger_i.Logger
}

type Options struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimension  int
	BatchSize  int
	HTTPClient *http.Client
}

func NewLocalEmbeddingClient(opts Options) embedding.Embedder {
	requestOptions := []option.RequestOption{
		option.WithBaseURL(opts.BaseURL),
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.HTTPClient != nil {
		requestOptions = append(requestOptions, option.WithHTTPClient(opts.HTTPClient))
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = config.LocalEmbeddingBatchSize
	}

	logger := logger_i.NewLogger("local_embedding")
	logger.Info("Local embedding client created", "baseURL", opts.BaseURL, "model", opts.Model)

	return &client{
		api:       openai.NewClient(requestOptions...),
		model:     opts.Model,
		dimension: opts.Dimension,
		batchSize: opts.BatchSize,
		logger:    logger,
	}
}

func (c *client) Tag() string {
	return embedding.Tag(config.EmbeddingProviderLocal, c.model, c.dimension)
}

func (c *client) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.embedBatch(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	log := c.logger.FromContext(ctx)
	out := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += c.batchSize {
		end := min(i+c.batchSize, len(texts))
		log.Debug("Embedding batch", "from", i, "to", end)

		vectors, err := c.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d: %w", i, end, err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (c *client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	res, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		c.logger.FromContext(ctx).Error("Error getting Embeddings from local server", "error", err)
		return nil, err
	}
	if len(res.Data) != len(texts) {
		return nil, fmt.Errorf("embedding server returned %d vectors for %d inputs", len(res.Data), len(texts))
	}

	// the server may answer out of order; Index is authoritative
	vectors := make([][]float32, len(texts))
	for _, d := range res.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) {
			return nil, fmt.Errorf("embedding server returned out of range index %d", d.Index)
		}
		if vectors[d.Index] != nil {
			return nil, fmt.Errorf("embedding server returned index %d twice", d.Index)
		}
		vectors[d.Index] = embedding.Normalize(embedding.Float64To32(d.Embedding))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("embedding server returned no vector for input %d", i)
		}
	}
	return vectors, nil
}
