package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/akolanti/GoPDFChat/internal/config"
	"github.com/akolanti/GoPDFChat/internal/rag/embedding"
	"github.com/akolanti/GoPDFChat/pkg/logger_i"
	"google.golang.org/genai"
)

// client is the hosted embedder. The API is rate limited, so documents are
// embedded one call per chunk with a fixed delay after each call.
type client struct {
	genAi     *genai.Client
	model     string
	dimension int32
	delay     time.Duration
	logger    *logger_i.Logger
}

type Options struct {
	APIKey     string
	Model      string
	Dimension  int
	CallDelay  time.Duration
	HTTPClient *http.Client
}

func NewGoogleEmbeddingClient(ctx context.Context, opts Options) (embedding.Embedder, error) {
	logger := logger_i.NewLogger("google_embedding")

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		logger.Error("Error creating Google Embedding client", "error", err)
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	logger.Info("Google Embedding client created", "model", opts.Model, "dimension", opts.Dimension, "callDelay", opts.CallDelay)
	return &client{
		genAi:     c,
		model:     opts.Model,
		dimension: int32(opts.Dimension),
		delay:     opts.CallDelay,
		logger:    logger,
	}, nil
}

func (c *client) Tag() string {
	return embedding.Tag(config.EmbeddingProviderGemini, c.model, int(c.dimension))
}

func (c *client) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return c.embedOne(ctx, query, config.EmbeddingTaskTypeQuery)
}

func (c *client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	log := c.logger.FromContext(ctx)
	log.Debug("Embedding documents one call per chunk", "chunks", len(texts), "delay", c.delay)

	return embedding.Paced(ctx, texts, c.delay, func(ctx context.Context, text string) ([]float32, error) {
		return c.embedOne(ctx, text, config.EmbeddingTaskTypeDocument)
	})
}

func (c *client) embedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	log := c.logger.FromContext(ctx)

	result, err := c.genAi.Models.EmbedContent(ctx, c.model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &c.dimension,
		TaskType:             taskType,
	})
	if err != nil {
		log.Error("Error getting Embeddings from Google", "error", err, "taskType", taskType)
		return nil, err
	}
	if result == nil || len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, errors.New("google embedding returned no vectors")
	}
	return embedding.Normalize(result.Embeddings[0].Values), nil
}
