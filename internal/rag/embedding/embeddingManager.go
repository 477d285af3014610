package embedding

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Embedder is the capability both the hosted and the local providers offer.
// Vectors coming out of an Embedder are unit length, so a dot product is a
// cosine similarity.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// Tag identifies provider, model and dimension. It is stored next to every
	// vector so vectors of different providers are never compared.
	Tag() string
}

func Tag(provider string, model string, dimension int) string {
	return fmt.Sprintf("%s:%s:%d", provider, model, dimension)
}

// Paced embeds texts one call at a time and waits delay after every call.
// This is the throughput throttle for rate limited hosted APIs, not a retry.
func Paced(ctx context.Context, texts []string, delay time.Duration, embedOne func(ctx context.Context, text string) ([]float32, error)) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vec, err := embedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		out = append(out, vec)

		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return out, nil
}

// Normalize scales vec to unit length. A zero vector is returned unchanged.
func Normalize(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}

func Float64To32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
