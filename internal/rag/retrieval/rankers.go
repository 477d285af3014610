package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/akolanti/GoPDFChat/internal/domain/commonModels"
	"github.com/akolanti/GoPDFChat/internal/domain/ragErrors"
	"github.com/akolanti/GoPDFChat/internal/metrics"
	"github.com/akolanti/GoPDFChat/internal/rag/embedding"
)

const (
	StepEmbedQuery = "embed_query"
	StepScore      = "score"
)

var (
	ErrProviderMismatch  = errors.New("stored vector was produced by a different embedding provider")
	ErrDimensionMismatch = errors.New("stored vector dimension differs from query vector")
)

// Ranker orders candidates for a question and keeps at most k of them.
type Ranker interface {
	Rank(ctx context.Context, question string, candidates []commonModels.ChunkRecord, k int) ([]commonModels.ScoredChunk, error)
}

// SimilarityRanker scores candidates by the dot product of the query vector and
// the stored vector. Both sides are unit length, so this is cosine similarity.
type SimilarityRanker struct {
	embedder embedding.Embedder
}

func NewSimilarityRanker(embedder embedding.Embedder) *SimilarityRanker {
	return &SimilarityRanker{embedder: embedder}
}

func (r *SimilarityRanker) Rank(ctx context.Context, question string, candidates []commonModels.ChunkRecord, k int) ([]commonModels.ScoredChunk, error) {
	start := time.Now()
	query, err := r.embedder.EmbedQuery(ctx, question)
	metrics.CaptureExecutionMetrics("embed_query", time.Since(start))
	if err != nil {
		return nil, &ragErrors.RetrievalError{Step: StepEmbedQuery, Err: err}
	}

	tag := r.embedder.Tag()
	scored := make([]commonModels.ScoredChunk, len(candidates))
	for i, c := range candidates {
		if stored := c.Metadata.EmbeddingProvider(); stored != "" && stored != tag {
			return nil, &ragErrors.RetrievalError{
				Step: StepScore,
				Err:  fmt.Errorf("%w: have %q, want %q", ErrProviderMismatch, stored, tag),
			}
		}
		if len(c.Embedding) != len(query) {
			return nil, &ragErrors.RetrievalError{
				Step: StepScore,
				Err:  fmt.Errorf("%w: have %d, want %d", ErrDimensionMismatch, len(c.Embedding), len(query)),
			}
		}
		score := Dot(query, c.Embedding)
		scored[i] = commonModels.ScoredChunk{Record: c, Score: &score}
	}

	// ties keep fetch order
	sort.SliceStable(scored, func(i, j int) bool {
		return *scored[i].Score > *scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// SubstringRanker keeps candidates whose text contains the question, ignoring
// case, in store order. It never fails.
type SubstringRanker struct{}

func (SubstringRanker) Rank(_ context.Context, question string, candidates []commonModels.ChunkRecord, k int) ([]commonModels.ScoredChunk, error) {
	needle := strings.ToLower(question)
	var out []commonModels.ScoredChunk
	for _, c := range candidates {
		if len(out) >= k {
			break
		}
		if strings.Contains(strings.ToLower(c.Text), needle) {
			out = append(out, commonModels.ScoredChunk{Record: c})
		}
	}
	return out, nil
}

// Dot assumes len(a) == len(b).
func Dot(a []float32, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
