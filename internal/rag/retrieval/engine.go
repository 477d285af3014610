package retrieval

import (
	"context"
	"errors"

	"github.com/akolanti/GoPDFChat/internal/config"
	"github.com/akolanti/GoPDFChat/internal/domain/commonModels"
	"github.com/akolanti/GoPDFChat/internal/domain/ragErrors"
	"github.com/akolanti/GoPDFChat/internal/metrics"
	"github.com/akolanti/GoPDFChat/internal/rag/embedding"
	"github.com/akolanti/GoPDFChat/internal/rag/vectorDB"
	"github.com/akolanti/GoPDFChat/pkg/logger_i"
)

type Retriever interface {
	// Retrieve returns at most k chunks of the query's document, most relevant
	// first. k <= 0 selects the retriever's configured default.
	Retrieve(ctx context.Context, query commonModels.Query, k int) ([]commonModels.ScoredChunk, error)
}

type Options struct {
	// TopK is the k used when a caller passes none.
	TopK               int
	DiagnosticUserScan bool
}

// Engine reads the document store, ranks by similarity and falls back to
// substring search when ranking fails. It never returns an error.
type Engine struct {
	store    vectorDB.DocumentStore
	primary  Ranker
	fallback Ranker
	topK     int
	userScan bool
	logger   *logger_i.Logger
}

func NewEngine(store vectorDB.DocumentStore, embedder embedding.Embedder, opts Options) *Engine {
	return newEngine(store, NewSimilarityRanker(embedder), SubstringRanker{}, opts)
}

func newEngine(store vectorDB.DocumentStore, primary Ranker, fallback Ranker, opts Options) *Engine {
	topK := opts.TopK
	if topK <= 0 {
		topK = config.DefaultTopK
	}
	return &Engine{
		store:    store,
		primary:  primary,
		fallback: fallback,
		topK:     topK,
		userScan: opts.DiagnosticUserScan,
		logger:   logger_i.NewLogger("RetrievalEngine"),
	}
}

func (e *Engine) Retrieve(ctx context.Context, query commonModels.Query, k int) ([]commonModels.ScoredChunk, error) {
	if k <= 0 {
		k = e.topK
	}
	log := e.logger.FromContext(ctx).With("userId", query.UserID, "documentId", query.DocumentID, "k", k)

	if e.userScan {
		e.logUserScan(ctx, log, query.UserID)
	}

	candidates, err := e.store.Find(ctx, vectorDB.ByUserAndDocument(query.UserID, query.DocumentID))
	if err != nil {
		log.Error("RETRIEVAL_FAILURE", "error", &ragErrors.RetrievalError{Step: "fetch", Err: err})
		return []commonModels.ScoredChunk{}, nil
	}
	if len(candidates) == 0 {
		log.Info("No indexed content for document")
		return []commonModels.ScoredChunk{}, nil
	}

	ranked, err := e.primary.Rank(ctx, query.Question, candidates, k)
	if err == nil {
		log.Debug("Similarity ranking complete", "candidates", len(candidates), "returned", len(ranked))
		return ranked, nil
	}

	reason := "unknown"
	var retrievalErr *ragErrors.RetrievalError
	if errors.As(err, &retrievalErr) {
		reason = retrievalErr.Step
	}
	log.Warn("Similarity ranking failed, falling back to substring search", "error", err, "reason", reason)
	metrics.IncrementRetrievalFallback(reason)

	ranked, err = e.fallback.Rank(ctx, query.Question, candidates, k)
	if err != nil {
		log.Error("Fallback search failed", "error", err)
		return []commonModels.ScoredChunk{}, nil
	}
	if ranked == nil {
		ranked = []commonModels.ScoredChunk{}
	}
	return ranked, nil
}

// logUserScan is observability only; its errors are ignored.
func (e *Engine) logUserScan(ctx context.Context, log *logger_i.Logger, userID string) {
	n, err := e.store.Count(ctx, vectorDB.Filter{commonModels.MetaUserID: userID})
	if err != nil {
		log.Debug("User scan failed", "error", err)
		return
	}
	log.Debug("User scan", "recordsForUser", n)
}
