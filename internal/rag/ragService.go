package rag

import (
	"context"
	"time"

	"github.com/akolanti/GoPDFChat/internal/domain/commonModels"
	"github.com/akolanti/GoPDFChat/internal/metrics"
	"github.com/akolanti/GoPDFChat/internal/rag/retrieval"
	"github.com/akolanti/GoPDFChat/pkg/logger_i"
)

// Service is the only thing handlers talk to. The store, the embedder and the
// chat model stay behind the private service struct.
type Service interface {
	IngestDocument(ctx context.Context, upload commonModels.Upload) (string, error)
	Chat(ctx context.Context, query commonModels.Query) (string, error)
}

type Ingester interface {
	Ingest(ctx context.Context, upload commonModels.Upload) (string, error)
}

type AnswerGenerator interface {
	Generate(ctx context.Context, question string, chunks []commonModels.ScoredChunk) (string, error)
}

type service struct {
	ingester  Ingester
	retriever retrieval.Retriever
	generator AnswerGenerator
	logger    *logger_i.Logger
}

func NewService(ingester Ingester, retriever retrieval.Retriever, generator AnswerGenerator) Service {
	return &service{
		ingester:  ingester,
		retriever: retriever,
		generator: generator,
		logger:    logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) IngestDocument(ctx context.Context, upload commonModels.Upload) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	return s.ingester.Ingest(ctx, upload)
}

// Chat answers a question about one of the caller's documents. Only a chat
// model failure is returned; retrieval problems degrade to an empty context.
func (s *service) Chat(ctx context.Context, query commonModels.Query) (string, error) {
	log := s.logger.FromContext(ctx).With("documentId", query.DocumentID)

	start := time.Now()
	// the retriever owns the configured top k
	chunks, err := s.retriever.Retrieve(ctx, query, 0)
	metrics.CaptureExecutionMetrics("retrieval", time.Since(start))
	if err != nil {
		log.Error("RETRIEVAL_FAILURE", "error", err)
		chunks = nil
	}
	log.Debug("Retrieved context", "chunks", len(chunks))

	return s.generator.Generate(ctx, query.Question, chunks)
}
