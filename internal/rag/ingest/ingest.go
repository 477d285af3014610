package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/GoPDFChat/internal/adapter/utils"
	"github.com/akolanti/GoPDFChat/internal/config"
	"github.com/akolanti/GoPDFChat/internal/domain/commonModels"
	"github.com/akolanti/GoPDFChat/internal/domain/ragErrors"
	"github.com/akolanti/GoPDFChat/internal/metrics"
	"github.com/akolanti/GoPDFChat/internal/rag/embedding"
	"github.com/akolanti/GoPDFChat/internal/rag/vectorDB"
	"github.com/akolanti/GoPDFChat/pkg/logger_i"
)

const (
	StepExtract = "extract"
	StepEmbed   = "embed"
	StepStore   = "store"
)

const (
	msgInvalidFileType = "Invalid file type. Only PDFs are allowed."
	msgEmptyFile       = "Uploaded file is empty or could not be read."
)

// Pipeline turns an uploaded PDF into stored chunk records. It is the only
// writer of the document store.
type Pipeline struct {
	embedder    embedding.Embedder
	store       vectorDB.DocumentStore
	splitter    *splitter
	pageTimeout time.Duration
	tempDir     string
	logger      *logger_i.Logger
}

func NewPipeline(embedder embedding.Embedder, store vectorDB.DocumentStore) *Pipeline {
	return &Pipeline{
		embedder:    embedder,
		store:       store,
		splitter:    newSplitter(config.ChunkSize, config.ChunkOverlap),
		pageTimeout: config.PageExtractTimeout,
		logger:      logger_i.NewLogger("Document Ingestion"),
	}
}

// Ingest returns the id of the new document. Failures are
// *ragErrors.ValidationError, *ragErrors.EmptyInputError or
// *ragErrors.IngestionError.
func (p *Pipeline) Ingest(ctx context.Context, upload commonModels.Upload) (string, error) {
	log := p.logger.FromContext(ctx).With("filename", upload.FileName, "userId", upload.UserID)

	if !strings.HasSuffix(strings.ToLower(upload.FileName), ".pdf") {
		return "", &ragErrors.ValidationError{Message: msgInvalidFileType}
	}
	if len(upload.Content) == 0 {
		return "", &ragErrors.ValidationError{Message: msgEmptyFile}
	}

	pages, err := p.extract(ctx, log, upload.Content)
	if err != nil {
		log.Error("Error extracting document content", "error", err)
		return "", &ragErrors.IngestionError{Step: StepExtract, Err: err}
	}

	documentID := utils.GetNewUUID()
	records := p.prepareChunks(pages, upload, documentID)
	if len(records) == 0 {
		log.Warn("Document has no extractable text")
		return "", &ragErrors.EmptyInputError{FileName: upload.FileName}
	}
	log.Debug("Processing document", "pages", len(pages), "chunks", len(records), "documentId", documentID)

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}

	start := time.Now()
	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	metrics.CaptureExecutionMetrics("embed_documents", time.Since(start))
	if err != nil {
		log.Error("Error embedding chunks", "error", err)
		return "", &ragErrors.IngestionError{Step: StepEmbed, Err: err}
	}
	if len(vectors) != len(records) {
		err = fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(records))
		log.Error("Error embedding chunks", "error", err)
		return "", &ragErrors.IngestionError{Step: StepEmbed, Err: err}
	}
	for i := range records {
		records[i].Embedding = vectors[i]
	}

	start = time.Now()
	err = p.store.InsertMany(ctx, records)
	metrics.CaptureExecutionMetrics("store_insert", time.Since(start))
	if err != nil {
		log.Error("Error writing chunks", "error", err)
		return "", &ragErrors.IngestionError{Step: StepStore, Err: err}
	}

	metrics.AddIngestedChunks(len(records))
	log.Info("Document ingested", "documentId", documentID, "chunks", len(records))
	return documentID, nil
}

func (p *Pipeline) extract(ctx context.Context, log *logger_i.Logger, content []byte) ([]rawPage, error) {
	path, cleanup, err := writeTemp(log, p.tempDir, content)
	defer cleanup()
	if err != nil {
		return nil, err
	}
	return extractPDF(ctx, log, path, p.pageTimeout)
}

// prepareChunks splits every page on its own so a chunk never spans pages.
func (p *Pipeline) prepareChunks(pages []rawPage, upload commonModels.Upload, documentID string) []commonModels.ChunkRecord {
	var records []commonModels.ChunkRecord
	tag := p.embedder.Tag()

	for _, page := range pages {
		for i, text := range p.splitter.Split(page.Content) {
			records = append(records, commonModels.ChunkRecord{
				Text: text,
				Metadata: commonModels.Metadata{
					commonModels.MetaUserID:            upload.UserID,
					commonModels.MetaDocumentID:        documentID,
					commonModels.MetaSource:            upload.FileName,
					commonModels.MetaPage:              page.Number,
					commonModels.MetaChunkIndex:        i,
					commonModels.MetaEmbeddingProvider: tag,
				},
			})
		}
	}
	return records
}
