package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/GoPDFChat/internal/domain/commonModels"
	"github.com/akolanti/GoPDFChat/internal/domain/ragErrors"
	"github.com/akolanti/GoPDFChat/internal/metrics"
	"github.com/akolanti/GoPDFChat/internal/rag/llm"
	"github.com/akolanti/GoPDFChat/pkg/logger_i"
)

// NoContextSentinel replaces the context block when retrieval found nothing,
// so the model is never sent an empty context.
const NoContextSentinel = "No relevant context was found in the document."

const promptTemplate = `You are a helpful assistant that answers questions based on the following context.
Context: %s
Question: %s
Answer:`

type Generator struct {
	provider llm.Provider
	logger   *logger_i.Logger
}

func NewGenerator(provider llm.Provider) *Generator {
	return &Generator{
		provider: provider,
		logger:   logger_i.NewLogger("AnswerGenerator"),
	}
}

// Generate builds the prompt and returns the model output unmodified.
// Any model failure comes back as *ragErrors.AnswerGenerationError.
func (g *Generator) Generate(ctx context.Context, question string, chunks []commonModels.ScoredChunk) (string, error) {
	log := g.logger.FromContext(ctx)
	prompt := BuildPrompt(question, chunks)
	log.Debug("Prompt assembled", "chunks", len(chunks), "promptLength", len(prompt))

	start := time.Now()
	out, err := g.provider.Complete(ctx, prompt)
	metrics.CaptureExecutionMetrics("llm_generation", time.Since(start))
	if err != nil {
		log.Error("LLM_GENERATION_FAILURE", "error", err)
		return "", &ragErrors.AnswerGenerationError{Err: err}
	}
	return out, nil
}

func BuildPrompt(question string, chunks []commonModels.ScoredChunk) string {
	return fmt.Sprintf(promptTemplate, FormatContext(chunks), question)
}

func FormatContext(chunks []commonModels.ScoredChunk) string {
	if len(chunks) == 0 {
		return NoContextSentinel
	}

	blocks := make([]string, 0, len(chunks))
	for i, c := range chunks {
		label := fmt.Sprintf("Chunk %d", i+1)
		if c.Score != nil {
			label = fmt.Sprintf("%s (similarity score: %.4f)", label, *c.Score)
		}
		blocks = append(blocks, label+":\n"+c.Record.Text)
	}
	return strings.Join(blocks, "\n\n")
}
