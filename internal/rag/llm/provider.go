package llm

import "context"

// Provider is the text completion capability of a hosted chat model.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
