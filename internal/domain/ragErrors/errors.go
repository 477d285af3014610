package ragErrors

import "fmt"

// ValidationError is a client mistake: wrong file type, empty body, missing field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// EmptyInputError means the upload parsed but held no extractable text.
type EmptyInputError struct {
	FileName string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("no extractable text found in %q", e.FileName)
}

// IngestionError wraps any extraction, embedding or store failure during upload.
type IngestionError struct {
	Step string
	Err  error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed at %s: %v", e.Step, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// RetrievalError never leaves the retrieval engine; it is logged and converted
// into the substring fallback.
type RetrievalError struct {
	Step string
	Err  error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed at %s: %v", e.Step, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// AnswerGenerationError is the single opaque failure of the chat model call.
type AnswerGenerationError struct {
	Err error
}

func (e *AnswerGenerationError) Error() string {
	return fmt.Sprintf("answer generation failed: %v", e.Err)
}

func (e *AnswerGenerationError) Unwrap() error { return e.Err }
