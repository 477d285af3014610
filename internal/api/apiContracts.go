package api

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

type UploadResponse struct {
	Message    string `json:"message" example:"File uploaded and processed successfully."`
	Filename   string `json:"filename" example:"handbook.pdf"`
	DocumentID string `json:"document_id" example:"6f1c2f0e-8d4b-4c39-9a53-3c0f3f1e2b7a"`
}

type ChatResponse struct {
	Question   string `json:"question" example:"What is the notice period?"`
	Answer     string `json:"answer" example:"The notice period is four weeks."`
	DocumentID string `json:"document_id" example:"6f1c2f0e-8d4b-4c39-9a53-3c0f3f1e2b7a"`
}

type ErrorResponse struct {
	Detail  string `json:"detail" example:"Invalid file type. Only PDFs are allowed."`
	Code    int    `json:"code" example:"400"`
	TraceID string `json:"trace_id,omitempty" example:"0b6f8f5e-1a7e-4f0d-8a0e-2b1d1c9f7e3a"`
}

// requests---------------------

type ChatRequest struct {
	DocumentID string `json:"document_id" validate:"required" example:"6f1c2f0e-8d4b-4c39-9a53-3c0f3f1e2b7a"`
	Question   string `json:"question" validate:"required" example:"What is the notice period?"`
}
