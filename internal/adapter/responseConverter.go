package adapter

import (
	"github.com/akolanti/GoPDFChat/internal/api"
	"github.com/akolanti/GoPDFChat/internal/domain/commonModels"
)

const uploadSuccessMessage = "File uploaded and processed successfully."

func ToHealthResponse() api.HealthResponse {
	return api.HealthResponse{Status: "ok"}
}

func ToUploadResponse(filename string, documentID string) api.UploadResponse {
	return api.UploadResponse{
		Message:    uploadSuccessMessage,
		Filename:   filename,
		DocumentID: documentID,
	}
}

func ToQuery(userID string, req api.ChatRequest) commonModels.Query {
	return commonModels.Query{
		UserID:     userID,
		DocumentID: req.DocumentID,
		Question:   req.Question,
	}
}

func ToChatResponse(query commonModels.Query, answer string) api.ChatResponse {
	return api.ChatResponse{
		Question:   query.Question,
		Answer:     answer,
		DocumentID: query.DocumentID,
	}
}

func BadRequest(traceID string, detail string, code int) api.ErrorResponse {
	return api.ErrorResponse{
		Detail:  detail,
		Code:    code,
		TraceID: traceID,
	}
}
