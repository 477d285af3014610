package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/akolanti/GoPDFChat/internal/adapter"
	"github.com/akolanti/GoPDFChat/internal/config"
	"github.com/akolanti/GoPDFChat/internal/domain/ragErrors"
	"github.com/akolanti/GoPDFChat/pkg/logger_i"
)

const (
	msgChatFailure   = "An internal error occurred while processing your chat request."
	msgUploadFailure = "An internal error occurred while processing your upload."
	msgBadRequest    = "Bad Request"
	msgUnauthorized  = "Unauthorized"
)

var encodeLogger = logger_i.NewLogger("ResponseWriter")

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are gone, nothing left to tell the client
		encodeLogger.Error("Error encoding response", "error", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, traceID string, detail string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(traceID, detail, httpCode))
}

func WriteUnauthorized(w http.ResponseWriter, traceID string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	WriteErrorResponse(w, http.StatusUnauthorized, traceID, msgUnauthorized)
}

// writeServiceError maps a service failure onto a status and a client safe
// message. The full error is logged here and nowhere else.
func writeServiceError(ctx context.Context, w http.ResponseWriter, log *logger_i.Logger, err error, genericMessage string) {
	var validationErr *ragErrors.ValidationError
	var emptyErr *ragErrors.EmptyInputError

	switch {
	case errors.As(err, &validationErr):
		log.Warn("Rejected request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, TraceID(ctx), validationErr.Message)
	case errors.As(err, &emptyErr):
		log.Warn("Rejected request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, TraceID(ctx), "No extractable text found in the uploaded PDF.")
	default:
		log.Error("Request failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, TraceID(ctx), genericMessage)
	}
}

func TraceID(ctx context.Context) string {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}

func UserID(ctx context.Context) string {
	user, _ := ctx.Value(config.USER_ID_KEY).(string)
	return user
}

func validateContext(ctx context.Context, log *logger_i.Logger) bool {
	if ctx.Err() != nil {
		log.Warn("context error", "error", ctx.Err())
		return false
	}
	return true
}
