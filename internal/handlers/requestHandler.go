package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/akolanti/GoPDFChat/internal/adapter"
	"github.com/akolanti/GoPDFChat/internal/api"
	"github.com/akolanti/GoPDFChat/internal/config"
	"github.com/akolanti/GoPDFChat/internal/domain/commonModels"
	"github.com/akolanti/GoPDFChat/internal/rag"
	"github.com/akolanti/GoPDFChat/pkg/logger_i"
	"github.com/go-playground/validator/v10"
)

const uploadField = "file"

type RequestHandler struct {
	service  rag.Service
	validate *validator.Validate
	logger   *logger_i.Logger
}

func NewRequestHandler(service rag.Service) *RequestHandler {
	validate := validator.New()
	// report json names in validation errors
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		return name
	})
	return &RequestHandler{
		service:  service,
		validate: validate,
		logger:   logger_i.NewLogger("RequestHandler"),
	}
}

// HealthHandler godoc
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       / [get]
func (h *RequestHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, adapter.ToHealthResponse())
}

// UploadHandler godoc
// @Summary      Upload a PDF
// @Description  Extracts, chunks, embeds and stores the PDF for the caller. Returns the new document id.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "The PDF to index"
// @Success      200  {object}  api.UploadResponse
// @Failure      400  {object}  api.ErrorResponse  "Not a PDF, empty or unreadable"
// @Failure      401  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /upload [post]
func (h *RequestHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.logger.FromContext(ctx)
	if !validateContext(ctx, log) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		log.Warn("Bad upload request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, TraceID(ctx), "File too large or bad request")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	fileReader, fileMetadata, err := r.FormFile(uploadField)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, TraceID(ctx), "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	content, err := io.ReadAll(fileReader)
	if err != nil {
		log.Warn("Could not read upload", "error", err)
		content = nil
	}

	upload := commonModels.Upload{
		FileName: fileMetadata.Filename,
		Content:  content,
		UserID:   UserID(ctx),
	}
	documentID, err := h.service.IngestDocument(ctx, upload)
	if err != nil {
		writeServiceError(ctx, w, log, err, msgUploadFailure)
		return
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToUploadResponse(upload.FileName, documentID))
}

// ChatHandler godoc
// @Summary      Ask a question about an uploaded document
// @Description  Retrieves the most relevant chunks of the caller's document and answers with the chat model.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      api.ChatRequest   true  "Document id and question"
// @Success      200      {object}  api.ChatResponse
// @Failure      400      {object}  api.ErrorResponse  "Malformed body or missing fields"
// @Failure      401      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /chat [post]
func (h *RequestHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.logger.FromContext(ctx)
	if !validateContext(ctx, log) {
		return
	}

	var requestData api.ChatRequest
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Error("Couldn't close the Chat handler reader", "error", err)
		}
	}(r.Body)

	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		log.Warn("Bad Chat Request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, TraceID(ctx), msgBadRequest)
		return
	}
	if err := h.validate.Struct(requestData); err != nil {
		var fieldErrs validator.ValidationErrors
		detail := msgBadRequest
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			detail = "Missing or invalid field: " + fieldErrs[0].Field()
		}
		log.Warn("Bad Chat Request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, TraceID(ctx), detail)
		return
	}

	query := adapter.ToQuery(UserID(ctx), requestData)
	answer, err := h.service.Chat(ctx, query)
	if err != nil {
		writeServiceError(ctx, w, log, err, msgChatFailure)
		return
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToChatResponse(query, answer))
}
