// backend/src/handlers/upload_handler.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/username/compartmentdesk/backend/src/logger"
	"github.com/username/compartmentdesk/backend/src/security/validation"
	"github.com/username/compartmentdesk/backend/src/services"
)

type UploadHandler struct {
	service       services.BuySellService
	maxUploadSize int64
}

func NewUploadHandler(service services.BuySellService, maxUploadSize int64) *UploadHandler {
	return &UploadHandler{
		service:       service,
		maxUploadSize: maxUploadSize,
	}
}

// HandleImportTrades imports a trade blotter CSV sent as the "file" part.
func (h *UploadHandler) HandleImportTrades(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())
	isinID := chi.URLParam(r, "isinID")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1024)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		ctxLogger.Warn("Failed to parse multipart form or request too large", "isinID", isinID, "error", err, "limit", h.maxUploadSize)
		sendJSONError(w, fmt.Sprintf("Failed to read upload or file too large (max %d bytes)", h.maxUploadSize), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		ctxLogger.Warn("Failed to retrieve file from request", "isinID", isinID, "error", err)
		sendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > h.maxUploadSize {
		ctxLogger.Warn("Uploaded file too large", "isinID", isinID, "fileSize", fileHeader.Size, "limit", h.maxUploadSize)
		sendJSONError(w, fmt.Sprintf("File too large (max %d bytes)", h.maxUploadSize), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateCSVContent(file); err != nil {
		ctxLogger.Warn("Uploaded file content rejected", "isinID", isinID, "filename", fileHeader.Filename, "error", err)
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctxLogger.Info("Processing blotter upload", "isinID", isinID, "filename", fileHeader.Filename, "size", fileHeader.Size)
	result, err := h.service.ImportTrades(r.Context(), isinID, file)
	if err != nil {
		sendServiceError(w, r, err, "import trades")
		return
	}
	sendJSON(w, r, http.StatusOK, result)
}
