package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/username/compartmentdesk/backend/src/logger"
	"github.com/username/compartmentdesk/backend/src/models"
	"github.com/username/compartmentdesk/backend/src/security/validation"
	"github.com/username/compartmentdesk/backend/src/services"
)

type IsinHandler struct {
	service services.BuySellService
}

func NewIsinHandler(service services.BuySellService) *IsinHandler {
	return &IsinHandler{service: service}
}

func (h *IsinHandler) HandleListIsins(w http.ResponseWriter, r *http.Request) {
	isins, err := h.service.ListIsins(r.Context())
	if err != nil {
		sendServiceError(w, r, err, "list ISINs")
		return
	}
	sendJSON(w, r, http.StatusOK, isins)
}

func (h *IsinHandler) HandleCreateIsin(w http.ResponseWriter, r *http.Request) {
	var req models.Isin
	if !decodeJSON(w, r, &req) {
		return
	}
	logger.FromContext(r.Context()).Info("Handling CreateIsin", "isin", req.IsinNumber)

	isin, err := h.service.CreateIsin(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, err, "create ISIN")
		return
	}
	sendJSON(w, r, http.StatusCreated, isin)
}

func (h *IsinHandler) HandleGetIsin(w http.ResponseWriter, r *http.Request) {
	isin, err := h.service.LoadIsinData(r.Context(), chi.URLParam(r, "isinID"))
	if err != nil {
		sendServiceError(w, r, err, "load ISIN")
		return
	}
	sendJSON(w, r, http.StatusOK, isin)
}

// IsinCheckResponse backs the ISIN input field: the check digit is completed
// for 11 character input and the result is rendered in display groups.
type IsinCheckResponse struct {
	Input     string `json:"input"`
	Completed string `json:"completed"`
	Formatted string `json:"formatted"`
	Valid     bool   `json:"valid"`
	Error     string `json:"error,omitempty"`
}

func (h *IsinHandler) HandleCheckIsin(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("value")
	completed := validation.AutoCompleteISIN(input)

	resp := IsinCheckResponse{
		Input:     input,
		Completed: completed,
		Formatted: validation.FormatISIN(completed),
	}
	if _, err := validation.ValidateISIN(completed); err != nil {
		resp.Error = err.Error()
	} else {
		resp.Valid = true
	}
	sendJSON(w, r, http.StatusOK, resp)
}
