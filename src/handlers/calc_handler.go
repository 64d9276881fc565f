package handlers

import (
	"net/http"

	"github.com/username/compartmentdesk/backend/src/services"
)

type CalcHandler struct {
	service services.BuySellService
}

func NewCalcHandler(service services.BuySellService) *CalcHandler {
	return &CalcHandler{service: service}
}

// HandleEconomics derives the economics of one trade from terms and history in
// the request body. Nothing is read from or written to storage.
func (h *CalcHandler) HandleEconomics(w http.ResponseWriter, r *http.Request) {
	var req services.CalcRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	econ, err := h.service.Calculate(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, err, "calculate economics")
		return
	}
	sendJSON(w, r, http.StatusOK, econ)
}
