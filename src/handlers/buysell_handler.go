// backend/src/handlers/buysell_handler.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/username/compartmentdesk/backend/src/logger"
	"github.com/username/compartmentdesk/backend/src/models"
	"github.com/username/compartmentdesk/backend/src/services"
)

type BuySellHandler struct {
	service services.BuySellService
}

func NewBuySellHandler(service services.BuySellService) *BuySellHandler {
	return &BuySellHandler{service: service}
}

// RecalculateRequest is sent when an input field of a trade row loses focus.
type RecalculateRequest struct {
	Transaction models.TradeTransaction `json:"transaction"`
	Field       string                  `json:"field"`
}

func (h *BuySellHandler) HandleGetBuySellView(w http.ResponseWriter, r *http.Request) {
	isinID := chi.URLParam(r, "isinID")
	view, err := h.service.GetBuySellView(r.Context(), isinID)
	if err != nil {
		sendServiceError(w, r, err, "load buy/sell data")
		return
	}
	if len(view.Warnings) > 0 {
		logger.FromContext(r.Context()).Warn("Buy/sell view served with warnings", "isinID", isinID, "warnings", view.Warnings)
	}
	sendJSON(w, r, http.StatusOK, view)
}

func (h *BuySellHandler) HandleGetCouponDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.service.CouponSchedule(r.Context(), chi.URLParam(r, "isinID"))
	if err != nil {
		sendServiceError(w, r, err, "calculate coupon dates")
		return
	}
	sendJSON(w, r, http.StatusOK, dates)
}

func (h *BuySellHandler) HandleRecalculate(w http.ResponseWriter, r *http.Request) {
	var req RecalculateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tx, err := h.service.RecalculateTransaction(r.Context(), chi.URLParam(r, "isinID"), req.Transaction, req.Field)
	if err != nil {
		sendServiceError(w, r, err, "recalculate transaction")
		return
	}
	sendJSON(w, r, http.StatusOK, tx)
}

func (h *BuySellHandler) HandleCreateTrade(w http.ResponseWriter, r *http.Request) {
	var in services.TradeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	tx, err := h.service.SaveTrade(r.Context(), chi.URLParam(r, "isinID"), in)
	if err != nil {
		sendServiceError(w, r, err, "save trade")
		return
	}
	sendJSON(w, r, http.StatusCreated, tx)
}

func (h *BuySellHandler) HandleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	var in services.TradeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	tx, err := h.service.UpdateTrade(r.Context(), chi.URLParam(r, "tradeID"), in)
	if err != nil {
		sendServiceError(w, r, err, "update trade")
		return
	}
	sendJSON(w, r, http.StatusOK, tx)
}

func (h *BuySellHandler) HandleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTrade(r.Context(), chi.URLParam(r, "tradeID")); err != nil {
		sendServiceError(w, r, err, "delete trade")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
