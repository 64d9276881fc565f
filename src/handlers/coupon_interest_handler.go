package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/username/compartmentdesk/backend/src/services"
)

type CouponInterestHandler struct {
	service services.BuySellService
}

func NewCouponInterestHandler(service services.BuySellService) *CouponInterestHandler {
	return &CouponInterestHandler{service: service}
}

type rateUpdateRequest struct {
	Rate *float64 `json:"rate"`
}

func (h *CouponInterestHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.ListCouponInterests(r.Context(), chi.URLParam(r, "isinID"))
	if err != nil {
		sendServiceError(w, r, err, "list coupon interests")
		return
	}
	sendJSON(w, r, http.StatusOK, history)
}

func (h *CouponInterestHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in services.CouponInterestInput
	if !decodeJSON(w, r, &in) {
		return
	}
	ci, err := h.service.AddCouponInterest(r.Context(), chi.URLParam(r, "isinID"), in)
	if err != nil {
		sendServiceError(w, r, err, "add coupon interest")
		return
	}
	sendJSON(w, r, http.StatusCreated, ci)
}

func (h *CouponInterestHandler) decodeRate(w http.ResponseWriter, r *http.Request) (float64, bool) {
	var req rateUpdateRequest
	if !decodeJSON(w, r, &req) {
		return 0, false
	}
	if req.Rate == nil {
		sendJSONError(w, "rate is required", http.StatusBadRequest)
		return 0, false
	}
	return *req.Rate, true
}

func (h *CouponInterestHandler) HandleUpdateInterestRate(w http.ResponseWriter, r *http.Request) {
	rate, ok := h.decodeRate(w, r)
	if !ok {
		return
	}
	if err := h.service.UpdateInterestRate(r.Context(), chi.URLParam(r, "id"), rate); err != nil {
		sendServiceError(w, r, err, "update interest rate")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CouponInterestHandler) HandleUpdateCouponRate(w http.ResponseWriter, r *http.Request) {
	rate, ok := h.decodeRate(w, r)
	if !ok {
		return
	}
	if err := h.service.UpdateCouponRate(r.Context(), chi.URLParam(r, "id"), rate); err != nil {
		sendServiceError(w, r, err, "update coupon rate")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CouponInterestHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCouponInterest(r.Context(), chi.URLParam(r, "id")); err != nil {
		sendServiceError(w, r, err, "delete coupon interest")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
