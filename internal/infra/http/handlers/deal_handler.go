package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitekick/pipeline/internal/infra/http/middleware"
	"github.com/sitekick/pipeline/internal/usecase"
)

type DealHandler struct {
	CreateUC *usecase.CreateDealUseCase
	RefundUC *usecase.RefundDealUseCase
}

func NewDealHandler(createUC *usecase.CreateDealUseCase, refundUC *usecase.RefundDealUseCase) *DealHandler {
	return &DealHandler{CreateUC: createUC, RefundUC: refundUC}
}

func (h *DealHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input usecase.CreateDealInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	input.UserID = identity.UserID

	output, err := h.CreateUC.Execute(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, output)
}

func (h *DealHandler) HandleRefund(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input usecase.RefundDealInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	input.UserID = identity.UserID
	input.DealID = chi.URLParam(r, "dealId")

	output, err := h.RefundUC.Execute(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.RecordRefund()
	writeJSON(w, http.StatusOK, output)
}
