package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitekick/pipeline/internal/infra/http/middleware"
	"github.com/sitekick/pipeline/internal/usecase"
)

type ProposalHandler struct {
	SendUC    *usecase.SendProposalUseCase
	ViewUC    *usecase.ViewProposalUseCase
	AcceptUC  *usecase.AcceptProposalUseCase
	DeclineUC *usecase.DeclineProposalUseCase
}

func NewProposalHandler(
	sendUC *usecase.SendProposalUseCase,
	viewUC *usecase.ViewProposalUseCase,
	acceptUC *usecase.AcceptProposalUseCase,
	declineUC *usecase.DeclineProposalUseCase,
) *ProposalHandler {
	return &ProposalHandler{
		SendUC:    sendUC,
		ViewUC:    viewUC,
		AcceptUC:  acceptUC,
		DeclineUC: declineUC,
	}
}

// HandleSend is the owner's "send proposal to lead" action.
func (h *ProposalHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input usecase.SendProposalInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	input.UserID = identity.UserID
	input.LeadID = chi.URLParam(r, "leadId")

	proposal, err := h.SendUC.Execute(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, proposal)
}

// HandleView is the public, token-authenticated fetch. The first read
// marks the proposal VIEWED.
func (h *ProposalHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	proposal, err := h.ViewUC.Execute(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, proposal)
}

func (h *ProposalHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	var input usecase.AcceptProposalInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	input.AccessToken = chi.URLParam(r, "token")

	output, err := h.AcceptUC.Execute(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.RecordProposalAccepted()
	writeJSON(w, http.StatusOK, output)
}

func (h *ProposalHandler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	proposal, err := h.DeclineUC.Execute(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, proposal)
}
