package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitekick/pipeline/internal/infra/http/middleware"
	"github.com/sitekick/pipeline/internal/usecase"
)

type LeadHandler struct {
	StatusUC   *usecase.UpdateLeadStatusUseCase
	FollowUpUC *usecase.FollowUpUseCase
	Activities usecase.ActivityRepository
	Leads      usecase.LeadRepository
}

func NewLeadHandler(
	statusUC *usecase.UpdateLeadStatusUseCase,
	followUpUC *usecase.FollowUpUseCase,
	activities usecase.ActivityRepository,
	leads usecase.LeadRepository,
) *LeadHandler {
	return &LeadHandler{
		StatusUC:   statusUC,
		FollowUpUC: followUpUC,
		Activities: activities,
		Leads:      leads,
	}
}

func (h *LeadHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	lead, err := h.StatusUC.Execute(r.Context(), usecase.UpdateLeadStatusInput{
		UserID: identity.UserID,
		LeadID: chi.URLParam(r, "leadId"),
		Status: body.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) HandleScheduleFollowUp(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input usecase.ScheduleFollowUpInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	input.UserID = identity.UserID
	input.LeadID = chi.URLParam(r, "leadId")

	lead, err := h.FollowUpUC.Schedule(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

// HandleDueFollowUps is the "due today or overdue" worklist.
func (h *LeadHandler) HandleDueFollowUps(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	leads, err := h.FollowUpUC.ListDue(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, leads)
}

// HandleTimeline returns the lead's human-readable activity log.
func (h *LeadHandler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	leadID := chi.URLParam(r, "leadId")
	lead, err := h.Leads.FindByID(r.Context(), leadID)
	if err != nil {
		writeError(w, usecase.ErrNotFound("lead not found"))
		return
	}
	if lead.UserID != identity.UserID {
		writeError(w, usecase.ErrNotAuthorized("lead does not belong to caller"))
		return
	}

	activities, err := h.Activities.ListByLeadID(r.Context(), leadID, 50)
	if err != nil {
		writeError(w, usecase.ErrDatabase("failed to list activities", err))
		return
	}

	writeJSON(w, http.StatusOK, activities)
}
