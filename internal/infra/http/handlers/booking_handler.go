package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sitekick/pipeline/internal/entity"
	"github.com/sitekick/pipeline/internal/infra/http/middleware"
	"github.com/sitekick/pipeline/internal/usecase"
)

type BookingHandler struct {
	CreateUC       *usecase.CreateBookingUseCase
	AvailabilityUC *usecase.BookingAvailabilityUseCase
	StatusUC       *usecase.UpdateBookingStatusUseCase
	Bookings       usecase.BookingRepository
}

func NewBookingHandler(
	createUC *usecase.CreateBookingUseCase,
	availabilityUC *usecase.BookingAvailabilityUseCase,
	statusUC *usecase.UpdateBookingStatusUseCase,
	bookings usecase.BookingRepository,
) *BookingHandler {
	return &BookingHandler{
		CreateUC:       createUC,
		AvailabilityUC: availabilityUC,
		StatusUC:       statusUC,
		Bookings:       bookings,
	}
}

// HandleCreate is the public booking form endpoint.
func (h *BookingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateBookingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	output, err := h.CreateUC.Execute(r.Context(), input)
	if err != nil {
		if usecase.ErrorCode(err) == usecase.CodeConflict {
			middleware.RecordBookingConflict()
		}
		writeError(w, err)
		return
	}

	middleware.RecordBookingCreated()
	writeJSON(w, http.StatusCreated, output)
}

// HandleAvailability returns the free intervals of a day.
func (h *BookingHandler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	websiteID := chi.URLParam(r, "websiteId")
	date := r.URL.Query().Get("date")

	output, err := h.AvailabilityUC.Execute(r.Context(), websiteID, date)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

// HandleLookup lets a customer check their booking by confirmation code.
func (h *BookingHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	booking, err := h.Bookings.FindByConfirmationCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			writeError(w, usecase.ErrNotFound("booking not found"))
			return
		}
		writeError(w, usecase.ErrDatabase("failed to load booking", err))
		return
	}

	out := *booking
	out.Status = booking.EffectiveStatus(time.Now())
	writeJSON(w, http.StatusOK, &out)
}

// HandleUpdateStatus is the owner's confirm/cancel/complete action.
func (h *BookingHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
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

	booking, err := h.StatusUC.Execute(r.Context(), usecase.UpdateBookingStatusInput{
		UserID:    identity.UserID,
		BookingID: chi.URLParam(r, "bookingId"),
		Status:    body.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}
