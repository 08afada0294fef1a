package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/sitekick/pipeline/internal/entity"
)

type UpdateBookingStatusUseCase struct {
	Bookings BookingRepository
	Leads    LeadRepository

	Now func() time.Time
}

func NewUpdateBookingStatusUseCase(bookings BookingRepository, leads LeadRepository) *UpdateBookingStatusUseCase {
	return &UpdateBookingStatusUseCase{
		Bookings: bookings,
		Leads:    leads,
		Now:      time.Now,
	}
}

func (uc *UpdateBookingStatusUseCase) Execute(ctx context.Context, input UpdateBookingStatusInput) (*entity.Booking, error) {
	booking, err := uc.Bookings.FindByID(ctx, input.BookingID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrNotFound("booking not found")
		}
		return nil, ErrDatabase("failed to load booking", err)
	}

	lead, err := uc.Leads.FindByWebsiteID(ctx, booking.WebsiteID)
	if err != nil {
		return nil, ErrDatabase("failed to resolve booking owner", err)
	}
	if lead.UserID != input.UserID {
		return nil, ErrNotAuthorized("booking does not belong to caller")
	}

	if !booking.CanTransitionTo(input.Status) {
		return nil, ErrInvalidTransition("cannot move booking from " + booking.Status + " to " + input.Status)
	}

	// COMPLETED is only reachable once the slot has actually elapsed.
	if input.Status == entity.BookingStatusCompleted && !booking.EndsBy(uc.Now()) {
		return nil, ErrInvalidTransition("booking has not ended yet")
	}

	moved, err := uc.Bookings.UpdateStatus(ctx, booking.ID, booking.Status, input.Status)
	if err != nil {
		return nil, ErrDatabase("failed to update booking status", err)
	}
	if !moved {
		return nil, ErrInvalidTransition("booking changed concurrently")
	}

	booking.Status = input.Status
	booking.UpdatedAt = uc.Now()
	return booking, nil
}
