package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sitekick/pipeline/internal/entity"
	"github.com/sitekick/pipeline/internal/infra/queue"
)

type CreateBookingUseCase struct {
	Bookings   BookingRepository
	Services   ServiceRepository
	Leads      LeadRepository
	Activities ActivityRepository
	Queue      queue.QueueProducerInterface

	Now     func() time.Time
	NewCode func() string
}

func NewCreateBookingUseCase(
	bookings BookingRepository,
	services ServiceRepository,
	leads LeadRepository,
	activities ActivityRepository,
	producer queue.QueueProducerInterface,
) *CreateBookingUseCase {
	return &CreateBookingUseCase{
		Bookings:   bookings,
		Services:   services,
		Leads:      leads,
		Activities: activities,
		Queue:      producer,
		Now:        time.Now,
		NewCode:    func() string { return uuid.New().String() },
	}
}

func (uc *CreateBookingUseCase) Execute(ctx context.Context, input CreateBookingInput) (*CreateBookingOutput, error) {
	if validationErrors := ValidateCreateBookingInput(input); len(validationErrors) > 0 {
		return nil, joinValidationErrors(validationErrors)
	}

	lead, err := uc.Leads.FindByWebsiteID(ctx, input.WebsiteID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrNotFound("website not found")
		}
		return nil, ErrDatabase("failed to resolve website", err)
	}

	start, err := entity.ParseClock(input.StartTime)
	if err != nil {
		return nil, ErrValidation("start_time must be HH:MM")
	}

	duration := entity.DefaultServiceDuration
	if input.ServiceID != "" {
		service, err := uc.Services.FindByID(ctx, input.ServiceID)
		if err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				return nil, ErrNotFound("service not found")
			}
			return nil, ErrDatabase("failed to load service", err)
		}
		duration = service.Duration()
	}

	end := start + duration
	if !entity.ValidSlot(start, end) {
		return nil, ErrValidation("slot extends past end of day")
	}

	now := uc.Now()
	booking := &entity.Booking{
		ID:               uuid.New().String(),
		WebsiteID:        input.WebsiteID,
		ServiceID:        input.ServiceID,
		Date:             input.Date,
		StartMinute:      start,
		EndMinute:        end,
		Status:           entity.BookingStatusPending,
		ConfirmationCode: uc.NewCode(),
		CustomerName:     input.CustomerName,
		CustomerEmail:    input.CustomerEmail,
		CustomerPhone:    input.CustomerPhone,
		Notes:            input.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	// The overlap check, the insert and the analytics increment run as one
	// atomic group keyed on (website, date). Two racing requests for
	// overlapping slots get exactly one success.
	if err := uc.Bookings.CreateIfFree(ctx, booking); err != nil {
		if errors.Is(err, entity.ErrBookingConflict) {
			return nil, ErrConflict("slot already booked, pick another time")
		}
		return nil, ErrDatabase("failed to create booking", err)
	}

	if err := uc.Activities.Append(ctx, entity.NewActivity(lead.ID, entity.ActivityBookingCreated,
		input.Date+" "+input.StartTime+" "+input.CustomerName)); err != nil {
		log.WithError(err).Warn("failed to append booking activity")
	}

	// Confirmation email is best-effort: the booking stands either way.
	payload := queue.NotificationPayload{
		Kind:             queue.NotifyBookingConfirmation,
		To:               input.CustomerEmail,
		Name:             input.CustomerName,
		LeadID:           lead.ID,
		BusinessName:     lead.BusinessName,
		ConfirmationCode: booking.ConfirmationCode,
		BookingDate:      booking.Date,
		BookingStart:     entity.FormatClock(booking.StartMinute),
	}
	if err := uc.Queue.PublishNotification(ctx, payload); err != nil {
		log.WithError(err).Warn("failed to enqueue booking confirmation")
	}

	return &CreateBookingOutput{
		ConfirmationCode: booking.ConfirmationCode,
		Booking:          booking,
	}, nil
}
