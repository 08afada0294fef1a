package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sitekick/pipeline/internal/entity"
)

func pendingBooking() *entity.Booking {
	return &entity.Booking{
		ID:          "bk-1",
		WebsiteID:   "site-1",
		Date:        "2025-06-02",
		StartMinute: 540,
		EndMinute:   570,
		Status:      entity.BookingStatusPending,
	}
}

func TestUpdateBookingStatusConfirm(t *testing.T) {
	ctx := context.Background()

	mockBookings := new(MockBookingRepository)
	mockLeads := new(MockLeadRepository)

	booking := pendingBooking()
	lead := &entity.Lead{ID: "lead-1", UserID: "user-1", WebsiteID: "site-1"}

	mockBookings.On("FindByID", ctx, "bk-1").Return(booking, nil)
	mockLeads.On("FindByWebsiteID", ctx, "site-1").Return(lead, nil)
	mockBookings.On("UpdateStatus", ctx, "bk-1", entity.BookingStatusPending, entity.BookingStatusConfirmed).Return(true, nil)

	uc := NewUpdateBookingStatusUseCase(mockBookings, mockLeads)
	uc.Now = fixedTime

	out, err := uc.Execute(ctx, UpdateBookingStatusInput{UserID: "user-1", BookingID: "bk-1", Status: entity.BookingStatusConfirmed})

	assert.NoError(t, err)
	assert.Equal(t, entity.BookingStatusConfirmed, out.Status)
}

func TestUpdateBookingStatusLostRace(t *testing.T) {
	ctx := context.Background()

	mockBookings := new(MockBookingRepository)
	mockLeads := new(MockLeadRepository)

	booking := pendingBooking()
	lead := &entity.Lead{ID: "lead-1", UserID: "user-1", WebsiteID: "site-1"}

	mockBookings.On("FindByID", ctx, "bk-1").Return(booking, nil)
	mockLeads.On("FindByWebsiteID", ctx, "site-1").Return(lead, nil)
	// Another action moved the booking between the read and the write;
	// the guarded update matches zero rows and the confirm must not win.
	mockBookings.On("UpdateStatus", ctx, "bk-1", entity.BookingStatusPending, entity.BookingStatusConfirmed).Return(false, nil)

	uc := NewUpdateBookingStatusUseCase(mockBookings, mockLeads)
	uc.Now = fixedTime

	_, err := uc.Execute(ctx, UpdateBookingStatusInput{UserID: "user-1", BookingID: "bk-1", Status: entity.BookingStatusConfirmed})
	assert.Equal(t, CodeInvalidTransition, ErrorCode(err))
}

func TestUpdateBookingStatusCompleteBeforeEndRejected(t *testing.T) {
	ctx := context.Background()

	mockBookings := new(MockBookingRepository)
	mockLeads := new(MockLeadRepository)

	booking := pendingBooking()
	booking.Status = entity.BookingStatusConfirmed
	lead := &entity.Lead{ID: "lead-1", UserID: "user-1", WebsiteID: "site-1"}

	mockBookings.On("FindByID", ctx, "bk-1").Return(booking, nil)
	mockLeads.On("FindByWebsiteID", ctx, "site-1").Return(lead, nil)

	uc := NewUpdateBookingStatusUseCase(mockBookings, mockLeads)
	// The slot is on 2025-06-02; "now" is the day before.
	uc.Now = fixedTime

	_, err := uc.Execute(ctx, UpdateBookingStatusInput{UserID: "user-1", BookingID: "bk-1", Status: entity.BookingStatusCompleted})

	assert.Equal(t, CodeInvalidTransition, ErrorCode(err))
	mockBookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateBookingStatusCompleteAfterEnd(t *testing.T) {
	ctx := context.Background()

	mockBookings := new(MockBookingRepository)
	mockLeads := new(MockLeadRepository)

	booking := pendingBooking()
	booking.Status = entity.BookingStatusConfirmed
	lead := &entity.Lead{ID: "lead-1", UserID: "user-1", WebsiteID: "site-1"}

	mockBookings.On("FindByID", ctx, "bk-1").Return(booking, nil)
	mockLeads.On("FindByWebsiteID", ctx, "site-1").Return(lead, nil)
	mockBookings.On("UpdateStatus", ctx, "bk-1", entity.BookingStatusConfirmed, entity.BookingStatusCompleted).Return(true, nil)

	uc := NewUpdateBookingStatusUseCase(mockBookings, mockLeads)
	uc.Now = func() time.Time { return time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC) }

	out, err := uc.Execute(ctx, UpdateBookingStatusInput{UserID: "user-1", BookingID: "bk-1", Status: entity.BookingStatusCompleted})

	assert.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCompleted, out.Status)
}

func TestUpdateBookingStatusIllegalMove(t *testing.T) {
	ctx := context.Background()

	mockBookings := new(MockBookingRepository)
	mockLeads := new(MockLeadRepository)

	booking := pendingBooking()
	booking.Status = entity.BookingStatusCancelled
	lead := &entity.Lead{ID: "lead-1", UserID: "user-1", WebsiteID: "site-1"}

	mockBookings.On("FindByID", ctx, "bk-1").Return(booking, nil)
	mockLeads.On("FindByWebsiteID", ctx, "site-1").Return(lead, nil)

	uc := NewUpdateBookingStatusUseCase(mockBookings, mockLeads)
	uc.Now = fixedTime

	_, err := uc.Execute(ctx, UpdateBookingStatusInput{UserID: "user-1", BookingID: "bk-1", Status: entity.BookingStatusConfirmed})
	assert.Equal(t, CodeInvalidTransition, ErrorCode(err))
}

func TestUpdateBookingStatusWrongOwner(t *testing.T) {
	ctx := context.Background()

	mockBookings := new(MockBookingRepository)
	mockLeads := new(MockLeadRepository)

	mockBookings.On("FindByID", ctx, "bk-1").Return(pendingBooking(), nil)
	mockLeads.On("FindByWebsiteID", ctx, "site-1").Return(&entity.Lead{ID: "lead-1", UserID: "someone-else"}, nil)

	uc := NewUpdateBookingStatusUseCase(mockBookings, mockLeads)
	uc.Now = fixedTime

	_, err := uc.Execute(ctx, UpdateBookingStatusInput{UserID: "user-1", BookingID: "bk-1", Status: entity.BookingStatusConfirmed})
	assert.Equal(t, CodeNotAuthorized, ErrorCode(err))
}
