package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sitekick/pipeline/internal/entity"
)

// BookingAvailabilityUseCase computes the free intervals of a day by
// subtracting blocking bookings from the business-hours window.
type BookingAvailabilityUseCase struct {
	Bookings BookingRepository
	Services ServiceRepository
	Leads    LeadRepository

	OpenMinute  int // start of business hours, minutes since midnight
	CloseMinute int

	Now func() time.Time
}

func NewBookingAvailabilityUseCase(
	bookings BookingRepository,
	services ServiceRepository,
	leads LeadRepository,
	openMinute, closeMinute int,
) *BookingAvailabilityUseCase {
	return &BookingAvailabilityUseCase{
		Bookings:    bookings,
		Services:    services,
		Leads:       leads,
		OpenMinute:  openMinute,
		CloseMinute: closeMinute,
		Now:         time.Now,
	}
}

func (uc *BookingAvailabilityUseCase) Execute(ctx context.Context, websiteID, date string) (*AvailabilityOutput, error) {
	if !isValidDate(date) {
		return nil, ErrValidation("date must be YYYY-MM-DD")
	}

	if _, err := uc.Leads.FindByWebsiteID(ctx, websiteID); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrNotFound("website not found")
		}
		return nil, ErrDatabase("failed to resolve website", err)
	}

	blocking, err := uc.Bookings.ListBlocking(ctx, websiteID, date)
	if err != nil {
		return nil, ErrDatabase("failed to list bookings", err)
	}

	intervals := freeIntervals(uc.OpenMinute, uc.CloseMinute, blocking)

	out := &AvailabilityOutput{Date: date, Intervals: make([]FreeInterval, 0, len(intervals))}
	for _, iv := range intervals {
		out.Intervals = append(out.Intervals, FreeInterval{
			Start: entity.FormatClock(iv[0]),
			End:   entity.FormatClock(iv[1]),
		})
	}
	return out, nil
}

// freeIntervals subtracts the booked [start,end) ranges from [open,close).
func freeIntervals(open, close int, blocking []*entity.Booking) [][2]int {
	busy := make([][2]int, 0, len(blocking))
	for _, b := range blocking {
		if b.EndMinute <= open || b.StartMinute >= close {
			continue
		}
		busy = append(busy, [2]int{b.StartMinute, b.EndMinute})
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i][0] < busy[j][0] })

	var free [][2]int
	cursor := open
	for _, iv := range busy {
		if iv[0] > cursor {
			free = append(free, [2]int{cursor, min(iv[0], close)})
		}
		if iv[1] > cursor {
			cursor = iv[1]
		}
		if cursor >= close {
			break
		}
	}
	if cursor < close {
		free = append(free, [2]int{cursor, close})
	}
	return free
}
