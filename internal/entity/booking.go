package entity

import (
	"fmt"
	"time"
)

const (
	BookingStatusPending   = "PENDING"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCompleted = "COMPLETED"
	BookingStatusCancelled = "CANCELLED"
)

// Booking times are minutes since midnight on Date. End is exclusive and a
// booking never crosses midnight, so interval math stays plain integer
// comparison with no calendar arithmetic.
type Booking struct {
	ID               string `json:"id"`
	WebsiteID        string `json:"website_id"`
	ServiceID        string `json:"service_id,omitempty"`
	Date             string `json:"date"` // YYYY-MM-DD
	StartMinute      int    `json:"start_minute"`
	EndMinute        int    `json:"end_minute"`
	Status           string `json:"status"`
	ConfirmationCode string `json:"confirmation_code"`

	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	Notes         string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const minutesPerDay = 24 * 60

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// Overlaps implements the half-open interval rule: [s1,e1) and [s2,e2)
// collide iff s1 < e2 && s2 < e1. Back-to-back bookings do not collide.
func Overlaps(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}

// ValidSlot rejects slots whose end would pass 23:59.
func ValidSlot(start, end int) bool {
	return start >= 0 && end > start && end <= minutesPerDay-1
}

func (b *Booking) Overlaps(other *Booking) bool {
	return b.Date == other.Date && Overlaps(b.StartMinute, b.EndMinute, other.StartMinute, other.EndMinute)
}

// Blocking bookings participate in conflict detection.
func (b *Booking) Blocking() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// EndsBy reports whether the booking's slot has fully elapsed at now.
func (b *Booking) EndsBy(now time.Time) bool {
	day, err := time.ParseInLocation("2006-01-02", b.Date, now.Location())
	if err != nil {
		return false
	}
	end := day.Add(time.Duration(b.EndMinute) * time.Minute)
	return !end.After(now)
}

var bookingTransitions = map[string]map[string]bool{
	BookingStatusPending:   {BookingStatusConfirmed: true, BookingStatusCancelled: true},
	BookingStatusConfirmed: {BookingStatusCancelled: true, BookingStatusCompleted: true},
	BookingStatusCompleted: {},
	BookingStatusCancelled: {},
}

func (b *Booking) CanTransitionTo(status string) bool {
	next, ok := bookingTransitions[b.Status]
	if !ok {
		return false
	}
	return next[status]
}

// EffectiveBookingStatus is the read-side twin of proposal expiry: a
// CONFIRMED booking whose slot has elapsed reads as COMPLETED.
func EffectiveBookingStatus(stored string, date string, endMinute int, now time.Time) string {
	if stored != BookingStatusConfirmed {
		return stored
	}
	b := Booking{Date: date, EndMinute: endMinute, Status: stored}
	if b.EndsBy(now) {
		return BookingStatusCompleted
	}
	return stored
}

func (b *Booking) EffectiveStatus(now time.Time) string {
	return EffectiveBookingStatus(b.Status, b.Date, b.EndMinute, now)
}
