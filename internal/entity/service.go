package entity

import "time"

// DefaultServiceDuration applies when a booking names no service.
const DefaultServiceDuration = 30

// Service is a bookable offering on a lead's generated website.
type Service struct {
	ID              string    `json:"id"`
	WebsiteID       string    `json:"website_id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int64     `json:"price_cents,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (s *Service) Duration() int {
	if s == nil || s.DurationMinutes <= 0 {
		return DefaultServiceDuration
	}
	return s.DurationMinutes
}
