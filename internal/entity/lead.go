package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	LeadStatusNew         = "NEW"
	LeadStatusContacted   = "CONTACTED"
	LeadStatusInterested  = "INTERESTED"
	LeadStatusNegotiating = "NEGOTIATING"
	LeadStatusWon         = "WON"
	LeadStatusLost        = "LOST"
)

type Lead struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	BusinessName    string     `json:"business_name"`
	Category        string     `json:"category"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	WebsiteID       string     `json:"website_id,omitempty"`
	Status          string     `json:"status"`
	NextFollowUp    *time.Time `json:"next_follow_up,omitempty"`
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// leadTransitions lists the legal manual moves. Terminal states map to an
// empty set; WON and LOST records are kept for analytics, never deleted.
var leadTransitions = map[string]map[string]bool{
	LeadStatusNew:         {LeadStatusContacted: true, LeadStatusInterested: true, LeadStatusNegotiating: true, LeadStatusLost: true},
	LeadStatusContacted:   {LeadStatusInterested: true, LeadStatusNegotiating: true, LeadStatusLost: true},
	LeadStatusInterested:  {LeadStatusNegotiating: true, LeadStatusLost: true},
	LeadStatusNegotiating: {LeadStatusWon: true, LeadStatusLost: true},
	LeadStatusWon:         {},
	LeadStatusLost:        {},
}

func NewLead(userID, businessName, category string) (*Lead, error) {
	if businessName == "" {
		return nil, errors.New("business name is required")
	}
	now := time.Now()
	return &Lead{
		ID:           uuid.New().String(),
		UserID:       userID,
		BusinessName: businessName,
		Category:     category,
		Status:       LeadStatusNew,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (l *Lead) CanTransitionTo(status string) bool {
	next, ok := leadTransitions[l.Status]
	if !ok {
		return false
	}
	return next[status]
}

func (l *Lead) IsTerminal() bool {
	return l.Status == LeadStatusWon || l.Status == LeadStatusLost
}

// FollowUpDue reports whether the lead belongs on the follow-up worklist.
// Terminal leads never appear, no matter how overdue the timestamp is.
func (l *Lead) FollowUpDue(now time.Time) bool {
	if l.NextFollowUp == nil || l.IsTerminal() {
		return false
	}
	return !l.NextFollowUp.After(now)
}
