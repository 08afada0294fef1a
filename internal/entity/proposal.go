package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProposalStatusDraft    = "DRAFT"
	ProposalStatusSent     = "SENT"
	ProposalStatusViewed   = "VIEWED"
	ProposalStatusAccepted = "ACCEPTED"
	ProposalStatusDeclined = "DECLINED"
	ProposalStatusExpired  = "EXPIRED"
)

type Proposal struct {
	ID          string `json:"id"`
	LeadID      string `json:"lead_id"`
	UserID      string `json:"user_id"`
	DealID      string `json:"deal_id,omitempty"`
	Title       string `json:"title"`
	Scope       string `json:"scope,omitempty"`
	Timeline    string `json:"timeline,omitempty"`
	Terms       string `json:"terms,omitempty"`
	Amount      int64  `json:"amount"`
	IsRecurring bool   `json:"is_recurring"`

	// AccessToken authorizes unauthenticated recipient reads.
	AccessToken string `json:"access_token,omitempty"`

	Status     string     `json:"status"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	ViewedAt   *time.Time `json:"viewed_at,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	DeclinedAt *time.Time `json:"declined_at,omitempty"`
	ClientName string     `json:"client_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewProposal(leadID, userID, title string, amount int64, isRecurring bool) *Proposal {
	now := time.Now()
	return &Proposal{
		ID:          uuid.New().String(),
		LeadID:      leadID,
		UserID:      userID,
		Title:       title,
		Amount:      amount,
		IsRecurring: isRecurring,
		AccessToken: uuid.New().String(),
		Status:      ProposalStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// EffectiveProposalStatus derives the status every read path must report.
// Expiry is lazy: a stored SENT/VIEWED past its deadline reads as EXPIRED
// without a background sweep. Terminal decisions are never overridden.
func EffectiveProposalStatus(stored string, expiresAt *time.Time, now time.Time) string {
	switch stored {
	case ProposalStatusAccepted, ProposalStatusDeclined:
		return stored
	}
	if expiresAt != nil && expiresAt.Before(now) {
		return ProposalStatusExpired
	}
	return stored
}

func (p *Proposal) EffectiveStatus(now time.Time) string {
	return EffectiveProposalStatus(p.Status, p.ExpiresAt, now)
}

// Open reports whether the recipient may still act on the proposal.
func (p *Proposal) Open(now time.Time) bool {
	switch p.EffectiveStatus(now) {
	case ProposalStatusSent, ProposalStatusViewed:
		return true
	}
	return false
}

// ActiveForLead: a SENT or VIEWED proposal that has not lapsed still holds
// the one-active-proposal-per-lead slot.
func (p *Proposal) ActiveForLead(now time.Time) bool {
	return p.Open(now)
}
