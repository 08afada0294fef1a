package entity

import (
	"time"

	"github.com/google/uuid"
)

// Activity entry kinds. Append-only, human-readable timeline; never read
// back for correctness decisions.
const (
	ActivityOutreachSent     = "OUTREACH_SENT"
	ActivityFollowUpSet      = "FOLLOW_UP_SET"
	ActivityProposalSent     = "PROPOSAL_SENT"
	ActivityProposalViewed   = "PROPOSAL_VIEWED"
	ActivityProposalAccepted = "PROPOSAL_ACCEPTED"
	ActivityProposalDeclined = "PROPOSAL_DECLINED"
	ActivityPaymentConfirmed = "PAYMENT_CONFIRMED"
	ActivityDealRefunded     = "DEAL_REFUNDED"
	ActivityBookingCreated   = "BOOKING_CREATED"
	ActivityStatusChanged    = "STATUS_CHANGED"
)

type Activity struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewActivity(leadID, kind, detail string) *Activity {
	return &Activity{
		ID:        uuid.New().String(),
		LeadID:    leadID,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
}
