package usecase

import "github.com/sitekick/pipeline/internal/entity"

type CreateBookingInput struct {
	WebsiteID     string `json:"website_id"`
	ServiceID     string `json:"service_id,omitempty"`
	Date          string `json:"date"`       // YYYY-MM-DD
	StartTime     string `json:"start_time"` // HH:MM
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

type CreateBookingOutput struct {
	ConfirmationCode string          `json:"confirmation_code"`
	Booking          *entity.Booking `json:"booking"`
}

// FreeInterval is one open stretch of the business-hours window.
type FreeInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AvailabilityOutput struct {
	Date      string         `json:"date"`
	Intervals []FreeInterval `json:"intervals"`
}

type CreateDealInput struct {
	UserID          string `json:"-"`
	LeadID          string `json:"lead_id"`
	Amount          int64  `json:"amount"`
	IsRecurring     bool   `json:"is_recurring"`
	RecurringAmount int64  `json:"recurring_amount,omitempty"`
}

type CreateDealOutput struct {
	Deal        *entity.Deal `json:"deal"`
	CheckoutURL string       `json:"checkout_url"`
}

type ConfirmPaymentInput struct {
	SessionID   string `json:"session_id"`
	ExternalRef string `json:"external_ref"`
}

type RefundDealInput struct {
	UserID string `json:"-"`
	DealID string `json:"deal_id"`
	Reason string `json:"reason"`
	Amount int64  `json:"amount,omitempty"` // 0 means full refund
}

type RefundDealOutput struct {
	Deal         *entity.Deal `json:"deal"`
	RefundAmount int64        `json:"refund_amount"`
}

type SendProposalInput struct {
	UserID         string `json:"-"`
	LeadID         string `json:"lead_id"`
	Title          string `json:"title"`
	Scope          string `json:"scope,omitempty"`
	Timeline       string `json:"timeline,omitempty"`
	Terms          string `json:"terms,omitempty"`
	Amount         int64  `json:"amount"`
	IsRecurring    bool   `json:"is_recurring"`
	RecipientEmail string `json:"recipient_email"`
	ExpiresInDays  int    `json:"expires_in_days,omitempty"`
}

type AcceptProposalInput struct {
	AccessToken string `json:"-"`
	ClientName  string `json:"client_name"`
}

type AcceptProposalOutput struct {
	Proposal           *entity.Proposal `json:"proposal"`
	PaymentRedirectURL string           `json:"payment_redirect_url"`
}

type ScheduleFollowUpInput struct {
	UserID string `json:"-"`
	LeadID string `json:"lead_id"`
	When   string `json:"when"` // RFC3339
}

type UpdateLeadStatusInput struct {
	UserID string `json:"-"`
	LeadID string `json:"lead_id"`
	Status string `json:"status"`
}

type UpdateBookingStatusInput struct {
	UserID    string `json:"-"`
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}
