package entity

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	DealStatusPending            = "PENDING"
	DealStatusPaid               = "PAID"
	DealStatusActiveSubscription = "ACTIVE_SUBSCRIPTION"
	DealStatusRefunded           = "REFUNDED"
)

type Deal struct {
	ID              string `json:"id"`
	LeadID          string `json:"lead_id"`
	UserID          string `json:"user_id"`
	Amount          int64  `json:"amount"` // minor units
	IsRecurring     bool   `json:"is_recurring"`
	RecurringAmount int64  `json:"recurring_amount,omitempty"`
	PlatformFee     int64  `json:"platform_fee"`
	SellerPayout    int64  `json:"seller_payout"`
	Status          string `json:"status"`

	// Gateway references, opaque to the engine.
	SessionID      string `json:"session_id,omitempty"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	PriceID        string `json:"price_id,omitempty"`

	RefundedAt   *time.Time `json:"refunded_at,omitempty"`
	RefundReason string     `json:"refund_reason,omitempty"`
	RefundAmount int64      `json:"refund_amount,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SplitFee snapshots the platform cut at deal-creation time. Later rate
// changes never touch historical deals.
func SplitFee(amount int64, feeRate float64) (platformFee, sellerPayout int64) {
	platformFee = int64(math.Round(float64(amount) * feeRate))
	sellerPayout = amount - platformFee
	return platformFee, sellerPayout
}

func NewDeal(leadID, userID string, amount int64, isRecurring bool, recurringAmount int64, feeRate float64) *Deal {
	fee, payout := SplitFee(amount, feeRate)
	now := time.Now()
	return &Deal{
		ID:              uuid.New().String(),
		LeadID:          leadID,
		UserID:          userID,
		Amount:          amount,
		IsRecurring:     isRecurring,
		RecurringAmount: recurringAmount,
		PlatformFee:     fee,
		SellerPayout:    payout,
		Status:          DealStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Active means the deal still counts against the one-deal-per-lead rule.
func (d *Deal) Active() bool {
	return d.Status != DealStatusRefunded
}

func (d *Deal) Refundable() bool {
	return d.Status == DealStatusPaid || d.Status == DealStatusActiveSubscription
}

// PaidStatus is the status a pending deal lands in once the gateway
// confirms payment.
func (d *Deal) PaidStatus() string {
	if d.IsRecurring {
		return DealStatusActiveSubscription
	}
	return DealStatusPaid
}
