package usecase

import (
	"context"
	"time"

	"github.com/sitekick/pipeline/internal/entity"
	"github.com/sitekick/pipeline/internal/infra/integration/paygate"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *entity.Lead) error
	FindByID(ctx context.Context, id string) (*entity.Lead, error)
	FindByWebsiteID(ctx context.Context, websiteID string) (*entity.Lead, error)
	Update(ctx context.Context, lead *entity.Lead) error
	// ListDueFollowUps returns the owner's leads with next_follow_up <= now
	// whose status is not terminal.
	ListDueFollowUps(ctx context.Context, userID string, now time.Time) ([]*entity.Lead, error)
}

type DealRepository interface {
	// Create returns entity.ErrActiveDealExists when another non-refunded
	// deal already holds the lead's active slot.
	Create(ctx context.Context, deal *entity.Deal) error
	FindByID(ctx context.Context, id string) (*entity.Deal, error)
	// FindActiveByLeadID returns entity.ErrNotFound when the lead has no
	// non-refunded deal.
	FindActiveByLeadID(ctx context.Context, leadID string) (*entity.Deal, error)
	FindBySessionID(ctx context.Context, sessionID string) (*entity.Deal, error)
	Update(ctx context.Context, deal *entity.Deal) error
	// ConfirmPaid is the idempotency guard: a guarded status flip
	// PENDING -> toStatus in one statement. Returns false when the deal
	// already left PENDING, so webhook replays are no-ops.
	ConfirmPaid(ctx context.Context, dealID, toStatus, externalRef string) (bool, error)
	// MarkRefunded flips PAID/ACTIVE_SUBSCRIPTION -> REFUNDED with the
	// refund metadata, guarded the same way. False means already refunded.
	MarkRefunded(ctx context.Context, deal *entity.Deal) (bool, error)
	Delete(ctx context.Context, id string) error
}

type ProposalRepository interface {
	// Create returns entity.ErrActiveProposalExists when a SENT/VIEWED
	// proposal already holds the lead's active slot.
	Create(ctx context.Context, p *entity.Proposal) error
	FindByID(ctx context.Context, id string) (*entity.Proposal, error)
	FindByAccessToken(ctx context.Context, token string) (*entity.Proposal, error)
	// FindActiveByLeadID returns the SENT/VIEWED proposal holding the
	// lead's active slot, or entity.ErrNotFound.
	FindActiveByLeadID(ctx context.Context, leadID string) (*entity.Proposal, error)
	Update(ctx context.Context, p *entity.Proposal) error
	// UpdateIfStatus writes p only when the stored status still equals
	// expected; false means a concurrent writer got there first.
	UpdateIfStatus(ctx context.Context, p *entity.Proposal, expected string) (bool, error)
}

type BookingRepository interface {
	// CreateIfFree inserts the booking only if no PENDING/CONFIRMED
	// booking overlaps it on (website, date), and bumps the day's
	// bookings-created counter, all in one atomic group. Overlap is
	// reported as entity.ErrBookingConflict.
	CreateIfFree(ctx context.Context, b *entity.Booking) error
	FindByID(ctx context.Context, id string) (*entity.Booking, error)
	FindByConfirmationCode(ctx context.Context, code string) (*entity.Booking, error)
	// ListBlocking returns PENDING and CONFIRMED bookings for the day.
	ListBlocking(ctx context.Context, websiteID, date string) ([]*entity.Booking, error)
	// UpdateStatus flips from -> to only while the stored status still
	// equals from. False means a concurrent writer moved the row first.
	UpdateStatus(ctx context.Context, id, from, to string) (bool, error)
}

type ServiceRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Service, error)
}

type ActivityRepository interface {
	Append(ctx context.Context, a *entity.Activity) error
	ListByLeadID(ctx context.Context, leadID string, limit int) ([]*entity.Activity, error)
}

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, input paygate.CheckoutInput) (*paygate.CheckoutSession, error)
	CreateSubscriptionSession(ctx context.Context, input paygate.SubscriptionInput) (*paygate.CheckoutSession, error)
	Refund(ctx context.Context, input paygate.RefundInput) (*paygate.RefundResult, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	RetrieveSession(ctx context.Context, sessionID string) (*paygate.Session, error)
}
