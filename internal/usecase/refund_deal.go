package usecase

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sitekick/pipeline/internal/entity"
	"github.com/sitekick/pipeline/internal/infra/integration/paygate"
	"github.com/sitekick/pipeline/internal/infra/queue"
)

// RefundDealUseCase orders the steps so money truth wins: the gateway
// refund (and subscription cancel) happen before any local write. A hard
// gateway failure aborts with the deal untouched so the whole operation
// can be retried; "already refunded" from the gateway is reconciled as
// success and proceeds to the local commit.
type RefundDealUseCase struct {
	Deals      DealRepository
	Leads      LeadRepository
	Activities ActivityRepository
	Gateway    PaymentGateway
	Queue      queue.QueueProducerInterface

	Now func() time.Time
}

func NewRefundDealUseCase(
	deals DealRepository,
	leads LeadRepository,
	activities ActivityRepository,
	gateway PaymentGateway,
	producer queue.QueueProducerInterface,
) *RefundDealUseCase {
	return &RefundDealUseCase{
		Deals:      deals,
		Leads:      leads,
		Activities: activities,
		Gateway:    gateway,
		Queue:      producer,
		Now:        time.Now,
	}
}

func (uc *RefundDealUseCase) Execute(ctx context.Context, input RefundDealInput) (*RefundDealOutput, error) {
	deal, err := uc.Deals.FindByID(ctx, input.DealID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrNotFound("deal not found")
		}
		return nil, ErrDatabase("failed to load deal", err)
	}
	if deal.UserID != input.UserID {
		return nil, ErrNotAuthorized("deal does not belong to caller")
	}

	if deal.Status == entity.DealStatusRefunded {
		return nil, ErrAlreadyRefunded("deal is already refunded")
	}
	if !deal.Refundable() {
		return nil, ErrInvalidTransition("only paid deals can be refunded")
	}

	amount := input.Amount
	if amount == 0 {
		amount = deal.Amount
	}
	if amount < 0 || amount > deal.Amount {
		return nil, ErrValidation("refund amount exceeds deal amount")
	}

	// Step 1: gateway refund.
	_, err = uc.Gateway.Refund(ctx, paygate.RefundInput{
		SessionID: deal.SessionID,
		Amount:    amount,
		Reason:    input.Reason,
	})
	if err != nil && !errors.Is(err, paygate.ErrAlreadyRefunded) {
		return nil, ErrExternal("gateway refund failed, retry later", err)
	}

	// Step 2: recurring deals also drop the subscription.
	if deal.IsRecurring && deal.SubscriptionID != "" {
		err := uc.Gateway.CancelSubscription(ctx, deal.SubscriptionID)
		if err != nil && !errors.Is(err, paygate.ErrAlreadyCancelled) {
			return nil, ErrExternal("subscription cancel failed, retry later", err)
		}
	}

	// Step 3: local commit, guarded against a concurrent refund of the
	// same deal.
	now := uc.Now()
	deal.Status = entity.DealStatusRefunded
	deal.RefundedAt = &now
	deal.RefundReason = input.Reason
	deal.RefundAmount = amount
	deal.UpdatedAt = now

	refunded, err := uc.Deals.MarkRefunded(ctx, deal)
	if err != nil {
		return nil, ErrDatabase("failed to persist refund", err)
	}
	if !refunded {
		return nil, ErrAlreadyRefunded("deal is already refunded")
	}

	// Step 4: cascade. The refund record is authoritative at this point;
	// a failed cascade is logged, never rolled back into a non-refund.
	uc.cascadeLeadLost(ctx, deal)

	lead, err := uc.Leads.FindByID(ctx, deal.LeadID)
	if err == nil && lead.Email != "" {
		payload := queue.NotificationPayload{
			Kind:        queue.NotifyRefundIssued,
			To:          lead.Email,
			Name:        lead.BusinessName,
			LeadID:      lead.ID,
			AmountCents: amount,
		}
		if err := uc.Queue.PublishNotification(ctx, payload); err != nil {
			log.WithError(err).Warn("failed to enqueue refund notice")
		}
	}

	return &RefundDealOutput{Deal: deal, RefundAmount: amount}, nil
}

func (uc *RefundDealUseCase) cascadeLeadLost(ctx context.Context, deal *entity.Deal) {
	lead, err := uc.Leads.FindByID(ctx, deal.LeadID)
	if err != nil {
		log.WithError(err).WithField("lead_id", deal.LeadID).Warn("refund recorded but lead lookup failed")
		return
	}

	if lead.Status != entity.LeadStatusLost {
		lead.Status = entity.LeadStatusLost
		lead.UpdatedAt = uc.Now()
		if err := uc.Leads.Update(ctx, lead); err != nil {
			log.WithError(err).WithField("lead_id", lead.ID).Warn("failed to move lead to LOST")
		}
	}

	if err := uc.Activities.Append(ctx, entity.NewActivity(lead.ID, entity.ActivityDealRefunded, deal.RefundReason)); err != nil {
		log.WithError(err).Warn("failed to append refund activity")
	}
}
