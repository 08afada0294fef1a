package usecase

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sitekick/pipeline/internal/entity"
)

// ConfirmPaymentUseCase handles the gateway's asynchronous confirmation.
// Replays of the same callback are no-ops: the status flip is guarded at
// the repository so only the first confirmation counts.
type ConfirmPaymentUseCase struct {
	Deals      DealRepository
	Leads      LeadRepository
	Activities ActivityRepository
	Gateway    PaymentGateway

	Now func() time.Time
}

func NewConfirmPaymentUseCase(
	deals DealRepository,
	leads LeadRepository,
	activities ActivityRepository,
	gateway PaymentGateway,
) *ConfirmPaymentUseCase {
	return &ConfirmPaymentUseCase{
		Deals:      deals,
		Leads:      leads,
		Activities: activities,
		Gateway:    gateway,
		Now:        time.Now,
	}
}

func (uc *ConfirmPaymentUseCase) Execute(ctx context.Context, input ConfirmPaymentInput) error {
	if input.SessionID == "" {
		return ErrValidation("session_id is required")
	}

	deal, err := uc.Deals.FindBySessionID(ctx, input.SessionID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrNotFound("no deal for session")
		}
		return ErrDatabase("failed to load deal", err)
	}

	// Never trust the callback body alone: confirm the session state with
	// the gateway before moving money state locally.
	session, err := uc.Gateway.RetrieveSession(ctx, input.SessionID)
	if err != nil {
		return ErrExternal("failed to verify session with gateway", err)
	}
	if !session.Paid {
		return ErrValidation("session is not paid")
	}

	confirmed, err := uc.Deals.ConfirmPaid(ctx, deal.ID, deal.PaidStatus(), input.ExternalRef)
	if err != nil {
		return ErrDatabase("failed to confirm payment", err)
	}
	if !confirmed {
		// Replay of an already-processed callback.
		log.WithField("deal_id", deal.ID).Info("payment confirmation replay ignored")
		return nil
	}

	uc.cascadeLeadWon(ctx, deal)
	return nil
}

func (uc *ConfirmPaymentUseCase) cascadeLeadWon(ctx context.Context, deal *entity.Deal) {
	lead, err := uc.Leads.FindByID(ctx, deal.LeadID)
	if err != nil {
		log.WithError(err).WithField("lead_id", deal.LeadID).Warn("payment confirmed but lead lookup failed")
		return
	}

	if lead.CanTransitionTo(entity.LeadStatusWon) {
		lead.Status = entity.LeadStatusWon
		lead.UpdatedAt = uc.Now()
		if err := uc.Leads.Update(ctx, lead); err != nil {
			log.WithError(err).WithField("lead_id", lead.ID).Warn("failed to advance lead to WON")
		}
	}

	if err := uc.Activities.Append(ctx, entity.NewActivity(lead.ID, entity.ActivityPaymentConfirmed, deal.ID)); err != nil {
		log.WithError(err).Warn("failed to append payment activity")
	}
}
