package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sitekick/pipeline/internal/entity"
	"github.com/sitekick/pipeline/internal/infra/integration/paygate"
	"github.com/sitekick/pipeline/internal/infra/queue"
)

// AcceptProposalUseCase is the cross-lifecycle acceptance: mark the
// proposal, ensure a deal with an open payment session, advance the lead,
// return the redirect URL. The gateway call happens before any write, so
// a gateway failure leaves the proposal untouched and the recipient can
// retry.
type AcceptProposalUseCase struct {
	Proposals  ProposalRepository
	Deals      DealRepository
	Leads      LeadRepository
	Activities ActivityRepository
	Gateway    PaymentGateway
	Queue      queue.QueueProducerInterface

	FeeRate    float64
	SuccessURL string
	CancelURL  string

	Now func() time.Time
}

func NewAcceptProposalUseCase(
	proposals ProposalRepository,
	deals DealRepository,
	leads LeadRepository,
	activities ActivityRepository,
	gateway PaymentGateway,
	producer queue.QueueProducerInterface,
	feeRate float64,
	successURL, cancelURL string,
) *AcceptProposalUseCase {
	return &AcceptProposalUseCase{
		Proposals:  proposals,
		Deals:      deals,
		Leads:      leads,
		Activities: activities,
		Gateway:    gateway,
		Queue:      producer,
		FeeRate:    feeRate,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Now:        time.Now,
	}
}

func (uc *AcceptProposalUseCase) Execute(ctx context.Context, input AcceptProposalInput) (*AcceptProposalOutput, error) {
	if strings.TrimSpace(input.ClientName) == "" {
		return nil, ErrValidation("client_name is required")
	}

	proposal, err := uc.loadOpenProposal(ctx, input.AccessToken)
	if err != nil {
		return nil, err
	}

	lead, err := uc.Leads.FindByID(ctx, proposal.LeadID)
	if err != nil {
		return nil, ErrDatabase("failed to load lead", err)
	}

	now := uc.Now()

	// Ensure a deal. Either the proposal quotes one already opened, or a
	// fresh one is created at acceptance time.
	deal, created, err := uc.ensureDeal(ctx, proposal, lead)
	if err != nil {
		return nil, err
	}

	// Payment session before any local write.
	session, err := uc.openSession(ctx, deal, lead)
	if err != nil {
		return nil, ErrExternal("payment gateway rejected the session", err)
	}
	deal.SessionID = session.ID
	deal.SubscriptionID = session.SubscriptionID
	deal.PriceID = session.PriceID

	accepted := *proposal
	accepted.Status = entity.ProposalStatusAccepted
	accepted.AcceptedAt = &now
	accepted.ClientName = input.ClientName
	accepted.DealID = deal.ID
	accepted.UpdatedAt = now

	// The all-or-nothing boundary is deal + proposal. The accept flip is
	// the last step, so its failure rolls a freshly created deal back and
	// the proposal stays open for a retry. The lead cascade runs after
	// the boundary, best effort.
	txn := NewTransaction()
	if created {
		txn.AddOperation("create_deal", func(ctx context.Context) error {
			return uc.Deals.Create(ctx, deal)
		})
		txn.AddCompensation("delete_deal", func(ctx context.Context) error {
			return uc.Deals.Delete(ctx, deal.ID)
		})
	} else {
		txn.AddOperation("update_deal", func(ctx context.Context) error {
			return uc.Deals.Update(ctx, deal)
		})
		txn.AddCompensation("noop", func(ctx context.Context) error { return nil })
	}
	txn.AddOperation("accept_proposal", func(ctx context.Context) error {
		flipped, err := uc.Proposals.UpdateIfStatus(ctx, &accepted, proposal.Status)
		if err != nil {
			return err
		}
		if !flipped {
			return errors.New("proposal changed concurrently")
		}
		return nil
	})

	if err := txn.Execute(ctx); err != nil {
		if errors.Is(err, entity.ErrActiveDealExists) {
			return nil, ErrConflict("lead already has an active deal")
		}
		return nil, ErrDatabase("failed to record acceptance", err)
	}

	if lead.Status != entity.LeadStatusNegotiating && lead.CanTransitionTo(entity.LeadStatusNegotiating) {
		lead.Status = entity.LeadStatusNegotiating
		lead.UpdatedAt = now
		if err := uc.Leads.Update(ctx, lead); err != nil {
			log.WithError(err).WithField("lead_id", lead.ID).Warn("failed to advance lead after acceptance")
		}
	}

	if err := uc.Activities.Append(ctx, entity.NewActivity(lead.ID, entity.ActivityProposalAccepted, input.ClientName)); err != nil {
		log.WithError(err).Warn("failed to append acceptance activity")
	}

	if lead.Email != "" {
		payload := queue.NotificationPayload{
			Kind:          queue.NotifyProposalAccepted,
			To:            lead.Email,
			Name:          lead.BusinessName,
			LeadID:        lead.ID,
			ProposalTitle: proposal.Title,
		}
		if err := uc.Queue.PublishNotification(ctx, payload); err != nil {
			log.WithError(err).Warn("failed to enqueue acceptance notice")
		}
	}

	return &AcceptProposalOutput{
		Proposal:           &accepted,
		PaymentRedirectURL: session.URL,
	}, nil
}

func (uc *AcceptProposalUseCase) loadOpenProposal(ctx context.Context, accessToken string) (*entity.Proposal, error) {
	if accessToken == "" {
		return nil, ErrValidation("access token is required")
	}

	proposal, err := uc.Proposals.FindByAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrNotFound("proposal not found")
		}
		return nil, ErrDatabase("failed to load proposal", err)
	}

	switch proposal.EffectiveStatus(uc.Now()) {
	case entity.ProposalStatusSent, entity.ProposalStatusViewed:
		return proposal, nil
	case entity.ProposalStatusExpired:
		return nil, ErrInvalidTransition("proposal has expired")
	default:
		return nil, ErrInvalidTransition("proposal is already decided")
	}
}

func (uc *AcceptProposalUseCase) ensureDeal(ctx context.Context, proposal *entity.Proposal, lead *entity.Lead) (*entity.Deal, bool, error) {
	if proposal.DealID != "" {
		deal, err := uc.Deals.FindByID(ctx, proposal.DealID)
		if err == nil && deal.Active() {
			return deal, false, nil
		}
		if err != nil && !errors.Is(err, entity.ErrNotFound) {
			return nil, false, ErrDatabase("failed to load quoted deal", err)
		}
	}

	if deal, err := uc.Deals.FindActiveByLeadID(ctx, lead.ID); err == nil {
		return deal, false, nil
	} else if !errors.Is(err, entity.ErrNotFound) {
		return nil, false, ErrDatabase("failed to check existing deals", err)
	}

	recurring := int64(0)
	if proposal.IsRecurring {
		recurring = proposal.Amount
	}
	deal := entity.NewDeal(lead.ID, lead.UserID, proposal.Amount, proposal.IsRecurring, recurring, uc.FeeRate)
	return deal, true, nil
}

func (uc *AcceptProposalUseCase) openSession(ctx context.Context, deal *entity.Deal, lead *entity.Lead) (*paygate.CheckoutSession, error) {
	description := "Proposal for " + lead.BusinessName
	if deal.IsRecurring {
		return uc.Gateway.CreateSubscriptionSession(ctx, paygate.SubscriptionInput{
			DealID:        deal.ID,
			Amount:        deal.RecurringAmount,
			Description:   description,
			CustomerEmail: lead.Email,
			SuccessURL:    uc.SuccessURL,
			CancelURL:     uc.CancelURL,
		})
	}
	return uc.Gateway.CreateCheckoutSession(ctx, paygate.CheckoutInput{
		DealID:        deal.ID,
		Amount:        deal.Amount,
		Description:   description,
		CustomerEmail: lead.Email,
		SuccessURL:    uc.SuccessURL,
		CancelURL:     uc.CancelURL,
	})
}

// DeclineProposalUseCase records the recipient's decline and drops the
// lead to LOST.
type DeclineProposalUseCase struct {
	Proposals  ProposalRepository
	Leads      LeadRepository
	Activities ActivityRepository

	Now func() time.Time
}

func NewDeclineProposalUseCase(
	proposals ProposalRepository,
	leads LeadRepository,
	activities ActivityRepository,
) *DeclineProposalUseCase {
	return &DeclineProposalUseCase{
		Proposals:  proposals,
		Leads:      leads,
		Activities: activities,
		Now:        time.Now,
	}
}

func (uc *DeclineProposalUseCase) Execute(ctx context.Context, accessToken string) (*entity.Proposal, error) {
	if accessToken == "" {
		return nil, ErrValidation("access token is required")
	}

	proposal, err := uc.Proposals.FindByAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrNotFound("proposal not found")
		}
		return nil, ErrDatabase("failed to load proposal", err)
	}

	now := uc.Now()
	switch proposal.EffectiveStatus(now) {
	case entity.ProposalStatusSent, entity.ProposalStatusViewed:
	case entity.ProposalStatusExpired:
		return nil, ErrInvalidTransition("proposal has expired")
	default:
		return nil, ErrInvalidTransition("proposal is already decided")
	}

	declined := *proposal
	declined.Status = entity.ProposalStatusDeclined
	declined.DeclinedAt = &now
	declined.UpdatedAt = now

	flipped, err := uc.Proposals.UpdateIfStatus(ctx, &declined, proposal.Status)
	if err != nil {
		return nil, ErrDatabase("failed to record decline", err)
	}
	if !flipped {
		return nil, ErrInvalidTransition("proposal changed concurrently")
	}

	if lead, err := uc.Leads.FindByID(ctx, proposal.LeadID); err == nil {
		if lead.Status != entity.LeadStatusLost && !lead.IsTerminal() {
			lead.Status = entity.LeadStatusLost
			lead.UpdatedAt = now
			if err := uc.Leads.Update(ctx, lead); err != nil {
				log.WithError(err).WithField("lead_id", lead.ID).Warn("failed to move lead to LOST")
			}
		}
		if err := uc.Activities.Append(ctx, entity.NewActivity(lead.ID, entity.ActivityProposalDeclined, proposal.Title)); err != nil {
			log.WithError(err).Warn("failed to append decline activity")
		}
	}

	return &declined, nil
}
