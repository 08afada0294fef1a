package usecase

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sitekick/pipeline/internal/entity"
	"github.com/sitekick/pipeline/internal/infra/queue"
)

const defaultProposalExpiryDays = 30

type SendProposalUseCase struct {
	Leads      LeadRepository
	Proposals  ProposalRepository
	Deals      DealRepository
	Activities ActivityRepository
	Queue      queue.QueueProducerInterface

	// PublicBaseURL prefixes the tokenized proposal link in the email.
	PublicBaseURL string

	Now func() time.Time
}

func NewSendProposalUseCase(
	leads LeadRepository,
	proposals ProposalRepository,
	deals DealRepository,
	activities ActivityRepository,
	producer queue.QueueProducerInterface,
	publicBaseURL string,
) *SendProposalUseCase {
	return &SendProposalUseCase{
		Leads:         leads,
		Proposals:     proposals,
		Deals:         deals,
		Activities:    activities,
		Queue:         producer,
		PublicBaseURL: publicBaseURL,
		Now:           time.Now,
	}
}

func (uc *SendProposalUseCase) Execute(ctx context.Context, input SendProposalInput) (*entity.Proposal, error) {
	if validationErrors := ValidateSendProposalInput(input); len(validationErrors) > 0 {
		return nil, joinValidationErrors(validationErrors)
	}

	lead, err := uc.Leads.FindByID(ctx, input.LeadID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrNotFound("lead not found")
		}
		return nil, ErrDatabase("failed to load lead", err)
	}
	if lead.UserID != input.UserID {
		return nil, ErrNotAuthorized("lead does not belong to caller")
	}

	// One active proposal per lead. The repository query already treats
	// lapsed proposals as expired, so a stale SENT row does not block.
	if _, err := uc.Proposals.FindActiveByLeadID(ctx, lead.ID); err == nil {
		return nil, ErrConflict("lead already has an active proposal")
	} else if !errors.Is(err, entity.ErrNotFound) {
		return nil, ErrDatabase("failed to check existing proposals", err)
	}

	now := uc.Now()
	expiryDays := input.ExpiresInDays
	if expiryDays <= 0 {
		expiryDays = defaultProposalExpiryDays
	}
	expiresAt := now.AddDate(0, 0, expiryDays)

	proposal := entity.NewProposal(lead.ID, lead.UserID, input.Title, input.Amount, input.IsRecurring)
	proposal.Scope = input.Scope
	proposal.Timeline = input.Timeline
	proposal.Terms = input.Terms
	proposal.Status = entity.ProposalStatusSent
	proposal.SentAt = &now
	proposal.ExpiresAt = &expiresAt

	// A deal opened before the proposal was written gets quoted by it.
	if deal, err := uc.Deals.FindActiveByLeadID(ctx, lead.ID); err == nil {
		proposal.DealID = deal.ID
	}

	txn := NewTransaction()
	txn.AddOperation("create_proposal", func(ctx context.Context) error {
		return uc.Proposals.Create(ctx, proposal)
	})
	txn.AddOperation("advance_lead", func(ctx context.Context) error {
		if lead.Status == entity.LeadStatusNegotiating || !lead.CanTransitionTo(entity.LeadStatusNegotiating) {
			return nil
		}
		lead.Status = entity.LeadStatusNegotiating
		lead.UpdatedAt = now
		return uc.Leads.Update(ctx, lead)
	})

	if err := txn.Execute(ctx); err != nil {
		// A racing send passed the same FindActiveByLeadID check; the
		// unique active-proposal index decides the winner.
		if errors.Is(err, entity.ErrActiveProposalExists) {
			return nil, ErrConflict("lead already has an active proposal")
		}
		return nil, ErrDatabase("failed to persist proposal", err)
	}

	if err := uc.Activities.Append(ctx, entity.NewActivity(lead.ID, entity.ActivityProposalSent, proposal.Title)); err != nil {
		log.WithError(err).Warn("failed to append proposal activity")
	}

	payload := queue.NotificationPayload{
		Kind:          queue.NotifyProposalSent,
		To:            input.RecipientEmail,
		Name:          lead.BusinessName,
		LeadID:        lead.ID,
		ProposalTitle: proposal.Title,
		ProposalLink:  uc.PublicBaseURL + "/proposals/" + proposal.AccessToken,
	}
	if err := uc.Queue.PublishNotification(ctx, payload); err != nil {
		log.WithError(err).Warn("failed to enqueue proposal email")
	}

	return proposal, nil
}
