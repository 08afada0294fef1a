package usecase

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sitekick/pipeline/internal/entity"
)

// ViewProposalUseCase serves the public, token-authenticated fetch. The
// first read flips SENT to VIEWED; the flip is monotonic and a lost race
// with another viewer is harmless.
type ViewProposalUseCase struct {
	Proposals  ProposalRepository
	Activities ActivityRepository

	Now func() time.Time
}

func NewViewProposalUseCase(proposals ProposalRepository, activities ActivityRepository) *ViewProposalUseCase {
	return &ViewProposalUseCase{
		Proposals:  proposals,
		Activities: activities,
		Now:        time.Now,
	}
}

func (uc *ViewProposalUseCase) Execute(ctx context.Context, accessToken string) (*entity.Proposal, error) {
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
	effective := proposal.EffectiveStatus(now)

	if proposal.Status == entity.ProposalStatusSent && effective == entity.ProposalStatusSent {
		viewed := *proposal
		viewed.Status = entity.ProposalStatusViewed
		viewed.ViewedAt = &now
		viewed.UpdatedAt = now

		flipped, err := uc.Proposals.UpdateIfStatus(ctx, &viewed, entity.ProposalStatusSent)
		if err != nil {
			log.WithError(err).WithField("proposal_id", proposal.ID).Warn("failed to record first view")
		} else if flipped {
			proposal = &viewed
			if err := uc.Activities.Append(ctx, entity.NewActivity(proposal.LeadID, entity.ActivityProposalViewed, proposal.Title)); err != nil {
				log.WithError(err).Warn("failed to append view activity")
			}
		}
		effective = proposal.EffectiveStatus(now)
	}

	// Report the derived status; the stored field may lag behind expiry.
	out := *proposal
	out.Status = effective
	out.AccessToken = "" // never echo the token back
	return &out, nil
}
