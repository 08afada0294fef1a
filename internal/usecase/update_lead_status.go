package usecase

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sitekick/pipeline/internal/entity"
)

// UpdateLeadStatusUseCase covers the manual moves (pipeline card drags,
// outreach marking). Event-driven moves live in the orchestrating use
// cases and bypass this table only for their documented cascades.
type UpdateLeadStatusUseCase struct {
	Leads      LeadRepository
	Activities ActivityRepository

	Now func() time.Time
}

func NewUpdateLeadStatusUseCase(leads LeadRepository, activities ActivityRepository) *UpdateLeadStatusUseCase {
	return &UpdateLeadStatusUseCase{
		Leads:      leads,
		Activities: activities,
		Now:        time.Now,
	}
}

func (uc *UpdateLeadStatusUseCase) Execute(ctx context.Context, input UpdateLeadStatusInput) (*entity.Lead, error) {
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

	if !lead.CanTransitionTo(input.Status) {
		return nil, ErrInvalidTransition("cannot move lead from " + lead.Status + " to " + input.Status)
	}

	now := uc.Now()
	kind := entity.ActivityStatusChanged
	if input.Status == entity.LeadStatusContacted {
		lead.LastContactedAt = &now
		kind = entity.ActivityOutreachSent
	}

	lead.Status = input.Status
	lead.UpdatedAt = now
	if err := uc.Leads.Update(ctx, lead); err != nil {
		return nil, ErrDatabase("failed to update lead status", err)
	}

	if err := uc.Activities.Append(ctx, entity.NewActivity(lead.ID, kind, input.Status)); err != nil {
		log.WithError(err).Warn("failed to append status activity")
	}

	return lead, nil
}
