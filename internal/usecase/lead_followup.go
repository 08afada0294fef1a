package usecase

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sitekick/pipeline/internal/entity"
)

type FollowUpUseCase struct {
	Leads      LeadRepository
	Activities ActivityRepository

	Now func() time.Time
}

func NewFollowUpUseCase(leads LeadRepository, activities ActivityRepository) *FollowUpUseCase {
	return &FollowUpUseCase{
		Leads:      leads,
		Activities: activities,
		Now:        time.Now,
	}
}

func (uc *FollowUpUseCase) Schedule(ctx context.Context, input ScheduleFollowUpInput) (*entity.Lead, error) {
	when, err := time.Parse(time.RFC3339, input.When)
	if err != nil {
		return nil, ErrValidation("when must be RFC3339")
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

	lead.NextFollowUp = &when
	lead.UpdatedAt = uc.Now()
	if err := uc.Leads.Update(ctx, lead); err != nil {
		return nil, ErrDatabase("failed to schedule follow-up", err)
	}

	if err := uc.Activities.Append(ctx, entity.NewActivity(lead.ID, entity.ActivityFollowUpSet, when.Format(time.RFC3339))); err != nil {
		log.WithError(err).Warn("failed to append follow-up activity")
	}

	return lead, nil
}

// ListDue is the "due today or overdue" worklist. A plain range query:
// refresh cadence is a product choice, not a correctness one.
func (uc *FollowUpUseCase) ListDue(ctx context.Context, userID string) ([]*entity.Lead, error) {
	leads, err := uc.Leads.ListDueFollowUps(ctx, userID, uc.Now())
	if err != nil {
		return nil, ErrDatabase("failed to list due follow-ups", err)
	}
	return leads, nil
}
