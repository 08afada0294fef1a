package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sitekick/pipeline/internal/entity"
	"github.com/sitekick/pipeline/internal/infra/integration/paygate"
)

type CreateDealUseCase struct {
	Leads      LeadRepository
	Deals      DealRepository
	Activities ActivityRepository
	Gateway    PaymentGateway

	// FeeRate is the platform cut snapshotted into every new deal.
	FeeRate    float64
	SuccessURL string
	CancelURL  string

	Now func() time.Time
}

func NewCreateDealUseCase(
	leads LeadRepository,
	deals DealRepository,
	activities ActivityRepository,
	gateway PaymentGateway,
	feeRate float64,
	successURL, cancelURL string,
) *CreateDealUseCase {
	return &CreateDealUseCase{
		Leads:      leads,
		Deals:      deals,
		Activities: activities,
		Gateway:    gateway,
		FeeRate:    feeRate,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Now:        time.Now,
	}
}

func (uc *CreateDealUseCase) Execute(ctx context.Context, input CreateDealInput) (*CreateDealOutput, error) {
	if validationErrors := ValidateCreateDealInput(input); len(validationErrors) > 0 {
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

	if _, err := uc.Deals.FindActiveByLeadID(ctx, lead.ID); err == nil {
		return nil, ErrConflict("lead already has an active deal")
	} else if !errors.Is(err, entity.ErrNotFound) {
		return nil, ErrDatabase("failed to check existing deals", err)
	}

	deal := entity.NewDeal(lead.ID, lead.UserID, input.Amount, input.IsRecurring, input.RecurringAmount, uc.FeeRate)

	// Gateway session first: a failure here aborts with nothing persisted.
	session, err := uc.openSession(ctx, deal, lead)
	if err != nil {
		return nil, ErrExternal("payment gateway rejected the session", err)
	}
	deal.SessionID = session.ID
	deal.SubscriptionID = session.SubscriptionID
	deal.PriceID = session.PriceID

	txn := NewTransaction()
	txn.AddOperation("create_deal", func(ctx context.Context) error {
		return uc.Deals.Create(ctx, deal)
	})
	txn.AddCompensation("delete_deal", func(ctx context.Context) error {
		return uc.Deals.Delete(ctx, deal.ID)
	})
	txn.AddOperation("advance_lead", func(ctx context.Context) error {
		if lead.Status == entity.LeadStatusNegotiating || !lead.CanTransitionTo(entity.LeadStatusNegotiating) {
			return nil
		}
		lead.Status = entity.LeadStatusNegotiating
		lead.UpdatedAt = uc.Now()
		return uc.Leads.Update(ctx, lead)
	})

	if err := txn.Execute(ctx); err != nil {
		// The insert lost a race the FindActiveByLeadID check could not
		// see; the unique active-deal index is the real guard.
		if errors.Is(err, entity.ErrActiveDealExists) {
			return nil, ErrConflict("lead already has an active deal")
		}
		return nil, ErrDatabase("failed to persist deal", err)
	}

	if err := uc.Activities.Append(ctx, entity.NewActivity(lead.ID, entity.ActivityStatusChanged,
		fmt.Sprintf("deal created for %d", deal.Amount))); err != nil {
		log.WithError(err).Warn("failed to append deal activity")
	}

	return &CreateDealOutput{Deal: deal, CheckoutURL: session.URL}, nil
}

func (uc *CreateDealUseCase) openSession(ctx context.Context, deal *entity.Deal, lead *entity.Lead) (*paygate.CheckoutSession, error) {
	description := "Deal with " + lead.BusinessName
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
