package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sitekick/pipeline/internal/entity"
	"github.com/sitekick/pipeline/internal/infra/integration/paygate"
)

func confirmFixture() (*ConfirmPaymentUseCase, *MockDealRepository, *MockLeadRepository, *MockActivityRepository, *MockPaymentGateway) {
	mockDeals := new(MockDealRepository)
	mockLeads := new(MockLeadRepository)
	mockActivities := new(MockActivityRepository)
	mockGateway := new(MockPaymentGateway)

	uc := NewConfirmPaymentUseCase(mockDeals, mockLeads, mockActivities, mockGateway)
	uc.Now = fixedTime
	return uc, mockDeals, mockLeads, mockActivities, mockGateway
}

func TestConfirmPaymentSuccess(t *testing.T) {
	ctx := context.Background()
	uc, mockDeals, mockLeads, mockActivities, mockGateway := confirmFixture()

	deal := &entity.Deal{ID: "deal-1", LeadID: "lead-1", Status: entity.DealStatusPending, SessionID: "sess-1"}
	lead := &entity.Lead{ID: "lead-1", Status: entity.LeadStatusNegotiating}

	mockDeals.On("FindBySessionID", ctx, "sess-1").Return(deal, nil)
	mockGateway.On("RetrieveSession", ctx, "sess-1").Return(&paygate.Session{ID: "sess-1", Paid: true}, nil)
	mockDeals.On("ConfirmPaid", ctx, "deal-1", entity.DealStatusPaid, "evt-1").Return(true, nil)
	mockLeads.On("FindByID", ctx, "lead-1").Return(lead, nil)
	mockLeads.On("Update", ctx, mock.Anything).Return(nil)
	mockActivities.On("Append", ctx, mock.Anything).Return(nil)

	err := uc.Execute(ctx, ConfirmPaymentInput{SessionID: "sess-1", ExternalRef: "evt-1"})

	assert.NoError(t, err)
	assert.Equal(t, entity.LeadStatusWon, lead.Status, "confirmed payment advances the lead to WON")
	mockDeals.AssertCalled(t, "ConfirmPaid", ctx, "deal-1", entity.DealStatusPaid, "evt-1")
}

func TestConfirmPaymentRecurringDeal(t *testing.T) {
	ctx := context.Background()
	uc, mockDeals, mockLeads, mockActivities, mockGateway := confirmFixture()

	deal := &entity.Deal{ID: "deal-1", LeadID: "lead-1", Status: entity.DealStatusPending, SessionID: "sess-1", IsRecurring: true}
	lead := &entity.Lead{ID: "lead-1", Status: entity.LeadStatusNegotiating}

	mockDeals.On("FindBySessionID", ctx, "sess-1").Return(deal, nil)
	mockGateway.On("RetrieveSession", ctx, "sess-1").Return(&paygate.Session{ID: "sess-1", Paid: true}, nil)
	mockDeals.On("ConfirmPaid", ctx, "deal-1", entity.DealStatusActiveSubscription, "evt-1").Return(true, nil)
	mockLeads.On("FindByID", ctx, "lead-1").Return(lead, nil)
	mockLeads.On("Update", ctx, mock.Anything).Return(nil)
	mockActivities.On("Append", ctx, mock.Anything).Return(nil)

	err := uc.Execute(ctx, ConfirmPaymentInput{SessionID: "sess-1", ExternalRef: "evt-1"})

	assert.NoError(t, err)
	mockDeals.AssertCalled(t, "ConfirmPaid", ctx, "deal-1", entity.DealStatusActiveSubscription, "evt-1")
}

func TestConfirmPaymentReplayIsNoOp(t *testing.T) {
	ctx := context.Background()
	uc, mockDeals, mockLeads, _, mockGateway := confirmFixture()

	deal := &entity.Deal{ID: "deal-1", LeadID: "lead-1", Status: entity.DealStatusPaid, SessionID: "sess-1"}

	mockDeals.On("FindBySessionID", ctx, "sess-1").Return(deal, nil)
	mockGateway.On("RetrieveSession", ctx, "sess-1").Return(&paygate.Session{ID: "sess-1", Paid: true}, nil)
	mockDeals.On("ConfirmPaid", ctx, "deal-1", entity.DealStatusPaid, "evt-1").Return(false, nil)

	err := uc.Execute(ctx, ConfirmPaymentInput{SessionID: "sess-1", ExternalRef: "evt-1"})

	assert.NoError(t, err, "a replayed callback is absorbed, not an error")
	mockLeads.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestConfirmPaymentUnpaidSessionRejected(t *testing.T) {
	ctx := context.Background()
	uc, mockDeals, _, _, mockGateway := confirmFixture()

	deal := &entity.Deal{ID: "deal-1", LeadID: "lead-1", Status: entity.DealStatusPending, SessionID: "sess-1"}

	mockDeals.On("FindBySessionID", ctx, "sess-1").Return(deal, nil)
	mockGateway.On("RetrieveSession", ctx, "sess-1").Return(&paygate.Session{ID: "sess-1", Paid: false}, nil)

	err := uc.Execute(ctx, ConfirmPaymentInput{SessionID: "sess-1", ExternalRef: "evt-1"})

	assert.Equal(t, CodeValidation, ErrorCode(err))
	mockDeals.AssertNotCalled(t, "ConfirmPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPaymentGatewayVerificationFails(t *testing.T) {
	ctx := context.Background()
	uc, mockDeals, _, _, mockGateway := confirmFixture()

	deal := &entity.Deal{ID: "deal-1", LeadID: "lead-1", Status: entity.DealStatusPending, SessionID: "sess-1"}

	mockDeals.On("FindBySessionID", ctx, "sess-1").Return(deal, nil)
	mockGateway.On("RetrieveSession", ctx, "sess-1").Return(nil, errors.New("gateway timeout"))

	err := uc.Execute(ctx, ConfirmPaymentInput{SessionID: "sess-1", ExternalRef: "evt-1"})
	assert.Equal(t, CodeExternalService, ErrorCode(err))
}

func TestConfirmPaymentUnknownSession(t *testing.T) {
	ctx := context.Background()
	uc, mockDeals, _, _, _ := confirmFixture()

	mockDeals.On("FindBySessionID", ctx, "sess-x").Return(nil, entity.ErrNotFound)

	err := uc.Execute(ctx, ConfirmPaymentInput{SessionID: "sess-x"})
	assert.Equal(t, CodeNotFound, ErrorCode(err))
}
