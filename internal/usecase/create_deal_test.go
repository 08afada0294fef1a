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

func dealFixture() (*CreateDealUseCase, *MockLeadRepository, *MockDealRepository, *MockActivityRepository, *MockPaymentGateway) {
	mockLeads := new(MockLeadRepository)
	mockDeals := new(MockDealRepository)
	mockActivities := new(MockActivityRepository)
	mockGateway := new(MockPaymentGateway)

	uc := NewCreateDealUseCase(mockLeads, mockDeals, mockActivities, mockGateway,
		0.10, "https://app.example.com/paid", "https://app.example.com/cancel")
	uc.Now = fixedTime
	return uc, mockLeads, mockDeals, mockActivities, mockGateway
}

func TestCreateDealSuccess(t *testing.T) {
	ctx := context.Background()
	uc, mockLeads, mockDeals, mockActivities, mockGateway := dealFixture()

	lead := &entity.Lead{ID: "lead-1", UserID: "user-1", Status: entity.LeadStatusInterested, BusinessName: "Rosa's Bakery"}

	mockLeads.On("FindByID", ctx, "lead-1").Return(lead, nil)
	mockDeals.On("FindActiveByLeadID", ctx, "lead-1").Return(nil, entity.ErrNotFound)
	mockGateway.On("CreateCheckoutSession", ctx, mock.MatchedBy(func(in paygate.CheckoutInput) bool {
		return in.Amount == 10000 && in.SuccessURL == "https://app.example.com/paid"
	})).Return(&paygate.CheckoutSession{ID: "sess-1", URL: "https://pay.example.com/sess-1"}, nil)
	mockDeals.On("Create", ctx, mock.Anything).Return(nil)
	mockLeads.On("Update", ctx, mock.Anything).Return(nil)
	mockActivities.On("Append", ctx, mock.Anything).Return(nil)

	out, err := uc.Execute(ctx, CreateDealInput{UserID: "user-1", LeadID: "lead-1", Amount: 10000})

	assert.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/sess-1", out.CheckoutURL)
	assert.Equal(t, entity.DealStatusPending, out.Deal.Status)
	assert.Equal(t, "sess-1", out.Deal.SessionID)
	assert.Equal(t, int64(1000), out.Deal.PlatformFee)
	assert.Equal(t, int64(9000), out.Deal.SellerPayout)
	assert.Equal(t, entity.LeadStatusNegotiating, lead.Status)
}

func TestCreateDealRecurringUsesSubscriptionSession(t *testing.T) {
	ctx := context.Background()
	uc, mockLeads, mockDeals, mockActivities, mockGateway := dealFixture()

	lead := &entity.Lead{ID: "lead-1", UserID: "user-1", Status: entity.LeadStatusNegotiating}

	mockLeads.On("FindByID", ctx, "lead-1").Return(lead, nil)
	mockDeals.On("FindActiveByLeadID", ctx, "lead-1").Return(nil, entity.ErrNotFound)
	mockGateway.On("CreateSubscriptionSession", ctx, mock.MatchedBy(func(in paygate.SubscriptionInput) bool {
		return in.Amount == 2500
	})).Return(&paygate.CheckoutSession{ID: "sess-1", URL: "u", SubscriptionID: "sub-1"}, nil)
	mockDeals.On("Create", ctx, mock.Anything).Return(nil)
	mockActivities.On("Append", ctx, mock.Anything).Return(nil)

	out, err := uc.Execute(ctx, CreateDealInput{
		UserID: "user-1", LeadID: "lead-1", Amount: 10000,
		IsRecurring: true, RecurringAmount: 2500,
	})

	assert.NoError(t, err)
	assert.Equal(t, "sub-1", out.Deal.SubscriptionID)
	mockGateway.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestCreateDealDuplicateActiveRejected(t *testing.T) {
	ctx := context.Background()
	uc, mockLeads, mockDeals, _, mockGateway := dealFixture()

	lead := &entity.Lead{ID: "lead-1", UserID: "user-1", Status: entity.LeadStatusNegotiating}
	existing := &entity.Deal{ID: "deal-0", LeadID: "lead-1", Status: entity.DealStatusPaid}

	mockLeads.On("FindByID", ctx, "lead-1").Return(lead, nil)
	mockDeals.On("FindActiveByLeadID", ctx, "lead-1").Return(existing, nil)

	_, err := uc.Execute(ctx, CreateDealInput{UserID: "user-1", LeadID: "lead-1", Amount: 10000})

	assert.Equal(t, CodeConflict, ErrorCode(err))
	mockGateway.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestCreateDealRacingInsertConflicts(t *testing.T) {
	ctx := context.Background()
	uc, mockLeads, mockDeals, _, mockGateway := dealFixture()

	lead := &entity.Lead{ID: "lead-1", UserID: "user-1", Status: entity.LeadStatusInterested}

	// Both racing creates pass the active-deal check; the unique index
	// rejects the second insert and the loser surfaces a conflict.
	mockLeads.On("FindByID", ctx, "lead-1").Return(lead, nil)
	mockDeals.On("FindActiveByLeadID", ctx, "lead-1").Return(nil, entity.ErrNotFound)
	mockGateway.On("CreateCheckoutSession", ctx, mock.Anything).Return(&paygate.CheckoutSession{ID: "sess-1", URL: "u"}, nil)
	mockDeals.On("Create", ctx, mock.Anything).Return(entity.ErrActiveDealExists)

	_, err := uc.Execute(ctx, CreateDealInput{UserID: "user-1", LeadID: "lead-1", Amount: 10000})

	assert.Equal(t, CodeConflict, ErrorCode(err))
	mockDeals.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	mockLeads.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestCreateDealGatewayFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	uc, mockLeads, mockDeals, _, mockGateway := dealFixture()

	lead := &entity.Lead{ID: "lead-1", UserID: "user-1", Status: entity.LeadStatusInterested}

	mockLeads.On("FindByID", ctx, "lead-1").Return(lead, nil)
	mockDeals.On("FindActiveByLeadID", ctx, "lead-1").Return(nil, entity.ErrNotFound)
	mockGateway.On("CreateCheckoutSession", ctx, mock.Anything).Return(nil, errors.New("gateway down"))

	_, err := uc.Execute(ctx, CreateDealInput{UserID: "user-1", LeadID: "lead-1", Amount: 10000})

	assert.Equal(t, CodeExternalService, ErrorCode(err))
	mockDeals.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateDealValidation(t *testing.T) {
	ctx := context.Background()
	uc, _, _, _, _ := dealFixture()

	_, err := uc.Execute(ctx, CreateDealInput{UserID: "user-1", LeadID: "lead-1", Amount: 0})
	assert.Equal(t, CodeValidation, ErrorCode(err))

	_, err = uc.Execute(ctx, CreateDealInput{UserID: "user-1", LeadID: "lead-1", Amount: 10000, IsRecurring: true})
	assert.Equal(t, CodeValidation, ErrorCode(err))
}

func TestCreateDealWrongOwner(t *testing.T) {
	ctx := context.Background()
	uc, mockLeads, _, _, _ := dealFixture()

	lead := &entity.Lead{ID: "lead-1", UserID: "someone-else"}
	mockLeads.On("FindByID", ctx, "lead-1").Return(lead, nil)

	_, err := uc.Execute(ctx, CreateDealInput{UserID: "user-1", LeadID: "lead-1", Amount: 10000})
	assert.Equal(t, CodeNotAuthorized, ErrorCode(err))
}
