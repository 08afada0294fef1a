package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sitekick/pipeline/internal/entity"
	"github.com/sitekick/pipeline/internal/infra/integration/paygate"
	"github.com/sitekick/pipeline/internal/infra/queue"
	"github.com/sitekick/pipeline/internal/usecase"
)

// MockBookingRepo
type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) CreateIfFree(ctx context.Context, b *entity.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepo) FindByID(ctx context.Context, id string) (*entity.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Booking), args.Error(1)
}

func (m *MockBookingRepo) FindByConfirmationCode(ctx context.Context, code string) (*entity.Booking, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Booking), args.Error(1)
}

func (m *MockBookingRepo) ListBlocking(ctx context.Context, websiteID, date string) ([]*entity.Booking, error) {
	args := m.Called(ctx, websiteID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Booking), args.Error(1)
}

func (m *MockBookingRepo) UpdateStatus(ctx context.Context, id, from, to string) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

// MockLeadRepo
type MockLeadRepo struct {
	mock.Mock
}

func (m *MockLeadRepo) Create(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepo) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepo) FindByWebsiteID(ctx context.Context, websiteID string) (*entity.Lead, error) {
	args := m.Called(ctx, websiteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepo) Update(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepo) ListDueFollowUps(ctx context.Context, userID string, now time.Time) ([]*entity.Lead, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Lead), args.Error(1)
}

// MockServiceRepo
type MockServiceRepo struct {
	mock.Mock
}

func (m *MockServiceRepo) FindByID(ctx context.Context, id string) (*entity.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Service), args.Error(1)
}

// MockActivityRepo
type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) Append(ctx context.Context, a *entity.Activity) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockActivityRepo) ListByLeadID(ctx context.Context, leadID string, limit int) ([]*entity.Activity, error) {
	args := m.Called(ctx, leadID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Activity), args.Error(1)
}

// MockDealRepo
type MockDealRepo struct {
	mock.Mock
}

func (m *MockDealRepo) Create(ctx context.Context, deal *entity.Deal) error {
	args := m.Called(ctx, deal)
	return args.Error(0)
}

func (m *MockDealRepo) FindByID(ctx context.Context, id string) (*entity.Deal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Deal), args.Error(1)
}

func (m *MockDealRepo) FindActiveByLeadID(ctx context.Context, leadID string) (*entity.Deal, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Deal), args.Error(1)
}

func (m *MockDealRepo) FindBySessionID(ctx context.Context, sessionID string) (*entity.Deal, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Deal), args.Error(1)
}

func (m *MockDealRepo) Update(ctx context.Context, deal *entity.Deal) error {
	args := m.Called(ctx, deal)
	return args.Error(0)
}

func (m *MockDealRepo) ConfirmPaid(ctx context.Context, dealID, toStatus, externalRef string) (bool, error) {
	args := m.Called(ctx, dealID, toStatus, externalRef)
	return args.Bool(0), args.Error(1)
}

func (m *MockDealRepo) MarkRefunded(ctx context.Context, deal *entity.Deal) (bool, error) {
	args := m.Called(ctx, deal)
	return args.Bool(0), args.Error(1)
}

func (m *MockDealRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, input paygate.CheckoutInput) (*paygate.CheckoutSession, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paygate.CheckoutSession), args.Error(1)
}

func (m *MockGateway) CreateSubscriptionSession(ctx context.Context, input paygate.SubscriptionInput) (*paygate.CheckoutSession, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paygate.CheckoutSession), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, input paygate.RefundInput) (*paygate.RefundResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paygate.RefundResult), args.Error(1)
}

func (m *MockGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	args := m.Called(ctx, subscriptionID)
	return args.Error(0)
}

func (m *MockGateway) RetrieveSession(ctx context.Context, sessionID string) (*paygate.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paygate.Session), args.Error(1)
}

// MockProducer
type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) PublishNotification(ctx context.Context, payload queue.NotificationPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func newBookingHandler(bookings *MockBookingRepo, leads *MockLeadRepo) *BookingHandler {
	services := new(MockServiceRepo)
	activities := new(MockActivityRepo)
	producer := new(MockProducer)
	activities.On("Append", mock.Anything, mock.Anything).Return(nil)
	producer.On("PublishNotification", mock.Anything, mock.Anything).Return(nil)

	createUC := usecase.NewCreateBookingUseCase(bookings, services, leads, activities, producer)
	availabilityUC := usecase.NewBookingAvailabilityUseCase(bookings, services, leads, 540, 1020)
	statusUC := usecase.NewUpdateBookingStatusUseCase(bookings, leads)

	return NewBookingHandler(createUC, availabilityUC, statusUC, bookings)
}

func TestCreateBookingHandlerSuccess(t *testing.T) {
	bookings := new(MockBookingRepo)
	leads := new(MockLeadRepo)

	lead := &entity.Lead{ID: "lead-1", WebsiteID: "site-1", BusinessName: "Rosa's Bakery"}
	leads.On("FindByWebsiteID", mock.Anything, "site-1").Return(lead, nil)
	bookings.On("CreateIfFree", mock.Anything, mock.Anything).Return(nil)

	handler := newBookingHandler(bookings, leads)

	input := usecase.CreateBookingInput{
		WebsiteID:     "site-1",
		Date:          "2025-06-02",
		StartTime:     "09:00",
		CustomerName:  "Maria Gomez",
		CustomerEmail: "maria@example.com",
	}
	body, _ := json.Marshal(input)
	req := httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.HandleCreate(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response usecase.CreateBookingOutput
	json.NewDecoder(w.Body).Decode(&response)
	assert.NotEmpty(t, response.ConfirmationCode)
	assert.Equal(t, entity.BookingStatusPending, response.Booking.Status)
}

func TestCreateBookingHandlerConflict(t *testing.T) {
	bookings := new(MockBookingRepo)
	leads := new(MockLeadRepo)

	lead := &entity.Lead{ID: "lead-1", WebsiteID: "site-1"}
	leads.On("FindByWebsiteID", mock.Anything, "site-1").Return(lead, nil)
	bookings.On("CreateIfFree", mock.Anything, mock.Anything).Return(entity.ErrBookingConflict)

	handler := newBookingHandler(bookings, leads)

	input := usecase.CreateBookingInput{
		WebsiteID:     "site-1",
		Date:          "2025-06-02",
		StartTime:     "09:15",
		CustomerName:  "Maria Gomez",
		CustomerEmail: "maria@example.com",
	}
	body, _ := json.Marshal(input)
	req := httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.HandleCreate(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var errResponse map[string]string
	json.NewDecoder(w.Body).Decode(&errResponse)
	assert.Equal(t, usecase.CodeConflict, errResponse["code"])
}

func TestCreateBookingHandlerInvalidJSON(t *testing.T) {
	handler := newBookingHandler(new(MockBookingRepo), new(MockLeadRepo))

	req := httptest.NewRequest("POST", "/bookings", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()

	handler.HandleCreate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityHandler(t *testing.T) {
	bookings := new(MockBookingRepo)
	leads := new(MockLeadRepo)

	lead := &entity.Lead{ID: "lead-1", WebsiteID: "site-1"}
	leads.On("FindByWebsiteID", mock.Anything, "site-1").Return(lead, nil)
	bookings.On("ListBlocking", mock.Anything, "site-1", "2025-06-02").Return([]*entity.Booking{
		{StartMinute: 600, EndMinute: 660, Status: entity.BookingStatusConfirmed},
	}, nil)

	handler := newBookingHandler(bookings, leads)

	req := httptest.NewRequest("GET", "/websites/site-1/availability?date=2025-06-02", nil)
	chiCtx := chi.NewRouteContext()
	chiCtx.URLParams.Add("websiteId", "site-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
	w := httptest.NewRecorder()

	handler.HandleAvailability(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response usecase.AvailabilityOutput
	json.NewDecoder(w.Body).Decode(&response)
	assert.Equal(t, []usecase.FreeInterval{
		{Start: "09:00", End: "10:00"},
		{Start: "11:00", End: "17:00"},
	}, response.Intervals)
}

func TestLookupHandlerNotFound(t *testing.T) {
	bookings := new(MockBookingRepo)
	bookings.On("FindByConfirmationCode", mock.Anything, "NOPE").Return(nil, entity.ErrNotFound)

	handler := newBookingHandler(bookings, new(MockLeadRepo))

	req := httptest.NewRequest("GET", "/bookings/code/NOPE", nil)
	chiCtx := chi.NewRouteContext()
	chiCtx.URLParams.Add("code", "NOPE")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
	w := httptest.NewRecorder()

	handler.HandleLookup(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
