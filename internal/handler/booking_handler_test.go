package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingomarket/lingomarket-api/internal/middleware"
	"github.com/lingomarket/lingomarket-api/internal/models"
	"github.com/lingomarket/lingomarket-api/internal/payments"
	"github.com/lingomarket/lingomarket-api/internal/service"
)

type bookingRepoStub struct {
	booking  *models.Booking
	affected int64
	lists    map[string][]models.BookingDetail
}

func (s *bookingRepoStub) Create(_ context.Context, booking *models.Booking) error {
	booking.ID = "b1"
	return nil
}

func (s *bookingRepoStub) FindByID(_ context.Context, _ string) (*models.Booking, error) {
	b := *s.booking
	return &b, nil
}

func (s *bookingRepoStub) MarkPaymentStatus(_ context.Context, _ string, status models.PaymentStatus, paymentID string, _ *models.PaymentDetails) (int64, error) {
	if s.affected == 1 {
		s.booking.PaymentStatus = status
		s.booking.PaymentID = &paymentID
	}
	return s.affected, nil
}

func (s *bookingRepoStub) ListForStudent(_ context.Context, studentID string) ([]models.BookingDetail, error) {
	return s.lists[studentID], nil
}

func (s *bookingRepoStub) ListForTrainer(_ context.Context, trainerID string) ([]models.BookingDetail, error) {
	return s.lists[trainerID], nil
}

type bookingUsersStub struct {
	trainer *models.User
}

func (s *bookingUsersStub) FindByID(_ context.Context, _ string) (*models.User, error) {
	return s.trainer, nil
}

func (s *bookingUsersStub) IncrementBookingCount(_ context.Context, _ string) error {
	return nil
}

type verifierStub struct {
	verification *payments.Verification
}

func (s *verifierStub) Verify(_ context.Context, _ models.PaymentMethod, paymentID string) (*payments.Verification, error) {
	v := *s.verification
	v.PaymentID = paymentID
	return &v, nil
}

func bookingTestContext(t *testing.T, claims *models.JWTClaims, method, target string, payload interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, target, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func TestBookingHandlerCreate(t *testing.T) {
	repo := &bookingRepoStub{}
	users := &bookingUsersStub{trainer: &models.User{ID: "t1", Role: models.RoleTrainer, Active: true}}
	svc := service.NewBookingService(repo, users, nil, nil, nil)
	h := NewBookingHandler(svc)

	c, w := bookingTestContext(t, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent, FullName: "Ana Silva"},
		http.MethodPost, "/bookings", service.CreateBookingRequest{
			TrainerID:     "t1",
			PaymentMethod: "mock",
			Amount:        30,
		})

	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var envelope struct {
		Data models.Booking `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "b1", envelope.Data.ID)
	assert.Equal(t, models.PaymentStatusPending, envelope.Data.PaymentStatus)
	assert.Equal(t, 30.0, envelope.Data.Amount)
}

func TestBookingHandlerCreateInvalidBody(t *testing.T) {
	svc := service.NewBookingService(&bookingRepoStub{}, &bookingUsersStub{}, nil, nil, nil)
	h := NewBookingHandler(svc)

	c, w := bookingTestContext(t, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}, http.MethodPost, "/bookings", nil)
	c.Request.Body = http.NoBody

	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandlerCreateRequiresAuth(t *testing.T) {
	svc := service.NewBookingService(&bookingRepoStub{}, &bookingUsersStub{}, nil, nil, nil)
	h := NewBookingHandler(svc)

	c, w := bookingTestContext(t, nil, http.MethodPost, "/bookings", service.CreateBookingRequest{})

	h.Create(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingHandlerMarkPayment(t *testing.T) {
	repo := &bookingRepoStub{
		booking: &models.Booking{
			ID:            "b1",
			StudentID:     "s1",
			TrainerID:     "t1",
			Amount:        30,
			PaymentMethod: models.PaymentMethodMock,
			PaymentStatus: models.PaymentStatusPending,
		},
		affected: 1,
	}
	verifier := &verifierStub{verification: &payments.Verification{Status: "succeeded", Settled: true, Amount: 30, Currency: "usd"}}
	svc := service.NewBookingService(repo, &bookingUsersStub{}, verifier, nil, nil)
	h := NewBookingHandler(svc)

	c, w := bookingTestContext(t, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent},
		http.MethodPut, "/bookings/b1/payment", service.MarkPaymentRequest{
			PaymentStatus: "completed",
			PaymentID:     "mock_pay_1",
		})
	c.Params = gin.Params{{Key: "id", Value: "b1"}}

	h.MarkPayment(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data models.Booking `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.PaymentStatusCompleted, envelope.Data.PaymentStatus)
}

func TestBookingHandlerMarkPaymentForeignBooking(t *testing.T) {
	repo := &bookingRepoStub{
		booking: &models.Booking{ID: "b1", StudentID: "owner", PaymentStatus: models.PaymentStatusPending},
	}
	svc := service.NewBookingService(repo, &bookingUsersStub{}, nil, nil, nil)
	h := NewBookingHandler(svc)

	c, w := bookingTestContext(t, &models.JWTClaims{UserID: "intruder", Role: models.RoleStudent},
		http.MethodPut, "/bookings/b1/payment", service.MarkPaymentRequest{
			PaymentStatus: "failed",
			PaymentID:     "mock_pay_1",
		})
	c.Params = gin.Params{{Key: "id", Value: "b1"}}

	h.MarkPayment(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBookingHandlerListsByRole(t *testing.T) {
	repo := &bookingRepoStub{lists: map[string][]models.BookingDetail{
		"t1": {{Booking: models.Booking{ID: "b1", TrainerID: "t1"}}},
		"s1": {{Booking: models.Booking{ID: "b2", StudentID: "s1"}}},
	}}
	svc := service.NewBookingService(repo, &bookingUsersStub{}, nil, nil, nil)
	h := NewBookingHandler(svc)

	c, w := bookingTestContext(t, &models.JWTClaims{UserID: "t1", Role: models.RoleTrainer}, http.MethodGet, "/bookings/trainer-bookings", nil)
	h.TrainerBookings(c)
	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data []models.BookingDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "b1", envelope.Data[0].ID)

	c, w = bookingTestContext(t, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}, http.MethodGet, "/bookings/my-bookings", nil)
	h.MyBookings(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "b2", envelope.Data[0].ID)
}
