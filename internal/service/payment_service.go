package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lingomarket/lingomarket-api/internal/models"
	"github.com/lingomarket/lingomarket-api/internal/payments"
	appErrors "github.com/lingomarket/lingomarket-api/pkg/errors"
)

// CreateIntentRequest is the payload for opening a card payment.
type CreateIntentRequest struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"omitempty,len=3"`
}

// MockPaymentRequest is the payload for the no-network payment path.
type MockPaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// MockPaymentResponse mirrors the vendor result for the mock path.
type MockPaymentResponse struct {
	PaymentID string  `json:"payment_id"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
}

// PaymentService is a pure gateway over the configured payment providers.
// It persists nothing itself; booking state changes live in BookingService.
type PaymentService struct {
	card            payments.Provider
	mock            payments.Provider
	defaultCurrency string
	mockEnabled     bool
	validator       *validator.Validate
	metrics         *MetricsService
	logger          *zap.Logger
}

// NewPaymentService constructs PaymentService. card may be nil when no
// provider key is configured; mock is always available when enabled.
func NewPaymentService(card, mock payments.Provider, defaultCurrency string, mockEnabled bool, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultCurrency == "" {
		defaultCurrency = "usd"
	}
	return &PaymentService{
		card:            card,
		mock:            mock,
		defaultCurrency: strings.ToLower(defaultCurrency),
		mockEnabled:     mockEnabled,
		validator:       validate,
		metrics:         metrics,
		logger:          logger,
	}
}

// CreateIntent opens a payment intent with the card provider. A provider
// failure aborts the flow before any booking row exists.
func (s *PaymentService) CreateIntent(ctx context.Context, req CreateIntentRequest) (*payments.Intent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment intent payload")
	}
	if s.card == nil {
		return nil, appErrors.Clone(appErrors.ErrPaymentProvider, "card payments are not configured")
	}

	currency := req.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}

	intent, err := s.card.CreateIntent(ctx, req.Amount, currency)
	s.metrics.RecordPaymentCall("create_intent", err)
	if err != nil {
		s.logger.Warn("payment intent creation failed", zap.Float64("amount", req.Amount), zap.Error(err))
		return nil, err
	}
	return intent, nil
}

// MockPay settles a payment through the deterministic mock path.
func (s *PaymentService) MockPay(ctx context.Context, req MockPaymentRequest) (*MockPaymentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mock payment payload")
	}
	if !s.mockEnabled || s.mock == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "mock payments are disabled")
	}

	intent, err := s.mock.CreateIntent(ctx, req.Amount, s.defaultCurrency)
	s.metrics.RecordPaymentCall("mock_pay", err)
	if err != nil {
		return nil, err
	}
	return &MockPaymentResponse{PaymentID: intent.ID, Status: "succeeded", Amount: intent.Amount}, nil
}

// Verify re-checks settlement with the provider owning the payment id. The
// client-reported outcome is only a hint to pick which provider to ask.
func (s *PaymentService) Verify(ctx context.Context, method models.PaymentMethod, paymentID string) (*payments.Verification, error) {
	var provider payments.Provider
	switch method {
	case models.PaymentMethodMock:
		provider = s.mock
	case models.PaymentMethodCard:
		provider = s.card
	}
	if provider == nil {
		return nil, appErrors.Clone(appErrors.ErrPaymentProvider, "no provider available for payment method")
	}

	verification, err := provider.VerifyIntent(ctx, paymentID)
	s.metrics.RecordPaymentCall("verify_intent", err)
	if err != nil {
		return nil, err
	}
	return verification, nil
}
