package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingomarket/lingomarket-api/internal/models"
	"github.com/lingomarket/lingomarket-api/internal/payments"
	appErrors "github.com/lingomarket/lingomarket-api/pkg/errors"
)

type stubProvider struct {
	intent       *payments.Intent
	intentErr    error
	verification *payments.Verification
	verifyErr    error
	lastAmount   float64
	lastCurrency string
	lastIntentID string
}

func (p *stubProvider) CreateIntent(_ context.Context, amount float64, currency string) (*payments.Intent, error) {
	p.lastAmount = amount
	p.lastCurrency = currency
	if p.intentErr != nil {
		return nil, p.intentErr
	}
	return p.intent, nil
}

func (p *stubProvider) VerifyIntent(_ context.Context, intentID string) (*payments.Verification, error) {
	p.lastIntentID = intentID
	if p.verifyErr != nil {
		return nil, p.verifyErr
	}
	return p.verification, nil
}

func TestCreateIntentWithoutCardProvider(t *testing.T) {
	svc := NewPaymentService(nil, payments.NewMockProvider("usd"), "usd", true, nil, nil, nil)

	_, err := svc.CreateIntent(context.Background(), CreateIntentRequest{Amount: 25})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPaymentProvider.Code, appErrors.FromError(err).Code)
}

func TestCreateIntentUsesDefaultCurrency(t *testing.T) {
	card := &stubProvider{intent: &payments.Intent{ID: "pi_1", Amount: 25, Currency: "eur"}}
	svc := NewPaymentService(card, nil, "EUR", false, nil, nil, nil)

	intent, err := svc.CreateIntent(context.Background(), CreateIntentRequest{Amount: 25})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "eur", card.lastCurrency)
}

func TestCreateIntentRejectsNonPositiveAmount(t *testing.T) {
	card := &stubProvider{intent: &payments.Intent{ID: "pi_1"}}
	svc := NewPaymentService(card, nil, "usd", false, nil, nil, nil)

	_, err := svc.CreateIntent(context.Background(), CreateIntentRequest{Amount: 0})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMockPayDisabled(t *testing.T) {
	svc := NewPaymentService(nil, payments.NewMockProvider("usd"), "usd", false, nil, nil, nil)

	_, err := svc.MockPay(context.Background(), MockPaymentRequest{Amount: 10})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMockPayIssuesSettledPayment(t *testing.T) {
	svc := NewPaymentService(nil, payments.NewMockProvider("usd"), "usd", true, nil, nil, nil)

	res, err := svc.MockPay(context.Background(), MockPaymentRequest{Amount: 30})
	require.NoError(t, err)
	assert.Equal(t, "succeeded", res.Status)
	assert.Equal(t, 30.0, res.Amount)
	assert.Contains(t, res.PaymentID, "mock_pay_")
}

func TestVerifyDispatchesByMethod(t *testing.T) {
	card := &stubProvider{verification: &payments.Verification{PaymentID: "pi_1", Settled: true}}
	mock := &stubProvider{verification: &payments.Verification{PaymentID: "mock_pay_1", Settled: true}}
	svc := NewPaymentService(card, mock, "usd", true, nil, nil, nil)

	v, err := svc.Verify(context.Background(), models.PaymentMethodCard, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, "pi_1", card.lastIntentID)
	assert.True(t, v.Settled)

	v, err = svc.Verify(context.Background(), models.PaymentMethodMock, "mock_pay_1")
	require.NoError(t, err)
	assert.Equal(t, "mock_pay_1", mock.lastIntentID)
	assert.True(t, v.Settled)
}

func TestVerifyWithoutProvider(t *testing.T) {
	svc := NewPaymentService(nil, nil, "usd", false, nil, nil, nil)

	_, err := svc.Verify(context.Background(), models.PaymentMethodCard, "pi_1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPaymentProvider.Code, appErrors.FromError(err).Code)
}

func TestVerifyPropagatesProviderError(t *testing.T) {
	card := &stubProvider{verifyErr: errors.New("provider down")}
	svc := NewPaymentService(card, nil, "usd", false, nil, nil, nil)

	_, err := svc.Verify(context.Background(), models.PaymentMethodCard, "pi_1")
	require.Error(t, err)
}
