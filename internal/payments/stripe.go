package payments

import (
	"context"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	appErrors "github.com/lingomarket/lingomarket-api/pkg/errors"
)

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider constructs a provider bound to the given secret key.
func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api}
}

// CreateIntent registers a payment intent with Stripe. Amounts are in major
// currency units and converted to the smallest unit for the API.
func (p *StripeProvider) CreateIntent(ctx context.Context, amount float64, currency string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(toMinorUnits(amount)),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}

	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPaymentProvider.Code, appErrors.ErrPaymentProvider.Status, "failed to create payment intent")
	}

	return &Intent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       fromMinorUnits(intent.Amount),
		Currency:     string(intent.Currency),
	}, nil
}

// VerifyIntent fetches the intent from Stripe and reports whether the
// payment actually settled. The client-reported outcome is never trusted.
func (p *StripeProvider) VerifyIntent(ctx context.Context, intentID string) (*Verification, error) {
	params := &stripe.PaymentIntentParams{Params: stripe.Params{Context: ctx}}
	intent, err := p.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPaymentProvider.Code, appErrors.ErrPaymentProvider.Status, "failed to verify payment intent")
	}

	verification := &Verification{
		PaymentID: intent.ID,
		Status:    string(intent.Status),
		Settled:   intent.Status == stripe.PaymentIntentStatusSucceeded,
		Amount:    fromMinorUnits(intent.Amount),
		Currency:  string(intent.Currency),
	}
	if intent.LatestCharge != nil {
		verification.ReceiptURL = intent.LatestCharge.ReceiptURL
	}
	return verification, nil
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}
