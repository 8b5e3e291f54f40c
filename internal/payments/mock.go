package payments

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	appErrors "github.com/lingomarket/lingomarket-api/pkg/errors"
)

const mockIDPrefix = "mock_pay_"

// MockProvider is a deterministic, no-network payment path used for demos
// and tests. Every payment it issues succeeds immediately.
type MockProvider struct {
	currency string

	mu     sync.Mutex
	issued map[string]Verification
}

// NewMockProvider constructs the mock path with a default currency.
func NewMockProvider(currency string) *MockProvider {
	if currency == "" {
		currency = "usd"
	}
	return &MockProvider{currency: currency, issued: make(map[string]Verification)}
}

// CreateIntent issues an already-settled mock payment.
func (p *MockProvider) CreateIntent(_ context.Context, amount float64, currency string) (*Intent, error) {
	if currency == "" {
		currency = p.currency
	}
	id := mockIDPrefix + uuid.NewString()

	p.mu.Lock()
	p.issued[id] = Verification{
		PaymentID: id,
		Status:    "succeeded",
		Settled:   true,
		Amount:    amount,
		Currency:  strings.ToLower(currency),
	}
	p.mu.Unlock()

	return &Intent{ID: id, ClientSecret: id + "_secret", Amount: amount, Currency: strings.ToLower(currency)}, nil
}

// VerifyIntent succeeds for any id this provider issued. Unknown mock ids
// are still accepted as settled so that demo environments survive restarts;
// non-mock ids are rejected.
func (p *MockProvider) VerifyIntent(_ context.Context, intentID string) (*Verification, error) {
	if !strings.HasPrefix(intentID, mockIDPrefix) {
		return nil, appErrors.Clone(appErrors.ErrPaymentProvider, "unknown mock payment id")
	}

	p.mu.Lock()
	v, ok := p.issued[intentID]
	p.mu.Unlock()
	if ok {
		return &v, nil
	}

	return &Verification{
		PaymentID: intentID,
		Status:    "succeeded",
		Settled:   true,
		Currency:  p.currency,
	}, nil
}
