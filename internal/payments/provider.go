package payments

import "context"

// Intent is the provider-side handle for a payment awaiting confirmation.
type Intent struct {
	ID           string  `json:"id"`
	ClientSecret string  `json:"client_secret"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
}

// Verification is the provider's settlement view of a payment. Settled is
// true only when the provider reports the payment as captured.
type Verification struct {
	PaymentID  string  `json:"payment_id"`
	Status     string  `json:"status"`
	Settled    bool    `json:"settled"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	ReceiptURL string  `json:"receipt_url,omitempty"`
}

// Provider is the boundary to the external card processor. The server never
// sees raw card data; confirmation happens client-side against the vendor and
// the server re-checks settlement through VerifyIntent before trusting it.
type Provider interface {
	CreateIntent(ctx context.Context, amount float64, currency string) (*Intent, error)
	VerifyIntent(ctx context.Context, intentID string) (*Verification, error)
}
