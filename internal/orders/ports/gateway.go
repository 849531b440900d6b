package ports

import "context"

// InitializeRequest starts a hosted payment for an order.
type InitializeRequest struct {
	Reference   string
	AmountMinor int64
	Email       string
	CallbackURL string
	Metadata    map[string]string
}

type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

// Verification is the gateway's authoritative view of a transaction.
// AmountMinor is what was actually charged, in kobo.
type Verification struct {
	Reference   string
	Status      string
	Success     bool
	AmountMinor int64
}

// PaymentGateway is the outbound payment provider client.
type PaymentGateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
}

// WebhookEvent is a signature-checked gateway notification.
type WebhookEvent struct {
	Type      string
	Reference string
	OrderID   string
}

// WebhookDecoder authenticates and decodes raw webhook bodies. It returns
// domain.ErrInvalidSignature when the signature does not match.
type WebhookDecoder interface {
	Decode(body []byte, signature string) (*WebhookEvent, error)
}
