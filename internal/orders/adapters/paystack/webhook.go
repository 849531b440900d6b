package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
)

// SignatureHeader carries the HMAC of the raw webhook body.
const SignatureHeader = "X-Paystack-Signature"

// Sign returns the hex HMAC-SHA512 of body keyed with the secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares in constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	expected, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || secret == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

// Decoder authenticates and parses Paystack webhook deliveries.
type Decoder struct {
	secret string
}

func NewDecoder(secret string) *Decoder {
	return &Decoder{secret: secret}
}

type webhookBody struct {
	Event string `json:"event"`
	Data  struct {
		Reference string          `json:"reference"`
		Metadata  json.RawMessage `json:"metadata"`
	} `json:"data"`
}

// orderIDFromMetadata tolerates metadata sent as an empty string or null.
func orderIDFromMetadata(raw json.RawMessage) string {
	var meta struct {
		OrderID string `json:"order_id"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &meta) != nil {
		return ""
	}
	return meta.OrderID
}

func (d *Decoder) Decode(body []byte, signature string) (*ports.WebhookEvent, error) {
	if !VerifySignature(d.secret, body, signature) {
		return nil, domain.ErrInvalidSignature
	}

	var payload webhookBody
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook body: %w", domain.ErrValidation, err)
	}

	return &ports.WebhookEvent{
		Type:      payload.Event,
		Reference: payload.Data.Reference,
		OrderID:   orderIDFromMetadata(payload.Data.Metadata),
	}, nil
}
