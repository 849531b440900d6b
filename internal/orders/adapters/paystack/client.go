package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dejobratic/foodorder/internal/orders/ports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultBaseURL = "https://api.paystack.co"

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to the Paystack transaction API.
type Client struct {
	base      *url.URL
	secretKey string
	client    HTTPClient
}

// NewHTTPClient returns an instrumented client suitable for NewClient.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func NewClient(baseURL, secretKey string, client HTTPClient) (*Client, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("paystack: secret key is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("paystack: parse base URL: %w", err)
	}
	if client == nil {
		client = NewHTTPClient(10 * time.Second)
	}
	return &Client{base: parsed, secretKey: secretKey, client: client}, nil
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type initializeBody struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

// Initialize creates a hosted checkout for the amount in kobo.
func (c *Client) Initialize(ctx context.Context, req ports.InitializeRequest) (*ports.InitializeResult, error) {
	body := initializeBody{
		Email:       req.Email,
		Amount:      req.AmountMinor,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	}

	var payload envelope[initializeData]
	if err := c.call(ctx, http.MethodPost, "/transaction/initialize", body, &payload); err != nil {
		return nil, err
	}
	if !payload.Status || payload.Data.AuthorizationURL == "" {
		return nil, fmt.Errorf("paystack: initialize rejected: %s", payload.Message)
	}

	reference := payload.Data.Reference
	if reference == "" {
		reference = req.Reference
	}
	return &ports.InitializeResult{
		AuthorizationURL: payload.Data.AuthorizationURL,
		Reference:        reference,
	}, nil
}

// Verify fetches the authoritative transaction state. Only a successful
// charge counts as paid.
func (c *Client) Verify(ctx context.Context, reference string) (*ports.Verification, error) {
	var payload envelope[verifyData]
	if err := c.call(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &payload); err != nil {
		return nil, err
	}

	ref := payload.Data.Reference
	if ref == "" {
		ref = reference
	}
	return &ports.Verification{
		Reference:   ref,
		Status:      payload.Data.Status,
		Success:     payload.Status && payload.Data.Status == "success",
		AmountMinor: payload.Data.Amount,
	}, nil
}

func (c *Client) call(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("paystack: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	target := c.base.JoinPath(endpoint)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("paystack: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("paystack: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("paystack: %s %s: status %d", method, endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("paystack: decode %s response: %w", endpoint, err)
	}
	return nil
}
