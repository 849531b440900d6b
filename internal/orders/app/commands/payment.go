package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
	"github.com/google/uuid"
)

// EventChargeSuccess is the only gateway event that moves money.
const EventChargeSuccess = "charge.success"

type PaymentSource string

const (
	SourceRedirect PaymentSource = "redirect"
	SourceWebhook  PaymentSource = "webhook"
)

type InitiatePaymentCommand struct {
	Actor   domain.Actor
	OrderID string
}

// PaymentInitiation carries the hosted checkout URL the customer is sent to.
type PaymentInitiation struct {
	Order            *domain.Order `json:"order"`
	AuthorizationURL string        `json:"authorization_url"`
	Reference        string        `json:"reference"`
}

// PaymentOutcome reports a confirmation attempt. Order is nil when the
// confirmation did not match any order; Applied is false for replays.
type PaymentOutcome struct {
	Order   *domain.Order
	Applied bool
	Source  PaymentSource
}

type PaymentHandler interface {
	Initiate(ctx context.Context, cmd InitiatePaymentCommand) (*PaymentInitiation, error)
	ConfirmRedirect(ctx context.Context, reference string) (*PaymentOutcome, error)
	ConfirmWebhook(ctx context.Context, body []byte, signature string) (*PaymentOutcome, error)
}

// PaymentCommandHandler starts gateway payments and applies their
// confirmations. The redirect and the webhook both end in the same
// idempotent mark-paid transition.
type PaymentCommandHandler struct {
	orders      ports.OrderRepository
	carts       ports.CartStore
	gateway     ports.PaymentGateway
	webhooks    ports.WebhookDecoder
	notifier    ports.Notifier
	callbackURL string
	logger      *slog.Logger
}

func NewPaymentCommandHandler(
	orders ports.OrderRepository,
	carts ports.CartStore,
	gateway ports.PaymentGateway,
	webhooks ports.WebhookDecoder,
	notifier ports.Notifier,
	callbackURL string,
	logger *slog.Logger,
) *PaymentCommandHandler {
	return &PaymentCommandHandler{
		orders:      orders,
		carts:       carts,
		gateway:     gateway,
		webhooks:    webhooks,
		notifier:    notifier,
		callbackURL: callbackURL,
		logger:      loggerOrDefault(logger),
	}
}

// Initiate opens a gateway transaction for the owner's order. The reference is
// only stored once the gateway has accepted it.
func (h *PaymentCommandHandler) Initiate(ctx context.Context, cmd InitiatePaymentCommand) (*PaymentInitiation, error) {
	if err := requireOrderID(cmd.OrderID); err != nil {
		return nil, err
	}

	order, err := h.orders.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !cmd.Actor.Owns(order) {
		return nil, fmt.Errorf("%w: order %s belongs to another customer", domain.ErrForbidden, order.Number)
	}
	if err := order.CanInitiatePayment(); err != nil {
		return nil, err
	}

	amount := domain.ToMinorUnits(order.Total)
	if amount <= 0 {
		return nil, fmt.Errorf("%w: order %s has nothing to pay", domain.ErrValidation, order.Number)
	}

	result, err := h.gateway.Initialize(ctx, ports.InitializeRequest{
		Reference:   uuid.NewString(),
		AmountMinor: amount,
		Email:       order.CustomerEmail,
		CallbackURL: h.callbackURL,
		Metadata: map[string]string{
			"order_id":     order.ID,
			"order_number": order.Number,
		},
	})
	if err != nil {
		if errors.Is(err, domain.ErrGatewayUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrGatewayUnavailable, err)
	}

	updated, err := h.orders.Update(ctx, order.ID, func(o *domain.Order) (bool, error) {
		if err := o.CanInitiatePayment(); err != nil {
			return false, err
		}
		o.AttachGatewayReference(result.Reference, utcNow())
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return &PaymentInitiation{
		Order:            updated,
		AuthorizationURL: result.AuthorizationURL,
		Reference:        result.Reference,
	}, nil
}

// ConfirmRedirect verifies the reference the customer was redirected back
// with. The cart is cleared whenever the order ends up paid.
func (h *PaymentCommandHandler) ConfirmRedirect(ctx context.Context, reference string) (*PaymentOutcome, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", domain.ErrValidation)
	}

	verification, err := h.gateway.Verify(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrGatewayUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrGatewayUnavailable, err)
	}
	if !verification.Success {
		return nil, fmt.Errorf("%w: payment %s was not successful (%s)", domain.ErrValidation, reference, verification.Status)
	}

	order, err := h.orders.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if expected := domain.ToMinorUnits(order.Total); verification.AmountMinor != expected {
		h.logger.WarnContext(ctx, "verified amount does not match order total",
			"order_id", order.ID,
			"reference", reference,
			"expected_minor", expected,
			"charged_minor", verification.AmountMinor,
		)
		return nil, fmt.Errorf("%w: payment %s charged %d kobo, order %s expects %d", domain.ErrValidation, reference, verification.AmountMinor, order.Number, expected)
	}

	outcome, err := h.markPaid(ctx, order.ID, reference, SourceRedirect)
	if err != nil {
		return nil, err
	}
	if outcome.Order.IsPaid() {
		h.clearCart(ctx, outcome.Order.CustomerID)
	}
	return outcome, nil
}

// ConfirmWebhook authenticates a gateway notification and applies successful
// charges. Unknown references and other event types are acknowledged without
// changes.
func (h *PaymentCommandHandler) ConfirmWebhook(ctx context.Context, body []byte, signature string) (*PaymentOutcome, error) {
	event, err := h.webhooks.Decode(body, signature)
	if err != nil {
		return nil, err
	}

	outcome := &PaymentOutcome{Source: SourceWebhook}
	if event.Type != EventChargeSuccess {
		h.logger.InfoContext(ctx, "ignoring webhook event", "event", event.Type, "reference", event.Reference)
		return outcome, nil
	}

	order, err := h.findWebhookOrder(ctx, event)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.logger.WarnContext(ctx, "webhook references an unknown order",
				"reference", event.Reference,
				"order_id", event.OrderID,
			)
			return outcome, nil
		}
		return nil, err
	}

	outcome, err = h.markPaid(ctx, order.ID, event.Reference, SourceWebhook)
	if err != nil {
		return nil, err
	}
	if outcome.Applied {
		h.clearCart(ctx, outcome.Order.CustomerID)
	}
	return outcome, nil
}

// findWebhookOrder looks the order up by reference and falls back to the
// order id carried in the transaction metadata.
func (h *PaymentCommandHandler) findWebhookOrder(ctx context.Context, event *ports.WebhookEvent) (*domain.Order, error) {
	order, err := h.orders.GetByReference(ctx, event.Reference)
	if err == nil || !errors.Is(err, domain.ErrNotFound) || event.OrderID == "" {
		return order, err
	}
	return h.orders.GetByID(ctx, event.OrderID)
}

func (h *PaymentCommandHandler) markPaid(ctx context.Context, orderID, reference string, source PaymentSource) (*PaymentOutcome, error) {
	var applied bool
	order, err := h.orders.Update(ctx, orderID, func(o *domain.Order) (bool, error) {
		applied = o.MarkPaid(reference, utcNow())
		return applied, nil
	})
	if err != nil {
		return nil, err
	}

	if applied {
		if order.Status == domain.StatusCancelled {
			h.logger.WarnContext(ctx, "payment received for cancelled order, manual refund required",
				"order_id", order.ID,
				"order_number", order.Number,
				"reference", reference,
			)
		}
		notify(ctx, h.logger, "payment_confirmed", order.ID, func(ctx context.Context) error {
			return h.notifier.PaymentConfirmed(ctx, order)
		})
	}

	return &PaymentOutcome{Order: order, Applied: applied, Source: source}, nil
}

func (h *PaymentCommandHandler) clearCart(ctx context.Context, userID string) {
	if err := h.carts.Clear(ctx, userID); err != nil {
		h.logger.ErrorContext(ctx, "failed to clear cart", "user_id", userID, "error", err)
	}
}
