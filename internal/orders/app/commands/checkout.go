package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dejobratic/foodorder/internal/orders/app/pricing"
	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
	"github.com/shopspring/decimal"
)

type CheckoutCommand struct {
	Actor          domain.Actor
	DeliveryZoneID string
	CouponCode     string
	Address        string
	Phone          string
	Notes          string
}

func (c CheckoutCommand) Validate() error {
	if strings.TrimSpace(c.Actor.UserID) == "" {
		return fmt.Errorf("%w: user is required", domain.ErrValidation)
	}
	if sanitizeText(c.Address) == "" {
		return fmt.Errorf("%w: delivery_address is required", domain.ErrValidation)
	}
	if sanitizeText(c.Phone) == "" {
		return fmt.Errorf("%w: phone_number is required", domain.ErrValidation)
	}
	return nil
}

type CheckoutHandler interface {
	Handle(ctx context.Context, cmd CheckoutCommand) (*domain.Order, error)
}

// CheckoutCommandHandler turns the caller's cart into a persisted pending order.
type CheckoutCommandHandler struct {
	carts    ports.CartStore
	catalog  ports.CatalogRepository
	orders   ports.OrderRepository
	pricer   *pricing.Calculator
	notifier ports.Notifier
	logger   *slog.Logger
}

func NewCheckoutCommandHandler(
	carts ports.CartStore,
	catalog ports.CatalogRepository,
	orders ports.OrderRepository,
	pricer *pricing.Calculator,
	notifier ports.Notifier,
	logger *slog.Logger,
) *CheckoutCommandHandler {
	return &CheckoutCommandHandler{
		carts:    carts,
		catalog:  catalog,
		orders:   orders,
		pricer:   pricer,
		notifier: notifier,
		logger:   loggerOrDefault(logger),
	}
}

func (h *CheckoutCommandHandler) Handle(ctx context.Context, cmd CheckoutCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	cart, err := h.carts.Get(ctx, cmd.Actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrValidation)
	}

	lines := cart.Lines()
	if err := h.checkAvailability(ctx, lines); err != nil {
		return nil, err
	}

	address := sanitizeText(cmd.Address)
	preview, err := h.pricer.Quote(ctx, pricing.Request{
		Lines:      cart.PriceLines(),
		ZoneID:     cmd.DeliveryZoneID,
		Address:    address,
		CouponCode: cmd.CouponCode,
		UserID:     cmd.Actor.UserID,
	})
	if err != nil {
		return nil, err
	}

	var redemption *ports.CouponRedemption
	var couponID *string
	if preview.Coupon != nil {
		if !preview.Coupon.Accepted() {
			return nil, fmt.Errorf("%w: %s", domain.ErrValidation, preview.Coupon.Message)
		}
		id := preview.Coupon.Coupon.ID
		couponID = &id
		redemption = &ports.CouponRedemption{CouponID: id, UserID: cmd.Actor.UserID}
	}

	now := utcNow()
	order := &domain.Order{
		ID:              newID(),
		Number:          newOrderNumber(),
		CustomerID:      cmd.Actor.UserID,
		CustomerEmail:   cmd.Actor.Email,
		Subtotal:        preview.Quote.Subtotal,
		Discount:        preview.Quote.Discount,
		DeliveryFee:     preview.Quote.DeliveryFee,
		Tax:             preview.Quote.Tax,
		Total:           preview.Quote.Total,
		Status:          domain.StatusPending,
		PaymentMethod:   domain.MethodPending,
		PaymentStatus:   domain.PaymentPending,
		DeliveryAddress: address,
		Phone:           sanitizeText(cmd.Phone),
		Notes:           sanitizeText(cmd.Notes),
		CouponID:        couponID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if preview.Zone != nil {
		zoneID := preview.Zone.ID
		order.DeliveryZoneID = &zoneID
	}
	for _, line := range lines {
		order.Items = append(order.Items, domain.OrderItem{
			ID:         newID(),
			OrderID:    order.ID,
			MenuItemID: line.MenuItemID,
			Name:       line.Name,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			Subtotal:   domain.RoundMoney(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))),
		})
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	if err := h.orders.Create(ctx, order, redemption); err != nil {
		if errors.Is(err, domain.ErrCouponExhausted) {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		return nil, err
	}

	notify(ctx, h.logger, "order_created", order.ID, func(ctx context.Context) error {
		return h.notifier.OrderCreated(ctx, order)
	})

	return order, nil
}

// checkAvailability rejects carts holding items that were removed from the
// menu or switched off since they were added.
func (h *CheckoutCommandHandler) checkAvailability(ctx context.Context, lines []domain.CartLine) error {
	for _, line := range lines {
		item, err := h.catalog.GetMenuItem(ctx, line.MenuItemID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: %s is no longer on the menu", domain.ErrValidation, line.Name)
			}
			return fmt.Errorf("load menu item %s: %w", line.MenuItemID, err)
		}
		if !item.Available {
			return fmt.Errorf("%w: %s is currently unavailable", domain.ErrValidation, item.Name)
		}
	}
	return nil
}
