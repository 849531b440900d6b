package queries

import (
	"context"
	"fmt"

	"github.com/dejobratic/foodorder/internal/orders/app/pricing"
	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
)

// ViewCartQuery prices the caller's cart against an optional destination and
// coupon without persisting anything.
type ViewCartQuery struct {
	Actor      domain.Actor
	ZoneID     string
	Address    string
	CouponCode string
}

type CartView struct {
	Lines   []domain.CartLine `json:"items"`
	Preview *pricing.Preview  `json:"preview"`
}

// CouponPreview is the live feedback shown while a customer types a code.
type CouponPreview struct {
	Valid    bool         `json:"valid"`
	Code     string       `json:"code"`
	Reason   string       `json:"reason,omitempty"`
	Message  string       `json:"message"`
	Discount string       `json:"discount"`
	Quote    domain.Quote `json:"quote"`
}

type CartQueryHandler struct {
	carts  ports.CartStore
	pricer *pricing.Calculator
}

func NewCartQueryHandler(carts ports.CartStore, pricer *pricing.Calculator) *CartQueryHandler {
	return &CartQueryHandler{carts: carts, pricer: pricer}
}

func (h *CartQueryHandler) View(ctx context.Context, query ViewCartQuery) (*CartView, error) {
	cart, err := h.carts.Get(ctx, query.Actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	preview, err := h.pricer.Quote(ctx, pricing.Request{
		Lines:      cart.PriceLines(),
		ZoneID:     query.ZoneID,
		Address:    query.Address,
		CouponCode: query.CouponCode,
		UserID:     query.Actor.UserID,
	})
	if err != nil {
		return nil, err
	}
	return &CartView{Lines: cart.Lines(), Preview: preview}, nil
}

// PreviewCoupon evaluates a code against the current cart. An empty cart
// cannot qualify for anything.
func (h *CartQueryHandler) PreviewCoupon(ctx context.Context, query ViewCartQuery) (*CouponPreview, error) {
	if domain.NormalizeCouponCode(query.CouponCode) == "" {
		return nil, fmt.Errorf("%w: code is required", domain.ErrValidation)
	}

	view, err := h.View(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(view.Lines) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrValidation)
	}

	decision := view.Preview.Coupon
	return &CouponPreview{
		Valid:    decision.Accepted(),
		Code:     decision.Code,
		Reason:   string(decision.Rejection),
		Message:  decision.Message,
		Discount: decision.Discount.StringFixed(2),
		Quote:    view.Preview.Quote,
	}, nil
}
