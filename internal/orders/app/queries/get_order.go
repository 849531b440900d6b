package queries

import (
	"context"
	"fmt"
	"strings"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
)

// GetOrderQuery retrieves an order by id or, when Number is set, by its
// customer-facing order number.
type GetOrderQuery struct {
	Actor   domain.Actor
	OrderID string
	Number  string
}

// Validate ensures the query has valid parameters.
func (q GetOrderQuery) Validate() error {
	if strings.TrimSpace(q.OrderID) == "" && strings.TrimSpace(q.Number) == "" {
		return fmt.Errorf("%w: order_id or order_number is required", domain.ErrValidation)
	}
	return nil
}

// GetOrderQueryHandler executes GetOrderQuery for the order's owner or an
// administrator.
type GetOrderQueryHandler struct {
	repo ports.OrderRepository
}

func NewGetOrderQueryHandler(repo ports.OrderRepository) *GetOrderQueryHandler {
	return &GetOrderQueryHandler{repo: repo}
}

func (h *GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (*domain.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var (
		order *domain.Order
		err   error
	)
	if number := strings.ToUpper(strings.TrimSpace(query.Number)); number != "" {
		order, err = h.repo.GetByNumber(ctx, number)
	} else {
		order, err = h.repo.GetByID(ctx, strings.TrimSpace(query.OrderID))
	}
	if err != nil {
		return nil, err
	}

	if !query.Actor.CanView(order) {
		return nil, fmt.Errorf("%w: order %s belongs to another customer", domain.ErrForbidden, order.Number)
	}
	return order, nil
}
