package queries

import (
	"context"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
)

type ListOrdersQuery struct {
	Actor    domain.Actor
	Status   string
	Page     int
	PageSize int
}

// OrderPage is one page of orders, newest first.
type OrderPage struct {
	Orders   []domain.Order `json:"orders"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// ListOrdersQueryHandler lists the caller's own orders. Administrators see
// every order.
type ListOrdersQueryHandler struct {
	repo ports.OrderRepository
}

func NewListOrdersQueryHandler(repo ports.OrderRepository) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{repo: repo}
}

func (h *ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) (*OrderPage, error) {
	filter := ports.ListFilter{Page: query.Page, PageSize: query.PageSize}.Normalize()

	if query.Status != "" {
		status, err := domain.ParseOrderStatus(query.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}
	if !query.Actor.IsAdmin() {
		customerID := query.Actor.UserID
		filter.CustomerID = &customerID
	}

	orders, err := h.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return &OrderPage{Orders: orders, Page: filter.Page, PageSize: filter.PageSize}, nil
}
