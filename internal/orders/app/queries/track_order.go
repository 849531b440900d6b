package queries

import (
	"context"
	"errors"
	"fmt"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
)

// Tracking is an order as shown on the tracking page.
type Tracking struct {
	Order    *domain.Order            `json:"order"`
	Estimate domain.EstimatedDelivery `json:"estimated_delivery"`
}

// TrackOrderQueryHandler resolves a customer-facing order number and attaches
// the delivery estimate of the order's zone.
type TrackOrderQueryHandler struct {
	orders  *GetOrderQueryHandler
	catalog ports.CatalogRepository
}

func NewTrackOrderQueryHandler(orders *GetOrderQueryHandler, catalog ports.CatalogRepository) *TrackOrderQueryHandler {
	return &TrackOrderQueryHandler{orders: orders, catalog: catalog}
}

func (h *TrackOrderQueryHandler) Handle(ctx context.Context, actor domain.Actor, number string) (*Tracking, error) {
	order, err := h.orders.Handle(ctx, GetOrderQuery{Actor: actor, Number: number})
	if err != nil {
		return nil, err
	}

	var zone *domain.DeliveryZone
	if order.DeliveryZoneID != nil {
		zone, err = h.catalog.GetZone(ctx, *order.DeliveryZoneID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("load delivery zone: %w", err)
		}
	}
	return &Tracking{Order: order, Estimate: domain.EstimateDelivery(order, zone)}, nil
}
