package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// FavoriteItemsLimit is how many favourites a customer summary lists.
	FavoriteItemsLimit = 3
	// PopularItemsLimit and PopularItemsWindow bound the popular dishes list.
	PopularItemsLimit  = 6
	PopularItemsWindow = 30 * 24 * time.Hour

	// DeliveryWindow is added to the creation time when an order has no
	// zone estimate.
	DeliveryWindow = 30 * time.Minute
)

// ItemCount is how many order lines carried a menu item.
type ItemCount struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	OrderCount int    `json:"order_count"`
}

// CustomerStats summarises one customer's order history. TotalSpent only
// counts paid orders.
type CustomerStats struct {
	TotalOrders   int             `json:"total_orders"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	FavoriteItems []ItemCount     `json:"favorite_items"`
}

// RankItems counts lines per menu item, most ordered first with ties broken
// by id, and keeps at most limit entries.
func RankItems(lines []OrderItem, limit int) []ItemCount {
	counts := make(map[string]*ItemCount)
	for _, line := range lines {
		entry, ok := counts[line.MenuItemID]
		if !ok {
			entry = &ItemCount{MenuItemID: line.MenuItemID, Name: line.Name}
			counts[line.MenuItemID] = entry
		}
		entry.OrderCount++
	}

	ranked := make([]ItemCount, 0, len(counts))
	for _, entry := range counts {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].OrderCount != ranked[j].OrderCount {
			return ranked[i].OrderCount > ranked[j].OrderCount
		}
		return ranked[i].MenuItemID < ranked[j].MenuItemID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// EstimatedDelivery is the zone's advertised ETA when one is known, and the
// creation time plus DeliveryWindow otherwise.
type EstimatedDelivery struct {
	ZoneETA string    `json:"zone_eta,omitempty"`
	By      time.Time `json:"estimated_by"`
}

func EstimateDelivery(order *Order, zone *DeliveryZone) EstimatedDelivery {
	estimate := EstimatedDelivery{By: order.CreatedAt.Add(DeliveryWindow)}
	if zone != nil {
		estimate.ZoneETA = zone.ETA
	}
	return estimate
}
