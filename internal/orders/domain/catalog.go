package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MenuItem is a purchasable dish. Its price is copied into carts and order
// items so later edits never touch historical orders.
type MenuItem struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Available  bool            `json:"available"`
	CategoryID string          `json:"category_id"`
}

// DeliveryZone is a named delivery area with a flat fee.
type DeliveryZone struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Fee  decimal.Decimal `json:"fee"`
	ETA  string          `json:"eta"`
}

// MatchZoneByAddress returns the first zone whose name appears in the address,
// ignoring case.
func MatchZoneByAddress(zones []DeliveryZone, address string) (DeliveryZone, bool) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return DeliveryZone{}, false
	}
	for _, zone := range zones {
		name := strings.ToLower(strings.TrimSpace(zone.Name))
		if name != "" && strings.Contains(address, name) {
			return zone, true
		}
	}
	return DeliveryZone{}, false
}
