package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
	"github.com/shopspring/decimal"
)

// Config holds the checkout pricing constants. Zero values are honoured, so a
// zero tax rate prices orders tax free.
type Config struct {
	TaxRate            decimal.Decimal
	DefaultDeliveryFee decimal.Decimal
}

// DefaultConfig returns the standard VAT rate and fallback delivery fee.
func DefaultConfig() Config {
	return Config{TaxRate: domain.DefaultTaxRate, DefaultDeliveryFee: domain.DefaultDeliveryFee}
}

// Calculator turns cart lines, a delivery destination and an optional coupon
// into a price quote.
type Calculator struct {
	catalog    ports.CatalogRepository
	coupons    *CouponEvaluator
	taxRate    decimal.Decimal
	defaultFee decimal.Decimal
}

func NewCalculator(catalog ports.CatalogRepository, coupons *CouponEvaluator, cfg Config) *Calculator {
	return &Calculator{
		catalog:    catalog,
		coupons:    coupons,
		taxRate:    cfg.TaxRate,
		defaultFee: cfg.DefaultDeliveryFee,
	}
}

type Request struct {
	Lines      []domain.PriceLine
	ZoneID     string
	Address    string
	CouponCode string
	UserID     string
}

// Preview is a quote together with the zone and coupon decision behind it.
type Preview struct {
	Quote  domain.Quote           `json:"quote"`
	Zone   *domain.DeliveryZone   `json:"zone,omitempty"`
	Coupon *domain.CouponDecision `json:"coupon,omitempty"`
}

// ResolveZone picks the delivery zone and fee. An explicit zone id must exist;
// otherwise the address is matched against zone names and the default fee is
// used when nothing matches.
func (c *Calculator) ResolveZone(ctx context.Context, zoneID, address string) (*domain.DeliveryZone, decimal.Decimal, error) {
	if zoneID = strings.TrimSpace(zoneID); zoneID != "" {
		zone, err := c.catalog.GetZone(ctx, zoneID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("resolve delivery zone %s: %w", zoneID, err)
		}
		return zone, zone.Fee, nil
	}

	zones, err := c.catalog.ListZones(ctx)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("list delivery zones: %w", err)
	}
	if zone, ok := domain.MatchZoneByAddress(zones, address); ok {
		return &zone, zone.Fee, nil
	}
	return nil, c.defaultFee, nil
}

// Quote prices the request. A rejected coupon contributes no discount; the
// decision is returned so callers can surface its message.
func (c *Calculator) Quote(ctx context.Context, req Request) (*Preview, error) {
	zone, fee, err := c.ResolveZone(ctx, req.ZoneID, req.Address)
	if err != nil {
		return nil, err
	}

	discount := decimal.Zero
	var decision *domain.CouponDecision
	if domain.NormalizeCouponCode(req.CouponCode) != "" {
		zoneID := ""
		if zone != nil {
			zoneID = zone.ID
		}
		d, err := c.coupons.Evaluate(ctx, req.CouponCode, domain.Subtotal(req.Lines), zoneID, req.UserID)
		if err != nil {
			return nil, err
		}
		decision = &d
		if d.Accepted() {
			discount = d.Discount
		}
	}

	return &Preview{
		Quote:  domain.Price(req.Lines, fee, c.taxRate, discount),
		Zone:   zone,
		Coupon: decision,
	}, nil
}
