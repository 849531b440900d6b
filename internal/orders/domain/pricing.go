package domain

import "github.com/shopspring/decimal"

// PriceLine is one priced cart or order line.
type PriceLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Quote is the full price breakdown of a checkout.
type Quote struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Tax         decimal.Decimal `json:"tax"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}

// Subtotal sums price × quantity over all lines.
func Subtotal(lines []PriceLine) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return RoundMoney(sum)
}

// Price computes the quote for the given lines. Tax is levied on the
// pre-discount subtotal and the total never drops below zero.
func Price(lines []PriceLine, deliveryFee, taxRate, discount decimal.Decimal) Quote {
	subtotal := Subtotal(lines)
	tax := RoundMoney(subtotal.Mul(taxRate))
	fee := RoundMoney(deliveryFee)
	discount = RoundMoney(discount)

	total := subtotal.Add(fee).Add(tax).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Quote{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Tax:         tax,
		Discount:    discount,
		Total:       total,
	}
}
