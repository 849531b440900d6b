package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	// DefaultTaxRate is the VAT applied to the pre-discount subtotal.
	DefaultTaxRate = decimal.RequireFromString("0.075")
	// DefaultDeliveryFee applies when no zone could be resolved for an address.
	DefaultDeliveryFee = decimal.NewFromInt(500)
)

// RoundMoney rounds half away from zero to two decimal places.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// ToMinorUnits converts a Naira amount to kobo.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return RoundMoney(amount).Shift(2).IntPart()
}

// FormatNaira renders an amount for customer-facing messages, e.g. "₦1,000.00".
func FormatNaira(amount decimal.Decimal) string {
	value, _ := RoundMoney(amount).Float64()
	return message.NewPrinter(language.English).Sprintf("₦%v", number.Decimal(value, number.Scale(2)))
}
