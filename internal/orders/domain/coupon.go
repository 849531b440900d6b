package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CouponType string

const (
	CouponPercent CouponType = "percent"
	CouponFixed   CouponType = "fixed"
)

// CouponRejection names the first eligibility rule a coupon failed.
type CouponRejection string

const (
	RejectInvalidCode      CouponRejection = "invalid_code"
	RejectInactive         CouponRejection = "inactive"
	RejectNotStarted       CouponRejection = "not_started"
	RejectExpired          CouponRejection = "expired"
	RejectBelowMinimum     CouponRejection = "below_minimum"
	RejectUsageExhausted   CouponRejection = "usage_exhausted"
	RejectZoneNotAllowed   CouponRejection = "zone_not_allowed"
	RejectUserLimitReached CouponRejection = "user_limit_reached"
)

// Coupon is a discount rule with eligibility constraints.
type Coupon struct {
	ID             string              `json:"id"`
	Code           string              `json:"code"`
	Type           CouponType          `json:"type"`
	Amount         decimal.Decimal     `json:"amount"`
	StartsAt       *time.Time          `json:"starts_at,omitempty"`
	ExpiresAt      *time.Time          `json:"expires_at,omitempty"`
	MinSubtotal    decimal.NullDecimal `json:"min_subtotal"`
	MaxUses        *int                `json:"max_uses,omitempty"`
	MaxUsesPerUser *int                `json:"max_uses_per_user,omitempty"`
	UsesCount      int                 `json:"uses_count"`
	Active         bool                `json:"active"`
	ZoneIDs        []string            `json:"zone_ids,omitempty"`
}

// CouponCheck carries the checkout facts a coupon is evaluated against.
type CouponCheck struct {
	Subtotal decimal.Decimal
	ZoneID   string
	Now      time.Time
	// UserUses is the number of recorded redemptions by the customer.
	UserUses int
}

// CouponDecision is the outcome of evaluating a code. A zero Rejection means
// the coupon applies and Discount is set.
type CouponDecision struct {
	Code      string          `json:"code"`
	Discount  decimal.Decimal `json:"discount"`
	Rejection CouponRejection `json:"rejection,omitempty"`
	Message   string          `json:"message"`
	Coupon    *Coupon         `json:"-"`
}

func (d CouponDecision) Accepted() bool {
	return d.Rejection == "" && d.Coupon != nil
}

// NormalizeCouponCode trims and upper-cases a customer supplied code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// RejectUnknownCoupon is the decision for a code that resolves to nothing.
func RejectUnknownCoupon(code string) CouponDecision {
	return CouponDecision{
		Code:      code,
		Discount:  decimal.Zero,
		Rejection: RejectInvalidCode,
		Message:   "Invalid coupon code",
	}
}

// Evaluate applies the eligibility rules in order and stops at the first
// failure.
func (c *Coupon) Evaluate(check CouponCheck) CouponDecision {
	if rejection, message := c.firstRejection(check); rejection != "" {
		return CouponDecision{
			Code:      c.Code,
			Discount:  decimal.Zero,
			Rejection: rejection,
			Message:   message,
			Coupon:    c,
		}
	}

	return CouponDecision{
		Code:     c.Code,
		Discount: c.Discount(check.Subtotal),
		Message:  c.successMessage(),
		Coupon:   c,
	}
}

func (c *Coupon) firstRejection(check CouponCheck) (CouponRejection, string) {
	if !c.Active {
		return RejectInactive, "This coupon is inactive"
	}
	if c.StartsAt != nil && check.Now.Before(*c.StartsAt) {
		return RejectNotStarted, fmt.Sprintf("This coupon is not active until %s", c.StartsAt.Format("2006-01-02 15:04"))
	}
	if c.ExpiresAt != nil && check.Now.After(*c.ExpiresAt) {
		return RejectExpired, "This coupon has expired"
	}
	if c.MinSubtotal.Valid && check.Subtotal.LessThan(c.MinSubtotal.Decimal) {
		return RejectBelowMinimum, fmt.Sprintf("Order must be at least %s to use this coupon", FormatNaira(c.MinSubtotal.Decimal))
	}
	if c.MaxUses != nil && c.UsesCount >= *c.MaxUses {
		return RejectUsageExhausted, "This coupon has reached its maximum number of uses"
	}
	if len(c.ZoneIDs) > 0 && !slices.Contains(c.ZoneIDs, check.ZoneID) {
		return RejectZoneNotAllowed, "Coupon not valid for this delivery area"
	}
	if c.MaxUsesPerUser != nil && check.UserUses >= *c.MaxUsesPerUser {
		return RejectUserLimitReached, "You have already used this coupon the maximum allowed times"
	}
	return "", ""
}

// Discount is the amount taken off the subtotal, never more than the subtotal.
func (c *Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch c.Type {
	case CouponPercent:
		discount = subtotal.Mul(c.Amount).Div(decimal.NewFromInt(100))
	default:
		discount = c.Amount
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return RoundMoney(discount)
}

func (c *Coupon) successMessage() string {
	if c.Type == CouponPercent {
		return fmt.Sprintf("%s%% off", c.Amount.String())
	}
	return fmt.Sprintf("%s off", FormatNaira(c.Amount))
}

// Validate checks the structural rules of a coupon definition.
func (c Coupon) Validate() error {
	if NormalizeCouponCode(c.Code) == "" {
		return fmt.Errorf("%w: coupon code is required", ErrValidation)
	}
	if c.Type != CouponPercent && c.Type != CouponFixed {
		return fmt.Errorf("%w: coupon type must be percent or fixed", ErrValidation)
	}
	if !c.Amount.IsPositive() {
		return fmt.Errorf("%w: coupon amount must be positive", ErrValidation)
	}
	if c.Type == CouponPercent && c.Amount.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: percent coupon cannot exceed 100", ErrValidation)
	}
	return nil
}
