package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus captures the fulfilment stage of an order.
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// PaymentStatus captures the payment stage. There is no way back from paid.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type PaymentMethod string

const (
	MethodPending PaymentMethod = "pending"
	MethodCash    PaymentMethod = "cash"
	MethodGateway PaymentMethod = "gateway"
)

var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusConfirmed, StatusPreparing, StatusOutForDelivery, StatusDelivered, StatusCancelled},
	StatusConfirmed:      {StatusPreparing, StatusOutForDelivery, StatusDelivered, StatusCancelled},
	StatusPreparing:      {StatusOutForDelivery, StatusDelivered},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

// ParseOrderStatus validates a raw status value.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := statusTransitions[status]; !ok {
		return "", fmt.Errorf("%w: unknown order status %q", ErrValidation, raw)
	}
	return status, nil
}

// CanTransition reports whether the table allows moving from one status to another.
func CanTransition(from, to OrderStatus) bool {
	return slices.Contains(statusTransitions[from], to)
}

// Order is a customer's checkout with its locked-in price breakdown.
type Order struct {
	ID               string          `json:"id"`
	Number           string          `json:"order_number"`
	CustomerID       string          `json:"customer_id"`
	CustomerEmail    string          `json:"customer_email"`
	Items            []OrderItem     `json:"items"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Discount         decimal.Decimal `json:"discount"`
	DeliveryFee      decimal.Decimal `json:"delivery_fee"`
	Tax              decimal.Decimal `json:"tax"`
	Total            decimal.Decimal `json:"total"`
	Status           OrderStatus     `json:"status"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	DeliveryZoneID   *string         `json:"delivery_zone_id,omitempty"`
	DeliveryAddress  string          `json:"delivery_address"`
	Phone            string          `json:"phone_number"`
	Notes            string          `json:"notes,omitempty"`
	CouponID         *string         `json:"coupon_id,omitempty"`
	GatewayReference *string         `json:"gateway_reference,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OrderItem is an order line with the unit price snapshotted at checkout.
type OrderItem struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"order_id"`
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// Quote rebuilds the price breakdown stored on the order.
func (o Order) Quote() Quote {
	return Quote{
		Subtotal:    o.Subtotal,
		DeliveryFee: o.DeliveryFee,
		Tax:         o.Tax,
		Discount:    o.Discount,
		Total:       o.Total,
	}
}

// Validate ensures the order adheres to business constraints.
func (o Order) Validate() error {
	if strings.TrimSpace(o.CustomerID) == "" {
		return fmt.Errorf("%w: customer_id is required", ErrValidation)
	}
	if strings.TrimSpace(o.Number) == "" {
		return fmt.Errorf("%w: order_number is required", ErrValidation)
	}
	if strings.TrimSpace(o.DeliveryAddress) == "" {
		return fmt.Errorf("%w: delivery_address is required", ErrValidation)
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}

	lines := make([]PriceLine, 0, len(o.Items))
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: quantity for %s must be positive", ErrValidation, item.MenuItemID)
		}
		if !item.Subtotal.Equal(RoundMoney(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))) {
			return fmt.Errorf("%w: line subtotal for %s does not match quantity x unit price", ErrValidation, item.MenuItemID)
		}
		lines = append(lines, PriceLine{UnitPrice: item.UnitPrice, Quantity: item.Quantity})
	}

	if !Subtotal(lines).Equal(o.Subtotal) {
		return fmt.Errorf("%w: subtotal does not match items", ErrValidation)
	}
	expected := o.Subtotal.Add(o.DeliveryFee).Add(o.Tax).Sub(o.Discount)
	if expected.IsNegative() {
		expected = decimal.Zero
	}
	if !expected.Equal(o.Total) {
		return fmt.Errorf("%w: total does not match price breakdown", ErrValidation)
	}
	return nil
}

// IsTerminal indicates whether the order can no longer change status.
func (o Order) IsTerminal() bool {
	return len(statusTransitions[o.Status]) == 0
}

func (o Order) IsPaid() bool {
	return o.PaymentStatus == PaymentPaid
}

// ConfirmCash records a cash-on-delivery confirmation. Payment stays pending
// until the cash is collected.
func (o *Order) ConfirmCash(now time.Time) error {
	if o.Status != StatusPending || o.PaymentStatus != PaymentPending {
		return fmt.Errorf("%w: order %s cannot be confirmed for cash in status %s/%s", ErrConflict, o.Number, o.Status, o.PaymentStatus)
	}
	o.Status = StatusConfirmed
	o.PaymentMethod = MethodCash
	o.UpdatedAt = now
	return nil
}

// CanInitiatePayment reports whether a gateway payment may be started.
func (o Order) CanInitiatePayment() error {
	if o.IsPaid() {
		return fmt.Errorf("%w: order %s is already paid", ErrConflict, o.Number)
	}
	if o.Status != StatusPending && o.Status != StatusConfirmed {
		return fmt.Errorf("%w: cannot pay for order %s in status %s", ErrConflict, o.Number, o.Status)
	}
	return nil
}

// AttachGatewayReference stores the reference of a freshly initialised payment.
func (o *Order) AttachGatewayReference(reference string, now time.Time) {
	o.GatewayReference = &reference
	o.UpdatedAt = now
}

// MarkPaid applies a verified gateway payment. It reports false and changes
// nothing when the order is already paid. Orders past confirmation keep their
// fulfilment status.
func (o *Order) MarkPaid(reference string, now time.Time) bool {
	if o.IsPaid() {
		return false
	}
	o.PaymentStatus = PaymentPaid
	o.PaymentMethod = MethodGateway
	if reference != "" {
		o.GatewayReference = &reference
	}
	if o.Status == StatusPending {
		o.Status = StatusConfirmed
	}
	o.UpdatedAt = now
	return true
}

// Cancel moves the order to cancelled. Paid orders may only be cancelled by
// an administrator.
func (o *Order) Cancel(actor Actor, now time.Time) error {
	if !CanTransition(o.Status, StatusCancelled) {
		return fmt.Errorf("%w: order %s cannot be cancelled in status %s", ErrConflict, o.Number, o.Status)
	}
	if o.IsPaid() && !actor.IsAdmin() {
		return fmt.Errorf("%w: paid orders can only be cancelled by support", ErrForbidden)
	}
	o.Status = StatusCancelled
	o.UpdatedAt = now
	return nil
}

// AdvanceStatus moves the order forward along the fulfilment chain. Setting
// the current status again is a no-op and reports false.
func (o *Order) AdvanceStatus(to OrderStatus, now time.Time) (bool, error) {
	if _, ok := statusTransitions[to]; !ok {
		return false, fmt.Errorf("%w: unknown order status %q", ErrValidation, to)
	}
	if o.Status == to {
		return false, nil
	}
	if to == StatusCancelled {
		return false, fmt.Errorf("%w: use cancel to cancel an order", ErrValidation)
	}
	if !CanTransition(o.Status, to) {
		return false, fmt.Errorf("%w: cannot move order %s from %s to %s", ErrConflict, o.Number, o.Status, to)
	}
	o.Status = to
	o.UpdatedAt = now
	return true, nil
}

// CheckDeletable rejects deletion once money has moved.
func (o Order) CheckDeletable() error {
	if o.IsPaid() {
		return fmt.Errorf("%w: paid order %s cannot be deleted", ErrConflict, o.Number)
	}
	return nil
}
