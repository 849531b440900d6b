package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/shopspring/decimal"
)

var (
	customer = domain.Actor{UserID: "user-1", Email: "ada@example.com", Role: domain.RoleCustomer}
	admin    = domain.Actor{UserID: "admin-1", Email: "ops@example.com", Role: domain.RoleAdmin}
)

func newOrder(status domain.OrderStatus, payment domain.PaymentStatus) *domain.Order {
	return &domain.Order{
		ID:              "order-1",
		Number:          "LFD0123456789",
		CustomerID:      customer.UserID,
		CustomerEmail:   customer.Email,
		Items:           []domain.OrderItem{{ID: "item-1", MenuItemID: "jollof", Quantity: 2, UnitPrice: decimal.NewFromInt(1000), Subtotal: decimal.NewFromInt(2000)}},
		Subtotal:        decimal.NewFromInt(2000),
		DeliveryFee:     decimal.NewFromInt(500),
		Tax:             decimal.NewFromInt(150),
		Discount:        decimal.Zero,
		Total:           decimal.NewFromInt(2650),
		Status:          status,
		PaymentMethod:   domain.MethodPending,
		PaymentStatus:   payment,
		DeliveryAddress: "12 Allen Avenue, Ikeja",
		Phone:           "08030000000",
	}
}

func TestOrderValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *domain.Order)
		wantErr bool
	}{
		{"valid order", nil, false},
		{"missing customer", func(o *domain.Order) { o.CustomerID = " " }, true},
		{"missing number", func(o *domain.Order) { o.Number = "" }, true},
		{"missing address", func(o *domain.Order) { o.DeliveryAddress = "" }, true},
		{"no items", func(o *domain.Order) { o.Items = nil }, true},
		{"zero quantity", func(o *domain.Order) { o.Items[0].Quantity = 0 }, true},
		{"line subtotal mismatch", func(o *domain.Order) { o.Items[0].Subtotal = decimal.NewFromInt(1999) }, true},
		{"subtotal mismatch", func(o *domain.Order) { o.Subtotal = decimal.NewFromInt(1) }, true},
		{"total mismatch", func(o *domain.Order) { o.Total = decimal.NewFromInt(2649) }, true},
		{"clamped total", func(o *domain.Order) {
			o.Discount = decimal.NewFromInt(5000)
			o.Total = decimal.Zero
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := newOrder(domain.StatusPending, domain.PaymentPending)
			if tt.mutate != nil {
				tt.mutate(order)
			}
			err := order.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Order.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to domain.OrderStatus
		want     bool
	}{
		{domain.StatusPending, domain.StatusConfirmed, true},
		{domain.StatusPending, domain.StatusCancelled, true},
		{domain.StatusConfirmed, domain.StatusPreparing, true},
		{domain.StatusConfirmed, domain.StatusCancelled, true},
		{domain.StatusPreparing, domain.StatusOutForDelivery, true},
		{domain.StatusOutForDelivery, domain.StatusDelivered, true},
		{domain.StatusPreparing, domain.StatusCancelled, false},
		{domain.StatusDelivered, domain.StatusCancelled, false},
		{domain.StatusConfirmed, domain.StatusPending, false},
		{domain.StatusCancelled, domain.StatusPending, false},
		{domain.StatusDelivered, domain.StatusOutForDelivery, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := domain.CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestOrderIsTerminal(t *testing.T) {
	tests := []struct {
		status domain.OrderStatus
		want   bool
	}{
		{domain.StatusDelivered, true},
		{domain.StatusCancelled, true},
		{domain.StatusPending, false},
		{domain.StatusOutForDelivery, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			order := newOrder(tt.status, domain.PaymentPending)
			if got := order.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderConfirmCash(t *testing.T) {
	now := time.Now().UTC()

	t.Run("pending order is confirmed with payment still pending", func(t *testing.T) {
		order := newOrder(domain.StatusPending, domain.PaymentPending)
		if err := order.ConfirmCash(now); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if order.Status != domain.StatusConfirmed {
			t.Errorf("expected status confirmed, got %s", order.Status)
		}
		if order.PaymentMethod != domain.MethodCash {
			t.Errorf("expected method cash, got %s", order.PaymentMethod)
		}
		if order.PaymentStatus != domain.PaymentPending {
			t.Errorf("expected payment pending, got %s", order.PaymentStatus)
		}
	})

	t.Run("already confirmed order conflicts", func(t *testing.T) {
		order := newOrder(domain.StatusConfirmed, domain.PaymentPending)
		if err := order.ConfirmCash(now); !errors.Is(err, domain.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("paid order conflicts", func(t *testing.T) {
		order := newOrder(domain.StatusPending, domain.PaymentPaid)
		if err := order.ConfirmCash(now); !errors.Is(err, domain.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})
}

func TestOrderMarkPaid(t *testing.T) {
	now := time.Now().UTC()

	t.Run("pending order becomes confirmed and paid", func(t *testing.T) {
		order := newOrder(domain.StatusPending, domain.PaymentPending)
		if applied := order.MarkPaid("ref-1", now); !applied {
			t.Fatal("expected payment to be applied")
		}
		if order.Status != domain.StatusConfirmed || order.PaymentStatus != domain.PaymentPaid || order.PaymentMethod != domain.MethodGateway {
			t.Errorf("unexpected state %s/%s/%s", order.Status, order.PaymentStatus, order.PaymentMethod)
		}
		if order.GatewayReference == nil || *order.GatewayReference != "ref-1" {
			t.Errorf("expected gateway reference ref-1, got %v", order.GatewayReference)
		}
	})

	t.Run("second application is a no-op", func(t *testing.T) {
		order := newOrder(domain.StatusPending, domain.PaymentPending)
		order.MarkPaid("ref-1", now)
		order.Status = domain.StatusPreparing
		updatedAt := order.UpdatedAt

		if applied := order.MarkPaid("ref-1", now.Add(time.Minute)); applied {
			t.Error("expected duplicate payment to be ignored")
		}
		if order.Status != domain.StatusPreparing {
			t.Errorf("expected status to stay preparing, got %s", order.Status)
		}
		if !order.UpdatedAt.Equal(updatedAt) {
			t.Error("expected updated_at to be untouched")
		}
	})

	t.Run("cash confirmed order keeps confirmed", func(t *testing.T) {
		order := newOrder(domain.StatusConfirmed, domain.PaymentPending)
		order.PaymentMethod = domain.MethodCash
		order.MarkPaid("ref-2", now)
		if order.Status != domain.StatusConfirmed || order.PaymentMethod != domain.MethodGateway {
			t.Errorf("unexpected state %s/%s", order.Status, order.PaymentMethod)
		}
	})

	t.Run("cancelled order stays cancelled", func(t *testing.T) {
		order := newOrder(domain.StatusCancelled, domain.PaymentPending)
		if applied := order.MarkPaid("ref-3", now); !applied {
			t.Fatal("expected payment to be recorded")
		}
		if order.Status != domain.StatusCancelled {
			t.Errorf("expected status cancelled, got %s", order.Status)
		}
	})
}

func TestOrderCancel(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		status  domain.OrderStatus
		payment domain.PaymentStatus
		actor   domain.Actor
		wantErr error
	}{
		{"customer cancels pending", domain.StatusPending, domain.PaymentPending, customer, nil},
		{"customer cancels confirmed cash order", domain.StatusConfirmed, domain.PaymentPending, customer, nil},
		{"customer cannot cancel paid order", domain.StatusConfirmed, domain.PaymentPaid, customer, domain.ErrForbidden},
		{"admin force-cancels paid order", domain.StatusConfirmed, domain.PaymentPaid, admin, nil},
		{"preparing cannot be cancelled", domain.StatusPreparing, domain.PaymentPending, admin, domain.ErrConflict},
		{"delivered cannot be cancelled", domain.StatusDelivered, domain.PaymentPaid, admin, domain.ErrConflict},
		{"cancelled cannot be cancelled again", domain.StatusCancelled, domain.PaymentPending, customer, domain.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := newOrder(tt.status, tt.payment)
			err := order.Cancel(tt.actor, now)

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if order.Status != domain.StatusCancelled {
					t.Errorf("expected status cancelled, got %s", order.Status)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if order.Status != tt.status {
				t.Errorf("expected status to stay %s, got %s", tt.status, order.Status)
			}
		})
	}
}

func TestOrderAdvanceStatus(t *testing.T) {
	now := time.Now().UTC()

	t.Run("forward move", func(t *testing.T) {
		order := newOrder(domain.StatusConfirmed, domain.PaymentPaid)
		changed, err := order.AdvanceStatus(domain.StatusPreparing, now)
		if err != nil || !changed {
			t.Fatalf("expected change, got changed=%v err=%v", changed, err)
		}
		if order.Status != domain.StatusPreparing {
			t.Errorf("expected preparing, got %s", order.Status)
		}
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		order := newOrder(domain.StatusPreparing, domain.PaymentPaid)
		changed, err := order.AdvanceStatus(domain.StatusPreparing, now)
		if err != nil || changed {
			t.Fatalf("expected no-op, got changed=%v err=%v", changed, err)
		}
	})

	t.Run("backward move conflicts", func(t *testing.T) {
		order := newOrder(domain.StatusOutForDelivery, domain.PaymentPaid)
		_, err := order.AdvanceStatus(domain.StatusPreparing, now)
		if !errors.Is(err, domain.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		order := newOrder(domain.StatusPending, domain.PaymentPending)
		_, err := order.AdvanceStatus("teleported", now)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestOrderCheckDeletable(t *testing.T) {
	if err := newOrder(domain.StatusPending, domain.PaymentPending).CheckDeletable(); err != nil {
		t.Errorf("expected unpaid order to be deletable, got %v", err)
	}
	if err := newOrder(domain.StatusCancelled, domain.PaymentPaid).CheckDeletable(); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict for paid order, got %v", err)
	}
}

func TestOrderCanInitiatePayment(t *testing.T) {
	tests := []struct {
		status  domain.OrderStatus
		payment domain.PaymentStatus
		wantErr bool
	}{
		{domain.StatusPending, domain.PaymentPending, false},
		{domain.StatusConfirmed, domain.PaymentPending, false},
		{domain.StatusConfirmed, domain.PaymentPaid, true},
		{domain.StatusCancelled, domain.PaymentPending, true},
		{domain.StatusPreparing, domain.PaymentPending, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+string(tt.payment), func(t *testing.T) {
			err := newOrder(tt.status, tt.payment).CanInitiatePayment()
			if (err != nil) != tt.wantErr {
				t.Errorf("CanInitiatePayment() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := domain.ParseOrderStatus(" Out_For_Delivery ")
	if err != nil || status != domain.StatusOutForDelivery {
		t.Errorf("expected out_for_delivery, got %q err=%v", status, err)
	}
	if _, err := domain.ParseOrderStatus("lost"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
