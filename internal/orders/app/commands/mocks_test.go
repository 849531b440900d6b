package commands_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dejobratic/foodorder/internal/orders/adapters/memory"
	"github.com/dejobratic/foodorder/internal/orders/app/pricing"
	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
	"github.com/shopspring/decimal"
)

type notification struct {
	event string
	order domain.Order
	from  domain.OrderStatus
	to    domain.OrderStatus
}

type mockNotifier struct {
	mu    sync.Mutex
	sent  []notification
	errFn func(event string) error
}

func (m *mockNotifier) record(event string, order *domain.Order, from, to domain.OrderStatus) error {
	m.mu.Lock()
	m.sent = append(m.sent, notification{event: event, order: *order, from: from, to: to})
	m.mu.Unlock()
	if m.errFn != nil {
		return m.errFn(event)
	}
	return nil
}

func (m *mockNotifier) OrderCreated(_ context.Context, order *domain.Order) error {
	return m.record("order_created", order, "", order.Status)
}

func (m *mockNotifier) StatusChanged(_ context.Context, order *domain.Order, from, to domain.OrderStatus) error {
	return m.record("status_changed", order, from, to)
}

func (m *mockNotifier) PaymentConfirmed(_ context.Context, order *domain.Order) error {
	return m.record("payment_confirmed", order, "", order.Status)
}

func (m *mockNotifier) events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, n := range m.sent {
		out = append(out, n.event)
	}
	return out
}

// mockGateway remembers the amount of every initialised reference and
// reports it back from Verify.
type mockGateway struct {
	initializeFn func(ctx context.Context, req ports.InitializeRequest) (*ports.InitializeResult, error)
	verifyFn     func(ctx context.Context, reference string) (*ports.Verification, error)

	mu      sync.Mutex
	charged map[string]int64
}

func (m *mockGateway) Initialize(ctx context.Context, req ports.InitializeRequest) (*ports.InitializeResult, error) {
	if m.initializeFn != nil {
		return m.initializeFn(ctx, req)
	}
	m.mu.Lock()
	if m.charged == nil {
		m.charged = make(map[string]int64)
	}
	m.charged[req.Reference] = req.AmountMinor
	m.mu.Unlock()
	return &ports.InitializeResult{
		AuthorizationURL: "https://checkout.paystack.test/" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (m *mockGateway) Verify(ctx context.Context, reference string) (*ports.Verification, error) {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, reference)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return &ports.Verification{Reference: reference, Status: "success", Success: true, AmountMinor: m.charged[reference]}, nil
}

type mockDecoder struct {
	decodeFn func(body []byte, signature string) (*ports.WebhookEvent, error)
}

func (m *mockDecoder) Decode(body []byte, signature string) (*ports.WebhookEvent, error) {
	return m.decodeFn(body, signature)
}

var (
	customer = domain.Actor{UserID: "user-1", Email: "ada@example.com", Role: domain.RoleCustomer}
	stranger = domain.Actor{UserID: "user-2", Email: "bola@example.com", Role: domain.RoleCustomer}
	admin    = domain.Actor{UserID: "admin-1", Email: "ops@example.com", Role: domain.RoleAdmin}
)

type fixture struct {
	store    *memory.Store
	carts    *memory.CartStore
	notifier *mockNotifier
	pricer   *pricing.Calculator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	store.PutMenuItem(domain.MenuItem{ID: "jollof", Name: "Jollof Rice", Price: decimal.NewFromInt(1000), Available: true})
	store.PutMenuItem(domain.MenuItem{ID: "suya", Name: "Suya", Price: decimal.NewFromInt(700), Available: false})
	store.PutZone(domain.DeliveryZone{ID: "zone-ikeja", Name: "Ikeja", Fee: decimal.NewFromInt(500)})
	store.PutCoupon(domain.Coupon{
		ID:     "cpn-save10",
		Code:   "SAVE10",
		Type:   domain.CouponPercent,
		Amount: decimal.NewFromInt(10),
		Active: true,
	})

	return &fixture{
		store:    store,
		carts:    memory.NewCartStore(),
		notifier: &mockNotifier{},
		pricer:   pricing.NewCalculator(store, pricing.NewCouponEvaluator(store), pricing.DefaultConfig()),
	}
}

func (f *fixture) fillCart(t *testing.T, userID string, quantity int) {
	t.Helper()
	cart := domain.NewCart()
	if err := cart.Add(domain.MenuItem{ID: "jollof", Name: "Jollof Rice", Price: decimal.NewFromInt(1000), Available: true}, quantity); err != nil {
		t.Fatalf("failed to fill cart: %v", err)
	}
	if err := f.carts.Save(context.Background(), userID, cart); err != nil {
		t.Fatalf("failed to save cart: %v", err)
	}
}

// seedOrder stores a consistent order owned by customer.
func (f *fixture) seedOrder(t *testing.T, id string, status domain.OrderStatus, payment domain.PaymentStatus) *domain.Order {
	t.Helper()
	order := &domain.Order{
		ID:              id,
		Number:          "LFD" + id,
		CustomerID:      customer.UserID,
		CustomerEmail:   customer.Email,
		Subtotal:        decimal.NewFromInt(2000),
		DeliveryFee:     decimal.NewFromInt(500),
		Tax:             decimal.NewFromInt(150),
		Total:           decimal.NewFromInt(2650),
		Status:          status,
		PaymentMethod:   domain.MethodPending,
		PaymentStatus:   payment,
		DeliveryAddress: "1 Allen Avenue, Ikeja",
		Phone:           "08030000000",
		Items: []domain.OrderItem{{
			ID: id + "-1", OrderID: id, MenuItemID: "jollof", Name: "Jollof Rice",
			Quantity: 2, UnitPrice: decimal.NewFromInt(1000), Subtotal: decimal.NewFromInt(2000),
		}},
	}
	if err := f.store.Create(context.Background(), order, nil); err != nil {
		t.Fatalf("failed to seed order: %v", err)
	}
	return order
}
