package app

import (
	"context"
	"log/slog"

	"github.com/dejobratic/foodorder/internal/orders/app/commands"
	"github.com/dejobratic/foodorder/internal/orders/app/pricing"
	"github.com/dejobratic/foodorder/internal/orders/app/queries"
	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/metrics"
	"github.com/dejobratic/foodorder/internal/orders/ports"
)

// Dependencies are the adapters the service is assembled from.
type Dependencies struct {
	Orders      ports.OrderRepository
	Catalog     ports.CatalogRepository
	Coupons     ports.CouponRepository
	Stats       ports.OrderStatsRepository
	Carts       ports.CartStore
	Gateway     ports.PaymentGateway
	Webhooks    ports.WebhookDecoder
	Notifier    ports.Notifier
	Idempotency ports.IdempotencyStore
	Pricing     pricing.Config
	CallbackURL string
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Service bundles the ordering use cases exposed over the API.
type Service struct {
	idemStore ports.IdempotencyStore
	checkout  commands.CheckoutHandler
	lifecycle commands.LifecycleHandler
	payments  commands.PaymentHandler
	cartCmds  *commands.CartCommandHandler
	cartQuery *queries.CartQueryHandler
	getOrder  *queries.GetOrderQueryHandler
	trackOrd  *queries.TrackOrderQueryHandler
	listOrder *queries.ListOrdersQueryHandler
	stats     *queries.StatsQueryHandler
}

// NewService wires the command and query handlers, wrapping the commands in
// their observable decorators.
func NewService(deps Dependencies) *Service {
	var opts []pricing.EvaluatorOption
	if deps.Metrics != nil {
		opts = append(opts, pricing.WithRecorder(deps.Metrics))
	}
	evaluator := pricing.NewCouponEvaluator(deps.Coupons, opts...)
	pricer := pricing.NewCalculator(deps.Catalog, evaluator, deps.Pricing)

	checkout := commands.NewCheckoutCommandHandler(deps.Carts, deps.Catalog, deps.Orders, pricer, deps.Notifier, deps.Logger)
	lifecycle := commands.NewOrderLifecycle(deps.Orders, deps.Carts, deps.Notifier, deps.Logger)
	payments := commands.NewPaymentCommandHandler(deps.Orders, deps.Carts, deps.Gateway, deps.Webhooks, deps.Notifier, deps.CallbackURL, deps.Logger)

	getOrder := queries.NewGetOrderQueryHandler(deps.Orders)

	return &Service{
		idemStore: deps.Idempotency,
		checkout:  commands.NewObservableCheckoutHandler(checkout, deps.Logger, deps.Metrics),
		lifecycle: commands.NewObservableLifecycleHandler(lifecycle, deps.Logger, deps.Metrics),
		payments:  commands.NewObservablePaymentHandler(payments, deps.Logger, deps.Metrics),
		cartCmds:  commands.NewCartCommandHandler(deps.Carts, deps.Catalog),
		cartQuery: queries.NewCartQueryHandler(deps.Carts, pricer),
		getOrder:  getOrder,
		trackOrd:  queries.NewTrackOrderQueryHandler(getOrder, deps.Catalog),
		listOrder: queries.NewListOrdersQueryHandler(deps.Orders),
		stats:     queries.NewStatsQueryHandler(deps.Stats),
	}
}

// CheckoutInput captures the checkout form.
type CheckoutInput struct {
	DeliveryZoneID string `json:"delivery_zone_id"`
	CouponCode     string `json:"coupon_code"`
	Address        string `json:"delivery_address"`
	Phone          string `json:"phone_number"`
	Notes          string `json:"notes"`
}

func (s *Service) Checkout(ctx context.Context, actor domain.Actor, input CheckoutInput) (*domain.Order, error) {
	return s.checkout.Handle(ctx, commands.CheckoutCommand{
		Actor:          actor,
		DeliveryZoneID: input.DeliveryZoneID,
		CouponCode:     input.CouponCode,
		Address:        input.Address,
		Phone:          input.Phone,
		Notes:          input.Notes,
	})
}

func (s *Service) GetOrder(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	return s.getOrder.Handle(ctx, queries.GetOrderQuery{Actor: actor, OrderID: id})
}

// TrackOrder looks an order up by its customer-facing number and attaches
// the delivery estimate.
func (s *Service) TrackOrder(ctx context.Context, actor domain.Actor, number string) (*queries.Tracking, error) {
	return s.trackOrd.Handle(ctx, actor, number)
}

func (s *Service) CustomerStats(ctx context.Context, actor domain.Actor) (*domain.CustomerStats, error) {
	return s.stats.CustomerStats(ctx, actor)
}

func (s *Service) PopularItems(ctx context.Context) ([]domain.ItemCount, error) {
	return s.stats.PopularItems(ctx)
}

func (s *Service) OrderStatusCounts(ctx context.Context, actor domain.Actor) (*queries.StatusCounts, error) {
	return s.stats.StatusCounts(ctx, actor)
}

type ListOrdersInput struct {
	Status   string
	Page     int
	PageSize int
}

func (s *Service) ListOrders(ctx context.Context, actor domain.Actor, input ListOrdersInput) (*queries.OrderPage, error) {
	return s.listOrder.Handle(ctx, queries.ListOrdersQuery{
		Actor:    actor,
		Status:   input.Status,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
}

func (s *Service) ConfirmCash(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	change, err := s.lifecycle.ConfirmCash(ctx, commands.ConfirmCashCommand{Actor: actor, OrderID: id})
	if err != nil {
		return nil, err
	}
	return change.Order, nil
}

func (s *Service) CancelOrder(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	change, err := s.lifecycle.Cancel(ctx, commands.CancelOrderCommand{Actor: actor, OrderID: id})
	if err != nil {
		return nil, err
	}
	return change.Order, nil
}

type UpdateStatusInput struct {
	Status string `json:"status"`
}

func (s *Service) UpdateOrderStatus(ctx context.Context, actor domain.Actor, id string, input UpdateStatusInput) (*domain.Order, error) {
	change, err := s.lifecycle.UpdateStatus(ctx, commands.UpdateStatusCommand{Actor: actor, OrderID: id, Status: input.Status})
	if err != nil {
		return nil, err
	}
	return change.Order, nil
}

func (s *Service) DeleteOrder(ctx context.Context, actor domain.Actor, id string) error {
	return s.lifecycle.Delete(ctx, commands.DeleteOrderCommand{Actor: actor, OrderID: id})
}

func (s *Service) InitiatePayment(ctx context.Context, actor domain.Actor, id string) (*commands.PaymentInitiation, error) {
	return s.payments.Initiate(ctx, commands.InitiatePaymentCommand{Actor: actor, OrderID: id})
}

// ConfirmPaymentRedirect handles the customer returning from the hosted
// payment page.
func (s *Service) ConfirmPaymentRedirect(ctx context.Context, reference string) (*commands.PaymentOutcome, error) {
	return s.payments.ConfirmRedirect(ctx, reference)
}

// HandlePaymentWebhook processes a raw, signed gateway notification.
func (s *Service) HandlePaymentWebhook(ctx context.Context, body []byte, signature string) (*commands.PaymentOutcome, error) {
	return s.payments.ConfirmWebhook(ctx, body, signature)
}

// CartPricingInput optionally prices the cart for a destination and coupon.
type CartPricingInput struct {
	DeliveryZoneID string `json:"delivery_zone_id"`
	Address        string `json:"delivery_address"`
	CouponCode     string `json:"code"`
}

func (s *Service) ViewCart(ctx context.Context, actor domain.Actor, input CartPricingInput) (*queries.CartView, error) {
	return s.cartQuery.View(ctx, queries.ViewCartQuery{
		Actor:      actor,
		ZoneID:     input.DeliveryZoneID,
		Address:    input.Address,
		CouponCode: input.CouponCode,
	})
}

func (s *Service) PreviewCoupon(ctx context.Context, actor domain.Actor, input CartPricingInput) (*queries.CouponPreview, error) {
	return s.cartQuery.PreviewCoupon(ctx, queries.ViewCartQuery{
		Actor:      actor,
		ZoneID:     input.DeliveryZoneID,
		Address:    input.Address,
		CouponCode: input.CouponCode,
	})
}

type CartItemInput struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

func (s *Service) AddCartItem(ctx context.Context, actor domain.Actor, input CartItemInput) (*domain.Cart, error) {
	return s.cartCmds.AddItem(ctx, commands.AddCartItemCommand{UserID: actor.UserID, MenuItemID: input.MenuItemID, Quantity: input.Quantity})
}

func (s *Service) SetCartQuantity(ctx context.Context, actor domain.Actor, menuItemID string, quantity int) (*domain.Cart, error) {
	return s.cartCmds.SetQuantity(ctx, commands.SetCartQuantityCommand{UserID: actor.UserID, MenuItemID: menuItemID, Quantity: quantity})
}

func (s *Service) RemoveCartItem(ctx context.Context, actor domain.Actor, menuItemID string) (*domain.Cart, error) {
	return s.cartCmds.RemoveItem(ctx, commands.RemoveCartItemCommand{UserID: actor.UserID, MenuItemID: menuItemID})
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}
