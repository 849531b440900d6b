package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/dejobratic/foodorder/internal/database"
	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
	"github.com/dejobratic/foodorder/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableRepository wraps an order repository with spans and query timings.
type ObservableRepository struct {
	repo    ports.OrderRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.OrderRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) Create(ctx context.Context, order *domain.Order, redemption *ports.CouponRedemption) error {
	attrs := []attribute.KeyValue{
		attribute.String("order.id", order.ID),
		attribute.Int("order.items", len(order.Items)),
		attribute.Bool("order.coupon", redemption != nil),
	}
	return r.track(ctx, "Create", "create_order", attrs, func(ctx context.Context) error {
		return r.repo.Create(ctx, order, redemption)
	})
}

func (r *ObservableRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var order *domain.Order
	err := r.track(ctx, "GetByID", "get_order_by_id", []attribute.KeyValue{attribute.String("order.id", id)}, func(ctx context.Context) error {
		var err error
		order, err = r.repo.GetByID(ctx, id)
		return err
	})
	return order, err
}

func (r *ObservableRepository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	var order *domain.Order
	err := r.track(ctx, "GetByNumber", "get_order_by_number", []attribute.KeyValue{attribute.String("order.number", number)}, func(ctx context.Context) error {
		var err error
		order, err = r.repo.GetByNumber(ctx, number)
		return err
	})
	return order, err
}

func (r *ObservableRepository) GetByReference(ctx context.Context, reference string) (*domain.Order, error) {
	var order *domain.Order
	err := r.track(ctx, "GetByReference", "get_order_by_reference", []attribute.KeyValue{attribute.String("payment.reference", reference)}, func(ctx context.Context) error {
		var err error
		order, err = r.repo.GetByReference(ctx, reference)
		return err
	})
	return order, err
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	attrs := []attribute.KeyValue{
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
	}
	if filter.Status != nil {
		attrs = append(attrs, attribute.String("filter.status", string(*filter.Status)))
	}
	if filter.CustomerID != nil {
		attrs = append(attrs, attribute.String("filter.customer_id", *filter.CustomerID))
	}

	var orders []domain.Order
	err := r.track(ctx, "List", "list_orders", attrs, func(ctx context.Context) error {
		var err error
		orders, err = r.repo.List(ctx, filter)
		return err
	})
	return orders, err
}

func (r *ObservableRepository) Update(ctx context.Context, id string, mutate ports.MutateFunc) (*domain.Order, error) {
	var order *domain.Order
	err := r.track(ctx, "Update", "update_order", []attribute.KeyValue{attribute.String("order.id", id)}, func(ctx context.Context) error {
		var err error
		order, err = r.repo.Update(ctx, id, mutate)
		return err
	})
	return order, err
}

func (r *ObservableRepository) Delete(ctx context.Context, id string, guard func(order *domain.Order) error) error {
	return r.track(ctx, "Delete", "delete_order", []attribute.KeyValue{attribute.String("order.id", id)}, func(ctx context.Context) error {
		return r.repo.Delete(ctx, id, guard)
	})
}

func (r *ObservableRepository) track(ctx context.Context, method, operation string, attrs []attribute.KeyValue, call func(context.Context) error) error {
	return trackQuery(ctx, r.metrics, "OrderRepository."+method, operation, attrs, call)
}

func trackQuery(ctx context.Context, metrics *database.Metrics, spanName, operation string, attrs []attribute.KeyValue, call func(context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, append(attrs, attribute.String("operation", operation))...)

	start := time.Now()
	err := call(ctx)
	metrics.RecordQuery(ctx, operation, queryOutcome(err), time.Since(start).Seconds())

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func queryOutcome(err error) string {
	switch {
	case err == nil:
		return database.OutcomeOK
	case errors.Is(err, domain.ErrNotFound):
		return database.OutcomeNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrCouponExhausted):
		return database.OutcomeConflict
	default:
		return database.OutcomeError
	}
}
