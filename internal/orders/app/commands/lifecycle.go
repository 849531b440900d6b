package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
)

type ConfirmCashCommand struct {
	Actor   domain.Actor
	OrderID string
}

type CancelOrderCommand struct {
	Actor   domain.Actor
	OrderID string
}

type UpdateStatusCommand struct {
	Actor   domain.Actor
	OrderID string
	Status  string
}

type DeleteOrderCommand struct {
	Actor   domain.Actor
	OrderID string
}

// StatusChange is the result of a lifecycle transition. Changed is false when
// the request left the order as it was.
type StatusChange struct {
	Order   *domain.Order
	From    domain.OrderStatus
	Changed bool
}

type LifecycleHandler interface {
	ConfirmCash(ctx context.Context, cmd ConfirmCashCommand) (*StatusChange, error)
	Cancel(ctx context.Context, cmd CancelOrderCommand) (*StatusChange, error)
	UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*StatusChange, error)
	Delete(ctx context.Context, cmd DeleteOrderCommand) error
}

// OrderLifecycle applies status transitions inside the repository's locked
// update so that concurrent requests see each other's writes.
type OrderLifecycle struct {
	orders   ports.OrderRepository
	carts    ports.CartStore
	notifier ports.Notifier
	logger   *slog.Logger
}

func NewOrderLifecycle(orders ports.OrderRepository, carts ports.CartStore, notifier ports.Notifier, logger *slog.Logger) *OrderLifecycle {
	return &OrderLifecycle{
		orders:   orders,
		carts:    carts,
		notifier: notifier,
		logger:   loggerOrDefault(logger),
	}
}

func requireOrderID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: order_id is required", domain.ErrValidation)
	}
	return nil
}

// ConfirmCash switches the owner's pending order to cash on delivery and
// empties their cart.
func (l *OrderLifecycle) ConfirmCash(ctx context.Context, cmd ConfirmCashCommand) (*StatusChange, error) {
	if err := requireOrderID(cmd.OrderID); err != nil {
		return nil, err
	}

	var from domain.OrderStatus
	order, err := l.orders.Update(ctx, cmd.OrderID, func(o *domain.Order) (bool, error) {
		if !cmd.Actor.Owns(o) {
			return false, fmt.Errorf("%w: order %s belongs to another customer", domain.ErrForbidden, o.Number)
		}
		from = o.Status
		if err := o.ConfirmCash(utcNow()); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if err := l.carts.Clear(ctx, order.CustomerID); err != nil {
		l.logger.ErrorContext(ctx, "failed to clear cart", "user_id", order.CustomerID, "error", err)
	}

	l.statusChanged(ctx, order, from)
	return &StatusChange{Order: order, From: from, Changed: true}, nil
}

// Cancel cancels the order for its owner or an administrator.
func (l *OrderLifecycle) Cancel(ctx context.Context, cmd CancelOrderCommand) (*StatusChange, error) {
	if err := requireOrderID(cmd.OrderID); err != nil {
		return nil, err
	}

	var from domain.OrderStatus
	order, err := l.orders.Update(ctx, cmd.OrderID, func(o *domain.Order) (bool, error) {
		if !cmd.Actor.CanView(o) {
			return false, fmt.Errorf("%w: order %s belongs to another customer", domain.ErrForbidden, o.Number)
		}
		from = o.Status
		if err := o.Cancel(cmd.Actor, utcNow()); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	l.statusChanged(ctx, order, from)
	return &StatusChange{Order: order, From: from, Changed: true}, nil
}

// UpdateStatus is the administrator's status edit. Cancelling through it
// follows the same rules as Cancel.
func (l *OrderLifecycle) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*StatusChange, error) {
	if !cmd.Actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only administrators can change order status", domain.ErrForbidden)
	}
	if err := requireOrderID(cmd.OrderID); err != nil {
		return nil, err
	}
	target, err := domain.ParseOrderStatus(cmd.Status)
	if err != nil {
		return nil, err
	}

	var from domain.OrderStatus
	var changed bool
	order, err := l.orders.Update(ctx, cmd.OrderID, func(o *domain.Order) (bool, error) {
		from = o.Status
		if target == o.Status {
			return false, nil
		}
		if target == domain.StatusCancelled {
			if err := o.Cancel(cmd.Actor, utcNow()); err != nil {
				return false, err
			}
			changed = true
			return true, nil
		}
		var err error
		changed, err = o.AdvanceStatus(target, utcNow())
		return changed, err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		l.statusChanged(ctx, order, from)
	}
	return &StatusChange{Order: order, From: from, Changed: changed}, nil
}

// Delete removes an unpaid order. Coupon usage recorded for it stays.
func (l *OrderLifecycle) Delete(ctx context.Context, cmd DeleteOrderCommand) error {
	if !cmd.Actor.IsAdmin() {
		return fmt.Errorf("%w: only administrators can delete orders", domain.ErrForbidden)
	}
	if err := requireOrderID(cmd.OrderID); err != nil {
		return err
	}
	return l.orders.Delete(ctx, cmd.OrderID, func(o *domain.Order) error {
		return o.CheckDeletable()
	})
}

func (l *OrderLifecycle) statusChanged(ctx context.Context, order *domain.Order, from domain.OrderStatus) {
	notify(ctx, l.logger, "status_changed", order.ID, func(ctx context.Context) error {
		return l.notifier.StatusChanged(ctx, order, from, order.Status)
	})
}
