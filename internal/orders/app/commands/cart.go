package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
)

type AddCartItemCommand struct {
	UserID     string
	MenuItemID string
	Quantity   int
}

type SetCartQuantityCommand struct {
	UserID     string
	MenuItemID string
	Quantity   int
}

type RemoveCartItemCommand struct {
	UserID     string
	MenuItemID string
}

// CartCommandHandler edits the caller's cart.
type CartCommandHandler struct {
	carts   ports.CartStore
	catalog ports.CatalogRepository
}

func NewCartCommandHandler(carts ports.CartStore, catalog ports.CatalogRepository) *CartCommandHandler {
	return &CartCommandHandler{carts: carts, catalog: catalog}
}

func requireCartFields(userID, menuItemID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user is required", domain.ErrValidation)
	}
	if strings.TrimSpace(menuItemID) == "" {
		return fmt.Errorf("%w: menu_item_id is required", domain.ErrValidation)
	}
	return nil
}

// AddItem adds the menu item at its current price.
func (h *CartCommandHandler) AddItem(ctx context.Context, cmd AddCartItemCommand) (*domain.Cart, error) {
	if err := requireCartFields(cmd.UserID, cmd.MenuItemID); err != nil {
		return nil, err
	}

	item, err := h.catalog.GetMenuItem(ctx, cmd.MenuItemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load menu item %s: %w", cmd.MenuItemID, err)
	}

	return h.mutate(ctx, cmd.UserID, func(cart *domain.Cart) error {
		return cart.Add(*item, cmd.Quantity)
	})
}

func (h *CartCommandHandler) SetQuantity(ctx context.Context, cmd SetCartQuantityCommand) (*domain.Cart, error) {
	if err := requireCartFields(cmd.UserID, cmd.MenuItemID); err != nil {
		return nil, err
	}
	return h.mutate(ctx, cmd.UserID, func(cart *domain.Cart) error {
		return cart.SetQuantity(cmd.MenuItemID, cmd.Quantity)
	})
}

func (h *CartCommandHandler) RemoveItem(ctx context.Context, cmd RemoveCartItemCommand) (*domain.Cart, error) {
	if err := requireCartFields(cmd.UserID, cmd.MenuItemID); err != nil {
		return nil, err
	}
	return h.mutate(ctx, cmd.UserID, func(cart *domain.Cart) error {
		cart.Remove(cmd.MenuItemID)
		return nil
	})
}

func (h *CartCommandHandler) mutate(ctx context.Context, userID string, apply func(*domain.Cart) error) (*domain.Cart, error) {
	var applyErr error
	cart, err := h.carts.Update(ctx, userID, func(cart *domain.Cart) error {
		applyErr = apply(cart)
		return applyErr
	})
	if err != nil {
		if applyErr != nil {
			return nil, applyErr
		}
		return nil, fmt.Errorf("update cart: %w", err)
	}
	return cart, nil
}
