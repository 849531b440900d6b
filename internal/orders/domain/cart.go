package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps the units of a single menu item in a cart.
const MaxLineQuantity = 99

// CartLine holds a menu item selection with the price seen when it was added.
type CartLine struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
}

// Cart is the per-customer selection held until an order is placed.
type Cart struct {
	Items map[string]CartLine `json:"items"`
}

func NewCart() *Cart {
	return &Cart{Items: make(map[string]CartLine)}
}

// Add puts quantity units of the item in the cart, merging with an existing line.
func (c *Cart) Add(item MenuItem, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if !item.Available {
		return fmt.Errorf("%w: %s is not available", ErrValidation, item.Name)
	}
	if c.Items == nil {
		c.Items = make(map[string]CartLine)
	}

	line, ok := c.Items[item.ID]
	if !ok {
		line = CartLine{MenuItemID: item.ID, Name: item.Name, UnitPrice: item.Price}
	}
	if line.Quantity+quantity > MaxLineQuantity {
		return fmt.Errorf("%w: at most %d of %s per order", ErrValidation, MaxLineQuantity, item.Name)
	}
	line.Quantity += quantity
	c.Items[item.ID] = line
	return nil
}

// SetQuantity replaces the quantity of a line. Zero or less removes it.
func (c *Cart) SetQuantity(menuItemID string, quantity int) error {
	line, ok := c.Items[menuItemID]
	if !ok {
		return fmt.Errorf("%w: item %s is not in the cart", ErrNotFound, menuItemID)
	}
	if quantity <= 0 {
		delete(c.Items, menuItemID)
		return nil
	}
	if quantity > MaxLineQuantity {
		return fmt.Errorf("%w: at most %d of %s per order", ErrValidation, MaxLineQuantity, line.Name)
	}
	line.Quantity = quantity
	c.Items[menuItemID] = line
	return nil
}

func (c *Cart) Remove(menuItemID string) {
	delete(c.Items, menuItemID)
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Lines returns the cart lines ordered by menu item id.
func (c *Cart) Lines() []CartLine {
	if c == nil {
		return nil
	}
	lines := make([]CartLine, 0, len(c.Items))
	for _, line := range c.Items {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].MenuItemID < lines[j].MenuItemID })
	return lines
}

func (c *Cart) PriceLines() []PriceLine {
	lines := c.Lines()
	out := make([]PriceLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, PriceLine{UnitPrice: line.UnitPrice, Quantity: line.Quantity})
	}
	return out
}
