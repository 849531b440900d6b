package ports

import (
	"context"

	"github.com/dejobratic/foodorder/internal/orders/domain"
)

// CartStore keeps each customer's cart between requests. Get returns an
// empty cart when none exists. Update applies a read-modify-write atomically
// so concurrent edits of the same cart are never lost; an error from apply
// leaves the stored cart unchanged.
type CartStore interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Update(ctx context.Context, userID string, apply func(*domain.Cart) error) (*domain.Cart, error)
	Save(ctx context.Context, userID string, cart *domain.Cart) error
	Clear(ctx context.Context, userID string) error
}
