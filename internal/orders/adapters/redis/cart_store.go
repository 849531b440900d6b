package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	goredis "github.com/redis/go-redis/v9"
)

const (
	DefaultCartTTL = 7 * 24 * time.Hour

	maxUpdateAttempts = 10
)

// ErrCartContended is returned when an update kept losing the optimistic
// lock to concurrent writers.
var ErrCartContended = errors.New("cart update contended")

// CartStore keeps each customer's cart as a JSON document under cart:{userID}.
// Every write refreshes the expiry.
type CartStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewCartStore(client *goredis.Client, ttl time.Duration) *CartStore {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &CartStore{client: client, ttl: ttl}
}

func cartKey(userID string) string {
	return "cart:" + userID
}

func (s *CartStore) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.load(ctx, s.client, userID)
}

type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func (s *CartStore) load(ctx context.Context, cmd getter, userID string) (*domain.Cart, error) {
	raw, err := cmd.Get(ctx, cartKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.NewCart(), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	cart := domain.NewCart()
	if err := json.Unmarshal(raw, cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = make(map[string]domain.CartLine)
	}
	return cart, nil
}

func (s *CartStore) Save(ctx context.Context, userID string, cart *domain.Cart) error {
	if cart.IsEmpty() {
		return s.Clear(ctx, userID)
	}

	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKey(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Update watches the cart key and writes the result in a MULTI block,
// retrying when another writer changed the key in between.
func (s *CartStore) Update(ctx context.Context, userID string, apply func(*domain.Cart) error) (*domain.Cart, error) {
	key := cartKey(userID)

	var updated *domain.Cart
	txn := func(tx *goredis.Tx) error {
		cart, err := s.load(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := apply(cart); err != nil {
			return err
		}

		var raw []byte
		if !cart.IsEmpty() {
			if raw, err = json.Marshal(cart); err != nil {
				return fmt.Errorf("encode cart: %w", err)
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			if raw == nil {
				pipe.Del(ctx, key)
				return nil
			}
			pipe.Set(ctx, key, raw, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = cart
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", ErrCartContended, userID)
}

func (s *CartStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
