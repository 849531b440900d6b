package memory

import (
	"context"
	"testing"
	"time"

	"github.com/dejobratic/foodorder/internal/orders/ports"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown key returns nil", func(t *testing.T) {
		store := NewStore(time.Hour)

		got, err := store.Get(ctx, "user-1:missing")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("first response wins", func(t *testing.T) {
		store := NewStore(time.Hour)

		_ = store.Save(ctx, "user-1:k", ports.StoredResponse{StatusCode: 201, OrderID: "o1"})
		_ = store.Save(ctx, "user-1:k", ports.StoredResponse{StatusCode: 201, OrderID: "o2"})

		got, _ := store.Get(ctx, "user-1:k")
		if got == nil || got.OrderID != "o1" {
			t.Errorf("expected first response, got %+v", got)
		}
	})

	t.Run("expired entries are ignored and replaced", func(t *testing.T) {
		store := NewStore(time.Minute)
		now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return now }

		_ = store.Save(ctx, "k", ports.StoredResponse{StatusCode: 201, OrderID: "o1"})
		now = now.Add(2 * time.Minute)

		if got, _ := store.Get(ctx, "k"); got != nil {
			t.Errorf("expected expired entry to be hidden, got %+v", got)
		}

		_ = store.Save(ctx, "k", ports.StoredResponse{StatusCode: 201, OrderID: "o2"})
		got, _ := store.Get(ctx, "k")
		if got == nil || got.OrderID != "o2" {
			t.Errorf("expected replacement, got %+v", got)
		}
	})
}
