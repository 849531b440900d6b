package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/foodorder/internal/orders/adapters/memory"
	"github.com/dejobratic/foodorder/internal/orders/app/queries"
	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/shopspring/decimal"
)

func TestTrackOrderQuery(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.PutZone(domain.DeliveryZone{ID: "zone-ikeja", Name: "Ikeja", Fee: decimal.NewFromInt(500), ETA: "30-45 mins"})
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	zoneID, goneID := "zone-ikeja", "zone-gone"
	orders := []domain.Order{
		{ID: "o1", Number: "LFD00000000T1", CustomerID: "user-1", Status: domain.StatusPending, DeliveryZoneID: &zoneID, CreatedAt: created},
		{ID: "o2", Number: "LFD00000000T2", CustomerID: "user-1", Status: domain.StatusPending, DeliveryZoneID: &goneID, CreatedAt: created},
	}
	for i := range orders {
		if err := store.Create(ctx, &orders[i], nil); err != nil {
			t.Fatalf("failed to seed order: %v", err)
		}
	}
	handler := queries.NewTrackOrderQueryHandler(queries.NewGetOrderQueryHandler(store), store)

	t.Run("zone eta is attached", func(t *testing.T) {
		tracking, err := handler.Handle(ctx, customer, "lfd00000000t1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tracking.Estimate.ZoneETA != "30-45 mins" {
			t.Errorf("expected zone eta, got %q", tracking.Estimate.ZoneETA)
		}
		if !tracking.Estimate.By.Equal(created.Add(domain.DeliveryWindow)) {
			t.Errorf("unexpected estimate %s", tracking.Estimate.By)
		}
	})

	t.Run("missing zone still yields an estimate", func(t *testing.T) {
		tracking, err := handler.Handle(ctx, customer, "LFD00000000T2")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tracking.Estimate.ZoneETA != "" || tracking.Estimate.By.IsZero() {
			t.Errorf("unexpected estimate %+v", tracking.Estimate)
		}
	})

	t.Run("other customers are forbidden", func(t *testing.T) {
		_, err := handler.Handle(ctx, stranger, "LFD00000000T1")
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("expected forbidden, got %v", err)
		}
	})
}

func TestStatsQueries(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Now().UTC()
	line := func(orderID, item string) domain.OrderItem {
		return domain.OrderItem{ID: orderID + "-" + item, OrderID: orderID, MenuItemID: item, Name: item, Quantity: 1}
	}
	orders := []domain.Order{
		{ID: "o1", Number: "LFD00000000S1", CustomerID: "user-1", Status: domain.StatusConfirmed, PaymentStatus: domain.PaymentPaid,
			Total: decimal.NewFromInt(2650), CreatedAt: now, Items: []domain.OrderItem{line("o1", "jollof"), line("o1", "suya")}},
		{ID: "o2", Number: "LFD00000000S2", CustomerID: "user-1", Status: domain.StatusPending, PaymentStatus: domain.PaymentPending,
			Total: decimal.NewFromInt(1000), CreatedAt: now, Items: []domain.OrderItem{line("o2", "jollof")}},
		{ID: "o3", Number: "LFD00000000S3", CustomerID: "user-2", Status: domain.StatusPending, PaymentStatus: domain.PaymentPending,
			Total: decimal.NewFromInt(700), CreatedAt: now.Add(-40 * 24 * time.Hour), Items: []domain.OrderItem{line("o3", "suya")}},
	}
	for i := range orders {
		if err := store.Create(ctx, &orders[i], nil); err != nil {
			t.Fatalf("failed to seed order: %v", err)
		}
	}
	handler := queries.NewStatsQueryHandler(store)

	t.Run("customer stats count paid spend only", func(t *testing.T) {
		stats, err := handler.CustomerStats(ctx, customer)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if stats.TotalOrders != 2 {
			t.Errorf("expected 2 orders, got %d", stats.TotalOrders)
		}
		if !stats.TotalSpent.Equal(decimal.NewFromInt(2650)) {
			t.Errorf("expected 2650 spent, got %s", stats.TotalSpent)
		}
		if len(stats.FavoriteItems) != 2 || stats.FavoriteItems[0].MenuItemID != "jollof" || stats.FavoriteItems[0].OrderCount != 2 {
			t.Errorf("unexpected favourites %+v", stats.FavoriteItems)
		}
	})

	t.Run("customer without orders gets an empty summary", func(t *testing.T) {
		stats, err := handler.CustomerStats(ctx, domain.Actor{UserID: "user-9"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if stats.TotalOrders != 0 || !stats.TotalSpent.IsZero() || stats.FavoriteItems == nil {
			t.Errorf("unexpected stats %+v", stats)
		}
	})

	t.Run("popular items skip old orders", func(t *testing.T) {
		items, err := handler.PopularItems(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 2 || items[0].MenuItemID != "jollof" || items[1].OrderCount != 1 {
			t.Errorf("unexpected popular items %+v", items)
		}
	})

	t.Run("status counts are admin only", func(t *testing.T) {
		if _, err := handler.StatusCounts(ctx, customer); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("expected forbidden, got %v", err)
		}
		counts, err := handler.StatusCounts(ctx, admin)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if counts.Total != 3 || counts.Counts[domain.StatusPending] != 2 {
			t.Errorf("unexpected counts %+v", counts)
		}
	})
}
