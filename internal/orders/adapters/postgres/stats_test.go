//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dejobratic/foodorder/internal/orders/adapters/postgres"
	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSuya(order *domain.Order) *domain.Order {
	order.Items = append(order.Items, domain.OrderItem{
		ID:         order.ID + "-suya",
		OrderID:    order.ID,
		MenuItemID: "item-suya",
		Name:       "Suya",
		Quantity:   1,
		UnitPrice:  decimal.RequireFromString("1500.00"),
		Subtotal:   decimal.RequireFromString("1500.00"),
	})
	return order
}

func TestRepositoryStats(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	paid := newOrder("o-1", "LFD00000000S1", "user-1", now)
	paid.PaymentStatus = domain.PaymentPaid
	paid.Status = domain.StatusConfirmed
	require.NoError(t, repo.Create(ctx, paid, nil))
	require.NoError(t, repo.Create(ctx, withSuya(newOrder("o-2", "LFD00000000S2", "user-1", now)), nil))
	require.NoError(t, repo.Create(ctx, withSuya(newOrder("o-3", "LFD00000000S3", "user-2", now)), nil))
	require.NoError(t, repo.Create(ctx, withSuya(newOrder("o-4", "LFD00000000S4", "user-2", now.Add(-60*24*time.Hour))), nil))

	t.Run("customer stats", func(t *testing.T) {
		stats, err := repo.CustomerStats(ctx, "user-1", domain.FavoriteItemsLimit)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalOrders)
		assert.True(t, stats.TotalSpent.Equal(decimal.NewFromInt(2650)), "only paid orders count, got %s", stats.TotalSpent)
		require.Len(t, stats.FavoriteItems, 2)
		assert.Equal(t, domain.ItemCount{MenuItemID: "item-jollof", Name: "Jollof Rice", OrderCount: 2}, stats.FavoriteItems[0])

		empty, err := repo.CustomerStats(ctx, "user-9", domain.FavoriteItemsLimit)
		require.NoError(t, err)
		assert.Zero(t, empty.TotalOrders)
		assert.True(t, empty.TotalSpent.IsZero())
		assert.Empty(t, empty.FavoriteItems)
	})

	t.Run("popular items respect the window", func(t *testing.T) {
		items, err := repo.PopularItems(ctx, now.Add(-domain.PopularItemsWindow), domain.PopularItemsLimit)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "item-jollof", items[0].MenuItemID)
		assert.Equal(t, 3, items[0].OrderCount)
		assert.Equal(t, 2, items[1].OrderCount, "the order outside the window is ignored")
	})

	t.Run("status counts", func(t *testing.T) {
		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, counts[domain.StatusPending])
		assert.Equal(t, 1, counts[domain.StatusConfirmed])
	})
}
