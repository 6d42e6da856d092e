package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, orders *store.MemoryOrders, total string, status string, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber: fmt.Sprintf("ORD-%08d", createdAt.Unix()%1e8),
		CustomerInfo: models.CustomerInfo{
			FirstName: "Grace",
			LastName:  "Hopper",
			Email:     "grace@example.com",
			Address:   "1 Harbor St",
		},
		Total:         decimal.RequireFromString(total),
		Status:        status,
		PaymentStatus: models.PaymentStatusUnpaid,
		CreatedAt:     createdAt,
	}
	require.NoError(t, orders.Append(context.Background(), order))
	return order
}

func TestStatsEmptyStore(t *testing.T) {
	svc := NewReportService(store.NewMemoryOrders(), 5)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.TotalOrders)
	assert.True(t, stats.TotalRevenue.IsZero())
	assert.True(t, stats.AverageOrderValue.IsZero(), "average must be 0 with no orders")
	assert.Empty(t, stats.OrdersByStatus)
	assert.Empty(t, stats.RecentOrders)
}

func TestStatsAggregation(t *testing.T) {
	orders := store.NewMemoryOrders()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	seedOrder(t, orders, "100.00", models.OrderStatusPending, base)
	seedOrder(t, orders, "250.50", models.OrderStatusPending, base.Add(time.Hour))
	seedOrder(t, orders, "49.50", models.OrderStatusShipped, base.Add(2*time.Hour))

	svc := NewReportService(orders, 5)
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalOrders)
	assert.True(t, decimal.RequireFromString("400.00").Equal(stats.TotalRevenue),
		"got revenue %s", stats.TotalRevenue)

	expectedAvg := decimal.RequireFromString("400.00").Div(decimal.NewFromInt(3))
	assert.True(t, expectedAvg.Equal(stats.AverageOrderValue))

	assert.Equal(t, map[string]int{
		models.OrderStatusPending: 2,
		models.OrderStatusShipped: 1,
	}, stats.OrdersByStatus)
}

func TestStatsRecentOrdersWindow(t *testing.T) {
	orders := store.NewMemoryOrders()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 8; i++ {
		seedOrder(t, orders, "10.00", models.OrderStatusPending, base.Add(time.Duration(i)*time.Hour))
	}

	svc := NewReportService(orders, 5)
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	require.Len(t, stats.RecentOrders, 5)
	// Newest first, and strictly newer than anything excluded.
	for i := 1; i < len(stats.RecentOrders); i++ {
		assert.True(t, stats.RecentOrders[i-1].CreatedAt.After(stats.RecentOrders[i].CreatedAt))
	}
	assert.Equal(t, base.Add(7*time.Hour), stats.RecentOrders[0].CreatedAt)
}

func TestWriteCSV(t *testing.T) {
	orders := store.NewMemoryOrders()
	base := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)

	first := seedOrder(t, orders, "2009.97", models.OrderStatusPending, base)
	seedOrder(t, orders, "29.99", models.OrderStatusDelivered, base.Add(time.Hour))

	svc := NewReportService(orders, 5)
	var buf bytes.Buffer
	require.NoError(t, svc.WriteCSV(context.Background(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"Order Number", "Customer Name", "Email", "Total", "Status", "Payment Status", "Date",
	}, records[0])

	assert.Equal(t, []string{
		first.OrderNumber, "Grace Hopper", "grace@example.com",
		"2009.97", "pending", "unpaid", "2024-03-05",
	}, records[1])

	// Stored order: oldest first.
	assert.Equal(t, "29.99", records[2][3])
	assert.Equal(t, "delivered", records[2][4])
}

func TestWriteCSVEmptyStoreHasHeaderOnly(t *testing.T) {
	svc := NewReportService(store.NewMemoryOrders(), 5)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteCSV(context.Background(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
}
