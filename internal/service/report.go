package service

import (
	"context"
	"encoding/csv"
	"io"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/shopspring/decimal"
)

// ReportService derives dashboard statistics and the CSV export from
// the order store. It keeps no state of its own; every call recomputes
// from scratch.
type ReportService struct {
	orders store.OrderStore
	recent int
}

// NewReportService creates a reporting engine. recent is the size of
// the recent-orders window on the dashboard.
func NewReportService(orders store.OrderStore, recent int) *ReportService {
	return &ReportService{orders: orders, recent: recent}
}

// Stats computes the dashboard aggregation over all orders.
func (s *ReportService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.Stats")
	defer span.End()

	all, err := s.orders.All(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{
		TotalOrders:       len(all),
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		OrdersByStatus:    make(map[string]int),
		RecentOrders:      []models.Order{},
	}

	for i := range all {
		stats.TotalRevenue = stats.TotalRevenue.Add(all[i].Total)
		stats.OrdersByStatus[all[i].Status]++
	}

	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue.Div(decimal.NewFromInt(int64(stats.TotalOrders)))
	}

	// all is oldest first; the dashboard wants the newest few.
	for i := len(all) - 1; i >= 0 && len(stats.RecentOrders) < s.recent; i-- {
		stats.RecentOrders = append(stats.RecentOrders, all[i])
	}

	return stats, nil
}

var csvHeader = []string{
	"Order Number", "Customer Name", "Email", "Total", "Status", "Payment Status", "Date",
}

// WriteCSV streams every order as CSV, oldest first, header row first.
// Totals are rendered at two decimal places; precision is only dropped
// here, at the presentation boundary.
func (s *ReportService) WriteCSV(ctx context.Context, w io.Writer) error {
	ctx, span := util.StartSpan(ctx, "ReportService.WriteCSV")
	defer span.End()

	all, err := s.orders.All(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for i := range all {
		o := &all[i]
		record := []string{
			o.OrderNumber,
			o.CustomerInfo.FullName(),
			o.CustomerInfo.Email,
			o.Total.StringFixed(2),
			o.Status,
			o.PaymentStatus,
			o.CreatedAt.Format("2006-01-02"),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	util.OrdersExportedTotal.Inc()
	return nil
}
