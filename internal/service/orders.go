package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidStatus rejects admin updates carrying a status value
// outside the known enums.
var ErrInvalidStatus = errors.New("invalid status value")

// OrderService is the admin-side order surface: listing, inspection,
// fulfillment updates and deletion.
type OrderService struct {
	orders    store.OrderStore
	publisher OrderEventPublisher
	pageSize  int
	logger    *zap.Logger
}

// NewOrderService creates a new admin order service. publisher may be
// nil when no broker is configured; pageSize is the listing default
// when the request names none.
func NewOrderService(orders store.OrderStore, publisher OrderEventPublisher, pageSize int) *OrderService {
	if pageSize < 1 {
		pageSize = 10
	}
	return &OrderService{
		orders:    orders,
		publisher: publisher,
		pageSize:  pageSize,
		logger:    util.NamedLogger("orders"),
	}
}

// OrderPage is one page of an admin order listing.
type OrderPage struct {
	Orders      []models.Order `json:"orders"`
	Total       int            `json:"total"`
	Pages       int            `json:"pages"`
	CurrentPage int            `json:"currentPage"`
}

// List returns orders matching the filter, newest first, paginated.
func (s *OrderService) List(ctx context.Context, filter models.OrderFilter, page, pageSize int) (*OrderPage, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.pageSize
	}

	orders, total, err := s.orders.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	return &OrderPage{
		Orders:      orders,
		Total:       total,
		Pages:       (total + pageSize - 1) / pageSize,
		CurrentPage: page,
	}, nil
}

// Get returns a single order with its items.
func (s *OrderService) Get(ctx context.Context, id int64) (*models.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// Update applies a partial status update. Either field may be empty to
// leave it unchanged; supplied values must belong to the enums.
func (s *OrderService) Update(ctx context.Context, id int64, status, paymentStatus string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Update")
	defer span.End()

	if status != "" && !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if paymentStatus != "" && !models.ValidPaymentStatus(paymentStatus) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, paymentStatus)
	}

	order, err := s.orders.UpdateStatus(ctx, id, status, paymentStatus)
	if err != nil {
		return nil, err
	}

	util.OrdersUpdatedTotal.Inc()
	s.logger.Info("Order updated",
		zap.Int64("order_id", id),
		zap.String("status", order.Status),
		zap.String("payment_status", order.PaymentStatus))

	if s.publisher != nil {
		event := &models.OrderStatusChangedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderStatusChanged,
				Timestamp: time.Now(),
			},
			OrderID:       order.ID,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
		}
		if err := s.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderStatusChanged event",
				zap.Int64("order_id", id), zap.Error(err))
		}
	}

	return order, nil
}

// Delete removes an order permanently. The identifier is never reused.
func (s *OrderService) Delete(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "OrderService.Delete")
	defer span.End()

	if err := s.orders.Delete(ctx, id); err != nil {
		return err
	}

	util.OrdersDeletedTotal.Inc()
	s.logger.Info("Order deleted", zap.Int64("order_id", id))

	if s.publisher != nil {
		event := &models.OrderDeletedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderDeleted,
				Timestamp: time.Now(),
			},
			OrderID: id,
		}
		if err := s.publisher.PublishOrderDeleted(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderDeleted event",
				zap.Int64("order_id", id), zap.Error(err))
		}
	}

	return nil
}
