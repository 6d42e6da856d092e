package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderEventPublisher emits order lifecycle events. Publishing is
// best-effort: failures are logged, never returned to callers.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
	PublishOrderDeleted(ctx context.Context, event *models.OrderDeletedEvent) error
}

// CheckoutService converts a session cart into a persisted order. The
// attempt runs inside the cart's critical section: validate, re-price
// against the primary catalog, append to the order store, clear the
// cart. A concurrent attempt on the same cart waits on the lock and
// then fails with EmptyCart. The OrderPlaced publish happens after the
// lock is released; a slow broker must never stall cart operations.
type CheckoutService struct {
	carts     *cart.Store
	catalog   catalog.Lookup
	orders    store.OrderStore
	publisher OrderEventPublisher
	logger    *zap.Logger
}

// NewCheckoutService creates a checkout engine. The catalog must be
// the primary lookup: the static fallback would substitute prices and
// break the frozen-total invariant, so it is never accepted here.
// publisher may be nil when no broker is configured.
func NewCheckoutService(
	carts *cart.Store,
	primary catalog.Lookup,
	orders store.OrderStore,
	publisher OrderEventPublisher,
) *CheckoutService {
	return &CheckoutService{
		carts:     carts,
		catalog:   primary,
		orders:    orders,
		publisher: publisher,
		logger:    util.NamedLogger("checkout"),
	}
}

// CheckoutResult is the minimal success payload returned to the buyer.
type CheckoutResult struct {
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Total       decimal.Decimal `json:"total"`
	Status      string          `json:"status"`
}

// Checkout runs one atomic checkout attempt for the session.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string, info models.CustomerInfo) (*CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Checkout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	var placed *models.Order
	err := s.carts.Get(sessionID).Transact(func(lines []models.CartLine) error {
		if len(lines) == 0 {
			util.CheckoutsFailedTotal.WithLabelValues("empty_cart").Inc()
			return models.ErrEmptyCart
		}

		if err := validateCustomerInfo(info); err != nil {
			util.CheckoutsFailedTotal.WithLabelValues("invalid_customer_info").Inc()
			return err
		}

		items, total, err := s.priceLines(ctx, lines)
		if err != nil {
			return err
		}

		order := &models.Order{
			OrderNumber:   newOrderNumber(),
			Items:         items,
			CustomerInfo:  stripCardFields(info),
			Total:         total,
			Status:        models.OrderStatusPending,
			PaymentStatus: models.PaymentStatusUnpaid,
		}

		if err := s.orders.Append(ctx, order); err != nil {
			util.CheckoutsFailedTotal.WithLabelValues("storage").Inc()
			return fmt.Errorf("failed to persist order: %w", err)
		}

		util.CheckoutsCompletedTotal.Inc()
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.Int64("order_id", placed.ID),
		zap.String("order_number", placed.OrderNumber),
		zap.String("total", placed.Total.String()))

	// The order is committed and the cart lock released; the publish
	// may block or fail without holding up this session's cart.
	s.publishPlaced(ctx, placed)

	return &CheckoutResult{
		OrderID:     placed.ID,
		OrderNumber: placed.OrderNumber,
		Total:       placed.Total,
		Status:      placed.Status,
	}, nil
}

// priceLines resolves every cart line against the primary catalog and
// accumulates the total at full precision. All-or-nothing: one
// unresolvable line aborts the whole attempt.
func (s *CheckoutService) priceLines(ctx context.Context, lines []models.CartLine) ([]models.OrderItem, decimal.Decimal, error) {
	items := make([]models.OrderItem, 0, len(lines))
	total := decimal.Zero

	for _, line := range lines {
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if errors.Is(err, models.ErrProductNotFound) {
			util.CheckoutsFailedTotal.WithLabelValues("unknown_product").Inc()
			return nil, decimal.Zero, models.UnknownProductErr(line.ProductID)
		}
		if err != nil {
			util.CheckoutsFailedTotal.WithLabelValues("storage").Inc()
			return nil, decimal.Zero, fmt.Errorf("resolving product %d: %w", line.ProductID, err)
		}

		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	return items, total, nil
}

func (s *CheckoutService) publishPlaced(ctx context.Context, order *models.Order) {
	if s.publisher == nil {
		return
	}

	items := make([]models.OrderItemData, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, models.OrderItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Total:       order.Total,
		Items:       items,
	}

	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event",
			zap.Int64("order_id", order.ID), zap.Error(err))
	}
}

// validateCustomerInfo enforces the required checkout fields.
func validateCustomerInfo(info models.CustomerInfo) error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"firstName", info.FirstName},
		{"lastName", info.LastName},
		{"email", info.Email},
		{"address", info.Address},
	} {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: %s is required", models.ErrInvalidCustomerInfo, field.name)
		}
	}
	return nil
}

// stripCardFields drops payment card data before the order is stored.
func stripCardFields(info models.CustomerInfo) models.CustomerInfo {
	info.CardNumber = ""
	info.ExpiryDate = ""
	info.CVV = ""
	return info
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}
