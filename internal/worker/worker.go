package worker

import (
	"context"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// AuditWorker consumes order lifecycle events and writes the admin
// audit trail: one structured log line and one counter bump per event.
type AuditWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(consumer *broker.Consumer) *AuditWorker {
	logger := util.NamedLogger("audit")
	eventHandler := broker.NewEventHandler()

	eventHandler.OnOrderPlaced(func(ctx context.Context, event *models.OrderPlacedEvent) error {
		util.AuditEventsTotal.WithLabelValues(models.EventTypeOrderPlaced).Inc()
		logger.Info("Order placed",
			zap.Int64("order_id", event.OrderID),
			zap.String("order_number", event.OrderNumber),
			zap.String("total", event.Total.String()),
			zap.Int("items", len(event.Items)))
		return nil
	})

	eventHandler.OnOrderStatusChanged(func(ctx context.Context, event *models.OrderStatusChangedEvent) error {
		util.AuditEventsTotal.WithLabelValues(models.EventTypeOrderStatusChanged).Inc()
		logger.Info("Order status changed",
			zap.Int64("order_id", event.OrderID),
			zap.String("status", event.Status),
			zap.String("payment_status", event.PaymentStatus))
		return nil
	})

	eventHandler.OnOrderDeleted(func(ctx context.Context, event *models.OrderDeletedEvent) error {
		util.AuditEventsTotal.WithLabelValues(models.EventTypeOrderDeleted).Inc()
		logger.Info("Order deleted", zap.Int64("order_id", event.OrderID))
		return nil
	})

	return &AuditWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       logger,
	}
}

// Start starts the worker
func (w *AuditWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting audit worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AuditWorker) Stop() error {
	w.logger.Info("Stopping audit worker")
	return w.consumer.Close()
}
