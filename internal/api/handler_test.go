package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// failingOrders is an order store whose backing storage is down.
type failingOrders struct{}

func (failingOrders) Append(ctx context.Context, order *models.Order) error {
	return models.ErrStorageUnavailable
}

func (failingOrders) List(ctx context.Context, filter models.OrderFilter, page, pageSize int) ([]models.Order, int, error) {
	return nil, 0, models.ErrStorageUnavailable
}

func (failingOrders) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	return nil, models.ErrStorageUnavailable
}

func (failingOrders) UpdateStatus(ctx context.Context, id int64, status, paymentStatus string) (*models.Order, error) {
	return nil, models.ErrStorageUnavailable
}

func (failingOrders) Delete(ctx context.Context, id int64) error {
	return models.ErrStorageUnavailable
}

func (failingOrders) All(ctx context.Context) ([]models.Order, error) {
	return nil, models.ErrStorageUnavailable
}

func exportContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/orders/export", nil)
	return c, w
}

func TestExportOrdersWritesCSVAttachment(t *testing.T) {
	h := &Handler{reports: service.NewReportService(store.NewMemoryOrders(), 5)}
	c, w := exportContext(t)

	h.exportOrders(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "orders.csv")
	assert.Contains(t, w.Body.String(), "Order Number")
}

func TestExportOrdersStorageFaultIsCleanError(t *testing.T) {
	h := &Handler{reports: service.NewReportService(failingOrders{}, 5)}
	c, w := exportContext(t)

	h.exportOrders(c)

	// Nothing of the document may have reached the wire before the
	// failure turned into an error response.
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	assert.NotContains(t, w.Body.String(), "Order Number")
}
