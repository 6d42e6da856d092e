package catalog

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// Lookup is read-only access to product records. Implementations
// return models.ErrProductNotFound for missing ids and
// models.ErrStorageUnavailable when the backing store is unreachable.
type Lookup interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	Ping(ctx context.Context) error
}

// Browser is the two-tier lookup used by the browse endpoints: a
// primary store probed for availability per request, and the built-in
// static list when the probe fails. Checkout price resolution must use
// the primary Lookup directly, never a Browser.
type Browser struct {
	primary  Lookup
	fallback *Static
	logger   *zap.Logger
}

// NewBrowser creates a browse-side lookup over the primary store.
func NewBrowser(primary Lookup) *Browser {
	return &Browser{
		primary:  primary,
		fallback: NewStatic(),
		logger:   util.NamedLogger("catalog"),
	}
}

// GetProduct resolves a product for display, degrading to the static
// list when the primary store is unreachable.
func (b *Browser) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	if err := b.primary.Ping(ctx); err != nil {
		b.degraded(err)
		return b.fallback.GetProduct(ctx, id)
	}
	return b.primary.GetProduct(ctx, id)
}

// ListProducts lists products for display, degrading to the static
// list when the primary store is unreachable.
func (b *Browser) ListProducts(ctx context.Context) ([]models.Product, error) {
	if err := b.primary.Ping(ctx); err != nil {
		b.degraded(err)
		return b.fallback.ListProducts(ctx)
	}
	return b.primary.ListProducts(ctx)
}

// Ping reports primary availability; the fallback is always available.
func (b *Browser) Ping(ctx context.Context) error {
	return b.primary.Ping(ctx)
}

func (b *Browser) degraded(err error) {
	util.CatalogFallbackTotal.Inc()
	b.logger.Warn("Primary catalog unavailable, serving built-in product list",
		zap.Error(err))
}
