package catalog

import (
	"context"
	"time"

	"storefront/internal/models"
	"storefront/internal/redisclient"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// Cached decorates a Lookup with a Redis read-through cache. It is
// browse-side only: the checkout engine resolves prices against the
// undecorated primary so a stale cache can never reach an order total.
type Cached struct {
	inner  Lookup
	redis  *redisclient.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached wraps inner with a read-through Redis cache.
func NewCached(inner Lookup, redis *redisclient.Client, ttl time.Duration) *Cached {
	return &Cached{
		inner:  inner,
		redis:  redis,
		ttl:    ttl,
		logger: util.NamedLogger("catalog-cache"),
	}
}

// GetProduct retrieves a product, preferring the cache
func (c *Cached) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	if cached, err := c.redis.GetProduct(ctx, id); err == nil && cached != nil {
		util.CatalogCacheHitsTotal.WithLabelValues("hit").Inc()
		return cached, nil
	} else if err != nil {
		c.logger.Warn("Cache read failed", zap.Int64("product_id", id), zap.Error(err))
	}
	util.CatalogCacheHitsTotal.WithLabelValues("miss").Inc()

	product, err := c.inner.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.redis.SetProduct(ctx, product, c.ttl); err != nil {
		c.logger.Warn("Cache write failed", zap.Int64("product_id", id), zap.Error(err))
	}
	return product, nil
}

// ListProducts retrieves the product listing, preferring the cache
func (c *Cached) ListProducts(ctx context.Context) ([]models.Product, error) {
	if cached, err := c.redis.GetProductList(ctx); err == nil && cached != nil {
		util.CatalogCacheHitsTotal.WithLabelValues("hit").Inc()
		return cached, nil
	} else if err != nil {
		c.logger.Warn("Cache read failed", zap.Error(err))
	}
	util.CatalogCacheHitsTotal.WithLabelValues("miss").Inc()

	products, err := c.inner.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.redis.SetProductList(ctx, products, c.ttl); err != nil {
		c.logger.Warn("Cache write failed", zap.Error(err))
	}
	return products, nil
}

// Ping delegates to the inner lookup; the cache being down only costs
// the fast path.
func (c *Cached) Ping(ctx context.Context) error {
	return c.inner.Ping(ctx)
}
