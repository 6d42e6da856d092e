package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartService exposes the session cart operations. Snapshots resolve
// product data through the browse-side catalog, so display survives a
// primary outage; the checkout engine never goes through this path.
type CartService struct {
	carts  *cart.Store
	browse catalog.Lookup
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(carts *cart.Store, browse catalog.Lookup) *CartService {
	return &CartService{
		carts:  carts,
		browse: browse,
		logger: util.NamedLogger("cart-service"),
	}
}

// Add adds quantity of a product to the session's cart, merging onto
// an existing line. Product existence is not verified here; checkout
// re-validates every line.
func (s *CartService) Add(ctx context.Context, sessionID string, productID int64, quantity int) error {
	if err := s.carts.Get(sessionID).Add(productID, quantity); err != nil {
		return err
	}
	util.CartOperationsTotal.WithLabelValues("add").Inc()
	return nil
}

// Update sets the absolute quantity of a cart line; zero or less
// removes the line.
func (s *CartService) Update(ctx context.Context, sessionID string, productID int64, quantity int) error {
	if err := s.carts.Get(sessionID).Update(productID, quantity); err != nil {
		return err
	}
	util.CartOperationsTotal.WithLabelValues("update").Inc()
	return nil
}

// Remove deletes a cart line; removing an absent line is a no-op.
func (s *CartService) Remove(ctx context.Context, sessionID string, productID int64) {
	s.carts.Get(sessionID).Remove(productID)
	util.CartOperationsTotal.WithLabelValues("remove").Inc()
}

// Clear empties the session's cart.
func (s *CartService) Clear(ctx context.Context, sessionID string) {
	s.carts.Get(sessionID).Clear()
	util.CartOperationsTotal.WithLabelValues("clear").Inc()
}

// Snapshot returns the cart's lines joined with current product data,
// in insertion order, plus a display total. Lines whose product can no
// longer be resolved keep their id and quantity with a zero price;
// checkout is where they fail loudly.
func (s *CartService) Snapshot(ctx context.Context, sessionID string) ([]models.ResolvedCartLine, decimal.Decimal, error) {
	ctx, span := util.StartSpan(ctx, "CartService.Snapshot")
	defer span.End()

	lines := s.carts.Get(sessionID).Lines()
	resolved := make([]models.ResolvedCartLine, 0, len(lines))
	total := decimal.Zero

	for _, line := range lines {
		rl := models.ResolvedCartLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: decimal.Zero,
			Subtotal:  decimal.Zero,
		}

		product, err := s.browse.GetProduct(ctx, line.ProductID)
		switch {
		case err == nil:
			rl.Name = product.Name
			rl.Image = product.Image
			rl.UnitPrice = product.Price
			rl.Subtotal = product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			total = total.Add(rl.Subtotal)
		case errors.Is(err, models.ErrProductNotFound):
			s.logger.Warn("Cart references missing product",
				zap.Int64("product_id", line.ProductID))
		default:
			return nil, decimal.Zero, fmt.Errorf("resolving cart line %d: %w", line.ProductID, err)
		}

		resolved = append(resolved, rl)
	}

	return resolved, total, nil
}
