package catalog

import (
	"context"
	"time"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

// Static is the built-in product list. It backs the degraded browse
// mode and serves as the primary catalog when no database is
// configured.
type Static struct {
	products []models.Product
}

// NewStatic creates a catalog over the built-in product list.
func NewStatic() *Static {
	now := time.Now()
	mk := func(id int64, name, price, category, image, description string, stock int) models.Product {
		return models.Product{
			ID:          id,
			Name:        name,
			Price:       decimal.RequireFromString(price),
			Category:    category,
			Image:       image,
			Description: description,
			Stock:       stock,
			CreatedAt:   now,
		}
	}
	return &Static{products: []models.Product{
		mk(1, "Laptop Pro", "999.99", "Electronics", "https://via.placeholder.com/200?text=Laptop", "High-performance laptop", 100),
		mk(2, "Wireless Mouse", "29.99", "Accessories", "https://via.placeholder.com/200?text=Mouse", "Ergonomic wireless mouse", 100),
		mk(3, "USB-C Cable", "9.99", "Cables", "https://via.placeholder.com/200?text=Cable", "Durable USB-C cable", 100),
		mk(4, "Mechanical Keyboard", "149.99", "Accessories", "https://via.placeholder.com/200?text=Keyboard", "RGB mechanical keyboard", 100),
		mk(5, "Monitor 4K", "599.99", "Electronics", "https://via.placeholder.com/200?text=Monitor", "32-inch 4K monitor", 100),
		mk(6, "Webcam HD", "79.99", "Electronics", "https://via.placeholder.com/200?text=Webcam", "1080p HD webcam", 100),
	}}
}

// GetProduct retrieves a product by ID
func (s *Static) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	for i := range s.products {
		if s.products[i].ID == id {
			p := s.products[i]
			return &p, nil
		}
	}
	return nil, models.ErrProductNotFound
}

// ListProducts returns all products
func (s *Static) ListProducts(ctx context.Context) ([]models.Product, error) {
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

// Ping always succeeds; the list is in memory.
func (s *Static) Ping(ctx context.Context) error {
	return nil
}
