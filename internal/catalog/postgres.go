package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Postgres is the primary product catalog backed by the products table.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres creates a catalog over an existing database connection.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// GetProduct retrieves a product by ID
func (p *Postgres) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := p.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", models.ErrProductNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return &product, nil
}

// ListProducts retrieves all products
func (p *Postgres) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := p.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return products, nil
}

// Ping checks database availability
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return nil
}
