package store

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// OrderStore is the append-only order collection. Orders are never
// rewritten except through UpdateStatus, and identifiers are never
// reassigned after Delete.
type OrderStore interface {
	// Append inserts the order, assigning the next identifier if the
	// order does not carry one.
	Append(ctx context.Context, order *models.Order) error

	// List returns orders matching the filter sorted by creation time
	// descending, plus the total match count before pagination.
	List(ctx context.Context, filter models.OrderFilter, page, pageSize int) ([]models.Order, int, error)

	// GetByID returns the order with its items, or ErrOrderNotFound.
	GetByID(ctx context.Context, id int64) (*models.Order, error)

	// UpdateStatus applies a partial update: empty status strings leave
	// the field unchanged. UpdatedAt is bumped on any change.
	UpdateStatus(ctx context.Context, id int64, status, paymentStatus string) (*models.Order, error)

	// Delete removes the order permanently, or ErrOrderNotFound.
	Delete(ctx context.Context, id int64) error

	// All returns every order in creation order (oldest first).
	All(ctx context.Context) ([]models.Order, error)
}

// Connect opens the postgres connection pool shared by the order store
// and the product catalog.
func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
