package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// PostgresOrders is the durable order store. Identifier monotonicity
// comes from the orders BIGSERIAL sequence, which postgres never
// rewinds on delete.
type PostgresOrders struct {
	db *sqlx.DB
}

// NewPostgresOrders creates an order store over an existing connection.
func NewPostgresOrders(db *sqlx.DB) *PostgresOrders {
	return &PostgresOrders{db: db}
}

type orderRow struct {
	ID            int64           `db:"id"`
	OrderNumber   string          `db:"order_number"`
	FirstName     string          `db:"first_name"`
	LastName      string          `db:"last_name"`
	Email         string          `db:"email"`
	Phone         string          `db:"phone"`
	Address       string          `db:"address"`
	City          string          `db:"city"`
	State         string          `db:"state"`
	ZipCode       string          `db:"zip_code"`
	Total         decimal.Decimal `db:"total"`
	Status        string          `db:"status"`
	PaymentStatus string          `db:"payment_status"`
	CreatedAt     sql.NullTime    `db:"created_at"`
	UpdatedAt     sql.NullTime    `db:"updated_at"`
}

func (r *orderRow) toOrder() models.Order {
	o := models.Order{
		ID:          r.ID,
		OrderNumber: r.OrderNumber,
		CustomerInfo: models.CustomerInfo{
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Email:     r.Email,
			Phone:     r.Phone,
			Address:   r.Address,
			City:      r.City,
			State:     r.State,
			ZipCode:   r.ZipCode,
		},
		Total:         r.Total,
		Status:        r.Status,
		PaymentStatus: r.PaymentStatus,
	}
	if r.CreatedAt.Valid {
		o.CreatedAt = r.CreatedAt.Time
	}
	if r.UpdatedAt.Valid {
		o.UpdatedAt = r.UpdatedAt.Time
	}
	return o
}

// Append inserts the order and its items in one transaction.
func (p *PostgresOrders) Append(ctx context.Context, order *models.Order) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	defer tx.Rollback()

	const insertOrder = `
		INSERT INTO orders (order_number, first_name, last_name, email, phone,
			address, city, state, zip_code, total, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	ci := order.CustomerInfo
	row := tx.QueryRowxContext(ctx, insertOrder,
		order.OrderNumber, ci.FirstName, ci.LastName, ci.Email, ci.Phone,
		ci.Address, ci.City, ci.State, ci.ZipCode,
		order.Total, order.Status, order.PaymentStatus)
	if err := row.Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}

	const insertItem = `
		INSERT INTO order_items (order_id, product_id, name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if err := tx.QueryRowxContext(ctx, insertItem,
			item.OrderID, item.ProductID, item.Name, item.Quantity, item.UnitPrice,
		).Scan(&item.ID); err != nil {
			return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return nil
}

// List returns filtered orders newest first, with the total match count.
func (p *PostgresOrders) List(ctx context.Context, filter models.OrderFilter, page, pageSize int) ([]models.Order, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	var total int
	if err := p.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM orders "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf("SELECT * FROM orders %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args))

	var rows []orderRow
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}

	orders, err := p.attachItems(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// GetByID returns the order with its items, or ErrOrderNotFound.
func (p *PostgresOrders) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var row orderRow
	err := p.db.GetContext(ctx, &row, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}

	orders, err := p.attachItems(ctx, []orderRow{row})
	if err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// UpdateStatus applies a partial status update and bumps updated_at.
func (p *PostgresOrders) UpdateStatus(ctx context.Context, id int64, status, paymentStatus string) (*models.Order, error) {
	const query = `
		UPDATE orders
		SET status = COALESCE(NULLIF($1, ''), status),
		    payment_status = COALESCE(NULLIF($2, ''), payment_status),
		    updated_at = NOW()
		WHERE id = $3`

	res, err := p.db.ExecContext(ctx, query, status, paymentStatus, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, models.ErrOrderNotFound
	}
	return p.GetByID(ctx, id)
}

// Delete removes the order and its items. The BIGSERIAL id is gone for
// good; the sequence never hands it out again.
func (p *PostgresOrders) Delete(ctx context.Context, id int64) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = $1", id); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrOrderNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return nil
}

// All returns every order oldest first.
func (p *PostgresOrders) All(ctx context.Context) ([]models.Order, error) {
	var rows []orderRow
	if err := p.db.SelectContext(ctx, &rows, "SELECT * FROM orders ORDER BY created_at ASC"); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return p.attachItems(ctx, rows)
}

func (p *PostgresOrders) attachItems(ctx context.Context, rows []orderRow) ([]models.Order, error) {
	orders := make([]models.Order, len(rows))
	if len(rows) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(rows))
	for i := range rows {
		orders[i] = rows[i].toOrder()
		ids[i] = rows[i].ID
	}

	query, args, err := sqlx.In("SELECT * FROM order_items WHERE order_id IN (?) ORDER BY id", ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	query = p.db.Rebind(query)

	var items []models.OrderItem
	if err := p.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}

	byOrder := make(map[int64][]models.OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return orders, nil
}
