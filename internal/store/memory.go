package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/models"
)

// MemoryOrders is the in-process order store used in tests and when no
// database is reachable at startup. Identifiers are monotonic and
// survive deletion: the counter only moves forward.
type MemoryOrders struct {
	mu     sync.RWMutex
	orders []models.Order
	nextID int64
}

// NewMemoryOrders creates an empty in-memory order store.
func NewMemoryOrders() *MemoryOrders {
	return &MemoryOrders{nextID: 1}
}

// Append inserts the order, assigning the next identifier if needed.
func (m *MemoryOrders) Append(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if order.ID == 0 {
		order.ID = m.nextID
		m.nextID++
	} else if order.ID >= m.nextID {
		m.nextID = order.ID + 1
	}

	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}

	m.orders = append(m.orders, cloneOrder(order))
	return nil
}

// List returns filtered orders newest first, with the total match count.
func (m *MemoryOrders) List(ctx context.Context, filter models.OrderFilter, page, pageSize int) ([]models.Order, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]models.Order, 0, len(m.orders))
	for i := range m.orders {
		if filter.Matches(&m.orders[i]) {
			matched = append(matched, cloneOrder(&m.orders[i]))
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// GetByID returns the order or ErrOrderNotFound.
func (m *MemoryOrders) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.orders {
		if m.orders[i].ID == id {
			o := cloneOrder(&m.orders[i])
			return &o, nil
		}
	}
	return nil, models.ErrOrderNotFound
}

// UpdateStatus applies a partial status update and bumps UpdatedAt.
func (m *MemoryOrders) UpdateStatus(ctx context.Context, id int64, status, paymentStatus string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.orders {
		if m.orders[i].ID == id {
			if status != "" {
				m.orders[i].Status = status
			}
			if paymentStatus != "" {
				m.orders[i].PaymentStatus = paymentStatus
			}
			m.orders[i].UpdatedAt = time.Now()
			o := cloneOrder(&m.orders[i])
			return &o, nil
		}
	}
	return nil, models.ErrOrderNotFound
}

// Delete removes the order permanently. The id is never reused.
func (m *MemoryOrders) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.orders {
		if m.orders[i].ID == id {
			m.orders = append(m.orders[:i], m.orders[i+1:]...)
			return nil
		}
	}
	return models.ErrOrderNotFound
}

// All returns every order oldest first.
func (m *MemoryOrders) All(ctx context.Context) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Order, 0, len(m.orders))
	for i := range m.orders {
		out = append(out, cloneOrder(&m.orders[i]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func cloneOrder(o *models.Order) models.Order {
	c := *o
	c.Items = make([]models.OrderItem, len(o.Items))
	copy(c.Items, o.Items)
	return c
}
