package cart

import (
	"context"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// Cart holds one session's line items. All mutations go through the
// cart's mutex; Transact exposes the same lock to the checkout engine
// so "read lines, append order, clear" is a single critical section.
type Cart struct {
	mu    sync.Mutex
	lines []models.CartLine
}

// Add accumulates quantity onto an existing line or appends a new one.
// Insertion order is preserved for display.
func (c *Cart) Add(productID int64, quantity int) error {
	if quantity <= 0 {
		return models.ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity += quantity
			return nil
		}
	}
	c.lines = append(c.lines, models.CartLine{ProductID: productID, Quantity: quantity})
	return nil
}

// Update sets the absolute quantity of a line. A quantity of zero or
// less removes the line; that is the intended way to delete via the
// quantity field, not an error.
func (c *Cart) Update(productID int64, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			if quantity <= 0 {
				c.lines = append(c.lines[:i], c.lines[i+1:]...)
			} else {
				c.lines[i].Quantity = quantity
			}
			return nil
		}
	}
	return models.ErrItemNotInCart
}

// Remove deletes a line if present. Removing an absent line is a no-op.
func (c *Cart) Remove(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart. Idempotent.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Lines returns a copy of the current lines in insertion order.
func (c *Cart) Lines() []models.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Transact runs fn with a copy of the current lines while holding the
// cart's lock. If fn returns nil the cart is emptied before the lock
// is released. A concurrent Transact on the same cart therefore
// observes either the full cart or the empty one, never a torn state.
func (c *Cart) Transact(fn func(lines []models.CartLine) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := make([]models.CartLine, len(c.lines))
	copy(lines, c.lines)

	if err := fn(lines); err != nil {
		return err
	}
	c.lines = nil
	return nil
}

type entry struct {
	cart     *Cart
	lastUsed time.Time
}

// Store owns every session's cart. Carts are created on first use and
// dropped after sitting idle for the configured TTL.
type Store struct {
	mu     sync.Mutex
	carts  map[string]*entry
	ttl    time.Duration
	logger *zap.Logger
}

// NewStore creates a session cart store.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		carts:  make(map[string]*entry),
		ttl:    ttl,
		logger: util.NamedLogger("cart"),
	}
}

// Get returns the cart for a session, creating it if needed.
func (s *Store) Get(sessionID string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.carts[sessionID]
	if !ok {
		e = &entry{cart: &Cart{}}
		s.carts[sessionID] = e
	}
	e.lastUsed = time.Now()
	return e.cart
}

// Len returns the number of live carts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

// StartJanitor prunes idle carts until ctx is cancelled.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.prune(time.Now())
			}
		}
	}()
}

func (s *Store) prune(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.carts {
		if now.Sub(e.lastUsed) > s.ttl {
			delete(s.carts, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("Pruned idle carts", zap.Int("count", removed))
	}
}
