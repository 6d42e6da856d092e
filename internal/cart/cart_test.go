package cart

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMergesDuplicateProduct(t *testing.T) {
	c := &Cart{}

	require.NoError(t, c.Add(1, 2))
	require.NoError(t, c.Add(2, 1))
	require.NoError(t, c.Add(1, 3))

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, models.CartLine{ProductID: 1, Quantity: 5}, lines[0])
	assert.Equal(t, models.CartLine{ProductID: 2, Quantity: 1}, lines[1])
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	c := &Cart{}

	assert.ErrorIs(t, c.Add(1, 0), models.ErrInvalidQuantity)
	assert.ErrorIs(t, c.Add(1, -3), models.ErrInvalidQuantity)
	assert.Zero(t, c.Len())
}

func TestUpdateSetsAbsoluteQuantity(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.Add(5, 2))

	require.NoError(t, c.Update(5, 7))
	assert.Equal(t, []models.CartLine{{ProductID: 5, Quantity: 7}}, c.Lines())
}

func TestUpdateMissingLineFails(t *testing.T) {
	c := &Cart{}
	assert.ErrorIs(t, c.Update(42, 1), models.ErrItemNotInCart)
}

func TestUpdateZeroEquivalentToRemove(t *testing.T) {
	for _, quantity := range []int{0, -1} {
		updated := &Cart{}
		removed := &Cart{}
		for _, c := range []*Cart{updated, removed} {
			require.NoError(t, c.Add(1, 1))
			require.NoError(t, c.Add(5, 3))
		}

		require.NoError(t, updated.Update(5, quantity))
		removed.Remove(5)

		assert.Equal(t, removed.Lines(), updated.Lines(), "quantity=%d", quantity)
		for _, line := range updated.Lines() {
			assert.NotEqual(t, int64(5), line.ProductID)
		}
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.Add(1, 1))

	c.Remove(99)
	c.Remove(1)
	c.Remove(1)

	assert.Zero(t, c.Len())
}

func TestClearIsIdempotent(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.Add(1, 1))

	c.Clear()
	c.Clear()

	assert.Zero(t, c.Len())
}

func TestUniquenessUnderMixedOperations(t *testing.T) {
	c := &Cart{}

	for i := 0; i < 50; i++ {
		productID := int64(i % 5)
		switch i % 4 {
		case 0, 1:
			require.NoError(t, c.Add(productID, 1))
		case 2:
			_ = c.Update(productID, i)
		case 3:
			c.Remove(productID)
		}

		seen := make(map[int64]bool)
		for _, line := range c.Lines() {
			assert.False(t, seen[line.ProductID], "duplicate line for product %d", line.ProductID)
			seen[line.ProductID] = true
			assert.Greater(t, line.Quantity, 0)
		}
	}
}

func TestTransactClearsOnSuccess(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.Add(1, 2))

	var seen []models.CartLine
	err := c.Transact(func(lines []models.CartLine) error {
		seen = lines
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []models.CartLine{{ProductID: 1, Quantity: 2}}, seen)
	assert.Zero(t, c.Len())
}

func TestTransactKeepsCartOnFailure(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.Add(1, 2))

	boom := errors.New("boom")
	err := c.Transact(func(lines []models.CartLine) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []models.CartLine{{ProductID: 1, Quantity: 2}}, c.Lines())
}

func TestConcurrentAddsStayConsistent(t *testing.T) {
	c := &Cart{}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = c.Add(int64(j%3), 1)
			}
		}()
	}
	wg.Wait()

	lines := c.Lines()
	require.Len(t, lines, 3)
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	assert.Equal(t, 20*50, total)
}

func TestStoreIsolatesSessions(t *testing.T) {
	s := NewStore(time.Hour)

	require.NoError(t, s.Get("alice").Add(1, 1))
	require.NoError(t, s.Get("bob").Add(2, 5))

	assert.Equal(t, []models.CartLine{{ProductID: 1, Quantity: 1}}, s.Get("alice").Lines())
	assert.Equal(t, []models.CartLine{{ProductID: 2, Quantity: 5}}, s.Get("bob").Lines())
	assert.Equal(t, 2, s.Len())
}

func TestStorePrunesIdleCarts(t *testing.T) {
	s := NewStore(time.Minute)

	for i := 0; i < 3; i++ {
		s.Get(fmt.Sprintf("session-%d", i))
	}
	require.Equal(t, 3, s.Len())

	s.prune(time.Now().Add(2 * time.Minute))
	assert.Zero(t, s.Len())
}
