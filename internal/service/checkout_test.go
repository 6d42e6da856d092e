package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckoutFixture(t *testing.T) (*CheckoutService, *cart.Store, *store.MemoryOrders) {
	t.Helper()
	carts := cart.NewStore(time.Hour)
	orders := store.NewMemoryOrders()
	svc := NewCheckoutService(carts, catalog.NewStatic(), orders, nil)
	return svc, carts, orders
}

func validCustomer() models.CustomerInfo {
	return models.CustomerInfo{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Address:   "12 Analytical Way",
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, _, orders := newCheckoutFixture(t)

	_, err := svc.Checkout(context.Background(), "s1", validCustomer())
	assert.ErrorIs(t, err, models.ErrEmptyCart)

	all, err := orders.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCheckoutIncompleteCustomerInfo(t *testing.T) {
	svc, carts, orders := newCheckoutFixture(t)
	require.NoError(t, carts.Get("s1").Add(1, 1))

	for _, tc := range []struct {
		name   string
		mutate func(*models.CustomerInfo)
	}{
		{"firstName", func(ci *models.CustomerInfo) { ci.FirstName = "" }},
		{"lastName", func(ci *models.CustomerInfo) { ci.LastName = " " }},
		{"email", func(ci *models.CustomerInfo) { ci.Email = "" }},
		{"address", func(ci *models.CustomerInfo) { ci.Address = "" }},
	} {
		info := validCustomer()
		tc.mutate(&info)

		_, err := svc.Checkout(context.Background(), "s1", info)
		assert.ErrorIs(t, err, models.ErrInvalidCustomerInfo, tc.name)
	}

	// Every rejection left the cart untouched and created nothing.
	assert.Equal(t, 1, carts.Get("s1").Len())
	all, err := orders.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCheckoutComputesTotalFromCurrentPrices(t *testing.T) {
	svc, carts, orders := newCheckoutFixture(t)

	// Laptop Pro at 999.99 x2, USB-C Cable at 9.99 x1.
	require.NoError(t, carts.Get("s1").Add(1, 2))
	require.NoError(t, carts.Get("s1").Add(3, 1))

	result, err := svc.Checkout(context.Background(), "s1", validCustomer())
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("2009.97").Equal(result.Total),
		"got total %s", result.Total)
	assert.Equal(t, models.OrderStatusPending, result.Status)
	assert.NotZero(t, result.OrderID)
	assert.Regexp(t, `^ORD-[0-9A-F]{8}$`, result.OrderNumber)

	// Cart cleared, exactly one order persisted.
	assert.Zero(t, carts.Get("s1").Len())
	all, err := orders.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)

	order := all[0]
	assert.Equal(t, models.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Equal(t, "Ada Lovelace", order.CustomerInfo.FullName())
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(1), order.Items[0].ProductID)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("999.99").Equal(order.Items[0].UnitPrice))
}

func TestCheckoutUnknownProductIsAtomic(t *testing.T) {
	svc, carts, orders := newCheckoutFixture(t)

	require.NoError(t, carts.Get("s1").Add(1, 1))
	require.NoError(t, carts.Get("s1").Add(999, 1))

	_, err := svc.Checkout(context.Background(), "s1", validCustomer())
	assert.ErrorIs(t, err, models.ErrUnknownProduct)
	assert.Contains(t, err.Error(), "999")

	// No order, cart untouched.
	all, err := orders.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, 2, carts.Get("s1").Len())
}

func TestCheckoutDiscardsCardFields(t *testing.T) {
	svc, carts, orders := newCheckoutFixture(t)
	require.NoError(t, carts.Get("s1").Add(2, 1))

	info := validCustomer()
	info.CardNumber = "4111111111111111"
	info.ExpiryDate = "12/30"
	info.CVV = "123"

	_, err := svc.Checkout(context.Background(), "s1", info)
	require.NoError(t, err)

	all, err := orders.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Empty(t, all[0].CustomerInfo.CardNumber)
	assert.Empty(t, all[0].CustomerInfo.ExpiryDate)
	assert.Empty(t, all[0].CustomerInfo.CVV)
}

func TestConcurrentCheckoutExactlyOneSucceeds(t *testing.T) {
	svc, carts, orders := newCheckoutFixture(t)
	require.NoError(t, carts.Get("s1").Add(1, 1))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Checkout(context.Background(), "s1", validCustomer())
		}(i)
	}
	wg.Wait()

	succeeded, emptied := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, models.ErrEmptyCart):
			emptied++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, emptied)

	all, err := orders.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Zero(t, carts.Get("s1").Len())
}

// stallingPublisher parks PublishOrderPlaced until released, modelling
// an unreachable broker.
type stallingPublisher struct {
	started chan struct{}
	release chan struct{}
}

func (p *stallingPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	close(p.started)
	<-p.release
	return nil
}

func (p *stallingPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	return nil
}

func (p *stallingPublisher) PublishOrderDeleted(ctx context.Context, event *models.OrderDeletedEvent) error {
	return nil
}

func TestCheckoutReleasesCartLockBeforePublish(t *testing.T) {
	carts := cart.NewStore(time.Hour)
	orders := store.NewMemoryOrders()
	pub := &stallingPublisher{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewCheckoutService(carts, catalog.NewStatic(), orders, pub)
	require.NoError(t, carts.Get("s1").Add(1, 1))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Checkout(context.Background(), "s1", validCustomer())
		done <- err
	}()
	<-pub.started

	// The publish is in flight; the cart lock must already be free.
	added := make(chan error, 1)
	go func() { added <- carts.Get("s1").Add(2, 1) }()
	select {
	case err := <-added:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("cart mutation waited on the event publish")
	}

	close(pub.release)
	require.NoError(t, <-done)

	all, err := orders.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestValidateCustomerInfoAllowsOptionalFieldsEmpty(t *testing.T) {
	info := validCustomer()
	info.Phone = ""
	info.City = ""
	info.State = ""
	info.ZipCode = ""

	assert.NoError(t, validateCustomerInfo(info))
}
