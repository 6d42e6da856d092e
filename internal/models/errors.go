package models

import (
	"errors"
	"fmt"
)

// Failure taxonomy for cart, checkout and order operations. Handlers
// classify with errors.Is; services add context with fmt.Errorf("%w").
var (
	ErrInvalidQuantity     = errors.New("quantity must be a positive integer")
	ErrItemNotInCart       = errors.New("item not in cart")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidCustomerInfo = errors.New("missing required customer information")
	ErrUnknownProduct      = errors.New("unknown product")
	ErrProductNotFound     = errors.New("product not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)

// UnknownProductErr wraps ErrUnknownProduct with the offending id.
func UnknownProductErr(productID int64) error {
	return fmt.Errorf("%w: %d", ErrUnknownProduct, productID)
}
