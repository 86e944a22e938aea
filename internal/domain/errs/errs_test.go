package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageWrapsOnlyUnclassified(t *testing.T) {
	raw := errors.New("connection reset")
	wrapped := Storage(raw)
	assert.ErrorIs(t, wrapped, ErrStorage)
	assert.ErrorIs(t, wrapped, raw)

	business := fmt.Errorf("cart: %w", ErrEmptyCart)
	assert.Same(t, business, Storage(business))

	assert.NoError(t, Storage(nil))
}

func TestTypedErrorsMatchTheirKind(t *testing.T) {
	oos := fmt.Errorf("checkout: %w", &OutOfStockError{ProductID: "p-1", Name: "Shirt", Requested: 2, Available: 1})
	assert.ErrorIs(t, oos, ErrOutOfStock)
	assert.True(t, Classified(oos))
	assert.Contains(t, oos.Error(), "Shirt (p-1)")

	cc := &CannotCancelError{OrderID: "o-1", Status: "Shipped", Reason: "order already shipped"}
	assert.ErrorIs(t, cc, ErrCannotCancel)
	assert.NotErrorIs(t, cc, ErrInvalidTransition)
}

func TestInvalid(t *testing.T) {
	err := Invalid("limit must be positive")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "limit must be positive")
}
