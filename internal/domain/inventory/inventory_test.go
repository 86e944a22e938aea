package inventory

import (
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductValidation(t *testing.T) {
	_, err := NewProduct("p-1", " ", decimal.NewFromInt(1), 1)
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = NewProduct("p-1", "Shirt", decimal.NewFromInt(-1), 1)
	assert.ErrorIs(t, err, ErrInvalidPrice)
	_, err = NewProduct("p-1", "Shirt", decimal.RequireFromString("0.005"), 1)
	assert.ErrorIs(t, err, ErrInvalidPrice, "sub-cent prices would round differently per store")
	_, err = NewProduct("p-1", "Shirt", decimal.RequireFromString("1000000"), 1)
	assert.ErrorIs(t, err, ErrInvalidPrice)
	_, err = NewProduct("p-1", "Shirt", decimal.RequireFromString("4.50000"), 1)
	assert.NoError(t, err, "trailing zeros are still two places")
	_, err = NewProduct("p-1", "Shirt", decimal.NewFromInt(1), -1)
	assert.ErrorIs(t, err, ErrInvalidStock)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestReserveAndRelease(t *testing.T) {
	p, err := NewProduct("p-1", "Shirt", decimal.RequireFromString("12.50"), 3)
	require.NoError(t, err)

	require.NoError(t, p.Reserve(3))
	assert.Zero(t, p.Stock)

	err = p.Reserve(1)
	var oos *errs.OutOfStockError
	require.True(t, errors.As(err, &oos))
	assert.ErrorIs(t, err, errs.ErrOutOfStock)
	assert.Equal(t, "p-1", oos.ProductID)
	assert.Equal(t, 1, oos.Requested)
	assert.Zero(t, oos.Available)
	assert.Zero(t, p.Stock, "failed reserve leaves stock alone")

	require.NoError(t, p.Release(2))
	assert.Equal(t, 2, p.Stock)

	assert.ErrorIs(t, p.Reserve(0), ErrInvalidQuantity)
	assert.ErrorIs(t, p.Release(-1), ErrInvalidQuantity)
}

func TestRevise(t *testing.T) {
	p, err := NewProduct("p-1", "Shirt", decimal.RequireFromString("12.50"), 3)
	require.NoError(t, err)

	require.NoError(t, p.Revise(" Tee ", decimal.RequireFromString("10")))
	assert.Equal(t, "Tee", p.Name)
	assert.Equal(t, 3, p.Stock)

	assert.ErrorIs(t, p.Revise("Tee", decimal.NewFromInt(-2)), ErrInvalidPrice)
	assert.Equal(t, "10.00", p.UnitPrice.StringFixed(2))
}
