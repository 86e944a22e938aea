package cart

import (
	"errors"
	"math"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTreatsNonPositiveQuantityAsOne(t *testing.T) {
	c := New("cart-1", "c-1")
	require.NoError(t, c.Add("p-1", 0))
	require.NoError(t, c.Add("p-1", -3))
	require.NoError(t, c.Add("p-2", 2))

	require.Len(t, c.Items, 2)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, 4, c.Count())
}

func TestDecreaseDeletesLineAtOne(t *testing.T) {
	c := New("cart-1", "c-1")
	require.NoError(t, c.Add("p-1", 2))

	require.NoError(t, c.Decrease("p-1"))
	assert.Equal(t, 1, c.Items[0].Quantity)

	require.NoError(t, c.Decrease("p-1"))
	assert.True(t, c.IsEmpty())

	require.NoError(t, c.Decrease("p-1"), "missing line is a no-op")
}

func TestRemove(t *testing.T) {
	c := New("cart-1", "c-1")
	require.NoError(t, c.Add("p-1", 5))
	require.NoError(t, c.Add("p-2", 1))
	require.NoError(t, c.Remove("p-1"))

	assert.Equal(t, []string{"p-2"}, c.ProductIDs())
}

func TestReprice(t *testing.T) {
	c := New("cart-1", "c-1")
	require.NoError(t, c.Add("p-1", 2))
	require.NoError(t, c.Add("p-2", 1))

	require.NoError(t, c.Reprice(map[string]decimal.Decimal{
		"p-1": decimal.RequireFromString("12.50"),
		"p-2": decimal.RequireFromString("0.99"),
	}))
	assert.Equal(t, "25.99", c.Total.StringFixed(2))

	err := c.Reprice(map[string]decimal.Decimal{"p-1": decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrMissingPrice)
	assert.Equal(t, "25.99", c.Total.StringFixed(2), "failed reprice keeps the previous total")
}

func TestConvert(t *testing.T) {
	c := New("cart-1", "c-1")
	assert.ErrorIs(t, c.Convert("o-1"), errs.ErrEmptyCart)

	require.NoError(t, c.Add("p-1", 1))
	require.NoError(t, c.Convert("o-1"))
	assert.Equal(t, StatusConverted, c.Status)
	assert.Equal(t, "o-1", c.OrderID)

	for _, mutate := range []func() error{
		func() error { return c.Add("p-1", 1) },
		func() error { return c.Decrease("p-1") },
		func() error { return c.Remove("p-1") },
		func() error { return c.Convert("o-2") },
	} {
		err := mutate()
		assert.True(t, errors.Is(err, ErrNotActive), "got %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	c := New("cart-1", "c-1")
	require.NoError(t, c.Add("p-1", 1))

	clone := c.Clone()
	require.NoError(t, clone.Add("p-1", 1))

	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, 2, clone.Items[0].Quantity)
}

func TestAddCapsLineQuantity(t *testing.T) {
	c := New("cart-1", "c-1")

	assert.ErrorIs(t, c.Add("p-1", math.MaxInt), errs.ErrInvalidInput)
	assert.True(t, c.IsEmpty())

	require.NoError(t, c.Add("p-1", MaxLineQuantity))
	err := c.Add("p-1", 1)
	assert.ErrorIs(t, err, ErrQuantityCap)
	assert.Equal(t, MaxLineQuantity, c.Items[0].Quantity, "refused add leaves the line untouched")

	require.NoError(t, c.Decrease("p-1"))
	require.NoError(t, c.Add("p-1", 1))
	assert.Equal(t, MaxLineQuantity, c.Count())
}
