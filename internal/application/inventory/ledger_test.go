package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application"
	appinventory "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withProducts(t *testing.T, stock int, fn func(ctx context.Context, products dominv.Repository)) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Atomic(context.Background(), func(ctx context.Context, repos application.Repositories) error {
		p, err := dominv.NewProduct("p-1", "Shirt", decimal.RequireFromString("12.50"), stock)
		if err != nil {
			return err
		}
		if err := repos.Products().Insert(ctx, p); err != nil {
			return err
		}
		fn(ctx, repos.Products())
		return nil
	}))
}

func TestReserveAndRelease(t *testing.T) {
	ledger := appinventory.NewLedger(nil)
	withProducts(t, 3, func(ctx context.Context, products dominv.Repository) {
		p, err := ledger.Reserve(ctx, products, "p-1", 2)
		require.NoError(t, err)
		assert.Equal(t, 1, p.Stock)

		p, err = ledger.Release(ctx, products, "p-1", 2)
		require.NoError(t, err)
		assert.Equal(t, 3, p.Stock)
	})
}

func TestReserveOutOfStockNamesProduct(t *testing.T) {
	ledger := appinventory.NewLedger(nil)
	withProducts(t, 1, func(ctx context.Context, products dominv.Repository) {
		_, err := ledger.Reserve(ctx, products, "p-1", 2)
		var oos *errs.OutOfStockError
		require.True(t, errors.As(err, &oos), "got %v", err)
		assert.Equal(t, "Shirt", oos.Name)
		assert.NotErrorIs(t, err, errs.ErrStorage)

		p, err := products.Get(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, 1, p.Stock)
	})
}

func TestLedgerRejectsBadArguments(t *testing.T) {
	ledger := appinventory.NewLedger(nil)
	withProducts(t, 1, func(ctx context.Context, products dominv.Repository) {
		_, err := ledger.Reserve(ctx, products, "", 1)
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
		_, err = ledger.Reserve(ctx, products, "p-1", 0)
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
		_, err = ledger.Release(ctx, products, "p-1", -1)
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
		_, err = ledger.Release(ctx, products, "p-missing", 1)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})
}
