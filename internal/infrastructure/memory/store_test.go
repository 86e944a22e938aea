package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application"
	domaudit "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/audit"
	domcart "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store, stock int) {
	t.Helper()
	require.NoError(t, s.Atomic(context.Background(), func(ctx context.Context, repos application.Repositories) error {
		p, err := dominv.NewProduct("p-1", "Shirt", decimal.RequireFromString("12.50"), stock)
		if err != nil {
			return err
		}
		return repos.Products().Insert(ctx, p)
	}))
}

func stockOf(t *testing.T, s *Store, id string) int {
	t.Helper()
	var stock int
	require.NoError(t, s.Atomic(context.Background(), func(ctx context.Context, repos application.Repositories) error {
		p, err := repos.Products().Get(ctx, id)
		if err != nil {
			return err
		}
		stock = p.Stock
		return nil
	}))
	return stock
}

func TestAtomicRollsBackOnError(t *testing.T) {
	s := NewStore()
	seed(t, s, 5)
	boom := errors.New("boom")

	err := s.Atomic(context.Background(), func(ctx context.Context, repos application.Repositories) error {
		if _, err := repos.Products().Reserve(ctx, "p-1", 2); err != nil {
			return err
		}
		if err := repos.Carts().Insert(ctx, domcart.New("cart-1", "c-1")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 5, stockOf(t, s, "p-1"))
	_ = s.Atomic(context.Background(), func(ctx context.Context, repos application.Repositories) error {
		_, ferr := repos.Carts().FindActive(ctx, "c-1")
		assert.ErrorIs(t, ferr, domcart.ErrNotFound)
		return nil
	})
}

func TestAtomicRollsBackOnPanic(t *testing.T) {
	s := NewStore()
	seed(t, s, 5)

	assert.Panics(t, func() {
		_ = s.Atomic(context.Background(), func(ctx context.Context, repos application.Repositories) error {
			_, _ = repos.Products().Reserve(ctx, "p-1", 5)
			panic("mid-transaction")
		})
	})
	assert.Equal(t, 5, stockOf(t, s, "p-1"))
}

func TestAtomicRefusesCancelledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Atomic(ctx, func(context.Context, application.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestReserveNeverGoesNegative(t *testing.T) {
	s := NewStore()
	seed(t, s, 1)

	err := s.Atomic(context.Background(), func(ctx context.Context, repos application.Repositories) error {
		_, err := repos.Products().Reserve(ctx, "p-1", 2)
		return err
	})
	var oos *errs.OutOfStockError
	require.True(t, errors.As(err, &oos))
	assert.Equal(t, 1, oos.Available)
	assert.Equal(t, 1, stockOf(t, s, "p-1"))
}

func TestSingleActiveCartPerCustomer(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		return repos.Carts().Insert(ctx, domcart.New("cart-1", "c-1"))
	}))

	err := s.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		return repos.Carts().Insert(ctx, domcart.New("cart-2", "c-1"))
	})
	assert.ErrorIs(t, err, domcart.ErrConflict)

	// Converting the active cart frees the slot for a fresh one.
	require.NoError(t, s.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		c, err := repos.Carts().FindActive(ctx, "c-1")
		if err != nil {
			return err
		}
		if err := c.Add("p-1", 1); err != nil {
			return err
		}
		if err := c.Convert("o-1"); err != nil {
			return err
		}
		if err := repos.Carts().Save(ctx, c); err != nil {
			return err
		}
		return repos.Carts().Insert(ctx, domcart.New("cart-2", "c-1"))
	}))

	require.NoError(t, s.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		c, err := repos.Carts().FindActive(ctx, "c-1")
		if err != nil {
			return err
		}
		assert.Equal(t, "cart-2", c.ID)
		return nil
	}))
}

func TestAuditListRecentNewestFirst(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for _, id := range []string{"a-1", "a-2", "a-3"} {
		require.NoError(t, s.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
			return repos.Audit().Append(ctx, &domaudit.Entry{ID: id, Action: "order created"})
		}))
	}

	require.NoError(t, s.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		entries, err := repos.Audit().ListRecent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "a-3", entries[0].ID)
		assert.Equal(t, "a-2", entries[1].ID)
		return nil
	}))
}
