package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application"
	domcart "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests run only against a disposable database named by
// MINISHOP_TEST_DATABASE_URL.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("MINISHOP_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("MINISHOP_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx), "migrate is idempotent")
	return s
}

func insertProduct(t *testing.T, s *Store, stock int) string {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, s.Atomic(context.Background(), func(ctx context.Context, repos application.Repositories) error {
		p, err := dominv.NewProduct(id, "Shirt "+id[:8], decimal.RequireFromString("12.50"), stock)
		if err != nil {
			return err
		}
		return repos.Products().Insert(ctx, p)
	}))
	return id
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

func TestGuardedReserveUnderContention(t *testing.T) {
	s := openTestStore(t)
	productID := insertProduct(t, s, 3)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		won     int
		refused int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Atomic(context.Background(), func(ctx context.Context, repos application.Repositories) error {
				_, err := repos.Products().Reserve(ctx, productID, 1)
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
			} else if errors.Is(err, errs.ErrOutOfStock) {
				refused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, won)
	assert.Equal(t, 7, refused)
	assert.Zero(t, stockOf(t, s, productID))
}

func TestAtomicRollsBack(t *testing.T) {
	s := openTestStore(t)
	productID := insertProduct(t, s, 5)
	boom := errors.New("boom")

	err := s.Atomic(context.Background(), func(ctx context.Context, repos application.Repositories) error {
		if _, err := repos.Products().Reserve(ctx, productID, 4); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 5, stockOf(t, s, productID))
}

func TestOrderRoundTripKeepsSnapshot(t *testing.T) {
	s := openTestStore(t)
	productID := insertProduct(t, s, 5)
	customerID := "c-" + uuid.NewString()
	ctx := context.Background()

	o, err := domorder.New(uuid.NewString(), customerID, "1 Harbour Road", []domorder.Item{
		{ProductID: productID, ProductName: "Shirt", Quantity: 2, UnitPrice: decimal.RequireFromString("12.50")},
	})
	require.NoError(t, err)

	require.NoError(t, s.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		c := domcart.New(uuid.NewString(), customerID)
		if err := repos.Carts().Insert(ctx, c); err != nil {
			return err
		}
		if err := c.Add(productID, 2); err != nil {
			return err
		}
		if err := repos.Carts().Save(ctx, c); err != nil {
			return err
		}
		return repos.Orders().Insert(ctx, o)
	}))

	require.NoError(t, s.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		got, err := repos.Orders().Get(ctx, o.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, domorder.StatusPending, got.Status)
		assert.Equal(t, "25.00", got.TotalAmount.StringFixed(2))
		require.Len(t, got.Items, 1)
		assert.Equal(t, 2, got.Items[0].Quantity)

		c, err := repos.Carts().FindActive(ctx, customerID)
		if err != nil {
			return err
		}
		assert.Equal(t, 2, c.Count())

		err = repos.Carts().Insert(ctx, domcart.New(uuid.NewString(), customerID))
		assert.ErrorIs(t, err, domcart.ErrConflict, "one active cart per customer")
		return nil
	}))
}
