package cart_test

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application"
	appcart "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/cart"
	domcart "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalog = map[string]string{
	"p-shirt": "12.50",
	"p-mug":   "4.00",
	"p-cap":   "9.99",
}

func newService(t *testing.T) (*appcart.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Atomic(context.Background(), func(ctx context.Context, repos application.Repositories) error {
		for pid, price := range catalog {
			p, err := dominv.NewProduct(pid, pid, decimal.RequireFromString(price), 10)
			if err != nil {
				return err
			}
			if err := repos.Products().Insert(ctx, p); err != nil {
				return err
			}
		}
		return nil
	}))
	return appcart.NewService(store, id.NewUUIDGenerator(), nil), store
}

func setPrice(t *testing.T, store *memory.Store, productID, price string) {
	t.Helper()
	require.NoError(t, store.Atomic(context.Background(), func(ctx context.Context, repos application.Repositories) error {
		p, err := repos.Products().Get(ctx, productID)
		if err != nil {
			return err
		}
		if err := p.Revise(p.Name, decimal.RequireFromString(price)); err != nil {
			return err
		}
		return repos.Products().Update(ctx, p)
	}))
}

func TestAddItemDefaultsToOne(t *testing.T) {
	svc, _ := newService(t)
	view, err := svc.AddItem(context.Background(), appcart.AddItemInput{CustomerID: "c-1", ProductID: "p-mug"})
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 1, view.Lines[0].Quantity)
	assert.Equal(t, "4.00", view.Total.StringFixed(2))
}

func TestAddItemValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, appcart.AddItemInput{ProductID: "p-mug"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = svc.AddItem(ctx, appcart.AddItemInput{CustomerID: "c-1"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = svc.AddItem(ctx, appcart.AddItemInput{CustomerID: "c-1", ProductID: "p-none"})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	n, err := svc.Count(ctx, "c-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAddItemRefusesQuantityPastLineCap(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, appcart.AddItemInput{CustomerID: "c-1", ProductID: "p-mug", Quantity: domcart.MaxLineQuantity})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, appcart.AddItemInput{CustomerID: "c-1", ProductID: "p-mug", Quantity: math.MaxInt})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = svc.AddItem(ctx, appcart.AddItemInput{CustomerID: "c-1", ProductID: "p-mug", Quantity: 1})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	lines, err := svc.Items(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, domcart.MaxLineQuantity, lines[0].Quantity)
	assert.True(t, lines[0].LineTotal.IsPositive())
}

func TestDecreaseAtOneRemovesLine(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, appcart.AddItemInput{CustomerID: "c-1", ProductID: "p-mug", Quantity: 1})
	require.NoError(t, err)

	view, err := svc.DecreaseItem(ctx, appcart.ItemInput{CustomerID: "c-1", ProductID: "p-mug"})
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, view.Total.IsZero())
}

func TestMutationsWithoutCartAreNoOps(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	view, err := svc.DecreaseItem(ctx, appcart.ItemInput{CustomerID: "c-9", ProductID: "p-mug"})
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	view, err = svc.RemoveItem(ctx, appcart.ItemInput{CustomerID: "c-9", ProductID: "p-mug"})
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	lines, err := svc.Items(ctx, "c-9")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestGetOrCreateActiveIsStable(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first, err := svc.GetOrCreateActive(ctx, "c-1")
	require.NoError(t, err)
	second, err := svc.GetOrCreateActive(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestItemsFollowLivePrice(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, appcart.AddItemInput{CustomerID: "c-1", ProductID: "p-shirt", Quantity: 2})
	require.NoError(t, err)

	setPrice(t, store, "p-shirt", "12.00")

	lines, err := svc.Items(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "12.00", lines[0].Price.StringFixed(2))
	assert.Equal(t, "24.00", lines[0].LineTotal.StringFixed(2))
}

func storedTotal(t *testing.T, store *memory.Store, customerID string) decimal.Decimal {
	t.Helper()
	total := decimal.Zero
	require.NoError(t, store.Atomic(context.Background(), func(ctx context.Context, repos application.Repositories) error {
		c, err := repos.Carts().FindActive(ctx, customerID)
		if err != nil {
			return err
		}
		total = c.Total
		return nil
	}))
	return total
}

// Any sequence of cart operations leaves the total equal to the sum of live
// price times quantity, with no line below one unit.
func TestRandomOperationsKeepTotalConsistent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	products := []string{"p-shirt", "p-mug", "p-cap"}

	for run := 0; run < 20; run++ {
		t.Run(fmt.Sprintf("run-%d", run), func(t *testing.T) {
			svc, store := newService(t)
			ctx := context.Background()
			want := map[string]int{}

			// Seed the cart so every later mutation finds it.
			_, err := svc.AddItem(ctx, appcart.AddItemInput{CustomerID: "c-1", ProductID: "p-mug"})
			require.NoError(t, err)
			want["p-mug"] = 1

			for step := 0; step < 40; step++ {
				pid := products[rng.Intn(len(products))]
				if rng.Intn(8) == 0 {
					setPrice(t, store, products[rng.Intn(len(products))], fmt.Sprintf("%d.%02d", rng.Intn(20), rng.Intn(100)))
				}

				var view *appcart.View
				switch rng.Intn(4) {
				case 0, 1:
					qty := rng.Intn(4) - 1
					view, err = svc.AddItem(ctx, appcart.AddItemInput{CustomerID: "c-1", ProductID: pid, Quantity: qty})
					if qty <= 0 {
						qty = 1
					}
					want[pid] += qty
				case 2:
					view, err = svc.DecreaseItem(ctx, appcart.ItemInput{CustomerID: "c-1", ProductID: pid})
					if want[pid] > 0 {
						want[pid]--
					}
				default:
					view, err = svc.RemoveItem(ctx, appcart.ItemInput{CustomerID: "c-1", ProductID: pid})
					want[pid] = 0
				}
				require.NoError(t, err)
				for k, q := range want {
					if q == 0 {
						delete(want, k)
					}
				}

				lines, err := svc.Items(ctx, "c-1")
				require.NoError(t, err)
				expected := decimal.Zero
				got := map[string]int{}
				units := 0
				for _, l := range lines {
					require.GreaterOrEqual(t, l.Quantity, 1)
					got[l.ProductID] = l.Quantity
					units += l.Quantity
					expected = expected.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
				}
				assert.Equal(t, want, got)
				assert.True(t, expected.Equal(view.Total), "view total %s, want %s", view.Total, expected)
				assert.True(t, expected.Equal(storedTotal(t, store, "c-1")), "stored total drifted")
				assert.Equal(t, units, view.Count)
			}
		})
	}
}
