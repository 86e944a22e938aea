package catalog_test

import (
	"context"
	"sync"
	"testing"

	appcatalog "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/catalog"
	domaudit "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/audit"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct{ action, entityType, entityID string }

type auditSpy struct {
	mu      sync.Mutex
	entries []recorded
}

func (a *auditSpy) Record(_ context.Context, action, entityType, entityID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, recorded{action, entityType, entityID})
}

var admin = appcatalog.Actor{CustomerID: "ops", IsAdmin: true}

func newService() (*appcatalog.Service, *auditSpy) {
	spy := &auditSpy{}
	return appcatalog.NewService(memory.NewStore(), id.NewUUIDGenerator(), spy, nil), spy
}

func TestCreateProductRequiresAdmin(t *testing.T) {
	svc, spy := newService()
	_, err := svc.CreateProduct(context.Background(), appcatalog.Actor{CustomerID: "c-1"}, appcatalog.CreateProductInput{
		Name: "Cap", UnitPrice: decimal.RequireFromString("9.99"), Stock: 3,
	})
	assert.ErrorIs(t, err, errs.ErrForbidden)
	assert.Empty(t, spy.entries)

	products, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestCreateAndUpdateProduct(t *testing.T) {
	svc, spy := newService()
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, admin, appcatalog.CreateProductInput{
		Name: "Cap", UnitPrice: decimal.RequireFromString("9.99"), Stock: 3,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	updated, err := svc.UpdateProduct(ctx, admin, appcatalog.UpdateProductInput{
		ProductID: p.ID, Name: "Wool Cap", UnitPrice: decimal.RequireFromString("11.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Wool Cap", updated.Name)
	assert.Equal(t, 3, updated.Stock, "updates never touch stock")

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "11.00", got.UnitPrice.StringFixed(2))

	require.Len(t, spy.entries, 2)
	assert.Equal(t, recorded{domaudit.ActionProductCreated, domaudit.EntityProduct, p.ID}, spy.entries[0])
	assert.Equal(t, recorded{domaudit.ActionProductUpdated, domaudit.EntityProduct, p.ID}, spy.entries[1])
}

func TestProductValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	for name, in := range map[string]appcatalog.CreateProductInput{
		"blank name":     {Name: " ", UnitPrice: decimal.NewFromInt(1), Stock: 1},
		"negative price": {Name: "Cap", UnitPrice: decimal.NewFromInt(-1), Stock: 1},
		"negative stock": {Name: "Cap", UnitPrice: decimal.NewFromInt(1), Stock: -1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, admin, in)
			assert.ErrorIs(t, err, errs.ErrInvalidInput)
		})
	}

	_, err := svc.UpdateProduct(ctx, admin, appcatalog.UpdateProductInput{ProductID: "missing", Name: "Cap"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = svc.UpdateProduct(ctx, admin, appcatalog.UpdateProductInput{Name: "Cap"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = svc.UpdateProduct(ctx, appcatalog.Actor{}, appcatalog.UpdateProductInput{ProductID: "missing"})
	assert.ErrorIs(t, err, errs.ErrForbidden)
}

func TestSeedSkipsExisting(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	products := []*dominv.Product{
		{ID: "p-1", Name: "Shirt", UnitPrice: decimal.RequireFromString("12.50"), Stock: 5},
		{ID: "p-2", Name: "Mug", UnitPrice: decimal.RequireFromString("4.00"), Stock: 1},
	}

	n, err := svc.Seed(ctx, products)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.Seed(ctx, products)
	require.NoError(t, err)
	assert.Zero(t, n)

	listed, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "Mug", listed[0].Name, "listing is ordered by name")
}
