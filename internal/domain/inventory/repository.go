package inventory

import (
	"context"
)

// Repository persists products. Reserve and Release must be atomic with respect
// to concurrent callers touching the same product.
type Repository interface {
	Get(ctx context.Context, productID string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	Insert(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	Reserve(ctx context.Context, productID string, quantity int) (*Product, error)
	Release(ctx context.Context, productID string, quantity int) (*Product, error)
}
