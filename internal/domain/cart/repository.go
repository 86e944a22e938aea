package cart

import "context"

// Repository persists carts. FindActive must lock the cart for the remainder of
// the enclosing transaction so mutations of the same cart serialize.
type Repository interface {
	FindActive(ctx context.Context, customerID string) (*Cart, error)
	Insert(ctx context.Context, cart *Cart) error
	Save(ctx context.Context, cart *Cart) error
}
